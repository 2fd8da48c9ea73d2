package tokenapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
)

// Preference is the placement hint of the end user.
type Preference struct {
	ISP    string `json:"isp"`
	Region string `json:"region"`
}

// NewToken defines the data needed to issue a room token.
type NewToken struct {
	User       string      `json:"user"`
	Role       string      `json:"role"`
	Preference *Preference `json:"preference"`
}

// Decode implements the web.Decoder interface.
func (app *NewToken) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewToken) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

// toBusNewToken takes user and role from the identity assertion when the
// caller presented one.
func toBusNewToken(app NewToken, roomID uuid.UUID, caller auth.Caller) tokenbus.NewToken {
	user := app.User
	if caller.User != "" {
		user = caller.User
	}

	role := app.Role
	if caller.Role != "" {
		role = caller.Role
	}

	var org origin.Origin
	if app.Preference != nil {
		org = origin.Origin{
			ISP:    app.Preference.ISP,
			Region: app.Preference.Region,
		}
	}

	return tokenbus.NewToken{
		RoomID: roomID,
		User:   user,
		Role:   role,
		Origin: org,
	}
}

// Token is the opaque token handed back to the caller.
type Token string

// Encode implements the web.Encoder interface.
func (app Token) Encode() ([]byte, string, error) {
	data, err := json.Marshal(string(app))
	return data, "application/json", err
}

// HTTPStatus implements the web package httpStatus interface.
func (Token) HTTPStatus() int {
	return http.StatusCreated
}
