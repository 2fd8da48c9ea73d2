package roomapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

// unlimited is the limit value meaning no limit.
const unlimited = -1

// Room represents a conferencing room.
type Room struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ParticipantLimit int            `json:"participantLimit"`
	InputLimit       int            `json:"inputLimit"`
	Roles            []roombus.Role `json:"roles"`
	Views            []roombus.View `json:"views"`
	DateCreated      string         `json:"dateCreated"`
}

// Encode implements the web.Encoder interface.
func (app Room) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppRoom(bus roombus.Room) Room {
	return Room{
		ID:               bus.ID.String(),
		Name:             bus.Name.String(),
		ParticipantLimit: bus.ParticipantLimit,
		InputLimit:       bus.InputLimit,
		Roles:            bus.Roles,
		Views:            bus.Views,
		DateCreated:      bus.CreatedAt.Format(time.RFC3339),
	}
}

// Rooms is a list of rooms.
type Rooms []Room

// Encode implements the web.Encoder interface.
func (app Rooms) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppRooms(rms []roombus.Room) Rooms {
	app := make(Rooms, len(rms))
	for i, rm := range rms {
		app[i] = toAppRoom(rm)
	}
	return app
}

// createdRoom sets the status of a newly created room.
type createdRoom struct {
	Room
}

// HTTPStatus implements the web package httpStatus interface.
func (createdRoom) HTTPStatus() int {
	return http.StatusCreated
}

// =============================================================================

// NewRoom defines the data needed to add a new room. Absent limits mean
// unlimited; absent roles and views take the defaults.
type NewRoom struct {
	Name             string         `json:"name" validate:"required"`
	ParticipantLimit *int           `json:"participantLimit"`
	InputLimit       *int           `json:"inputLimit"`
	Roles            []roombus.Role `json:"roles"`
	Views            []roombus.View `json:"views"`
}

// Decode implements the web.Decoder interface.
func (app *NewRoom) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewRoom) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewRoom(app NewRoom) (roombus.NewRoom, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return roombus.NewRoom{}, fmt.Errorf("parse name: %w", err)
	}

	bus := roombus.NewRoom{
		Name:             nme,
		ParticipantLimit: unlimited,
		InputLimit:       unlimited,
		Roles:            app.Roles,
		Views:            app.Views,
	}

	if app.ParticipantLimit != nil {
		bus.ParticipantLimit = *app.ParticipantLimit
	}

	if app.InputLimit != nil {
		bus.InputLimit = *app.InputLimit
	}

	return bus, nil
}
