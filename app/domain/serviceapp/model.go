package serviceapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

// Service represents a tenant. The shared key is never part of it.
type Service struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rooms       []string `json:"rooms"`
	DateCreated string   `json:"dateCreated"`
}

// Encode implements the web.Encoder interface.
func (app Service) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppService(bus servicebus.Service) Service {
	rooms := make([]string, len(bus.Rooms))
	for i, id := range bus.Rooms {
		rooms[i] = id.String()
	}

	return Service{
		ID:          bus.ID.String(),
		Name:        bus.Name.String(),
		Rooms:       rooms,
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
	}
}

// Services is a list of services.
type Services []Service

// Encode implements the web.Encoder interface.
func (app Services) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppServices(svcs []servicebus.Service) Services {
	app := make(Services, len(svcs))
	for i, svc := range svcs {
		app[i] = toAppService(svc)
	}
	return app
}

// =============================================================================

// CreatedService is returned once after creation and carries the key.
type CreatedService struct {
	Service
	Key string `json:"key"`
}

// Encode implements the web.Encoder interface.
func (app CreatedService) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

// HTTPStatus sets the status of a created service.
func (app CreatedService) HTTPStatus() int {
	return http.StatusCreated
}

// =============================================================================

// NewService defines the data needed to add a new service.
type NewService struct {
	Name string `json:"name" validate:"required"`
	Key  string `json:"key" validate:"omitempty,min=16"`
}

// Decode implements the web.Decoder interface.
func (app *NewService) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewService) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewService(app NewService) (servicebus.NewService, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return servicebus.NewService{}, fmt.Errorf("parse name: %w", err)
	}

	bus := servicebus.NewService{
		Name: nme,
		Key:  app.Key,
	}

	return bus, nil
}
