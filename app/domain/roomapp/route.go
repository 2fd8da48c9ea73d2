package roomapp

import (
	"net/http"

	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log        *logger.Logger
	Auth       *auth.Auth
	ServiceBus *servicebus.Core
	RoomBus    *roombus.Core
	Beginner   sqldb.Beginner
	Retry      retry.Policy
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)

	api := newApp(cfg)

	app.HandlerFunc(http.MethodGet, version, "/rooms", api.query, authen,
		mid.Authorize(cfg.Auth, resource.Rooms, action.List, ""))

	app.HandlerFunc(http.MethodPost, version, "/rooms", api.create, authen,
		mid.Authorize(cfg.Auth, resource.Rooms, action.Create, ""))

	app.HandlerFunc(http.MethodGet, version, "/rooms/{room_id}", api.queryByID, authen,
		mid.Authorize(cfg.Auth, resource.Room, action.Get, "room_id"))

	app.HandlerFunc(http.MethodDelete, version, "/rooms/{room_id}", api.delete, authen,
		mid.Authorize(cfg.Auth, resource.Room, action.Delete, "room_id"))
}
