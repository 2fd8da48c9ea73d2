package serviceapp

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

	app.HandlerFunc(http.MethodGet, version, "/services", api.query, authen,
		mid.Authorize(cfg.Auth, resource.Services, action.List, ""))

	app.HandlerFunc(http.MethodGet, version, "/services/{service_id}", api.queryByID, authen,
		mid.Authorize(cfg.Auth, resource.Service, action.Get, "service_id"))

	app.HandlerFunc(http.MethodPost, version, "/services", api.create, authen,
		mid.Authorize(cfg.Auth, resource.Service, action.Create, ""))

	app.HandlerFunc(http.MethodDelete, version, "/services/{service_id}", api.delete, authen,
		mid.Authorize(cfg.Auth, resource.Service, action.Delete, "service_id"))
}
