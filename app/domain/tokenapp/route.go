package tokenapp

import (
	"net/http"

	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *logger.Logger
	Auth     *auth.Auth
	TokenBus *tokenbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.TokenBus)

	app.HandlerFunc(http.MethodPost, version, "/rooms/{room_id}/tokens", api.create,
		mid.Authenticate(cfg.Auth),
		mid.Authorize(cfg.Auth, resource.Token, action.Create, "room_id"))
}
