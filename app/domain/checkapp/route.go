package checkapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Pinger is a dependency readiness reports on besides the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build   string
	Log     *logger.Logger
	DB      *sqlx.DB
	Pingers map[string]Pinger
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg)

	app.HandlerFuncNoMid(http.MethodGet, version, "/readiness", api.readiness)
	app.HandlerFuncNoMid(http.MethodGet, version, "/liveness", api.liveness)
}
