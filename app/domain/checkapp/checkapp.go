// Package checkapp maintains the app layer api for the health checks.
package checkapp

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type app struct {
	build   string
	log     *logger.Logger
	db      *sqlx.DB
	pingers map[string]Pinger
}

func newApp(cfg Config) *app {
	return &app{
		build:   cfg.Build,
		log:     cfg.Log,
		db:      cfg.DB,
		pingers: cfg.Pingers,
	}
}

// readiness checks if the database and the nonce cache are ready and if not
// will return a 503 status. Do not respond by just returning an error because
// further up in the call stack it will interpret that as a non-trusted error.
func (a *app) readiness(ctx context.Context, r *http.Request) web.Encoder {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	checks := make(map[string]string)
	failed := false

	if err := sqldb.StatusCheck(ctx, a.db); err != nil {
		a.log.Info(ctx, "readiness failure", "check", "db", "ERROR", err)
		checks["db"] = "down"
		failed = true
	}

	for name, p := range a.pingers {
		if err := p.Ping(ctx); err != nil {
			a.log.Info(ctx, "readiness failure", "check", name, "ERROR", err)
			checks[name] = "down"
			failed = true
		}
	}

	if failed {
		return errs.Errorf(errs.Unavailable, "not ready: %v", checks)
	}

	return status{Status: "ok"}
}

// liveness returns simple status info if the service is alive.
func (a *app) liveness(ctx context.Context, r *http.Request) web.Encoder {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	info := Info{
		Status:     "up",
		Build:      a.build,
		Host:       host,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return info
}
