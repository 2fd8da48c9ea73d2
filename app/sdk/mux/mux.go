// Package mux provides support to bind domain level routes
// to the application mux.
package mux

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/sdk/engine"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
	deadline   time.Duration
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// WithDeadline bounds the time every request may take in the handlers.
func WithDeadline(d time.Duration) func(opts *Options) {
	return func(opts *Options) {
		opts.deadline = d
	}
}

// Sealer encrypts and decrypts tenant secrets at rest.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthConfig contains auth service specific config.
type AuthConfig struct {
	Nonces    auth.NonceStore
	KeyLookup auth.KeyLookup
	Issuer    string
	SuperID   uuid.UUID
	Skew      time.Duration
	OnFailure func(ctx context.Context, reason string)
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build      string
	Log        *logger.Logger
	DB         *sqlx.DB
	Tracer     trace.Tracer
	Sealer     Sealer
	Engine     *engine.Client
	CacheTTL   time.Duration
	Retry      retry.Policy
	TranRetry  retry.Policy
	Pingers    map[string]Pinger
	AuthConfig AuthConfig
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config) error
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) (http.Handler, error) {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	mw := []web.MidFunc{
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	}

	if opts.deadline > 0 {
		mw = append(mw, mid.Deadline(opts.deadline))
	}

	app := web.NewApp(cfg.Log.Info, cfg.Tracer, mw...)

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	if err := routeAdder.Add(app, cfg); err != nil {
		return nil, err
	}

	return app, nil
}
