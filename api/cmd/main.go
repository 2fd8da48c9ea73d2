package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/api/cmd/build/all"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/debug"
	"github.com/jcpaschoal/confmgmt/app/sdk/metrics"
	"github.com/jcpaschoal/confmgmt/app/sdk/mux"
	"github.com/jcpaschoal/confmgmt/business/sdk/engine"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/keystore"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/nonce"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
	"github.com/jcpaschoal/confmgmt/foundation/secretbox"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

var build = "develop"

type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ReadTimeout        time.Duration `envconfig:"WEB_READ_TIMEOUT" default:"5s"`
		WriteTimeout       time.Duration `envconfig:"WEB_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout        time.Duration `envconfig:"WEB_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout    time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		RequestDeadline    time.Duration `envconfig:"WEB_REQUEST_DEADLINE" default:"8s"`
		APIHost            string        `envconfig:"WEB_API_HOST" default:"0.0.0.0:3000"`
		DebugHost          string        `envconfig:"WEB_DEBUG_HOST" default:"0.0.0.0:3010"`
		CORSAllowedOrigins []string      `envconfig:"WEB_CORS_ALLOWED_ORIGINS" default:"*"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"confmgmt"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Redis struct {
		Host     string `envconfig:"REDIS_HOST" default:""`
		Password string `envconfig:"REDIS_PASSWORD" default:""`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
		Prefix   string `envconfig:"REDIS_PREFIX" default:"confmgmt:nonce:"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST" default:"tempo:4317"`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"CONFMGMT"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
	}
	Auth struct {
		KeysFolder string        `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
		ActiveKID  string        `envconfig:"AUTH_ACTIVE_KID" default:"seal-1"`
		SuperID    string        `envconfig:"AUTH_SUPER_ID" default:""`
		Issuer     string        `envconfig:"AUTH_ISSUER" default:""`
		Skew       time.Duration `envconfig:"AUTH_SKEW" default:"5m"`
		CacheTTL   time.Duration `envconfig:"AUTH_CACHE_TTL" default:"5s"`
	}
	Engine struct {
		URL     string        `envconfig:"ENGINE_URL" default:"http://localhost:9090"`
		Timeout time.Duration `envconfig:"ENGINE_TIMEOUT" default:"3s"`
	}
	Retry struct {
		Times        int           `envconfig:"RETRY_TIMES" default:"3"`
		InitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"50ms"`
		MaxDelay     time.Duration `envconfig:"RETRY_MAX_DELAY" default:"1s"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "CONFMGMT", otel.GetTraceID, events)

	// -------------------------------------------------------------------------

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	// O .env é opcional, só para desenvolvimento local.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "CONFMGMT"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	superID := uuid.Nil
	if cfg.Auth.SuperID != "" {
		id, err := uuid.Parse(cfg.Auth.SuperID)
		if err != nil {
			return fmt.Errorf("parsing super id: %w", err)
		}
		superID = id
	}

	// -------------------------------------------------------------------------
	// App Info & Config Logging

	log.Info(ctx, "startup", "version", cfg.Version)
	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Database Support

	log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}

	defer db.Close()

	// -------------------------------------------------------------------------
	// Auth Support

	log.Info(ctx, "startup", "status", "initializing authentication support")

	ks := keystore.New()

	n, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder))
	if err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	log.Info(ctx, "startup", "status", "keys loaded", "count", n)

	box, err := secretbox.New(ks, cfg.Auth.ActiveKID)
	if err != nil {
		return fmt.Errorf("constructing secretbox: %w", err)
	}

	pingers := make(map[string]mux.Pinger)

	var nonces auth.NonceStore

	switch cfg.Redis.Host {
	case "":
		log.Info(ctx, "startup", "status", "nonce cache in memory")
		nonces = nonce.NewMemory()

	default:
		log.Info(ctx, "startup", "status", "nonce cache in redis", "host", cfg.Redis.Host)

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		rds := nonce.NewRedis(client, cfg.Redis.Prefix)
		pingers["redis"] = rds
		nonces = rds
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	tracer := traceProvider.Tracer(cfg.Tempo.ServiceName)

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Mux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	policy := retry.Policy{
		Times:        cfg.Retry.Times,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}

	cfgMux := mux.Config{
		Build:  cfg.Version.Build,
		Log:    log,
		DB:     db,
		Tracer: tracer,
		Sealer: box,
		Engine: engine.New(log, engine.Config{
			URL:     cfg.Engine.URL,
			Timeout: cfg.Engine.Timeout,
		}),
		CacheTTL: cfg.Auth.CacheTTL,
		Retry: policy.Notify(func(err error, delay time.Duration) {
			metrics.AddRetries(ctx, "store")
		}),
		TranRetry: policy.Notify(func(err error, delay time.Duration) {
			metrics.AddRetries(ctx, "tran")
		}),
		Pingers: pingers,
		AuthConfig: mux.AuthConfig{
			Nonces:    nonces,
			KeyLookup: ks,
			Issuer:    cfg.Auth.Issuer,
			SuperID:   superID,
			Skew:      cfg.Auth.Skew,
			OnFailure: metrics.AddAuthFailure,
		},
	}

	webAPI, err := mux.WebAPI(cfgMux,
		buildRoutes(),
		mux.WithCORS(cfg.Web.CORSAllowedOrigins),
		mux.WithDeadline(cfg.Web.RequestDeadline),
	)
	if err != nil {
		return fmt.Errorf("building routes: %w", err)
	}

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func buildRoutes() mux.RouteAdder {

	// The idea here is that we can build different versions of the binary
	// with different sets of exposed web APIs. By default we build a single
	// instance with all the web APIs.
	return all.Routes()
}

func sanitizeConfig(cfg Config) string {
	cfg.DB.Password = "[MASKED]"
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "[MASKED]"
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(data)
}
