// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
	"github.com/jcpaschoal/confmgmt/business/domain/keybus/stores/keydb"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus/stores/roomdb"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus/stores/servicedb"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/keystore"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
	"github.com/jcpaschoal/confmgmt/foundation/secretbox"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// Config replicates the parts of the service config the tool needs.
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"confmgmt"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
		ActiveKID  string `envconfig:"AUTH_ACTIVE_KID" default:"seal-1"`
		SuperName  string `envconfig:"AUTH_SUPER_NAME" default:"super"`
	}
	Retry struct {
		Times        int           `envconfig:"RETRY_TIMES" default:"3"`
		InitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"50ms"`
		MaxDelay     time.Duration `envconfig:"RETRY_MAX_DELAY" default:"1s"`
	}
}

// env holds what the commands share once the root command ran.
type env struct {
	cfg        Config
	log        *logger.Logger
	db         *sqlx.DB
	serviceBus *servicebus.Core
	roomBus    *roombus.Core
	keyBus     *keybus.Core
	beginner   sqldb.Beginner
	retry      retry.Policy
}

// ErrNoEnv is returned when a command runs without the root setup.
var ErrNoEnv = errors.New("environment not initialized")

var current *env

// Execute runs the root command.
func Execute(ctx context.Context) error {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", nil)

	root := newRoot(log)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error(ctx, "admin", "ERROR", err)
		return err
	}

	return nil
}

func newRoot(log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for the conferencing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(log)
			if err != nil {
				return err
			}
			current = e
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current != nil {
				current.db.Close()
			}
		},
	}

	root.AddCommand(migrateCmd)
	root.AddCommand(bootstrapCmd)
	root.AddCommand(keyCmd)
	root.AddCommand(serviceCmd)
	root.AddCommand(roomCmd)

	return root
}

func open(log *logger.Logger) (*env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

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
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	ks := keystore.New()
	if _, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder)); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading keys: %w", err)
	}

	box, err := secretbox.New(ks, cfg.Auth.ActiveKID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("constructing secretbox: %w", err)
	}

	policy := retry.Policy{
		Times:        cfg.Retry.Times,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}

	e := env{
		cfg:        cfg,
		log:        log,
		db:         db,
		serviceBus: servicebus.NewCore(log, servicedb.NewStore(log, db), box, policy),
		roomBus:    roombus.NewCore(log, roomdb.NewStore(log, db), policy),
		keyBus:     keybus.NewCore(log, keydb.NewStore(log, db), policy),
		beginner:   sqldb.NewBeginner(db),
		retry:      policy,
	}

	return &e, nil
}

func getEnv() (*env, error) {
	if current == nil {
		return nil, ErrNoEnv
	}
	return current, nil
}
