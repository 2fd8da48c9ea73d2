// Package all binds all the routes into the specified app.
package all

import (
	"fmt"

	"github.com/jcpaschoal/confmgmt/app/domain/checkapp"
	"github.com/jcpaschoal/confmgmt/app/domain/roomapp"
	"github.com/jcpaschoal/confmgmt/app/domain/serviceapp"
	"github.com/jcpaschoal/confmgmt/app/domain/tokenapp"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/mux"
	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
	"github.com/jcpaschoal/confmgmt/business/domain/keybus/stores/keydb"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus/stores/roomdb"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus/stores/servicecache"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus/stores/servicedb"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus/stores/tokendb"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) error {

	// Construct the business domain packages we need here so we are using the
	// same instances for the different set of domain apis.
	serviceBus := servicebus.NewCore(cfg.Log, servicecache.NewStore(cfg.Log, servicedb.NewStore(cfg.Log, cfg.DB), cfg.CacheTTL), cfg.Sealer, cfg.Retry)
	roomBus := roombus.NewCore(cfg.Log, roomdb.NewStore(cfg.Log, cfg.DB), cfg.Retry)
	keyBus := keybus.NewCore(cfg.Log, keydb.NewStore(cfg.Log, cfg.DB), cfg.Retry)
	tokenBus := tokenbus.NewCore(cfg.Log, tokendb.NewStore(cfg.Log, cfg.DB), roomBus, cfg.Engine, keyBus, cfg.Retry)

	ath, err := auth.New(auth.Config{
		Log:       cfg.Log,
		Services:  serviceBus,
		Nonces:    cfg.AuthConfig.Nonces,
		KeyLookup: cfg.AuthConfig.KeyLookup,
		Issuer:    cfg.AuthConfig.Issuer,
		SuperID:   cfg.AuthConfig.SuperID,
		Skew:      cfg.AuthConfig.Skew,
		OnFailure: cfg.AuthConfig.OnFailure,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	beginner := sqldb.NewBeginner(cfg.DB)

	pingers := make(map[string]checkapp.Pinger, len(cfg.Pingers))
	for name, p := range cfg.Pingers {
		pingers[name] = p
	}

	checkapp.Routes(app, checkapp.Config{
		Build:   cfg.Build,
		Log:     cfg.Log,
		DB:      cfg.DB,
		Pingers: pingers,
	})

	serviceapp.Routes(app, serviceapp.Config{
		Log:        cfg.Log,
		Auth:       ath,
		ServiceBus: serviceBus,
		RoomBus:    roomBus,
		Beginner:   beginner,
		Retry:      cfg.TranRetry,
	})

	roomapp.Routes(app, roomapp.Config{
		Log:        cfg.Log,
		Auth:       ath,
		ServiceBus: serviceBus,
		RoomBus:    roomBus,
		Beginner:   beginner,
		Retry:      cfg.TranRetry,
	})

	tokenapp.Routes(app, tokenapp.Config{
		Log:      cfg.Log,
		Auth:     ath,
		TokenBus: tokenBus,
	})

	return nil
}
