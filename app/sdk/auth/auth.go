// Package auth verifies MAuth signed requests and decides what the
// authenticated service may do.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
)

// Erros padronizados do pacote de autenticação
var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("attempted action is not allowed")
	ErrSuperServiceUndeletable = errors.New("super service is not deletable")
)

// DefaultSkew is the freshness window applied when none is configured.
const DefaultSkew = 5 * time.Minute

// Caller is what a verified request carries into the handlers. User and
// Role come from the identity assertion and are empty without one.
type Caller struct {
	Service servicebus.Service
	User    string
	Role    string
}

// ServiceFinder looks up services and opens their shared secret.
type ServiceFinder interface {
	QueryByID(ctx context.Context, serviceID uuid.UUID) (servicebus.Service, error)
	Secret(ctx context.Context, svc servicebus.Service) ([]byte, error)
}

// NonceStore remembers the nonces already seen for a while.
type NonceStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// KeyLookup declares a method set of behavior for looking up the public
// keys of the identity assertion issuer.
type KeyLookup interface {
	PublicKey(kid string) (key string, err error)
}

// Config represents information required to initialize auth.
type Config struct {
	Log       *logger.Logger
	Services  ServiceFinder
	Nonces    NonceStore
	KeyLookup KeyLookup
	Issuer    string
	SuperID   uuid.UUID

	// Skew is the accepted distance between the request timestamp and the
	// local clock. Zero disables the freshness and replay checks.
	Skew time.Duration

	// OnFailure, when set, is called with the reason of every rejected
	// request.
	OnFailure func(ctx context.Context, reason string)
}

// Auth is used to authenticate and authorize services.
type Auth struct {
	log       *logger.Logger
	services  ServiceFinder
	nonces    NonceStore
	keyLookup KeyLookup
	parser    *jwt.Parser
	issuer    string
	superID   uuid.UUID
	skew      time.Duration
	onFailure func(ctx context.Context, reason string)
	enforcer  *casbin.Enforcer
}

// New creates an Auth to support authentication/authorization.
func New(cfg Config) (*Auth, error) {
	enforcer, err := newEnforcer()
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	a := Auth{
		log:       cfg.Log,
		services:  cfg.Services,
		nonces:    cfg.Nonces,
		keyLookup: cfg.KeyLookup,
		parser:    jwt.NewParser(opts...),
		issuer:    cfg.Issuer,
		superID:   cfg.SuperID,
		skew:      cfg.Skew,
		onFailure: cfg.OnFailure,
		enforcer:  enforcer,
	}

	return &a, nil
}

// SuperID returns the id of the super service.
func (a *Auth) SuperID() uuid.UUID {
	return a.superID
}

// IsSuper reports whether svc is the super service.
func (a *Auth) IsSuper(svc servicebus.Service) bool {
	return a.superID != uuid.Nil && svc.ID == a.superID
}

// reject logs the reason a request failed authentication and returns the
// single error callers get to see.
func (a *Auth) reject(ctx context.Context, reason string, err error) error {
	a.log.Info(ctx, "**Authenticate-FAILED**", "reason", reason, "ERROR", err)

	if a.onFailure != nil {
		a.onFailure(ctx, reason)
	}

	return ErrUnauthenticated
}
