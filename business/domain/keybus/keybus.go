// Package keybus provides business access to the token signing key.
package keybus

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

// secretSize is the length in bytes of a generated signing secret.
const secretSize = 64

// ErrNotFound is returned while no signing key has been created.
var ErrNotFound = errors.New("Key does not exist")

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	// Insert stores k unless a key already exists and reports whether it did.
	Insert(ctx context.Context, k Key) (bool, error)
	Upsert(ctx context.Context, k Key) error
	Query(ctx context.Context) (Key, error)
}

// Core manages the set of APIs for signing key access.
type Core struct {
	log    *logger.Logger
	storer Storer
	policy retry.Policy
}

// NewCore constructs a key core API for use.
func NewCore(log *logger.Logger, storer Storer, policy retry.Policy) *Core {
	return &Core{
		log:    log,
		storer: storer,
		policy: policy,
	}
}

// SigningKey returns the current signing secret.
func (c *Core) SigningKey(ctx context.Context) ([]byte, error) {
	ctx, span := otel.AddSpan(ctx, "business.keybus.signingkey")
	defer span.End()

	k, err := retry.Do(ctx, c.retryPolicy(ctx, "keybus.signingkey"), sqldb.IsTransient, func(ctx context.Context) (Key, error) {
		return c.storer.Query(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return k.Secret, nil
}

// EnsureKey creates the signing key when none exists. It reports whether a
// new key was created.
func (c *Core) EnsureKey(ctx context.Context) (bool, error) {
	ctx, span := otel.AddSpan(ctx, "business.keybus.ensurekey")
	defer span.End()

	k, err := newKey()
	if err != nil {
		return false, err
	}

	created, err := retry.Do(ctx, c.retryPolicy(ctx, "keybus.ensurekey"), sqldb.IsTransient, func(ctx context.Context) (bool, error) {
		return c.storer.Insert(ctx, k)
	})
	if err != nil {
		return false, fmt.Errorf("insert: %w", err)
	}

	if created {
		c.log.Info(ctx, "signing key created")
	}

	return created, nil
}

// Rotate replaces the signing key with a fresh one. Tokens signed with the
// previous key no longer verify.
func (c *Core) Rotate(ctx context.Context) error {
	ctx, span := otel.AddSpan(ctx, "business.keybus.rotate")
	defer span.End()

	k, err := newKey()
	if err != nil {
		return err
	}

	err = retry.Run(ctx, c.retryPolicy(ctx, "keybus.rotate"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Upsert(ctx, k)
	})
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	c.log.Info(ctx, "signing key rotated")

	return nil
}

func (c *Core) retryPolicy(ctx context.Context, op string) retry.Policy {
	return c.policy.Notify(func(err error, delay time.Duration) {
		c.log.Warn(ctx, "retrying", "op", op, "delay", delay.String(), "ERROR", err)
	})
}

func newKey() (Key, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return Key{}, fmt.Errorf("generate secret: %w", err)
	}

	k := Key{
		ID:        SigningKeyID,
		Secret:    secret,
		UpdatedAt: time.Now(),
	}

	return k, nil
}
