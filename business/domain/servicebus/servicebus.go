// Package servicebus provides business access to the tenant (service)
// domain.
package servicebus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound   = errors.New("service not found")
	ErrUniqueName = errors.New("service name is not unique")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, svc Service) error
	Delete(ctx context.Context, svc Service) error
	Query(ctx context.Context) ([]Service, error)
	QueryByID(ctx context.Context, serviceID uuid.UUID) (Service, error)
	QueryByName(ctx context.Context, nme name.Name) (Service, error)
	AddRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error
	RemoveRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error
}

// Sealer encrypts and decrypts the shared secrets at rest.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// Core manages the set of APIs for service access.
type Core struct {
	log    *logger.Logger
	storer Storer
	sealer Sealer
	policy retry.Policy
}

// NewCore constructs a service core API for use. Persistence calls are
// retried under policy when they fail with a transient database error.
func NewCore(log *logger.Logger, storer Storer, sealer Sealer, policy retry.Policy) *Core {
	return &Core{
		log:    log,
		storer: storer,
		sealer: sealer,
		policy: policy,
	}
}

// NewWithTx constructs a new Core value that will use the specified
// transaction in any store related calls. Statements inside a transaction
// are not retried one by one; the caller retries the whole transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return &Core{
		log:    c.log,
		storer: storer,
		sealer: c.sealer,
		policy: retry.Policy{},
	}, nil
}

// Create adds a new service to the system. The plaintext key is returned
// only here so it can be handed to the operator once.
func (c *Core) Create(ctx context.Context, ns NewService) (Service, string, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.create")
	defer span.End()

	key := ns.Key
	if key == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return Service{}, "", fmt.Errorf("generate key: %w", err)
		}
		key = hex.EncodeToString(b)
	}

	sealed, err := c.sealer.Seal([]byte(key))
	if err != nil {
		return Service{}, "", fmt.Errorf("seal: %w", err)
	}

	svc := Service{
		ID:        uuid.New(),
		Name:      ns.Name,
		SealedKey: sealed,
		CreatedAt: time.Now(),
	}

	err = retry.Run(ctx, c.retryPolicy(ctx, "servicebus.create"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Create(ctx, svc)
	})
	if err != nil {
		return Service{}, "", fmt.Errorf("create: %w", err)
	}

	return svc, key, nil
}

// Delete removes the specified service.
func (c *Core) Delete(ctx context.Context, svc Service) error {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.delete")
	defer span.End()

	err := retry.Run(ctx, c.retryPolicy(ctx, "servicebus.delete"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Delete(ctx, svc)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves every service.
func (c *Core) Query(ctx context.Context) ([]Service, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.query")
	defer span.End()

	svcs, err := retry.Do(ctx, c.retryPolicy(ctx, "servicebus.query"), sqldb.IsTransient, c.storer.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return svcs, nil
}

// QueryByID finds the service by the specified ID.
func (c *Core) QueryByID(ctx context.Context, serviceID uuid.UUID) (Service, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.querybyid")
	defer span.End()

	svc, err := retry.Do(ctx, c.retryPolicy(ctx, "servicebus.querybyid"), sqldb.IsTransient, func(ctx context.Context) (Service, error) {
		return c.storer.QueryByID(ctx, serviceID)
	})
	if err != nil {
		return Service{}, fmt.Errorf("query: serviceID[%s]: %w", serviceID, err)
	}

	return svc, nil
}

// QueryByName finds the service by its unique name.
func (c *Core) QueryByName(ctx context.Context, nme name.Name) (Service, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.querybyname")
	defer span.End()

	svc, err := retry.Do(ctx, c.retryPolicy(ctx, "servicebus.querybyname"), sqldb.IsTransient, func(ctx context.Context) (Service, error) {
		return c.storer.QueryByName(ctx, nme)
	})
	if err != nil {
		return Service{}, fmt.Errorf("query: name[%s]: %w", nme, err)
	}

	return svc, nil
}

// AddRoom appends the room to the service's rooms. Adding a room already in
// the set keeps its position.
func (c *Core) AddRoom(ctx context.Context, svc Service, roomID uuid.UUID) (Service, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.addroom")
	defer span.End()

	err := retry.Run(ctx, c.retryPolicy(ctx, "servicebus.addroom"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.AddRoom(ctx, svc.ID, roomID)
	})
	if err != nil {
		return Service{}, fmt.Errorf("addroom: %w", err)
	}

	if !svc.HasRoom(roomID) {
		svc.Rooms = append(append([]uuid.UUID(nil), svc.Rooms...), roomID)
	}

	return svc, nil
}

// RemoveRoom removes the room from the service's rooms.
func (c *Core) RemoveRoom(ctx context.Context, svc Service, roomID uuid.UUID) (Service, error) {
	ctx, span := otel.AddSpan(ctx, "business.servicebus.removeroom")
	defer span.End()

	err := retry.Run(ctx, c.retryPolicy(ctx, "servicebus.removeroom"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.RemoveRoom(ctx, svc.ID, roomID)
	})
	if err != nil {
		return Service{}, fmt.Errorf("removeroom: %w", err)
	}

	rooms := make([]uuid.UUID, 0, len(svc.Rooms))
	for _, id := range svc.Rooms {
		if id != roomID {
			rooms = append(rooms, id)
		}
	}
	svc.Rooms = rooms

	return svc, nil
}

// Secret opens the service's shared secret. The value must not outlive the
// signature check it is needed for.
func (c *Core) Secret(ctx context.Context, svc Service) ([]byte, error) {
	_, span := otel.AddSpan(ctx, "business.servicebus.secret")
	defer span.End()

	key, err := c.sealer.Open(svc.SealedKey)
	if err != nil {
		return nil, fmt.Errorf("open: serviceID[%s]: %w", svc.ID, err)
	}

	return key, nil
}

func (c *Core) retryPolicy(ctx context.Context, op string) retry.Policy {
	return c.policy.Notify(func(err error, delay time.Duration) {
		c.log.Warn(ctx, "retrying", "op", op, "delay", delay.String(), "ERROR", err)
	})
}
