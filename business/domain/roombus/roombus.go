// Package roombus provides business access to the room domain.
package roombus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound     = errors.New("room not found")
	ErrInvalidLimit = errors.New("limit must be -1 or positive")
	ErrNoRoles      = errors.New("room must declare at least one role")
	ErrDupRole      = errors.New("role names must be unique")
	ErrRoleName     = errors.New("role name is required")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, rm Room) error
	Delete(ctx context.Context, rm Room) error
	QueryByID(ctx context.Context, roomID uuid.UUID) (Room, error)
	QueryByIDs(ctx context.Context, roomIDs []uuid.UUID) ([]Room, error)
}

// Core manages the set of APIs for room access.
type Core struct {
	log    *logger.Logger
	storer Storer
	policy retry.Policy
}

// NewCore constructs a room core API for use.
func NewCore(log *logger.Logger, storer Storer, policy retry.Policy) *Core {
	return &Core{
		log:    log,
		storer: storer,
		policy: policy,
	}
}

// NewWithTx constructs a new Core value that will use the specified
// transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return &Core{
		log:    c.log,
		storer: storer,
		policy: retry.Policy{},
	}, nil
}

// Create adds a new room to the system.
func (c *Core) Create(ctx context.Context, nr NewRoom) (Room, error) {
	ctx, span := otel.AddSpan(ctx, "business.roombus.create")
	defer span.End()

	rm := Room{
		ID:               uuid.New(),
		Name:             nr.Name,
		ParticipantLimit: nr.ParticipantLimit,
		InputLimit:       nr.InputLimit,
		Roles:            nr.Roles,
		Views:            nr.Views,
		CreatedAt:        time.Now(),
	}

	if rm.Roles == nil {
		rm.Roles = DefaultRoles()
	}

	if rm.Views == nil {
		rm.Views = DefaultViews()
	}

	if err := validate(rm); err != nil {
		return Room{}, err
	}

	err := retry.Run(ctx, c.retryPolicy(ctx, "roombus.create"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Create(ctx, rm)
	})
	if err != nil {
		return Room{}, fmt.Errorf("create: %w", err)
	}

	return rm, nil
}

// Delete removes the specified room.
func (c *Core) Delete(ctx context.Context, rm Room) error {
	ctx, span := otel.AddSpan(ctx, "business.roombus.delete")
	defer span.End()

	err := retry.Run(ctx, c.retryPolicy(ctx, "roombus.delete"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Delete(ctx, rm)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the room by the specified ID.
func (c *Core) QueryByID(ctx context.Context, roomID uuid.UUID) (Room, error) {
	ctx, span := otel.AddSpan(ctx, "business.roombus.querybyid")
	defer span.End()

	rm, err := retry.Do(ctx, c.retryPolicy(ctx, "roombus.querybyid"), sqldb.IsTransient, func(ctx context.Context) (Room, error) {
		return c.storer.QueryByID(ctx, roomID)
	})
	if err != nil {
		return Room{}, fmt.Errorf("query: roomID[%s]: %w", roomID, err)
	}

	return rm, nil
}

// QueryByIDs returns the rooms with the given ids in the order of the ids.
// Ids without a room are skipped.
func (c *Core) QueryByIDs(ctx context.Context, roomIDs []uuid.UUID) ([]Room, error) {
	ctx, span := otel.AddSpan(ctx, "business.roombus.querybyids")
	defer span.End()

	if len(roomIDs) == 0 {
		return []Room{}, nil
	}

	rms, err := retry.Do(ctx, c.retryPolicy(ctx, "roombus.querybyids"), sqldb.IsTransient, func(ctx context.Context) ([]Room, error) {
		return c.storer.QueryByIDs(ctx, roomIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	byID := make(map[uuid.UUID]Room, len(rms))
	for _, rm := range rms {
		byID[rm.ID] = rm
	}

	ordered := make([]Room, 0, len(rms))
	for _, id := range roomIDs {
		if rm, ok := byID[id]; ok {
			ordered = append(ordered, rm)
		}
	}

	return ordered, nil
}

func (c *Core) retryPolicy(ctx context.Context, op string) retry.Policy {
	return c.policy.Notify(func(err error, delay time.Duration) {
		c.log.Warn(ctx, "retrying", "op", op, "delay", delay.String(), "ERROR", err)
	})
}

func validate(rm Room) error {
	if rm.ParticipantLimit < -1 || rm.ParticipantLimit == 0 {
		return fmt.Errorf("participantLimit: %w", ErrInvalidLimit)
	}

	if rm.InputLimit < -1 || rm.InputLimit == 0 {
		return fmt.Errorf("inputLimit: %w", ErrInvalidLimit)
	}

	if len(rm.Roles) == 0 {
		return ErrNoRoles
	}

	seen := make(map[string]bool, len(rm.Roles))
	for _, rl := range rm.Roles {
		if rl.Name == "" {
			return ErrRoleName
		}
		if seen[rl.Name] {
			return fmt.Errorf("role %q: %w", rl.Name, ErrDupRole)
		}
		seen[rl.Name] = true
	}

	return nil
}
