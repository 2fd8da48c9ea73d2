// Package tokenbus issues the opaque tokens end users present to join a room.
package tokenbus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/engine"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
	"github.com/jcpaschoal/confmgmt/foundation/hmacsig"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

// codeRange bounds the correlation code sent to the engine.
const codeRange = 100_000_000_000

// Set of error variables for token issuance.
var (
	ErrNotFound         = errors.New("token not found")
	ErrUserRequired     = errors.New("user is required")
	ErrRoleNotValid     = errors.New("Role is not valid")
	ErrUnavailable      = errors.New("token service unavailable")
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("token signature is not valid")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, tkn Token) error
	QueryByID(ctx context.Context, tokenID uuid.UUID) (Token, error)
}

// RoomFinder looks up the room a token is requested for.
type RoomFinder interface {
	QueryByID(ctx context.Context, roomID uuid.UUID) (roombus.Room, error)
}

// Scheduler allocates the engine entry point for a token.
type Scheduler interface {
	SchedulePortal(ctx context.Context, code int64, org origin.Origin) (engine.Portal, error)
}

// KeyProvider returns the secret tokens are signed with.
type KeyProvider interface {
	SigningKey(ctx context.Context) ([]byte, error)
}

// Core manages the set of APIs for token access.
type Core struct {
	log       *logger.Logger
	storer    Storer
	rooms     RoomFinder
	scheduler Scheduler
	keys      KeyProvider
	policy    retry.Policy
}

// NewCore constructs a token core API for use.
func NewCore(log *logger.Logger, storer Storer, rooms RoomFinder, scheduler Scheduler, keys KeyProvider, policy retry.Policy) *Core {
	return &Core{
		log:       log,
		storer:    storer,
		rooms:     rooms,
		scheduler: scheduler,
		keys:      keys,
		policy:    policy,
	}
}

// Issue creates a token for a user of svc to join the room and returns the
// opaque string for it.
func (c *Core) Issue(ctx context.Context, svc servicebus.Service, nt NewToken) (string, error) {
	ctx, span := otel.AddSpan(ctx, "business.tokenbus.issue")
	defer span.End()

	if strings.TrimSpace(nt.User) == "" {
		return "", ErrUserRequired
	}

	rm, err := c.rooms.QueryByID(ctx, nt.RoomID)
	if err != nil {
		return "", fmt.Errorf("room: %w", err)
	}

	if !rm.HasRole(nt.Role) {
		return "", fmt.Errorf("role[%s]: %w", nt.Role, ErrRoleNotValid)
	}

	org := origin.New(nt.Origin.ISP, nt.Origin.Region)
	code := rand.Int64N(codeRange)

	portal, err := c.scheduler.SchedulePortal(ctx, code, org)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	tkn := Token{
		ID:        uuid.New(),
		ServiceID: svc.ID,
		RoomID:    rm.ID,
		User:      nt.User,
		Role:      nt.Role,
		Origin:    org,
		Code:      code,
		Secure:    IsSecure(portal),
		Host:      Host(portal),
		CreatedAt: time.Now(),
	}

	err = retry.Run(ctx, c.retryPolicy(ctx, "tokenbus.create"), sqldb.IsTransient, func(ctx context.Context) error {
		return c.storer.Create(ctx, tkn)
	})
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	key, err := c.keys.SigningKey(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	opq := Opaque{
		TokenID:   tkn.ID.String(),
		Host:      tkn.Host,
		Secure:    tkn.Secure,
		Signature: hmacsig.Sign(key, tkn.ID.String(), tkn.Host),
	}

	return Encode(opq)
}

// QueryByID finds the token by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tokenID uuid.UUID) (Token, error) {
	ctx, span := otel.AddSpan(ctx, "business.tokenbus.querybyid")
	defer span.End()

	tkn, err := retry.Do(ctx, c.retryPolicy(ctx, "tokenbus.querybyid"), sqldb.IsTransient, func(ctx context.Context) (Token, error) {
		return c.storer.QueryByID(ctx, tokenID)
	})
	if err != nil {
		return Token{}, fmt.Errorf("query: tokenID[%s]: %w", tokenID, err)
	}

	return tkn, nil
}

// Verify decodes the opaque string and checks its signature against the
// current signing key.
func (c *Core) Verify(ctx context.Context, opaque string) (Opaque, error) {
	ctx, span := otel.AddSpan(ctx, "business.tokenbus.verify")
	defer span.End()

	opq, err := Decode(opaque)
	if err != nil {
		return Opaque{}, err
	}

	key, err := c.keys.SigningKey(ctx)
	if err != nil {
		return Opaque{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !hmacsig.Verify(key, opq.Signature, opq.TokenID, opq.Host) {
		return Opaque{}, ErrInvalidSignature
	}

	return opq, nil
}

func (c *Core) retryPolicy(ctx context.Context, op string) retry.Policy {
	return c.policy.Notify(func(err error, delay time.Duration) {
		c.log.Warn(ctx, "retrying", "op", op, "delay", delay.String(), "ERROR", err)
	})
}

// =============================================================================

// Encode serializes the opaque token.
func Encode(opq Opaque) (string, error) {
	data, err := json.Marshal(opq)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses an opaque token without checking its signature.
func Decode(opaque string) (Opaque, error) {
	data, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		return Opaque{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var opq Opaque
	if err := json.Unmarshal(data, &opq); err != nil {
		return Opaque{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if opq.TokenID == "" || opq.Signature == "" {
		return Opaque{}, ErrMalformed
	}

	return opq, nil
}

// IsSecure reports whether clients must use TLS to reach the portal. Only a
// portal that is neither behind an https proxy nor serving TLS itself is
// considered insecure, and only when the proxy flag is reported.
func IsSecure(p engine.Portal) bool {
	if p.UnderHTTPSProxy != nil && !*p.UnderHTTPSProxy && !p.SSL {
		return false
	}
	return true
}

// Host returns the address clients connect to, preferring the hostname.
func Host(p engine.Portal) string {
	port := strconv.Itoa(p.Port)

	if strings.TrimSpace(p.Hostname) != "" {
		return net.JoinHostPort(p.Hostname, port)
	}

	return net.JoinHostPort(p.IP, port)
}
