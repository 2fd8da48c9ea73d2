package tokenbus_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/sdk/engine"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
	"github.com/jcpaschoal/confmgmt/foundation/hmacsig"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

type memStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]tokenbus.Token
}

func (m *memStore) Create(ctx context.Context, tkn tokenbus.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[tkn.ID] = tkn
	return nil
}

func (m *memStore) QueryByID(ctx context.Context, id uuid.UUID) (tokenbus.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tkn, ok := m.tokens[id]
	if !ok {
		return tokenbus.Token{}, tokenbus.ErrNotFound
	}
	return tkn, nil
}

type rooms map[uuid.UUID]roombus.Room

func (r rooms) QueryByID(ctx context.Context, id uuid.UUID) (roombus.Room, error) {
	rm, ok := r[id]
	if !ok {
		return roombus.Room{}, fmt.Errorf("query: %w", roombus.ErrNotFound)
	}
	return rm, nil
}

type scheduler struct {
	portal engine.Portal
	err    error
	origin origin.Origin
	calls  int
}

func (s *scheduler) SchedulePortal(ctx context.Context, code int64, org origin.Origin) (engine.Portal, error) {
	s.calls++
	s.origin = org
	if code < 0 || code >= 100_000_000_000 {
		return engine.Portal{}, fmt.Errorf("code out of range: %d", code)
	}
	return s.portal, s.err
}

type keys struct {
	key []byte
}

func (k keys) SigningKey(ctx context.Context) ([]byte, error) {
	if k.key == nil {
		return nil, fmt.Errorf("query: %w", keybus.ErrNotFound)
	}
	return k.key, nil
}

// =============================================================================

type fixture struct {
	core  *tokenbus.Core
	store *memStore
	sched *scheduler
	svc   servicebus.Service
	room  roombus.Room
	key   []byte
}

func newFixture(key []byte) fixture {
	rm := roombus.Room{ID: uuid.New(), Roles: []roombus.Role{{Name: "presenter"}}}
	store := &memStore{tokens: make(map[uuid.UUID]tokenbus.Token)}
	sched := &scheduler{portal: engine.Portal{Hostname: "portal.example.com", Port: 8080, SSL: true}}

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	core := tokenbus.NewCore(log, store, rooms{rm.ID: rm}, sched, keys{key: key}, retry.Policy{})

	return fixture{
		core:  core,
		store: store,
		sched: sched,
		svc:   servicebus.Service{ID: uuid.New(), Rooms: []uuid.UUID{rm.ID}},
		room:  rm,
		key:   key,
	}
}

func Test_IssueRoundTrip(t *testing.T) {
	f := newFixture([]byte("signing-secret"))
	ctx := context.Background()

	opaque, err := f.core.Issue(ctx, f.svc, tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "presenter"})
	if err != nil {
		t.Fatalf("Should issue a token: %s", err)
	}

	opq, err := tokenbus.Decode(opaque)
	if err != nil {
		t.Fatalf("Should decode the token: %s", err)
	}

	if opq.Host != "portal.example.com:8080" || !opq.Secure {
		t.Errorf("Unexpected endpoint %+v", opq)
	}

	if !hmacsig.Verify(f.key, opq.Signature, opq.TokenID, opq.Host) {
		t.Errorf("Signature should bind token id and host")
	}

	id, err := uuid.Parse(opq.TokenID)
	if err != nil {
		t.Fatalf("Token id should be a uuid: %s", err)
	}

	tkn, err := f.core.QueryByID(ctx, id)
	if err != nil {
		t.Fatalf("Should find the token: %s", err)
	}

	if tkn.RoomID != f.room.ID || tkn.ServiceID != f.svc.ID {
		t.Errorf("Token should point at the room and service, got %+v", tkn)
	}

	if tkn.User != "alice" || tkn.Role != "presenter" {
		t.Errorf("Token should carry user and role, got %+v", tkn)
	}

	if tkn.Origin != origin.Default() || f.sched.origin != origin.Default() {
		t.Errorf("Origin should default, got %+v / %+v", tkn.Origin, f.sched.origin)
	}

	if _, err := f.core.Verify(ctx, opaque); err != nil {
		t.Errorf("Should verify the issued token: %s", err)
	}
}

func Test_IssueFailures(t *testing.T) {
	table := []struct {
		name   string
		key    []byte
		engErr error
		nt     func(f fixture) tokenbus.NewToken
		err    error
		msg    string
	}{
		{
			name: "blank-user",
			key:  []byte("k"),
			nt: func(f fixture) tokenbus.NewToken {
				return tokenbus.NewToken{RoomID: f.room.ID, User: "  ", Role: "presenter"}
			},
			err: tokenbus.ErrUserRequired,
		},
		{
			name: "room-not-found",
			key:  []byte("k"),
			nt: func(f fixture) tokenbus.NewToken {
				return tokenbus.NewToken{RoomID: uuid.New(), User: "alice", Role: "presenter"}
			},
			err: roombus.ErrNotFound,
		},
		{
			name: "role-not-valid",
			key:  []byte("k"),
			nt: func(f fixture) tokenbus.NewToken {
				return tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "test"}
			},
			err: tokenbus.ErrRoleNotValid,
			msg: "Role is not valid",
		},
		{
			name: "engine-error",
			key:  []byte("k"),
			nt: func(f fixture) tokenbus.NewToken {
				return tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "presenter"}
			},
			engErr: engine.ErrEngine,
			err:    tokenbus.ErrUnavailable,
		},
		{
			name: "key-missing",
			nt: func(f fixture) tokenbus.NewToken {
				return tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "presenter"}
			},
			err: keybus.ErrNotFound,
			msg: "Key does not exist",
		},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.key)
			f.sched.err = tt.engErr

			_, err := f.core.Issue(context.Background(), f.svc, tt.nt(f))
			if !errors.Is(err, tt.err) {
				t.Fatalf("Should get %v, got %v", tt.err, err)
			}

			if tt.msg != "" && tt.err.Error() != tt.msg {
				t.Errorf("Expected message %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func Test_KeyMissingIsUnavailable(t *testing.T) {
	f := newFixture(nil)

	_, err := f.core.Issue(context.Background(), f.svc, tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "presenter"})
	if !errors.Is(err, tokenbus.ErrUnavailable) {
		t.Errorf("Missing key should be unavailable, got %v", err)
	}
}

func Test_SecureAndHost(t *testing.T) {
	yes, no := true, false

	table := []struct {
		name   string
		portal engine.Portal
		secure bool
		host   string
	}{
		{name: "proxy-unknown", portal: engine.Portal{IP: "10.0.0.1", Port: 80}, secure: true, host: "10.0.0.1:80"},
		{name: "no-proxy-no-ssl", portal: engine.Portal{IP: "10.0.0.1", Port: 80, UnderHTTPSProxy: &no}, secure: false, host: "10.0.0.1:80"},
		{name: "no-proxy-ssl", portal: engine.Portal{Hostname: "a.b", Port: 443, SSL: true, UnderHTTPSProxy: &no}, secure: true, host: "a.b:443"},
		{name: "proxy", portal: engine.Portal{Hostname: "a.b", IP: "10.0.0.1", Port: 8443, UnderHTTPSProxy: &yes}, secure: true, host: "a.b:8443"},
		{name: "blank-hostname", portal: engine.Portal{Hostname: " ", IP: "10.0.0.2", Port: 8080}, secure: true, host: "10.0.0.2:8080"},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenbus.IsSecure(tt.portal); got != tt.secure {
				t.Errorf("secure: got %v, want %v", got, tt.secure)
			}

			if got := tokenbus.Host(tt.portal); got != tt.host {
				t.Errorf("host: got %s, want %s", got, tt.host)
			}
		})
	}
}

func Test_VerifyRejectsSubstitutedHost(t *testing.T) {
	f := newFixture([]byte("signing-secret"))
	ctx := context.Background()

	opaque, err := f.core.Issue(ctx, f.svc, tokenbus.NewToken{RoomID: f.room.ID, User: "alice", Role: "presenter"})
	if err != nil {
		t.Fatalf("Should issue a token: %s", err)
	}

	opq, _ := tokenbus.Decode(opaque)
	opq.Host = "evil.example.com:443"

	forged, err := tokenbus.Encode(opq)
	if err != nil {
		t.Fatalf("Should encode: %s", err)
	}

	if _, err := f.core.Verify(ctx, forged); !errors.Is(err, tokenbus.ErrInvalidSignature) {
		t.Errorf("Should reject a substituted host, got %v", err)
	}

	if _, err := tokenbus.Decode("not base64!"); !errors.Is(err, tokenbus.ErrMalformed) {
		t.Errorf("Should reject garbage, got %v", err)
	}
}
