package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/nonce"
)

const issuer = "identity.test"

type services struct {
	svcs    map[uuid.UUID]servicebus.Service
	secrets map[uuid.UUID][]byte
}

func (s services) QueryByID(ctx context.Context, id uuid.UUID) (servicebus.Service, error) {
	svc, ok := s.svcs[id]
	if !ok {
		return servicebus.Service{}, fmt.Errorf("query: %w", servicebus.ErrNotFound)
	}
	return svc, nil
}

func (s services) Secret(ctx context.Context, svc servicebus.Service) ([]byte, error) {
	return s.secrets[svc.ID], nil
}

type keys map[string]string

func (k keys) PublicKey(kid string) (string, error) {
	pem, ok := k[kid]
	if !ok {
		return "", errors.New("kid not found")
	}
	return pem, nil
}

// =============================================================================

type fixture struct {
	ath     *auth.Auth
	super   servicebus.Service
	tenant  servicebus.Service
	other   servicebus.Service
	secrets map[uuid.UUID][]byte
	signer  *rsa.PrivateKey
	reasons []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	roomT := uuid.New()
	roomO := uuid.New()

	f := fixture{
		super:  servicebus.Service{ID: uuid.New()},
		tenant: servicebus.Service{ID: uuid.New(), Rooms: []uuid.UUID{roomT}},
		other:  servicebus.Service{ID: uuid.New(), Rooms: []uuid.UUID{roomO}},
	}

	f.secrets = map[uuid.UUID][]byte{
		f.super.ID:  []byte("super-secret"),
		f.tenant.ID: []byte("tenant-secret"),
		f.other.ID:  []byte("other-secret"),
	}

	svcs := services{
		svcs: map[uuid.UUID]servicebus.Service{
			f.super.ID:  f.super,
			f.tenant.ID: f.tenant,
			f.other.ID:  f.other,
		},
		secrets: f.secrets,
	}

	signer, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %s", err)
	}
	f.signer = signer

	der, err := x509.MarshalPKIXPublicKey(&signer.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %s", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	ath, err := auth.New(auth.Config{
		Log:       logger.New(io.Discard, logger.LevelInfo, "TEST", nil),
		Services:  svcs,
		Nonces:    nonce.NewMemory(),
		KeyLookup: keys{"idp": string(publicPEM)},
		Issuer:    issuer,
		SuperID:   f.super.ID,
		Skew:      auth.DefaultSkew,
		OnFailure: func(ctx context.Context, reason string) {
			f.reasons = append(f.reasons, reason)
		},
	})
	if err != nil {
		t.Fatalf("Should construct auth: %s", err)
	}
	f.ath = ath

	return &f
}

func (f *fixture) header(svc servicebus.Service, at time.Time) string {
	return auth.Sign(svc.ID, f.secrets[svc.ID], "conference", uuid.NewString(), at).String()
}

func (f *fixture) assertion(t *testing.T, claims auth.Claims) string {
	t.Helper()

	tkn := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tkn.Header["kid"] = "idp"

	str, err := tkn.SignedString(f.signer)
	if err != nil {
		t.Fatalf("sign assertion: %s", err)
	}
	return str
}

// =============================================================================

func Test_AuthenticateValid(t *testing.T) {
	f := newFixture(t)

	caller, err := f.ath.Authenticate(context.Background(), f.header(f.tenant, time.Now()), "")
	if err != nil {
		t.Fatalf("Should authenticate: %s", err)
	}

	if caller.Service.ID != f.tenant.ID {
		t.Errorf("Caller should be the tenant, got %s", caller.Service.ID)
	}

	if caller.User != "" || caller.Role != "" {
		t.Errorf("User and role should be empty without an assertion")
	}
}

func Test_AuthenticateFailures(t *testing.T) {
	f := newFixture(t)

	tampered, _ := auth.ParseHeader(f.header(f.tenant, time.Now()))
	tampered.Signature = auth.Sign(f.tenant.ID, []byte("wrong"), "conference", tampered.Cnonce, time.Now()).Signature

	otherKey := auth.Sign(f.tenant.ID, f.secrets[f.other.ID], "conference", "n1", time.Now())

	unknown := auth.Sign(uuid.New(), []byte("x"), "conference", "n2", time.Now())

	replayed := f.header(f.tenant, time.Now())
	if _, err := f.ath.Authenticate(context.Background(), replayed, ""); err != nil {
		t.Fatalf("First use should pass: %s", err)
	}

	table := []struct {
		name   string
		header string
		reason string
	}{
		{name: "missing", header: "", reason: "malformed"},
		{name: "wrong-scheme", header: "Bearer abc", reason: "malformed"},
		{name: "no-service", header: "MAuth realm=x,mauth_cnonce=a,mauth_timestamp=1,mauth_signature=s", reason: "malformed"},
		{name: "bad-method", header: "MAuth mauth_signature_method=MD5,mauth_serviceid=" + f.tenant.ID.String() + ",mauth_cnonce=a,mauth_timestamp=1,mauth_signature=s", reason: "malformed"},
		{name: "tampered", header: tampered.String(), reason: "signature"},
		{name: "other-secret", header: otherKey.String(), reason: "signature"},
		{name: "unknown-service", header: unknown.String(), reason: "unknown_service"},
		{name: "stale", header: f.header(f.tenant, time.Now().Add(-10*time.Minute)), reason: "stale"},
		{name: "future", header: f.header(f.tenant, time.Now().Add(10*time.Minute)), reason: "stale"},
		{name: "replay", header: replayed, reason: "replay"},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			f.reasons = nil

			_, err := f.ath.Authenticate(context.Background(), tt.header, "")
			if !errors.Is(err, auth.ErrUnauthenticated) {
				t.Fatalf("Should be unauthenticated, got %v", err)
			}

			if err.Error() != auth.ErrUnauthenticated.Error() {
				t.Errorf("Error should not leak the reason, got %q", err)
			}

			if len(f.reasons) != 1 || f.reasons[0] != tt.reason {
				t.Errorf("Expected reason %q, got %v", tt.reason, f.reasons)
			}
		})
	}
}

func Test_ParseHeader(t *testing.T) {
	id := uuid.New()
	header := "MAuth realm=conference, mauth_signature_method=HMAC_SHA256, mauth_serviceid=" + id.String() +
		", mauth_cnonce=abc, mauth_timestamp=1700000000000, mauth_signature=Zm9vYmFyPT0="

	creds, err := auth.ParseHeader(header)
	if err != nil {
		t.Fatalf("Should parse: %s", err)
	}

	if creds.ServiceID != id || creds.Cnonce != "abc" || creds.Signature != "Zm9vYmFyPT0=" {
		t.Errorf("Unexpected credentials %+v", creds)
	}

	ts, err := creds.Time()
	if err != nil || ts.UnixMilli() != 1700000000000 {
		t.Errorf("Unexpected time %v %v", ts, err)
	}

	if _, err := auth.ParseHeader(header + ",mauth_cnonce=again"); err == nil {
		t.Errorf("Should reject repeated params")
	}
}

func Test_AuthenticateIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		ServiceID: f.tenant.ID.String(),
		Role:      "presenter",
	}

	caller, err := f.ath.Authenticate(ctx, f.header(f.tenant, time.Now()), f.assertion(t, valid))
	if err != nil {
		t.Fatalf("Should authenticate with assertion: %s", err)
	}

	if caller.User != "alice" || caller.Role != "presenter" {
		t.Errorf("Unexpected caller %+v", caller)
	}

	wrongService := valid
	wrongService.ServiceID = f.other.ID.String()

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone.else"

	for name, claims := range map[string]auth.Claims{"wrong-service": wrongService, "expired": expired, "wrong-issuer": wrongIssuer} {
		t.Run(name, func(t *testing.T) {
			_, err := f.ath.Authenticate(ctx, f.header(f.tenant, time.Now()), f.assertion(t, claims))
			if !errors.Is(err, auth.ErrUnauthenticated) {
				t.Errorf("Should be unauthenticated, got %v", err)
			}
		})
	}
}

func Test_Authorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	super := auth.Caller{Service: f.super}
	tenant := auth.Caller{Service: f.tenant}
	other := auth.Caller{Service: f.other}

	roomT := f.tenant.Rooms[0]

	table := []struct {
		name   string
		caller auth.Caller
		res    resource.Resource
		act    action.Action
		target uuid.UUID
		err    error
	}{
		{name: "super-deletes-super", caller: super, res: resource.Service, act: action.Delete, target: f.super.ID, err: auth.ErrSuperServiceUndeletable},
		{name: "tenant-deletes-super", caller: tenant, res: resource.Service, act: action.Delete, target: f.super.ID, err: auth.ErrSuperServiceUndeletable},
		{name: "tenant-deletes-self", caller: tenant, res: resource.Service, act: action.Delete, target: f.tenant.ID},
		{name: "other-deletes-tenant", caller: other, res: resource.Service, act: action.Delete, target: f.tenant.ID, err: auth.ErrForbidden},
		{name: "super-deletes-tenant", caller: super, res: resource.Service, act: action.Delete, target: f.tenant.ID, err: auth.ErrForbidden},
		{name: "super-reads-tenant", caller: super, res: resource.Service, act: action.Get, target: f.tenant.ID},
		{name: "tenant-reads-self", caller: tenant, res: resource.Service, act: action.Get, target: f.tenant.ID},
		{name: "tenant-reads-other", caller: tenant, res: resource.Service, act: action.Get, target: f.other.ID, err: auth.ErrForbidden},
		{name: "super-lists", caller: super, res: resource.Services, act: action.List},
		{name: "tenant-lists", caller: tenant, res: resource.Services, act: action.List, err: auth.ErrForbidden},
		{name: "super-creates-service", caller: super, res: resource.Service, act: action.Create},
		{name: "tenant-creates-service", caller: tenant, res: resource.Service, act: action.Create, err: auth.ErrForbidden},
		{name: "tenant-creates-room", caller: tenant, res: resource.Rooms, act: action.Create},
		{name: "owner-gets-room", caller: tenant, res: resource.Room, act: action.Get, target: roomT},
		{name: "other-gets-room", caller: other, res: resource.Room, act: action.Get, target: roomT, err: auth.ErrForbidden},
		{name: "super-gets-room", caller: super, res: resource.Room, act: action.Get, target: roomT, err: auth.ErrForbidden},
		{name: "owner-issues-token", caller: tenant, res: resource.Token, act: action.Create, target: roomT},
		{name: "other-issues-token", caller: other, res: resource.Token, act: action.Create, target: roomT, err: auth.ErrForbidden},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ath.Authorize(ctx, tt.caller, tt.res, tt.act, tt.target)

			switch tt.err {
			case nil:
				if err != nil {
					t.Errorf("Should allow, got %v", err)
				}
			default:
				if !errors.Is(err, tt.err) {
					t.Errorf("Should get %v, got %v", tt.err, err)
				}
			}
		})
	}

	if auth.ErrSuperServiceUndeletable.Error() != "super service is not deletable" {
		t.Errorf("Unexpected message %q", auth.ErrSuperServiceUndeletable)
	}
}

func Test_SignRoundTrip(t *testing.T) {
	id := uuid.New()
	at := time.UnixMilli(1700000000123)

	creds := auth.Sign(id, []byte("k"), "r", "n", at)
	if creds.Timestamp != strconv.FormatInt(at.UnixMilli(), 10) {
		t.Errorf("Unexpected timestamp %s", creds.Timestamp)
	}

	parsed, err := auth.ParseHeader(creds.String())
	if err != nil {
		t.Fatalf("Should parse own header: %s", err)
	}

	if parsed != creds {
		t.Errorf("got %+v, want %+v", parsed, creds)
	}
}
