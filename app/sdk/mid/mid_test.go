package mid_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"go.opentelemetry.io/otel/trace/noop"
)

type services map[uuid.UUID]servicebus.Service

func (s services) QueryByID(ctx context.Context, id uuid.UUID) (servicebus.Service, error) {
	svc, ok := s[id]
	if !ok {
		return servicebus.Service{}, fmt.Errorf("query: %w", servicebus.ErrNotFound)
	}
	return svc, nil
}

func (s services) Secret(ctx context.Context, svc servicebus.Service) ([]byte, error) {
	return []byte("secret-" + svc.ID.String()), nil
}

type body struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ok struct{}

func (ok) Encode() ([]byte, string, error) {
	return []byte(`{"status":"ok"}`), "application/json", nil
}

// =============================================================================

func Test_Chain(t *testing.T) {
	super := servicebus.Service{ID: uuid.New()}
	tenant := servicebus.Service{ID: uuid.New()}
	other := servicebus.Service{ID: uuid.New()}

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	ath, err := auth.New(auth.Config{
		Log:      log,
		Services: services{super.ID: super, tenant.ID: tenant, other.ID: other},
		SuperID:  super.ID,
	})
	if err != nil {
		t.Fatalf("Should construct auth: %s", err)
	}

	app := web.NewApp(log.Info, noop.NewTracerProvider().Tracer(""), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())

	authen := mid.Authenticate(ath)

	app.HandlerFunc(http.MethodGet, "v1", "/services/{service_id}", func(ctx context.Context, r *http.Request) web.Encoder {
		return ok{}
	}, authen, mid.Authorize(ath, resource.Service, action.Get, "service_id"))

	app.HandlerFunc(http.MethodDelete, "v1", "/services/{service_id}", func(ctx context.Context, r *http.Request) web.Encoder {
		return nil
	}, authen, mid.Authorize(ath, resource.Service, action.Delete, "service_id"))

	app.HandlerFunc(http.MethodGet, "v1", "/boom", func(ctx context.Context, r *http.Request) web.Encoder {
		panic("boom")
	})

	sign := func(svc servicebus.Service) string {
		return auth.Sign(svc.ID, []byte("secret-"+svc.ID.String()), "test", uuid.NewString(), time.Now()).String()
	}

	table := []struct {
		name    string
		method  string
		path    string
		header  string
		status  int
		code    int
		message string
	}{
		{name: "no-header", method: http.MethodGet, path: "/v1/services/" + tenant.ID.String(), status: http.StatusUnauthorized, code: 1101, message: "unauthenticated"},
		{name: "self", method: http.MethodGet, path: "/v1/services/" + tenant.ID.String(), header: sign(tenant), status: http.StatusOK},
		{name: "other", method: http.MethodGet, path: "/v1/services/" + tenant.ID.String(), header: sign(other), status: http.StatusForbidden, code: 1102, message: "attempted action is not allowed"},
		{name: "bad-id", method: http.MethodGet, path: "/v1/services/abc", header: sign(tenant), status: http.StatusBadRequest, code: 1201},
		{name: "delete-super", method: http.MethodDelete, path: "/v1/services/" + super.ID.String(), header: sign(super), status: http.StatusForbidden, code: 1102, message: "super service is not deletable"},
		{name: "delete-self", method: http.MethodDelete, path: "/v1/services/" + tenant.ID.String(), header: sign(tenant), status: http.StatusNoContent},
		{name: "panic", method: http.MethodGet, path: "/v1/boom", status: http.StatusInternalServerError, code: 2001, message: "internal"},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Fatalf("got status %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}

			if tt.code == 0 {
				return
			}

			var got body
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %s", err)
			}

			if got.Error.Code != tt.code {
				t.Errorf("got code %d, want %d", got.Error.Code, tt.code)
			}

			if tt.message != "" && got.Error.Message != tt.message {
				t.Errorf("got message %q, want %q", got.Error.Message, tt.message)
			}
		})
	}
}
