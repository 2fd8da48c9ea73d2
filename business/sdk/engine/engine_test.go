package engine_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"github.com/jcpaschoal/confmgmt/business/sdk/engine"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
)

type scheduleFunc func(ctx context.Context, req *connect.Request[engine.ScheduleRequest]) (*connect.Response[engine.Envelope[engine.Portal]], error)

func startEngine(t *testing.T, fn scheduleFunc) *engine.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle(engine.ProcedureSchedulePortal, connect.NewUnaryHandler(engine.ProcedureSchedulePortal, fn, connect.WithCodec(engine.Codec{})))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	return engine.New(log, engine.Config{URL: srv.URL, Timeout: 200 * time.Millisecond})
}

func Test_SchedulePortal(t *testing.T) {
	yes := true
	want := engine.Portal{Hostname: "portal.example.com", IP: "10.0.0.1", Port: 8080, SSL: false, UnderHTTPSProxy: &yes}

	var got engine.ScheduleRequest
	client := startEngine(t, func(ctx context.Context, req *connect.Request[engine.ScheduleRequest]) (*connect.Response[engine.Envelope[engine.Portal]], error) {
		got = *req.Msg
		return connect.NewResponse(&engine.Envelope[engine.Portal]{Status: engine.StatusOK, Result: want}), nil
	})

	portal, err := client.SchedulePortal(context.Background(), 42, origin.Default())
	if err != nil {
		t.Fatalf("Should schedule a portal: %s", err)
	}

	if diff := cmp.Diff(want, portal); diff != "" {
		t.Errorf("Portal mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(engine.ScheduleRequest{Code: 42, Origin: origin.Default()}, got); diff != "" {
		t.Errorf("Request mismatch (-want +got):\n%s", diff)
	}
}

func Test_SchedulePortalErrors(t *testing.T) {
	table := []struct {
		name string
		fn   scheduleFunc
	}{
		{
			name: "status-error",
			fn: func(ctx context.Context, req *connect.Request[engine.ScheduleRequest]) (*connect.Response[engine.Envelope[engine.Portal]], error) {
				return connect.NewResponse(&engine.Envelope[engine.Portal]{Status: engine.StatusError, Error: "no portal available"}), nil
			},
		},
		{
			name: "rpc-error",
			fn: func(ctx context.Context, req *connect.Request[engine.ScheduleRequest]) (*connect.Response[engine.Envelope[engine.Portal]], error) {
				return nil, connect.NewError(connect.CodeUnavailable, errors.New("cluster down"))
			},
		},
		{
			name: "timeout",
			fn: func(ctx context.Context, req *connect.Request[engine.ScheduleRequest]) (*connect.Response[engine.Envelope[engine.Portal]], error) {
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
				return nil, connect.NewError(connect.CodeDeadlineExceeded, ctx.Err())
			},
		},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			client := startEngine(t, tt.fn)

			_, err := client.SchedulePortal(context.Background(), 1, origin.Default())
			if !errors.Is(err, engine.ErrEngine) {
				t.Errorf("Should get ErrEngine, got %v", err)
			}
		})
	}
}
