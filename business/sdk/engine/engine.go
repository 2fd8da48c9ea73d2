// Package engine provides the client for the media engine cluster RPC.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// ProcedureSchedulePortal is the RPC that allocates a portal.
const ProcedureSchedulePortal = "/owt.cluster.v1.Portal/SchedulePortal"

// ErrEngine is returned when the engine answers with an error status or
// cannot be reached.
var ErrEngine = errors.New("media engine failure")

// Config represents the engine client settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client calls the media engine.
type Client struct {
	log      *logger.Logger
	timeout  time.Duration
	schedule *connect.Client[ScheduleRequest, Envelope[Portal]]
}

// New constructs an engine client. A zero timeout leaves the call bounded
// only by the caller context.
func New(log *logger.Logger, cfg Config) *Client {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	base := strings.TrimRight(cfg.URL, "/")

	return &Client{
		log:      log,
		timeout:  cfg.Timeout,
		schedule: connect.NewClient[ScheduleRequest, Envelope[Portal]](httpClient, base+ProcedureSchedulePortal, connect.WithCodec(Codec{})),
	}
}

// SchedulePortal allocates an entry point for the correlation code.
func (c *Client) SchedulePortal(ctx context.Context, code int64, org origin.Origin) (Portal, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.engine.scheduleportal", attribute.String("region", org.Region))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := connect.NewRequest(&ScheduleRequest{
		Code:   code,
		Origin: org,
	})
	otel.AddTraceToRequest(ctx, req.Header())

	resp, err := c.schedule.CallUnary(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Portal{}, fmt.Errorf("%w: %w", ErrEngine, context.DeadlineExceeded)
		}
		return Portal{}, fmt.Errorf("%w: schedule portal: %w", ErrEngine, err)
	}

	env := resp.Msg
	if env.Status == StatusError {
		c.log.Warn(ctx, "engine error", "procedure", ProcedureSchedulePortal, "reason", env.Error)
		return Portal{}, fmt.Errorf("%w: %s", ErrEngine, env.Error)
	}

	return env.Result, nil
}
