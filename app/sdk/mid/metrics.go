package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/jcpaschoal/confmgmt/app/sdk/metrics"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

// Metrics updates program counters.
func Metrics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			now := time.Now()

			resp := next(ctx, r)

			metrics.AddRequests(ctx)

			if checkIsError(resp) != nil {
				metrics.AddErrors(ctx)
			}

			metrics.ObserveRequest(ctx, r.Pattern, statusCode(resp), time.Since(now))

			return resp
		}

		return h
	}

	return m
}

// statusCode mirrors the status web.Respond will write for resp.
func statusCode(resp web.Encoder) int {
	switch v := resp.(type) {
	case nil:
		return http.StatusNoContent
	case interface{ HTTPStatus() int }:
		return v.HTTPStatus()
	case error:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
