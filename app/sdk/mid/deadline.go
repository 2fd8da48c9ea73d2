package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

// Deadline bounds the time a request may spend in the handlers. Store and
// engine calls that run past it fail and are reported as unavailable.
func Deadline(d time.Duration) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			if d <= 0 {
				return next(ctx, r)
			}

			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next(ctx, r)
		}

		return h
	}

	return m
}
