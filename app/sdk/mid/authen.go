package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

// Authenticate verifies the MAuth signature of the request and stores the
// caller in the context.
func Authenticate(ath *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			caller, err := ath.Authenticate(ctx, r.Header.Get("Authorization"), r.Header.Get(auth.HeaderIdentity))
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					return errs.New(errs.Unauthenticated, auth.ErrUnauthenticated)
				}
				return errs.New(errs.Deadline(err, errs.Unavailable), err)
			}

			ctx = setCaller(ctx, caller)

			return next(ctx, r)
		}

		return h
	}

	return m
}
