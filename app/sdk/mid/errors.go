package mid

import (
	"context"
	"net/http"
	"path"

	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Errors handles errors coming out of the call chain. Errors that are not
// an errs.Error are turned into one whose message is only logged.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)
			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			_, span := otel.AddSpan(ctx, "app.sdk.mid.error")
			span.SetAttributes(attribute.String("message", err.Error()))
			defer span.End()

			appErr := errs.GetError(err)
			if appErr == nil {
				appErr = errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "%s", err.Error())
			}

			log.Error(ctx, "handled error during request",
				"err", err,
				"code", appErr.Code,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			return appErr
		}

		return h
	}

	return m
}
