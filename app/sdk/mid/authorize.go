package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/auth"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
)

// ErrInvalidID is returned when the route id is not a uuid.
var ErrInvalidID = errors.New("ID is not in its proper form")

// Authorize valida se o serviço autenticado pode executar act sobre res.
// idKey: nome do parâmetro da rota com o id do alvo (ex: "service_id").
//
//	Se vazio "", a checagem é feita sobre a coleção.
func Authorize(ath *auth.Auth, res resource.Resource, act action.Action, idKey string) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			caller, err := GetCaller(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, auth.ErrUnauthenticated)
			}

			var targetID uuid.UUID
			if idKey != "" {
				targetID, err = uuid.Parse(web.Param(r, idKey))
				if err != nil {
					return errs.New(errs.InvalidArgument, ErrInvalidID)
				}
			}

			if err := ath.Authorize(ctx, caller, res, act, targetID); err != nil {
				switch {
				case errors.Is(err, auth.ErrSuperServiceUndeletable):
					return errs.New(errs.PermissionDenied, auth.ErrSuperServiceUndeletable)
				case errors.Is(err, auth.ErrForbidden):
					return errs.New(errs.PermissionDenied, auth.ErrForbidden)
				}
				return errs.Errorf(errs.InternalOnlyLog, "authorize: %s", err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
