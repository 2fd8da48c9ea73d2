// Package tokenapp maintains the app layer api for room tokens.
package tokenapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/app/sdk/metrics"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
)

type app struct {
	tokenBus *tokenbus.Core
}

func newApp(tokenBus *tokenbus.Core) *app {
	return &app{
		tokenBus: tokenBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	roomID, err := uuid.Parse(web.Param(r, "room_id"))
	if err != nil {
		return errs.NewFieldErrors("room_id", err)
	}

	var app NewToken
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "caller missing in context: %s", err)
	}

	tkn, err := a.tokenBus.Issue(ctx, caller.Service, toBusNewToken(app, roomID, caller))
	if err != nil {
		switch {
		case errors.Is(err, tokenbus.ErrUserRequired):
			return errs.New(errs.InvalidArgument, tokenbus.ErrUserRequired)

		case errors.Is(err, tokenbus.ErrRoleNotValid):
			return errs.New(errs.InvalidArgument, tokenbus.ErrRoleNotValid)

		case errors.Is(err, roombus.ErrNotFound):
			return errs.New(errs.RoomNotFound, roombus.ErrNotFound)

		case errors.Is(err, keybus.ErrNotFound):
			return errs.New(errs.Unavailable, keybus.ErrNotFound)

		case errors.Is(err, tokenbus.ErrUnavailable):
			return errs.New(errs.Unavailable, tokenbus.ErrUnavailable)
		}

		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "issue: roomID[%s]: %s", roomID, err)
	}

	metrics.AddTokens(ctx)

	return Token(tkn)
}
