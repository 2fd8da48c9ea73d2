// Package roomapp maintains the app layer api for the room domain.
package roomapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
	"github.com/jcpaschoal/confmgmt/app/sdk/mid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/sdk/web"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

type app struct {
	log        *logger.Logger
	serviceBus *servicebus.Core
	roomBus    *roombus.Core
	beginner   sqldb.Beginner
	retry      retry.Policy
}

func newApp(cfg Config) *app {
	return &app{
		log:        cfg.Log,
		serviceBus: cfg.ServiceBus,
		roomBus:    cfg.RoomBus,
		beginner:   cfg.Beginner,
		retry:      cfg.Retry,
	}
}

// create stores the room and adds it to the caller's rooms in one
// transaction.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewRoom
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nr, err := toBusNewRoom(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "caller missing in context: %s", err)
	}

	var rm roombus.Room
	err = retry.Run(ctx, a.retry, sqldb.IsTransient, func(ctx context.Context) error {
		return sqldb.WithinTran(ctx, a.log, a.beginner, func(tx sqldb.CommitRollbacker) error {
			roomBus, err := a.roomBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			serviceBus, err := a.serviceBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			rm, err = roomBus.Create(ctx, nr)
			if err != nil {
				return err
			}

			_, err = serviceBus.AddRoom(ctx, caller.Service, rm.ID)
			return err
		})
	})
	if err != nil {
		if isInvalidRoom(err) {
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "create: serviceID[%s]: %s", caller.Service.ID, err)
	}

	return createdRoom{Room: toAppRoom(rm)}
}

// delete removes the room from the caller's rooms and deletes it in one
// transaction.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	roomID, err := uuid.Parse(web.Param(r, "room_id"))
	if err != nil {
		return errs.NewFieldErrors("room_id", err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "caller missing in context: %s", err)
	}

	err = retry.Run(ctx, a.retry, sqldb.IsTransient, func(ctx context.Context) error {
		return sqldb.WithinTran(ctx, a.log, a.beginner, func(tx sqldb.CommitRollbacker) error {
			roomBus, err := a.roomBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			serviceBus, err := a.serviceBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			rm, err := roomBus.QueryByID(ctx, roomID)
			if err != nil {
				return err
			}

			if _, err := serviceBus.RemoveRoom(ctx, caller.Service, rm.ID); err != nil {
				return err
			}

			return roomBus.Delete(ctx, rm)
		})
	})
	if err != nil {
		if errors.Is(err, roombus.ErrNotFound) {
			return errs.New(errs.RoomNotFound, roombus.ErrNotFound)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "delete: roomID[%s]: %s", roomID, err)
	}

	return nil
}

// query returns the caller's rooms in the order they were added.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "caller missing in context: %s", err)
	}

	rms, err := a.roomBus.QueryByIDs(ctx, caller.Service.Rooms)
	if err != nil {
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "query: serviceID[%s]: %s", caller.Service.ID, err)
	}

	return toAppRooms(rms)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	roomID, err := uuid.Parse(web.Param(r, "room_id"))
	if err != nil {
		return errs.NewFieldErrors("room_id", err)
	}

	rm, err := a.roomBus.QueryByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roombus.ErrNotFound) {
			return errs.New(errs.RoomNotFound, roombus.ErrNotFound)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "querybyid: roomID[%s]: %s", roomID, err)
	}

	return toAppRoom(rm)
}

func isInvalidRoom(err error) bool {
	return errors.Is(err, roombus.ErrInvalidLimit) ||
		errors.Is(err, roombus.ErrNoRoles) ||
		errors.Is(err, roombus.ErrDupRole) ||
		errors.Is(err, roombus.ErrRoleName)
}
