// Package serviceapp maintains the app layer api for the service domain.
package serviceapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/app/sdk/errs"
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

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewService
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ns, err := toBusNewService(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	svc, key, err := a.serviceBus.Create(ctx, ns)
	if err != nil {
		if errors.Is(err, servicebus.ErrUniqueName) {
			return errs.New(errs.Aborted, servicebus.ErrUniqueName)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "create: name[%s]: %s", ns.Name, err)
	}

	return CreatedService{Service: toAppService(svc), Key: key}
}

// delete removes the service together with the rooms it owns.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	serviceID, err := uuid.Parse(web.Param(r, "service_id"))
	if err != nil {
		return errs.NewFieldErrors("service_id", err)
	}

	err = retry.Run(ctx, a.retry, sqldb.IsTransient, func(ctx context.Context) error {
		return sqldb.WithinTran(ctx, a.log, a.beginner, func(tx sqldb.CommitRollbacker) error {
			serviceBus, err := a.serviceBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			roomBus, err := a.roomBus.NewWithTx(tx)
			if err != nil {
				return err
			}

			svc, err := serviceBus.QueryByID(ctx, serviceID)
			if err != nil {
				return err
			}

			rms, err := roomBus.QueryByIDs(ctx, svc.Rooms)
			if err != nil {
				return err
			}

			for _, rm := range rms {
				if err := roomBus.Delete(ctx, rm); err != nil {
					return err
				}
			}

			return serviceBus.Delete(ctx, svc)
		})
	})
	if err != nil {
		if errors.Is(err, servicebus.ErrNotFound) {
			return errs.New(errs.ServiceNotFound, servicebus.ErrNotFound)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "delete: serviceID[%s]: %s", serviceID, err)
	}

	return nil
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	svcs, err := a.serviceBus.Query(ctx)
	if err != nil {
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "query: %s", err)
	}

	return toAppServices(svcs)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	serviceID, err := uuid.Parse(web.Param(r, "service_id"))
	if err != nil {
		return errs.NewFieldErrors("service_id", err)
	}

	svc, err := a.serviceBus.QueryByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, servicebus.ErrNotFound) {
			return errs.New(errs.ServiceNotFound, servicebus.ErrNotFound)
		}
		return errs.Errorf(errs.Deadline(err, errs.InternalOnlyLog), "querybyid: serviceID[%s]: %s", serviceID, err)
	}

	return toAppService(svc)
}
