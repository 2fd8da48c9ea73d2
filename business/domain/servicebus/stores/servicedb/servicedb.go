// Package servicedb contains service related CRUD functionality.
package servicedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for service database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (servicebus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new service into the database.
func (s *Store) Create(ctx context.Context, svc servicebus.Service) error {
	const q = `
	INSERT INTO service
		(service_id, name, sealed_key, created_at)
	VALUES
		(:service_id, :name, :sealed_key, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBService(svc)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return fmt.Errorf("namedexeccontext: %w", servicebus.ErrUniqueName)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a service from the database. Its room memberships go with
// it through the foreign key.
func (s *Store) Delete(ctx context.Context, svc servicebus.Service) error {
	const q = `
	DELETE FROM
		service
	WHERE
		service_id = :service_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBService(svc)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

const selectService = `
	SELECT
		s.service_id, s.name, s.sealed_key, s.created_at,
		COALESCE(
			(SELECT string_agg(sr.room_id::text, ',' ORDER BY sr.position)
			 FROM service_room AS sr
			 WHERE sr.service_id = s.service_id),
		'') AS rooms
	FROM
		service AS s`

// Query retrieves every service from the database.
func (s *Store) Query(ctx context.Context) ([]servicebus.Service, error) {
	const q = selectService + `
	ORDER BY
		s.created_at`

	var dbSvcs []serviceDB
	if err := sqldb.QuerySlice(ctx, s.log, s.db, q, &dbSvcs); err != nil {
		return nil, fmt.Errorf("queryslice: %w", err)
	}

	return toBusServices(dbSvcs)
}

// QueryByID gets the specified service from the database.
func (s *Store) QueryByID(ctx context.Context, serviceID uuid.UUID) (servicebus.Service, error) {
	data := struct {
		ID string `db:"service_id"`
	}{
		ID: serviceID.String(),
	}

	const q = selectService + `
	WHERE
		s.service_id = :service_id`

	var dbSvc serviceDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSvc); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return servicebus.Service{}, fmt.Errorf("db: %w", servicebus.ErrNotFound)
		}
		return servicebus.Service{}, fmt.Errorf("db: %w", err)
	}

	return toBusService(dbSvc)
}

// QueryByName gets the service with the specified name from the database.
func (s *Store) QueryByName(ctx context.Context, nme name.Name) (servicebus.Service, error) {
	data := struct {
		Name string `db:"name"`
	}{
		Name: nme.String(),
	}

	const q = selectService + `
	WHERE
		s.name = :name`

	var dbSvc serviceDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSvc); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return servicebus.Service{}, fmt.Errorf("db: %w", servicebus.ErrNotFound)
		}
		return servicebus.Service{}, fmt.Errorf("db: %w", err)
	}

	return toBusService(dbSvc)
}

// AddRoom appends the room to the service's ordered room set.
func (s *Store) AddRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	data := struct {
		ServiceID string `db:"service_id"`
		RoomID    string `db:"room_id"`
	}{
		ServiceID: serviceID.String(),
		RoomID:    roomID.String(),
	}

	const q = `
	INSERT INTO service_room
		(service_id, room_id)
	VALUES
		(:service_id, :room_id)
	ON CONFLICT (service_id, room_id) DO NOTHING`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// RemoveRoom drops the room from the service's room set.
func (s *Store) RemoveRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	data := struct {
		ServiceID string `db:"service_id"`
		RoomID    string `db:"room_id"`
	}{
		ServiceID: serviceID.String(),
		RoomID:    roomID.String(),
	}

	const q = `
	DELETE FROM
		service_room
	WHERE
		service_id = :service_id AND room_id = :room_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}
