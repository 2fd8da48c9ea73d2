// Package roomdb contains room related CRUD functionality.
package roomdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for room database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (roombus.Storer, error) {
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

// Create inserts a new room into the database.
func (s *Store) Create(ctx context.Context, rm roombus.Room) error {
	dbRoom, err := toDBRoom(rm)
	if err != nil {
		return err
	}

	const q = `
	INSERT INTO room
		(room_id, name, participant_limit, input_limit, roles, views, created_at)
	VALUES
		(:room_id, :name, :participant_limit, :input_limit, :roles, :views, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, dbRoom); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a room from the database.
func (s *Store) Delete(ctx context.Context, rm roombus.Room) error {
	data := struct {
		ID string `db:"room_id"`
	}{
		ID: rm.ID.String(),
	}

	const q = `
	DELETE FROM
		room
	WHERE
		room_id = :room_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByID gets the specified room from the database.
func (s *Store) QueryByID(ctx context.Context, roomID uuid.UUID) (roombus.Room, error) {
	data := struct {
		ID string `db:"room_id"`
	}{
		ID: roomID.String(),
	}

	const q = `
	SELECT
		room_id, name, participant_limit, input_limit, roles, views, created_at
	FROM
		room
	WHERE
		room_id = :room_id`

	var dbRoom roomDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbRoom); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return roombus.Room{}, fmt.Errorf("db: %w", roombus.ErrNotFound)
		}
		return roombus.Room{}, fmt.Errorf("db: %w", err)
	}

	return toBusRoom(dbRoom)
}

// QueryByIDs gets the rooms with the specified ids. Order is not defined.
func (s *Store) QueryByIDs(ctx context.Context, roomIDs []uuid.UUID) ([]roombus.Room, error) {
	ids := make([]string, len(roomIDs))
	for i, id := range roomIDs {
		ids[i] = id.String()
	}

	data := struct {
		IDs []string `db:"room_ids"`
	}{
		IDs: ids,
	}

	const q = `
	SELECT
		room_id, name, participant_limit, input_limit, roles, views, created_at
	FROM
		room
	WHERE
		room_id = ANY(CAST(:room_ids AS UUID[]))`

	var dbRooms []roomDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbRooms); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusRooms(dbRooms)
}
