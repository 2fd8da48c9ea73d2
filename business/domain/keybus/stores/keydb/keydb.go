// Package keydb contains signing key related CRUD functionality.
package keydb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for signing key database access.
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

// Insert adds the key only if the singleton row does not exist yet.
func (s *Store) Insert(ctx context.Context, k keybus.Key) (bool, error) {
	const q = `
	INSERT INTO signing_key
		(key_id, secret, updated_at)
	VALUES
		(:key_id, :secret, :updated_at)
	ON CONFLICT (key_id) DO NOTHING`

	n, err := sqldb.NamedExecRows(ctx, s.log, s.db, q, toDBKey(k))
	if err != nil {
		return false, fmt.Errorf("namedexecrows: %w", err)
	}

	return n == 1, nil
}

// Upsert replaces the singleton key.
func (s *Store) Upsert(ctx context.Context, k keybus.Key) error {
	const q = `
	INSERT INTO signing_key
		(key_id, secret, updated_at)
	VALUES
		(:key_id, :secret, :updated_at)
	ON CONFLICT (key_id) DO UPDATE SET
		secret = EXCLUDED.secret,
		updated_at = EXCLUDED.updated_at`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBKey(k)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves the singleton key.
func (s *Store) Query(ctx context.Context) (keybus.Key, error) {
	data := struct {
		ID int `db:"key_id"`
	}{
		ID: keybus.SigningKeyID,
	}

	const q = `
	SELECT
		key_id, secret, updated_at
	FROM
		signing_key
	WHERE
		key_id = :key_id`

	var dbKey keyDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbKey); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return keybus.Key{}, fmt.Errorf("db: %w", keybus.ErrNotFound)
		}
		return keybus.Key{}, fmt.Errorf("db: %w", err)
	}

	return toBusKey(dbKey)
}
