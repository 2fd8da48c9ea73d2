// Package tokendb contains token related CRUD functionality.
package tokendb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for token database access.
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

// Create inserts a new token into the database.
func (s *Store) Create(ctx context.Context, tkn tokenbus.Token) error {
	const q = `
	INSERT INTO token
		(token_id, service_id, room_id, user_name, role, origin_isp, origin_region, code, secure, host, created_at)
	VALUES
		(:token_id, :service_id, :room_id, :user_name, :role, :origin_isp, :origin_region, :code, :secure, :host, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBToken(tkn)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByID gets the specified token from the database.
func (s *Store) QueryByID(ctx context.Context, tokenID uuid.UUID) (tokenbus.Token, error) {
	data := struct {
		ID string `db:"token_id"`
	}{
		ID: tokenID.String(),
	}

	const q = `
	SELECT
		token_id, service_id, room_id, user_name, role, origin_isp, origin_region, code, secure, host, created_at
	FROM
		token
	WHERE
		token_id = :token_id`

	var dbTkn tokenDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbTkn); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tokenbus.Token{}, fmt.Errorf("db: %w", tokenbus.ErrNotFound)
		}
		return tokenbus.Token{}, fmt.Errorf("db: %w", err)
	}

	return toBusToken(dbTkn), nil
}
