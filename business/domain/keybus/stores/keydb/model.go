package keydb

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jcpaschoal/confmgmt/business/domain/keybus"
)

type keyDB struct {
	ID        int       `db:"key_id"`
	Secret    string    `db:"secret"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toDBKey(bus keybus.Key) keyDB {
	return keyDB{
		ID:        bus.ID,
		Secret:    hex.EncodeToString(bus.Secret),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}
}

func toBusKey(db keyDB) (keybus.Key, error) {
	secret, err := hex.DecodeString(db.Secret)
	if err != nil {
		return keybus.Key{}, fmt.Errorf("decode secret: %w", err)
	}

	bus := keybus.Key{
		ID:        db.ID,
		Secret:    secret,
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}
