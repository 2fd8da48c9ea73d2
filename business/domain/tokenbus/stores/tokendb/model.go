package tokendb

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/tokenbus"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
)

type tokenDB struct {
	ID           uuid.UUID `db:"token_id"`
	ServiceID    uuid.UUID `db:"service_id"`
	RoomID       uuid.UUID `db:"room_id"`
	User         string    `db:"user_name"`
	Role         string    `db:"role"`
	OriginISP    string    `db:"origin_isp"`
	OriginRegion string    `db:"origin_region"`
	Code         int64     `db:"code"`
	Secure       bool      `db:"secure"`
	Host         string    `db:"host"`
	CreatedAt    time.Time `db:"created_at"`
}

func toDBToken(bus tokenbus.Token) tokenDB {
	return tokenDB{
		ID:           bus.ID,
		ServiceID:    bus.ServiceID,
		RoomID:       bus.RoomID,
		User:         bus.User,
		Role:         bus.Role,
		OriginISP:    bus.Origin.ISP,
		OriginRegion: bus.Origin.Region,
		Code:         bus.Code,
		Secure:       bus.Secure,
		Host:         bus.Host,
		CreatedAt:    bus.CreatedAt.UTC(),
	}
}

func toBusToken(db tokenDB) tokenbus.Token {
	return tokenbus.Token{
		ID:        db.ID,
		ServiceID: db.ServiceID,
		RoomID:    db.RoomID,
		User:      db.User,
		Role:      db.Role,
		Origin:    origin.Origin{ISP: db.OriginISP, Region: db.OriginRegion},
		Code:      db.Code,
		Secure:    db.Secure,
		Host:      db.Host,
		CreatedAt: db.CreatedAt.In(time.Local),
	}
}
