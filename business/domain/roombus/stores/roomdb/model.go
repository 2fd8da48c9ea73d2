package roomdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

type roomDB struct {
	ID               uuid.UUID `db:"room_id"`
	Name             string    `db:"name"`
	ParticipantLimit int       `db:"participant_limit"`
	InputLimit       int       `db:"input_limit"`
	Roles            string    `db:"roles"`
	Views            string    `db:"views"`
	CreatedAt        time.Time `db:"created_at"`
}

func toDBRoom(bus roombus.Room) (roomDB, error) {
	roles, err := json.Marshal(bus.Roles)
	if err != nil {
		return roomDB{}, fmt.Errorf("marshal roles: %w", err)
	}

	views, err := json.Marshal(bus.Views)
	if err != nil {
		return roomDB{}, fmt.Errorf("marshal views: %w", err)
	}

	db := roomDB{
		ID:               bus.ID,
		Name:             bus.Name.String(),
		ParticipantLimit: bus.ParticipantLimit,
		InputLimit:       bus.InputLimit,
		Roles:            string(roles),
		Views:            string(views),
		CreatedAt:        bus.CreatedAt.UTC(),
	}

	return db, nil
}

func toBusRoom(db roomDB) (roombus.Room, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return roombus.Room{}, fmt.Errorf("parse name: %w", err)
	}

	var roles []roombus.Role
	if err := json.Unmarshal([]byte(db.Roles), &roles); err != nil {
		return roombus.Room{}, fmt.Errorf("unmarshal roles: %w", err)
	}

	var views []roombus.View
	if err := json.Unmarshal([]byte(db.Views), &views); err != nil {
		return roombus.Room{}, fmt.Errorf("unmarshal views: %w", err)
	}

	bus := roombus.Room{
		ID:               db.ID,
		Name:             nme,
		ParticipantLimit: db.ParticipantLimit,
		InputLimit:       db.InputLimit,
		Roles:            roles,
		Views:            views,
		CreatedAt:        db.CreatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusRooms(dbs []roomDB) ([]roombus.Room, error) {
	bus := make([]roombus.Room, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusRoom(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
