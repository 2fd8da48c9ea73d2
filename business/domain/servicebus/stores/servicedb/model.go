package servicedb

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

type serviceDB struct {
	ID        uuid.UUID `db:"service_id"`
	Name      string    `db:"name"`
	SealedKey string    `db:"sealed_key"`
	Rooms     string    `db:"rooms"`
	CreatedAt time.Time `db:"created_at"`
}

func toDBService(bus servicebus.Service) serviceDB {
	return serviceDB{
		ID:        bus.ID,
		Name:      bus.Name.String(),
		SealedKey: bus.SealedKey,
		CreatedAt: bus.CreatedAt.UTC(),
	}
}

func toBusService(db serviceDB) (servicebus.Service, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return servicebus.Service{}, fmt.Errorf("parse name: %w", err)
	}

	// rooms is a comma separated list already in set order.
	var rooms []uuid.UUID
	if db.Rooms != "" {
		for _, s := range strings.Split(db.Rooms, ",") {
			id, err := uuid.Parse(s)
			if err != nil {
				return servicebus.Service{}, fmt.Errorf("parse room id: %w", err)
			}
			rooms = append(rooms, id)
		}
	}

	bus := servicebus.Service{
		ID:        db.ID,
		Name:      nme,
		SealedKey: db.SealedKey,
		Rooms:     rooms,
		CreatedAt: db.CreatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusServices(dbs []serviceDB) ([]servicebus.Service, error) {
	bus := make([]servicebus.Service, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusService(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
