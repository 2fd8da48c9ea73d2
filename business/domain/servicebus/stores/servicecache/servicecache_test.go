package servicecache_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus/stores/servicecache"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
)

type countingStore struct {
	svc   servicebus.Service
	reads int
}

func (s *countingStore) NewWithTx(tx sqldb.CommitRollbacker) (servicebus.Storer, error) {
	return s, nil
}

func (s *countingStore) Create(ctx context.Context, svc servicebus.Service) error { return nil }
func (s *countingStore) Delete(ctx context.Context, svc servicebus.Service) error { return nil }

func (s *countingStore) Query(ctx context.Context) ([]servicebus.Service, error) {
	return []servicebus.Service{s.svc}, nil
}

func (s *countingStore) QueryByID(ctx context.Context, id uuid.UUID) (servicebus.Service, error) {
	s.reads++
	if id != s.svc.ID {
		return servicebus.Service{}, servicebus.ErrNotFound
	}
	return s.svc, nil
}

func (s *countingStore) QueryByName(ctx context.Context, nme name.Name) (servicebus.Service, error) {
	return s.svc, nil
}

func (s *countingStore) AddRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	s.svc.Rooms = append(s.svc.Rooms, roomID)
	return nil
}

func (s *countingStore) RemoveRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	return nil
}

func Test_QueryByIDIsCached(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	db := &countingStore{svc: servicebus.Service{ID: uuid.New(), Name: name.MustParse("acme")}}
	store := servicecache.NewStore(log, db, time.Minute)
	ctx := context.Background()

	for range 3 {
		if _, err := store.QueryByID(ctx, db.svc.ID); err != nil {
			t.Fatalf("QueryByID: %s", err)
		}
	}

	if db.reads != 1 {
		t.Errorf("Should hit the database once, got %d", db.reads)
	}

	roomID := uuid.New()
	if err := store.AddRoom(ctx, db.svc.ID, roomID); err != nil {
		t.Fatalf("AddRoom: %s", err)
	}

	svc, _ := store.QueryByID(ctx, db.svc.ID)
	if !svc.HasRoom(roomID) {
		t.Errorf("Membership change should evict the cached service")
	}

	if db.reads != 2 {
		t.Errorf("Should reload after eviction, got %d reads", db.reads)
	}

	if _, err := store.QueryByID(ctx, uuid.New()); err == nil {
		t.Errorf("Unknown ids should fail")
	}
}
