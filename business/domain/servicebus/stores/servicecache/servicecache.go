// Package servicecache contains service related CRUD functionality with
// caching. Every authenticated request looks its service up by id, so
// QueryByID is served from memory for a short time.
package servicecache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for service data and caching.
type Store struct {
	log    *logger.Logger
	storer servicebus.Storer
	cache  *sturdyc.Client[servicebus.Service]
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer servicebus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[servicebus.Service](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
// Writes made through it still evict the shared cache.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (servicebus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return &Store{
		log:    s.log,
		storer: storer,
		cache:  s.cache,
	}, nil
}

// Create inserts a new service into the database.
func (s *Store) Create(ctx context.Context, svc servicebus.Service) error {
	return s.storer.Create(ctx, svc)
}

// Delete removes a service from the database.
func (s *Store) Delete(ctx context.Context, svc servicebus.Service) error {
	if err := s.storer.Delete(ctx, svc); err != nil {
		return err
	}

	s.deleteCache(svc.ID)

	return nil
}

// Query retrieves every service from the database.
func (s *Store) Query(ctx context.Context) ([]servicebus.Service, error) {
	return s.storer.Query(ctx)
}

// QueryByID gets the specified service from the cache or the database.
func (s *Store) QueryByID(ctx context.Context, serviceID uuid.UUID) (servicebus.Service, error) {
	cachedSvc, ok := s.readCache(serviceID)
	if ok {
		return cachedSvc, nil
	}

	svc, err := s.storer.QueryByID(ctx, serviceID)
	if err != nil {
		return servicebus.Service{}, err
	}

	s.writeCache(svc)

	return svc, nil
}

// QueryByName gets the service with the specified name from the database.
func (s *Store) QueryByName(ctx context.Context, nme name.Name) (servicebus.Service, error) {
	return s.storer.QueryByName(ctx, nme)
}

// AddRoom appends the room to the service's room set.
func (s *Store) AddRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	if err := s.storer.AddRoom(ctx, serviceID, roomID); err != nil {
		return err
	}

	s.deleteCache(serviceID)

	return nil
}

// RemoveRoom drops the room from the service's room set.
func (s *Store) RemoveRoom(ctx context.Context, serviceID uuid.UUID, roomID uuid.UUID) error {
	if err := s.storer.RemoveRoom(ctx, serviceID, roomID); err != nil {
		return err
	}

	s.deleteCache(serviceID)

	return nil
}

// =============================================================================

// readCache performs a safe search in the cache for the specified key.
func (s *Store) readCache(serviceID uuid.UUID) (servicebus.Service, bool) {
	svc, exists := s.cache.Get(serviceID.String())
	if !exists {
		return servicebus.Service{}, false
	}

	return svc, true
}

// writeCache performs a safe write to the cache for the specified service.
func (s *Store) writeCache(svc servicebus.Service) {
	s.cache.Set(svc.ID.String(), svc)
}

// deleteCache performs a safe removal from the cache for the specified id.
func (s *Store) deleteCache(serviceID uuid.UUID) {
	s.cache.Delete(serviceID.String())
}
