package servicebus

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/types/name"
)

// Service represents a tenant of the system. SealedKey holds the shared
// secret encrypted at rest; Rooms lists the owned rooms in the order they
// were added.
type Service struct {
	ID        uuid.UUID
	Name      name.Name
	SealedKey string
	Rooms     []uuid.UUID
	CreatedAt time.Time
}

// HasRoom reports whether the service owns the room.
func (s Service) HasRoom(roomID uuid.UUID) bool {
	return slices.Contains(s.Rooms, roomID)
}

// NewService contains information needed to create a new service. An empty
// Key asks for a random one.
type NewService struct {
	Name name.Name
	Key  string
}
