package tokenbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/types/origin"
)

// Token is the stored record behind an issued room token. It is never
// updated after creation.
type Token struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	RoomID    uuid.UUID
	User      string
	Role      string
	Origin    origin.Origin
	Code      int64
	Secure    bool
	Host      string
	CreatedAt time.Time
}

// NewToken is what a caller supplies to get a token for a room.
type NewToken struct {
	RoomID uuid.UUID
	User   string
	Role   string
	Origin origin.Origin
}

// Opaque is the content of the string handed to the end user. It only
// points at the stored token and carries a signature binding id and host.
type Opaque struct {
	TokenID   string `json:"tokenId"`
	Host      string `json:"host"`
	Secure    bool   `json:"secure"`
	Signature string `json:"signature"`
}
