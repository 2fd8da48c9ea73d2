package keybus

import "time"

// SigningKeyID is the fixed id of the one signing key record.
const SigningKeyID = 1

// Key is the global secret used to sign issued tokens.
type Key struct {
	ID        int
	Secret    []byte
	UpdatedAt time.Time
}
