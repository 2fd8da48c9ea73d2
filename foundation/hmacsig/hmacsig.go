// Package hmacsig computes the request and token signatures shared by the
// MAuth scheme and the room tokens: the comma joined message is signed with
// HMAC-SHA256, hex encoded and then base64 encoded.
package hmacsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Sign returns base64(hex(HMAC-SHA256(join(parts, ","), key))).
func Sign(key []byte, parts ...string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.Join(parts, ",")))

	sum := hex.EncodeToString(mac.Sum(nil))

	return base64.StdEncoding.EncodeToString([]byte(sum))
}

// Verify reports whether signature matches the parts under key. The
// comparison runs in constant time.
func Verify(key []byte, signature string, parts ...string) bool {
	want := Sign(key, parts...)

	return hmac.Equal([]byte(want), []byte(signature))
}
