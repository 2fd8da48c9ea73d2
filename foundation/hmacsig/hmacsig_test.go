package hmacsig_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/jcpaschoal/confmgmt/foundation/hmacsig"
)

func Test_Sign(t *testing.T) {
	key := []byte("s3cr3t")

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("1700000000000,abc"))
	want := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(mac.Sum(nil))))

	if got := hmacsig.Sign(key, "1700000000000", "abc"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}

	if !hmacsig.Verify(key, want, "1700000000000", "abc") {
		t.Errorf("Should verify its own signature")
	}

	if hmacsig.Verify(key, want, "1700000000001", "abc") {
		t.Errorf("Should reject a different message")
	}

	if hmacsig.Verify([]byte("other"), want, "1700000000000", "abc") {
		t.Errorf("Should reject a different key")
	}

	if hmacsig.Verify(key, "", "1700000000000", "abc") {
		t.Errorf("Should reject an empty signature")
	}
}
