package secretbox_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/jcpaschoal/confmgmt/foundation/keystore"
	"github.com/jcpaschoal/confmgmt/foundation/secretbox"
)

func newStore(t *testing.T, kids ...string) *keystore.KeyStore {
	t.Helper()

	ks := keystore.New()
	for i, kid := range kids {
		hexKey := strings.Repeat(string("0123456789"[i])+"a", keystore.SymmetricKeySize)
		if err := ks.AddSymmetricKey(kid, hexKey); err != nil {
			t.Fatalf("add key %s: %s", kid, err)
		}
	}

	return ks
}

func Test_SealOpen(t *testing.T) {
	ks := newStore(t, "k1")

	box, err := secretbox.New(ks, "k1")
	if err != nil {
		t.Fatalf("Should construct box: %s", err)
	}

	secret := []byte("tenant-shared-secret")

	sealed, err := box.Seal(secret)
	if err != nil {
		t.Fatalf("Should seal: %s", err)
	}

	if !strings.HasPrefix(sealed, "k1.") {
		t.Errorf("Sealed value should name its kid, got %q", sealed)
	}

	if strings.Contains(sealed, string(secret)) {
		t.Errorf("Sealed value leaks plaintext")
	}

	got, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Should open: %s", err)
	}

	if !bytes.Equal(got, secret) {
		t.Errorf("got %q, want %q", got, secret)
	}
}

func Test_OpenAfterActiveKeyChange(t *testing.T) {
	ks := newStore(t, "old", "new")

	oldBox, err := secretbox.New(ks, "old")
	if err != nil {
		t.Fatalf("box: %s", err)
	}

	sealed, err := oldBox.Seal([]byte("s"))
	if err != nil {
		t.Fatalf("seal: %s", err)
	}

	newBox, err := secretbox.New(ks, "new")
	if err != nil {
		t.Fatalf("box: %s", err)
	}

	if _, err := newBox.Open(sealed); err != nil {
		t.Errorf("Records sealed with a retired kid should still open: %s", err)
	}
}

func Test_OpenRejectsTampering(t *testing.T) {
	ks := newStore(t, "k1", "k2")

	box, err := secretbox.New(ks, "k1")
	if err != nil {
		t.Fatalf("box: %s", err)
	}

	sealed, err := box.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal: %s", err)
	}

	kid, payload, _ := strings.Cut(sealed, ".")
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	raw[len(raw)-1] ^= 0x01
	flipped := kid + "." + base64.RawURLEncoding.EncodeToString(raw)

	tests := []struct {
		name   string
		sealed string
		want   error
	}{
		{name: "flipped", sealed: flipped, want: secretbox.ErrOpen},
		{name: "relabeled", sealed: "k2" + strings.TrimPrefix(sealed, "k1"), want: secretbox.ErrOpen},
		{name: "nokid", sealed: "abc", want: secretbox.ErrMalformed},
		{name: "short", sealed: "k1.AAAA", want: secretbox.ErrMalformed},
		{name: "unknownkid", sealed: "k9" + strings.TrimPrefix(sealed, "k1"), want: keystore.ErrKeyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := box.Open(tt.sealed); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func Test_NewRequiresActiveKey(t *testing.T) {
	if _, err := secretbox.New(keystore.New(), "missing"); err == nil {
		t.Errorf("Should fail without the active key")
	}
}
