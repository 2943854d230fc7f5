package mux

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/curve25519"
)

func TestBase85_KnownVectors(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{nil, ""},
		{[]byte("hello"), "Xk~0{Zv"},
		{[]byte("abc"), "VPaz"},
		{[]byte{0, 0, 0, 0}, "00000"},
		{[]byte{0xff, 0xff, 0xff, 0xff}, "|NsC0"},
	}
	for _, tt := range tests {
		if got := EncodeBase85(tt.in); got != tt.want {
			t.Errorf("EncodeBase85(%q) = %q, want %q", tt.in, got, tt.want)
		}
		got, err := DecodeBase85(tt.want)
		if err != nil {
			t.Errorf("DecodeBase85(%q): %v", tt.want, err)
			continue
		}
		if !bytes.Equal(got, tt.in) {
			t.Errorf("DecodeBase85(%q) = %q, want %q", tt.want, got, tt.in)
		}
	}
}

func TestBase85_RoundTripLengths(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	for n := 0; n <= len(data); n++ {
		enc := EncodeBase85(data[:n])
		dec, err := DecodeBase85(enc)
		if err != nil {
			t.Fatalf("len %d: %v", n, err)
		}
		if !bytes.Equal(dec, data[:n]) {
			t.Fatalf("len %d: got %q", n, dec)
		}
	}
}

func TestDecodeBase85_Invalid(t *testing.T) {
	for _, s := range []string{"abc\"e", "0", "~~~~~"} {
		if _, err := DecodeBase85(s); err == nil {
			t.Errorf("DecodeBase85(%q) expected error", s)
		}
	}
}

func TestNewEncrypter_NoPassword(t *testing.T) {
	enc, err := NewEncrypter("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := enc.(NoEncryption); !ok {
		t.Errorf("got %T, want NoEncryption", enc)
	}
}

func TestNewPasswordEncrypter_KeyErrors(t *testing.T) {
	t.Setenv(PublicKeyEnv, "")
	if _, err := NewPasswordEncrypter("pw", ""); err != ErrNoPublicKey {
		t.Errorf("err = %v, want ErrNoPublicKey", err)
	}
	for _, key := range []string{"nocolon", "2:" + EncodeBase85(make([]byte, 32)), "1:" + EncodeBase85(make([]byte, 8))} {
		if _, err := NewPasswordEncrypter("pw", key); err == nil {
			t.Errorf("key %q: expected error", key)
		}
	}
}

func TestPasswordEncrypter_PeerCanDecrypt(t *testing.T) {
	serverPriv := bytes.Repeat([]byte{7}, curve25519.ScalarSize)
	serverPub, err := curve25519.X25519(serverPriv, curve25519.Basepoint)
	if err != nil {
		t.Fatal(err)
	}

	enc, err := NewPasswordEncrypter("s3cret", "1:"+EncodeBase85(serverPub))
	if err != nil {
		t.Fatal(err)
	}
	enc.now = func() time.Time { return time.Unix(0, 42) }

	wire, err := enc.Wrap(GetTextRequest(5, true))
	if err != nil {
		t.Fatal(err)
	}
	er, ok := wire.(EncryptedRequest)
	if !ok {
		t.Fatalf("Wrap returned %T", wire)
	}
	if er.Version != ProtocolVersion {
		t.Errorf("Version = %v", er.Version)
	}

	clientPub, err := DecodeBase85(er.Pubkey)
	if err != nil {
		t.Fatal(err)
	}
	iv, _ := DecodeBase85(er.IV)
	tag, _ := DecodeBase85(er.Tag)
	ciphertext, _ := DecodeBase85(er.Encrypted)

	gcm, err := sharedCipher(serverPriv, clientPub)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	var req struct {
		Cmd       string         `json:"cmd"`
		Password  string         `json:"password"`
		Timestamp int64          `json:"timestamp"`
		Payload   GetTextPayload `json:"payload"`
	}
	if err := json.Unmarshal(plain, &req); err != nil {
		t.Fatal(err)
	}
	if req.Cmd != CmdGetText || req.Password != "s3cret" || req.Timestamp != 42 {
		t.Errorf("decrypted request = %+v", req)
	}
	if req.Payload.Match != "id:5" || !req.Payload.ANSI {
		t.Errorf("payload = %+v", req.Payload)
	}

	frame, err := EncodeFrame(wire)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(frame), "s3cret") {
		t.Error("password leaked into the frame in clear text")
	}
}
