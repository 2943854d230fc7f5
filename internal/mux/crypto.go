package mux

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/curve25519"
)

// EncryptionProtocol is the kitty remote control encryption version supported here.
const EncryptionProtocol = "1"

// PublicKeyEnv holds kitty's public key as "<protocol>:<base85 key>".
const PublicKeyEnv = "KITTY_PUBLIC_KEY"

// ErrNoPublicKey is returned when a password is configured but kitty did not
// publish a public key.
var ErrNoPublicKey = errors.New("no kitty public key: " + PublicKeyEnv + " is not set")

// Encrypter turns a request into the value written on the wire.
type Encrypter interface {
	Wrap(req Request) (any, error)
}

// NoEncryption sends requests in clear text.
type NoEncryption struct{}

// Wrap returns req unchanged.
func (NoEncryption) Wrap(req Request) (any, error) {
	return req, nil
}

// EncryptedRequest is the envelope kitty expects for password protected
// commands. All binary fields are base85 encoded.
type EncryptedRequest struct {
	Version   [3]int `json:"version"`
	IV        string `json:"iv"`
	Tag       string `json:"tag"`
	Pubkey    string `json:"pubkey"`
	Encrypted string `json:"encrypted"`
	EncProto  string `json:"enc_proto,omitempty"`
}

// PasswordEncrypter authenticates requests with a remote control password.
// Each request is encrypted with AES-256-GCM under a key derived from an
// ephemeral X25519 exchange with kitty's public key.
type PasswordEncrypter struct {
	password  string
	serverKey []byte
	rand      io.Reader
	now       func() time.Time
}

// NewPasswordEncrypter builds an encrypter. An empty encodedKey falls back to
// $KITTY_PUBLIC_KEY.
func NewPasswordEncrypter(password, encodedKey string) (*PasswordEncrypter, error) {
	if encodedKey == "" {
		encodedKey = os.Getenv(PublicKeyEnv)
	}
	if encodedKey == "" {
		return nil, ErrNoPublicKey
	}
	proto, encoded, ok := strings.Cut(encodedKey, ":")
	if !ok {
		return nil, fmt.Errorf("invalid kitty public key %q: missing ':'", encodedKey)
	}
	if proto != EncryptionProtocol {
		return nil, fmt.Errorf("unsupported kitty encryption protocol %q", proto)
	}
	key, err := DecodeBase85(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding kitty public key: %w", err)
	}
	if len(key) != curve25519.PointSize {
		return nil, fmt.Errorf("kitty public key has %d bytes, want %d", len(key), curve25519.PointSize)
	}
	return &PasswordEncrypter{
		password:  password,
		serverKey: key,
		rand:      rand.Reader,
		now:       time.Now,
	}, nil
}

// NewEncrypter returns NoEncryption for an empty password and a
// PasswordEncrypter otherwise.
func NewEncrypter(password string) (Encrypter, error) {
	if password == "" {
		return NoEncryption{}, nil
	}
	return NewPasswordEncrypter(password, "")
}

// Wrap stamps the request with the password and a timestamp and encrypts it.
func (p *PasswordEncrypter) Wrap(req Request) (any, error) {
	req.Password = p.password
	req.Timestamp = p.now().UnixNano()
	plain, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	private := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(p.rand, private); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	gcm, err := sharedCipher(private, p.serverKey)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(p.rand, iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}
	sealed := gcm.Seal(nil, iv, plain, nil)
	split := len(sealed) - gcm.Overhead()

	return EncryptedRequest{
		Version:   req.Version,
		IV:        EncodeBase85(iv),
		Tag:       EncodeBase85(sealed[split:]),
		Pubkey:    EncodeBase85(public),
		Encrypted: EncodeBase85(sealed[:split]),
	}, nil
}

// sharedCipher derives the AES-256-GCM cipher from an X25519 exchange. The
// AES key is the SHA-256 digest of the shared secret.
func sharedCipher(private, peer []byte) (cipher.AEAD, error) {
	shared, err := curve25519.X25519(private, peer)
	if err != nil {
		return nil, fmt.Errorf("key exchange: %w", err)
	}
	key := sha256.Sum256(shared)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

// base85 alphabet shared by kitty and Python's base64.b85encode (RFC 1924).
const b85Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!#$%&()*+-;<=>?@^_`{|}~"

var b85Decode = func() [256]int16 {
	var t [256]int16
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(b85Alphabet); i++ {
		t[b85Alphabet[i]] = int16(i)
	}
	return t
}()

// EncodeBase85 encodes data without padding: a trailing chunk of n bytes
// produces n+1 characters.
func EncodeBase85(data []byte) string {
	var b strings.Builder
	b.Grow((len(data) + 3) / 4 * 5)
	for i := 0; i < len(data); i += 4 {
		var chunk [4]byte
		n := copy(chunk[:], data[i:])
		v := uint32(chunk[0])<<24 | uint32(chunk[1])<<16 | uint32(chunk[2])<<8 | uint32(chunk[3])
		var out [5]byte
		for j := 4; j >= 0; j-- {
			out[j] = b85Alphabet[v%85]
			v /= 85
		}
		b.Write(out[:n+1])
	}
	return b.String()
}

// DecodeBase85 reverses EncodeBase85.
func DecodeBase85(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/5*4+4)
	for i := 0; i < len(s); i += 5 {
		end := i + 5
		if end > len(s) {
			end = len(s)
		}
		group := s[i:end]
		if len(group) == 1 {
			return nil, fmt.Errorf("base85: dangling character at offset %d", i)
		}
		var v uint64
		for j := 0; j < 5; j++ {
			d := int16(84) // pad with the last alphabet character
			if j < len(group) {
				d = b85Decode[group[j]]
				if d < 0 {
					return nil, fmt.Errorf("base85: invalid character %q at offset %d", group[j], i+j)
				}
			}
			v = v*85 + uint64(d)
		}
		if v > 0xffffffff {
			return nil, fmt.Errorf("base85: overflow in group at offset %d", i)
		}
		chunk := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out = append(out, chunk[:len(group)-1]...)
	}
	return out, nil
}
