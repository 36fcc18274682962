package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var errMalformed = errors.New("malformed session value")

type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// keyPair is derived from one configured secret.
type keyPair struct {
	signing []byte
	aead    cipher.AEAD
}

func deriveKeys(secret string) (keyPair, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("writing-assistant session v1"))

	signing := make([]byte, 32)
	if _, err := io.ReadFull(r, signing); err != nil {
		return keyPair{}, err
	}
	encKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, encKey); err != nil {
		return keyPair{}, err
	}

	aead, err := chacha20poly1305.NewX(encKey)
	if err != nil {
		return keyPair{}, err
	}

	return keyPair{signing: signing, aead: aead}, nil
}

// codec signs the user id as a JWT and seals the token so the cookie is
// opaque to the browser.
type codec struct {
	keys []keyPair
	now  func() time.Time
}

func newCodec(secrets []string) (*codec, error) {
	if len(secrets) == 0 {
		return nil, errors.New("at least one session secret is required")
	}

	c := &codec{now: time.Now}
	for _, secret := range secrets {
		kp, err := deriveKeys(secret)
		if err != nil {
			return nil, fmt.Errorf("derive session keys: %w", err)
		}
		c.keys = append(c.keys, kp)
	}
	return c, nil
}

func (c *codec) encode(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	kp := c.keys[0]
	signed, err := token.SignedString(kp.signing)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, kp.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := kp.aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *codec) decode(value string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return uuid.Nil, errMalformed
	}

	for _, kp := range c.keys {
		id, err := c.open(kp, raw)
		if err == nil {
			return id, nil
		}
	}
	return uuid.Nil, errMalformed
}

func (c *codec) open(kp keyPair, raw []byte) (uuid.UUID, error) {
	ns := kp.aead.NonceSize()
	if len(raw) < ns {
		return uuid.Nil, errMalformed
	}

	plain, err := kp.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return uuid.Nil, err
	}

	var cl claims
	_, err = jwt.ParseWithClaims(string(plain), &cl, func(*jwt.Token) (interface{}, error) {
		return kp.signing, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(cl.UserID)
}
