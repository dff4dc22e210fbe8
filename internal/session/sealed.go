package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"camrent-web/internal/domain"
)

const sealedPrefix = "sealed:"

var errUnseal = errors.New("session token cannot be decrypted")

// SealedStore encrypts the access and refresh tokens before handing a
// session to the wrapped store. Other fields stay readable for operators.
type SealedStore struct {
	inner Store
	key   *[32]byte
}

func NewSealedStore(inner Store, key *[32]byte) *SealedStore {
	return &SealedStore{inner: inner, key: key}
}

func (s *SealedStore) Load(ctx context.Context, key string) (*domain.Session, error) {
	sess, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.AccessToken, err = s.open(sess.AccessToken); err != nil {
		return nil, err
	}
	if sess.RefreshToken, err = s.open(sess.RefreshToken); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SealedStore) Save(ctx context.Context, key string, sess *domain.Session) error {
	sealed := *sess
	var err error
	if sealed.AccessToken, err = s.seal(sess.AccessToken); err != nil {
		return err
	}
	if sealed.RefreshToken, err = s.seal(sess.RefreshToken); err != nil {
		return err
	}
	return s.inner.Save(ctx, key, &sealed)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *SealedStore) open(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !strings.HasPrefix(value, sealedPrefix) {
		return "", errUnseal
	}
	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(box) < 24+secretbox.Overhead {
		return "", errUnseal
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, s.key)
	if !ok {
		return "", errUnseal
	}
	return string(plain), nil
}
