package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrBadSignature is returned for tampered or expired access handles.
var ErrBadSignature = errors.New("invalid or expired signature")

// URLSigner issues time-bounded access handles for blobs. Handles are
// revocable by rotating the secret and are re-resolved at every read, never
// stored. The default lifetime is long (on the order of a year) but always
// bounded.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewURLSigner builds a signer.
func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	return &URLSigner{secret: []byte(secret), ttl: ttl}
}

// SignedPath returns a relative URL for the blob key, valid until now+ttl.
func (s *URLSigner) SignedPath(key string) string {
	exp := time.Now().Add(s.ttl).Unix()
	return fmt.Sprintf("/files/%s?exp=%d&sig=%s", key, exp, s.sign(key, exp))
}

// Verify checks the signature and expiry for a key.
func (s *URLSigner) Verify(key, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if time.Now().Unix() > exp {
		return ErrBadSignature
	}
	expected := s.sign(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

func (s *URLSigner) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
