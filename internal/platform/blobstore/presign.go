package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPresignTTL is how long a presigned download URL stays valid.
const DefaultPresignTTL = time.Hour

var (
	ErrSignatureInvalid = errors.New("signature is invalid")
	ErrSignatureExpired = errors.New("signature has expired")
)

// Presigner issues and verifies time-limited download URLs for blobs.
// The signature covers the key, the expiry and the suggested file name.
type Presigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewPresigner returns a presigner whose URLs start with baseURL, for
// example "http://localhost:3000/files".
func NewPresigner(secret, baseURL string) *Presigner {
	return &Presigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// WithClock returns a copy of p that reads the time from now.
func (p *Presigner) WithClock(now func() time.Time) *Presigner {
	cp := *p
	cp.now = now
	return &cp
}

func (p *Presigner) sign(key string, expires int64, filename string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(filename))
	return hex.EncodeToString(mac.Sum(nil))
}

// Presign returns a URL granting read access to key until the returned time.
// A zero ttl uses DefaultPresignTTL.
func (p *Presigner) Presign(key, filename string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrMissingKey
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	expiresAt := p.now().Add(ttl).UTC().Truncate(time.Second)
	expires := expiresAt.Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	if filename != "" {
		q.Set("filename", filename)
	}
	q.Set("signature", p.sign(key, expires, filename))

	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p.baseURL + "/" + strings.Join(segments, "/") + "?" + q.Encode(), expiresAt, nil
}

// Verify checks a signature produced by Presign.
func (p *Presigner) Verify(key, expires, filename, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	want := p.sign(key, exp, filename)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrSignatureInvalid
	}
	if p.now().Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}
