package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
)

// Signature implements HMAC-SHA256 request signing: it sends the API key in a
// header, adds timestamp and recvWindow query parameters, and signs the
// sorted, encoded query string into the signature parameter.
type Signature struct {
	APIKey     string
	Secret     string
	KeyHeader  string
	RecvWindow int64

	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultKeyHeader is the API key header used when KeyHeader is empty.
const DefaultKeyHeader = "X-MBX-APIKEY"

func (Signature) Kind() Kind { return KindSignature }
func (Signature) sealed()    {}

func (s Signature) keyHeader() string {
	if s.KeyHeader == "" {
		return DefaultKeyHeader
	}
	return s.KeyHeader
}

func (s Signature) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	h.Set(s.keyHeader(), s.APIKey)

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	q.Set("timestamp", strconv.FormatInt(now().UnixMilli(), 10))
	if s.RecvWindow > 0 {
		q.Set("recvWindow", strconv.FormatInt(s.RecvWindow, 10))
	}
	q.Del(request.SignatureParam)

	q.Set(request.SignatureParam, Sign(s.Secret, request.EncodeQuery(q)))
	return h, q
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
