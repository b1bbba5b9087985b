package shareasale

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
)

const (
	HeaderDate           = "x-ShareASale-Date"
	HeaderAuthentication = "x-ShareASale-Authentication"
)

// AuthHeaders authenticates exactly one request; the server checks Date
// against its own clock so the pair must not be reused.
type AuthHeaders struct {
	Date      string
	Signature string
}

func (h AuthHeaders) Header() http.Header {
	header := make(http.Header, 2)
	header.Set(HeaderDate, h.Date)
	header.Set(HeaderAuthentication, h.Signature)
	return header
}

type Signer struct {
	token  string
	secret string
}

func NewSigner(token, secret string) (*Signer, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewConfig("api token is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, apperrors.NewConfig("api secret key is required")
	}
	return &Signer{token: token, secret: secret}, nil
}

// Sign computes hex(sha256("token:timestamp:action:secret")).
func (s *Signer) Sign(action Action, timestamp string) AuthHeaders {
	var b strings.Builder
	b.Grow(len(s.token) + len(timestamp) + len(action) + len(s.secret) + 3)
	b.WriteString(s.token)
	b.WriteByte(':')
	b.WriteString(timestamp)
	b.WriteByte(':')
	b.WriteString(string(action))
	b.WriteByte(':')
	b.WriteString(s.secret)

	sum := sha256.Sum256([]byte(b.String()))
	return AuthHeaders{
		Date:      timestamp,
		Signature: hex.EncodeToString(sum[:]),
	}
}

// Timestamp formats t as an HTTP-date in GMT, e.g. "Tue, 07 Mar 2023 10:00:00 GMT".
func Timestamp(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
