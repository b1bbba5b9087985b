package shareasale

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
)

// Transport performs one GET and returns the response body.
type Transport interface {
	Get(ctx context.Context, endpoint string, params url.Values, header http.Header) (string, error)
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

const (
	maxErrorBody = 512
	// far above the largest real report; guards the process against a runaway body
	maxReportBody = 64 << 20
)

// ErrBodyTooLarge is the cause when a report exceeds the transport's body cap.
var ErrBodyTooLarge = errors.New("upstream response too large")

type HTTPTransport struct {
	client  *http.Client
	maxBody int64
}

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 30 * time.Second,
		}
	}
	return &HTTPTransport{client: client, maxBody: maxReportBody}
}

func (t *HTTPTransport) Get(ctx context.Context, endpoint string, params url.Values, header http.Header) (string, error) {
	target := endpoint
	if encoded := params.Encode(); encoded != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", apperrors.New(apperrors.ErrUpstream, "failed to build upstream request", scrubURLError(err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", apperrors.New(apperrors.ErrUpstream, "upstream request failed", scrubURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return "", apperrors.New(apperrors.ErrUpstream, "failed to read upstream response", scrubURLError(err))
	}
	if int64(len(body)) > t.maxBody {
		return "", apperrors.New(apperrors.ErrUpstream, "upstream response too large", ErrBodyTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", apperrors.New(apperrors.ErrUpstream, "upstream rejected request", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       snippet,
		})
	}
	return string(body), nil
}

// scrubURLError replaces the request URL inside a *url.Error with one whose
// token parameter is masked. net/http puts the full URL, query included, in
// the error text.
func scrubURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: redactURL(uerr.URL), Err: uerr.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// unparseable, keep nothing that could hold the query
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
