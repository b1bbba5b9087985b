package shareasale

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
)

const (
	DefaultBaseURL = "https://shareasale.com/x.cfm"
	responseFormat = "csv"
)

// Credentials identify the affiliate account. They are fixed for the lifetime
// of a Client.
type Credentials struct {
	AffiliateID  int64
	APIToken     string
	APISecretKey string
	APIVersion   float64
}

func (c Credentials) Validate() error {
	switch {
	case c.AffiliateID <= 0:
		return apperrors.NewConfig("affiliate id must be positive")
	case strings.TrimSpace(c.APIToken) == "":
		return apperrors.NewConfig("api token is required")
	case strings.TrimSpace(c.APISecretKey) == "":
		return apperrors.NewConfig("api secret key is required")
	case c.APIVersion <= 0 || math.IsNaN(c.APIVersion) || math.IsInf(c.APIVersion, 0):
		return apperrors.NewConfig("api version must be positive")
	}
	return nil
}

// Client calls the reporting API. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	creds     Credentials
	baseURL   string
	transport Transport
	signer    *Signer
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(hc)
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithClock sets the source of signing timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	signer, err := NewSigner(creds.APIToken, creds.APISecretKey)
	if err != nil {
		return nil, err
	}
	c := &Client{
		creds:   creds,
		baseURL: DefaultBaseURL,
		signer:  signer,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	return c, nil
}

func (c *Client) baseQuery() url.Values {
	v := url.Values{}
	v.Set("affiliateId", strconv.FormatInt(c.creds.AffiliateID, 10))
	v.Set("token", c.creds.APIToken)
	v.Set("version", strconv.FormatFloat(c.creds.APIVersion, 'f', -1, 64))
	v.Set("format", responseFormat)
	return v
}

// Fetch runs one report request and decodes it with the action's schema.
func (c *Client) Fetch(ctx context.Context, q ActionQuery) ([]Record, error) {
	action := q.Action()
	schema, ok := Lookup(action)
	if !ok {
		return nil, apperrors.NewInvalidRequest("unknown action: " + string(action))
	}

	params := c.baseQuery()
	q.mergeInto(params)
	auth := c.signer.Sign(action, Timestamp(c.now()))

	start := time.Now()
	body, err := c.transport.Get(ctx, c.baseURL, params, auth.Header())
	if err != nil {
		c.log.DebugContext(ctx, "report request failed", "action", action, "error", err.Error())
		return nil, asUpstream(err)
	}
	if msg, failed := upstreamFailure(body); failed {
		c.log.DebugContext(ctx, "report request rejected", "action", action, "error", msg)
		return nil, apperrors.New(apperrors.ErrUpstream, msg, nil)
	}

	records, err := DecodeString(body, schema)
	if err != nil {
		c.log.DebugContext(ctx, "report decode failed", "action", action, "error", err.Error())
		return nil, err
	}
	c.log.DebugContext(ctx, "report fetched",
		"action", action,
		"rows", len(records),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

func (c *Client) GetTraffic(ctx context.Context, in TrafficInput) ([]TrafficRecord, error) {
	records, err := c.Fetch(ctx, in.Query())
	if err != nil {
		return nil, err
	}
	out := make([]TrafficRecord, 0, len(records))
	for _, r := range records {
		tr, err := trafficFromRecord(r)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrDecode, "invalid traffic row", err)
		}
		out = append(out, tr)
	}
	return out, nil
}

func (c *Client) GetActivity(ctx context.Context, in ActivityInput) ([]Record, error) {
	return c.Fetch(ctx, in.Query())
}

func (c *Client) GetActivitySummary(ctx context.Context, in ActivitySummaryInput) ([]Record, error) {
	return c.Fetch(ctx, in.Query())
}

func (c *Client) GetMerchantDataFeeds(ctx context.Context) ([]Record, error) {
	return c.Fetch(ctx, merchantDataFeedsQuery())
}

func (c *Client) GetInvalidLinks(ctx context.Context) ([]Record, error) {
	return c.Fetch(ctx, invalidLinksQuery())
}

// GetMerchantSearch searches the "bus" category sorted by hit commission, ascending.
func (c *Client) GetMerchantSearch(ctx context.Context) ([]Record, error) {
	return c.Fetch(ctx, merchantSearchQuery())
}

func asUpstream(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.New(apperrors.ErrUpstream, "upstream request failed", scrubURLError(err))
}

// upstreamFailure detects the plain-text error the API sends with a 200 status,
// e.g. "Error Code 4002 - Authentication failed".
func upstreamFailure(body string) (string, bool) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(body, utf8BOM))
	if !strings.HasPrefix(strings.ToLower(trimmed), "error code") {
		return "", false
	}
	if i := strings.IndexAny(trimmed, "\r\n"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed, true
}
