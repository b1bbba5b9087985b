package shareasale

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	AffiliateID:  1234,
	APIToken:     "tok",
	APISecretKey: "sekrit",
	APIVersion:   2.3,
}

var fixedNow = time.Date(2023, time.March, 7, 10, 0, 0, 0, time.UTC)

type capture struct {
	mu    sync.Mutex
	query url.Values
	head  http.Header
	calls int
}

func (c *capture) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = r.URL.Query()
	c.head = r.Header.Clone()
	c.calls++
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *capture) {
	t.Helper()
	got := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.record(r)
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(testCreds, WithBaseURL(baseURL), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func TestGetTrafficEndToEnd(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK,
		"Merchant ID,Organization,Website,Unique Hits,Commissions,Net Sales,Number of Voids,Number of Sales,Conversion,EPC\n"+
			"42,Acme,acme.com,1000,12.50,250.00,0,5,12.5%,0.0125\n"+
			"43,Beta,beta.io,10,0,0,0,0,0%,0\n")
	c := newTestClient(t, srv.URL)

	records, err := c.GetTraffic(context.Background(), TrafficInput{DateStart: date(2023, time.March, 1)})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(42), records[0].MerchantID)
	assert.Equal(t, "Acme", records[0].Organization)
	assert.Equal(t, 0.125, records[0].Conversion)
	assert.True(t, decimal.RequireFromString("12.5").Equal(records[0].Commissions))
	assert.Equal(t, int64(43), records[1].MerchantID)

	assert.Equal(t, "1234", got.query.Get("affiliateId"))
	assert.Equal(t, "tok", got.query.Get("token"))
	assert.Equal(t, "2.3", got.query.Get("version"))
	assert.Equal(t, "csv", got.query.Get("format"))
	assert.Equal(t, "traffic", got.query.Get("action"))
	assert.Equal(t, "03/01/2023", got.query.Get("dateStart"))
	_, hasEnd := got.query["dateEnd"]
	assert.False(t, hasEnd)

	stamp := "Tue, 07 Mar 2023 10:00:00 GMT"
	sum := sha256.Sum256([]byte("tok:" + stamp + ":traffic:sekrit"))
	assert.Equal(t, stamp, got.head.Get(HeaderDate))
	assert.Equal(t, hex.EncodeToString(sum[:]), got.head.Get(HeaderAuthentication))
}

func TestEachCallSignsFresh(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "Organization\n")
	tick := fixedNow
	c, err := NewClient(testCreds, WithBaseURL(srv.URL), WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	require.NoError(t, err)

	_, err = c.GetInvalidLinks(context.Background())
	require.NoError(t, err)
	first := got.head.Get(HeaderAuthentication)

	_, err = c.GetInvalidLinks(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, got.head.Get(HeaderAuthentication))
	assert.Equal(t, 2, got.calls)
}

func TestUntypedActionsReturnStrings(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "Trans ID,Commission,Merchant ID\n99,1.50,7\n")
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	end := date(2023, time.March, 31)
	cases := []struct {
		name   string
		action string
		call   func() ([]Record, error)
	}{
		{"activity", "activity", func() ([]Record, error) {
			return c.GetActivity(ctx, ActivityInput{DateStart: date(2023, time.March, 1), DateEnd: &end})
		}},
		{"summary", "activitySummary", func() ([]Record, error) {
			return c.GetActivitySummary(ctx, ActivitySummaryInput{FilterSpan: "month"})
		}},
		{"feeds", "merchantDataFeeds", func() ([]Record, error) { return c.GetMerchantDataFeeds(ctx) }},
		{"links", "invalidLinks", func() ([]Record, error) { return c.GetInvalidLinks(ctx) }},
		{"search", "merchantSearch", func() ([]Record, error) { return c.GetMerchantSearch(ctx) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := tc.call()
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tc.action, got.query.Get("action"))
			assert.Equal(t, "99", records[0].String("transId"))
			v, _ := records[0].Get("merchantId")
			assert.Equal(t, "7", v)
		})
	}

	_, err := c.GetMerchantSearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bus", got.query.Get("category"))
	assert.Equal(t, "hitcommission", got.query.Get("sortCol"))
	assert.Equal(t, "asc", got.query.Get("sortDir"))
}

func TestNon2xxIsUpstreamError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, "denied")
	c := newTestClient(t, srv.URL)

	_, err := c.GetInvalidLinks(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUpstream, apperrors.TypeOf(err))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "denied", statusErr.Body)
}

func TestErrorCodeBodyIsUpstreamError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "Error Code 4002 - Authentication failed\n")
	c := newTestClient(t, srv.URL)

	_, err := c.GetMerchantDataFeeds(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUpstream, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "4002")
}

func TestMalformedPayloadIsDecodeError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "Merchant ID,Unique Hits\n1,2\n3\n")
	c := newTestClient(t, srv.URL)

	records, err := c.GetTraffic(context.Background(), TrafficInput{DateStart: fixedNow})
	assert.Nil(t, records)
	assert.Equal(t, apperrors.ErrDecode, apperrors.TypeOf(err))
}

func TestCancelledContextPropagates(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetInvalidLinks(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUpstream, apperrors.TypeOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type stubTransport struct {
	body string
	err  error
}

func (s stubTransport) Get(context.Context, string, url.Values, http.Header) (string, error) {
	return s.body, s.err
}

func TestPlainTransportErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	c, err := NewClient(testCreds, WithTransport(stubTransport{err: boom}))
	require.NoError(t, err)

	_, err = c.GetInvalidLinks(context.Background())
	assert.Equal(t, apperrors.ErrUpstream, apperrors.TypeOf(err))
	assert.True(t, errors.Is(err, boom))
}

func TestNewClientValidatesCredentials(t *testing.T) {
	bad := []Credentials{
		{AffiliateID: 0, APIToken: "t", APISecretKey: "s", APIVersion: 2.3},
		{AffiliateID: 1, APIToken: "", APISecretKey: "s", APIVersion: 2.3},
		{AffiliateID: 1, APIToken: "t", APISecretKey: "", APIVersion: 2.3},
		{AffiliateID: 1, APIToken: "t", APISecretKey: "s", APIVersion: 0},
	}
	for _, creds := range bad {
		_, err := NewClient(creds)
		assert.Equal(t, apperrors.ErrConfig, apperrors.TypeOf(err), "%+v", creds)
	}
}

func TestVersionFormatting(t *testing.T) {
	creds := testCreds
	creds.APIVersion = 3
	c, err := NewClient(creds)
	require.NoError(t, err)
	assert.Equal(t, "3", c.baseQuery().Get("version"))
}

func TestConcurrentCalls(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "Merchant ID\n1\n")
	c := newTestClient(t, srv.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetTraffic(context.Background(), TrafficInput{DateStart: fixedNow})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
