package service

import (
	"context"
	"testing"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/shareasale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	calls   []string
	traffic shareasale.TrafficInput
	err     error
	rows    []shareasale.Record
}

func (f *fakeReporter) GetTraffic(_ context.Context, in shareasale.TrafficInput) ([]shareasale.TrafficRecord, error) {
	f.calls = append(f.calls, "traffic")
	f.traffic = in
	if f.err != nil {
		return nil, f.err
	}
	return []shareasale.TrafficRecord{{MerchantID: 1}, {MerchantID: 2}}, nil
}

func (f *fakeReporter) GetActivity(context.Context, shareasale.ActivityInput) ([]shareasale.Record, error) {
	return f.result("activity")
}

func (f *fakeReporter) GetActivitySummary(context.Context, shareasale.ActivitySummaryInput) ([]shareasale.Record, error) {
	return f.result("activitySummary")
}

func (f *fakeReporter) GetMerchantDataFeeds(context.Context) ([]shareasale.Record, error) {
	return f.result("merchantDataFeeds")
}

func (f *fakeReporter) GetInvalidLinks(context.Context) ([]shareasale.Record, error) {
	return f.result("invalidLinks")
}

func (f *fakeReporter) GetMerchantSearch(context.Context) ([]shareasale.Record, error) {
	return f.result("merchantSearch")
}

func (f *fakeReporter) result(name string) ([]shareasale.Record, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestReportServiceTraffic(t *testing.T) {
	fake := &fakeReporter{}
	svc := NewReportService(fake, NewQuotaGuard(nil, 0))

	in := shareasale.TrafficInput{DateStart: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)}
	report, err := svc.Traffic(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, shareasale.ActionTraffic, report.Action)
	assert.Equal(t, 2, report.Count)
	assert.Len(t, report.Rows, 2)
	assert.Equal(t, in, fake.traffic)
}

func TestReportServiceRecordActions(t *testing.T) {
	fake := &fakeReporter{rows: []shareasale.Record{{{Name: "transId", Value: "9"}}}}
	svc := NewReportService(fake, nil)
	ctx := context.Background()

	calls := map[shareasale.Action]func() (*Report, error){
		shareasale.ActionActivity:          func() (*Report, error) { return svc.Activity(ctx, shareasale.ActivityInput{}) },
		shareasale.ActionActivitySummary:   func() (*Report, error) { return svc.ActivitySummary(ctx, shareasale.ActivitySummaryInput{}) },
		shareasale.ActionMerchantDataFeeds: func() (*Report, error) { return svc.MerchantDataFeeds(ctx) },
		shareasale.ActionInvalidLinks:      func() (*Report, error) { return svc.InvalidLinks(ctx) },
		shareasale.ActionMerchantSearch:    func() (*Report, error) { return svc.MerchantSearch(ctx) },
	}
	for action, call := range calls {
		report, err := call()
		require.NoError(t, err, action)
		assert.Equal(t, action, report.Action)
		assert.Equal(t, 1, report.Count)
	}
	assert.Len(t, fake.calls, 5)
}

func TestReportServiceQuotaBlocksUpstream(t *testing.T) {
	fake := &fakeReporter{}
	svc := NewReportService(fake, NewQuotaGuard(nil, 1))

	_, err := svc.InvalidLinks(context.Background())
	require.NoError(t, err)
	_, err = svc.InvalidLinks(context.Background())
	assert.Equal(t, apperrors.ErrQuotaExceeded, apperrors.TypeOf(err))
	assert.Len(t, fake.calls, 1)
}

func TestReportServicePropagatesErrors(t *testing.T) {
	fake := &fakeReporter{err: apperrors.New(apperrors.ErrDecode, "bad payload", nil)}
	svc := NewReportService(fake, nil)

	report, err := svc.MerchantSearch(context.Background())
	assert.Nil(t, report)
	assert.Equal(t, apperrors.ErrDecode, apperrors.TypeOf(err))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "upstream_error", outcome(apperrors.New(apperrors.ErrUpstream, "x", nil)))
	assert.Equal(t, "error", outcome(context.Canceled))
}
