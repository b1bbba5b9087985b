package service

import (
	"context"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/metrics"
	"github.com/GoPolymarket/sasgate/internal/shareasale"
)

// Reporter is the subset of *shareasale.Client the gateway calls.
type Reporter interface {
	GetTraffic(ctx context.Context, in shareasale.TrafficInput) ([]shareasale.TrafficRecord, error)
	GetActivity(ctx context.Context, in shareasale.ActivityInput) ([]shareasale.Record, error)
	GetActivitySummary(ctx context.Context, in shareasale.ActivitySummaryInput) ([]shareasale.Record, error)
	GetMerchantDataFeeds(ctx context.Context) ([]shareasale.Record, error)
	GetInvalidLinks(ctx context.Context) ([]shareasale.Record, error)
	GetMerchantSearch(ctx context.Context) ([]shareasale.Record, error)
}

// Report is the gateway response envelope.
type Report struct {
	Action shareasale.Action `json:"action"`
	Count  int               `json:"count"`
	Rows   any               `json:"rows"`
}

type ReportService struct {
	client Reporter
	quota  *QuotaGuard
}

func NewReportService(client Reporter, quota *QuotaGuard) *ReportService {
	return &ReportService{client: client, quota: quota}
}

func (s *ReportService) Traffic(ctx context.Context, in shareasale.TrafficInput) (*Report, error) {
	return s.run(ctx, shareasale.ActionTraffic, func(ctx context.Context) (any, int, error) {
		rows, err := s.client.GetTraffic(ctx, in)
		return rows, len(rows), err
	})
}

func (s *ReportService) Activity(ctx context.Context, in shareasale.ActivityInput) (*Report, error) {
	return s.records(ctx, shareasale.ActionActivity, func(ctx context.Context) ([]shareasale.Record, error) {
		return s.client.GetActivity(ctx, in)
	})
}

func (s *ReportService) ActivitySummary(ctx context.Context, in shareasale.ActivitySummaryInput) (*Report, error) {
	return s.records(ctx, shareasale.ActionActivitySummary, func(ctx context.Context) ([]shareasale.Record, error) {
		return s.client.GetActivitySummary(ctx, in)
	})
}

func (s *ReportService) MerchantDataFeeds(ctx context.Context) (*Report, error) {
	return s.records(ctx, shareasale.ActionMerchantDataFeeds, s.client.GetMerchantDataFeeds)
}

func (s *ReportService) InvalidLinks(ctx context.Context) (*Report, error) {
	return s.records(ctx, shareasale.ActionInvalidLinks, s.client.GetInvalidLinks)
}

func (s *ReportService) MerchantSearch(ctx context.Context) (*Report, error) {
	return s.records(ctx, shareasale.ActionMerchantSearch, s.client.GetMerchantSearch)
}

func (s *ReportService) records(ctx context.Context, action shareasale.Action, call func(context.Context) ([]shareasale.Record, error)) (*Report, error) {
	return s.run(ctx, action, func(ctx context.Context) (any, int, error) {
		rows, err := call(ctx)
		return rows, len(rows), err
	})
}

func (s *ReportService) run(ctx context.Context, action shareasale.Action, call func(context.Context) (any, int, error)) (*Report, error) {
	if err := s.quota.Reserve(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, count, err := call(ctx)
	metrics.UpstreamLatency.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(string(action), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.DecodedRows.WithLabelValues(string(action)).Add(float64(count))
	return &Report{Action: action, Count: count, Rows: rows}, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if t := apperrors.TypeOf(err); t != "" {
		return strings.ToLower(string(t))
	}
	return "error"
}
