package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
	"github.com/GoPolymarket/sasgate/internal/pkg/metrics"
)

type QuotaRepo interface {
	Reserve(ctx context.Context, period string, limit int64) (used int64, ok bool, err error)
	Usage(ctx context.Context, period string) (int64, error)
}

// QuotaGuard enforces the affiliate's monthly upstream call allowance. The
// allowance is shared by all tenants since they share one set of credentials.
type QuotaGuard struct {
	repo  QuotaRepo
	limit int64
	now   func() time.Time
}

func NewQuotaGuard(repo QuotaRepo, monthlyLimit int64) *QuotaGuard {
	if repo == nil {
		repo = NewMemoryQuotaStore()
	}
	return &QuotaGuard{repo: repo, limit: monthlyLimit, now: time.Now}
}

func (g *QuotaGuard) period() string {
	return g.now().UTC().Format("2006-01")
}

// Reserve counts one upstream call. Store failures let the call through.
func (g *QuotaGuard) Reserve(ctx context.Context) error {
	if g == nil {
		return nil
	}
	period := g.period()
	used, ok, err := g.repo.Reserve(ctx, period, g.limit)
	if err != nil {
		logger.Warn("quota store unavailable, allowing request", "period", period, "error", err)
		return nil
	}
	if !ok {
		metrics.QuotaRejects.WithLabelValues("monthly_limit").Inc()
		return apperrors.New(apperrors.ErrQuotaExceeded,
			fmt.Sprintf("monthly upstream quota of %d calls used (%d) for %s", g.limit, used, period), nil)
	}
	return nil
}

func (g *QuotaGuard) Usage(ctx context.Context) (model.QuotaUsage, error) {
	period := g.period()
	used, err := g.repo.Usage(ctx, period)
	if err != nil {
		return model.QuotaUsage{}, apperrors.New(apperrors.ErrInternal, "quota store unavailable", err)
	}
	usage := model.QuotaUsage{Period: period, Used: used, Limit: g.limit}
	if g.limit > 0 {
		usage.Remaining = max(g.limit-used, 0)
	}
	return usage, nil
}
