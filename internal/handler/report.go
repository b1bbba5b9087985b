package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/middleware"
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/GoPolymarket/sasgate/internal/shareasale"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Actions lists the catalog: every action with its inputs and typed outputs.
func (h *ReportHandler) Actions(c *gin.Context) {
	actions := shareasale.Actions()
	schemas := make([]*shareasale.Schema, 0, len(actions))
	for _, a := range actions {
		if s, ok := shareasale.Lookup(a); ok {
			schemas = append(schemas, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{"actions": schemas})
}

func (h *ReportHandler) Traffic(c *gin.Context) {
	q := queryReader{c: c}
	in := shareasale.TrafficInput{
		DateStart:  q.requiredDate("date_start"),
		DateEnd:    q.date("date_end"),
		MerchantID: q.positiveInt("merchant_id"),
		LockDate:   q.date("lock_date"),
		PaidDate:   q.date("paid_date"),
	}
	if raw := c.Query("sort_col"); raw != "" {
		col, ok := shareasale.ParseTrafficSortCol(raw)
		if !ok {
			q.fail("sort_col", raw)
		}
		in.SortCol = col
	}
	in.SortDir = q.sortDir("sort_dir")
	if q.err != nil {
		_ = c.Error(q.err)
		return
	}
	h.respond(c, shareasale.ActionTraffic, func() (*service.Report, error) {
		return h.svc.Traffic(c.Request.Context(), in)
	})
}

func (h *ReportHandler) Activity(c *gin.Context) {
	q := queryReader{c: c}
	in := shareasale.ActivityInput{
		DateStart: q.requiredDate("date_start"),
		DateEnd:   q.date("date_end"),
	}
	if q.err != nil {
		_ = c.Error(q.err)
		return
	}
	h.respond(c, shareasale.ActionActivity, func() (*service.Report, error) {
		return h.svc.Activity(c.Request.Context(), in)
	})
}

func (h *ReportHandler) ActivitySummary(c *gin.Context) {
	in := shareasale.ActivitySummaryInput{FilterSpan: strings.TrimSpace(c.Query("filter_span"))}
	h.respond(c, shareasale.ActionActivitySummary, func() (*service.Report, error) {
		return h.svc.ActivitySummary(c.Request.Context(), in)
	})
}

func (h *ReportHandler) MerchantDataFeeds(c *gin.Context) {
	h.respond(c, shareasale.ActionMerchantDataFeeds, func() (*service.Report, error) {
		return h.svc.MerchantDataFeeds(c.Request.Context())
	})
}

func (h *ReportHandler) InvalidLinks(c *gin.Context) {
	h.respond(c, shareasale.ActionInvalidLinks, func() (*service.Report, error) {
		return h.svc.InvalidLinks(c.Request.Context())
	})
}

func (h *ReportHandler) MerchantSearch(c *gin.Context) {
	h.respond(c, shareasale.ActionMerchantSearch, func() (*service.Report, error) {
		return h.svc.MerchantSearch(c.Request.Context())
	})
}

func (h *ReportHandler) respond(c *gin.Context, action shareasale.Action, run func() (*service.Report, error)) {
	middleware.AddAuditContext(c, "action", string(action))
	report, err := run()
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		_ = c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "rows", report.Count)
	c.JSON(http.StatusOK, report)
}

// queryReader collects the first invalid parameter so handlers can check once.
type queryReader struct {
	c   *gin.Context
	err error
}

func (q *queryReader) fail(name, raw string) {
	if q.err == nil {
		q.err = apperrors.NewInvalidRequest(fmt.Sprintf("invalid %s: %q", name, raw))
	}
}

func (q *queryReader) requiredDate(name string) time.Time {
	raw := q.c.Query(name)
	if raw == "" {
		if q.err == nil {
			q.err = apperrors.NewInvalidRequest(name + " is required (YYYY-MM-DD)")
		}
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		q.fail(name, raw)
	}
	return t
}

func (q *queryReader) date(name string) *time.Time {
	raw := q.c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		q.fail(name, raw)
		return nil
	}
	return &t
}

func (q *queryReader) positiveInt(name string) *int64 {
	raw := q.c.Query(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		q.fail(name, raw)
		return nil
	}
	return &n
}

func (q *queryReader) sortDir(name string) shareasale.SortDir {
	raw := q.c.Query(name)
	if raw == "" {
		return ""
	}
	d, ok := shareasale.ParseSortDir(strings.ToLower(raw))
	if !ok {
		q.fail(name, raw)
	}
	return d
}
