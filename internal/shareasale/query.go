package shareasale

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SortDir is the sort direction accepted by sortable reports.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func ParseSortDir(s string) (SortDir, bool) {
	switch d := SortDir(s); d {
	case SortAsc, SortDesc:
		return d, true
	}
	return "", false
}

const actionKey = "action"

// ActionQuery is the parameter set of one report request. It always carries the
// action key and cannot be changed once built.
type ActionQuery struct {
	params map[string]string
}

// Query is implemented by every typed report input.
type Query interface {
	Query() ActionQuery
}

func newActionQuery(action Action, set map[string]string) ActionQuery {
	params := make(map[string]string, len(set)+1)
	for k, v := range set {
		params[k] = v
	}
	params[actionKey] = string(action)
	return ActionQuery{params: params}
}

func (q ActionQuery) Action() Action {
	return Action(q.params[actionKey])
}

func (q ActionQuery) Get(key string) (string, bool) {
	v, ok := q.params[key]
	return v, ok
}

func (q ActionQuery) Len() int {
	return len(q.params)
}

// Map returns a copy of the parameters.
func (q ActionQuery) Map() map[string]string {
	out := make(map[string]string, len(q.params))
	for k, v := range q.params {
		out[k] = v
	}
	return out
}

func (q ActionQuery) mergeInto(values url.Values) {
	for k, v := range q.params {
		values.Set(k, v)
	}
}

// FormatDate renders the calendar date of t as MM/DD/YYYY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", int(t.Month()), t.Day(), t.Year())
}

// fields accumulates optional parameters, skipping absent ones.
type fields map[string]string

func (f fields) date(name string, t *time.Time) {
	if t != nil {
		f[name] = FormatDate(*t)
	}
}

func (f fields) integer(name string, v *int64) {
	if v != nil {
		f[name] = strconv.FormatInt(*v, 10)
	}
}

func (f fields) str(name, v string) {
	if v != "" {
		f[name] = v
	}
}

// ActivityInput selects the activity report window.
type ActivityInput struct {
	DateStart time.Time
	DateEnd   *time.Time
}

func (in ActivityInput) Query() ActionQuery {
	f := fields{"dateStart": FormatDate(in.DateStart)}
	f.date("dateEnd", in.DateEnd)
	return newActionQuery(ActionActivity, f)
}

// ActivitySummaryInput selects the summary span; an empty FilterSpan lets the
// API apply its default.
type ActivitySummaryInput struct {
	FilterSpan string
}

func (in ActivitySummaryInput) Query() ActionQuery {
	f := fields{}
	f.str("filterSpan", in.FilterSpan)
	return newActionQuery(ActionActivitySummary, f)
}

func merchantDataFeedsQuery() ActionQuery {
	return newActionQuery(ActionMerchantDataFeeds, nil)
}

func invalidLinksQuery() ActionQuery {
	return newActionQuery(ActionInvalidLinks, nil)
}

func merchantSearchQuery() ActionQuery {
	return newActionQuery(ActionMerchantSearch, fields{
		"category": "bus",
		"sortCol":  "hitcommission",
		"sortDir":  string(SortAsc),
	})
}
