package shareasale

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TrafficSortCol is a column the traffic report can be sorted by.
type TrafficSortCol string

const (
	TrafficSortTransDate  TrafficSortCol = "transdate"
	TrafficSortTransID    TrafficSortCol = "transId"
	TrafficSortCommission TrafficSortCol = "commission"
	TrafficSortMerchantID TrafficSortCol = "merchantId"
	TrafficSortStatus     TrafficSortCol = "status"
	TrafficSortComment    TrafficSortCol = "comment"
)

func trafficSortColValues() []string {
	return []string{
		string(TrafficSortTransDate),
		string(TrafficSortTransID),
		string(TrafficSortCommission),
		string(TrafficSortMerchantID),
		string(TrafficSortStatus),
		string(TrafficSortComment),
	}
}

// ParseTrafficSortCol accepts a sort column by its wire name.
func ParseTrafficSortCol(s string) (TrafficSortCol, bool) {
	for _, v := range trafficSortColValues() {
		if v == s {
			return TrafficSortCol(v), true
		}
	}
	return "", false
}

// TrafficInput filters the traffic report. Nil pointers and empty enums are
// left out of the request.
type TrafficInput struct {
	DateStart  time.Time
	DateEnd    *time.Time
	MerchantID *int64
	LockDate   *time.Time
	PaidDate   *time.Time
	SortCol    TrafficSortCol
	SortDir    SortDir
}

func (in TrafficInput) Query() ActionQuery {
	f := fields{"dateStart": FormatDate(in.DateStart)}
	f.date("dateEnd", in.DateEnd)
	f.integer("merchantId", in.MerchantID)
	f.date("lockDate", in.LockDate)
	f.date("paidDate", in.PaidDate)
	f.str("sortCol", string(in.SortCol))
	f.str("sortDir", string(in.SortDir))
	return newActionQuery(ActionTraffic, f)
}

// TrafficRecord is one merchant row of the traffic report. Columns the schema
// does not know about are kept verbatim in Extra.
type TrafficRecord struct {
	MerchantID    int64             `json:"merchantId"`
	Organization  string            `json:"organization"`
	Website       string            `json:"website"`
	UniqueHits    int64             `json:"uniqueHits"`
	Commissions   decimal.Decimal   `json:"commissions"`
	NetSales      decimal.Decimal   `json:"netSales"`
	NumberOfVoids int64             `json:"numberOfVoids"`
	NumberOfSales int64             `json:"numberOfSales"`
	Conversion    float64           `json:"conversion"`
	EPC           decimal.Decimal   `json:"epc"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// trafficFromRecord expects a record already cast with the traffic schema.
func trafficFromRecord(r Record) (TrafficRecord, error) {
	var out TrafficRecord
	for _, f := range r {
		var ok bool
		switch f.Name {
		case "merchantId":
			out.MerchantID, ok = f.Value.(int64)
		case "organization":
			out.Organization, ok = f.Value.(string)
		case "website":
			out.Website, ok = f.Value.(string)
		case "uniqueHits":
			out.UniqueHits, ok = f.Value.(int64)
		case "commissions":
			out.Commissions, ok = f.Value.(decimal.Decimal)
		case "netSales":
			out.NetSales, ok = f.Value.(decimal.Decimal)
		case "numberOfVoids":
			out.NumberOfVoids, ok = f.Value.(int64)
		case "numberOfSales":
			out.NumberOfSales, ok = f.Value.(int64)
		case "conversion":
			out.Conversion, ok = f.Value.(float64)
		case "epc":
			out.EPC, ok = f.Value.(decimal.Decimal)
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]string)
			}
			out.Extra[f.Name] = fmt.Sprint(f.Value)
			ok = true
		}
		if !ok {
			return TrafficRecord{}, fmt.Errorf("column %s: unexpected value type %T", f.Name, f.Value)
		}
	}
	return out, nil
}
