package casing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamel(t *testing.T) {
	cases := map[string]string{
		"MerchantID":      "merchantId",
		"Merchant ID":     "merchantId",
		"Organization":    "organization",
		"UniqueHits":      "uniqueHits",
		"Unique Hits":     "uniqueHits",
		"Number of Voids": "numberOfVoids",
		"Net Sales":       "netSales",
		"EPC":             "epc",
		"Commissions":     "commissions",
		"transID":         "transId",
		"XMLHttpRequest":  "xmlHttpRequest",
		"foo_bar":         "fooBar",
		"__foo-bar":       "fooBar",
		"foo-":            "foo",
		"Top10Items":      "top10Items",
		"  Website ":      "website",
		"A":               "a",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Camel(in), "input %q", in)
	}
}

func TestCamelIdempotent(t *testing.T) {
	for _, s := range []string{"merchantId", "uniqueHits", "numberOfSales", "epc"} {
		assert.Equal(t, s, Camel(s))
	}
}
