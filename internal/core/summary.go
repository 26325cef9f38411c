package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SummaryRow is the totals of one (date, shop) group.
type SummaryRow struct {
	Date          Date
	Shop          string
	TotalNormal   decimal.Decimal
	TotalPurchase decimal.Decimal
	TotalDiscount decimal.Decimal
}

type summaryKey struct {
	date string
	shop string
}

// Summarize groups records by calendar date and shop and sums their
// totals. Rows are ordered by date, then shop.
func Summarize(records []Record) []SummaryRow {
	groups := make(map[summaryKey]*SummaryRow)
	for _, r := range records {
		day := r.Date()
		k := summaryKey{date: day.String(), shop: r.Shop}
		row, ok := groups[k]
		if !ok {
			row = &SummaryRow{Date: day, Shop: r.Shop}
			groups[k] = row
		}
		row.TotalNormal = row.TotalNormal.Add(r.TotalNormal)
		row.TotalPurchase = row.TotalPurchase.Add(r.TotalPurchase)
		row.TotalDiscount = row.TotalDiscount.Add(r.TotalDiscount)
	}

	out := make([]SummaryRow, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date.String(), out[j].Date.String()
		if di != dj {
			return di < dj
		}
		return out[i].Shop < out[j].Shop
	})
	return out
}

// GrandTotal sums every row of a summary.
func GrandTotal(rows []SummaryRow) SummaryRow {
	var total SummaryRow
	for _, r := range rows {
		total.TotalNormal = total.TotalNormal.Add(r.TotalNormal)
		total.TotalPurchase = total.TotalPurchase.Add(r.TotalPurchase)
		total.TotalDiscount = total.TotalDiscount.Add(r.TotalDiscount)
	}
	return total
}
