package logstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expenditure/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Column names of the flat log, in write order.
const (
	ColID            = "ID"
	ColDateTime      = "DateTime"
	ColShop          = "Shop"
	ColItem          = "Item"
	ColQty           = "Qty"
	ColNormalPrice   = "NormalPrice"
	ColPurchasePrice = "PurchasePrice"
	ColDiscountAmt   = "DiscountAmt"
	ColDiscountPct   = "DiscountPct"
	ColTotalNormal   = "TotalNormal"
	ColTotalPurchase = "TotalPurchase"
	ColTotalDiscount = "TotalDiscount"
)

// Columns is the header row written by every flat medium.
var Columns = []string{
	ColID, ColDateTime, ColShop, ColItem, ColQty,
	ColNormalPrice, ColPurchasePrice, ColDiscountAmt, ColDiscountPct,
	ColTotalNormal, ColTotalPurchase, ColTotalDiscount,
}

// Columns a row cannot be decoded without. ID and the totals are optional
// so that files written before they existed still load.
var requiredColumns = []string{
	ColDateTime, ColShop, ColItem, ColQty,
	ColNormalPrice, ColPurchasePrice, ColDiscountAmt, ColDiscountPct,
}

// EncodeRow renders r in Columns order.
func EncodeRow(r core.Record) []string {
	return []string{
		r.ID,
		r.Timestamp.Format(core.TimestampLayout),
		r.Shop,
		r.Item,
		strconv.Itoa(r.Quantity),
		core.FormatAmount(r.Normal),
		core.FormatAmount(r.Purchase),
		core.FormatAmount(r.DiscountAmount),
		core.FormatAmount(r.DiscountPercent),
		core.FormatAmount(r.TotalNormal),
		core.FormatAmount(r.TotalPurchase),
		core.FormatAmount(r.TotalDiscount),
	}
}

// EncodeRows renders the header followed by one row per record.
func EncodeRows(records []core.Record) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, append([]string(nil), Columns...))
	for _, r := range records {
		out = append(out, EncodeRow(r))
	}
	return out
}

// legacyIDSpace is the namespace of IDs derived for rows written without one.
var legacyIDSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("expenditure.log.row"))

// DecodeRows parses a header row followed by data rows. Columns are found
// by name, so their order does not matter. Rows without an ID get one
// derived from the row number and contents, so the same file always yields
// the same IDs until a save writes them out. Blank totals are recomputed
// from the prices and the quantity.
func DecodeRows(rows [][]string) ([]core.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	out := make([]core.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, err := decodeRow(index, n+2, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRow(index map[string]int, line int, row []string) (core.Record, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec core.Record
	var err error

	rec.ID = cell(ColID)
	if rec.ID == "" {
		rec.ID = legacyID(line, cell(ColDateTime), cell(ColShop), cell(ColItem), cell(ColQty))
	}

	rec.Timestamp, err = parseTimestamp(cell(ColDateTime))
	if err != nil {
		return core.Record{}, err
	}
	rec.Shop = cell(ColShop)
	rec.Item = cell(ColItem)

	rec.Quantity, err = parseQuantity(cell(ColQty))
	if err != nil {
		return core.Record{}, err
	}

	amounts := []struct {
		col string
		dst *decimal.Decimal
	}{
		{ColNormalPrice, &rec.Normal},
		{ColPurchasePrice, &rec.Purchase},
		{ColDiscountAmt, &rec.DiscountAmount},
		{ColDiscountPct, &rec.DiscountPercent},
	}
	for _, a := range amounts {
		if *a.dst, err = parseStoredAmount(a.col, cell(a.col)); err != nil {
			return core.Record{}, err
		}
	}

	totals := []struct {
		col   string
		dst   *decimal.Decimal
		price decimal.Decimal
	}{
		{ColTotalNormal, &rec.TotalNormal, rec.Normal},
		{ColTotalPurchase, &rec.TotalPurchase, rec.Purchase},
		{ColTotalDiscount, &rec.TotalDiscount, rec.DiscountAmount},
	}
	qty := decimal.NewFromInt(int64(rec.Quantity))
	for _, t := range totals {
		raw := cell(t.col)
		if raw == "" {
			*t.dst = core.Round2(t.price.Mul(qty))
			continue
		}
		if *t.dst, err = parseStoredAmount(t.col, raw); err != nil {
			return core.Record{}, err
		}
	}

	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

func legacyID(line int, fields ...string) string {
	name := strconv.Itoa(line) + "|" + strings.Join(fields, "|")
	return uuid.NewSHA1(legacyIDSpace, []byte(name)).String()
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{core.TimestampLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", ColDateTime, s)
}

// parseQuantity accepts "2" as well as "2.0", which spreadsheet tools
// sometimes write back.
func parseQuantity(s string) (int, error) {
	if q, err := strconv.Atoi(s); err == nil {
		return q, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("invalid %s %q", ColQty, s)
	}
	return int(d.IntPart()), nil
}

// parseStoredAmount reads a persisted amount. Blank cells are zero.
func parseStoredAmount(col, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", col, s)
	}
	return d, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
