package logstore

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"expenditure/internal/core"

	"github.com/shopspring/decimal"
)

func TestEncodeRowFormatsAmounts(t *testing.T) {
	r := record(t, base, "Lidl", "Milk", 3, "1.50", "1.20")
	got := EncodeRow(r)
	want := []string{r.ID, "2025-08-04 10:15:00", "Lidl", "Milk", "3", "1.5", "1.2", "0.3", "20", "4.5", "3.6", "0.9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeRow = %v, want %v", got, want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []core.Record{
		record(t, base, "Lidl", "Milk", 2, "1.5", "1.2"),
		record(t, base.AddDate(0, 0, 1), "Coop, Centro", "Bread \"rye\"", 1, "3", "3"),
	}
	out, err := DecodeRows(EncodeRows(in))
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Shop != in[i].Shop || out[i].Item != in[i].Item {
			t.Fatalf("record %d identity mismatch: %+v", i, out[i])
		}
		if out[i].Timestamp.Format(core.TimestampLayout) != in[i].Timestamp.Format(core.TimestampLayout) {
			t.Fatalf("record %d timestamp %v, want %v", i, out[i].Timestamp, in[i].Timestamp)
		}
		if !out[i].TotalPurchase.Equal(in[i].TotalPurchase) || !out[i].DiscountPercent.Equal(in[i].DiscountPercent) {
			t.Fatalf("record %d amounts mismatch: %+v", i, out[i])
		}
	}
}

func TestDecodeLegacyRowsWithoutID(t *testing.T) {
	rows := [][]string{
		{"DateTime", "Shop", "Item", "Qty", "NormalPrice", "PurchasePrice", "DiscountAmt", "DiscountPct", "TotalNormal", "TotalPurchase", "TotalDiscount"},
		{"2025-08-04 10:15:00", "Lidl", "Milk", "2.0", "1.5", "1.2", "0.3", "20", "3", "2.4", "0.6"},
		{"", "", "", "", "", "", "", "", "", "", ""},
		{"2025-08-05 09:00:00", "Coop", "Eggs", "1", "4", "4", "0", "0", "", "", ""},
	}
	out, err := DecodeRows(rows)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].ID == "" || out[0].ID == out[1].ID {
		t.Fatalf("expected distinct IDs, got %q %q", out[0].ID, out[1].ID)
	}

	again, err := DecodeRows(rows)
	if err != nil {
		t.Fatalf("DecodeRows again: %v", err)
	}
	if again[0].ID != out[0].ID || again[1].ID != out[1].ID {
		t.Fatalf("derived IDs changed between decodes: %q %q, then %q %q",
			out[0].ID, out[1].ID, again[0].ID, again[1].ID)
	}
	if out[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", out[0].Quantity)
	}
	if !out[1].TotalNormal.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("blank total not recomputed: %v", out[1].TotalNormal)
	}
}

func TestDecodeIdenticalLegacyRowsGetDistinctIDs(t *testing.T) {
	header := []string{"DateTime", "Shop", "Item", "Qty", "NormalPrice", "PurchasePrice", "DiscountAmt", "DiscountPct"}
	row := []string{"2025-08-04 10:15:00", "Lidl", "Milk", "1", "1", "1", "0", "0"}
	out, err := DecodeRows([][]string{header, row, row})
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if out[0].ID == out[1].ID {
		t.Fatalf("identical rows share id %q", out[0].ID)
	}
}

func TestDecodeColumnsByName(t *testing.T) {
	rows := [][]string{
		{"Shop", "DateTime", "Item", "Qty", "DiscountPct", "DiscountAmt", "PurchasePrice", "NormalPrice", "ID"},
		{"Lidl", "2025-08-04 10:15:00", "Milk", "1", "50", "1", "1", "2", "abc"},
	}
	out, err := DecodeRows(rows)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	r := out[0]
	if r.ID != "abc" || r.Shop != "Lidl" || !r.Normal.Equal(decimal.NewFromInt(2)) || !r.DiscountPercent.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("columns misread: %+v", r)
	}
}

func TestDecodeRowsErrors(t *testing.T) {
	header := strings.Split("ID,DateTime,Shop,Item,Qty,NormalPrice,PurchasePrice,DiscountAmt,DiscountPct", ",")
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "missing column",
			rows: [][]string{{"DateTime", "Shop"}},
			want: `missing column "Item"`,
		},
		{
			name: "bad timestamp",
			rows: [][]string{header, {"a", "yesterday", "Lidl", "Milk", "1", "1", "1", "0", "0"}},
			want: "row 2: invalid DateTime",
		},
		{
			name: "fractional quantity",
			rows: [][]string{header, {"a", "2025-08-04 10:15:00", "Lidl", "Milk", "1.5", "1", "1", "0", "0"}},
			want: "row 2: invalid Qty",
		},
		{
			name: "bad amount",
			rows: [][]string{header, {"a", "2025-08-04 10:15:00", "Lidl", "Milk", "1", "one", "1", "0", "0"}},
			want: "row 2: invalid NormalPrice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRows(tt.rows)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("DecodeRows error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDecodeRowsValidates(t *testing.T) {
	rows := [][]string{
		strings.Split("DateTime,Shop,Item,Qty,NormalPrice,PurchasePrice,DiscountAmt,DiscountPct", ","),
		{"2025-08-04 10:15:00", "", "Milk", "1", "1", "1", "0", "0"},
	}
	if _, err := DecodeRows(rows); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("DecodeRows error = %v, want validation", err)
	}
}
