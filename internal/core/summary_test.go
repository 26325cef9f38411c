package core

import (
	"testing"
	"time"
)

func mustRecord(t *testing.T, at time.Time, shop string, qty int, normal, purchase string) Record {
	t.Helper()
	prices, err := Resolve(PriceInput{Normal: ptr(normal), Purchase: ptr(purchase)}, DefaultZeroPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r, err := NewRecord(at, shop, "item", qty, prices)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return r
}

func TestSummarizeSameDayAndShop(t *testing.T) {
	day := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	records := []Record{
		mustRecord(t, day, "Lidl", 2, "1.10", "0.90"),
		mustRecord(t, day.Add(3*time.Hour), "Lidl", 1, "2.35", "2.35"),
	}
	rows := Summarize(records)
	if len(rows) != 1 {
		t.Fatalf("expected one group, got %d", len(rows))
	}
	r := rows[0]
	if r.Date.String() != "2025-08-04" || r.Shop != "Lidl" {
		t.Fatalf("unexpected key: %s %s", r.Date, r.Shop)
	}
	if !r.TotalNormal.Equal(dec("4.55")) || !r.TotalPurchase.Equal(dec("4.15")) || !r.TotalDiscount.Equal(dec("0.4")) {
		t.Fatalf("unexpected sums: %s %s %s", r.TotalNormal, r.TotalPurchase, r.TotalDiscount)
	}
}

func TestSummarizeOrdering(t *testing.T) {
	d1 := time.Date(2025, 8, 3, 20, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 8, 4, 8, 0, 0, 0, time.UTC)
	records := []Record{
		mustRecord(t, d2, "Coop", 1, "5", "5"),
		mustRecord(t, d1, "Lidl", 1, "1", "1"),
		mustRecord(t, d2, "Aldi", 1, "2", "2"),
		mustRecord(t, d1, "Aldi", 1, "3", "3"),
	}
	rows := Summarize(records)
	want := []string{"2025-08-03 Aldi", "2025-08-03 Lidl", "2025-08-04 Aldi", "2025-08-04 Coop"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if got := rows[i].Date.String() + " " + rows[i].Shop; got != w {
			t.Fatalf("row %d: got %q, want %q", i, got, w)
		}
	}

	total := GrandTotal(rows)
	if !total.TotalPurchase.Equal(dec("11")) {
		t.Fatalf("grand total purchase: %s", total.TotalPurchase)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if rows := Summarize(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}
