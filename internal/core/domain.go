package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the persisted DateTime format.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-date format used by summaries.
const DateLayout = "2006-01-02"

const maxNameLength = 200

type (
	// Date is a calendar day, stored at midnight in the timestamp's location.
	Date struct {
		time.Time
	}

	// Record is one persisted expenditure line.
	Record struct {
		ID        string // Stable identifier assigned at creation
		Timestamp time.Time
		Shop      string
		Item      string
		Quantity  int

		Normal          decimal.Decimal
		Purchase        decimal.Decimal
		DiscountAmount  decimal.Decimal
		DiscountPercent decimal.Decimal

		TotalNormal   decimal.Decimal
		TotalPurchase decimal.Decimal
		TotalDiscount decimal.Decimal
	}
)

// NewDate creates a Date from year, month, day in loc.
func NewDate(year, month, day int, loc *time.Location) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)}
}

// DateOf returns the calendar day t falls on, in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d, t.Location())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// NewRecord builds a record with a fresh ID. The timestamp is truncated to
// whole seconds to match the persisted precision.
func NewRecord(at time.Time, shop, item string, qty int, prices PriceSet) (Record, error) {
	return NewRecordWithID(uuid.NewString(), at, shop, item, qty, prices)
}

// NewRecordWithID is NewRecord with a caller supplied identifier.
func NewRecordWithID(id string, at time.Time, shop, item string, qty int, prices PriceSet) (Record, error) {
	r := Record{
		ID:        id,
		Timestamp: at.Truncate(time.Second),
	}
	return r.Revise(shop, item, qty, prices)
}

// Revise returns a copy with new shop, item, quantity and prices. ID and
// Timestamp are kept; totals are recomputed.
func (r Record) Revise(shop, item string, qty int, prices PriceSet) (Record, error) {
	if !prices.Known(FieldNormal) && !prices.Known(FieldPurchase) {
		return Record{}, &InsufficientDataError{}
	}
	for _, f := range []Field{FieldNormal, FieldPurchase, FieldDiscountAmount, FieldDiscountPercent} {
		if !prices.Known(f) {
			return Record{}, invalid(f.String(), "could not be derived from the given fields")
		}
	}

	r.Shop = strings.TrimSpace(shop)
	r.Item = strings.TrimSpace(item)
	r.Quantity = qty
	r.Normal = prices.Normal
	r.Purchase = prices.Purchase
	r.DiscountAmount = prices.DiscountAmount
	r.DiscountPercent = prices.DiscountPercent
	r.recomputeTotals()

	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (r *Record) recomputeTotals() {
	q := decimal.NewFromInt(int64(r.Quantity))
	r.TotalNormal = Round2(r.Normal.Mul(q))
	r.TotalPurchase = Round2(r.Purchase.Mul(q))
	r.TotalDiscount = Round2(r.DiscountAmount.Mul(q))
}

// Prices returns the record's resolved PriceSet.
func (r Record) Prices() PriceSet {
	return NewPriceSet(r.Normal, r.Purchase, r.DiscountAmount, r.DiscountPercent)
}

// Date returns the calendar day of the record's timestamp.
func (r Record) Date() Date {
	return DateOf(r.Timestamp)
}

// Label is the human-readable composite used for selecting a record to
// edit: "2025-08-04 10:15:00 - Shop - Item (x2)". It is not unique.
func (r Record) Label() string {
	return fmt.Sprintf("%s - %s - %s (x%d)", r.Timestamp.Format(TimestampLayout), r.Shop, r.Item, r.Quantity)
}

// ValidateEntry checks the free-text and quantity inputs of a submission.
func ValidateEntry(shop, item string, qty int) error {
	if strings.TrimSpace(shop) == "" {
		return invalid("shop", "must not be blank")
	}
	if len(shop) > maxNameLength {
		return invalid("shop", fmt.Sprintf("too long (max %d characters)", maxNameLength))
	}
	if strings.TrimSpace(item) == "" {
		return invalid("item", "must not be blank")
	}
	if len(item) > maxNameLength {
		return invalid("item", fmt.Sprintf("too long (max %d characters)", maxNameLength))
	}
	if qty < 1 {
		return invalid("quantity", "must be at least 1")
	}
	return nil
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return invalid("id", "must not be empty")
	}
	if r.Timestamp.IsZero() {
		return invalid("timestamp", "must not be zero")
	}
	if err := ValidateEntry(r.Shop, r.Item, r.Quantity); err != nil {
		return err
	}
	amounts := []struct {
		f Field
		v decimal.Decimal
	}{
		{FieldNormal, r.Normal},
		{FieldPurchase, r.Purchase},
		{FieldDiscountAmount, r.DiscountAmount},
		{FieldDiscountPercent, r.DiscountPercent},
	}
	for _, a := range amounts {
		if a.v.IsNegative() {
			return invalid(a.f.String(), "must not be negative")
		}
	}
	if r.DiscountPercent.GreaterThan(hundred) {
		return invalid(FieldDiscountPercent.String(), "must be between 0 and 100")
	}
	return nil
}
