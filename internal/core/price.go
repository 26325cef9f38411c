package core

import (
	"github.com/shopspring/decimal"
)

// Field names a price-related input. Its String value is used in
// validation errors and log fields.
type Field string

const (
	FieldNormal          Field = "normal_price"
	FieldPurchase        Field = "purchase_price"
	FieldDiscountAmount  Field = "discount_amount"
	FieldDiscountPercent Field = "discount_percent"
)

func (f Field) String() string { return string(f) }

// PriceInput is what the caller supplied. A nil field is "not provided".
type PriceInput struct {
	Normal          *decimal.Decimal
	Purchase        *decimal.Decimal
	DiscountAmount  *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

// ZeroPolicy controls how an explicit zero is read.
type ZeroPolicy struct {
	// DiscountZeroIsUnknown treats a zero discount amount or percent as
	// absent, so it gets derived from the prices.
	DiscountZeroIsUnknown bool
	// PriceZeroIsInvalid rejects a zero normal or purchase price. When
	// false a zero price is treated as absent.
	PriceZeroIsInvalid bool
}

// DefaultZeroPolicy: zero discounts are absent, zero prices are invalid.
func DefaultZeroPolicy() ZeroPolicy {
	return ZeroPolicy{DiscountZeroIsUnknown: true, PriceZeroIsInvalid: true}
}

// LenientZeroPolicy treats every zero as absent.
func LenientZeroPolicy() ZeroPolicy {
	return ZeroPolicy{DiscountZeroIsUnknown: true, PriceZeroIsInvalid: false}
}

type knownMask uint8

const (
	knownNormal knownMask = 1 << iota
	knownPurchase
	knownAmount
	knownPercent
)

// PriceSet holds the resolved price fields. Fields that could not be
// derived are zero and report false from Known.
type PriceSet struct {
	Normal          decimal.Decimal
	Purchase        decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal

	known knownMask
}

// Known reports whether f was supplied or derived.
func (p PriceSet) Known(f Field) bool {
	switch f {
	case FieldNormal:
		return p.known&knownNormal != 0
	case FieldPurchase:
		return p.known&knownPurchase != 0
	case FieldDiscountAmount:
		return p.known&knownAmount != 0
	case FieldDiscountPercent:
		return p.known&knownPercent != 0
	}
	return false
}

// Complete reports whether all four fields are known.
func (p PriceSet) Complete() bool {
	all := knownNormal | knownPurchase | knownAmount | knownPercent
	return p.known&all == all
}

// NewPriceSet builds a fully known set from already resolved values.
func NewPriceSet(normal, purchase, amount, percent decimal.Decimal) PriceSet {
	return PriceSet{
		Normal:          normal,
		Purchase:        purchase,
		DiscountAmount:  amount,
		DiscountPercent: percent,
		known:           knownNormal | knownPurchase | knownAmount | knownPercent,
	}
}

type slot struct {
	v  decimal.Decimal
	ok bool
}

func known(v decimal.Decimal) slot { return slot{v: v, ok: true} }

func normalizePrice(f Field, in *decimal.Decimal, policy ZeroPolicy) (slot, error) {
	if in == nil {
		return slot{}, nil
	}
	switch {
	case in.IsNegative():
		return slot{}, invalid(f.String(), "must not be negative")
	case in.IsZero() && policy.PriceZeroIsInvalid:
		return slot{}, invalid(f.String(), "must be greater than zero")
	case in.IsZero():
		return slot{}, nil
	}
	return known(*in), nil
}

func normalizeDiscount(f Field, in *decimal.Decimal, policy ZeroPolicy) (slot, error) {
	if in == nil {
		return slot{}, nil
	}
	if in.IsNegative() {
		return slot{}, invalid(f.String(), "must not be negative")
	}
	if f == FieldDiscountPercent && in.GreaterThan(hundred) {
		return slot{}, invalid(f.String(), "must be between 0 and 100")
	}
	if in.IsZero() && policy.DiscountZeroIsUnknown {
		return slot{}, nil
	}
	return known(*in), nil
}

// Resolve derives the missing price fields from the supplied ones.
//
// Each rule fires only when its output is still unknown, in this order:
//
//  1. purchase = normal - amount
//  2. purchase = normal * (1 - percent/100)
//  3. normal = purchase + amount
//  4. normal = purchase / (1 - percent/100), only when percent < 100
//  5. with no discount given, the missing price mirrors the known one
//  6. amount = normal - purchase, else normal * percent/100
//  7. percent = 100 * amount / normal, or 0 when normal is 0
//
// Every known output is rounded to two places, half away from zero.
// Resolve fails with *InsufficientDataError when neither price is supplied,
// whatever the discount fields hold. It is pure and may be called on
// every input change.
func Resolve(in PriceInput, policy ZeroPolicy) (PriceSet, error) {
	n, err := normalizePrice(FieldNormal, in.Normal, policy)
	if err != nil {
		return PriceSet{}, err
	}
	p, err := normalizePrice(FieldPurchase, in.Purchase, policy)
	if err != nil {
		return PriceSet{}, err
	}
	// No rule derives a price from the discount fields alone.
	if !n.ok && !p.ok {
		return PriceSet{}, &InsufficientDataError{}
	}
	a, err := normalizeDiscount(FieldDiscountAmount, in.DiscountAmount, policy)
	if err != nil {
		return PriceSet{}, err
	}
	d, err := normalizeDiscount(FieldDiscountPercent, in.DiscountPercent, policy)
	if err != nil {
		return PriceSet{}, err
	}

	if !p.ok && n.ok && a.ok {
		p = known(n.v.Sub(a.v))
	}
	if !p.ok && n.ok && d.ok {
		p = known(n.v.Mul(one.Sub(d.v.Div(hundred))))
	}
	if !n.ok && p.ok && a.ok {
		n = known(p.v.Add(a.v))
	}
	if !n.ok && p.ok && d.ok && d.v.LessThan(hundred) {
		n = known(p.v.DivRound(one.Sub(d.v.Div(hundred)), divisionPrecision))
	}
	if !a.ok && !d.ok {
		switch {
		case n.ok && !p.ok:
			p = n
		case p.ok && !n.ok:
			n = p
		}
	}
	if !a.ok {
		switch {
		case n.ok && p.ok:
			a = known(n.v.Sub(p.v))
		case n.ok && d.ok:
			a = known(n.v.Mul(d.v).Div(hundred))
		}
	}
	if !d.ok && n.ok && a.ok {
		if n.v.IsPositive() {
			d = known(a.v.Mul(hundred).DivRound(n.v, divisionPrecision))
		} else {
			d = known(decimal.Zero)
		}
	}

	var out PriceSet
	if n.ok {
		out.Normal, out.known = Round2(n.v), out.known|knownNormal
	}
	if p.ok {
		out.Purchase, out.known = Round2(p.v), out.known|knownPurchase
	}
	if a.ok {
		out.DiscountAmount, out.known = Round2(a.v), out.known|knownAmount
	}
	if d.ok {
		out.DiscountPercent, out.known = Round2(d.v), out.known|knownPercent
	}
	return out, nil
}
