package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertSet(t *testing.T, got PriceSet, normal, purchase, amount, percent string) {
	t.Helper()
	if !got.Complete() {
		t.Fatalf("expected complete set, got %+v", got)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"normal", got.Normal, normal},
		{"purchase", got.Purchase, purchase},
		{"amount", got.DiscountAmount, amount},
		{"percent", got.DiscountPercent, percent},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s: got %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name                              string
		in                                PriceInput
		normal, purchase, amount, percent string
	}{
		{
			name:   "normal and percent",
			in:     PriceInput{Normal: ptr("100"), DiscountPercent: ptr("20")},
			normal: "100", purchase: "80", amount: "20", percent: "20",
		},
		{
			name:   "purchase and percent",
			in:     PriceInput{Purchase: ptr("80"), DiscountPercent: ptr("20")},
			normal: "100", purchase: "80", amount: "20", percent: "20",
		},
		{
			name:   "both prices equal mirror zero discount",
			in:     PriceInput{Normal: ptr("100"), Purchase: ptr("100")},
			normal: "100", purchase: "100", amount: "0", percent: "0",
		},
		{
			name:   "normal and amount",
			in:     PriceInput{Normal: ptr("50"), DiscountAmount: ptr("12.5")},
			normal: "50", purchase: "37.5", amount: "12.5", percent: "25",
		},
		{
			name:   "purchase and amount",
			in:     PriceInput{Purchase: ptr("7.5"), DiscountAmount: ptr("2.5")},
			normal: "10", purchase: "7.5", amount: "2.5", percent: "25",
		},
		{
			name:   "normal only mirrors",
			in:     PriceInput{Normal: ptr("3.99")},
			normal: "3.99", purchase: "3.99", amount: "0", percent: "0",
		},
		{
			name:   "purchase only mirrors",
			in:     PriceInput{Purchase: ptr("3.99")},
			normal: "3.99", purchase: "3.99", amount: "0", percent: "0",
		},
		{
			name:   "both prices derive discount",
			in:     PriceInput{Normal: ptr("3"), Purchase: ptr("2")},
			normal: "3", purchase: "2", amount: "1", percent: "33.33",
		},
		{
			name:   "amount takes precedence over percent for purchase",
			in:     PriceInput{Normal: ptr("100"), DiscountAmount: ptr("10"), DiscountPercent: ptr("50")},
			normal: "100", purchase: "90", amount: "10", percent: "50",
		},
		{
			name:   "zero discounts read as absent",
			in:     PriceInput{Normal: ptr("10"), Purchase: ptr("8"), DiscountAmount: ptr("0"), DiscountPercent: ptr("0")},
			normal: "10", purchase: "8", amount: "2", percent: "20",
		},
		{
			name:   "full discount from normal",
			in:     PriceInput{Normal: ptr("10"), DiscountPercent: ptr("100")},
			normal: "10", purchase: "0", amount: "10", percent: "100",
		},
		{
			name:   "half up rounding of derived fields",
			in:     PriceInput{Normal: ptr("0.99"), DiscountPercent: ptr("50")},
			normal: "0.99", purchase: "0.5", amount: "0.5", percent: "50",
		},
		{
			name:   "normal rounded after percent division",
			in:     PriceInput{Purchase: ptr("10"), DiscountPercent: ptr("33.33")},
			normal: "15", purchase: "10", amount: "5", percent: "33.33",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.in, DefaultZeroPolicy())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertSet(t, got, tc.normal, tc.purchase, tc.amount, tc.percent)
		})
	}
}

func TestResolveInsufficientData(t *testing.T) {
	inputs := []PriceInput{
		{},
		{DiscountAmount: ptr("5")},
		{DiscountPercent: ptr("20")},
		{DiscountAmount: ptr("5"), DiscountPercent: ptr("20")},
		{DiscountPercent: ptr("150")},
	}
	for i, in := range inputs {
		_, err := Resolve(in, DefaultZeroPolicy())
		if !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("case %d: expected ErrInsufficientData, got %v", i, err)
		}
		var ide *InsufficientDataError
		if !errors.As(err, &ide) {
			t.Fatalf("case %d: expected *InsufficientDataError, got %T", i, err)
		}
	}
}

func TestResolveZeroPolicy(t *testing.T) {
	in := PriceInput{Normal: ptr("0"), Purchase: ptr("5")}

	_, err := Resolve(in, DefaultZeroPolicy())
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != FieldNormal.String() {
		t.Fatalf("expected validation error on normal price, got %v", err)
	}

	got, err := Resolve(in, LenientZeroPolicy())
	if err != nil {
		t.Fatalf("lenient policy: unexpected error %v", err)
	}
	assertSet(t, got, "5", "5", "0", "0")

	_, err = Resolve(PriceInput{Normal: ptr("0")}, LenientZeroPolicy())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("zero-only input under lenient policy: expected ErrInsufficientData, got %v", err)
	}

	kept := ZeroPolicy{DiscountZeroIsUnknown: false, PriceZeroIsInvalid: true}
	got, err = Resolve(PriceInput{Normal: ptr("10"), DiscountAmount: ptr("0")}, kept)
	if err != nil {
		t.Fatalf("explicit zero discount: %v", err)
	}
	assertSet(t, got, "10", "10", "0", "0")
}

func TestResolveValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    PriceInput
		field Field
	}{
		{"negative normal", PriceInput{Normal: ptr("-1")}, FieldNormal},
		{"negative purchase", PriceInput{Purchase: ptr("-0.01")}, FieldPurchase},
		{"negative amount", PriceInput{Normal: ptr("10"), DiscountAmount: ptr("-2")}, FieldDiscountAmount},
		{"percent above 100", PriceInput{Normal: ptr("10"), DiscountPercent: ptr("100.01")}, FieldDiscountPercent},
		{"negative percent", PriceInput{Normal: ptr("10"), DiscountPercent: ptr("-5")}, FieldDiscountPercent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.in, DefaultZeroPolicy())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field.String() {
				t.Fatalf("expected field %s, got %v", tc.field, err)
			}
		})
	}
}

func TestResolveFullDiscountFromPurchaseLeavesNormalUnknown(t *testing.T) {
	got, err := Resolve(PriceInput{Purchase: ptr("5"), DiscountPercent: ptr("100")}, DefaultZeroPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Known(FieldNormal) || got.Known(FieldDiscountAmount) {
		t.Fatalf("normal and amount must stay unknown, got %+v", got)
	}
	if !got.Known(FieldPurchase) || !got.Known(FieldDiscountPercent) {
		t.Fatalf("purchase and percent must be known, got %+v", got)
	}
	if got.Complete() {
		t.Fatalf("set must not be complete")
	}
}

func TestResolvePurchaseFollowsPercent(t *testing.T) {
	normals := []string{"0.01", "1", "9.99", "19.95", "100", "1234.56"}
	percents := []string{"0.5", "1", "10", "12.5", "33.33", "50", "75", "99.99"}
	for _, n := range normals {
		for _, d := range percents {
			got, err := Resolve(PriceInput{Normal: ptr(n), DiscountPercent: ptr(d)}, DefaultZeroPolicy())
			if err != nil {
				t.Fatalf("normal=%s percent=%s: %v", n, d, err)
			}
			want := Round2(dec(n).Mul(one.Sub(dec(d).Div(hundred))))
			if !got.Purchase.Equal(want) {
				t.Fatalf("normal=%s percent=%s: purchase %s, want %s", n, d, got.Purchase, want)
			}
		}
	}
}

func TestResolveRoundTripPercent(t *testing.T) {
	pairs := [][2]string{{"100", "80"}, {"10", "7.49"}, {"3.2", "3.2"}, {"59.9", "44.9"}}
	for _, pr := range pairs {
		got, err := Resolve(PriceInput{Normal: ptr(pr[0]), Purchase: ptr(pr[1])}, DefaultZeroPolicy())
		if err != nil {
			t.Fatalf("%v: %v", pr, err)
		}
		wantAmount := dec(pr[0]).Sub(dec(pr[1]))
		if !got.DiscountAmount.Equal(wantAmount) {
			t.Fatalf("%v: amount %s, want %s", pr, got.DiscountAmount, wantAmount)
		}
		again, err := Resolve(PriceInput{Normal: &got.Normal, DiscountAmount: &got.DiscountAmount}, DefaultZeroPolicy())
		if err != nil {
			t.Fatalf("%v: re-resolve: %v", pr, err)
		}
		if !again.DiscountPercent.Equal(got.DiscountPercent) {
			t.Fatalf("%v: percent %s after round trip, want %s", pr, again.DiscountPercent, got.DiscountPercent)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	in := PriceInput{Purchase: ptr("12.34"), DiscountPercent: ptr("17")}
	first, err := Resolve(in, DefaultZeroPolicy())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := Resolve(PriceInput{
		Normal:          &first.Normal,
		Purchase:        &first.Purchase,
		DiscountAmount:  &first.DiscountAmount,
		DiscountPercent: &first.DiscountPercent,
	}, DefaultZeroPolicy())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !first.Normal.Equal(second.Normal) || !first.Purchase.Equal(second.Purchase) {
		t.Fatalf("resolving a resolved set changed it: %+v vs %+v", first, second)
	}
}

// Outputs are rounded one by one, so normal - amount may differ from
// purchase by at most one cent.
func TestResolveRoundsEachOutputSeparately(t *testing.T) {
	got, err := Resolve(PriceInput{Normal: ptr("1.01"), DiscountPercent: ptr("50")}, DefaultZeroPolicy())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertSet(t, got, "1.01", "0.51", "0.51", "50")

	drift := got.Normal.Sub(got.DiscountAmount).Sub(got.Purchase).Abs()
	if drift.GreaterThan(dec("0.01")) {
		t.Fatalf("normal - amount is %s away from purchase, want at most 0.01", drift)
	}
}
