package expiry

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

func intPtr(v int) *int { return &v }

func TestDeriveExpiryDate(t *testing.T) {
	got := DeriveExpiryDate(models.NewDate(2024, time.January, 1), 3)
	want := models.NewDate(2024, time.January, 4)
	if got != want {
		t.Fatalf("DeriveExpiryDate = %s, want %s", got, want)
	}

	// month and leap-day rollover
	got = DeriveExpiryDate(models.NewDate(2024, time.February, 27), 3)
	if want := models.NewDate(2024, time.March, 1); got != want {
		t.Fatalf("DeriveExpiryDate across leap day = %s, want %s", got, want)
	}
}

func TestDeriveExpiryDaysRoundTrip(t *testing.T) {
	purchases := []models.Date{
		models.NewDate(2024, time.January, 1),
		models.NewDate(2024, time.February, 28),
		models.NewDate(2023, time.December, 31),
		models.NewDate(2025, time.March, 29),
	}
	for _, p := range purchases {
		for d := 0; d <= 400; d++ {
			if got := DeriveExpiryDays(p, DeriveExpiryDate(p, d)); got != d {
				t.Fatalf("round trip from %s with %d days = %d", p, d, got)
			}
		}
		for _, d := range []int{MaxExpiryDays, 106752, 200000} {
			if got := DeriveExpiryDays(p, DeriveExpiryDate(p, d)); got != d {
				t.Fatalf("round trip from %s with %d days = %d", p, d, got)
			}
		}
	}
}

func TestDeriveExpiryDaysToleratesEarlierExpiry(t *testing.T) {
	p := models.NewDate(2024, time.January, 10)
	e := models.NewDate(2024, time.January, 7)
	if got := DeriveExpiryDays(p, e); got != 3 {
		t.Fatalf("DeriveExpiryDays = %d, want 3", got)
	}
}

func TestRecalculateAll(t *testing.T) {
	p1 := models.NewDate(2024, time.January, 1)
	items := []models.Item{
		ApplyExpiryDays(models.Item{ID: "a", Name: "Milk", IsPerishable: true}, 3, p1),
		{ID: "b", Name: "Soap", IsPerishable: false},
		{ID: "c", Name: "Mystery", IsPerishable: true},
	}
	if items[0].ExpiryDate.String() != "2024-01-04" {
		t.Fatalf("initial expiry = %s, want 2024-01-04", items[0].ExpiryDate)
	}

	p2 := models.NewDate(2024, time.January, 10)
	out := RecalculateAll(items, p2)

	if got := out[0].ExpiryDate.String(); got != "2024-01-13" {
		t.Errorf("recalculated expiry = %s, want 2024-01-13", got)
	}
	if *out[0].ExpiryDays != 3 {
		t.Errorf("expiry days changed to %d", *out[0].ExpiryDays)
	}
	if !reflect.DeepEqual(out[1], items[1]) || !reflect.DeepEqual(out[2], items[2]) {
		t.Errorf("items without expiry days were modified: %+v", out[1:])
	}
	if items[0].ExpiryDate.String() != "2024-01-04" {
		t.Errorf("input slice was mutated")
	}

	again := RecalculateAll(out, p2)
	if !reflect.DeepEqual(again, out) {
		t.Errorf("RecalculateAll is not idempotent:\n%+v\n%+v", out, again)
	}
}

func TestClassifyDefault(t *testing.T) {
	p := models.NewDate(2024, time.January, 1)
	tests := []struct {
		name       string
		item       models.Item
		perishable bool
		days       *int
		date       string
	}{
		{name: "seafood default", item: models.Item{Category: "Seafood", IsPerishable: true}, perishable: true, days: intPtr(2), date: "2024-01-03"},
		{name: "eggs default", item: models.Item{Category: "eggs", IsPerishable: true}, perishable: true, days: intPtr(21), date: "2024-01-22"},
		{name: "unknown category", item: models.Item{Category: "Snacks", IsPerishable: true}, perishable: true, days: intPtr(7), date: "2024-01-08"},
		{name: "no category", item: models.Item{IsPerishable: true}, perishable: true, days: intPtr(7), date: "2024-01-08"},
		{name: "explicit days win", item: models.Item{Category: "Meat", IsPerishable: true, ExpiryDays: intPtr(10)}, perishable: true, days: intPtr(10), date: "2024-01-11"},
		{name: "explicit date derives days", item: models.Item{Category: "Meat", IsPerishable: true, ExpiryDate: models.NewDate(2024, time.January, 6).Ptr()}, perishable: true, days: intPtr(5), date: "2024-01-06"},
		{name: "household cleared", item: models.Item{Category: "Household", IsPerishable: true, ExpiryDays: intPtr(3)}, perishable: false},
		{name: "paper goods cleared", item: models.Item{Category: "Paper Towels", IsPerishable: true}, perishable: false},
		{name: "non-food cleared", item: models.Item{Category: "non-food", IsPerishable: true}, perishable: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyDefault(tc.item, p)
			if got.IsPerishable != tc.perishable {
				t.Fatalf("IsPerishable = %v, want %v", got.IsPerishable, tc.perishable)
			}
			if tc.days == nil {
				if got.ExpiryDays != nil || got.ExpiryDate != nil {
					t.Fatalf("expected expiry fields cleared, got %v %v", got.ExpiryDays, got.ExpiryDate)
				}
				return
			}
			if got.ExpiryDays == nil || *got.ExpiryDays != *tc.days {
				t.Fatalf("ExpiryDays = %v, want %d", got.ExpiryDays, *tc.days)
			}
			if got.ExpiryDate == nil || got.ExpiryDate.String() != tc.date {
				t.Fatalf("ExpiryDate = %v, want %s", got.ExpiryDate, tc.date)
			}
		})
	}
}

func TestSetPerishable(t *testing.T) {
	p := models.NewDate(2024, time.March, 1)
	item := ApplyExpiryDays(models.Item{Name: "Yogurt", IsPerishable: true}, 12, p)

	off := SetPerishable(item, false, p)
	if off.IsPerishable || off.ExpiryDays != nil || off.ExpiryDate != nil {
		t.Fatalf("expected cleared item, got %+v", off)
	}

	on := SetPerishable(off, true, p)
	if !on.IsPerishable || on.ExpiryDays == nil || *on.ExpiryDays != DefaultDays {
		t.Fatalf("expected default %d days, got %+v", DefaultDays, on)
	}
	if on.ExpiryDate.String() != "2024-03-08" {
		t.Fatalf("ExpiryDate = %s, want 2024-03-08", on.ExpiryDate)
	}
}

func TestApplyExpiryDate(t *testing.T) {
	p := models.NewDate(2024, time.January, 1)
	got := ApplyExpiryDate(models.Item{IsPerishable: true}, models.NewDate(2024, time.January, 31), p)
	if *got.ExpiryDays != 30 {
		t.Fatalf("ExpiryDays = %d, want 30", *got.ExpiryDays)
	}
}

func TestParseExpiryDays(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{raw: "3", want: 3, ok: true},
		{raw: " 14 ", want: 14, ok: true},
		{raw: "0", want: 0, ok: true},
		{raw: "5.0", want: 5, ok: true},
		{raw: "2.5", ok: false},
		{raw: "-1", ok: false},
		{raw: "soon", ok: false},
		{raw: "", ok: false},
		{raw: "NaN", ok: false},
		{raw: "Inf", ok: false},
		{raw: "1e20", ok: false},
		{raw: "99999999999", ok: false},
		{raw: "36500", want: MaxExpiryDays, ok: true},
		{raw: "36501", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseExpiryDays(tc.raw)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseExpiryDays(%q) = %d, %v; want %d, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplyRawExpiryDaysMalformedIsUnknown(t *testing.T) {
	p := models.NewDate(2024, time.January, 1)
	item := ApplyExpiryDays(models.Item{IsPerishable: true}, 3, p)
	for _, raw := range []string{"1e20", "-4"} {
		if got := ApplyRawExpiryDays(item, raw, p); got.ExpiryDays != nil || got.ExpiryDate != nil {
			t.Fatalf("ApplyRawExpiryDays(%q) = %+v, want unknown expiry", raw, got)
		}
	}
	got := ApplyRawExpiryDays(item, "abc", p)
	if got.ExpiryDays != nil || got.ExpiryDate != nil {
		t.Fatalf("expected unknown expiry, got %+v", got)
	}
	if Label(got) != "unknown expiry" {
		t.Fatalf("Label = %q", Label(got))
	}
	if !got.IsPerishable {
		t.Fatalf("malformed input must not change perishability")
	}
}

func TestRoundDays(t *testing.T) {
	cases := []struct {
		in   float64
		want int
		ok   bool
	}{
		{in: 2.4, want: 2, ok: true},
		{in: 2.5, want: 3, ok: true},
		{in: -0.5, ok: false},
		{in: 1e20, ok: false},
		{in: math.Inf(1), ok: false},
		{in: math.NaN(), ok: false},
	}
	for _, tc := range cases {
		got, ok := RoundDays(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("RoundDays(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusForAndDaysLeft(t *testing.T) {
	today := models.NewDate(2024, time.June, 10)
	cases := []struct {
		expiry models.Date
		days   int
		status models.ExpiryStatus
	}{
		{expiry: models.NewDate(2024, time.June, 9), days: -1, status: models.ExpiryExpired},
		{expiry: models.NewDate(2024, time.June, 10), days: 0, status: models.ExpiryCritical},
		{expiry: models.NewDate(2024, time.June, 11), days: 1, status: models.ExpiryCritical},
		{expiry: models.NewDate(2024, time.June, 13), days: 3, status: models.ExpiryWarning},
		{expiry: models.NewDate(2024, time.June, 20), days: 10, status: models.ExpiryFresh},
	}
	for _, tc := range cases {
		days := DaysLeft(tc.expiry, today)
		if days != tc.days {
			t.Errorf("DaysLeft(%s) = %d, want %d", tc.expiry, days, tc.days)
		}
		if got := StatusFor(days); got != tc.status {
			t.Errorf("StatusFor(%d) = %s, want %s", days, got, tc.status)
		}
	}
}

func TestLabel(t *testing.T) {
	p := models.NewDate(2024, time.January, 1)
	if got := Label(ApplyExpiryDays(models.Item{IsPerishable: true}, 1, p)); got != "expires 2024-01-02 (1 day)" {
		t.Errorf("Label = %q", got)
	}
	if got := Label(models.Item{IsPerishable: false}); got != "non-perishable" {
		t.Errorf("Label = %q", got)
	}
}
