package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"bds-sync/internal/domain/listing"
)

func newTestValidator(counter DailyCounter) *Validator {
	return New(Config{SuspectRatio: 0.3, SpamDailyLimit: 3}, DefaultBands(), counter, nil)
}

func rawCauGiay() listing.RawListing {
	return listing.RawListing{
		Title:          "Bán nhà Cầu Giấy 80m2",
		PriceText:      "5 tỷ",
		AreaText:       "80m2",
		District:       "Cầu Giấy",
		City:           "Hà Nội",
		PhoneText:      "0912.345.678",
		SourceURL:      "https://x/1",
		SourcePlatform: "batdongsan",
		ScrapedAt:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestValidate_EndToEnd(t *testing.T) {
	v := newTestValidator(NewMemoryCounter(time.UTC))

	l, err := v.Validate(context.Background(), rawCauGiay())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.PriceNumber != 5_000_000_000 {
		t.Fatalf("price: %d", l.PriceNumber)
	}
	if l.AreaM2 != 80.0 {
		t.Fatalf("area: %v", l.AreaM2)
	}
	if l.PhoneClean != "0912345678" {
		t.Fatalf("phone: %q", l.PhoneClean)
	}
	if got := l.PricePerM2(); got != 62_500_000 {
		t.Fatalf("price per m2: %v", got)
	}
	if l.HasFlag(listing.FlagSuspectPrice) {
		t.Fatalf("62.5tr/m² is inside the Cầu Giấy band, must not be flagged")
	}
	if l.Status != listing.StatusActive {
		t.Fatalf("status: %s", l.Status)
	}
}

func TestValidate_FingerprintDeterministic(t *testing.T) {
	v := newTestValidator(nil)

	a, err := v.Validate(context.Background(), rawCauGiay())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := v.Validate(context.Background(), rawCauGiay())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a.ID, b.ID)
	}

	// Price change alone does not change identity.
	changed := rawCauGiay()
	changed.PriceText = "5.2 tỷ"
	c, err := v.Validate(context.Background(), changed)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID != a.ID {
		t.Fatalf("price change must not change id")
	}
	if c.PriceNumber != 5_200_000_000 {
		t.Fatalf("updated price: %d", c.PriceNumber)
	}

	// Whitespace and case differences in the title collapse.
	spaced := rawCauGiay()
	spaced.Title = "  BÁN NHÀ   cầu giấy 80m2"
	d, err := v.Validate(context.Background(), spaced)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.ID != a.ID {
		t.Fatalf("normalized titles must collapse to one id")
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	v := newTestValidator(nil)

	cases := []func(*listing.RawListing){
		func(r *listing.RawListing) { r.SourceURL = "" },
		func(r *listing.RawListing) { r.Title = "   " },
		func(r *listing.RawListing) { r.PriceText = "Thỏa thuận" },
	}
	for i, mutate := range cases {
		raw := rawCauGiay()
		mutate(&raw)
		if _, err := v.Validate(context.Background(), raw); !errors.Is(err, ErrMissingRequiredField) {
			t.Errorf("case %d: expected ErrMissingRequiredField, got %v", i, err)
		}
	}
}

func TestValidate_SuspectPriceFlagged(t *testing.T) {
	v := newTestValidator(nil)

	raw := rawCauGiay()
	raw.PriceText = "500 triệu" // 6.25tr/m2, far below the 60tr floor
	l, err := v.Validate(context.Background(), raw)
	if err != nil {
		t.Fatalf("plausibility must annotate, not reject: %v", err)
	}
	if !l.HasFlag(listing.FlagSuspectPrice) {
		t.Fatalf("expected suspect flag at %v/m²", l.PricePerM2())
	}
}

func TestValidate_NoAreaSkipsPlausibility(t *testing.T) {
	v := newTestValidator(nil)

	raw := rawCauGiay()
	raw.AreaText = ""
	raw.PriceText = "500 triệu"
	l, err := v.Validate(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.HasFlag(listing.FlagSuspectPrice) {
		t.Fatalf("no area means no plausibility check")
	}
}

func TestValidate_SpamPhoneFlagged(t *testing.T) {
	counter := NewMemoryCounter(time.UTC)
	v := newTestValidator(counter)

	var last listing.Listing
	for i := 0; i < 5; i++ {
		raw := rawCauGiay()
		l, err := v.Validate(context.Background(), raw)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		last = l
	}
	if !last.HasFlag(listing.FlagSpamPhone) {
		t.Fatalf("5th sighting with limit 3 must be flagged")
	}
}

func TestMemoryCounter_ResetsAtMidnight(t *testing.T) {
	now := time.Date(2026, 8, 1, 23, 50, 0, 0, time.UTC)
	counter := NewMemoryCounter(time.UTC).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if _, err := counter.Incr(context.Background(), "0912345678"); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	now = now.Add(20 * time.Minute) // past midnight
	n, err := counter.Incr(context.Background(), "0912345678")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 1 {
		t.Fatalf("counter must reset at midnight, got %d", n)
	}
}
