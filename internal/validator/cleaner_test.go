package validator

import "testing"

func TestCleanPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0912.345.678", "0912345678"},
		{"0912 345 678", "0912345678"},
		{"+84 912 345 678", "0912345678"},
		{"84912345678", "0912345678"},
		{"Liên hệ", ""},
		{"12345", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := CleanPhone(c.in); got != c.want {
			t.Errorf("CleanPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"5 tỷ", 5_000_000_000, true},
		{"5.2 tỷ", 5_200_000_000, true},
		{"29,88 tỷ", 29_880_000_000, true},
		{"500 triệu", 500_000_000, true},
		{"1.200 triệu", 1_200_000_000, true},
		{"Thỏa thuận", 0, false},
		{"Liên hệ", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePrice(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParsePrice(%q) = (%d, %t), want (%d, %t)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseArea(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"80m2", 80, true},
		{"67,5 m²", 67.5, true},
		{"100 m2", 100, true},
		{"85", 85, true},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseArea(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseArea(%q) = (%v, %t), want (%v, %t)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := NormalizeTitle("  Bán nhà   Cầu Giấy\t80m2 ")
	want := "bán nhà cầu giấy 80m2"
	if got != want {
		t.Errorf("NormalizeTitle = %q, want %q", got, want)
	}
}
