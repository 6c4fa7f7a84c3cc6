package validator

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigitPattern   = regexp.MustCompile(`\D`)
	numberUnitPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?(?:\.\d{3})*)\s*(tỷ|ty|triệu|tr\b)?`)
	areaPattern       = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:m²|m2|m\b)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var negotiationKeywords = []string{"thỏa thuận", "thoả thuận", "liên hệ", "lien he"}

// CleanPhone strips everything but digits and normalizes to the
// national format: the 84 country prefix collapses to a leading 0.
// Returns "" when what remains is not a plausible phone number.
func CleanPhone(raw string) string {
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, "84") && len(digits) >= 10 {
		digits = "0" + digits[2:]
	}
	if len(digits) < 10 || len(digits) > 11 || !strings.HasPrefix(digits, "0") {
		return ""
	}
	return digits
}

// ParsePrice converts Vietnamese price text to VND.
// "5 tỷ" → 5_000_000_000, "29,88 tỷ" → 29_880_000_000,
// "500 triệu" → 500_000_000, "Thỏa thuận" → not ok.
func ParsePrice(raw string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	for _, kw := range negotiationKeywords {
		if strings.Contains(s, kw) {
			return 0, false
		}
	}

	m := numberUnitPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	v, ok := parseVietnameseNumber(m[1])
	if !ok {
		return 0, false
	}

	switch strings.TrimSpace(m[2]) {
	case "tỷ", "ty":
		v *= 1_000_000_000
	case "triệu", "tr":
		v *= 1_000_000
	}

	if v <= 0 {
		return 0, false
	}
	return int64(v), true
}

// ParseArea converts area text to square meters: "80m2" → 80.0,
// "67,5 m²" → 67.5.
func ParseArea(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	m := areaPattern.FindStringSubmatch(s)
	if m == nil {
		// Bare number without unit is accepted; listings often carry
		// just "80" in the area column.
		m = numberUnitPattern.FindStringSubmatch(s)
		if m == nil || m[1] == "" {
			return 0, false
		}
	}

	v, ok := parseVietnameseNumber(m[1])
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// parseVietnameseNumber handles the comma-decimal convention:
// "67,5" → 67.5, "1.200" → 1200, "1.234,56" → 1234.56.
func parseVietnameseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		if len(parts) == 2 && len(parts[1]) == 3 {
			// Thousands separator: 1.200
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeTitle lowercases and collapses whitespace. Diacritics are
// preserved: "Bán nhà Cầu Giấy" and "ban nha cau giay" are different
// ads.
func NormalizeTitle(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return whitespacePattern.ReplaceAllString(s, " ")
}
