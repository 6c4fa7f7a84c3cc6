package intent

import (
	"regexp"
	"strconv"
	"strings"

	"bds-sync/internal/domain/listing"
)

var hanoiDistricts = []string{
	"cầu giấy", "ba đình", "hoàn kiếm", "đống đa", "hai bà trưng",
	"thanh xuân", "hoàng mai", "long biên", "nam từ liêm", "bắc từ liêm",
	"tây hồ", "hà đông", "quận 1", "quận 2", "quận 3", "quận 7", "bình thạnh",
}

var propertyKeywords = []struct {
	keyword string
	ptype   listing.PropertyType
}{
	{"chung cư", listing.PropertyApartment},
	{"căn hộ", listing.PropertyApartment},
	{"nhà riêng", listing.PropertyPrivateHouse},
	{"biệt thự", listing.PropertyVilla},
	{"đất nền", listing.PropertyLand},
	{"nhà mặt phố", listing.PropertyStreetHouse},
}

var (
	priceRangePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*-\s*(\d+(?:[.,]\d+)?)\s*tỷ`)
	priceUnderPattern = regexp.MustCompile(`dưới\s*(\d+(?:[.,]\d+)?)\s*tỷ`)
	priceMaxPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*tỷ`)
	bedroomsPattern   = regexp.MustCompile(`(\d+)\s*(?:pn|phòng ngủ|phong ngu)`)
)

// heuristicParse is the no-model fallback: keyword tables and numeral
// regexes over the lowercased query. It extracts less than the model
// but never invents values.
func heuristicParse(query string) Filters {
	f := Filters{Intent: "mua"}
	q := strings.ToLower(query)

	for _, pk := range propertyKeywords {
		if strings.Contains(q, pk.keyword) {
			f.PropertyType = ptr(pk.ptype)
			break
		}
	}

	for _, d := range hanoiDistricts {
		if strings.Contains(q, d) {
			f.District = ptr(titleCase(d))
			break
		}
	}

	if m := bedroomsPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Bedrooms = &n
		}
	}

	if m := priceRangePattern.FindStringSubmatch(q); m != nil {
		if lo, ok := billions(m[1]); ok {
			f.MinPrice = &lo
		}
		if hi, ok := billions(m[2]); ok {
			f.MaxPrice = &hi
		}
	} else if m := priceUnderPattern.FindStringSubmatch(q); m != nil {
		if hi, ok := billions(m[1]); ok {
			f.MaxPrice = &hi
		}
	} else if m := priceMaxPattern.FindStringSubmatch(q); m != nil {
		if hi, ok := billions(m[1]); ok {
			f.MaxPrice = &hi
		}
	}

	if strings.Contains(q, "hồ chí minh") || strings.Contains(q, "sài gòn") || strings.Contains(q, "hcm") {
		f.City = ptr("Hồ Chí Minh")
	}
	if strings.Contains(q, "thuê") {
		f.Intent = "thuê"
	}

	return f
}

func billions(s string) (int64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return int64(v * 1_000_000_000), true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
