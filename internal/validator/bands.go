package validator

import (
	"context"
	"strings"
)

// Band is the plausible VND/m² range for a district.
type Band struct {
	FloorPerM2 float64
	CeilPerM2  float64
}

// BandSource resolves the per-district plausibility band. Districts
// without a band skip the plausibility check.
type BandSource interface {
	Band(ctx context.Context, district string) (Band, bool, error)
}

// StaticBands is the seed table for Hà Nội, in VND/m². The repository
// package exposes a Postgres-backed source seeded from the same table;
// StaticBands serves tests and cold starts.
type StaticBands map[string]Band

func DefaultBands() StaticBands {
	tr := 1_000_000.0
	return StaticBands{
		"cầu giấy":     {FloorPerM2: 60 * tr, CeilPerM2: 180 * tr},
		"ba đình":      {FloorPerM2: 70 * tr, CeilPerM2: 250 * tr},
		"hoàn kiếm":    {FloorPerM2: 100 * tr, CeilPerM2: 500 * tr},
		"đống đa":      {FloorPerM2: 60 * tr, CeilPerM2: 200 * tr},
		"hai bà trưng": {FloorPerM2: 60 * tr, CeilPerM2: 200 * tr},
		"tây hồ":       {FloorPerM2: 70 * tr, CeilPerM2: 300 * tr},
		"thanh xuân":   {FloorPerM2: 50 * tr, CeilPerM2: 150 * tr},
		"hoàng mai":    {FloorPerM2: 40 * tr, CeilPerM2: 120 * tr},
		"long biên":    {FloorPerM2: 40 * tr, CeilPerM2: 130 * tr},
		"nam từ liêm":  {FloorPerM2: 40 * tr, CeilPerM2: 140 * tr},
		"bắc từ liêm":  {FloorPerM2: 35 * tr, CeilPerM2: 120 * tr},
		"hà đông":      {FloorPerM2: 35 * tr, CeilPerM2: 110 * tr},
	}
}

func (b StaticBands) Band(_ context.Context, district string) (Band, bool, error) {
	band, ok := b[strings.ToLower(strings.TrimSpace(district))]
	return band, ok, nil
}
