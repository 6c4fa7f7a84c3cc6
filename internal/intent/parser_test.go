package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/inference"
)

type stubGateway struct {
	payload string
	err     error
}

func (g stubGateway) Infer(ctx context.Context, prompt string, out any) (inference.Meta, error) {
	if g.err != nil {
		return inference.Meta{}, g.err
	}
	if err := json.Unmarshal([]byte(g.payload), out); err != nil {
		return inference.Meta{}, err
	}
	return inference.Meta{Provider: "primary"}, nil
}

func TestParser_Parse_ModelOutput(t *testing.T) {
	g := stubGateway{payload: `{
		"property_type": "chung cư",
		"location": {"city": "Hà Nội", "district": "Cầu Giấy"},
		"price": {"min": null, "max": 5000000000},
		"area": {"min": null, "max": null},
		"bedrooms": 2,
		"intent": "mua"
	}`}
	p := NewParser(g, nil)

	f, pm, err := p.Parse(context.Background(), "chung cư 2pn cầu giấy dưới 5 tỷ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.District == nil || *f.District != "Cầu Giấy" {
		t.Fatalf("district: %+v", f.District)
	}
	if f.PropertyType == nil || *f.PropertyType != listing.PropertyApartment {
		t.Fatalf("property type: %+v", f.PropertyType)
	}
	if f.MaxPrice == nil || *f.MaxPrice != 5_000_000_000 {
		t.Fatalf("max price: %+v", f.MaxPrice)
	}
	if f.MinPrice != nil {
		t.Fatalf("min price must stay nil, got %d", *f.MinPrice)
	}
	if f.Bedrooms == nil || *f.Bedrooms != 2 {
		t.Fatalf("bedrooms: %+v", f.Bedrooms)
	}
	if pm.Heuristic || pm.Provider != "primary" {
		t.Fatalf("parse meta: %+v", pm)
	}
}

func TestParser_Parse_GatewayExhausted_Degrades(t *testing.T) {
	g := stubGateway{err: fmt.Errorf("wrap: %w", inference.ErrAllProvidersExhausted)}
	p := NewParser(g, nil)

	f, pm, err := p.Parse(context.Background(), "nhà riêng thanh xuân 3-4 tỷ")
	if err != nil {
		t.Fatalf("gateway exhaustion must not fail the parse: %v", err)
	}
	if f.District == nil || *f.District != "Thanh Xuân" {
		t.Fatalf("heuristic district: %+v", f.District)
	}
	if f.MinPrice == nil || *f.MinPrice != 3_000_000_000 {
		t.Fatalf("heuristic min price: %+v", f.MinPrice)
	}
	if f.MaxPrice == nil || *f.MaxPrice != 4_000_000_000 {
		t.Fatalf("heuristic max price: %+v", f.MaxPrice)
	}
	if !pm.Heuristic {
		t.Fatal("expected heuristic parse meta")
	}
}

func TestParser_Parse_EmptyQuery(t *testing.T) {
	p := NewParser(stubGateway{err: inference.ErrAllProvidersExhausted}, nil)
	f, _, err := p.Parse(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !f.Empty() {
		t.Fatalf("expected empty filters, got %+v", f)
	}
}

func TestHeuristicParse_Under(t *testing.T) {
	f := heuristicParse("chung cư dưới 2,5 tỷ tây hồ")
	if f.MaxPrice == nil || *f.MaxPrice != 2_500_000_000 {
		t.Fatalf("max price: %+v", f.MaxPrice)
	}
	if f.MinPrice != nil {
		t.Fatalf("min price must be nil")
	}
	if f.District == nil || *f.District != "Tây Hồ" {
		t.Fatalf("district: %+v", f.District)
	}
}

func TestHeuristicParse_Rent(t *testing.T) {
	f := heuristicParse("cho thuê căn hộ hà đông")
	if f.Intent != "thuê" {
		t.Fatalf("intent: %q", f.Intent)
	}
	if f.PropertyType == nil || *f.PropertyType != listing.PropertyApartment {
		t.Fatalf("property type: %+v", f.PropertyType)
	}
}
