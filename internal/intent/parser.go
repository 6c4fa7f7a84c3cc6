package intent

import (
	"context"
	"fmt"
	"log"

	"bds-sync/internal/inference"
)

type inferencer interface {
	Infer(ctx context.Context, prompt string, out any) (inference.Meta, error)
}

// Parser turns Vietnamese free-text queries into Filters through the
// inference gateway. An exhausted gateway degrades to the heuristic
// parse, never to an error: search then runs filter-only.
type Parser struct {
	gateway inferencer
	logger  *log.Logger
}

func NewParser(gateway inferencer, logger *log.Logger) *Parser {
	return &Parser{gateway: gateway, logger: logger}
}

const parsePromptFormat = `Phân tích query tìm kiếm bất động sản và trả về JSON:

Query: %s

Trả về CHÍNH XÁC JSON format (không có text khác):
{
    "property_type": "chung cư | nhà riêng | biệt thự | đất nền | nhà mặt phố | null",
    "location": {
        "city": "Hà Nội | Hồ Chí Minh",
        "district": "tên quận/huyện hoặc null"
    },
    "price": {"min": số_tiền_VND_hoặc_null, "max": số_tiền_VND_hoặc_null},
    "area": {"min": số_m2_hoặc_null, "max": số_m2_hoặc_null},
    "bedrooms": số_hoặc_null,
    "intent": "mua | thuê"
}

Lưu ý quan trọng:
- 1 tỷ = 1000000000, 1 triệu = 1000000, "80m2" = 80
- Quận/Huyện Hà Nội: Cầu Giấy, Đống Đa, Ba Đình, Hoàn Kiếm, Thanh Xuân, Hai Bà Trưng, Long Biên, Tây Hồ, Nam Từ Liêm, Bắc Từ Liêm, Hà Đông
- NẾU query có tên quận/huyện, PHẢI điền vào "district"
- Trường nào không chắc chắn thì để null, KHÔNG đoán số 0`

// ParseMeta records how the filters were obtained so the search
// response can disclose degraded parses.
type ParseMeta struct {
	Provider  string
	Fallback  bool
	Heuristic bool
}

// Parse extracts structured filters from the query. The returned
// Filters may be empty; the error is always nil for gateway failures
// (local recovery), non-nil only for context cancellation.
func (p *Parser) Parse(ctx context.Context, query string) (Filters, ParseMeta, error) {
	if query == "" {
		return Filters{}, ParseMeta{}, nil
	}

	var parsed parsedIntent
	meta, err := p.gateway.Infer(ctx, fmt.Sprintf(parsePromptFormat, query), &parsed)
	if err != nil {
		if ctx.Err() != nil {
			return Filters{}, ParseMeta{}, ctx.Err()
		}
		if p.logger != nil {
			p.logger.Printf("[Intent] gateway exhausted, heuristic parse | err=%v", err)
		}
		return heuristicParse(query), ParseMeta{Heuristic: true}, nil
	}

	pm := ParseMeta{Provider: meta.Provider, Fallback: meta.Fallback}

	f := parsed.toFilters()
	if f.Empty() {
		// The model answered but extracted nothing; the heuristic pass
		// may still find numerals the model dropped.
		if hf := heuristicParse(query); !hf.Empty() {
			pm.Heuristic = true
			return hf, pm, nil
		}
	}

	if p.logger != nil {
		p.logger.Printf("[Intent] parsed | provider=%s fallback=%t district=%v", meta.Provider, meta.Fallback, deref(f.District))
	}
	return f, pm, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
