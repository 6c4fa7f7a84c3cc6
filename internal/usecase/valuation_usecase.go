package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/inference"
	"bds-sync/internal/repository"
	valengine "bds-sync/internal/valuation"
)

type ValuationUsecase interface {
	Estimate(ctx context.Context, req valuation.Request) (*valuation.Result, error)
	History(ctx context.Context, limit, offset int) ([]repository.HistoryEntry, error)
}

type estimator interface {
	Estimate(ctx context.Context, req valuation.Request) (*valuation.Result, error)
}

type narrator interface {
	Infer(ctx context.Context, prompt string, out any) (inference.Meta, error)
}

type DefaultValuationUsecase struct {
	engine  estimator
	gateway narrator
	history repository.ValuationHistoryRepository
	logger  *log.Logger
}

func NewValuationUsecase(
	engine estimator,
	gateway narrator,
	history repository.ValuationHistoryRepository,
	logger *log.Logger,
) *DefaultValuationUsecase {
	return &DefaultValuationUsecase{
		engine:  engine,
		gateway: gateway,
		history: history,
		logger:  logger,
	}
}

const narrativePromptFormat = `Bạn là chuyên gia thẩm định giá bất động sản tại Việt Nam.

Bất động sản cần định giá:
- Loại: %s
- Quận: %s
- Diện tích: %.1f m²

Kết quả phân tích %d tin đăng tương đồng:
- Giá đề xuất: %d VND
- Khoảng giá: %d - %d VND
- Giá trung bình: %d VND/m²

Trả về CHÍNH XÁC JSON format (không có text khác):
{
    "reasoning": "giải thích ngắn gọn mức giá đề xuất",
    "market_comparison": "so sánh với mặt bằng giá khu vực"
}`

type narrativeOutput struct {
	Reasoning        string `json:"reasoning"`
	MarketComparison string `json:"market_comparison"`
}

// Estimate runs the numeric analysis and then asks the gateway for the
// narrative. The numbers never depend on the narrative: a dead gateway
// means an estimate without prose, not a failed estimate.
func (u *DefaultValuationUsecase) Estimate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	res, err := u.engine.Estimate(ctx, req)
	if err != nil {
		if errors.Is(err, valengine.ErrInsufficientData) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	u.attachNarrative(ctx, res)

	if u.history != nil {
		if err := u.history.Save(ctx, res); err != nil && u.logger != nil {
			u.logger.Printf("[Valuation] history write failed | id=%s err=%v", res.ID, err)
		}
	}
	return res, nil
}

func (u *DefaultValuationUsecase) attachNarrative(ctx context.Context, res *valuation.Result) {
	if u.gateway == nil {
		return
	}

	prompt := fmt.Sprintf(narrativePromptFormat,
		res.Request.PropertyType, res.Request.District, res.Request.AreaM2,
		res.MarketSamples,
		res.PriceSuggested, res.PriceMin, res.PriceMax, res.PricePerM2,
	)

	var out narrativeOutput
	if _, err := u.gateway.Infer(ctx, prompt, &out); err != nil {
		if u.logger != nil {
			u.logger.Printf("[Valuation] narrative skipped | err=%v", err)
		}
		return
	}
	res.Reasoning = out.Reasoning
	res.MarketComparison = out.MarketComparison
}

func (u *DefaultValuationUsecase) History(ctx context.Context, limit, offset int) ([]repository.HistoryEntry, error) {
	if u.history == nil {
		return []repository.HistoryEntry{}, nil
	}
	entries, err := u.history.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return entries, nil
}
