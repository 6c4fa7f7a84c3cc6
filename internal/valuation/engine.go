package valuation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/domain/valuation"
)

// ErrInsufficientData is returned when the comparable pool is too small to
// produce a defensible estimate. Match it with errors.Is; the concrete error
// carries the observed pool size.
var ErrInsufficientData = errors.New("insufficient comparable data")

// InsufficientDataError reports how many comparables were found versus how
// many the engine requires.
type InsufficientDataError struct {
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient comparable data: found %d listings, need at least %d", e.Samples, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// PoolQuery describes the comparable pool the engine needs: same district and
// property type, matching bedrooms when requested, area within a tolerance
// band, and only recently scraped active listings.
type PoolQuery struct {
	PropertyType string
	District     string
	Bedrooms     *int
	AreaMin      float64
	AreaMax      float64
	Since        time.Time
}

// PoolSource loads comparable listings for a pool query. The source is
// responsible for excluding listings without a usable price or area.
type PoolSource interface {
	Comparables(ctx context.Context, q PoolQuery) ([]valuation.Comparable, error)
}

// Config tunes the comparative market analysis.
type Config struct {
	MinSamples    int
	MaxNeighbors  int
	AreaTolerance float64
	RecencyWindow time.Duration
	LowPercentile float64
	HiPercentile  float64
}

func (c *Config) applyDefaults() {
	if c.MinSamples <= 0 {
		c.MinSamples = 5
	}
	if c.MaxNeighbors <= 0 {
		c.MaxNeighbors = 15
	}
	if c.AreaTolerance <= 0 {
		c.AreaTolerance = 0.3
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = 90 * 24 * time.Hour
	}
	if c.LowPercentile <= 0 {
		c.LowPercentile = 0.10
	}
	if c.HiPercentile <= 0 || c.HiPercentile >= 1 {
		c.HiPercentile = 0.90
	}
}

// Distance weights. Area difference dominates; the ward match is a coarse
// location proxy because exact coordinates are not available.
const (
	areaWeight     = 0.7
	locationWeight = 0.3
	weightFloor    = 0.1
)

// Engine produces price estimates from comparable active listings using a
// weighted k-nearest-neighbors analysis over the pool.
type Engine struct {
	cfg    Config
	source PoolSource
	logger *log.Logger

	now func() time.Time
}

func NewEngine(cfg Config, source PoolSource, logger *log.Logger) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:    cfg,
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Estimate runs the comparative market analysis for the request. It returns
// an InsufficientDataError when the pool is smaller than the configured
// minimum; the numeric result never depends on any model call.
func (e *Engine) Estimate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	if req.AreaM2 <= 0 {
		return nil, fmt.Errorf("valuation request: area must be positive, got %.2f", req.AreaM2)
	}
	if req.District == "" || req.PropertyType == "" {
		return nil, errors.New("valuation request: district and property type are required")
	}

	q := PoolQuery{
		PropertyType: string(req.PropertyType),
		District:     req.District,
		Bedrooms:     req.Bedrooms,
		AreaMin:      req.AreaM2 * (1 - e.cfg.AreaTolerance),
		AreaMax:      req.AreaM2 * (1 + e.cfg.AreaTolerance),
		Since:        e.now().Add(-e.cfg.RecencyWindow),
	}

	pool, err := e.source.Comparables(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load comparables: %w", err)
	}
	if len(pool) < e.cfg.MinSamples {
		return nil, &InsufficientDataError{Samples: len(pool), Required: e.cfg.MinSamples}
	}

	neighbors := e.selectNeighbors(req, pool)

	suggestedPerM2 := weightedMean(neighbors)
	low := weightedPercentile(neighbors, e.cfg.LowPercentile)
	high := weightedPercentile(neighbors, e.cfg.HiPercentile)

	priceSuggested := int64(math.Round(suggestedPerM2 * req.AreaM2))
	priceMin := int64(math.Round(low * req.AreaM2))
	priceMax := int64(math.Round(high * req.AreaM2))

	// Percentile bands are computed from neighbor values while the suggested
	// price is a weighted mean over the same set, so keep the band inclusive.
	if priceMin > priceSuggested {
		priceMin = priceSuggested
	}
	if priceMax < priceSuggested {
		priceMax = priceSuggested
	}

	res := &valuation.Result{
		ID:             uuid.New(),
		Request:        req,
		PriceMin:       priceMin,
		PriceMax:       priceMax,
		PriceSuggested: priceSuggested,
		PricePerM2:     int64(math.Round(suggestedPerM2)),
		Confidence:     e.confidence(len(pool), neighbors),
		MarketSamples:  len(pool),
		Comparables:    neighbors,
		CreatedAt:      e.now(),
	}

	if e.logger != nil {
		e.logger.Printf("[Valuation] district=%s type=%s area=%.1f pool=%d neighbors=%d suggested=%d confidence=%d",
			req.District, req.PropertyType, req.AreaM2, len(pool), len(neighbors), res.PriceSuggested, res.Confidence)
	}
	return res, nil
}

// selectNeighbors ranks the pool by distance to the request and keeps the
// closest MaxNeighbors, assigning each an inverse-distance weight.
func (e *Engine) selectNeighbors(req valuation.Request, pool []valuation.Comparable) []valuation.Comparable {
	ranked := make([]valuation.Comparable, len(pool))
	copy(ranked, pool)
	for i := range ranked {
		ranked[i].Distance = distance(req, ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Distance != ranked[j].Distance {
			return ranked[i].Distance < ranked[j].Distance
		}
		return ranked[i].ScrapedAt.After(ranked[j].ScrapedAt)
	})

	k := e.cfg.MaxNeighbors
	if k > len(ranked) {
		k = len(ranked)
	}
	ranked = ranked[:k]
	for i := range ranked {
		ranked[i].Weight = 1.0 / (ranked[i].Distance + weightFloor)
	}
	return ranked
}

// distance combines the normalized area difference with a ward proximity
// proxy. A missing ward on either side counts as half-distance instead of
// penalizing the comparable outright.
func distance(req valuation.Request, c valuation.Comparable) float64 {
	areaDiff := math.Abs(c.AreaM2-req.AreaM2) / req.AreaM2

	loc := 0.5
	if req.Ward != "" && c.Ward != "" {
		if req.Ward == c.Ward {
			loc = 0.0
		} else {
			loc = 1.0
		}
	}
	return areaWeight*areaDiff + locationWeight*loc
}

func weightedMean(neighbors []valuation.Comparable) float64 {
	var sum, total float64
	for _, n := range neighbors {
		sum += n.Weight * float64(n.PricePerM2)
		total += n.Weight
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// weightedPercentile returns the price per m2 at which the cumulative weight
// reaches the given fraction of the total, over neighbors sorted by price.
func weightedPercentile(neighbors []valuation.Comparable, p float64) float64 {
	sorted := make([]valuation.Comparable, len(neighbors))
	copy(sorted, neighbors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PricePerM2 < sorted[j].PricePerM2
	})

	var total float64
	for _, n := range sorted {
		total += n.Weight
	}
	if total == 0 {
		return 0
	}

	target := p * total
	var cum float64
	for _, n := range sorted {
		cum += n.Weight
		if cum >= target {
			return float64(n.PricePerM2)
		}
	}
	return float64(sorted[len(sorted)-1].PricePerM2)
}

// confidence scores the estimate from 0 to 100 using only pool size and the
// dispersion of neighbor prices. The same inputs always yield the same score.
func (e *Engine) confidence(poolSize int, neighbors []valuation.Comparable) int {
	base := poolSize * 4
	if base > 60 {
		base = 60
	}

	mean := weightedMean(neighbors)
	if mean <= 0 {
		return clampConfidence(base)
	}
	var variance, total float64
	for _, n := range neighbors {
		d := float64(n.PricePerM2) - mean
		variance += n.Weight * d * d
		total += n.Weight
	}
	cv := math.Sqrt(variance/total) / mean

	tightness := 40 * (1 - 2*cv)
	if tightness < 0 {
		tightness = 0
	}
	return clampConfidence(base + int(math.Round(tightness)))
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
