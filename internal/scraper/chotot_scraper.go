package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bds-sync/internal/domain/listing"
)

// ChototScraper reads the portal's public ad-listing JSON gateway
// instead of scraping HTML.
type ChototScraper struct {
	client   *http.Client
	apiBase  string
	siteBase string
}

func NewChototScraper() *ChototScraper {
	return NewChototScraperWithBaseURL("https://gateway.chotot.com", "https://www.nhatot.com")
}

func NewChototScraperWithBaseURL(apiBase, siteBase string) *ChototScraper {
	return &ChototScraper{
		client:   &http.Client{Timeout: 10 * time.Second},
		apiBase:  strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		siteBase: strings.TrimRight(strings.TrimSpace(siteBase), "/"),
	}
}

func (s *ChototScraper) Name() string { return "chotot" }

type chototAd struct {
	ListID    int64    `json:"list_id"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	PriceText string   `json:"price_string"`
	Price     *int64   `json:"price"`
	Size      *float64 `json:"size"`
	Area      string   `json:"area_name"`
	Region    string   `json:"region_name"`
	Ward      string   `json:"ward_name"`
	Rooms     *int     `json:"rooms"`
	Category  string   `json:"category_name"`
	ListTime  int64    `json:"list_time"`
}

type chototResponse struct {
	Total int        `json:"total"`
	Ads   []chototAd `json:"ads"`
}

func (s *ChototScraper) Search(ctx context.Context, q Query) ([]listing.RawListing, error) {
	endpoint := s.apiBase + "/v1/public/ad-listing?cg=1000&limit=50&st=s"
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		endpoint += "&q=" + url.QueryEscape(kw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", httpHeaders()["User-Agent"])
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chotot gateway status %d", resp.StatusCode)
	}

	var payload chototResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	district := strings.TrimSpace(q.District)
	out := make([]listing.RawListing, 0, len(payload.Ads))
	for _, ad := range payload.Ads {
		if ad.ListID == 0 || strings.TrimSpace(ad.Subject) == "" {
			continue
		}
		if district != "" && !strings.EqualFold(strings.TrimSpace(ad.Area), district) {
			continue
		}

		raw := listing.RawListing{
			Title:          strings.TrimSpace(ad.Subject),
			Description:    strings.TrimSpace(ad.Body),
			PriceText:      strings.TrimSpace(ad.PriceText),
			District:       strings.TrimSpace(ad.Area),
			Ward:           strings.TrimSpace(ad.Ward),
			City:           strings.TrimSpace(ad.Region),
			PropertyType:   strings.ToLower(strings.TrimSpace(ad.Category)),
			Bedrooms:       ad.Rooms,
			SourceURL:      fmt.Sprintf("%s/%d.htm", s.siteBase, ad.ListID),
			SourcePlatform: s.Name(),
			ScrapedAt:      time.Now().UTC(),
		}
		if ad.Price != nil && raw.PriceText == "" {
			raw.PriceText = strconv.FormatInt(*ad.Price, 10)
		}
		if ad.Size != nil {
			raw.AreaText = strconv.FormatFloat(*ad.Size, 'f', -1, 64) + "m2"
		}
		if ad.ListTime > 0 {
			raw.ScrapedAt = time.UnixMilli(ad.ListTime).UTC()
		}
		out = append(out, raw)
	}
	return dedupeByURL(out), nil
}
