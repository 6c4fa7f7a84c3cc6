package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"bds-sync/internal/domain/listing"
)

// BatdongsanScraper walks the listing index pages of a Batdongsan-style
// portal and pulls each detail page. Selectors target the portal's
// product-card markup; a layout change shows up as an empty sweep, not
// a crash.
type BatdongsanScraper struct {
	baseURL     string
	allowedHost string
}

func NewBatdongsanScraper() *BatdongsanScraper {
	return NewBatdongsanScraperWithBaseURL("https://batdongsan.com.vn")
}

func NewBatdongsanScraperWithBaseURL(baseURL string) *BatdongsanScraper {
	s := &BatdongsanScraper{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
	if s.baseURL == "" {
		s.baseURL = "https://batdongsan.com.vn"
	}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

func (s *BatdongsanScraper) Name() string { return "batdongsan" }

func (s *BatdongsanScraper) Search(ctx context.Context, q Query) ([]listing.RawListing, error) {
	pages := q.MaxPages
	if pages <= 0 {
		pages = 1
	}

	links := make([]string, 0)
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pageLinks, err := s.collectLinks(s.listURL(q, page))
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("batdongsan list page: %w", err)
			}
			break
		}
		if len(pageLinks) == 0 {
			break
		}
		links = append(links, pageLinks...)
	}

	var (
		mu  sync.Mutex
		out []listing.RawListing
	)

	pool := NewWorkerPool(4, len(links))
	results := pool.Run(ctx)
	for _, link := range links {
		link := link
		pool.Submit(func(ctx context.Context) error {
			raw, err := s.collectDetail(ctx, link)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, raw)
			mu.Unlock()
			return nil
		})
	}
	pool.Close()

	var firstErr error
	for res := range results {
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return dedupeByURL(out), nil
}

func (s *BatdongsanScraper) listURL(q Query, page int) string {
	path := "/nha-dat-ban"
	if d := slugify(q.District); d != "" {
		path += "-" + d
	}
	u := fmt.Sprintf("%s%s/p%d", s.baseURL, path, page)
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		u += "?keyword=" + url.QueryEscape(kw)
	}
	return u
}

func (s *BatdongsanScraper) collectLinks(listURL string) ([]string, error) {
	c := newCollector(s.allowedHost)

	links := make([]string, 0)
	c.OnHTML("a.js__product-link-for-product-id, a[href*='-pr']", func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		abs := normalizeURL(e.Request.AbsoluteURL(href))
		if abs != "" {
			links = append(links, abs)
		}
	})

	var reqErr error
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(listURL); err != nil {
		return nil, err
	}
	c.Wait()
	if reqErr != nil {
		return nil, reqErr
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func (s *BatdongsanScraper) collectDetail(ctx context.Context, detailURL string) (listing.RawListing, error) {
	if ctx.Err() != nil {
		return listing.RawListing{}, ctx.Err()
	}

	c := newCollector(s.allowedHost)

	raw := listing.RawListing{
		SourceURL:      detailURL,
		SourcePlatform: s.Name(),
		ScrapedAt:      time.Now().UTC(),
	}

	c.OnHTML("h1.re__pr-title, h1", func(e *colly.HTMLElement) {
		if raw.Title == "" {
			raw.Title = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".re__pr-short-description, .re__pr-address", func(e *colly.HTMLElement) {
		if raw.Address == "" {
			raw.Address = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".re__pr-specs-content-item", func(e *colly.HTMLElement) {
		label := strings.ToLower(strings.TrimSpace(e.ChildText(".re__pr-specs-content-item-title")))
		value := strings.TrimSpace(e.ChildText(".re__pr-specs-content-item-value"))
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "mức giá"), strings.Contains(label, "giá"):
			if raw.PriceText == "" {
				raw.PriceText = value
			}
		case strings.Contains(label, "diện tích"):
			if raw.AreaText == "" {
				raw.AreaText = value
			}
		case strings.Contains(label, "phòng ngủ"):
			if n := leadingInt(value); n > 0 {
				raw.Bedrooms = &n
			}
		}
	})
	c.OnHTML(".re__pr-description, .re__detail-content", func(e *colly.HTMLElement) {
		if raw.Description == "" {
			raw.Description = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".re__contact-phone, [data-phone], .phone", func(e *colly.HTMLElement) {
		if raw.PhoneText != "" {
			return
		}
		if p := strings.TrimSpace(e.Attr("data-phone")); p != "" {
			raw.PhoneText = p
			return
		}
		raw.PhoneText = strings.TrimSpace(e.Text)
	})
	c.OnHTML(".re__breadcrumb a, .breadcrumb a", func(e *colly.HTMLElement) {
		// The district crumb reads like "Bán nhà Cầu Giấy".
		text := strings.TrimSpace(e.Text)
		if raw.District == "" {
			if d := districtFromCrumb(text); d != "" {
				raw.District = d
			}
		}
	})

	var reqErr error
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(detailURL); err != nil {
		return listing.RawListing{}, err
	}
	c.Wait()
	if reqErr != nil {
		return listing.RawListing{}, reqErr
	}
	if raw.Title == "" {
		return listing.RawListing{}, fmt.Errorf("empty detail page: %s", detailURL)
	}
	return raw, nil
}

func leadingInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func districtFromCrumb(text string) string {
	for _, prefix := range []string{"Bán nhà ", "Bán căn hộ ", "Nhà đất "} {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return ""
}

// slugify folds a Vietnamese district name into the portal's URL slug,
// e.g. "Cầu Giấy" to "cau-giay".
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('-')
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if folded, ok := vietnameseFold[r]; ok {
				b.WriteRune(folded)
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

var vietnameseFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'ả': 'a', 'ã': 'a', 'ạ': 'a',
	'ă': 'a', 'ằ': 'a', 'ắ': 'a', 'ẳ': 'a', 'ẵ': 'a', 'ặ': 'a',
	'â': 'a', 'ầ': 'a', 'ấ': 'a', 'ẩ': 'a', 'ẫ': 'a', 'ậ': 'a',
	'è': 'e', 'é': 'e', 'ẻ': 'e', 'ẽ': 'e', 'ẹ': 'e',
	'ê': 'e', 'ề': 'e', 'ế': 'e', 'ể': 'e', 'ễ': 'e', 'ệ': 'e',
	'ì': 'i', 'í': 'i', 'ỉ': 'i', 'ĩ': 'i', 'ị': 'i',
	'ò': 'o', 'ó': 'o', 'ỏ': 'o', 'õ': 'o', 'ọ': 'o',
	'ô': 'o', 'ồ': 'o', 'ố': 'o', 'ổ': 'o', 'ỗ': 'o', 'ộ': 'o',
	'ơ': 'o', 'ờ': 'o', 'ớ': 'o', 'ở': 'o', 'ỡ': 'o', 'ợ': 'o',
	'ù': 'u', 'ú': 'u', 'ủ': 'u', 'ũ': 'u', 'ụ': 'u',
	'ư': 'u', 'ừ': 'u', 'ứ': 'u', 'ử': 'u', 'ữ': 'u', 'ự': 'u',
	'ỳ': 'y', 'ý': 'y', 'ỷ': 'y', 'ỹ': 'y', 'ỵ': 'y',
	'đ': 'd',
}
