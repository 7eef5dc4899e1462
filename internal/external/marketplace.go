package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/kjannette/price-optimizer/internal/httputil"
	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

const (
	statisticsPath = "/content/v1/analytics/nm-report/detail"
	pricesPath     = "/public/api/v1/prices"

	// public storefront parameters: Moscow region, rubles
	storefrontDest = "-1257786"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var (
	ErrNotConfigured = errors.New("marketplace API key not configured")
	ErrPriceNotFound = errors.New("price not found")
)

type MarketplaceOptions struct {
	APIKey    string
	BaseURL   string // supplier API
	CardURL   string // public product card API
	SearchURL string // public catalog search
	SiteURL   string // storefront pages
	RPS       float64
}

// MarketplaceClient talks to the supplier API (statistics, prices) and the
// public storefront (cards, search, product pages). All requests share one
// rate limiter.
type MarketplaceClient struct {
	httpClient *http.Client
	retry      httputil.RetryConfig
	limiter    *rate.Limiter
	opts       MarketplaceOptions
}

func NewMarketplaceClient(opts MarketplaceOptions) *MarketplaceClient {
	if opts.RPS <= 0 {
		opts.RPS = 3
	}
	return &MarketplaceClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), 1),
		opts:    opts,
	}
}

// Configured reports whether the supplier API (history, price updates) is usable.
func (c *MarketplaceClient) Configured() bool {
	return c.opts.APIKey != ""
}

// --- supplier API ---

type statisticsResponse struct {
	Data []struct {
		Date          string  `json:"date"`
		FinishedPrice float64 `json:"finishedPrice"`
		Price         float64 `json:"price"`
		Quantity      int     `json:"quantity"`
		RetailAmount  float64 `json:"retail_amount"`
	} `json:"data"`
}

// SalesHistory returns the daily sales of a product for the last `days`
// days. Prices are the discounted price the buyer paid, falling back to the
// list price when the discounted one is missing.
func (c *MarketplaceClient) SalesHistory(ctx context.Context, nmID int64, days int) ([]pricing.PricePoint, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	now := time.Now()
	q := url.Values{}
	q.Set("nmID", strconv.FormatInt(nmID, 10))
	q.Set("dateFrom", now.AddDate(0, 0, -days).Format("2006-01-02"))
	q.Set("dateTo", now.Format("2006-01-02"))
	endpoint := c.opts.BaseURL + statisticsPath + "?" + q.Encode()

	var data statisticsResponse
	if err := c.getJSON(ctx, endpoint, true, &data); err != nil {
		return nil, fmt.Errorf("sales history %d: %w", nmID, err)
	}

	points := make([]pricing.PricePoint, 0, len(data.Data))
	for _, rec := range data.Data {
		ts, err := parseDate(rec.Date)
		if err != nil {
			fmt.Printf("[MARKETPLACE] Skipping record for %d with bad date %q\n", nmID, rec.Date)
			continue
		}
		price := rec.FinishedPrice / 100
		if price == 0 {
			price = rec.Price / 100
		}
		points = append(points, pricing.PricePoint{
			Timestamp: ts,
			Price:     price,
			UnitsSold: rec.Quantity,
			Revenue:   rec.RetailAmount / 100,
		})
	}
	return points, nil
}

// UpdatePrice sets the discounted price of a product, sent in kopecks.
func (c *MarketplaceClient) UpdatePrice(ctx context.Context, nmID int64, price float64) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal([]map[string]int64{{
		"nmId":  nmID,
		"price": int64(math.Round(price * 100)),
	}})
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+pricesPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.opts.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("update price %d: %w", nmID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("update price %d: status %d: %s", nmID, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	fmt.Printf("[MARKETPLACE] Price of %d updated to %.2f\n", nmID, price)
	return nil
}

// --- public storefront ---

type storefrontProduct struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	SubjectName string  `json:"subjectName"`
	SalePriceU  float64 `json:"salePriceU"`
	PriceU      float64 `json:"priceU"`
	Rating      float64 `json:"rating"`
	Feedbacks   int     `json:"feedbacks"`
	SupplierID  int64   `json:"supplierId"`
	Sizes       []struct {
		OrigName string `json:"origName"`
	} `json:"sizes"`
}

type storefrontResponse struct {
	Data struct {
		Products []storefrontProduct `json:"products"`
	} `json:"data"`
}

func (p storefrontProduct) listing() models.Listing {
	sale := p.SalePriceU / 100
	orig := p.PriceU / 100

	var discount float64
	if orig > 0 {
		discount = math.Round((orig-sale)/orig*1000) / 10
	}

	sizes := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, s.OrigName)
	}
	size := "N/A"
	if len(sizes) > 0 {
		size = sizes[0]
	}

	return models.Listing{
		NmID:            p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Category:        p.SubjectName,
		PriceWithDisc:   sale,
		OriginalPrice:   orig,
		DiscountPercent: discount,
		Rating:          p.Rating,
		ReviewsCount:    p.Feedbacks,
		Size:            size,
		AvailableSizes:  sizes,
		SupplierID:      p.SupplierID,
	}
}

func storefrontQuery() url.Values {
	q := url.Values{}
	q.Set("appType", "1")
	q.Set("curr", "rub")
	q.Set("dest", storefrontDest)
	q.Set("spp", "30")
	return q
}

// ProductCard returns the public card of a product, or nil when the
// storefront does not know it.
func (c *MarketplaceClient) ProductCard(ctx context.Context, nmID int64) (*models.Listing, error) {
	q := storefrontQuery()
	q.Set("nm", strconv.FormatInt(nmID, 10))

	var data storefrontResponse
	if err := c.getJSON(ctx, c.opts.CardURL+"?"+q.Encode(), false, &data); err != nil {
		return nil, fmt.Errorf("product card %d: %w", nmID, err)
	}
	if len(data.Data.Products) == 0 {
		return nil, nil
	}
	l := data.Data.Products[0].listing()
	l.NmID = nmID
	return &l, nil
}

// SearchCatalog runs a popularity-sorted catalog search.
func (c *MarketplaceClient) SearchCatalog(ctx context.Context, query string) ([]models.Listing, error) {
	q := storefrontQuery()
	q.Set("query", query)
	q.Set("resultset", "catalog")
	q.Set("sort", "popular")
	q.Set("suppressSpellcheck", "false")

	var data storefrontResponse
	if err := c.getJSON(ctx, c.opts.SearchURL+"?"+q.Encode(), false, &data); err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", query, err)
	}

	out := make([]models.Listing, 0, len(data.Data.Products))
	for _, p := range data.Data.Products {
		out = append(out, p.listing())
	}
	return out, nil
}

const (
	SourceCardAPI     = "wb_api"
	SourceProductPage = "wb_product_page"
)

// FetchPrice looks up the live discounted price of a product, first from
// the card API and then from the product page. It returns the price and
// the source that produced it.
func (c *MarketplaceClient) FetchPrice(ctx context.Context, nmID int64) (float64, string, error) {
	card, err := c.ProductCard(ctx, nmID)
	if err == nil && card != nil && card.PriceWithDisc > 0 {
		return card.PriceWithDisc, SourceCardAPI, nil
	}
	if err != nil {
		fmt.Printf("[MARKETPLACE] Card API failed for %d: %v\n", nmID, err)
	}

	price, err := c.pagePrice(ctx, nmID)
	if err != nil {
		return 0, "", fmt.Errorf("price %d: %w", nmID, err)
	}
	return price, SourceProductPage, nil
}

var (
	// values in kopecks embedded in page state or data attributes
	kopeckPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"salePriceU"\s*:\s*(\d+)`),
		regexp.MustCompile(`data-sale-price="(\d+)"`),
	}
	priceClass = regexp.MustCompile(`(?i)price|cost|sale`)
	nonDigits  = regexp.MustCompile(`\D+`)
)

func (c *MarketplaceClient) pagePrice(ctx context.Context, nmID int64) (float64, error) {
	endpoint := fmt.Sprintf("%s/catalog/%d/detail.aspx", c.opts.SiteURL, nmID)
	html, err := c.getText(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	return ParsePagePrice(html)
}

// ParsePagePrice extracts a ruble price from a product page: embedded
// kopeck values first, then visible price elements.
func ParsePagePrice(html string) (float64, error) {
	for _, re := range kopeckPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			kopecks, err := strconv.ParseFloat(m[1], 64)
			if err == nil && kopecks > 0 {
				return kopecks / 100, nil
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse page: %w", err)
	}

	var price float64
	doc.Find("span, div, ins").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok || !priceClass.MatchString(class) {
			return true
		}
		digits := nonDigits.ReplaceAllString(s.Text(), "")
		if digits == "" {
			return true
		}
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil || v < 10 || v > 1_000_000 {
			return true
		}
		price = v
		return false
	})
	if price == 0 {
		return 0, ErrPriceNotFound
	}
	return price, nil
}

// --- transport helpers ---

func (c *MarketplaceClient) get(ctx context.Context, endpoint string, auth bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if auth {
			req.Header.Set("Authorization", c.opts.APIKey)
		} else {
			req.Header.Set("User-Agent", userAgent)
		}
		req.Header.Set("Accept-Encoding", "gzip, br")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *MarketplaceClient) getJSON(ctx context.Context, endpoint string, auth bool, v any) error {
	resp, err := c.get(ctx, endpoint, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httputil.DecodeJSON(resp, v)
}

func (c *MarketplaceClient) getText(ctx context.Context, endpoint string) (string, error) {
	resp, err := c.get(ctx, endpoint, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	r, err := httputil.Body(resp)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(io.LimitReader(r, 4<<20))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
