package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
)

// errCrumbRejected marks a 401 from an endpoint that checks the session crumb.
var errCrumbRejected = errors.New("yahoo: crumb rejected")

// yahooSummaryModules are the quoteSummary modules that carry the fundamentals we read.
var yahooSummaryModules = []string{"price", "summaryDetail", "defaultKeyStatistics", "financialData", "assetProfile"}

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
//
// quoteSummary only answers requests that carry a crumb bound to the session
// cookie, so the client keeps a cookie jar and the crumb is fetched once and
// shared by all workers until Yahoo rejects it.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	CookieURL string            // sets the session cookie the crumb is bound to
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil) // only fails on a bad PublicSuffixList
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
		BaseURL:   yahooBaseURL,
		CookieURL: yahooCookieURL,
		SymbolMap: map[string]string{},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol applies the symbol map, then Yahoo's share-class convention (BRK.B -> BRK-B).
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(strings.ToUpper(symbol), ".", "-")
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper. An empty object means
// the field is not reported.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string     `json:"longName"`
				ShortName string     `json:"shortName"`
				MarketCap yahooValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE yahooValue `json:"trailingPE"`
				ForwardPE  yahooValue `json:"forwardPE"`
				MarketCap  yahooValue `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PriceToBook yahooValue `json:"priceToBook"`
				ForwardPE   yahooValue `json:"forwardPE"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				ReturnOnEquity yahooValue `json:"returnOnEquity"`
				RevenueGrowth  yahooValue `json:"revenueGrowth"`
				DebtToEquity   yahooValue `json:"debtToEquity"`
				FreeCashflow   yahooValue `json:"freeCashflow"`
			} `json:"financialData"`
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (f *YahooFetcher) do(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: yahoo fetch: %w", model.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: yahoo read body: %w", model.ErrProviderFailure, err)
	}
	return resp.StatusCode, body, nil
}

func (f *YahooFetcher) get(ctx context.Context, u string, out any) error {
	status, body, err := f.do(ctx, u)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w: body: %s", model.ErrProviderFailure, errCrumbRejected, truncate(string(body), 200))
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: yahoo: status %d, body: %s", model.ErrProviderFailure, status, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: yahoo decode: %w", model.ErrProviderFailure, err)
	}
	return nil
}

// getWithCrumb appends the session crumb to u. A rejected crumb is refreshed
// and the request retried once.
func (f *YahooFetcher) getWithCrumb(ctx context.Context, u string, out any) error {
	for attempt := 0; ; attempt++ {
		crumb, err := f.sessionCrumb(ctx)
		if err != nil {
			return err
		}
		err = f.get(ctx, u+"&crumb="+url.QueryEscape(crumb), out)
		if attempt == 0 && errors.Is(err, errCrumbRejected) {
			f.dropCrumb(crumb)
			continue
		}
		return err
	}
}

// sessionCrumb returns the cached crumb, fetching it on first use. Concurrent
// callers wait on the lock so the handshake runs once.
func (f *YahooFetcher) sessionCrumb(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	// The cookie endpoint usually answers 404; only the Set-Cookie matters.
	if f.CookieURL != "" {
		if _, _, err := f.do(ctx, f.CookieURL); err != nil {
			return "", err
		}
	}
	status, body, err := f.do(ctx, f.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", err
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", fmt.Errorf("%w: yahoo crumb: status %d, body: %s", model.ErrProviderFailure, status, truncate(crumb, 200))
	}
	f.crumb = crumb
	return crumb, nil
}

// dropCrumb forgets stale unless another worker already replaced it.
func (f *YahooFetcher) dropCrumb(stale string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb == stale {
		f.crumb = ""
	}
}

// chartRange picks the smallest Yahoo range that covers the requested number of sessions.
func chartRange(days int) string {
	switch {
	case days <= 20:
		return "1mo"
	case days <= 60:
		return "3mo"
	case days <= 120:
		return "6mo"
	case days <= 250:
		return "1y"
	case days <= 500:
		return "2y"
	default:
		return "5y"
	}
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), chartRange(days))

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", model.ErrProviderFailure, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no price history for %s", model.ErrDataUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	// Prefer split and dividend adjusted closes when Yahoo supplies them.
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		closes = result.Indicators.AdjClose[0].AdjClose
	}

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue // skip null bars (holidays, halts)
		}
		points = append(points, model.PricePoint{Time: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no price history for %s", model.ErrDataUnavailable, symbol)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}

func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), strings.Join(yahooSummaryModules, ","))

	var summary yahooSummary
	if err := f.getWithCrumb(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", model.ErrProviderFailure, summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no fundamentals for %s", model.ErrProviderFailure, symbol)
	}

	r := summary.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	if name == "" {
		name = symbol
	}

	return &model.Fundamentals{
		Name:           name,
		Sector:         r.AssetProfile.Sector,
		TrailingPE:     r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:      firstOf(r.SummaryDetail.ForwardPE.Raw, r.DefaultKeyStatistics.ForwardPE.Raw),
		PriceToBook:    r.DefaultKeyStatistics.PriceToBook.Raw,
		ReturnOnEquity: r.FinancialData.ReturnOnEquity.Raw,
		RevenueGrowth:  r.FinancialData.RevenueGrowth.Raw,
		DebtToEquity:   r.FinancialData.DebtToEquity.Raw,
		MarketCap:      firstOf(r.Price.MarketCap.Raw, r.SummaryDetail.MarketCap.Raw),
		FreeCashflow:   r.FinancialData.FreeCashflow.Raw,
	}, nil
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
