package newswire

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"SentiPull/internal/domain/models"
	applogger "SentiPull/pkg/logger"
)

// Source defines one newswire listing to scrape.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // {ticker} replaced with the lower-cased ticker
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors are the CSS selectors for extracting headline data from
// a listing page.
type Selectors struct {
	Container string
	Title     string
	URL       string
	Summary   string
}

// Scraper pulls financial headlines from configured sources and
// implements repository.PostSupply. It is an optional supplement to
// the Reddit supply; headlines flow through the same scoring path.
type Scraper struct {
	sources      []Source
	timeout      time.Duration
	maxHeadlines int
	userAgent    string
	logger       *applogger.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// NewScraper creates a headline scraper over the default sources.
func NewScraper(lgr *applogger.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		sources:      defaultSources(),
		timeout:      15 * time.Second,
		maxHeadlines: 20,
		userAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		logger:       lgr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSources replaces the source table.
func WithSources(sources []Source) Option {
	return func(s *Scraper) {
		if len(sources) > 0 {
			s.sources = sources
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxHeadlines caps the total headlines per fetch.
func WithMaxHeadlines(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.maxHeadlines = n
		}
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={ticker}",
			Selectors: Selectors{
				Container: "table.fullview-news-outer tr",
				Title:     "a.tab-link-news",
				URL:       "a.tab-link-news",
				Summary:   "",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "marketwatch",
			BaseURL:    "https://www.marketwatch.com",
			SearchPath: "/investing/stock/{ticker}",
			Selectors: Selectors{
				Container: "div.article__content",
				Title:     "a.link",
				URL:       "a.link",
				Summary:   "p.article__summary",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

func (s *Scraper) Name() string { return "newswire" }

// FetchPosts scrapes headlines for the ticker from every source.
// Listing pages rarely carry timestamps, so headlines are stamped at
// fetch time; the [from, to] range is accepted for interface parity.
func (s *Scraper) FetchPosts(ctx context.Context, ticker string, from, to time.Time) ([]models.Post, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	perSource := s.maxHeadlines / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []models.Post
	for _, src := range s.sources {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}
		posts, err := s.scrapeSource(src, ticker, perSource)
		if err != nil {
			s.logger.Warn("newswire source failed",
				applogger.String("source", src.Name),
				applogger.String("ticker", ticker),
				applogger.Error(err))
			continue
		}
		all = append(all, posts...)
		time.Sleep(src.RateLimit)
	}

	s.logger.Debug("newswire headlines fetched",
		applogger.String("ticker", ticker),
		applogger.Int("headlines", len(all)))
	return all, nil
}

func (s *Scraper) scrapeSource(src Source, ticker string, max int) ([]models.Post, error) {
	var posts []models.Post
	now := time.Now().UTC()

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(src.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
	})

	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		if len(posts) >= max {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(src.Selectors.URL, "href")
		if link == "" {
			return
		}
		if !strings.HasPrefix(link, "http") {
			link = src.BaseURL + link
		}
		var summary string
		if src.Selectors.Summary != "" {
			summary = strings.TrimSpace(e.ChildText(src.Selectors.Summary))
		}
		posts = append(posts, models.Post{
			ID:        headlineID(src.Name, link),
			Ticker:    ticker,
			Source:    "news/" + src.Name,
			Title:     title,
			Body:      summary,
			URL:       link,
			CreatedAt: now,
		})
	})

	searchURL := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{ticker}", strings.ToLower(ticker))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", searchURL, err)
	}
	c.Wait()

	// Headlines alone carry little lexicon signal; pull article bodies
	// for the ones that came back bare.
	for i := range posts {
		if len(posts[i].Body) >= 100 {
			continue
		}
		if body := s.fetchArticleBody(posts[i].URL); body != "" {
			posts[i].Body = body
		}
	}
	return posts, nil
}

// fetchArticleBody extracts paragraph text from an article page with
// goquery. Best effort; an empty string leaves the headline as-is.
func (s *Scraper) fetchArticleBody(articleURL string) string {
	var body string

	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
	})
	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.Body)))
		if err != nil {
			return
		}
		var paragraphs []string
		doc.Find("article p, div.article-body p, div.content-body p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		body = strings.Join(paragraphs, "\n\n")
	})

	if err := c.Visit(articleURL); err != nil {
		s.logger.Debug("article fetch failed",
			applogger.String("url", articleURL),
			applogger.Error(err))
		return ""
	}
	return body
}

func headlineID(source, link string) string {
	sum := sha1.Sum([]byte(link))
	return source + "-" + hex.EncodeToString(sum[:8])
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
