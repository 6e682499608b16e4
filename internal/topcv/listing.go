package topcv

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

// Extractor parses TopCV markup into pipeline types. It is stateless apart
// from the base URL and logger, so parsing identical markup always yields
// identical output.
type Extractor struct {
	base   *url.URL
	logger *zap.Logger
}

// NewExtractor builds an Extractor resolving relative links against baseURL.
func NewExtractor(baseURL string, logger *zap.Logger) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Extractor{base: base, logger: logger}, nil
}

// SearchURL returns the search-result URL for keyword at the given page.
func (e *Extractor) SearchURL(keyword string, page int) string {
	return SearchPageURL(e.base, keyword, page)
}

// ParseListingPage extracts the listing summaries from one search-result
// page. A listing missing its title or URL is skipped with a logged reason;
// missing optional fields yield empty values. An empty slice means the page
// has no listings.
func (e *Extractor) ParseListingPage(markup []byte) []crawler.ListingSummary {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		e.logger.Warn("listing page markup unreadable", zap.Error(err))
		return nil
	}

	var summaries []crawler.ListingSummary
	doc.Find("div.job-item-search-result").Each(func(i int, job *goquery.Selection) {
		titleLink := job.Find("h3.title a[href]").First()
		title := cleanText(titleLink)
		href, _ := titleLink.Attr("href")
		jobURL := CanonicalURL(e.base, href)
		if title == "" || jobURL == "" {
			e.logger.Warn("skipping listing without title or url",
				zap.Int("position", i),
				zap.String("title", title),
				zap.String("href", href),
			)
			return
		}

		companyLink := job.Find("a.company[href]").First()
		companyHref, _ := companyLink.Attr("href")

		summaries = append(summaries, crawler.ListingSummary{
			Title:      title,
			JobURL:     jobURL,
			Company:    cleanText(job.Find("a.company .company-name").First()),
			CompanyURL: CanonicalURL(e.base, companyHref),
			Salary:     cleanText(job.Find("label.title-salary").First()),
			Address:    cleanText(job.Find("label.address .city-text").First()),
			Experience: cleanText(job.Find("label.exp span").First()),
		})
	})
	return summaries
}
