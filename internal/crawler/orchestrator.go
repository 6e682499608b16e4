package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/clock"
	"github.com/minhtran-vn/topcv-crawler/internal/telemetry"
)

const dateLayout = "2006-01-02"

// Site bundles everything the orchestrator needs to know about the target
// portal: how to build search URLs and how to parse its three page types.
type Site interface {
	SearchURL(keyword string, page int) string
	ListingParser
	DetailParser
	CompanyParser
}

// Slugger names per-keyword outputs; implemented by the site package.
type Slugger interface {
	Slug(keyword string) string
}

// Options are the validated inputs of one crawl run.
type Options struct {
	Keywords  []string
	StartPage int
	EndPage   int
	// CrawlDate overrides the run date (YYYY-MM-DD); empty means the
	// clock's current date at run start.
	CrawlDate string
	// FetchCompanyPages enables the company-page enrichment fetch.
	FetchCompanyPages bool
	// DetailWorkers bounds concurrent detail fetches within one search
	// page. 0 or 1 means sequential. The fetcher's shared limiter keeps
	// the global inter-request spacing either way.
	DetailWorkers int
}

// Validate fails fast on inputs that must never reach the network.
func (o Options) Validate() error {
	if len(o.Keywords) == 0 {
		return &ConfigError{Field: "keywords", Reason: "at least one keyword is required"}
	}
	for _, kw := range o.Keywords {
		if strings.TrimSpace(kw) == "" {
			return &ConfigError{Field: "keywords", Reason: "keywords must not be blank"}
		}
	}
	if o.StartPage < 1 {
		return &ConfigError{Field: "start_page", Reason: "must be >= 1"}
	}
	if o.EndPage < o.StartPage {
		return &ConfigError{Field: "end_page", Reason: "must be >= start_page"}
	}
	if o.DetailWorkers < 0 {
		return &ConfigError{Field: "detail_workers", Reason: "must be >= 0"}
	}
	if o.CrawlDate != "" {
		if _, err := time.Parse(dateLayout, o.CrawlDate); err != nil {
			return &ConfigError{Field: "crawl_date", Reason: "must be YYYY-MM-DD"}
		}
	}
	return nil
}

// Orchestrator drives the fetch/parse pipeline across keywords and pages.
type Orchestrator struct {
	opts    Options
	fetcher Fetcher
	site    Site
	slugger Slugger
	clock   clock.Clock
	logger  *zap.Logger
}

// NewOrchestrator wires the run collaborators together.
func NewOrchestrator(
	opts Options,
	fetcher Fetcher,
	site Site,
	slugger Slugger,
	clk clock.Clock,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		opts:    opts,
		fetcher: fetcher,
		site:    site,
		slugger: slugger,
		clock:   clk,
		logger:  logger,
	}
}

// detailOutcome caches the detail-side work for one canonical job URL so a
// listing surfacing under several keywords is fetched once.
type detailOutcome struct {
	fields  DetailFields
	company CompanyProfile
	partial bool
}

// runState is the run-scoped mutable state. It is only ever touched from
// the orchestrator goroutine; detail workers report through their own
// result slots.
type runState struct {
	outcomes     map[string]detailOutcome
	combinedSeen map[string]struct{}
	result       *Result
}

// Run executes the crawl. Configuration problems surface as *ConfigError
// before any network call. On cancellation the accumulated Result is
// returned alongside the context error so partial output can still be
// assembled.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if err := o.opts.Validate(); err != nil {
		return Result{}, err
	}

	crawlDate := o.opts.CrawlDate
	if crawlDate == "" {
		crawlDate = o.clock.Now().Format(dateLayout)
	}
	result := Result{
		RunID:     uuid.NewString(),
		CrawlDate: crawlDate,
	}
	st := &runState{
		outcomes:     make(map[string]detailOutcome),
		combinedSeen: make(map[string]struct{}),
		result:       &result,
	}

	o.logger.Info("crawl started",
		zap.String("run_id", result.RunID),
		zap.String("crawl_date", crawlDate),
		zap.Strings("keywords", o.opts.Keywords),
		zap.Int("start_page", o.opts.StartPage),
		zap.Int("end_page", o.opts.EndPage),
	)

	for _, kw := range o.opts.Keywords {
		if ctx.Err() != nil {
			break
		}
		kr := o.crawlKeyword(ctx, st, kw, crawlDate)
		result.Keywords = append(result.Keywords, kr)
		o.logger.Info("keyword finished",
			zap.String("keyword", kw),
			zap.Int("records", len(kr.Records)),
			zap.Int("partial", kr.PartialRecords),
			zap.Int("failed_pages", kr.FailedPages),
		)
	}

	if err := ctx.Err(); err != nil {
		o.logger.Warn("crawl canceled; emitting partial results",
			zap.String("run_id", result.RunID),
			zap.Int("keywords_done", len(result.Keywords)),
		)
		return result, err
	}
	return result, nil
}

// crawlKeyword paginates one keyword. A page with zero listings ends the
// keyword early; a failed page is skipped and pagination continues.
func (o *Orchestrator) crawlKeyword(ctx context.Context, st *runState, keyword, crawlDate string) KeywordResult {
	kr := KeywordResult{
		Keyword: keyword,
		Slug:    o.slugger.Slug(keyword),
	}
	seenInKeyword := make(map[string]struct{})

	for page := o.opts.StartPage; page <= o.opts.EndPage; page++ {
		if ctx.Err() != nil {
			return kr
		}
		pageURL := o.site.SearchURL(keyword, page)
		markup, err := o.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return kr
			}
			kr.FailedPages++
			o.logger.Warn("search page fetch failed; skipping page",
				zap.String("keyword", keyword),
				zap.Int("page", page),
				zap.Error(err),
			)
			continue
		}
		kr.PagesFetched++

		summaries := o.site.ParseListingPage(markup)
		if len(summaries) == 0 {
			o.logger.Info("empty search page; stopping pagination",
				zap.String("keyword", keyword),
				zap.Int("page", page),
			)
			break
		}
		telemetry.ObserveListings(kr.Slug, len(summaries))

		o.processPage(ctx, st, &kr, seenInKeyword, summaries, crawlDate)
	}
	return kr
}

// processPage resolves detail outcomes for every new listing on the page,
// then appends records in listing order. Detail fetches may run on a
// bounded worker pool; the dedup maps and accumulators are only written
// here, after the pool has drained.
func (o *Orchestrator) processPage(
	ctx context.Context,
	st *runState,
	kr *KeywordResult,
	seenInKeyword map[string]struct{},
	summaries []ListingSummary,
	crawlDate string,
) {
	type task struct {
		summary  ListingSummary
		outcome  detailOutcome
		resolved bool
	}
	var pending []task
	claimed := make(map[string]struct{})
	for _, s := range summaries {
		if _, done := st.outcomes[s.JobURL]; done {
			continue
		}
		if _, dup := claimed[s.JobURL]; dup {
			continue
		}
		claimed[s.JobURL] = struct{}{}
		pending = append(pending, task{summary: s})
	}

	workers := o.opts.DetailWorkers
	if workers <= 1 || len(pending) <= 1 {
		for i := range pending {
			if ctx.Err() != nil {
				break
			}
			pending[i].outcome = o.resolveDetail(ctx, pending[i].summary)
			pending[i].resolved = true
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i := range pending {
			wg.Add(1)
			sem <- struct{}{}
			go func(t *task) {
				defer wg.Done()
				defer func() { <-sem }()
				t.outcome = o.resolveDetail(ctx, t.summary)
				t.resolved = true
			}(&pending[i])
		}
		wg.Wait()
	}

	for i := range pending {
		if !pending[i].resolved {
			// Run was canceled mid-page; mark partial so already-claimed
			// listings are still emitted rather than silently dropped.
			pending[i].outcome = detailOutcome{partial: true}
		}
		st.outcomes[pending[i].summary.JobURL] = pending[i].outcome
	}

	for _, s := range summaries {
		if _, dup := seenInKeyword[s.JobURL]; dup {
			continue
		}
		seenInKeyword[s.JobURL] = struct{}{}

		out := st.outcomes[s.JobURL]
		rec := buildRecord(crawlDate, kr.Keyword, s, out)
		if out.partial {
			kr.PartialRecords++
		}
		kr.Records = append(kr.Records, rec)

		if _, dup := st.combinedSeen[s.JobURL]; !dup {
			st.combinedSeen[s.JobURL] = struct{}{}
			st.result.Combined = append(st.result.Combined, rec)
		}
	}
}

// resolveDetail fetches and parses one listing's detail page, plus the
// company page when enabled. Fetch or parse failure yields a partial
// outcome; a company-page failure only leaves the company fields empty.
func (o *Orchestrator) resolveDetail(ctx context.Context, s ListingSummary) detailOutcome {
	markup, err := o.fetcher.Fetch(ctx, s.JobURL)
	if err != nil {
		o.logger.Warn("detail fetch failed; recording partial",
			zap.String("url", s.JobURL),
			zap.Error(err),
		)
		telemetry.ObservePartialRecord()
		return detailOutcome{partial: true}
	}

	fields, err := o.site.ParseDetailPage(s.JobURL, markup)
	if err != nil {
		o.logger.Warn("detail parse failed; recording partial",
			zap.String("url", s.JobURL),
			zap.Error(err),
		)
		telemetry.ObservePartialRecord()
		return detailOutcome{partial: true}
	}

	out := detailOutcome{fields: fields}
	if o.opts.FetchCompanyPages {
		out.company = o.resolveCompany(ctx, s, fields)
	}
	return out
}

func (o *Orchestrator) resolveCompany(ctx context.Context, s ListingSummary, fields DetailFields) CompanyProfile {
	companyURL := fields.CompanyURL
	if companyURL == "" {
		companyURL = s.CompanyURL
	}
	if companyURL == "" {
		return CompanyProfile{}
	}
	markup, err := o.fetcher.Fetch(ctx, companyURL)
	if err != nil {
		o.logger.Warn("company fetch failed; leaving company fields empty",
			zap.String("url", companyURL),
			zap.Error(err),
		)
		return CompanyProfile{}
	}
	return o.site.ParseCompanyPage(markup)
}

func buildRecord(crawlDate, keyword string, s ListingSummary, out detailOutcome) JobRecord {
	rec := JobRecord{
		CrawlDate:       crawlDate,
		SearchKeyword:   keyword,
		Title:           s.Title,
		JobURL:          s.JobURL,
		Company:         s.Company,
		SalaryList:      s.Salary,
		AddressList:     s.Address,
		ExpList:         s.Experience,
		Deadline:        out.fields.Deadline,
		DescMoTa:        out.fields.DescMoTa,
		DescYeuCau:      out.fields.DescYeuCau,
		DescQuyenLoi:    out.fields.DescQuyenLoi,
		CompanySize:     out.company.Size,
		CompanyIndustry: out.company.Industry,
		CompanyAddress:  out.company.Address,
		Partial:         out.partial,
	}
	if len(out.fields.Tags) > 0 {
		rec.Tags = append([]string(nil), out.fields.Tags...)
	}
	return rec
}
