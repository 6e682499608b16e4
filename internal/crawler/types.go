// Package crawler defines the core types and orchestration for a crawl run.
package crawler

import (
	"context"
	"strings"
)

// ListingSummary holds the fields obtainable from one search-result entry,
// before visiting the listing's own page.
type ListingSummary struct {
	Title      string
	JobURL     string // absolute, canonical
	Company    string
	CompanyURL string
	Salary     string
	Address    string
	Experience string
}

// DetailFields holds the fields only obtainable from a listing's detail page.
type DetailFields struct {
	Deadline     string
	Tags         []string
	DescMoTa     string
	DescYeuCau   string
	DescQuyenLoi string
	CompanyURL   string
}

// CompanyProfile holds the fields extracted from a company page.
type CompanyProfile struct {
	Size     string
	Industry string
	Address  string
}

// JobRecord is one row of output. Within the combined set of a run it is
// uniquely identified by JobURL.
type JobRecord struct {
	CrawlDate       string
	SearchKeyword   string
	Title           string
	JobURL          string
	Company         string
	SalaryList      string
	AddressList     string
	ExpList         string
	Deadline        string
	Tags            []string
	DescMoTa        string
	DescYeuCau      string
	DescQuyenLoi    string
	CompanySize     string
	CompanyIndustry string
	CompanyAddress  string

	// Partial marks a record whose detail fetch or parse failed; listing
	// fields are populated, detail fields are empty. Not an output column.
	Partial bool
}

// Columns is the fixed output column order shared by every emitted artifact.
var Columns = []string{
	"crawl_date",
	"search_keyword",
	"title",
	"job_url",
	"company",
	"salary_list",
	"address_list",
	"exp_list",
	"deadline",
	"tags",
	"desc_mota",
	"desc_yeucau",
	"desc_quyenloi",
	"company_size",
	"company_industry",
	"company_address",
}

// Row renders the record in Columns order. Tags are joined with "; ".
func (r JobRecord) Row() []string {
	return []string{
		r.CrawlDate,
		r.SearchKeyword,
		r.Title,
		r.JobURL,
		r.Company,
		r.SalaryList,
		r.AddressList,
		r.ExpList,
		r.Deadline,
		strings.Join(r.Tags, "; "),
		r.DescMoTa,
		r.DescYeuCau,
		r.DescQuyenLoi,
		r.CompanySize,
		r.CompanyIndustry,
		r.CompanyAddress,
	}
}

// KeywordResult accumulates the records and counters for one search keyword.
// Records keep first-seen order and intentionally retain listings that also
// matched earlier keywords.
type KeywordResult struct {
	Keyword        string
	Slug           string
	Records        []JobRecord
	PagesFetched   int
	FailedPages    int
	PartialRecords int
}

// Result is the output of one crawl run.
type Result struct {
	RunID     string
	CrawlDate string
	Keywords  []KeywordResult
	// Combined holds one record per distinct JobURL across all keywords,
	// in first-seen order.
	Combined []JobRecord
}

// Fetcher retrieves the raw markup of a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ListingParser extracts listing summaries from a search-result page. An
// empty result means the page has no listings, which ends pagination for
// the current keyword.
type ListingParser interface {
	ParseListingPage(markup []byte) []ListingSummary
}

// DetailParser extracts detail fields from a listing page. It returns a
// *ParseError only when the markup is not recognizable as a job-detail
// page at all; missing individual sections yield empty fields.
type DetailParser interface {
	ParseDetailPage(url string, markup []byte) (DetailFields, error)
}

// CompanyParser extracts the company profile from a company page.
type CompanyParser interface {
	ParseCompanyPage(markup []byte) CompanyProfile
}
