package crawler

// CountPolicy selects how listings matched by several keywords count in
// aggregate totals.
type CountPolicy string

const (
	// CountUnique counts each distinct job_url once.
	CountUnique CountPolicy = "unique"
	// CountPerKeyword counts a listing once per keyword that surfaced it.
	CountPerKeyword CountPolicy = "per_keyword"
)

// ValidCountPolicy reports whether p names a known policy.
func ValidCountPolicy(p CountPolicy) bool {
	return p == CountUnique || p == CountPerKeyword
}

// KeywordSummary is the per-keyword slice of the run report.
type KeywordSummary struct {
	Keyword      string
	Records      int
	Partial      int
	FailedPages  int
	PagesFetched int
}

// RunReport is the user-visible end-of-run summary. Both totals are always
// present; Policy only selects which one TotalRecords mirrors.
type RunReport struct {
	RunID            string
	CrawlDate        string
	Keywords         []KeywordSummary
	TotalRecords     int
	UniqueRecords    int
	PerKeywordTotal  int
	PartialRecords   int
	FailedPages      int
	Policy           CountPolicy
}

// Report summarizes the result under the given counting policy.
func (r Result) Report(policy CountPolicy) RunReport {
	if !ValidCountPolicy(policy) {
		policy = CountUnique
	}
	report := RunReport{
		RunID:         r.RunID,
		CrawlDate:     r.CrawlDate,
		UniqueRecords: len(r.Combined),
		Policy:        policy,
	}
	for _, kr := range r.Keywords {
		report.Keywords = append(report.Keywords, KeywordSummary{
			Keyword:      kr.Keyword,
			Records:      len(kr.Records),
			Partial:      kr.PartialRecords,
			FailedPages:  kr.FailedPages,
			PagesFetched: kr.PagesFetched,
		})
		report.PerKeywordTotal += len(kr.Records)
		report.PartialRecords += kr.PartialRecords
		report.FailedPages += kr.FailedPages
	}
	if policy == CountPerKeyword {
		report.TotalRecords = report.PerKeywordTotal
	} else {
		report.TotalRecords = report.UniqueRecords
	}
	return report
}
