package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() Result {
	shared := JobRecord{JobURL: "https://portal.test/jobs/2", Title: "Shared"}
	return Result{
		RunID:     "run-1",
		CrawlDate: "2026-08-31",
		Keywords: []KeywordResult{
			{
				Keyword:      "golang",
				Records:      []JobRecord{{JobURL: "https://portal.test/jobs/1"}, shared},
				PagesFetched: 2,
			},
			{
				Keyword:        "backend",
				Records:        []JobRecord{shared, {JobURL: "https://portal.test/jobs/3", Partial: true}},
				PartialRecords: 1,
				FailedPages:    1,
				PagesFetched:   1,
			},
		},
		Combined: []JobRecord{
			{JobURL: "https://portal.test/jobs/1"},
			shared,
			{JobURL: "https://portal.test/jobs/3", Partial: true},
		},
	}
}

func TestReportCountPolicies(t *testing.T) {
	t.Parallel()

	unique := sampleResult().Report(CountUnique)
	assert.Equal(t, 3, unique.TotalRecords)
	assert.Equal(t, 3, unique.UniqueRecords)
	assert.Equal(t, 4, unique.PerKeywordTotal)
	assert.Equal(t, 1, unique.PartialRecords)
	assert.Equal(t, 1, unique.FailedPages)

	perKeyword := sampleResult().Report(CountPerKeyword)
	assert.Equal(t, 4, perKeyword.TotalRecords)
	assert.Equal(t, 3, perKeyword.UniqueRecords)
}

func TestReportKeywordBreakdown(t *testing.T) {
	t.Parallel()

	report := sampleResult().Report(CountUnique)
	require.Len(t, report.Keywords, 2)
	assert.Equal(t, KeywordSummary{Keyword: "golang", Records: 2, PagesFetched: 2}, report.Keywords[0])
	assert.Equal(t, KeywordSummary{
		Keyword: "backend", Records: 2, Partial: 1, FailedPages: 1, PagesFetched: 1,
	}, report.Keywords[1])
}

func TestReportUnknownPolicyFallsBackToUnique(t *testing.T) {
	t.Parallel()

	report := sampleResult().Report(CountPolicy("bogus"))
	assert.Equal(t, CountUnique, report.Policy)
	assert.Equal(t, report.UniqueRecords, report.TotalRecords)
}

func TestValidCountPolicy(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidCountPolicy(CountUnique))
	assert.True(t, ValidCountPolicy(CountPerKeyword))
	assert.False(t, ValidCountPolicy(CountPolicy("")))
}
