package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

func testResult() crawler.Result {
	rec := func(url, keyword, title string) crawler.JobRecord {
		return crawler.JobRecord{
			CrawlDate:     "2026-08-31",
			SearchKeyword: keyword,
			Title:         title,
			JobURL:        url,
			Company:       "Công ty ABC",
			Tags:          []string{"Golang", "Hà Nội"},
		}
	}
	return crawler.Result{
		RunID:     "run-1",
		CrawlDate: "2026-08-31",
		Keywords: []crawler.KeywordResult{
			{
				Keyword: "Backend Developer",
				Slug:    "backend-developer",
				Records: []crawler.JobRecord{
					rec("https://portal.test/jobs/1", "Backend Developer", "Lập trình viên Backend"),
				},
			},
			{Keyword: "Tester", Slug: "tester"},
		},
		Combined: []crawler.JobRecord{
			rec("https://portal.test/jobs/1", "Backend Developer", "Lập trình viên Backend"),
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "csv must start with a UTF-8 BOM")

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteEmitsCombinedAndPerKeywordDatasets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(Config{Dir: dir}, zap.NewNop())
	require.NoError(t, err)

	artifacts, err := a.Write(testResult())
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, filepath.Join(dir, "topcv_jobs_2026-08-31_combined.csv"), artifacts[0].Path)
	assert.Equal(t, KindCSV, artifacts[0].Kind)
	assert.Empty(t, artifacts[0].Keyword)

	assert.Equal(t, filepath.Join(dir, "topcv_jobs_backend-developer_2026-08-31.csv"), artifacts[1].Path)
	assert.Equal(t, "Backend Developer", artifacts[1].Keyword)

	rows := readCSV(t, artifacts[1].Path)
	require.Len(t, rows, 2)
	assert.Equal(t, crawler.Columns, rows[0])
	assert.Equal(t, "Lập trình viên Backend", rows[1][2])
	assert.Equal(t, "Golang; Hà Nội", rows[1][9])
}

func TestWriteHeaderOnlyForEmptyKeyword(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(Config{Dir: dir, Prefix: "jobs"}, zap.NewNop())
	require.NoError(t, err)

	artifacts, err := a.Write(testResult())
	require.NoError(t, err)

	rows := readCSV(t, filepath.Join(dir, "jobs_tester_2026-08-31.csv"))
	require.Len(t, rows, 1, "keyword without records still gets a header row")
	assert.Equal(t, crawler.Columns, rows[0])
	require.Len(t, artifacts, 3)
}

func TestWriteXLSXWhenEnabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(Config{Dir: dir, XLSX: true}, zap.NewNop())
	require.NoError(t, err)

	artifacts, err := a.Write(testResult())
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	last := artifacts[len(artifacts)-1]
	assert.Equal(t, KindXLSX, last.Kind)
	assert.Equal(t, filepath.Join(dir, "topcv_jobs_2026-08-31_combined.xlsx"), last.Path)

	info, err := os.Stat(last.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestNewRequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestNewCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out", "nested")
	_, err := New(Config{Dir: dir}, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
