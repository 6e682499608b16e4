// Package dataset turns a crawl result into dated tabular artifacts.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

// utf8BOM prefixes CSV files so spreadsheet tools detect UTF-8 and render
// Vietnamese text correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Kind tags the serialization of an artifact.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
)

// Artifact is one emitted file, ready for the upload collaborator.
type Artifact struct {
	Path    string
	Kind    Kind
	Keyword string // empty for the combined dataset
}

// Config controls output naming and optional serializations.
type Config struct {
	Dir    string
	Prefix string
	// XLSX additionally emits the combined dataset as a spreadsheet.
	XLSX bool
}

// Assembler writes per-keyword and combined datasets with the fixed column
// schema, stamped with the run's crawl date.
type Assembler struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Assembler, creating the output directory if needed.
func New(cfg Config, logger *zap.Logger) (*Assembler, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "topcv_jobs"
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", cfg.Dir, err)
	}
	return &Assembler{cfg: cfg, logger: logger}, nil
}

// Write emits one combined dataset plus one dataset per keyword. Keywords
// with no records still produce a header-only file. The combined dataset is
// also written as XLSX when enabled; an XLSX failure is logged and skipped
// rather than failing the assembly.
func (a *Assembler) Write(result crawler.Result) ([]Artifact, error) {
	var artifacts []Artifact

	combinedPath := filepath.Join(a.cfg.Dir,
		fmt.Sprintf("%s_%s_combined.csv", a.cfg.Prefix, result.CrawlDate))
	if err := a.writeCSV(combinedPath, result.Combined); err != nil {
		return nil, fmt.Errorf("write combined dataset: %w", err)
	}
	artifacts = append(artifacts, Artifact{Path: combinedPath, Kind: KindCSV})

	for _, kr := range result.Keywords {
		path := filepath.Join(a.cfg.Dir,
			fmt.Sprintf("%s_%s_%s.csv", a.cfg.Prefix, kr.Slug, result.CrawlDate))
		if err := a.writeCSV(path, kr.Records); err != nil {
			return nil, fmt.Errorf("write dataset for %q: %w", kr.Keyword, err)
		}
		artifacts = append(artifacts, Artifact{Path: path, Kind: KindCSV, Keyword: kr.Keyword})
	}

	if a.cfg.XLSX {
		xlsxPath := filepath.Join(a.cfg.Dir,
			fmt.Sprintf("%s_%s_combined.xlsx", a.cfg.Prefix, result.CrawlDate))
		if err := writeXLSX(xlsxPath, result.Combined); err != nil {
			a.logger.Warn("xlsx artifact skipped", zap.String("path", xlsxPath), zap.Error(err))
		} else {
			artifacts = append(artifacts, Artifact{Path: xlsxPath, Kind: KindXLSX})
		}
	}

	a.logger.Info("datasets assembled",
		zap.String("crawl_date", result.CrawlDate),
		zap.Int("artifacts", len(artifacts)),
		zap.Int("combined_records", len(result.Combined)),
	)
	return artifacts, nil
}

func (a *Assembler) writeCSV(path string, records []crawler.JobRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(crawler.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return fmt.Errorf("write row %s: %w", rec.JobURL, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
