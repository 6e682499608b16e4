package topcv

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

// Company pages vary across older and newer TopCV layouts, so the overview
// container is located by trying a list of known selectors.
var companyContainers = []string{
	"div.company-overview",
	"div.company-detail",
	"div.company-profile",
	"section.company-info",
	"div.box-intro-company",
	"div.company-info-container",
}

var labeledRowRE = regexp.MustCompile(`^([^:：]+)[:：]\s*(.+)$`)

// ParseCompanyPage extracts size, industry, and address from a company page.
// Rows are matched by label in Vietnamese or English; anything unmatched is
// left empty. Company pages are enrichment only, so this never errors.
func (e *Extractor) ParseCompanyPage(markup []byte) crawler.CompanyProfile {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return crawler.CompanyProfile{}
	}

	container := doc.Selection
	for _, css := range companyContainers {
		if c := doc.Find(css).First(); c.Length() > 0 {
			container = c
			break
		}
	}

	var profile crawler.CompanyProfile
	container.Find("li, .row, .item, .info-item, .company-info-item").Each(func(_ int, row *goquery.Selection) {
		label, value := splitLabeledRow(row)
		if label == "" || value == "" {
			return
		}
		switch {
		case containsAny(label, "quy mô", "size", "nhân sự"):
			setIfEmpty(&profile.Size, value)
		case containsAny(label, "lĩnh vực", "ngành", "industry"):
			setIfEmpty(&profile.Industry, value)
		case containsAny(label, "địa chỉ", "address"):
			setIfEmpty(&profile.Address, value)
		}
	})
	return profile
}

// splitLabeledRow separates a row like "<strong>Quy mô:</strong> 100-499"
// or plain "Quy mô: 100-499" into label and value.
func splitLabeledRow(row *goquery.Selection) (label, value string) {
	text := cleanText(row)
	if text == "" {
		return "", ""
	}
	strong := row.Find("strong, b").First()
	if strong.Length() > 0 {
		label = cleanText(strong)
		value = strings.Trim(strings.TrimSpace(strings.Replace(text, label, "", 1)), ":：-– ")
		return label, value
	}
	if m := labeledRowRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", ""
}

func containsAny(s string, needles ...string) bool {
	s = strings.ToLower(normalizeSpace(s))
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
