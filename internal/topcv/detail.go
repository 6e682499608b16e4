package topcv

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

// Section headings TopCV uses inside the job description block.
const (
	headingMoTa     = "Mô tả công việc"
	headingYeuCau   = "Yêu cầu ứng viên"
	headingQuyenLoi = "Quyền lợi"
)

var deadlineRE = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

// ParseDetailPage extracts the detail-only fields from a job page. Absent
// sections yield empty fields. It returns a *crawler.ParseError only when the
// markup carries none of the landmarks of a job-detail page, which usually
// means a redirect to an error or login page.
func (e *Extractor) ParseDetailPage(pageURL string, markup []byte) (crawler.DetailFields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return crawler.DetailFields{}, &crawler.ParseError{URL: pageURL, Reason: "markup unreadable: " + err.Error()}
	}

	if doc.Find(".job-detail__info--title").Length() == 0 &&
		doc.Find(".job-description").Length() == 0 &&
		doc.Find(".job-detail__info--section").Length() == 0 {
		return crawler.DetailFields{}, &crawler.ParseError{URL: pageURL, Reason: "no job-detail structure found"}
	}

	fields := crawler.DetailFields{
		Deadline:   e.extractDeadline(doc),
		Tags:       e.extractTags(doc),
		CompanyURL: e.extractCompanyLink(doc),
	}

	blocks := e.extractDescriptionBlocks(doc)
	fields.DescMoTa = blocks[headingMoTa]
	fields.DescYeuCau = blocks[headingYeuCau]
	fields.DescQuyenLoi = blocks[headingQuyenLoi]

	e.logger.Debug("parsed detail page",
		zap.String("url", pageURL),
		zap.Int("tags", len(fields.Tags)),
		zap.Bool("has_desc", fields.DescMoTa != ""),
	)
	return fields, nil
}

func (e *Extractor) extractDeadline(doc *goquery.Document) string {
	var deadline string
	doc.Find(".job-detail__info--deadline, .job-detail__information-detail--actions-label").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			t := cleanText(sel)
			if t == "" || !strings.Contains(t, "Hạn nộp") {
				return true
			}
			if m := deadlineRE.FindString(t); m != "" {
				deadline = m
			} else {
				deadline = t
			}
			return false
		})
	return deadline
}

func (e *Extractor) extractTags(doc *goquery.Document) []string {
	var tags []string
	doc.Find(".job-tags a.item").Each(func(_ int, sel *goquery.Selection) {
		if t := cleanText(sel); t != "" {
			tags = append(tags, t)
		}
	})
	return tags
}

// extractDescriptionBlocks maps each description heading to its body text.
func (e *Extractor) extractDescriptionBlocks(doc *goquery.Document) map[string]string {
	blocks := make(map[string]string)
	doc.Find(".job-description .job-description__item").Each(func(_ int, item *goquery.Selection) {
		heading := cleanText(item.Find("h3").First())
		if heading == "" {
			return
		}
		content := item.Find(".job-description__item--content").First()
		if content.Length() == 0 {
			return
		}
		blocks[heading] = cleanText(content)
	})
	return blocks
}

func (e *Extractor) extractCompanyLink(doc *goquery.Document) string {
	sel := doc.Find("a.company[href]").First()
	if sel.Length() == 0 {
		sel = doc.Find(`a[href*="/cong-ty/"]`).First()
	}
	href, ok := sel.Attr("href")
	if !ok {
		return ""
	}
	return CanonicalURL(e.base, href)
}
