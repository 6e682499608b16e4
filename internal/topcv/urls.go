package topcv

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the portal root used to resolve relative listing links.
const DefaultBaseURL = "https://www.topcv.vn"

// SearchPageURL builds the search-result URL for a keyword and 1-indexed
// page number.
func SearchPageURL(base *url.URL, keyword string, page int) string {
	u := *base
	u.Path = "/tim-viec-lam-" + Slugify(keyword)
	u.RawQuery = fmt.Sprintf("type_keyword=1&page=%d&sba=1", page)
	return u.String()
}

// Slug folds a keyword the way search URLs and artifact names need it.
func (e *Extractor) Slug(keyword string) string {
	return Slugify(keyword)
}

// CanonicalURL resolves href against base and strips the query string and
// fragment, so the same listing reached with different tracking parameters
// deduplicates to one URL. It returns "" for unusable hrefs.
func CanonicalURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
