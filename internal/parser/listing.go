// Package parser extracts ruling links and ruling metadata from the court
// directory's HTML using goquery.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

const (
	// ListingContainerSelector locates the block holding the ruling links.
	ListingContainerSelector = "div#popular-post-list-sidebar"
	// RulingMarker is the anchor text that identifies a ruling link.
	RulingMarker = "Putusan"
)

// ParseListing returns, in document order, every anchor inside the listing
// container whose text contains RulingMarker. Relative hrefs are resolved
// against pageURL.
func ParseListing(body []byte, pageURL string) ([]crawler.ListingLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	container := doc.Find(ListingContainerSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", pageURL, crawler.ErrListingContainerMissing)
	}

	var links []crawler.ListingLink
	container.Find("a").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !strings.Contains(text, RulingMarker) {
			return
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		resolved, err := crawler.ResolveURL(pageURL, href)
		if err != nil {
			return
		}
		links = append(links, crawler.ListingLink{
			Text: collapseSpace(text),
			URL:  resolved,
		})
	})
	return links, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
