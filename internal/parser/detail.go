package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

const (
	// MetadataTableSelector locates the ruling's label/value table.
	MetadataTableSelector = "table.table"
	// PDFBlockSelector locates the block holding the document links.
	PDFBlockSelector = "div.card-body.bg-white"
	// PDFMarker must appear (case-sensitive) in a document link's text.
	PDFMarker = "pdf"
)

// DetailOptions carries the run-level values stamped onto every ruling.
type DetailOptions struct {
	Session crawler.Session
	PDFDir  string
}

// ParseDetail builds a Ruling from a detail page. The metadata table must
// yield an even number of cells once the header cell is dropped, and must
// contain the case number label.
func ParseDetail(body []byte, pageURL string, opts DetailOptions) (crawler.Ruling, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawler.Ruling{}, fmt.Errorf("parse detail html: %w", err)
	}

	table := doc.Find(MetadataTableSelector).First()
	if table.Length() == 0 {
		return crawler.Ruling{}, fmt.Errorf("%s: %w", pageURL, crawler.ErrMetadataTableMissing)
	}
	pdfBlock := doc.Find(PDFBlockSelector).First()
	if pdfBlock.Length() == 0 {
		return crawler.Ruling{}, fmt.Errorf("%s: %w", pageURL, crawler.ErrPDFBlockMissing)
	}

	fields, err := PairCells(tableCells(table))
	if err != nil {
		return crawler.Ruling{}, fmt.Errorf("%s: %w", pageURL, err)
	}

	ruling := crawler.Ruling{
		Fields:    fields,
		CreatedAt: opts.Session.CreatedAt,
		DetailURL: pageURL,
	}
	caseNumber, _ := ruling.Field(crawler.CaseNumberLabel)
	if caseNumber == "" {
		return crawler.Ruling{}, fmt.Errorf("%s: %w", pageURL, crawler.ErrCaseNumberMissing)
	}
	ruling.CaseNumber = caseNumber
	ruling.PDFPath = crawler.PDFPath(opts.PDFDir, caseNumber)

	if href := lastPDFHref(pdfBlock); href != "" {
		link, err := crawler.ResolveURL(pageURL, href)
		if err != nil {
			return crawler.Ruling{}, fmt.Errorf("%s: %w", pageURL, err)
		}
		ruling.PDFLink = link
	}
	return ruling, nil
}

func tableCells(table *goquery.Selection) []string {
	cells := make([]string, 0, table.Find("td").Length())
	table.Find("td").Each(func(_ int, s *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(s.Text()))
	})
	return cells
}

// PairCells drops the leading header cell and pairs the rest as label/value.
// A repeated label keeps its first position and takes the later value.
func PairCells(cells []string) ([]crawler.Field, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("no cells: %w", crawler.ErrMalformedTable)
	}
	rest := cells[1:]
	if len(rest)%2 != 0 {
		return nil, fmt.Errorf("%d cells after header: %w", len(rest), crawler.ErrMalformedTable)
	}
	fields := make([]crawler.Field, 0, len(rest)/2)
	index := make(map[string]int, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		label, value := rest[i], rest[i+1]
		if pos, ok := index[label]; ok {
			fields[pos].Value = value
			continue
		}
		index[label] = len(fields)
		fields = append(fields, crawler.Field{Label: label, Value: value})
	}
	return fields, nil
}

// lastPDFHref keeps the href of the last matching anchor.
func lastPDFHref(block *goquery.Selection) string {
	var href string
	block.Find("a").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(s.Text(), PDFMarker) {
			return
		}
		if h, ok := s.Attr("href"); ok && strings.TrimSpace(h) != "" {
			href = h
		}
	})
	return href
}
