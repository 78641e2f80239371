package crawler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulingDocumentOrder(t *testing.T) {
	t.Parallel()

	r := Ruling{
		CaseNumber: "1/A",
		Fields:     []Field{{Label: "Nomor", Value: "1/A"}, {Label: "Hakim", Value: "Budi"}},
		PDFLink:    "https://x/1.pdf",
		PDFPath:    "pdf/1_A.pdf",
		CreatedAt:  "2023-10-01 09:30:00 WIB+0700",
	}
	var keys []string
	for _, f := range r.Document() {
		keys = append(keys, f.Label)
	}
	assert.Equal(t, []string{"Nomor", "Hakim", KeyPDFLink, KeyPDFLocation, KeyCreatedAt, KeyUpdatedAt}, keys)

	v, ok := r.Field("Hakim")
	assert.True(t, ok)
	assert.Equal(t, "Budi", v)
	_, ok = r.Field("Panitera")
	assert.False(t, ok)
}

func TestOutcomeAndSummary(t *testing.T) {
	t.Parallel()

	assert.True(t, RulingOutcome{Store: StoreDuplicate, Download: DownloadSkipped}.Succeeded())
	assert.False(t, RulingOutcome{Store: StoreFailed, Download: DownloadWritten}.Succeeded())
	assert.False(t, RulingOutcome{Err: errors.New("x")}.Succeeded())

	s := RunSummary{Pages: []PageResult{{Rulings: 3, Succeeded: 2}, {Rulings: 0}, {Rulings: 4, Succeeded: 4}}}
	rulings, succeeded := s.Totals()
	assert.Equal(t, 7, rulings)
	assert.Equal(t, 6, succeeded)
}
