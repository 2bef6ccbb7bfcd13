package codec

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// HTMLCodec decodes a fetched HTML body into a goquery.Document for
// selector-driven extraction pipeline steps. Encoding round-trips back to
// the document's outer HTML, used when a buffered HTML record must be
// written to a storage engine unchanged.
type HTMLCodec struct{}

func (HTMLCodec) Format() string { return "html" }

func (HTMLCodec) Decode(raw []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode html: %w", err)
	}
	return doc, nil
}

func (HTMLCodec) Encode(doc *goquery.Document) ([]byte, error) {
	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("encode html: %w", err)
	}
	return []byte(html), nil
}
