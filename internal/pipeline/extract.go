package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/DanchukIvan/byteflow/internal/types"
)

// Selector names one extraction rule: a CSS or XPath expression, the field
// name to store the result under, and which part of the matched node(s) to
// keep. Adapted from the teacher's ParseRule, stripped of link-discovery
// concerns (no [MODULE] in this system walks a discovered link graph).
type Selector struct {
	Name      string
	Query     string
	Attribute string // "", "text", "html", "outerHTML", or an attribute name
}

func selectValue(text, attrVal string, attribute string, html string, outerHTML string) string {
	switch attribute {
	case "", "text":
		return strings.TrimSpace(text)
	case "html", "innerHTML":
		return html
	case "outerHTML":
		return outerHTML
	default:
		return attrVal
	}
}

// CSSExtract builds a func(*types.Item) (*types.Item, error), for use with
// Pipeline.UseSimple, that extracts fields from an item's
// "_html" field (a raw HTML body buffered ahead of this stage) using
// goquery CSS selectors. Grounded on the teacher's CSSParser.extractCSS.
func CSSExtract(selectors []Selector) func(*types.Item) (*types.Item, error) {
	return func(item *types.Item) (*types.Item, error) {
		raw := item.GetString("_html")
		if raw == "" {
			return item, nil
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err != nil {
			return nil, &types.ParseError{URL: item.URL, Err: err}
		}

		for _, sel := range selectors {
			var values []string
			doc.Find(sel.Query).Each(func(i int, s *goquery.Selection) {
				innerHTML, _ := s.Html()
				outerHTML, _ := goquery.OuterHtml(s)
				attrVal, _ := s.Attr(sel.Attribute)
				val := selectValue(s.Text(), attrVal, sel.Attribute, innerHTML, outerHTML)
				if val != "" {
					values = append(values, val)
				}
			})
			setExtracted(item, sel.Name, values)
		}
		return item, nil
	}
}

// XPathExtract builds a func(*types.Item) (*types.Item, error), for use
// with Pipeline.UseSimple, that extracts fields from an
// item's "_html" field using XPath expressions. Grounded on the teacher's
// XPathParser.extractXPath.
func XPathExtract(selectors []Selector) func(*types.Item) (*types.Item, error) {
	return func(item *types.Item) (*types.Item, error) {
		raw := item.GetString("_html")
		if raw == "" {
			return item, nil
		}
		doc, err := html.Parse(strings.NewReader(raw))
		if err != nil {
			return nil, &types.ParseError{URL: item.URL, Err: err}
		}

		for _, sel := range selectors {
			nodes, err := htmlquery.QueryAll(doc, sel.Query)
			if err != nil {
				continue
			}
			var values []string
			for _, node := range nodes {
				val := selectValue(
					htmlquery.InnerText(node),
					htmlquery.SelectAttr(node, sel.Attribute),
					sel.Attribute,
					htmlquery.OutputHTML(node, false),
					htmlquery.OutputHTML(node, true),
				)
				if val != "" {
					values = append(values, val)
				}
			}
			setExtracted(item, sel.Name, values)
		}
		return item, nil
	}
}

func setExtracted(item *types.Item, name string, values []string) {
	switch len(values) {
	case 0:
		return
	case 1:
		item.Set(name, values[0])
	default:
		item.Set(name, values)
	}
}
