package collector

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"LottoSentinel/internal/model"
)

// StockFetcher scrapes the foreign-stock results table from a webpage.
type StockFetcher struct {
	URL        string
	HeaderText string
	Loader     PageLoader
	Logger     *log.Logger
	now        func() time.Time
}

// NewStockFetcher creates a fetcher that locates the block whose heading
// contains headerText and reads the first table inside it.
func NewStockFetcher(pageURL, headerText string, loader PageLoader, logger *log.Logger) *StockFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &StockFetcher{
		URL:        pageURL,
		HeaderText: headerText,
		Loader:     loader,
		Logger:     logger,
		now:        time.Now,
	}
}

func (f *StockFetcher) Name() string { return "stock" }

// Fetch loads the page and parses its results table. A page without the
// expected block or table yields an empty result, not an error.
func (f *StockFetcher) Fetch(ctx context.Context) ([]model.StockRecord, error) {
	body, err := f.Loader.Load(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	records, found, err := ParseStockTable(body, f.HeaderText, f.now().UTC())
	if err != nil {
		return nil, err
	}
	if !found {
		f.Logger.Printf("[WARN] stock: no table found under header %q", f.HeaderText)
		return []model.StockRecord{}, nil
	}
	return records, nil
}

// ParseStockTable extracts StockRecords from page HTML. found is false when
// no heading matches headerText or the matching block holds no table.
// Rows with fewer than four cells or an empty name are skipped.
func ParseStockTable(body []byte, headerText string, now time.Time) (records []model.StockRecord, found bool, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("parse html: %w", err)
	}

	header := findHeader(doc, headerText)
	if header == nil {
		return nil, false, nil
	}
	table := tableNear(header)
	if table == nil {
		return nil, false, nil
	}

	records = []model.StockRecord{}
	for _, row := range findAll(table, atom.Tr) {
		cells := findCells(row)
		if len(cells) < 4 {
			continue
		}
		name := cellText(cells[1])
		if name == "" {
			continue
		}
		records = append(records, model.StockRecord{
			CountryCode: countryOf(cells[0]),
			StockName:   name,
			ThreeDigits: cellText(cells[2]),
			TwoDigits:   cellText(cells[3]),
			LastUpdated: now,
		})
	}
	return records, true, nil
}

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Strong: true, atom.B: true, atom.Caption: true,
}

var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Title: true, atom.Noscript: true,
}

// findHeader returns the first heading-like element whose text contains
// needle. Falls back to any element whose own text nodes contain it.
func findHeader(doc *html.Node, needle string) *html.Node {
	needle = strings.Join(strings.Fields(needle), " ")
	if needle == "" {
		return nil
	}
	var heading, fallback *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if heading != nil {
			return
		}
		if n.Type == html.ElementNode {
			if headingAtoms[n.DataAtom] && strings.Contains(cellText(n), needle) {
				heading = n
				return
			}
			if fallback == nil && !skipAtoms[n.DataAtom] && strings.Contains(strings.Join(strings.Fields(ownText(n)), " "), needle) {
				fallback = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if heading != nil {
		return heading
	}
	return fallback
}

// tableNear walks up from the header until an ancestor holds a table and
// returns the first table that follows the header in document order.
func tableNear(header *html.Node) *html.Node {
	if header.DataAtom == atom.Caption && header.Parent != nil && header.Parent.DataAtom == atom.Table {
		return header.Parent
	}
	for anc := header.Parent; anc != nil; anc = anc.Parent {
		var seenHeader bool
		var result *html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if result != nil {
				return
			}
			if n == header {
				seenHeader = true
				return
			}
			if seenHeader && n.Type == html.ElementNode && n.DataAtom == atom.Table {
				result = n
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(anc)
		if result != nil {
			return result
		}
	}
	return nil
}

func findAll(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			// Rows of nested tables belong to those tables.
			if c.Type == html.ElementNode && c.DataAtom == atom.Table {
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// findCells returns the td and th cells of a row. A row made only of th
// cells is a column heading and yields nothing.
func findCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	hasData := false
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Td:
			hasData = true
			cells = append(cells, c)
		case atom.Th:
			cells = append(cells, c)
		}
	}
	if !hasData {
		return nil
	}
	return cells
}

// countryOf reads the country cell, which often holds only a flag image.
func countryOf(cell *html.Node) string {
	if t := cellText(cell); t != "" {
		return t
	}
	var code string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if code != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for _, key := range []string{"alt", "title"} {
				if v := strings.TrimSpace(attr(n, key)); v != "" {
					code = v
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(cell)
	return code
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cellText(n *html.Node) string {
	return strings.Join(strings.Fields(collectText(n)), " ")
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipAtoms[n.DataAtom] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
