package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Snapshot is a parsed, immutable copy of a rendered page.
type Snapshot struct {
	doc *html.Node
}

// ParseSnapshot parses an HTML document.
func ParseSnapshot(r io.Reader) (*Snapshot, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

// ParseSnapshotString parses an HTML string.
func ParseSnapshotString(s string) (*Snapshot, error) {
	return ParseSnapshot(strings.NewReader(s))
}

// Has reports whether xpath matches at least one node.
func (s *Snapshot) Has(xpath string) (bool, error) {
	n, err := htmlquery.Query(s.doc, xpath)
	if err != nil {
		return false, fmt.Errorf("xpath %q: %w", xpath, err)
	}
	return n != nil, nil
}

// FindAll returns every node matching xpath.
func (s *Snapshot) FindAll(xpath string) ([]Element, error) {
	nodes, err := htmlquery.QueryAll(s.doc, xpath)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", xpath, err)
	}
	elems := make([]Element, len(nodes))
	for i, n := range nodes {
		elems[i] = &nodeElement{node: n}
	}
	return elems, nil
}

// nodeElement adapts an html.Node to Element.
type nodeElement struct {
	node *html.Node
}

func (e *nodeElement) Attr(name string) (string, bool, error) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *nodeElement) Find(xpath string) (Element, error) {
	n, err := htmlquery.Query(e.node, xpath)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", xpath, err)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrElementNotFound, xpath)
	}
	return &nodeElement{node: n}, nil
}
