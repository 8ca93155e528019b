// Package artifact strips failure output of client-side rendering libraries
// from finished HTML pages.
package artifact

import (
	"github.com/PuerkitoBio/goquery"
)

// Filter removes unwanted elements from a parsed page and reports how many
// it removed.
type Filter interface {
	Name() string
	Apply(doc *goquery.Document) int
}

// Nop leaves every page untouched.
type Nop struct{}

// Name implements Filter.
func (Nop) Name() string { return "none" }

// Apply implements Filter.
func (Nop) Apply(*goquery.Document) int { return 0 }
