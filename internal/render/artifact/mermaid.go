package artifact

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// UserContentSelector matches the regions whose content is never touched.
const UserContentSelector = ".streaming-content, .markdown-content, .guide-content"

var userContentClasses = []string{"streaming-content", "markdown-content", "guide-content"}

// Temporary render containers: "d" followed by digits and dashes, longer
// than tempIDMinLen.
const (
	tempIDExpr   = `^d[0-9-]+`
	tempIDMinLen = 10
)

// Browser-side delays, in milliseconds. Diagrams are left alone until the
// page settled, then removals wait a beat so a render in progress can finish.
const (
	startDelayMS = 1000
	idDelayMS    = 100
	textDelayMS  = 50
)

var (
	tempIDPattern = regexp.MustCompile(tempIDExpr)

	modalIDMarkers = []string{"mermaid-modal-", "dmermaid-modal-"}

	errorTextMarkers = []string{
		"Syntax error in text",
		"mermaid version",
		"Parse error on line",
	}

	// Too common to match deep in the page; only checked on nodes appended
	// straight to <body>.
	topLevelTextMarkers = []string{"Expecting"}
)

// Mermaid removes the temporary containers and parse-error output the
// Mermaid diagram library leaves behind when a diagram fails to render.
// Apply cleans markup that already carries such output when it is served;
// ClientRules covers diagrams drawn later in the browser.
type Mermaid struct{}

// NewMermaid creates the Mermaid filter.
func NewMermaid() *Mermaid { return &Mermaid{} }

// Name implements Filter.
func (*Mermaid) Name() string { return "mermaid" }

// Apply implements Filter.
func (m *Mermaid) Apply(doc *goquery.Document) int {
	var doomed []*goquery.Selection
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Closest(UserContentSelector).Length() > 0 {
			return
		}
		if matchID(s.AttrOr("id", "")) || matchText(s) {
			doomed = append(doomed, s)
		}
	})

	removed := 0
	for _, s := range doomed {
		// Document order: an ancestor removed earlier took this node with it.
		if !attached(s.Get(0)) {
			continue
		}
		s.Remove()
		removed++
	}
	return removed
}

func matchID(id string) bool {
	for _, marker := range modalIDMarkers {
		if strings.Contains(id, marker) {
			return true
		}
	}
	return len(id) > tempIDMinLen && tempIDPattern.MatchString(id)
}

// ClientRules is the browser-side rule set matching Apply. mermaid.js draws
// its diagrams after the page loaded, so live failure output can only be
// removed in the page itself; layout.html feeds these rules to a
// MutationObserver.
type ClientRules struct {
	IDMarkers           []string `json:"idMarkers"`
	TempIDPattern       string   `json:"tempIdPattern"`
	TempIDMinLen        int      `json:"tempIdMinLen"`
	TextMarkers         []string `json:"textMarkers"`
	TopLevelTextMarkers []string `json:"topLevelTextMarkers"`
	UserContent         string   `json:"userContent"`
	StartDelayMS        int      `json:"startDelayMs"`
	IDDelayMS           int      `json:"idDelayMs"`
	TextDelayMS         int      `json:"textDelayMs"`
}

// ClientSide is implemented by filters that also run in the browser.
type ClientSide interface {
	ClientRules() ClientRules
}

// ClientRules implements ClientSide.
func (*Mermaid) ClientRules() ClientRules {
	return ClientRules{
		IDMarkers:           append([]string{}, modalIDMarkers...),
		TempIDPattern:       tempIDExpr,
		TempIDMinLen:        tempIDMinLen,
		TextMarkers:         append([]string{}, errorTextMarkers...),
		TopLevelTextMarkers: append([]string{}, topLevelTextMarkers...),
		UserContent:         UserContentSelector,
		StartDelayMS:        startDelayMS,
		IDDelayMS:           idDelayMS,
		TextDelayMS:         textDelayMS,
	}
}

// matchText reports whether s is the innermost element carrying an error
// marker.
func matchText(s *goquery.Selection) bool {
	n := s.Get(0)
	if skipElement(n) {
		return false
	}
	text := visibleText(n)

	markers := errorTextMarkers
	if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "body" {
		markers = append(append([]string{}, errorTextMarkers...), topLevelTextMarkers...)
	}

	for _, marker := range markers {
		if strings.Contains(text, marker) && !childCarries(n, marker) {
			return true
		}
	}
	return false
}

func childCarries(n *html.Node, marker string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !skipElement(c) && strings.Contains(visibleText(c), marker) {
			return true
		}
	}
	return false
}

// visibleText concatenates the text under n, leaving out scripts, styles and
// user content regions.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipElement(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b.String()
}

func skipElement(n *html.Node) bool {
	if n.Data == "script" || n.Data == "style" {
		return true
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			for _, uc := range userContentClasses {
				if cls == uc {
					return true
				}
			}
		}
	}
	return false
}

func attached(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return true
		}
	}
	return false
}
