package probe

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// failureText matches the phrasing error banners have used across UI builds.
var failureText = regexp.MustCompile(`(?i)invalid|incorrect|wrong|failed|not match|try again|required`)

// errorClasses are class names that mark an error container.
var errorClasses = []string{
	"MuiAlert-message",
	"Toastify__toast-body",
	"error",
	"error-message",
	"text-error",
}

// ScanHTML looks for error-cue evidence in a captured HTML snapshot. It is
// the offline counterpart of ErrorCues, used on the final page dump of a
// failed check where the live browser is already gone. Markup that does not
// parse is not an error; the parser recovers the way browsers do.
func ScanHTML(src string) Match {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return Match{}
	}
	return scanNode(doc)
}

func scanNode(n *html.Node) Match {
	if n.Type == html.ElementNode {
		if m := matchElement(n); m.Found {
			return m
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := scanNode(c); m.Found {
			return m
		}
	}
	return Match{}
}

func matchElement(n *html.Node) Match {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "role":
			if strings.EqualFold(attr.Val, "alert") && nodeText(n) != "" {
				return Match{Found: true, Name: "aria-alert"}
			}
		case "data-testid":
			if attr.Val == "error" && nodeText(n) != "" {
				return Match{Found: true, Name: "error-testid"}
			}
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				for _, want := range errorClasses {
					if class == want && failureText.MatchString(nodeText(n)) {
						return Match{Found: true, Name: "error-class"}
					}
				}
			}
		}
	}
	return Match{}
}

// nodeText collects the concatenated text content under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
