// Package reduce strips non-content markup and narrows a page to its most
// content-dense region, producing bounded semi-structured text for extraction.
package reduce

import (
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"RecipeImporter/internal/domain"
)

// strippedSelectors are subtrees removed entirely before region selection.
var strippedSelectors = []string{"script", "style", "noscript", "iframe", "svg"}

// regionSelectors locate the primary content region, in priority order.
var regionSelectors = []string{
	"article",
	"main",
	".recipe, #recipe, .recipe-content, .recipe-card",
	".content, #content, .post, .post-content, .entry-content",
}

// boilerplateExpr matches class/id markers of navigation chrome, social
// widgets and ads. Word boundaries keep it from eating e.g. "header-image".
var boilerplateExpr = regexp.MustCompile(`(?i)(^|[\s_-])(social|share|sharing|comments?|widget|sidebar|banner|ads?|advert(isement)?)($|[\s_-])`)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// markdownEscapeExpr matches the backslash escapes the markdown converter
// inserts for link/emphasis syntax. The reduction feeds an extraction
// prompt, not a renderer, so the escapes are noise and get stripped.
var markdownEscapeExpr = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+.!>~-])")

// Reduce cleans markup and narrows it to the main content region. It never
// fails; the worst case is the cleaned-but-unreduced body.
func Reduce(markup string) domain.ReducedContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return domain.ReducedContent{Text: collapse(markup)}
	}

	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt := strings.TrimSpace(img.AttrOr("alt", "")); alt != "" {
			img.ReplaceWithHtml("[image: " + html.EscapeString(alt) + "]")
		} else {
			img.Remove()
		}
	})

	doc.Find("[class],[id]").Each(func(_ int, sel *goquery.Selection) {
		marker := sel.AttrOr("class", "") + " " + sel.AttrOr("id", "")
		if boilerplateExpr.MatchString(marker) {
			sel.Remove()
		}
	})

	region, found := mainRegion(doc)

	text := regionText(region)
	if len(text) > len(markup) {
		// Markdown escaping can grow pathological inputs; plain text never does.
		text = collapse(region.Text())
	}

	return domain.ReducedContent{Text: text, MainRegionFound: found}
}

func mainRegion(doc *goquery.Document) (*goquery.Selection, bool) {
	for _, selector := range regionSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel.First(), true
		}
	}

	// Microdata fallback: the parent of a recipe-instructions container is
	// usually the whole recipe card.
	if sel := doc.Find(`[itemprop="recipeInstructions"]`); sel.Length() > 0 {
		if parent := sel.First().Parent(); parent.Length() > 0 {
			return parent, true
		}
	}

	body := doc.Find("body").First()
	body.Find("nav, header, footer, aside").Remove()
	return body, false
}

func regionText(region *goquery.Selection) string {
	if region == nil || region.Length() == 0 {
		return ""
	}
	rawHTML, err := goquery.OuterHtml(region)
	if err != nil {
		return collapse(region.Text())
	}
	markdown, err := htmltomarkdown.ConvertString(rawHTML)
	if err != nil {
		return collapse(region.Text())
	}
	return collapse(markdownEscapeExpr.ReplaceAllString(markdown, "$1"))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(s, " "))
}
