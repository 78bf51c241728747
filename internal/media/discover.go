package media

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"RecipeImporter/internal/domain"
)

// DiscoverImageRefs returns the src of every img element in an HTML
// fragment, in document order.
func DiscoverImageRefs(fragment string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var refs []string
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" {
			refs = append(refs, src)
		}
	})
	return refs
}

// RewriteRefs substitutes each asset's original reference in the fragment
// with its owned URL, or with the resolved URL as the degraded fallback for
// failed assets.
func RewriteRefs(fragment string, assets []domain.MediaAsset) string {
	for _, asset := range assets {
		replacement := Replacement(asset)
		if replacement == "" || replacement == asset.OriginalURL {
			continue
		}
		fragment = strings.ReplaceAll(fragment, asset.OriginalURL, replacement)
	}
	return fragment
}

// Replacement returns the URL an asset's reference should be rewritten to:
// the owned URL when ingestion succeeded, otherwise the resolved original.
func Replacement(asset domain.MediaAsset) string {
	if asset.Status == domain.MediaSucceeded && asset.OwnedURL != "" {
		return asset.OwnedURL
	}
	return asset.ResolvedURL
}
