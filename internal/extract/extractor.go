// Package extract turns reduced page text into a RecipeDraft via the
// external structured-extraction capability.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/ports"
)

const (
	defaultCharBudget = 14000
	truncationMarker  = "\n[content truncated]"
)

const systemPrompt = `You are a recipe extraction service. You receive the text of a web page and respond with a single JSON object, nothing else.

The JSON object has exactly these fields:
  "title": string
  "description": string
  "ingredients": array of strings, one ingredient per entry, in order
  "instructions": array of strings, one step per entry, in order
  "cooking_time_minutes": integer, omit if unknown
  "servings": integer, omit if unknown
  "hero_image_url": string URL of the main recipe photo, omit if none
  "tags": array of strings chosen ONLY from the allowed tag list, omit if none apply
  "full_text": string, the recipe-relevant portion of the page as simple HTML, omit if not useful

If the text does not contain a cooking recipe, respond with exactly:
  {"error": "no recipe found"}

Never invent ingredients, steps or tags that are not supported by the text.`

// Service performs the extraction stage: truncate over-budget input, issue
// exactly one capability call, parse and coerce the response.
type Service struct {
	llm        ports.Completion
	charBudget int
	logger     *slog.Logger
}

// New wires the completion capability; charBudget <= 0 selects the default.
func New(llm ports.Completion, charBudget int, logger *slog.Logger) *Service {
	if charBudget <= 0 {
		charBudget = defaultCharBudget
	}
	return &Service{llm: llm, charBudget: charBudget, logger: logger}
}

// Extract sends the reduction to the capability and returns the parsed draft.
// Oversized input is truncated, never rejected. A capability response carrying
// the miss sentinel yields domain.ErrNoRecipe.
func (s *Service) Extract(ctx context.Context, reduced domain.ReducedContent, origin *url.URL, vocabulary []domain.Tag) (*domain.RecipeDraft, error) {
	if s.llm == nil {
		return nil, &domain.ExtractionError{Reason: domain.ExtractCallFailed, Err: fmt.Errorf("completion capability is not configured")}
	}

	text := reduced.Text
	if len(text) > s.charBudget {
		s.debug("truncating input", "chars", len(text), "budget", s.charBudget)
		text = truncate(text, s.charBudget) + truncationMarker
	}

	response, err := s.llm.CompleteJSON(ctx, systemPrompt, userPrompt(text, origin, vocabulary))
	if err != nil {
		return nil, &domain.ExtractionError{Reason: domain.ExtractCallFailed, Err: err}
	}

	return parseDraft(response)
}

func userPrompt(text string, origin *url.URL, vocabulary []domain.Tag) string {
	var b strings.Builder
	if origin != nil {
		fmt.Fprintf(&b, "Source URL: %s\n\n", origin.String())
	}
	if len(vocabulary) > 0 {
		names := make([]string, 0, len(vocabulary))
		for _, tag := range vocabulary {
			names = append(names, tag.Name)
		}
		fmt.Fprintf(&b, "Allowed tags: %s\n\n", strings.Join(names, ", "))
	}
	b.WriteString("Page text:\n")
	b.WriteString(text)
	return b.String()
}

// truncate keeps the head of the document, backing off to a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// draftPayload mirrors the capability's loosely-typed response. List and
// numeric fields are raw so single strings and numeric strings coerce
// instead of failing the whole parse.
type draftPayload struct {
	Error              string          `json:"error"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Ingredients        json.RawMessage `json:"ingredients"`
	Instructions       json.RawMessage `json:"instructions"`
	CookingTimeMinutes json.RawMessage `json:"cooking_time_minutes"`
	Servings           json.RawMessage `json:"servings"`
	HeroImageURL       string          `json:"hero_image_url"`
	Tags               []string        `json:"tags"`
	FullText           string          `json:"full_text"`
}

func parseDraft(response string) (*domain.RecipeDraft, error) {
	var payload draftPayload
	if err := json.Unmarshal([]byte(stripFences(response)), &payload); err != nil {
		return nil, &domain.ExtractionError{Reason: domain.ExtractMalformedOutput, Err: err}
	}

	// The capability signals a miss structurally through the error field,
	// not as free text we would have to guess at.
	if strings.TrimSpace(payload.Error) != "" {
		return nil, domain.ErrNoRecipe
	}

	return &domain.RecipeDraft{
		Title:              strings.TrimSpace(payload.Title),
		Description:        strings.TrimSpace(payload.Description),
		Ingredients:        toStringList(payload.Ingredients),
		Instructions:       toStringList(payload.Instructions),
		CookingTimeMinutes: toInt(payload.CookingTimeMinutes),
		Servings:           toInt(payload.Servings),
		HeroImageURL:       strings.TrimSpace(payload.HeroImageURL),
		Tags:               payload.Tags,
		FullText:           payload.FullText,
	}, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// toStringList accepts a JSON array of strings or a single string. A single
// string is split on newlines so a flattened list still yields ordered items.
func toStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimNonEmpty(list)
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return trimNonEmpty(strings.Split(single, "\n"))
	}

	return nil
}

func trimNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// toInt accepts a JSON number or a numeric-looking string; anything else is
// treated as absent, never an error.
func toInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}

	return 0
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
