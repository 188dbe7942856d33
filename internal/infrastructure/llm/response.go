package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"LinkedLens/internal/domain"
)

var (
	jsonFencePattern = regexp.MustCompile("```json\\n?")
	fencePattern     = regexp.MustCompile("```\\n?")
)

// StripCodeFences removes markdown fences models add despite being told not to.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = jsonFencePattern.ReplaceAllString(cleaned, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

type wireClassification struct {
	ID             *int   `json:"id"`
	Classification string `json:"classification"`
}

// ParseClassifications decodes the strict array reply. Entries without an id
// or with an unknown label are returned in skipped rather than failing the batch.
func ParseClassifications(text string) (results []domain.ClassificationResult, skipped int, err error) {
	cleaned := StripCodeFences(text)
	if !strings.HasPrefix(cleaned, "[") {
		return nil, 0, fmt.Errorf("expected a JSON array, got %q", preview(cleaned))
	}

	var entries []wireClassification
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, 0, fmt.Errorf("decode classifications: %w", err)
	}

	results = make([]domain.ClassificationResult, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == nil {
			skipped++
			continue
		}
		label, err := domain.ParseClassification(entry.Classification)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, domain.ClassificationResult{ID: *entry.ID, Classification: label})
	}
	return results, skipped, nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return s
}
