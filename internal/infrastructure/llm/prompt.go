package llm

import (
	"encoding/json"
	"fmt"

	"LinkedLens/internal/domain"
)

const taxonomy = `Classify these LinkedIn posts as either 'engagement_bait' or 'genuine_value'.

Engagement bait includes:
- Clickbait tactics ("You won't believe...", "This one trick...")
- Manipulative engagement prompts ("Agree? Comment below!", "Tag someone who...")
- Humble brags or virtue signaling
- Overly promotional content
- Generic motivational quotes with no substance
- Posts designed solely to generate reactions

Genuine value includes:
- Helpful insights and actionable advice
- Educational content with substance
- Honest personal stories with lessons learned
- Industry news and analysis
- Thoughtful discussions on meaningful topics

Respond with ONLY valid JSON in this exact format (no markdown, no code blocks):
[{ "id": 0, "classification": "engagement_bait" }, { "id": 1, "classification": "genuine_value" }]

Posts to classify:
`

// promptPost is the outbound view of a post; the element reference never leaves the page.
type promptPost struct {
	ID     int    `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// BuildPrompt renders the taxonomy followed by the serialized batch.
func BuildPrompt(posts []domain.Post) (string, error) {
	batch := make([]promptPost, 0, len(posts))
	for _, p := range posts {
		batch = append(batch, promptPost{ID: p.ID, Author: p.Author, Text: p.Text})
	}

	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal posts: %w", err)
	}
	return taxonomy + string(payload), nil
}
