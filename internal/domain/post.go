package domain

import (
	"encoding/json"
	"fmt"
)

// UnknownAuthor is used when a post element carries no recognizable author node.
const UnknownAuthor = "Unknown"

// Classification is the label assigned to a post by the classification service.
// The zero value means the post has not been classified.
type Classification string

const (
	ClassificationNone           Classification = ""
	ClassificationEngagementBait Classification = "engagement_bait"
	ClassificationGenuineValue   Classification = "genuine_value"
)

// ParseClassification maps a wire label onto a known classification.
func ParseClassification(label string) (Classification, error) {
	switch Classification(label) {
	case ClassificationEngagementBait, ClassificationGenuineValue:
		return Classification(label), nil
	default:
		return ClassificationNone, fmt.Errorf("unknown classification %q", label)
	}
}

// Valid reports whether c is one of the two known labels.
func (c Classification) Valid() bool {
	return c == ClassificationEngagementBait || c == ClassificationGenuineValue
}

// MarshalJSON renders an unclassified post as null.
func (c Classification) MarshalJSON() ([]byte, error) {
	if c == ClassificationNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts null as ClassificationNone.
func (c *Classification) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ClassificationNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Classification(s)
	return nil
}

// ElementRef is an opaque, non-owning reference to a node of the rendered page.
// It is only meaningful to the page that issued it and only until that page navigates.
type ElementRef struct {
	Document uint64
	Node     int
}

// IsZero reports whether the reference was never issued by a page.
func (r ElementRef) IsZero() bool {
	return r.Document == 0
}

// Post is a single feed entry extracted from the page.
type Post struct {
	ID             int
	Author         string
	Text           string
	Element        ElementRef
	Classification Classification
}

// ClassificationResult is one entry of the classification service reply.
type ClassificationResult struct {
	ID             int
	Classification Classification
}

// Stats summarizes a post collection; it is always derived, never stored.
type Stats struct {
	Total   int `json:"total"`
	Bait    int `json:"bait"`
	Genuine int `json:"genuine"`
}

// ComputeStats counts posts by classification.
func ComputeStats(posts []Post) Stats {
	stats := Stats{Total: len(posts)}
	for _, p := range posts {
		switch p.Classification {
		case ClassificationEngagementBait:
			stats.Bait++
		case ClassificationGenuineValue:
			stats.Genuine++
		}
	}
	return stats
}
