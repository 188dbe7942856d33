package usecase

import "LinkedLens/internal/domain"

// Merge attaches classifications to posts by id, in place. Results for unknown
// ids are ignored; posts without a result keep their current classification.
// When the service repeats an id, the last entry wins.
func Merge(posts []domain.Post, results []domain.ClassificationResult) []domain.Post {
	index := make(map[int]int, len(posts))
	for i, p := range posts {
		index[p.ID] = i
	}
	for _, r := range results {
		if i, ok := index[r.ID]; ok {
			posts[i].Classification = r.Classification
		}
	}
	return posts
}
