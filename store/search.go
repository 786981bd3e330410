package store

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"recall/domain"

	"golang.org/x/sync/errgroup"
)

// Tokenize splits content into the lowercased terms used by the search
// index.  Single characters are dropped as noise.
func Tokenize(content string) []string {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}

	return terms
}

// Search finds a user's memories matching the query, scored by the fraction
// of query terms each memory contains.  Memories matching no terms are not
// returned.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []domain.SearchResult{}, nil
	}

	scores, err := s.matchTerms(ctx, userID, terms)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(scores))
	wg := errgroup.Group{}
	i := 0
	for id, matched := range scores {
		results[i] = domain.SearchResult{Score: float64(matched) / float64(len(terms))}
		slot := &results[i].Memory
		i++

		wg.Go(func() error {
			mem, err := s.Get(ctx, id)
			if err != nil {
				return err
			}
			*slot = *mem
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (s *Store) matchTerms(ctx context.Context, userID string, terms []string) (map[string]int, error) {
	placeholders := strings.Repeat("?, ", len(terms)-1) + "?"
	args := make([]any, 0, len(terms)+1)
	args = append(args, userID)
	for _, term := range terms {
		args = append(args, term)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.memory_id, COUNT(DISTINCT t.term)
		 FROM terms t
		 JOIN memories m ON m.id = t.memory_id
		 WHERE m.user_id = ? AND t.term IN (`+placeholders+`)
		 GROUP BY t.memory_id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := map[string]int{}
	for rows.Next() {
		var id string
		var matched int
		if err := rows.Scan(&id, &matched); err != nil {
			return nil, err
		}
		scores[id] = matched
	}

	return scores, rows.Err()
}
