// Package search runs catalog searches and filters out entries that
// cannot be downloaded.
package search

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/platform"
)

// Result limits. DefaultMaxResults exactly fills three pages of eight.
const (
	DefaultMaxResults = 24
	MaxResultsLimit   = 24
)

// PlaceholderTitles are titles the catalog uses for removed entries
var PlaceholderTitles = []string{
	"[deleted video]",
	"[private video]",
	"deleted video",
	"private video",
}

// Searcher queries the remote catalog
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// Service filters and caps catalog search results
type Service struct {
	searcher   Searcher
	maxResults int
	log        logrus.FieldLogger
}

// NewService creates a search service. maxResults is clamped to 1..24.
func NewService(searcher Searcher, maxResults int, log logrus.FieldLogger) *Service {
	if maxResults <= 0 || maxResults > MaxResultsLimit {
		maxResults = DefaultMaxResults
	}
	return &Service{
		searcher:   searcher,
		maxResults: maxResults,
		log:        logging.OrDiscard(log),
	}
}

// MaxResults returns the result cap
func (s *Service) MaxResults() int {
	return s.maxResults
}

type outcome struct {
	results []model.SearchResult
	err     error
}

// Search runs the query in its own goroutine and waits for it or for ctx
func (s *Service) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.ErrInvalidSource
	}

	done := make(chan outcome, 1)
	go func() {
		results, err := s.searcher.Search(ctx, query, s.maxResults)
		done <- outcome{results: results, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			s.log.WithField("query", query).Warnf("Search failed: %v", out.err)
			return nil, out.err
		}
		results := Filter(out.results)
		if len(results) > s.maxResults {
			results = results[:s.maxResults]
		}
		s.log.WithField("query", query).Debugf("Search returned %d of %d entries", len(results), len(out.results))
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Filter drops entries with a malformed id or a placeholder title
func Filter(results []model.SearchResult) []model.SearchResult {
	return lo.Filter(results, func(r model.SearchResult, _ int) bool {
		return platform.IsValidVideoID(r.ID) && !IsPlaceholderTitle(r.Title)
	})
}

// IsPlaceholderTitle reports whether title marks a removed or private entry
func IsPlaceholderTitle(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return true
	}
	return lo.Contains(PlaceholderTitles, lower)
}
