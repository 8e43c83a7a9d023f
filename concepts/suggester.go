// Package concepts suggests explainer topics by mining the week's top
// questions on r/explainlikeimfive. Purely a convenience for the CLI; the
// pipeline itself takes any concept string.
package concepts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

const defaultSubreddit = "explainlikeimfive"

// Suggester pulls candidate concepts from Reddit.
type Suggester struct {
	client    *reddit.Client
	subreddit string
}

// New creates a read-only Suggester; no Reddit credentials required.
func New() (*Suggester, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Suggester{client: client, subreddit: defaultSubreddit}, nil
}

// Suggest returns up to limit cleaned concept strings from the subreddit's
// top posts of the week.
func (s *Suggester) Suggest(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	posts, _, err := s.client.Subreddit.TopPosts(ctx, s.subreddit, &reddit.ListPostOptions{
		ListOptions: reddit.ListOptions{Limit: limit},
		Time:        "week",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch top posts: %w", err)
	}

	var out []string
	for _, p := range posts {
		if c := CleanTitle(p.Title); c != "" {
			out = append(out, c)
		}
	}
	slog.Info("concepts suggested", "stage", "concepts", "count", len(out))
	return out, nil
}

// CleanTitle turns an "ELI5: why is the sky blue?" post title into a plain
// concept string.
func CleanTitle(title string) string {
	s := strings.TrimSpace(title)

	lower := strings.ToLower(s)
	for _, prefix := range []string{"eli5:", "eli5 -", "eli5-", "eli5"} {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "?")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Sentence-case the first rune.
	return strings.ToUpper(s[:1]) + s[1:]
}
