package test

import (
	"fmt"
	"time"

	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
)

var languages = []string{"Go", "Rust", "Python", "TypeScript", "C"}

// Repositories returns n deterministic repositories. Stars decrease with the index, and every
// tenth repository ties with its predecessor to exercise tie breaking.
func Repositories(n int) []*catalog.Repository {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repos := make([]*catalog.Repository, n)
	for i := range n {
		stars := int64((n - i) * 10)
		if i%10 == 9 {
			stars = int64((n - i + 1) * 10)
		}
		owner := fmt.Sprintf("owner%02d", i%7)
		name := fmt.Sprintf("repo-%03d", i)
		repos[i] = &catalog.Repository{
			Name:        name,
			UserID:      int64(1000 + i%7),
			UserName:    owner,
			Description: fmt.Sprintf("Sample project %d written in %s", i, languages[i%len(languages)]),
			FullName:    owner + "/" + name,
			Topics:      []string{"sample", languages[i%len(languages)]},
			URL:         "https://github.com/" + owner + "/" + name,
			Stars:       stars,
			Forks:       int64(i),
			Language:    languages[i%len(languages)],
			Size:        int64(100 + i),
			OpenIssues:  int64(i % 5),
			License:     "MIT",
			CreatedAt:   base.Add(-time.Duration(i) * 24 * time.Hour),
			UpdatedAt:   base,
			PushedAt:    base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return repos
}
