package retrieval

import (
	"sort"

	"github.com/samber/lo"

	"video-qa/internal/app/model"
)

// candidateSet keys candidates by second and keeps the best score per key
type candidateSet map[int]model.SearchResult

func (c candidateSet) offer(r model.SearchResult) {
	if cur, ok := c[r.Second]; !ok || r.Score > cur.Score {
		c[r.Second] = r
	}
}

// MergeMax reduces per-variant partial results by second, keeping the higher score
func MergeMax(partials ...map[int]model.SearchResult) map[int]model.SearchResult {
	merged := make(candidateSet)
	for _, p := range partials {
		for _, r := range p {
			merged.offer(r)
		}
	}
	return merged
}

// RankByScore lists candidates best first; equal scores order by second
func RankByScore(m map[int]model.SearchResult) []model.SearchResult {
	out := lo.Values(m)
	sortByScore(out)
	return out
}

func sortByScore(rs []model.SearchResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].Second < rs[j].Second
	})
}

// SortChronological orders results by second ascending
func SortChronological(rs []model.SearchResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Second < rs[j].Second
	})
}
