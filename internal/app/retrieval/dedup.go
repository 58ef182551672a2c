package retrieval

import "video-qa/internal/app/model"

// DedupWindow scans ranked candidates in order and accepts one unless its second
// lies within window seconds of an accepted one. It stops after limit acceptances.
// A window of 0 only collapses identical seconds.
func DedupWindow(ranked []model.SearchResult, window, limit int) []model.SearchResult {
	if window < 0 {
		window = 0
	}
	out := make([]model.SearchResult, 0, min(limit, len(ranked)))
	for _, r := range ranked {
		if len(out) >= limit {
			break
		}
		if nearAccepted(out, r.Second, window) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func nearAccepted(accepted []model.SearchResult, second, window int) bool {
	for _, a := range accepted {
		d := a.Second - second
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}
