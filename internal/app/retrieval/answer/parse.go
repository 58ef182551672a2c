package answer

import (
	"strconv"
	"strings"
)

const (
	answerPrefix   = "ANSWER:"
	relevantPrefix = "RELEVANT:"
)

// Reply is the two-field structure extracted from a generator response
type Reply struct {
	Answer   string
	Relevant string
}

// ParseReply scans line by line for the ANSWER and RELEVANT prefixes.
// Without an ANSWER line the whole response is the answer and RELEVANT becomes "1".
func ParseReply(text string) Reply {
	text = strings.TrimSpace(text)
	var r Reply
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, answerPrefix):
			r.Answer = strings.TrimSpace(strings.TrimPrefix(line, answerPrefix))
		case strings.HasPrefix(line, relevantPrefix):
			r.Relevant = strings.TrimSpace(strings.TrimPrefix(line, relevantPrefix))
		}
	}
	if r.Answer == "" {
		return Reply{Answer: text, Relevant: "1"}
	}
	return r
}

// RelevantIndices maps the RELEVANT field to 0-based indices below n.
// Non-numeric, out of range and repeated tokens are discarded; "none" yields nothing.
func RelevantIndices(relevant string, n int) []int {
	if strings.EqualFold(strings.TrimSpace(relevant), "none") {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, tok := range strings.Split(relevant, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || strings.IndexFunc(tok, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		num, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		idx := num - 1
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}
