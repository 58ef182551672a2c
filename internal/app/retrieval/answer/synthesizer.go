package answer

import (
	"context"
	"fmt"
	"sort"

	"video-qa/internal/app/common"
	"video-qa/internal/app/generation"
	"video-qa/internal/app/model"
)

const (
	DefaultTemperature     float32 = 0.2
	DefaultFallbackMoments         = 3

	noMomentsAnswer = "I couldn't find any relevant moments in the video that match your query. Try rephrasing or asking about something else."
	weakMatchFormat = "While I found some moments, they don't closely match '%s'. Here's the closest match, but consider refining your search. %s"
	fallbackFormat  = "I found %d moment(s) that might be relevant to '%s'. Please review them to see if they match what you're looking for."
)

// Fallback reasons reported to the observer
const (
	FallbackNoCandidates = "no_candidates"
	FallbackWeakMatch    = "weak_match"
	FallbackGenerator    = "generator_error"
)

// Options tunes the synthesizer
type Options struct {
	// Temperature falls back to DefaultTemperature only when nil; zero is honored
	Temperature     *float32
	FallbackMoments int
	// OnFallback is called with one of the Fallback* reasons
	OnFallback func(reason string)
}

// Synthesizer turns ranked candidates into an AnswerBundle. It keeps no state between calls.
type Synthesizer struct {
	generator   generation.Generator
	logger      common.Logger
	opts        Options
	temperature float32
}

// NewSynthesizer creates a synthesizer backed by generator
func NewSynthesizer(generator generation.Generator, logger common.Logger, opts Options) *Synthesizer {
	if logger == nil {
		logger = common.NopLogger()
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.FallbackMoments <= 0 {
		opts.FallbackMoments = DefaultFallbackMoments
	}
	return &Synthesizer{generator: generator, logger: logger, opts: opts, temperature: temperature}
}

func (s *Synthesizer) fallback(reason string) {
	if s.opts.OnFallback != nil {
		s.opts.OnFallback(reason)
	}
}

// Synthesize answers query from candidates. Generator failures and malformed
// replies degrade to fallback bundles and are never returned as errors.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, role model.Role, candidates []model.SearchResult) model.AnswerBundle {
	if len(candidates) == 0 {
		s.fallback(FallbackNoCandidates)
		return model.AnswerBundle{
			Answer:          noMomentsAnswer,
			RelevantMoments: []model.SearchResult{},
			FoundCount:      0,
		}
	}

	prompt := UserPrompt(query, BuildContext(candidates, role))
	text, err := s.generator.Generate(ctx, prompt, SystemPrompt(role), s.temperature)
	if err != nil {
		s.logger.Warn("Answer generation failed, using fallback", "role", role.String(), "candidates", len(candidates), "error", err)
		s.fallback(FallbackGenerator)
		moments := append([]model.SearchResult(nil), candidates[:min(s.opts.FallbackMoments, len(candidates))]...)
		return model.AnswerBundle{
			Answer:          fmt.Sprintf(fallbackFormat, len(candidates), query),
			RelevantMoments: moments,
			FoundCount:      len(moments),
		}
	}

	reply := ParseReply(text)
	indices := RelevantIndices(reply.Relevant, len(candidates))
	moments := make([]model.SearchResult, 0, len(indices))
	for _, idx := range indices {
		moments = append(moments, candidates[idx])
	}
	sort.SliceStable(moments, func(i, j int) bool {
		return moments[i].Second < moments[j].Second
	})

	answerText := reply.Answer
	if len(moments) == 0 {
		s.logger.Debug("No relevant moments in reply, returning closest match", "role", role.String())
		s.fallback(FallbackWeakMatch)
		moments = []model.SearchResult{topScoring(candidates)}
		answerText = fmt.Sprintf(weakMatchFormat, query, reply.Answer)
	}

	return model.AnswerBundle{
		Answer:          answerText,
		RelevantMoments: moments,
		FoundCount:      len(moments),
	}
}

// topScoring returns the highest-score candidate; ties keep the earlier one
func topScoring(candidates []model.SearchResult) model.SearchResult {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}
