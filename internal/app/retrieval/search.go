package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/retrieval/query"
)

// Search runs one un-expanded query against the role index and collapses
// near-duplicate seconds with the dedup window
func (e *Engine) Search(ctx context.Context, videoID, q string, role model.Role, topK int) ([]model.SearchResult, error) {
	if err := e.validate(videoID, q, role, topK); err != nil {
		return nil, err
	}
	start := time.Now()
	q = strings.TrimSpace(q)
	topK = e.resolveTopK(role, topK)

	h, err := e.cache.Get(ctx, videoID, role)
	if err != nil {
		return nil, err
	}

	multiplier := e.cfg.FetchMultiplier
	if role == model.RoleProduction {
		multiplier = e.cfg.ProductionFetchMultiplier
	}
	ranked, err := e.searchVariant(ctx, h, query.Frame(role, q), topK*multiplier)
	if err != nil {
		return nil, err
	}

	results := DedupWindow(ranked, e.cfg.DedupWindowSeconds, topK)
	SortChronological(results)
	e.recorder.SearchObserved(role, PathSingle, time.Since(start), len(results))
	return results, nil
}

// SearchMulti expands the query into variants, searches each on a bounded worker
// pool, merges by best score per second, and keeps the top results
func (e *Engine) SearchMulti(ctx context.Context, videoID, q string, role model.Role, topK int) ([]model.SearchResult, error) {
	if err := e.validate(videoID, q, role, topK); err != nil {
		return nil, err
	}
	start := time.Now()
	q = strings.TrimSpace(q)
	topK = e.resolveTopK(role, topK)

	h, err := e.cache.Get(ctx, videoID, role)
	if err != nil {
		return nil, err
	}

	variants := e.planner.Plan(q, role)
	partials := make([]map[int]model.SearchResult, len(variants))
	var (
		failed  atomic.Int32
		errMu   sync.Mutex
		lastErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.SearchWorkers)
	for i, v := range variants {
		g.Go(func() error {
			ranked, err := e.searchVariant(gctx, h, v.Framed, e.cfg.VariantTopK)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				errMu.Lock()
				lastErr = err
				errMu.Unlock()
				e.recorder.VariantFailed(role)
				e.logger.Warn("Query variant failed, skipping", "videoID", videoID, "role", role.String(), "variant", v.Text, "error", err)
				return nil
			}
			partial := make(candidateSet, len(ranked))
			for _, r := range ranked {
				partial.offer(r)
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if int(failed.Load()) == len(variants) {
		cause := lastErr
		if cause == nil {
			cause = errors.New("no variants planned")
		}
		return nil, apperrors.WithKind(apperrors.KindUpstream, cause, apperrors.ErrAllVariantsFailed.Error())
	}

	merged := RankByScore(MergeMax(partials...))
	results := DedupWindow(merged, e.cfg.DedupWindowSeconds, topK)
	SortChronological(results)

	e.logger.Debug("Multi-query search finished",
		"videoID", videoID,
		"role", role.String(),
		"variants", len(variants),
		"failedVariants", failed.Load(),
		"candidates", len(merged),
		"results", len(results))
	e.recorder.SearchObserved(role, PathMulti, time.Since(start), len(results))
	return results, nil
}

// searchVariant embeds one framed query and returns up to k results best first
func (e *Engine) searchVariant(ctx context.Context, h *RoleHandle, framed string, k int) ([]model.SearchResult, error) {
	vec, err := h.Embedder.GenerateEmbedding(ctx, framed)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Upstream(err, apperrors.ErrEmbeddingFailed.Error())
	}
	hits, err := h.Index.Search(vec, min(k, h.Index.Len()))
	if err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		out = append(out, model.NewSearchResult(h.Metadata[hit.Position], h.Role, hit.Score))
	}
	return out, nil
}
