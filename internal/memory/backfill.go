package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/moltbot/moltmem/internal/embedding"
	"github.com/moltbot/moltmem/internal/models"
)

// DefaultBackfillDelay paces embedding requests so a large backlog does not
// hammer the provider.
const DefaultBackfillDelay = 150 * time.Millisecond

// BackfillOptions tune a repair run. Zero values mean no row cap, one row
// per progress log, mutate for real, and the default pacing delay.
type BackfillOptions struct {
	Limit  int
	Batch  int
	DryRun bool
	Delay  time.Duration
}

// ClassReport summarizes one embedding class inside a backfill run.
type ClassReport struct {
	Class         models.EmbedClass `json:"class"`
	MissingBefore int64             `json:"missing_before"`
	Candidates    int               `json:"candidates"`
	Updated       int               `json:"updated"`
	Errors        int               `json:"errors"`
}

// EmbeddingReport is the outcome of a full embedding backfill run.
type EmbeddingReport struct {
	Classes []ClassReport `json:"classes"`
	DryRun  bool          `json:"dry_run"`
}

// TotalUpdated sums updates across classes.
func (r *EmbeddingReport) TotalUpdated() int {
	n := 0
	for _, c := range r.Classes {
		n += c.Updated
	}
	return n
}

// TotalErrors sums per-row failures across classes.
func (r *EmbeddingReport) TotalErrors() int {
	n := 0
	for _, c := range r.Classes {
		n += c.Errors
	}
	return n
}

// BackfillEmbeddings walks every embedding class and fills rows whose
// vector is missing. Rows are processed serially with a pacing delay;
// per-row failures are counted and skipped, never aborting the run.
func (s *Service) BackfillEmbeddings(ctx context.Context, opts BackfillOptions) (*EmbeddingReport, error) {
	if s.embedder == nil {
		return nil, embedding.ErrNotConfigured
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultBackfillDelay
	}
	batch := opts.Batch
	if batch <= 0 {
		batch = 25
	}

	report := &EmbeddingReport{DryRun: opts.DryRun}
	for _, class := range models.AllEmbedClasses() {
		counts, err := s.store.CountEmbeddings(ctx, class)
		if err != nil {
			return nil, fmt.Errorf("count %s embeddings: %w", class, err)
		}
		cr := ClassReport{Class: class, MissingBefore: counts.Missing}

		rows, err := s.store.MissingEmbeddingRows(ctx, class, opts.Limit)
		if err != nil {
			return nil, fmt.Errorf("list %s candidates: %w", class, err)
		}
		cr.Candidates = len(rows)

		if opts.DryRun {
			s.logger.Info("backfill dry run",
				"class", class, "missing", counts.Missing, "candidates", len(rows))
			report.Classes = append(report.Classes, cr)
			continue
		}

		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			vec, err := s.embedder.Embed(ctx, row.Content)
			if err != nil {
				s.logger.Warn("backfill embedding failed",
					"class", class, "id", row.ID, "error", err)
				cr.Errors++
			} else if err := s.store.SetEmbedding(ctx, class, row.ID, vec); err != nil {
				s.logger.Warn("backfill update failed",
					"class", class, "id", row.ID, "error", err)
				cr.Errors++
			} else {
				cr.Updated++
			}
			if (i+1)%batch == 0 {
				s.logger.Info("backfill progress",
					"class", class, "done", i+1, "total", len(rows))
			}
			if i < len(rows)-1 {
				time.Sleep(opts.Delay)
			}
		}
		s.logger.Info("backfill class finished",
			"class", class, "updated", cr.Updated, "errors", cr.Errors)
		report.Classes = append(report.Classes, cr)
	}
	return report, nil
}

// RelationshipReport is the outcome of a relationship re-derivation run.
type RelationshipReport struct {
	Facts   int  `json:"facts"`
	Created int  `json:"created"`
	Skipped int  `json:"skipped"`
	Errors  int  `json:"errors"`
	DryRun  bool `json:"dry_run"`
}

// BackfillRelationships re-derives graph edges from the current facts by
// mining their text for relationship phrases. Targets that do not exist yet
// are created with a classified type. Idempotent: re-runs refresh edge
// strength rather than duplicating edges.
func (s *Service) BackfillRelationships(ctx context.Context, opts BackfillOptions) (*RelationshipReport, error) {
	facts, err := s.store.OpenFactsWithEntity(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list open facts: %w", err)
	}

	report := &RelationshipReport{Facts: len(facts), DryRun: opts.DryRun}
	for _, f := range facts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		relations := ExtractRelationships(f.Content, f.EntityName)
		if len(relations) == 0 {
			report.Skipped++
			continue
		}
		for _, rel := range relations {
			if opts.DryRun {
				s.logger.Info("relationship candidate",
					"from", f.EntityName, "type", rel.Type, "to", rel.Target)
				report.Created++
				continue
			}
			target, err := s.store.FindEntityByName(ctx, rel.Target)
			if err != nil {
				report.Errors++
				continue
			}
			if target == nil {
				target, _, err = s.UpsertEntity(ctx, s.Classifier(rel.Target), rel.Target, nil)
				if err != nil {
					s.logger.Warn("backfill target entity failed",
						"name", rel.Target, "error", err)
					report.Errors++
					continue
				}
			}
			if _, err := s.store.UpsertRelationship(ctx, f.EntityID, target.ID, rel.Type, DefaultExtractedStrength); err != nil {
				s.logger.Warn("backfill relationship failed",
					"from", f.EntityName, "to", rel.Target, "error", err)
				report.Errors++
				continue
			}
			report.Created++
		}
	}
	s.logger.Info("relationship backfill finished",
		"facts", report.Facts, "created", report.Created,
		"skipped", report.Skipped, "errors", report.Errors)
	return report, nil
}
