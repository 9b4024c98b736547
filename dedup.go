package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	generationAttempts = 5
	attemptDelay       = 100 * time.Millisecond
)

// Deduplicator produces one freshly generated question per request that is
// neither in the caller's exclusion list nor a textual duplicate of a
// persisted question, within a bounded number of attempts.
//
// Every candidate that survives the generation step is persisted before the
// duplicate checks run, so rejected candidates accumulate as extra rows.
type Deduplicator struct {
	db       *gorm.DB
	gen      QuestionGenerator
	log      *Logger
	attempts int
	delay    time.Duration
}

type DeduplicatorOption func(*Deduplicator)

func WithAttempts(n int) DeduplicatorOption {
	return func(d *Deduplicator) { d.attempts = n }
}

func WithAttemptDelay(delay time.Duration) DeduplicatorOption {
	return func(d *Deduplicator) { d.delay = delay }
}

func NewDeduplicator(db *gorm.DB, gen QuestionGenerator, log *Logger, opts ...DeduplicatorOption) *Deduplicator {
	d := &Deduplicator{
		db:       db,
		gen:      gen,
		log:      log.With("component", "dedup"),
		attempts: generationAttempts,
		delay:    attemptDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GenerateUnique runs the bounded retry loop. Attempts are strictly
// sequential; a short delay before each retry encourages the generator to
// vary its output. A failed existence query counts as a duplicate.
func (d *Deduplicator) GenerateUnique(ctx context.Context, difficulty string, excludeIDs []string) (*Question, error) {
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	difficulty = normalizeDifficulty(difficulty)

	generatorFailures := 0
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.delay):
			}
		}

		cand, err := d.gen.Generate(ctx, difficulty)
		if err != nil {
			generatorFailures++
			d.log.Warnw("generation attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if err := validateGenerated(cand); err != nil {
			generatorFailures++
			d.log.Warnw("generator returned invalid question", "attempt", attempt, "error", err)
			continue
		}

		q, err := d.persist(ctx, cand, difficulty)
		if err != nil {
			d.log.Warnw("candidate persist failed", "attempt", attempt, "error", err)
			continue
		}

		if _, ok := excluded[q.ID]; ok {
			d.log.Debugw("candidate in exclusion list", "attempt", attempt, "question_id", q.ID)
			continue
		}

		dup, err := d.hasTextualDuplicate(ctx, q)
		if err != nil {
			// conservative: a failed check is treated as a duplicate
			d.log.Warnw("duplicate check failed, assuming duplicate", "attempt", attempt, "error", err)
			continue
		}
		if dup {
			d.log.Debugw("candidate is a textual duplicate", "attempt", attempt, "question_id", q.ID)
			continue
		}
		return q, nil
	}

	if generatorFailures == d.attempts {
		return nil, &GenerationError{Provider: d.gen.Name(), Err: errors.New("generator failed on every attempt")}
	}
	return nil, &GenerationExhaustedError{Attempts: d.attempts}
}

func (d *Deduplicator) persist(ctx context.Context, cand GeneratedQuestion, difficulty string) (*Question, error) {
	id := cand.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := &Question{
		ID:                 id,
		QuestionText:       cand.QuestionText,
		CorrectAnswerIndex: cand.CorrectAnswerIndex,
		Explanation:        cand.Explanation,
		Difficulty:         difficulty,
	}
	q.SetOptions(cand.Options)

	// A provider-supplied id may already exist; the row is append-only
	// either way.
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (d *Deduplicator) hasTextualDuplicate(ctx context.Context, q *Question) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Question{}).
		Where("question_text = ? AND id <> ?", q.QuestionText, q.ID).
		Count(&count).Error
	if err != nil {
		return false, &DuplicateCheckError{Err: err}
	}
	return count > 0, nil
}
