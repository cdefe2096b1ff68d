package app

import (
	"context"
	"fmt"
	"time"

	"quiztopia-api/internal/domain"
)

// DeleteConfig tunes the cascading delete. Zero values fall back to the
// defaults below.
type DeleteConfig struct {
	// PageSize bounds how many dependent keys are fetched per page.
	PageSize int
	// ChunkSize is the batch-delete size, capped at MaxBatchKeys.
	ChunkSize int
	// MaxRetries bounds resubmissions of an unprocessed subset before the
	// deletion surfaces domain.ErrUnavailable.
	MaxRetries int
	// Backoff is the base wait before the first resubmission; it doubles
	// on each subsequent attempt.
	Backoff time.Duration
}

const (
	defaultPageSize   = 100
	defaultMaxRetries = 8
	defaultBackoff    = 120 * time.Millisecond
)

// Deleter removes a quiz together with every question and score that
// depends on it. The phases run in order and each is independently
// resumable: ownership check, question purge, score purge, quiz record
// delete. No transaction spans them; a crash mid-purge leaves a state a
// repeated call safely completes.
type Deleter struct {
	quizzes   QuizStore
	questions QuestionStore
	scores    ScoreStore
	cfg       DeleteConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDeleter(quizzes QuizStore, questions QuestionStore, scores ScoreStore, cfg DeleteConfig) *Deleter {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > MaxBatchKeys {
		cfg.ChunkSize = MaxBatchKeys
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	return &Deleter{
		quizzes:   quizzes,
		questions: questions,
		scores:    scores,
		cfg:       cfg,
		sleep:     sleepCtx,
	}
}

// DeleteQuiz removes the quiz and everything under it, reporting how
// many records went away. Only the owner may delete; authorization
// failures are terminal and never retried.
func (d *Deleter) DeleteQuiz(ctx context.Context, quizID, requesterID string) (domain.DeleteResult, error) {
	var res domain.DeleteResult
	if quizID == "" || requesterID == "" {
		return res, fmt.Errorf("%w: quizId and requesterId required", domain.ErrValidation)
	}

	quiz, err := d.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return res, err
	}
	if quiz.OwnerID != requesterID {
		return res, domain.ErrForbidden
	}

	res.Questions, err = d.purgeQuestions(ctx, quizID)
	if err != nil {
		return res, err
	}
	res.Scores, err = d.purgeScores(ctx, quizID)
	if err != nil {
		return res, err
	}

	if err := d.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return res, fmt.Errorf("delete quiz record: %w", err)
	}
	res.Quiz = 1
	return res, nil
}

func (d *Deleter) purgeQuestions(ctx context.Context, quizID string) (int, error) {
	deleted := 0
	cursor := ""
	for {
		page, err := d.questions.QuestionKeys(ctx, quizID, cursor, d.cfg.PageSize)
		if err != nil {
			return deleted, fmt.Errorf("page question keys: %w", err)
		}
		if err := deleteChunks(ctx, d, page.Keys, d.questions.BatchDeleteQuestions); err != nil {
			return deleted, err
		}
		deleted += len(page.Keys)
		if page.Cursor == "" {
			return deleted, nil
		}
		cursor = page.Cursor
	}
}

func (d *Deleter) purgeScores(ctx context.Context, quizID string) (int, error) {
	deleted := 0
	cursor := ""
	for {
		page, err := d.scores.ScoreKeys(ctx, quizID, cursor, d.cfg.PageSize)
		if err != nil {
			return deleted, fmt.Errorf("page score keys: %w", err)
		}
		if err := deleteChunks(ctx, d, page.Keys, d.scores.BatchDeleteScores); err != nil {
			return deleted, err
		}
		deleted += len(page.Keys)
		if page.Cursor == "" {
			return deleted, nil
		}
		cursor = page.Cursor
	}
}

// deleteChunks splits keys into batches and resubmits whatever the store
// reports as unprocessed, doubling the backoff between attempts. Each
// chunk's completed deletes are final regardless of later failures.
func deleteChunks[K any](ctx context.Context, d *Deleter, keys []K, batchDelete func(context.Context, []K) ([]K, error)) error {
	for start := 0; start < len(keys); start += d.cfg.ChunkSize {
		end := start + d.cfg.ChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		unprocessed, err := batchDelete(ctx, keys[start:end])
		if err != nil {
			return fmt.Errorf("batch delete: %w", err)
		}
		for attempt := 0; len(unprocessed) > 0; attempt++ {
			if attempt >= d.cfg.MaxRetries {
				return fmt.Errorf("%w: %d keys unprocessed after %d attempts", domain.ErrUnavailable, len(unprocessed), d.cfg.MaxRetries)
			}
			if err := d.sleep(ctx, d.cfg.Backoff<<attempt); err != nil {
				return err
			}
			unprocessed, err = batchDelete(ctx, unprocessed)
			if err != nil {
				return fmt.Errorf("batch delete retry: %w", err)
			}
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
