package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/rank"
)

// ScoreService records score submissions and serves ranked reads for a
// single quiz.
type ScoreService struct {
	scores ScoreStore
	now    func() time.Time
	newID  func() string
}

func NewScoreService(scores ScoreStore) *ScoreService {
	return &ScoreService{
		scores: scores,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// NewScoreServiceWithClock is test-only for deterministic timestamps.
func NewScoreServiceWithClock(scores ScoreStore, now func() time.Time) *ScoreService {
	s := NewScoreService(scores)
	s.now = now
	return s
}

// Submit appends one immutable score entry for the quiz. The quiz's
// existence is not re-checked: a submission racing a cascading delete
// may leave an orphaned entry, which the next delete pass removes.
func (s *ScoreService) Submit(ctx context.Context, quizID, userID string, score float64) error {
	if quizID == "" || userID == "" || !rank.Valid(score) {
		return fmt.Errorf("%w: quizId, userId and a non-negative numeric score are required", domain.ErrValidation)
	}
	entry := domain.ScoreEntry{
		QuizID:    quizID,
		RankKey:   rank.Encode(score),
		EntryID:   s.newID(),
		UserID:    userID,
		Score:     score,
		CreatedAt: s.now().UTC(),
	}
	if err := s.scores.PutScore(ctx, entry); err != nil {
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

// Top returns at most limit entries for the quiz, best score first.
// Ties share a rank key and come back in store-dependent order. A quiz
// with no scores yields an empty slice, not an error.
func (s *ScoreService) Top(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardItem, error) {
	if quizID == "" {
		return nil, fmt.Errorf("%w: quizId required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	entries, err := s.scores.TopScores(ctx, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	items := make([]domain.LeaderboardItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.LeaderboardItem{
			UserID: e.UserID,
			Score:  e.Score,
			At:     e.CreatedAt,
		})
	}
	return items, nil
}
