package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"quiztopia-api/internal/domain"
)

// LeaderboardService assembles the public leaderboard views.
type LeaderboardService struct {
	quizzes QuizStore
	scores  *ScoreService
}

func NewLeaderboardService(quizzes QuizStore, scores *ScoreService) *LeaderboardService {
	return &LeaderboardService{quizzes: quizzes, scores: scores}
}

// Leaderboard returns the top entries for one quiz.
func (l *LeaderboardService) Leaderboard(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardItem, error) {
	return l.scores.Top(ctx, quizID, limit)
}

// AllLeaderboards walks the full quiz set, then fetches each quiz's top
// list. The per-quiz reads are independent and run concurrently; any
// single failure fails the whole aggregation. Quizzes keep their
// enumeration order, and a quiz without scores gets an empty top list.
func (l *LeaderboardService) AllLeaderboards(ctx context.Context, limit int) ([]domain.QuizLeaderboard, error) {
	var quizzes []domain.Quiz
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := l.quizzes.ScanQuizzes(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("scan quizzes: %w", err)
		}
		for _, q := range page.Quizzes {
			// A scan of a live store may replay a quiz across pages.
			if _, ok := seen[q.QuizID]; ok {
				continue
			}
			seen[q.QuizID] = struct{}{}
			quizzes = append(quizzes, q)
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	boards := make([]domain.QuizLeaderboard, len(quizzes))
	g, gctx := errgroup.WithContext(ctx)
	for i, quiz := range quizzes {
		i, quiz := i, quiz
		g.Go(func() error {
			top, err := l.scores.Top(gctx, quiz.QuizID, limit)
			if err != nil {
				return err
			}
			boards[i] = domain.QuizLeaderboard{
				QuizID: quiz.QuizID,
				Name:   quiz.Name,
				Top:    top,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return boards, nil
}
