package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/store/memory"
)

func TestSubmitAndTopOrdering(t *testing.T) {
	ctx := context.Background()
	scores := app.NewScoreService(memory.New())

	mustSubmit(t, scores, "q1", "a", 10)
	mustSubmit(t, scores, "q1", "b", 30)
	mustSubmit(t, scores, "q1", "c", 20)

	items, err := scores.Top(ctx, "q1", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	want := []struct {
		user  string
		score float64
	}{{"b", 30}, {"c", 20}, {"a", 10}}
	for i, w := range want {
		if items[i].UserID != w.user || items[i].Score != w.score {
			t.Fatalf("position %d: expected %s:%v, got %s:%v", i, w.user, w.score, items[i].UserID, items[i].Score)
		}
	}
}

func TestTopTruncatesToLimit(t *testing.T) {
	ctx := context.Background()
	scores := app.NewScoreService(memory.New())

	for i := 0; i < 15; i++ {
		mustSubmit(t, scores, "q1", "u", float64(i))
	}

	items, err := scores.Top(ctx, "q1", 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	if items[0].Score != 14 {
		t.Fatalf("expected best score first, got %v", items[0].Score)
	}

	// Zero limit falls back to the default of 10.
	items, err = scores.Top(ctx, "q1", 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 10 {
		t.Fatalf("expected default limit 10, got %d", len(items))
	}
}

func TestSubmitToGhostQuizSucceeds(t *testing.T) {
	// Submission never re-validates quiz existence; an orphaned entry is
	// the accepted outcome of racing a delete.
	scores := app.NewScoreService(memory.New())
	if err := scores.Submit(context.Background(), "ghost-quiz", "u1", 50); err != nil {
		t.Fatalf("expected orphan submit to succeed, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	scores := app.NewScoreService(memory.New())
	ctx := context.Background()

	cases := []struct {
		name   string
		quizID string
		userID string
		score  float64
	}{
		{"missing quiz", "", "u1", 10},
		{"missing user", "q1", "", 10},
		{"nan score", "q1", "u1", math.NaN()},
		{"infinite score", "q1", "u1", math.Inf(1)},
		{"negative score", "q1", "u1", -3},
	}
	for _, tc := range cases {
		if err := scores.Submit(ctx, tc.quizID, tc.userID, tc.score); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestTopEmptyQuizIsNotAnError(t *testing.T) {
	items, err := app.NewScoreService(memory.New()).Top(context.Background(), "empty", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d items", len(items))
	}
}

func TestTiedScoresAllRetained(t *testing.T) {
	ctx := context.Background()
	scores := app.NewScoreService(memory.New())

	mustSubmit(t, scores, "q1", "a", 25)
	mustSubmit(t, scores, "q1", "b", 25)
	mustSubmit(t, scores, "q1", "a", 25)

	items, err := scores.Top(ctx, "q1", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("every tied submission should be retained, got %d", len(items))
	}
	for _, item := range items {
		if item.Score != 25 {
			t.Fatalf("unexpected score %v", item.Score)
		}
	}
}

func mustSubmit(t *testing.T, scores *app.ScoreService, quizID, userID string, score float64) {
	t.Helper()
	if err := scores.Submit(context.Background(), quizID, userID, score); err != nil {
		t.Fatalf("submit %s/%s: %v", quizID, userID, err)
	}
}
