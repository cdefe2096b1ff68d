package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/rank"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestQuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.GetQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	created := time.Now().UTC().Truncate(time.Millisecond)
	quiz := domain.Quiz{QuizID: "q1", Name: "Harbor tour", OwnerID: "owner", CreatedAt: created}
	if err := store.PutQuiz(ctx, quiz); err != nil {
		t.Fatalf("put quiz: %v", err)
	}

	got, err := store.GetQuiz(ctx, "q1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Name != quiz.Name || got.OwnerID != quiz.OwnerID || !got.CreatedAt.Equal(created) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := store.DeleteQuiz(ctx, "q1"); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuiz(ctx, "q1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestScanQuizzesVisitsAll(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for i := 0; i < 12; i++ {
		if err := store.PutQuiz(ctx, domain.Quiz{QuizID: fmt.Sprintf("quiz-%d", i), Name: "n", OwnerID: "o", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("put quiz: %v", err)
		}
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		page, err := store.ScanQuizzes(ctx, cursor)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		for _, q := range page.Quizzes {
			seen[q.QuizID] = true
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 distinct quizzes, got %d", len(seen))
	}
}

func TestTopScoresOrdering(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i, score := range []float64{10, 30, 20} {
		entry := domain.ScoreEntry{
			QuizID:    "q1",
			RankKey:   rank.Encode(score),
			EntryID:   fmt.Sprintf("entry-%d", i),
			UserID:    fmt.Sprintf("u%d", i),
			Score:     score,
			CreatedAt: time.Now(),
		}
		if err := store.PutScore(ctx, entry); err != nil {
			t.Fatalf("put score: %v", err)
		}
	}

	entries, err := store.TopScores(ctx, "q1", 10)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Score != 30 || entries[1].Score != 20 || entries[2].Score != 10 {
		t.Fatalf("expected descending scores, got %+v", entries)
	}

	limited, err := store.TopScores(ctx, "q1", 1)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(limited) != 1 || limited[0].UserID != "u1" {
		t.Fatalf("expected only the best entry, got %+v", limited)
	}
}

func TestScoreKeysAndBatchDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 6; i++ {
		entry := domain.ScoreEntry{
			QuizID:    "q1",
			RankKey:   rank.Encode(float64(i)),
			EntryID:   fmt.Sprintf("entry-%d", i),
			UserID:    "u",
			Score:     float64(i),
			CreatedAt: time.Now(),
		}
		if err := store.PutScore(ctx, entry); err != nil {
			t.Fatalf("put score: %v", err)
		}
	}

	var keys []domain.ScoreKey
	cursor := ""
	for {
		page, err := store.ScoreKeys(ctx, "q1", cursor, 3)
		if err != nil {
			t.Fatalf("score keys: %v", err)
		}
		keys = append(keys, page.Keys...)
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	if len(keys) != 6 {
		t.Fatalf("expected 6 keys, got %d", len(keys))
	}

	unprocessed, err := store.BatchDeleteScores(ctx, keys)
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if len(unprocessed) != 0 {
		t.Fatalf("expected no unprocessed keys, got %d", len(unprocessed))
	}

	entries, err := store.TopScores(ctx, "q1", 10)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries after delete, got %d", len(entries))
	}
}

func TestQuestionRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	lat, lng := 59.3293, 18.0686
	question := domain.Question{
		QuizID:     "q1",
		QuestionID: "question-1",
		Question:   "Where is the palace?",
		Answer:     "Gamla stan",
		Lat:        &lat,
		Lng:        &lng,
		CreatedAt:  time.Now(),
	}
	if err := store.PutQuestion(ctx, question); err != nil {
		t.Fatalf("put question: %v", err)
	}

	questions, err := store.QuestionsByQuiz(ctx, "q1")
	if err != nil {
		t.Fatalf("questions by quiz: %v", err)
	}
	if len(questions) != 1 || questions[0].Lat == nil || *questions[0].Lat != lat {
		t.Fatalf("round trip mismatch: %+v", questions)
	}

	page, err := store.QuestionKeys(ctx, "q1", "", 25)
	if err != nil {
		t.Fatalf("question keys: %v", err)
	}
	if _, err := store.BatchDeleteQuestions(ctx, page.Keys); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	questions, err = store.QuestionsByQuiz(ctx, "q1")
	if err != nil {
		t.Fatalf("questions by quiz: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions after delete, got %d", len(questions))
	}
}

func TestUserByEmailIndex(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.UserByEmail(ctx, "missing@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	user := domain.User{UserID: "u1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
	if err := store.PutUser(ctx, user); err != nil {
		t.Fatalf("put user: %v", err)
	}
	got, err := store.UserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.UserID != "u1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", got)
	}
}
