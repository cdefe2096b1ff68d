package app_test

import (
	"context"
	"errors"
	"testing"

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/store/memory"
)

func TestCreateAndGetQuiz(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	quizzes := app.NewQuizService(store, store)

	quiz := mustCreateQuiz(t, quizzes, "owner", "Stockholm walk")
	lat, lng := 59.3293, 18.0686
	if _, err := quizzes.AddQuestion(ctx, quiz.QuizID, "owner", "Where is the royal palace?", "Gamla stan", &lat, &lng); err != nil {
		t.Fatalf("add question: %v", err)
	}

	got, questions, err := quizzes.Get(ctx, quiz.QuizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Name != "Stockholm walk" || got.OwnerID != "owner" {
		t.Fatalf("unexpected quiz %+v", got)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Lat == nil || *questions[0].Lat != lat {
		t.Fatalf("coordinates lost: %+v", questions[0])
	}
}

func TestAddQuestionRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	quizzes := app.NewQuizService(store, store)

	quiz := mustCreateQuiz(t, quizzes, "owner", "mine")
	if _, err := quizzes.AddQuestion(ctx, quiz.QuizID, "intruder", "q", "a", nil, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := quizzes.AddQuestion(ctx, "missing", "owner", "q", "a", nil, nil); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListQuizzesFollowsCursor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.ScanPageSize = 2
	quizzes := app.NewQuizService(store, store)

	for i := 0; i < 7; i++ {
		mustCreateQuiz(t, quizzes, "owner", "quiz")
	}

	all, err := quizzes.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("expected 7 quizzes, got %d", len(all))
	}
}

func TestCreateQuizValidation(t *testing.T) {
	quizzes := app.NewQuizService(memory.New(), memory.New())
	if _, err := quizzes.Create(context.Background(), "owner", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
