package app

import (
	"context"

	"quiztopia-api/internal/domain"
)

// MaxBatchKeys is the largest key set a store accepts in one batch
// delete. Larger deletions are chunked by the deleter.
const MaxBatchKeys = 25

// DefaultLimit is the leaderboard size used when callers pass none.
const DefaultLimit = 10

// UserStore persists accounts and supports the by-email lookup used at
// signup and login.
type UserStore interface {
	PutUser(ctx context.Context, user domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

// QuizStore persists quiz records. ScanQuizzes is an unordered full
// traversal; callers follow the page cursor until it comes back empty.
type QuizStore interface {
	PutQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	ScanQuizzes(ctx context.Context, cursor string) (domain.QuizPage, error)
}

// QuestionStore persists question records keyed by (quizID, questionID).
// BatchDeleteQuestions takes at most MaxBatchKeys keys and returns the
// subset the store could not process; those must be resubmitted.
type QuestionStore interface {
	PutQuestion(ctx context.Context, question domain.Question) error
	QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
	QuestionKeys(ctx context.Context, quizID, cursor string, limit int) (domain.QuestionKeyPage, error)
	BatchDeleteQuestions(ctx context.Context, keys []domain.QuestionKey) ([]domain.QuestionKey, error)
}

// ScoreStore persists immutable score entries. TopScores scans a quiz
// partition in ascending rank-key order, which by construction returns
// the highest raw scores first.
type ScoreStore interface {
	PutScore(ctx context.Context, entry domain.ScoreEntry) error
	TopScores(ctx context.Context, quizID string, limit int) ([]domain.ScoreEntry, error)
	ScoreKeys(ctx context.Context, quizID, cursor string, limit int) (domain.ScoreKeyPage, error)
	BatchDeleteScores(ctx context.Context, keys []domain.ScoreKey) ([]domain.ScoreKey, error)
}
