package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiztopia-api/internal/domain"
)

// QuizService covers quiz and question lifecycle up to deletion, which
// belongs to Deleter.
type QuizService struct {
	quizzes   QuizStore
	questions QuestionStore
	now       func() time.Time
	newID     func() string
}

func NewQuizService(quizzes QuizStore, questions QuestionStore) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create stores a new quiz owned by the requester.
func (s *QuizService) Create(ctx context.Context, ownerID, name string) (domain.Quiz, error) {
	if ownerID == "" || name == "" {
		return domain.Quiz{}, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	quiz := domain.Quiz{
		QuizID:    s.newID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.quizzes.PutQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("put quiz: %w", err)
	}
	return quiz, nil
}

// Get returns a quiz together with all its questions.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	if quizID == "" {
		return domain.Quiz{}, nil, fmt.Errorf("%w: quizId required", domain.ErrValidation)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.questions.QuestionsByQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load questions: %w", err)
	}
	return quiz, questions, nil
}

// List walks the full quiz set, following the scan cursor to the end.
func (s *QuizService) List(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	cursor := ""
	for {
		page, err := s.quizzes.ScanQuizzes(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("scan quizzes: %w", err)
		}
		quizzes = append(quizzes, page.Quizzes...)
		if page.Cursor == "" {
			return quizzes, nil
		}
		cursor = page.Cursor
	}
}

// AddQuestion appends a question to a quiz the requester owns. Questions
// are immutable once written; there is no update path.
func (s *QuizService) AddQuestion(ctx context.Context, quizID, requesterID, prompt, answer string, lat, lng *float64) (domain.Question, error) {
	if quizID == "" || prompt == "" || answer == "" {
		return domain.Question{}, fmt.Errorf("%w: quizId, question and answer required", domain.ErrValidation)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	if quiz.OwnerID != requesterID {
		return domain.Question{}, domain.ErrForbidden
	}
	question := domain.Question{
		QuizID:     quizID,
		QuestionID: s.newID(),
		Question:   prompt,
		Answer:     answer,
		Lat:        lat,
		Lng:        lng,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.questions.PutQuestion(ctx, question); err != nil {
		return domain.Question{}, fmt.Errorf("put question: %w", err)
	}
	return question, nil
}
