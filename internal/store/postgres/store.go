// Package postgres backs the record-store contracts with Postgres.
// Traversals use keyset cursors so pages stay cheap regardless of table
// size, and batch deletes go through a single pgx batch round trip.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiztopia-api/internal/domain"
)

const (
	maxBatchKeys = 25
	scanPageSize = 100
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, password_hash = EXCLUDED.password_hash`,
		user.UserID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash, created_at
		FROM users WHERE email = $1`, email).
		Scan(&user.UserID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	return user, nil
}

func (s *Store) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (quiz_id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (quiz_id) DO UPDATE
		SET name = EXCLUDED.name, owner_id = EXCLUDED.owner_id`,
		quiz.QuizID, quiz.Name, quiz.OwnerID, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx, `
		SELECT quiz_id, name, owner_id, created_at
		FROM quizzes WHERE quiz_id = $1`, quizID).
		Scan(&quiz.QuizID, &quiz.Name, &quiz.OwnerID, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (s *Store) ScanQuizzes(ctx context.Context, cursor string) (domain.QuizPage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quiz_id, name, owner_id, created_at
		FROM quizzes WHERE quiz_id > $1
		ORDER BY quiz_id LIMIT $2`, cursor, scanPageSize)
	if err != nil {
		return domain.QuizPage{}, fmt.Errorf("scan quizzes: %w", err)
	}
	defer rows.Close()

	page := domain.QuizPage{}
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.QuizID, &quiz.Name, &quiz.OwnerID, &quiz.CreatedAt); err != nil {
			return domain.QuizPage{}, fmt.Errorf("scan quizzes: %w", err)
		}
		page.Quizzes = append(page.Quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return domain.QuizPage{}, fmt.Errorf("scan quizzes: %w", err)
	}
	if len(page.Quizzes) == scanPageSize {
		page.Cursor = page.Quizzes[len(page.Quizzes)-1].QuizID
	}
	return page, nil
}

func (s *Store) PutQuestion(ctx context.Context, question domain.Question) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (quiz_id, question_id, question, answer, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (quiz_id, question_id) DO NOTHING`,
		question.QuizID, question.QuestionID, question.Question, question.Answer,
		question.Lat, question.Lng, question.CreatedAt)
	if err != nil {
		return fmt.Errorf("put question: %w", err)
	}
	return nil
}

func (s *Store) QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quiz_id, question_id, question, answer, lat, lng, created_at
		FROM questions WHERE quiz_id = $1
		ORDER BY question_id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.QuizID, &q.QuestionID, &q.Question, &q.Answer, &q.Lat, &q.Lng, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("load questions: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func (s *Store) QuestionKeys(ctx context.Context, quizID, cursor string, limit int) (domain.QuestionKeyPage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id FROM questions
		WHERE quiz_id = $1 AND question_id > $2
		ORDER BY question_id LIMIT $3`, quizID, cursor, limit)
	if err != nil {
		return domain.QuestionKeyPage{}, fmt.Errorf("page question keys: %w", err)
	}
	defer rows.Close()

	page := domain.QuestionKeyPage{}
	for rows.Next() {
		var questionID string
		if err := rows.Scan(&questionID); err != nil {
			return domain.QuestionKeyPage{}, fmt.Errorf("page question keys: %w", err)
		}
		page.Keys = append(page.Keys, domain.QuestionKey{QuizID: quizID, QuestionID: questionID})
	}
	if err := rows.Err(); err != nil {
		return domain.QuestionKeyPage{}, fmt.Errorf("page question keys: %w", err)
	}
	if len(page.Keys) == limit {
		page.Cursor = page.Keys[len(page.Keys)-1].QuestionID
	}
	return page, nil
}

func (s *Store) BatchDeleteQuestions(ctx context.Context, keys []domain.QuestionKey) ([]domain.QuestionKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	batch := &pgx.Batch{}
	for _, key := range keys {
		batch.Queue(`DELETE FROM questions WHERE quiz_id = $1 AND question_id = $2`, key.QuizID, key.QuestionID)
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("batch delete questions: %w", err)
	}
	// Postgres either deletes or errors; there is no throttled subset.
	return nil, nil
}

func (s *Store) PutScore(ctx context.Context, entry domain.ScoreEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scores (quiz_id, rank_key, entry_id, user_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (quiz_id, rank_key, entry_id) DO NOTHING`,
		entry.QuizID, entry.RankKey, entry.EntryID, entry.UserID, entry.Score, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

func (s *Store) TopScores(ctx context.Context, quizID string, limit int) ([]domain.ScoreEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quiz_id, rank_key, entry_id, user_id, score, created_at
		FROM scores WHERE quiz_id = $1
		ORDER BY rank_key ASC, entry_id LIMIT $2`, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	entries := []domain.ScoreEntry{}
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.QuizID, &e.RankKey, &e.EntryID, &e.UserID, &e.Score, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("top scores: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return entries, nil
}

func (s *Store) ScoreKeys(ctx context.Context, quizID, cursor string, limit int) (domain.ScoreKeyPage, error) {
	afterRank, afterEntry, err := parseScoreCursor(cursor)
	if err != nil {
		return domain.ScoreKeyPage{}, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT rank_key, entry_id FROM scores
		WHERE quiz_id = $1 AND (rank_key, entry_id) > ($2, $3)
		ORDER BY rank_key, entry_id LIMIT $4`, quizID, afterRank, afterEntry, limit)
	if err != nil {
		return domain.ScoreKeyPage{}, fmt.Errorf("page score keys: %w", err)
	}
	defer rows.Close()

	page := domain.ScoreKeyPage{}
	for rows.Next() {
		key := domain.ScoreKey{QuizID: quizID}
		if err := rows.Scan(&key.RankKey, &key.EntryID); err != nil {
			return domain.ScoreKeyPage{}, fmt.Errorf("page score keys: %w", err)
		}
		page.Keys = append(page.Keys, key)
	}
	if err := rows.Err(); err != nil {
		return domain.ScoreKeyPage{}, fmt.Errorf("page score keys: %w", err)
	}
	if len(page.Keys) == limit {
		last := page.Keys[len(page.Keys)-1]
		page.Cursor = strconv.FormatInt(last.RankKey, 10) + ":" + last.EntryID
	}
	return page, nil
}

func (s *Store) BatchDeleteScores(ctx context.Context, keys []domain.ScoreKey) ([]domain.ScoreKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	batch := &pgx.Batch{}
	for _, key := range keys {
		batch.Queue(`DELETE FROM scores WHERE quiz_id = $1 AND rank_key = $2 AND entry_id = $3`,
			key.QuizID, key.RankKey, key.EntryID)
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("batch delete scores: %w", err)
	}
	return nil, nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func parseScoreCursor(cursor string) (int64, string, error) {
	if cursor == "" {
		// Rank keys can go negative past the encode ceiling, so the
		// traversal starts below any representable key.
		return -1 << 62, "", nil
	}
	rankStr, entry, ok := strings.Cut(cursor, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed score cursor %q", cursor)
	}
	rankKey, err := strconv.ParseInt(rankStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed score cursor %q", cursor)
	}
	return rankKey, entry, nil
}
