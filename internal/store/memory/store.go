// Package memory backs the record-store contracts with maps. It is the
// default backend for tests and for running without infrastructure.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"quiztopia-api/internal/domain"
)

const maxBatchKeys = 25

// Store keeps every table in memory. Scans and key pages use keyset
// cursors over sorted identifiers, so traversals are deterministic.
type Store struct {
	// ScanPageSize bounds pages returned by ScanQuizzes. Zero means the
	// default; tests shrink it to exercise cursor handling.
	ScanPageSize int

	mu           sync.RWMutex
	users        map[string]domain.User
	usersByEmail map[string]string
	quizzes      map[string]domain.Quiz
	questions    map[string]map[string]domain.Question
	scores       map[string][]domain.ScoreEntry
}

const defaultScanPageSize = 100

func New() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		quizzes:      make(map[string]domain.Quiz),
		questions:    make(map[string]map[string]domain.Question),
		scores:       make(map[string][]domain.ScoreEntry),
	}
}

func (s *Store) PutUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
	s.usersByEmail[user.Email] = user.UserID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) PutQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.QuizID] = quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizzes, quizID)
	return nil
}

func (s *Store) ScanQuizzes(_ context.Context, cursor string) (domain.QuizPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.quizzes))
	for id := range s.quizzes {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	pageSize := s.ScanPageSize
	if pageSize <= 0 {
		pageSize = defaultScanPageSize
	}

	page := domain.QuizPage{}
	for i, id := range ids {
		if i == pageSize {
			page.Cursor = ids[i-1]
			break
		}
		page.Quizzes = append(page.Quizzes, s.quizzes[id])
	}
	return page, nil
}

func (s *Store) PutQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.questions[question.QuizID]
	if !ok {
		byID = make(map[string]domain.Question)
		s.questions[question.QuizID] = byID
	}
	byID[question.QuestionID] = question
	return nil
}

func (s *Store) QuestionsByQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.questions[quizID]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, byID[id])
	}
	return questions, nil
}

func (s *Store) QuestionKeys(_ context.Context, quizID, cursor string, limit int) (domain.QuestionKeyPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.questions[quizID]))
	for id := range s.questions[quizID] {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	page := domain.QuestionKeyPage{}
	for i, id := range ids {
		if limit > 0 && i == limit {
			page.Cursor = ids[i-1]
			break
		}
		page.Keys = append(page.Keys, domain.QuestionKey{QuizID: quizID, QuestionID: id})
	}
	return page, nil
}

func (s *Store) BatchDeleteQuestions(_ context.Context, keys []domain.QuestionKey) ([]domain.QuestionKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.questions[key.QuizID], key.QuestionID)
	}
	return nil, nil
}

func (s *Store) PutScore(_ context.Context, entry domain.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[entry.QuizID] = append(s.scores[entry.QuizID], entry)
	return nil
}

func (s *Store) TopScores(_ context.Context, quizID string, limit int) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ScoreEntry, len(s.scores[quizID]))
	copy(entries, s.scores[quizID])
	// Stable keeps insertion order among rank-key ties.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RankKey < entries[j].RankKey
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) ScoreKeys(_ context.Context, quizID, cursor string, limit int) (domain.ScoreKeyPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.ScoreKey, 0, len(s.scores[quizID]))
	for _, entry := range s.scores[quizID] {
		keys = append(keys, domain.ScoreKey{QuizID: quizID, RankKey: entry.RankKey, EntryID: entry.EntryID})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RankKey != keys[j].RankKey {
			return keys[i].RankKey < keys[j].RankKey
		}
		return keys[i].EntryID < keys[j].EntryID
	})

	afterRank, afterEntry, err := parseScoreCursor(cursor)
	if err != nil {
		return domain.ScoreKeyPage{}, err
	}

	page := domain.ScoreKeyPage{}
	for _, key := range keys {
		if cursor != "" && !scoreKeyAfter(key, afterRank, afterEntry) {
			continue
		}
		if limit > 0 && len(page.Keys) == limit {
			last := page.Keys[len(page.Keys)-1]
			page.Cursor = formatScoreCursor(last.RankKey, last.EntryID)
			return page, nil
		}
		page.Keys = append(page.Keys, key)
	}
	return page, nil
}

func (s *Store) BatchDeleteScores(_ context.Context, keys []domain.ScoreKey) ([]domain.ScoreKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		entries := s.scores[key.QuizID]
		for i, entry := range entries {
			if entry.EntryID == key.EntryID {
				s.scores[key.QuizID] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}
	return nil, nil
}

func scoreKeyAfter(key domain.ScoreKey, rank int64, entry string) bool {
	if key.RankKey != rank {
		return key.RankKey > rank
	}
	return key.EntryID > entry
}

func formatScoreCursor(rank int64, entry string) string {
	return strconv.FormatInt(rank, 10) + ":" + entry
}

func parseScoreCursor(cursor string) (int64, string, error) {
	if cursor == "" {
		return 0, "", nil
	}
	rankStr, entry, ok := strings.Cut(cursor, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed score cursor %q", cursor)
	}
	rank, err := strconv.ParseInt(rankStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed score cursor %q", cursor)
	}
	return rank, entry, nil
}
