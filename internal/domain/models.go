package domain

import "time"

// User is an account that can own quizzes and submit scores.
type User struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Quiz is the parent record; its questions and scores cannot outlive it.
type Quiz struct {
	QuizID    string    `json:"quizId"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question belongs to exactly one quiz and is keyed by (quizID, questionID).
// Coordinates are optional; quizzes are played on a map.
type Question struct {
	QuizID     string    `json:"quizId"`
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ScoreEntry is an immutable score submission. RankKey is derived from
// Score so that an ascending scan within a quiz returns the best score
// first. EntryID disambiguates entries that tie on the same rank key;
// every submission is retained.
type ScoreEntry struct {
	QuizID    string    `json:"quizId"`
	RankKey   int64     `json:"-"`
	EntryID   string    `json:"-"`
	UserID    string    `json:"userId"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionKey identifies one question record for deletion.
type QuestionKey struct {
	QuizID     string
	QuestionID string
}

// ScoreKey identifies one score record for deletion.
type ScoreKey struct {
	QuizID  string
	RankKey int64
	EntryID string
}

// QuizPage is one page of a full quiz-set traversal. An empty Cursor
// means the traversal is exhausted.
type QuizPage struct {
	Quizzes []Quiz
	Cursor  string
}

// QuestionKeyPage is one page of question keys for a quiz.
type QuestionKeyPage struct {
	Keys   []QuestionKey
	Cursor string
}

// ScoreKeyPage is one page of score keys for a quiz.
type ScoreKeyPage struct {
	Keys   []ScoreKey
	Cursor string
}

// DeleteResult reports how many records a cascading delete removed.
type DeleteResult struct {
	Quiz      int `json:"quiz"`
	Questions int `json:"questions"`
	Scores    int `json:"scores"`
}

// LeaderboardItem is the public view of one score entry; the internal
// rank key is dropped.
type LeaderboardItem struct {
	UserID string    `json:"userId"`
	Score  float64   `json:"score"`
	At     time.Time `json:"at"`
}

// QuizLeaderboard is one quiz's top list in the all-quizzes view. Top is
// empty, not nil, for quizzes without scores.
type QuizLeaderboard struct {
	QuizID string            `json:"quizId"`
	Name   string            `json:"name"`
	Top    []LeaderboardItem `json:"top"`
}
