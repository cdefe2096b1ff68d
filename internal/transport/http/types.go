package http

import "quiztopia-api/internal/domain"

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type createQuizRequest struct {
	Name string `json:"name"`
}

type createQuizResponse struct {
	QuizID string `json:"quizId"`
	Name   string `json:"name"`
}

type quizResponse struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

type addQuestionRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

type addQuestionResponse struct {
	QuizID     string `json:"quizId"`
	QuestionID string `json:"questionId"`
}

// Score is a pointer so a missing field is distinguishable from zero.
type submitScoreRequest struct {
	Score *float64 `json:"score"`
}

type submitScoreResponse struct {
	OK bool `json:"ok"`
}

type deleteQuizResponse struct {
	OK      bool                `json:"ok"`
	QuizID  string              `json:"quizId"`
	Deleted domain.DeleteResult `json:"deleted"`
}

type healthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

type errorResponse struct {
	Error string `json:"error"`
}
