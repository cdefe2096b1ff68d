// Package http exposes the quiz API over REST. Request and response
// bodies are explicit typed structs validated here, before anything
// reaches the services.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/domain"
)

type Handler struct {
	auth         *app.AuthService
	quizzes      *app.QuizService
	scores       *app.ScoreService
	leaderboards *app.LeaderboardService
	deleter      *app.Deleter
	defaultLimit int
}

func NewHandler(auth *app.AuthService, quizzes *app.QuizService, scores *app.ScoreService, leaderboards *app.LeaderboardService, deleter *app.Deleter, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = app.DefaultLimit
	}
	return &Handler{
		auth:         auth,
		quizzes:      quizzes,
		scores:       scores,
		leaderboards: leaderboards,
		deleter:      deleter,
		defaultLimit: defaultLimit,
	}
}

// NewRouter wires every endpoint. Leaderboards and quiz reads are
// public; writes require a bearer token.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)
	r.Post("/api/auth/signup", h.Signup)
	r.Post("/api/auth/login", h.Login)

	r.Get("/api/quizzes", h.ListQuizzes)
	r.Get("/api/quizzes/{quizID}", h.GetQuiz)
	r.Get("/api/quizzes/{quizID}/leaderboard", h.Leaderboard)
	r.Get("/api/leaderboard", h.Leaderboards)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/quizzes", h.CreateQuiz)
		r.Delete("/api/quizzes/{quizID}", h.DeleteQuiz)
		r.Post("/api/quizzes/{quizID}/questions", h.AddQuestion)
		r.Post("/api/quizzes/{quizID}/scores", h.SubmitScore)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:      true,
		Service: "quiztopia-api",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	id, token, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: id.UserID, Email: id.Email})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	id, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: id.UserID, Email: id.Email})
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, questions, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: quiz, Questions: questions})
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	quiz, err := h.quizzes.Create(r.Context(), identityFrom(r).UserID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createQuizResponse{QuizID: quiz.QuizID, Name: quiz.Name})
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	deleted, err := h.deleter.DeleteQuiz(r.Context(), quizID, identityFrom(r).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteQuizResponse{OK: true, QuizID: quizID, Deleted: deleted})
}

func (h *Handler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	question, err := h.quizzes.AddQuestion(r.Context(), chi.URLParam(r, "quizID"),
		identityFrom(r).UserID, req.Question, req.Answer, req.Lat, req.Lng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addQuestionResponse{QuizID: question.QuizID, QuestionID: question.QuestionID})
}

func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Score == nil {
		writeError(w, domain.ErrValidation)
		return
	}
	if err := h.scores.Submit(r.Context(), chi.URLParam(r, "quizID"), identityFrom(r).UserID, *req.Score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitScoreResponse{OK: true})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	items, err := h.leaderboards.Leaderboard(r.Context(), chi.URLParam(r, "quizID"), h.limitFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Leaderboards serves both modes of the query-string endpoint: a single
// quiz via ?quizId=, or every quiz via ?all=true.
func (h *Handler) Leaderboards(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		boards, err := h.leaderboards.AllLeaderboards(r.Context(), h.limitFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if boards == nil {
			boards = []domain.QuizLeaderboard{}
		}
		writeJSON(w, http.StatusOK, boards)
		return
	}
	items, err := h.leaderboards.Leaderboard(r.Context(), r.URL.Query().Get("quizId"), h.limitFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) limitFrom(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return h.defaultLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrUserNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		writeJSON(w, code, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
