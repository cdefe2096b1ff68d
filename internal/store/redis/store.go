// Package redis backs the record-store contracts with Redis. Records
// live in hashes, key indexes in sets (SSCAN cursors double as
// continuation cursors), and the per-quiz ranked index is a sorted set
// scored by rank key, so an ascending range read returns the best raw
// score first.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiztopia-api/internal/domain"
)

const (
	maxBatchKeys = 25
	scanCount    = 100
)

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, userKey(user.UserID), map[string]interface{}{
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt.Format(time.RFC3339Nano),
	})
	pipe.HSet(ctx, "users:by_email", user.Email, user.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	id, err := s.client.HGet(ctx, "users:by_email", email).Result()
	if err == redis.Nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	fields, err := s.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return domain.User{
		UserID:       id,
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    parseTime(fields["created_at"]),
	}, nil
}

func (s *Store) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, quizKey(quiz.QuizID), map[string]interface{}{
		"name":       quiz.Name,
		"owner_id":   quiz.OwnerID,
		"created_at": quiz.CreatedAt.Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, "quizzes", quiz.QuizID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	fields, err := s.client.HGetAll(ctx, quizKey(quizID)).Result()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if len(fields) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return domain.Quiz{
		QuizID:    quizID,
		Name:      fields["name"],
		OwnerID:   fields["owner_id"],
		CreatedAt: parseTime(fields["created_at"]),
	}, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, quizKey(quizID))
	pipe.SRem(ctx, "quizzes", quizID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (s *Store) ScanQuizzes(ctx context.Context, cursor string) (domain.QuizPage, error) {
	start, err := parseScanCursor(cursor)
	if err != nil {
		return domain.QuizPage{}, err
	}
	ids, next, err := s.client.SScan(ctx, "quizzes", start, "*", scanCount).Result()
	if err != nil {
		return domain.QuizPage{}, fmt.Errorf("scan quizzes: %w", err)
	}

	page := domain.QuizPage{Cursor: formatScanCursor(next)}
	if len(ids) == 0 {
		return page, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, quizKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.QuizPage{}, fmt.Errorf("load quizzes: %w", err)
	}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Index member without a record: mid-delete, skip it.
			continue
		}
		page.Quizzes = append(page.Quizzes, domain.Quiz{
			QuizID:    ids[i],
			Name:      fields["name"],
			OwnerID:   fields["owner_id"],
			CreatedAt: parseTime(fields["created_at"]),
		})
	}
	return page, nil
}

func (s *Store) PutQuestion(ctx context.Context, question domain.Question) error {
	fields := map[string]interface{}{
		"question":   question.Question,
		"answer":     question.Answer,
		"created_at": question.CreatedAt.Format(time.RFC3339Nano),
	}
	if question.Lat != nil {
		fields["lat"] = strconv.FormatFloat(*question.Lat, 'f', -1, 64)
	}
	if question.Lng != nil {
		fields["lng"] = strconv.FormatFloat(*question.Lng, 'f', -1, 64)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, questionKey(question.QuizID, question.QuestionID), fields)
	pipe.SAdd(ctx, questionIndexKey(question.QuizID), question.QuestionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put question: %w", err)
	}
	return nil
}

func (s *Store) QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	ids, err := s.client.SMembers(ctx, questionIndexKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, questionKey(quizID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		q := domain.Question{
			QuizID:     quizID,
			QuestionID: ids[i],
			Question:   fields["question"],
			Answer:     fields["answer"],
			CreatedAt:  parseTime(fields["created_at"]),
		}
		q.Lat = parseCoord(fields, "lat")
		q.Lng = parseCoord(fields, "lng")
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *Store) QuestionKeys(ctx context.Context, quizID, cursor string, limit int) (domain.QuestionKeyPage, error) {
	start, err := parseScanCursor(cursor)
	if err != nil {
		return domain.QuestionKeyPage{}, err
	}
	ids, next, err := s.client.SScan(ctx, questionIndexKey(quizID), start, "*", int64(limit)).Result()
	if err != nil {
		return domain.QuestionKeyPage{}, fmt.Errorf("scan question keys: %w", err)
	}
	page := domain.QuestionKeyPage{Cursor: formatScanCursor(next)}
	for _, id := range ids {
		page.Keys = append(page.Keys, domain.QuestionKey{QuizID: quizID, QuestionID: id})
	}
	return page, nil
}

func (s *Store) BatchDeleteQuestions(ctx context.Context, keys []domain.QuestionKey) ([]domain.QuestionKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	pipe := s.client.TxPipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Del(ctx, questionKey(key.QuizID, key.QuestionID))
		pipe.SRem(ctx, questionIndexKey(key.QuizID), key.QuestionID)
	}
	return unprocessedKeys(ctx, pipe, cmds, keys)
}

func (s *Store) PutScore(ctx context.Context, entry domain.ScoreEntry) error {
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, scoreIndexKey(entry.QuizID), redis.Z{
		Score:  float64(entry.RankKey),
		Member: entry.EntryID,
	})
	pipe.HSet(ctx, scoreKey(entry.QuizID, entry.EntryID), map[string]interface{}{
		"user_id":    entry.UserID,
		"score":      strconv.FormatFloat(entry.Score, 'f', -1, 64),
		"created_at": entry.CreatedAt.Format(time.RFC3339Nano),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

func (s *Store) TopScores(ctx context.Context, quizID string, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		return []domain.ScoreEntry{}, nil
	}
	// Ascending rank-key order is descending score order.
	members, err := s.client.ZRangeWithScores(ctx, scoreIndexKey(quizID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("range scores: %w", err)
	}
	if len(members) == 0 {
		return []domain.ScoreEntry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.HGetAll(ctx, scoreKey(quizID, member.Member.(string)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	entries := make([]domain.ScoreEntry, 0, len(members))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		score, _ := strconv.ParseFloat(fields["score"], 64)
		entries = append(entries, domain.ScoreEntry{
			QuizID:    quizID,
			RankKey:   int64(members[i].Score),
			EntryID:   members[i].Member.(string),
			UserID:    fields["user_id"],
			Score:     score,
			CreatedAt: parseTime(fields["created_at"]),
		})
	}
	return entries, nil
}

func (s *Store) ScoreKeys(ctx context.Context, quizID, cursor string, limit int) (domain.ScoreKeyPage, error) {
	start, err := parseScanCursor(cursor)
	if err != nil {
		return domain.ScoreKeyPage{}, err
	}
	// ZSCAN yields member/score pairs interleaved.
	raw, next, err := s.client.ZScan(ctx, scoreIndexKey(quizID), start, "*", int64(limit)).Result()
	if err != nil {
		return domain.ScoreKeyPage{}, fmt.Errorf("scan score keys: %w", err)
	}
	page := domain.ScoreKeyPage{Cursor: formatScanCursor(next)}
	for i := 0; i+1 < len(raw); i += 2 {
		rankKey, err := strconv.ParseFloat(raw[i+1], 64)
		if err != nil {
			return domain.ScoreKeyPage{}, fmt.Errorf("malformed rank key %q: %w", raw[i+1], err)
		}
		page.Keys = append(page.Keys, domain.ScoreKey{
			QuizID:  quizID,
			RankKey: int64(rankKey),
			EntryID: raw[i],
		})
	}
	return page, nil
}

func (s *Store) BatchDeleteScores(ctx context.Context, keys []domain.ScoreKey) ([]domain.ScoreKey, error) {
	if len(keys) > maxBatchKeys {
		return nil, fmt.Errorf("batch of %d exceeds the %d-key limit", len(keys), maxBatchKeys)
	}
	pipe := s.client.TxPipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Del(ctx, scoreKey(key.QuizID, key.EntryID))
		pipe.ZRem(ctx, scoreIndexKey(key.QuizID), key.EntryID)
	}
	return unprocessedKeys(ctx, pipe, cmds, keys)
}

// unprocessedKeys executes the pipeline and reports the keys whose
// delete commands failed so the caller can resubmit exactly those.
func unprocessedKeys[K any](ctx context.Context, pipe redis.Pipeliner, cmds []*redis.IntCmd, keys []K) ([]K, error) {
	_, execErr := pipe.Exec(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var unprocessed []K
	for i, cmd := range cmds {
		if cmd.Err() != nil && cmd.Err() != redis.Nil {
			unprocessed = append(unprocessed, keys[i])
		}
	}
	if len(unprocessed) == 0 && execErr != nil && execErr != redis.Nil {
		return nil, fmt.Errorf("batch delete: %w", execErr)
	}
	return unprocessed, nil
}

func userKey(userID string) string {
	return "user:" + userID
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func questionKey(quizID, questionID string) string {
	return "question:" + quizID + ":" + questionID
}

func questionIndexKey(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func scoreKey(quizID, entryID string) string {
	return "score:" + quizID + ":" + entryID
}

func scoreIndexKey(quizID string) string {
	return "quiz:" + quizID + ":scores"
}

func parseScanCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cursor %q: %w", cursor, err)
	}
	return value, nil
}

func formatScanCursor(cursor uint64) string {
	if cursor == 0 {
		return ""
	}
	return strconv.FormatUint(cursor, 10)
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}

func parseCoord(fields map[string]string, name string) *float64 {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
