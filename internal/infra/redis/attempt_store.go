package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmaster-service/internal/domain"
)

// AttemptStore keeps attempt state in Redis, one JSON value per
// (user, quiz) key. Durable keys with an explicit TTL survive across
// requests and server restarts, so a mid-attempt reload never silently
// re-randomizes the quiz. Take uses GETDEL, which makes the clear-and-score
// transition first-wins under racing submits.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Get(ctx context.Context, userID, quizID int64) (domain.AttemptState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID, quizID)).Bytes()
	if err == redis.Nil {
		return domain.AttemptState{}, false, nil
	}
	if err != nil {
		return domain.AttemptState{}, false, fmt.Errorf("get attempt: %w", err)
	}
	state, err := decodeState(raw)
	if err != nil {
		return domain.AttemptState{}, false, err
	}
	return state, true, nil
}

func (s *AttemptStore) Put(ctx context.Context, userID, quizID int64, state domain.AttemptState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID, quizID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put attempt: %w", err)
	}
	return nil
}

// MergeAnswers overlays the partial submission onto the stored answers and
// rewrites the value, refreshing the TTL so an active attempt does not
// expire under the user.
func (s *AttemptStore) MergeAnswers(ctx context.Context, userID, quizID int64, answers map[string]string) (bool, error) {
	state, ok, err := s.Get(ctx, userID, quizID)
	if err != nil || !ok {
		return false, err
	}
	if state.Answers == nil {
		state.Answers = make(map[string]string, len(answers))
	}
	for questionID, answer := range answers {
		state.Answers[questionID] = answer
	}
	if err := s.Put(ctx, userID, quizID, state); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AttemptStore) Take(ctx context.Context, userID, quizID int64) (domain.AttemptState, bool, error) {
	raw, err := s.client.GetDel(ctx, s.key(userID, quizID)).Bytes()
	if err == redis.Nil {
		return domain.AttemptState{}, false, nil
	}
	if err != nil {
		return domain.AttemptState{}, false, fmt.Errorf("take attempt: %w", err)
	}
	state, err := decodeState(raw)
	if err != nil {
		return domain.AttemptState{}, false, err
	}
	return state, true, nil
}

func (s *AttemptStore) key(userID, quizID int64) string {
	return fmt.Sprintf("attempt:%d:%d", userID, quizID)
}

func decodeState(raw []byte) (domain.AttemptState, error) {
	var state domain.AttemptState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.AttemptState{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return state, nil
}
