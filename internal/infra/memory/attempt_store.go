package memory

import (
	"context"
	"fmt"
	"sync"

	"quizmaster-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore, keyed by
// (user, quiz). State is copied on the way in and out so callers never
// share maps with the store.
type AttemptStore struct {
	mu       sync.Mutex
	attempts map[string]domain.AttemptState
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.AttemptState)}
}

func (s *AttemptStore) Get(_ context.Context, userID, quizID int64) (domain.AttemptState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.attempts[attemptKey(userID, quizID)]
	if !ok {
		return domain.AttemptState{}, false, nil
	}
	return copyState(state), true, nil
}

func (s *AttemptStore) Put(_ context.Context, userID, quizID int64, state domain.AttemptState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attemptKey(userID, quizID)] = copyState(state)
	return nil
}

func (s *AttemptStore) MergeAnswers(_ context.Context, userID, quizID int64, answers map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(userID, quizID)
	state, ok := s.attempts[key]
	if !ok {
		return false, nil
	}
	if state.Answers == nil {
		state.Answers = make(map[string]string, len(answers))
	}
	for questionID, answer := range answers {
		state.Answers[questionID] = answer
	}
	s.attempts[key] = state
	return true, nil
}

func (s *AttemptStore) Take(_ context.Context, userID, quizID int64) (domain.AttemptState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(userID, quizID)
	state, ok := s.attempts[key]
	if !ok {
		return domain.AttemptState{}, false, nil
	}
	delete(s.attempts, key)
	return state, true, nil
}

func attemptKey(userID, quizID int64) string {
	return fmt.Sprintf("%d:%d", userID, quizID)
}

func copyState(state domain.AttemptState) domain.AttemptState {
	out := domain.AttemptState{
		QuestionOrder: append([]int64(nil), state.QuestionOrder...),
		OptionOrders:  make(map[int64][]domain.Option, len(state.OptionOrders)),
		Answers:       make(map[string]string, len(state.Answers)),
		StartedAt:     state.StartedAt,
	}
	for id, opts := range state.OptionOrders {
		out.OptionOrders[id] = append([]domain.Option(nil), opts...)
	}
	for questionID, answer := range state.Answers {
		out.Answers[questionID] = answer
	}
	return out
}
