package memory

import (
	"context"
	"testing"
	"time"

	"quizmaster-service/internal/domain"
)

func testState() domain.AttemptState {
	return domain.AttemptState{
		QuestionOrder: []int64{2, 1},
		OptionOrders: map[int64][]domain.Option{
			1: {{Label: "option1", Text: "a"}, {Label: "option2", Text: "b"}},
			2: {{Label: "option2", Text: "d"}, {Label: "option1", Text: "c"}},
		},
		Answers:   map[string]string{"1": "option1"},
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAttemptStoreIsolatesState(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Put(ctx, 1, 2, testState()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, 1, 2)
	if err != nil || !ok {
		t.Fatalf("get, ok=%v err=%v", ok, err)
	}

	// Mutating the returned copy must not leak into the store.
	got.Answers["1"] = "option2"
	got.QuestionOrder[0] = 99

	again, _, err := store.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.Answers["1"] != "option1" {
		t.Fatalf("caller mutation leaked into stored answers: %v", again.Answers)
	}
	if again.QuestionOrder[0] != 2 {
		t.Fatalf("caller mutation leaked into stored order: %v", again.QuestionOrder)
	}
}

func TestAttemptStoreKeysByUserAndQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Put(ctx, 1, 2, testState()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 2, 1); ok {
		t.Fatalf("swapped user/quiz ids must not collide")
	}
	if _, ok, _ := store.Get(ctx, 1, 2); !ok {
		t.Fatalf("expected state under original key")
	}
}

func TestAttemptStoreTakeIsFirstWins(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Put(ctx, 1, 2, testState()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, err := store.Take(ctx, 1, 2); err != nil || !ok {
		t.Fatalf("first take, ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Take(ctx, 1, 2); err != nil || ok {
		t.Fatalf("second take must miss, ok=%v err=%v", ok, err)
	}
	if ok, err := store.MergeAnswers(ctx, 1, 2, map[string]string{"1": "option2"}); err != nil || ok {
		t.Fatalf("merge after take must miss, ok=%v err=%v", ok, err)
	}
}
