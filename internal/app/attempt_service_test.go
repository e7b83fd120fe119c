package app_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/infra/memory"
)

type attemptFixture struct {
	service  *app.AttemptService
	store    *memory.Store
	attempts *memory.AttemptStore
	user     domain.User
	quiz     domain.Quiz
	now      time.Time
}

// newAttemptFixture seeds one quiz with four questions (limit 2) scheduled in
// the past, and a registered user to take it.
func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	attempts := memory.NewAttemptStore()

	user, err := store.CreateUser(ctx, domain.User{Username: "alice@example.com", FullName: "Alice", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	subject, err := store.CreateSubject(ctx, domain.Subject{Name: "Physics"})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}
	chapter, err := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Optics"})
	if err != nil {
		t.Fatalf("create chapter failed: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{
		ChapterID:     chapter.ID,
		DateOfQuiz:    now,
		Duration:      "00:30",
		QuestionLimit: 2,
		ScheduledAt:   now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		_, err := store.CreateQuestion(ctx, domain.Question{
			QuizID:    quiz.ID,
			Statement: "question " + string(rune('A'+i)),
			Options: []domain.Option{
				{Label: "option1", Text: "first"},
				{Label: "option2", Text: "second"},
				{Label: "option3", Text: "third"},
			},
			CorrectLabel: "option2",
		})
		if err != nil {
			t.Fatalf("create question failed: %v", err)
		}
	}

	f := &attemptFixture{store: store, attempts: attempts, user: user, quiz: quiz, now: now}
	f.service = app.NewAttemptServiceWithClock(attempts, store, store, store, time.UTC, func() time.Time { return f.now })
	return f
}

func answerAll(view domain.AttemptView, label string) map[string]string {
	answers := make(map[string]string, len(view.Questions))
	for _, q := range view.Questions {
		answers[keyFor(q.ID)] = label
	}
	return answers
}

// keyFor renders a question id the way save/submit requests key answers.
func keyFor(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestStartHonorsQuestionLimit(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 questions for limit 2, got %d", len(view.Questions))
	}
	if view.TotalSeconds != 1800 {
		t.Fatalf("expected 1800 seconds for 00:30, got %d", view.TotalSeconds)
	}
	seen := make(map[int64]bool)
	for _, q := range view.Questions {
		if seen[q.ID] {
			t.Fatalf("question %d appears twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestStartIsIdempotentPerAttempt(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	first, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if len(first.Questions) != len(second.Questions) {
		t.Fatalf("question count changed across reads: %d vs %d", len(first.Questions), len(second.Questions))
	}
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question order changed at %d: %d vs %d", i, first.Questions[i].ID, second.Questions[i].ID)
		}
		a, b := first.Questions[i].Options, second.Questions[i].Options
		if len(a) != len(b) {
			t.Fatalf("option count changed for question %d", first.Questions[i].ID)
		}
		for j := range a {
			if a[j].Label != b[j].Label {
				t.Fatalf("option order changed for question %d at slot %d", first.Questions[i].ID, j)
			}
		}
	}
}

func TestStartShufflesOptionsAsPermutation(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	for _, q := range view.Questions {
		if len(q.Options) != 3 {
			t.Fatalf("expected 3 options, got %d", len(q.Options))
		}
		labels := make(map[string]bool)
		for _, opt := range q.Options {
			labels[opt.Label] = true
		}
		for _, want := range []string{"option1", "option2", "option3"} {
			if !labels[want] {
				t.Fatalf("option order for question %d is not a permutation, missing %s", q.ID, want)
			}
		}
	}
}

func TestStartBeforeSchedule(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	quiz, err := f.store.CreateQuiz(ctx, domain.Quiz{
		ChapterID:   f.quiz.ChapterID,
		DateOfQuiz:  f.now,
		Duration:    "00:10",
		ScheduledAt: f.now.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}

	if _, err := f.service.Start(ctx, f.user.ID, quiz.ID); !errors.Is(err, domain.ErrQuizNotAvailable) {
		t.Fatalf("expected ErrQuizNotAvailable one second early, got %v", err)
	}

	f.now = f.now.Add(time.Second)
	if _, err := f.service.Start(ctx, f.user.ID, quiz.ID); err != nil {
		t.Fatalf("start at the scheduled instant failed: %v", err)
	}
}

func TestStartRejectsMalformedDuration(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	quiz := f.quiz
	quiz.Duration = "90 minutes"
	if err := f.store.UpdateQuiz(ctx, quiz); err != nil {
		t.Fatalf("update quiz failed: %v", err)
	}

	if _, err := f.service.Start(ctx, f.user.ID, f.quiz.ID); !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestStartUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	if _, err := f.service.Start(ctx, f.user.ID, 9999); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestSaveMergesPartialAnswers(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	first, second := view.Questions[0].ID, view.Questions[1].ID

	if err := f.service.Save(ctx, f.user.ID, f.quiz.ID, map[string]string{keyFor(first): "option2"}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := f.service.Save(ctx, f.user.ID, f.quiz.ID, map[string]string{keyFor(second): "option1"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	view, err = f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if view.Questions[0].SavedAnswer != "option2" {
		t.Fatalf("first answer lost after merge: %q", view.Questions[0].SavedAnswer)
	}
	if view.Questions[1].SavedAnswer != "option1" {
		t.Fatalf("second answer missing: %q", view.Questions[1].SavedAnswer)
	}
}

func TestSaveWithoutActiveAttempt(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	err := f.service.Save(ctx, f.user.ID, f.quiz.ID, map[string]string{"1": "option2"})
	if !errors.Is(err, domain.ErrNoActiveAttempt) {
		t.Fatalf("expected ErrNoActiveAttempt, got %v", err)
	}
}

func TestSubmitScoresAndAwardsPoints(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	result, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Correct != 2 || result.Total != 2 {
		t.Fatalf("expected 2/2 correct, got %d/%d", result.Correct, result.Total)
	}
	if result.PointsAwarded != 20 {
		t.Fatalf("expected 20 points for 2 correct, got %d", result.PointsAwarded)
	}

	user, err := f.store.GetUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Points != 20 {
		t.Fatalf("expected cumulative points 20, got %d", user.Points)
	}

	scores, err := f.store.ScoresByUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("scores failed: %v", err)
	}
	if len(scores) != 1 || scores[0].TotalScored != 2 {
		t.Fatalf("expected one score of 2, got %+v", scores)
	}
}

func TestSubmitPrefersSavedAnswers(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.service.Save(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// The request carries all-wrong answers; the saved all-correct set wins.
	result, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option1"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Correct != 2 {
		t.Fatalf("expected saved answers to take priority, got %d correct", result.Correct)
	}
}

func TestSubmitFallsBackToRequestAnswers(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	result, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Correct != 2 {
		t.Fatalf("expected request answers used when nothing saved, got %d", result.Correct)
	}
}

func TestDoubleSubmitScoresOnce(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	answers := answerAll(view, "option2")
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answers); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answers); !errors.Is(err, domain.ErrNoActiveAttempt) {
		t.Fatalf("expected second submit to find no attempt, got %v", err)
	}

	user, err := f.store.GetUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Points != 20 {
		t.Fatalf("points doubled on duplicate submit: %d", user.Points)
	}
	scores, err := f.store.ScoresByUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("scores failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected one score row, got %d", len(scores))
	}
}

func TestAutoSubmitUsesFrozenStateAndSavedAnswers(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.service.Save(ctx, f.user.ID, f.quiz.ID, map[string]string{keyFor(view.Questions[0].ID): "option2"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	result, err := f.service.AutoSubmit(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("auto-submit failed: %v", err)
	}
	if result.Correct != 1 || result.Total != 2 {
		t.Fatalf("expected 1/2 from saved answers, got %d/%d", result.Correct, result.Total)
	}
	if result.PointsAwarded != 10 {
		t.Fatalf("expected 10 points, got %d", result.PointsAwarded)
	}
}

func TestAutoSubmitAfterManualSubmitIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2")); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := f.service.AutoSubmit(ctx, f.user.ID, f.quiz.ID); !errors.Is(err, domain.ErrNoActiveAttempt) {
		t.Fatalf("expected timeout after manual submit to be a no-op, got %v", err)
	}
}

func TestResubmissionStartsFreshAttempt(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2")); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	again, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if len(again.Questions) != 2 {
		t.Fatalf("expected fresh attempt with 2 questions, got %d", len(again.Questions))
	}
	for _, q := range again.Questions {
		if q.SavedAnswer != "" {
			t.Fatalf("fresh attempt carries stale answer %q", q.SavedAnswer)
		}
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(again, "option2")); err != nil {
		t.Fatalf("second attempt submit failed: %v", err)
	}

	user, err := f.store.GetUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user.Points != 40 {
		t.Fatalf("expected 40 cumulative points over two attempts, got %d", user.Points)
	}
}

func TestLeaderboardUsesBestScorePerQuiz(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(t)

	hub := app.NewLeaderboardHubWithClock(f.store, func() time.Time { return f.now })
	f.service.SetLeaderboardHub(hub)

	view, err := f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option1")); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// A better retake replaces, not adds to, the leaderboard total.
	view, err = f.service.Start(ctx, f.user.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if _, err := f.service.Submit(ctx, f.user.ID, f.quiz.ID, answerAll(view, "option2")); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	board, err := hub.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(board.Entries) != 1 {
		t.Fatalf("expected one leaderboard entry, got %d", len(board.Entries))
	}
	if board.Entries[0].TotalPoints != 2 {
		t.Fatalf("expected best score 2, got %d", board.Entries[0].TotalPoints)
	}
}
