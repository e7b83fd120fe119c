package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/infra/memory"
)

func newCatalogService() (*app.CatalogService, *memory.Store) {
	store := memory.NewStore()
	return app.NewCatalogService(store, store), store
}

func seedChapter(t *testing.T, svc *app.CatalogService) domain.Chapter {
	t.Helper()
	ctx := context.Background()
	subject, err := svc.CreateSubject(ctx, domain.Subject{Name: "Math"})
	if err != nil {
		t.Fatalf("create subject failed: %v", err)
	}
	chapter, err := svc.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Algebra"})
	if err != nil {
		t.Fatalf("create chapter failed: %v", err)
	}
	return chapter
}

func TestCreateChapterRequiresSubject(t *testing.T) {
	svc, _ := newCatalogService()
	_, err := svc.CreateChapter(context.Background(), domain.Chapter{SubjectID: 42, Name: "Orphan"})
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogService()
	chapter := seedChapter(t, svc)

	_, err := svc.CreateQuiz(ctx, domain.Quiz{
		ChapterID:   chapter.ID,
		Duration:    "45 minutes",
		ScheduledAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	_, err = svc.CreateQuiz(ctx, domain.Quiz{
		ChapterID: chapter.ID,
		Duration:  "00:45",
	})
	if !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz without schedule, got %v", err)
	}

	quiz, err := svc.CreateQuiz(ctx, domain.Quiz{
		ChapterID:   chapter.ID,
		Duration:    "00:45",
		ScheduledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	if quiz.QuestionLimit != 10 {
		t.Fatalf("expected default question limit 10, got %d", quiz.QuestionLimit)
	}
	if quiz.DateOfQuiz.IsZero() {
		t.Fatalf("expected date of quiz to default to today")
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogService()
	chapter := seedChapter(t, svc)
	quiz, err := svc.CreateQuiz(ctx, domain.Quiz{
		ChapterID:   chapter.ID,
		Duration:    "00:30",
		ScheduledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}

	cases := []struct {
		name     string
		question domain.Question
	}{
		{
			name: "single option",
			question: domain.Question{
				QuizID:       quiz.ID,
				Statement:    "lonely",
				Options:      []domain.Option{{Label: "option1", Text: "only"}},
				CorrectLabel: "option1",
			},
		},
		{
			name: "correct label absent",
			question: domain.Question{
				QuizID:    quiz.ID,
				Statement: "mislabeled",
				Options: []domain.Option{
					{Label: "option1", Text: "a"},
					{Label: "option2", Text: "b"},
				},
				CorrectLabel: "option4",
			},
		},
		{
			name: "empty statement",
			question: domain.Question{
				QuizID: quiz.ID,
				Options: []domain.Option{
					{Label: "option1", Text: "a"},
					{Label: "option2", Text: "b"},
				},
				CorrectLabel: "option1",
			},
		},
	}
	for _, tc := range cases {
		if _, err := svc.CreateQuestion(ctx, tc.question); !errors.Is(err, domain.ErrInvalidQuestion) {
			t.Fatalf("%s: expected ErrInvalidQuestion, got %v", tc.name, err)
		}
	}

	valid := domain.Question{
		QuizID:    quiz.ID,
		Statement: "2+2?",
		Options: []domain.Option{
			{Label: "option1", Text: "3"},
			{Label: "option3", Text: "4"},
		},
		CorrectLabel: "option3",
	}
	if _, err := svc.CreateQuestion(ctx, valid); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}
}

func TestDeleteSubjectCascades(t *testing.T) {
	ctx := context.Background()
	svc, store := newCatalogService()
	chapter := seedChapter(t, svc)
	quiz, err := svc.CreateQuiz(ctx, domain.Quiz{
		ChapterID:   chapter.ID,
		Duration:    "00:30",
		ScheduledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, domain.Question{
		QuizID:    quiz.ID,
		Statement: "q",
		Options: []domain.Option{
			{Label: "option1", Text: "a"},
			{Label: "option2", Text: "b"},
		},
		CorrectLabel: "option1",
	}); err != nil {
		t.Fatalf("create question failed: %v", err)
	}

	if err := svc.DeleteSubject(ctx, chapter.SubjectID); err != nil {
		t.Fatalf("delete subject failed: %v", err)
	}
	if _, err := svc.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz gone after cascade, got %v", err)
	}
	stats, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if stats.Subjects != 0 || stats.Chapters != 0 || stats.Quizzes != 0 || stats.Questions != 0 {
		t.Fatalf("cascade left orphans: %+v", stats)
	}
}
