package app

import (
	"context"
	"fmt"
	"time"

	"quizmaster-service/internal/domain"
)

// CatalogRepository persists the subject > chapter > quiz > question
// hierarchy. Create methods return the stored value with its assigned id.
type CatalogRepository interface {
	CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error)
	GetSubject(ctx context.Context, id int64) (domain.Subject, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	UpdateSubject(ctx context.Context, subject domain.Subject) error
	DeleteSubject(ctx context.Context, id int64) error

	CreateChapter(ctx context.Context, chapter domain.Chapter) (domain.Chapter, error)
	GetChapter(ctx context.Context, id int64) (domain.Chapter, error)
	ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error)
	UpdateChapter(ctx context.Context, chapter domain.Chapter) error
	DeleteChapter(ctx context.Context, id int64) error

	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, chapterID int64) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id int64) error

	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error

	Counts(ctx context.Context) (domain.Stats, error)
}

// CatalogService holds the admin-side curation use cases. Validation that
// the attempt engine relies on (parseable durations, well-formed questions)
// happens here, at creation/edit time.
type CatalogService struct {
	catalog CatalogRepository
	quizzes QuizRepository
}

func NewCatalogService(catalog CatalogRepository, quizzes QuizRepository) *CatalogService {
	return &CatalogService{catalog: catalog, quizzes: quizzes}
}

func (s *CatalogService) CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error) {
	return s.catalog.CreateSubject(ctx, subject)
}

func (s *CatalogService) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	return s.catalog.GetSubject(ctx, id)
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.catalog.ListSubjects(ctx)
}

func (s *CatalogService) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	if _, err := s.catalog.GetSubject(ctx, subject.ID); err != nil {
		return err
	}
	return s.catalog.UpdateSubject(ctx, subject)
}

func (s *CatalogService) DeleteSubject(ctx context.Context, id int64) error {
	if _, err := s.catalog.GetSubject(ctx, id); err != nil {
		return err
	}
	return s.catalog.DeleteSubject(ctx, id)
}

func (s *CatalogService) CreateChapter(ctx context.Context, chapter domain.Chapter) (domain.Chapter, error) {
	if _, err := s.catalog.GetSubject(ctx, chapter.SubjectID); err != nil {
		return domain.Chapter{}, err
	}
	return s.catalog.CreateChapter(ctx, chapter)
}

func (s *CatalogService) GetChapter(ctx context.Context, id int64) (domain.Chapter, error) {
	return s.catalog.GetChapter(ctx, id)
}

func (s *CatalogService) ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error) {
	return s.catalog.ListChapters(ctx, subjectID)
}

func (s *CatalogService) UpdateChapter(ctx context.Context, chapter domain.Chapter) error {
	if _, err := s.catalog.GetChapter(ctx, chapter.ID); err != nil {
		return err
	}
	return s.catalog.UpdateChapter(ctx, chapter)
}

func (s *CatalogService) DeleteChapter(ctx context.Context, id int64) error {
	if _, err := s.catalog.GetChapter(ctx, id); err != nil {
		return err
	}
	return s.catalog.DeleteChapter(ctx, id)
}

// CreateQuiz validates the duration and schedule up front so attempts never
// hit a malformed quiz definition.
func (s *CatalogService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if _, err := s.catalog.GetChapter(ctx, quiz.ChapterID); err != nil {
		return domain.Quiz{}, err
	}
	if err := validateQuiz(&quiz); err != nil {
		return domain.Quiz{}, err
	}
	return s.catalog.CreateQuiz(ctx, quiz)
}

func (s *CatalogService) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, id)
}

func (s *CatalogService) ListQuizzes(ctx context.Context, chapterID int64) ([]domain.Quiz, error) {
	return s.catalog.ListQuizzes(ctx, chapterID)
}

func (s *CatalogService) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.quizzes.GetQuiz(ctx, quiz.ID); err != nil {
		return err
	}
	if err := validateQuiz(&quiz); err != nil {
		return err
	}
	return s.catalog.UpdateQuiz(ctx, quiz)
}

func (s *CatalogService) DeleteQuiz(ctx context.Context, id int64) error {
	if _, err := s.quizzes.GetQuiz(ctx, id); err != nil {
		return err
	}
	return s.catalog.DeleteQuiz(ctx, id)
}

func (s *CatalogService) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	if _, err := s.quizzes.GetQuiz(ctx, question.QuizID); err != nil {
		return domain.Question{}, err
	}
	if err := question.Validate(); err != nil {
		return domain.Question{}, err
	}
	return s.catalog.CreateQuestion(ctx, question)
}

func (s *CatalogService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.catalog.GetQuestion(ctx, id)
}

func (s *CatalogService) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.quizzes.GetQuestions(ctx, quizID)
}

func (s *CatalogService) UpdateQuestion(ctx context.Context, question domain.Question) error {
	if _, err := s.catalog.GetQuestion(ctx, question.ID); err != nil {
		return err
	}
	if err := question.Validate(); err != nil {
		return err
	}
	return s.catalog.UpdateQuestion(ctx, question)
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, id int64) error {
	if _, err := s.catalog.GetQuestion(ctx, id); err != nil {
		return err
	}
	return s.catalog.DeleteQuestion(ctx, id)
}

func validateQuiz(quiz *domain.Quiz) error {
	if _, err := quiz.DurationSeconds(); err != nil {
		return err
	}
	if quiz.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduled time is required", domain.ErrInvalidQuiz)
	}
	if quiz.DateOfQuiz.IsZero() {
		quiz.DateOfQuiz = time.Now()
	}
	if quiz.QuestionLimit <= 0 {
		quiz.QuestionLimit = 10
	}
	return nil
}
