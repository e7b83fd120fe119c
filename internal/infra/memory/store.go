package memory

import (
	"context"
	"sort"
	"sync"

	"quizmaster-service/internal/domain"
)

// Store is an in-memory implementation of the persistence interfaces
// (catalog, quizzes, users, scores). It backs tests and the no-database
// demo mode of the server.
type Store struct {
	mu        sync.RWMutex
	subjects  map[int64]domain.Subject
	chapters  map[int64]domain.Chapter
	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	users     map[int64]domain.User
	scores    []domain.Score
	nextID    int64
}

func NewStore() *Store {
	return &Store{
		subjects:  make(map[int64]domain.Subject),
		chapters:  make(map[int64]domain.Chapter),
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64]domain.Question),
		users:     make(map[int64]domain.User),
		nextID:    1,
	}
}

func (s *Store) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// ---- quiz read side (app.QuizRepository) ----

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) GetQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []domain.Question
	for _, q := range s.questions {
		if q.QuizID == quizID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

// ---- catalog (app.CatalogRepository) ----

func (s *Store) CreateSubject(_ context.Context, subject domain.Subject) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject.ID = s.id()
	s.subjects[subject.ID] = subject
	return subject, nil
}

func (s *Store) GetSubject(_ context.Context, id int64) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subjects := make([]domain.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (s *Store) UpdateSubject(_ context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subject.ID]; !ok {
		return domain.ErrSubjectNotFound
	}
	s.subjects[subject.ID] = subject
	return nil
}

// DeleteSubject cascades to chapters, quizzes, questions, and scores, the
// same way the relational schema's foreign keys do.
func (s *Store) DeleteSubject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[id]; !ok {
		return domain.ErrSubjectNotFound
	}
	delete(s.subjects, id)
	for chapterID, chapter := range s.chapters {
		if chapter.SubjectID == id {
			s.deleteChapterLocked(chapterID)
		}
	}
	return nil
}

func (s *Store) CreateChapter(_ context.Context, chapter domain.Chapter) (domain.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[chapter.SubjectID]; !ok {
		return domain.Chapter{}, domain.ErrSubjectNotFound
	}
	chapter.ID = s.id()
	s.chapters[chapter.ID] = chapter
	return chapter, nil
}

func (s *Store) GetChapter(_ context.Context, id int64) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[id]
	if !ok {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	return chapter, nil
}

func (s *Store) ListChapters(_ context.Context, subjectID int64) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chapters []domain.Chapter
	for _, chapter := range s.chapters {
		if chapter.SubjectID == subjectID {
			chapters = append(chapters, chapter)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].ID < chapters[j].ID })
	return chapters, nil
}

func (s *Store) UpdateChapter(_ context.Context, chapter domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[chapter.ID]; !ok {
		return domain.ErrChapterNotFound
	}
	s.chapters[chapter.ID] = chapter
	return nil
}

func (s *Store) DeleteChapter(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[id]; !ok {
		return domain.ErrChapterNotFound
	}
	s.deleteChapterLocked(id)
	return nil
}

func (s *Store) deleteChapterLocked(id int64) {
	delete(s.chapters, id)
	for quizID, quiz := range s.quizzes {
		if quiz.ChapterID == id {
			s.deleteQuizLocked(quizID)
		}
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[quiz.ChapterID]; !ok {
		return domain.Quiz{}, domain.ErrChapterNotFound
	}
	quiz.ID = s.id()
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context, chapterID int64) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var quizzes []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.ChapterID == chapterID {
			quizzes = append(quizzes, quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	s.deleteQuizLocked(id)
	return nil
}

func (s *Store) deleteQuizLocked(id int64) {
	delete(s.quizzes, id)
	for questionID, question := range s.questions {
		if question.QuizID == id {
			delete(s.questions, questionID)
		}
	}
	kept := s.scores[:0]
	for _, score := range s.scores {
		if score.QuizID != id {
			kept = append(kept, score)
		}
	}
	s.scores = kept
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	question.ID = s.id()
	s.questions[question.ID] = question
	return question, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) Counts(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.Stats{
		Subjects:  len(s.subjects),
		Chapters:  len(s.chapters),
		Quizzes:   len(s.quizzes),
		Questions: len(s.questions),
		Scores:    len(s.scores),
	}
	for _, user := range s.users {
		if user.Role == domain.RoleUser {
			stats.Users++
		}
	}
	return stats, nil
}

// ---- users (app.UserStore) ----

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, userID)
	kept := s.scores[:0]
	for _, score := range s.scores {
		if score.UserID != userID {
			kept = append(kept, score)
		}
	}
	s.scores = kept
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []domain.User
	for _, user := range s.users {
		if user.Role == domain.RoleUser {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) IncrementPoints(_ context.Context, userID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Points += delta
	s.users[userID] = user
	return nil
}

// ---- scores (app.ScoreRepository) ----

func (s *Store) SaveScore(_ context.Context, score domain.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	score.ID = s.id()
	s.scores = append(s.scores, score)
	return nil
}

func (s *Store) ScoresByUser(_ context.Context, userID int64) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var scores []domain.Score
	for _, score := range s.scores {
		if score.UserID == userID {
			scores = append(scores, score)
		}
	}
	return scores, nil
}

// BestScoreTotals ranks users by the sum of their best score per quiz.
func (s *Store) BestScoreTotals(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[int64]map[int64]int) // userID -> quizID -> best
	for _, score := range s.scores {
		if best[score.UserID] == nil {
			best[score.UserID] = make(map[int64]int)
		}
		if b, ok := best[score.UserID][score.QuizID]; !ok || score.TotalScored > b {
			best[score.UserID][score.QuizID] = score.TotalScored
		}
	}

	var entries []domain.LeaderboardEntry
	for _, user := range s.users {
		if user.Role != domain.RoleUser {
			continue
		}
		total := 0
		for _, b := range best[user.ID] {
			total += b
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      user.ID,
			FullName:    user.FullName,
			TotalPoints: total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}
