package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaster-service/internal/domain"
)

// Repository implements the persistence interfaces over Postgres: the quiz
// read side, catalog CRUD, users, and scores.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// optionLabels are the fixed slot names questions are stored under.
var optionLabels = [4]string{"option1", "option2", "option3", "option4"}

// ---- quiz read side ----

func (r *Repository) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.pool.QueryRow(ctx,
		`SELECT id, chapter_id, date_of_quiz, time_duration, remarks, question_limit, scheduled_at
		 FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.ChapterID, &quiz.DateOfQuiz, &quiz.Duration, &quiz.Remarks, &quiz.QuestionLimit, &quiz.ScheduledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (r *Repository) GetQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, statement, option1, option2, option3, option4, correct_option, explanation
		 FROM questions WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		q           domain.Question
		slots       [4]sql.NullString
		explanation sql.NullString
	)
	if err := row.Scan(&q.ID, &q.QuizID, &q.Statement, &slots[0], &slots[1], &slots[2], &slots[3], &q.CorrectLabel, &explanation); err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.Explanation = explanation.String
	for i, slot := range slots {
		if slot.Valid && slot.String != "" {
			q.Options = append(q.Options, domain.Option{Label: optionLabels[i], Text: slot.String})
		}
	}
	return q, nil
}

// ---- catalog ----

func (r *Repository) CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, description) VALUES ($1, $2) RETURNING id`,
		subject.Name, subject.Description).Scan(&subject.ID)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

func (r *Repository) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	var subject domain.Subject
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM subjects WHERE id=$1`, id).
		Scan(&subject.ID, &subject.Name, &subject.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	if err != nil {
		return domain.Subject{}, fmt.Errorf("get subject: %w", err)
	}
	return subject, nil
}

func (r *Repository) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM subjects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.Subject
	for rows.Next() {
		var subject domain.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Description); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (r *Repository) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subjects SET name=$2, description=$3 WHERE id=$1`,
		subject.ID, subject.Name, subject.Description)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubjectNotFound
	}
	return nil
}

func (r *Repository) DeleteSubject(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubjectNotFound
	}
	return nil
}

func (r *Repository) CreateChapter(ctx context.Context, chapter domain.Chapter) (domain.Chapter, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO chapters (subject_id, name, description) VALUES ($1, $2, $3) RETURNING id`,
		chapter.SubjectID, chapter.Name, chapter.Description).Scan(&chapter.ID)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("create chapter: %w", err)
	}
	return chapter, nil
}

func (r *Repository) GetChapter(ctx context.Context, id int64) (domain.Chapter, error) {
	var chapter domain.Chapter
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, name, description FROM chapters WHERE id=$1`, id).
		Scan(&chapter.ID, &chapter.SubjectID, &chapter.Name, &chapter.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("get chapter: %w", err)
	}
	return chapter, nil
}

func (r *Repository) ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, name, description FROM chapters WHERE subject_id=$1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter
	for rows.Next() {
		var chapter domain.Chapter
		if err := rows.Scan(&chapter.ID, &chapter.SubjectID, &chapter.Name, &chapter.Description); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

func (r *Repository) UpdateChapter(ctx context.Context, chapter domain.Chapter) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chapters SET name=$2, description=$3 WHERE id=$1`,
		chapter.ID, chapter.Name, chapter.Description)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChapterNotFound
	}
	return nil
}

func (r *Repository) DeleteChapter(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chapters WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChapterNotFound
	}
	return nil
}

func (r *Repository) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (chapter_id, date_of_quiz, time_duration, remarks, question_limit, scheduled_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		quiz.ChapterID, quiz.DateOfQuiz, quiz.Duration, quiz.Remarks, quiz.QuestionLimit, quiz.ScheduledAt).
		Scan(&quiz.ID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

func (r *Repository) ListQuizzes(ctx context.Context, chapterID int64) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, chapter_id, date_of_quiz, time_duration, remarks, question_limit, scheduled_at
		 FROM quizzes WHERE chapter_id=$1 ORDER BY id`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.ChapterID, &quiz.DateOfQuiz, &quiz.Duration, &quiz.Remarks, &quiz.QuestionLimit, &quiz.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (r *Repository) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET date_of_quiz=$2, time_duration=$3, remarks=$4, question_limit=$5, scheduled_at=$6 WHERE id=$1`,
		quiz.ID, quiz.DateOfQuiz, quiz.Duration, quiz.Remarks, quiz.QuestionLimit, quiz.ScheduledAt)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *Repository) DeleteQuiz(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *Repository) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	slots := optionSlots(question)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, statement, option1, option2, option3, option4, correct_option, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		question.QuizID, question.Statement, slots[0], slots[1], slots[2], slots[3], question.CorrectLabel, question.Explanation).
		Scan(&question.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

func (r *Repository) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, statement, option1, option2, option3, option4, correct_option, explanation
		 FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return domain.Question{}, err
	}
	return q, nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, question domain.Question) error {
	slots := optionSlots(question)
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET statement=$2, option1=$3, option2=$4, option3=$5, option4=$6, correct_option=$7, explanation=$8 WHERE id=$1`,
		question.ID, question.Statement, slots[0], slots[1], slots[2], slots[3], question.CorrectLabel, question.Explanation)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *Repository) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func optionSlots(question domain.Question) [4]sql.NullString {
	var slots [4]sql.NullString
	for _, opt := range question.Options {
		for i, label := range optionLabels {
			if opt.Label == label && opt.Text != "" {
				slots[i] = sql.NullString{String: opt.Text, Valid: true}
			}
		}
	}
	return slots
}

func (r *Repository) Counts(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM subjects),
		(SELECT COUNT(*) FROM chapters),
		(SELECT COUNT(*) FROM quizzes),
		(SELECT COUNT(*) FROM questions),
		(SELECT COUNT(*) FROM users WHERE role='user'),
		(SELECT COUNT(*) FROM scores)`).
		Scan(&stats.Subjects, &stats.Chapters, &stats.Quizzes, &stats.Questions, &stats.Users, &stats.Scores)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("counts: %w", err)
	}
	return stats, nil
}

// ---- users ----

func (r *Repository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, full_name, qualification, dob, role, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		user.Username, user.Password, user.FullName, user.Qualification, user.DOB, user.Role, user.Points).
		Scan(&user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	return r.getUser(ctx, `SELECT id, username, password, full_name, qualification, dob, role, points FROM users WHERE id=$1`, userID)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUser(ctx, `SELECT id, username, password, full_name, qualification, dob, role, points FROM users WHERE username=$1`, username)
}

func (r *Repository) getUser(ctx context.Context, query string, arg interface{}) (domain.User, error) {
	var (
		user          domain.User
		qualification sql.NullString
		dob           sql.NullTime
	)
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Password, &user.FullName, &qualification, &dob, &user.Role, &user.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Qualification = qualification.String
	if dob.Valid {
		d := dob.Time
		user.DOB = &d
	}
	return user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user domain.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET username=$2, full_name=$3, qualification=$4, dob=$5 WHERE id=$1`,
		user.ID, user.Username, user.FullName, user.Qualification, user.DOB)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, password, full_name, qualification, dob, role, points FROM users WHERE role='user' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			user          domain.User
			qualification sql.NullString
			dob           sql.NullTime
		)
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.FullName, &qualification, &dob, &user.Role, &user.Points); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.Qualification = qualification.String
		if dob.Valid {
			d := dob.Time
			user.DOB = &d
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// IncrementPoints relies on the database for the single-row atomic add.
func (r *Repository) IncrementPoints(ctx context.Context, userID int64, delta int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET points = points + $2 WHERE id=$1`, userID, delta)
	if err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ---- scores ----

func (r *Repository) SaveScore(ctx context.Context, score domain.Score) error {
	attemptedAt := score.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO scores (quiz_id, user_id, attempted_at, total_scored) VALUES ($1, $2, $3, $4)`,
		score.QuizID, score.UserID, attemptedAt, score.TotalScored)
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

func (r *Repository) ScoresByUser(ctx context.Context, userID int64) ([]domain.Score, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, attempted_at, total_scored FROM scores WHERE user_id=$1 ORDER BY attempted_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("scores by user: %w", err)
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		var score domain.Score
		if err := rows.Scan(&score.ID, &score.QuizID, &score.UserID, &score.AttemptedAt, &score.TotalScored); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// BestScoreTotals ranks users by the sum of their best score per quiz.
func (r *Repository) BestScoreTotals(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name, COALESCE(SUM(b.best_score), 0) AS total_points
		FROM users u
		LEFT JOIN (
			SELECT user_id, quiz_id, MAX(total_scored) AS best_score
			FROM scores GROUP BY user_id, quiz_id
		) b ON b.user_id = u.id
		WHERE u.role = 'user'
		GROUP BY u.id, u.full_name
		ORDER BY total_points DESC, u.id`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.FullName, &entry.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
