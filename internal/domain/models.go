package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role distinguishes platform administrators from quiz takers.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account on the platform. Points accumulate across submissions.
type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Password      string     `json:"-"` // bcrypt hash
	FullName      string     `json:"fullName"`
	Qualification string     `json:"qualification,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
	Role          Role       `json:"role"`
	Points        int        `json:"points"`
}

// Subject is the top of the catalog hierarchy (subject > chapter > quiz > question).
type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Chapter groups quizzes under a subject.
type Chapter struct {
	ID          int64  `json:"id"`
	SubjectID   int64  `json:"subjectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Quiz is a scheduled, time-boxed set of questions.
// Duration is kept as "HH:MM", matching how admins enter it.
type Quiz struct {
	ID            int64     `json:"id"`
	ChapterID     int64     `json:"chapterId"`
	DateOfQuiz    time.Time `json:"dateOfQuiz"`
	Duration      string    `json:"duration"`
	Remarks       string    `json:"remarks,omitempty"`
	QuestionLimit int       `json:"questionLimit"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

// DurationSeconds parses the "HH:MM" duration into total seconds.
func (q Quiz) DurationSeconds() (int, error) {
	parts := strings.Split(q.Duration, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, q.Duration)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, q.Duration)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, q.Duration)
	}
	return hours*3600 + minutes*60, nil
}

// Option is one labeled answer slot of a question. Labels are the stable
// slot names ("option1".."option4"); submissions reference labels, never text.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is an MCQ with 2-4 present option slots and one correct label.
// Options holds only the non-empty slots, in slot order.
type Question struct {
	ID           int64    `json:"id"`
	QuizID       int64    `json:"quizId"`
	Statement    string   `json:"statement"`
	Options      []Option `json:"options"`
	CorrectLabel string   `json:"-"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Validate enforces the catalog invariants: 2-4 non-empty options and a
// correct label that references one of them.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Statement) == "" {
		return fmt.Errorf("%w: empty statement", ErrInvalidQuestion)
	}
	present := 0
	for _, opt := range q.Options {
		if strings.TrimSpace(opt.Text) != "" {
			present++
		}
	}
	if present < 2 || present > 4 {
		return fmt.Errorf("%w: need 2-4 options, got %d", ErrInvalidQuestion, present)
	}
	if q.CorrectLabel == "" {
		return fmt.Errorf("%w: missing correct option", ErrInvalidQuestion)
	}
	for _, opt := range q.Options {
		if opt.Label == q.CorrectLabel && strings.TrimSpace(opt.Text) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: correct option %q is not a present slot", ErrInvalidQuestion, q.CorrectLabel)
}

// IsCorrect reports whether the chosen label matches the correct option.
func (q Question) IsCorrect(label string) bool {
	return label != "" && label == q.CorrectLabel
}

// AttemptState is the frozen randomization plus saved answers for one
// (user, quiz) attempt. Answers are keyed by the question id rendered as a
// string, matching the wire format of save/submit requests.
type AttemptState struct {
	QuestionOrder []int64            `json:"questionOrder"`
	OptionOrders  map[int64][]Option `json:"optionOrders"`
	Answers       map[string]string  `json:"answers"`
	StartedAt     time.Time          `json:"startedAt"`
}

// AttemptQuestion is one question as presented to the user: frozen option
// order, correct label withheld, saved answer pre-filled if any.
type AttemptQuestion struct {
	ID          int64    `json:"id"`
	Statement   string   `json:"statement"`
	Options     []Option `json:"options"`
	SavedAnswer string   `json:"savedAnswer,omitempty"`
}

// AttemptView is the response to start/continue requests.
type AttemptView struct {
	QuizID       int64             `json:"quizId"`
	Questions    []AttemptQuestion `json:"questions"`
	TotalSeconds int               `json:"totalSeconds"`
}

// AttemptResult is the final score summary of a submission.
type AttemptResult struct {
	QuizID        int64 `json:"quizId"`
	Correct       int   `json:"correct"`
	Total         int   `json:"total"`
	PointsAwarded int   `json:"pointsAwarded"`
}

// Score is one finished attempt. Created exactly once per submission,
// never mutated.
type Score struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quizId"`
	UserID      int64     `json:"userId"`
	AttemptedAt time.Time `json:"attemptedAt"`
	TotalScored int       `json:"totalScored"`
}

// LeaderboardEntry ranks a user by the sum of their best score per quiz.
type LeaderboardEntry struct {
	UserID      int64  `json:"userId"`
	FullName    string `json:"fullName"`
	TotalPoints int    `json:"totalPoints"`
}

// Leaderboard is a snapshot of the scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Stats are the platform-wide counts shown on the admin dashboard.
type Stats struct {
	Subjects  int `json:"subjects"`
	Chapters  int `json:"chapters"`
	Quizzes   int `json:"quizzes"`
	Questions int `json:"questions"`
	Users     int `json:"users"`
	Scores    int `json:"scores"`
}
