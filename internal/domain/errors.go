package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSubjectNotFound indicates the subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrChapterNotFound indicates the chapter does not exist.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrQuizNotAvailable is returned when an attempt is requested before the
	// quiz's scheduled start.
	ErrQuizNotAvailable = errors.New("quiz not yet available")
	// ErrNoActiveAttempt is returned by save/submit when no attempt state
	// exists for the (user, quiz) pair, including the loser of a submit race.
	ErrNoActiveAttempt = errors.New("no active attempt")

	// ErrInvalidDuration indicates a quiz duration not in "HH:MM" form.
	ErrInvalidDuration = errors.New("invalid quiz duration")
	// ErrInvalidQuiz indicates a quiz missing required scheduling fields.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidQuestion indicates a question violating the option invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUsernameTaken indicates a registration with a username already in use.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
