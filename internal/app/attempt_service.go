package app

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
)

// pointsPerCorrect is the point award per correct answer, applied to the
// user's cumulative total exactly once per submission.
const pointsPerCorrect = 10

// AttemptStore abstracts how attempt state is kept (in-memory, Redis, etc),
// keyed by (user, quiz).
type AttemptStore interface {
	Get(ctx context.Context, userID, quizID int64) (domain.AttemptState, bool, error)
	Put(ctx context.Context, userID, quizID int64, state domain.AttemptState) error
	// MergeAnswers overlays the given answers onto the saved ones; answers for
	// questions absent from the partial submission are retained. Returns false
	// when no state exists for the key.
	MergeAnswers(ctx context.Context, userID, quizID int64, answers map[string]string) (bool, error)
	// Take atomically removes and returns the state. Exactly one of two racing
	// submits observes ok=true; the other finds nothing.
	Take(ctx context.Context, userID, quizID int64) (domain.AttemptState, bool, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	GetQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// UserRepository is the slice of user persistence the attempt flow needs.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	IncrementPoints(ctx context.Context, userID int64, delta int) error
}

// ScoreWriter records finished attempts.
type ScoreWriter interface {
	SaveScore(ctx context.Context, score domain.Score) error
}

// AttemptService drives a quiz attempt from first access through submission:
// availability gating, one-time materialization, answer saving, and the
// submit/auto-submit transition.
type AttemptService struct {
	attempts AttemptStore
	quizzes  QuizRepository
	users    UserRepository
	scores   ScoreWriter
	board    *LeaderboardHub // optional; notified after each submission
	loc      *time.Location
	now      func() time.Time

	randMu sync.Mutex
	rnd    *rand.Rand
}

func NewAttemptService(attempts AttemptStore, quizzes QuizRepository, users UserRepository, scores ScoreWriter, loc *time.Location) *AttemptService {
	return NewAttemptServiceWithClock(attempts, quizzes, users, scores, loc, time.Now)
}

// NewAttemptServiceWithClock allows deterministic timestamps in tests.
func NewAttemptServiceWithClock(attempts AttemptStore, quizzes QuizRepository, users UserRepository, scores ScoreWriter, loc *time.Location, now func() time.Time) *AttemptService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		users:    users,
		scores:   scores,
		loc:      loc,
		now:      now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLeaderboardHub wires the hub that rebroadcasts the scoreboard after
// submissions.
func (s *AttemptService) SetLeaderboardHub(hub *LeaderboardHub) {
	s.board = hub
}

// Start begins or continues an attempt. The first access past the
// availability gate materializes the question subset, their display order,
// and each question's option order; every later access reconstructs the
// same view from the stored state.
func (s *AttemptService) Start(ctx context.Context, userID, quizID int64) (domain.AttemptView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	totalSeconds, err := quiz.DurationSeconds()
	if err != nil {
		return domain.AttemptView{}, err
	}
	if s.now().Before(s.scheduledStart(quiz)) {
		return domain.AttemptView{}, domain.ErrQuizNotAvailable
	}

	questions, err := s.quizzes.GetQuestions(ctx, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}

	state, ok, err := s.attempts.Get(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if !ok {
		state = s.materialize(quiz, questions)
		if err := s.attempts.Put(ctx, userID, quizID, state); err != nil {
			return domain.AttemptView{}, err
		}
	}

	return buildView(quiz.ID, state, questions, totalSeconds), nil
}

// Save merges partial answers into the attempt state without scoring or
// finalizing. Answers for questions not in this submission are kept.
func (s *AttemptService) Save(ctx context.Context, userID, quizID int64, answers map[string]string) error {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	ok, err := s.attempts.MergeAnswers(ctx, userID, quizID, answers)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoActiveAttempt
	}
	return nil
}

// Submit finalizes the attempt with an explicit user action. Previously
// saved answers take priority; the answers attached to this request are
// used only when nothing was saved.
func (s *AttemptService) Submit(ctx context.Context, userID, quizID int64, answers map[string]string) (domain.AttemptResult, error) {
	return s.finalize(ctx, userID, quizID, answers)
}

// AutoSubmit finalizes the attempt on an external timeout signal. It scores
// the same frozen question selection the user saw, applying the same
// answer-resolution and clearing rules as Submit.
func (s *AttemptService) AutoSubmit(ctx context.Context, userID, quizID int64) (domain.AttemptResult, error) {
	return s.finalize(ctx, userID, quizID, nil)
}

func (s *AttemptService) finalize(ctx context.Context, userID, quizID int64, requestAnswers map[string]string) (domain.AttemptResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return domain.AttemptResult{}, err
	}

	// Take is the commit point: the first submit to win the race clears the
	// state; a duplicate submit finds nothing and is a no-op.
	state, ok, err := s.attempts.Take(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if !ok {
		return domain.AttemptResult{}, domain.ErrNoActiveAttempt
	}

	answers := state.Answers
	if len(answers) == 0 {
		answers = requestAnswers
	}

	questions, err := s.quizzes.GetQuestions(ctx, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	correct := scoreAttempt(state.QuestionOrder, questions, answers)

	score := domain.Score{
		QuizID:      quiz.ID,
		UserID:      userID,
		AttemptedAt: s.now(),
		TotalScored: correct,
	}
	if err := s.scores.SaveScore(ctx, score); err != nil {
		return domain.AttemptResult{}, err
	}
	if err := s.users.IncrementPoints(ctx, userID, correct*pointsPerCorrect); err != nil {
		return domain.AttemptResult{}, err
	}

	if s.board != nil {
		s.board.Refresh(ctx)
	}

	return domain.AttemptResult{
		QuizID:        quiz.ID,
		Correct:       correct,
		Total:         len(state.QuestionOrder),
		PointsAwarded: correct * pointsPerCorrect,
	}, nil
}

// materialize fixes which questions appear, their display order, and each
// question's option order for the whole attempt.
func (s *AttemptService) materialize(quiz domain.Quiz, questions []domain.Question) domain.AttemptState {
	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	s.shuffleIDs(ids)
	if quiz.QuestionLimit > 0 && quiz.QuestionLimit < len(ids) {
		ids = ids[:quiz.QuestionLimit]
	}

	selected := make(map[int64]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	optionOrders := make(map[int64][]domain.Option, len(ids))
	for _, q := range questions {
		if !selected[q.ID] {
			continue
		}
		opts := presentOptions(q)
		s.shuffleOptions(opts)
		optionOrders[q.ID] = opts
	}

	return domain.AttemptState{
		QuestionOrder: ids,
		OptionOrders:  optionOrders,
		Answers:       make(map[string]string),
		StartedAt:     s.now(),
	}
}

// scheduledStart reinterprets the stored wall-clock schedule in the service
// time zone, so zone-less timestamps from the database compare correctly.
func (s *AttemptService) scheduledStart(quiz domain.Quiz) time.Time {
	t := quiz.ScheduledAt
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.loc)
}

func (s *AttemptService) shuffleIDs(ids []int64) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func (s *AttemptService) shuffleOptions(opts []domain.Option) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.rnd.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
}

// presentOptions copies the question's non-empty option slots.
func presentOptions(q domain.Question) []domain.Option {
	opts := make([]domain.Option, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.Text != "" {
			opts = append(opts, opt)
		}
	}
	return opts
}

// scoreAttempt counts exact matches over the frozen question order. Absent
// answers earn no credit; wrong answers carry no penalty.
func scoreAttempt(order []int64, questions []domain.Question, answers map[string]string) int {
	byID := make(map[int64]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	correct := 0
	for _, id := range order {
		q, ok := byID[id]
		if !ok {
			continue
		}
		if q.IsCorrect(answers[strconv.FormatInt(id, 10)]) {
			correct++
		}
	}
	return correct
}

func buildView(quizID int64, state domain.AttemptState, questions []domain.Question, totalSeconds int) domain.AttemptView {
	byID := make(map[int64]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	view := domain.AttemptView{
		QuizID:       quizID,
		Questions:    make([]domain.AttemptQuestion, 0, len(state.QuestionOrder)),
		TotalSeconds: totalSeconds,
	}
	for _, id := range state.QuestionOrder {
		q, ok := byID[id]
		if !ok {
			// Question deleted after materialization; skip rather than fail
			// the whole attempt view.
			continue
		}
		view.Questions = append(view.Questions, domain.AttemptQuestion{
			ID:          q.ID,
			Statement:   q.Statement,
			Options:     state.OptionOrders[q.ID],
			SavedAnswer: state.Answers[strconv.FormatInt(q.ID, 10)],
		})
	}
	return view
}
