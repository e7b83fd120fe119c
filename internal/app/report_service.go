package app

import (
	"context"
	"sort"
	"time"

	"quizmaster-service/internal/domain"
)

// ScoreRepository is the read/write surface over finished attempts.
type ScoreRepository interface {
	ScoreWriter
	LeaderboardSource
	ScoresByUser(ctx context.Context, userID int64) ([]domain.Score, error)
}

// QuizBest pairs a quiz with the user's best score on it, for the
// performance view.
type QuizBest struct {
	QuizID     int64     `json:"quizId"`
	DateOfQuiz time.Time `json:"dateOfQuiz"`
	BestScore  int       `json:"bestScore"`
}

// ReportService exposes the read-only reporting views: score history,
// per-quiz bests, platform counts, and the leaderboard snapshot.
type ReportService struct {
	scores  ScoreRepository
	quizzes QuizRepository
	catalog CatalogRepository
}

func NewReportService(scores ScoreRepository, quizzes QuizRepository, catalog CatalogRepository) *ReportService {
	return &ReportService{scores: scores, quizzes: quizzes, catalog: catalog}
}

// UserScores lists a user's finished attempts, oldest first.
func (s *ReportService) UserScores(ctx context.Context, userID int64) ([]domain.Score, error) {
	scores, err := s.scores.ScoresByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].AttemptedAt.Before(scores[j].AttemptedAt)
	})
	return scores, nil
}

// UserPerformance reduces a user's history to their best score per quiz,
// ordered by the quiz release date.
func (s *ReportService) UserPerformance(ctx context.Context, userID int64) ([]QuizBest, error) {
	scores, err := s.scores.ScoresByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	best := make(map[int64]int)
	for _, sc := range scores {
		if b, ok := best[sc.QuizID]; !ok || sc.TotalScored > b {
			best[sc.QuizID] = sc.TotalScored
		}
	}

	result := make([]QuizBest, 0, len(best))
	for quizID, score := range best {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			// The quiz may have been deleted since the attempt; keep the
			// score with a zero date rather than dropping history.
			result = append(result, QuizBest{QuizID: quizID, BestScore: score})
			continue
		}
		result = append(result, QuizBest{QuizID: quizID, DateOfQuiz: quiz.DateOfQuiz, BestScore: score})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DateOfQuiz.Before(result[j].DateOfQuiz)
	})
	return result, nil
}

// Stats returns the platform-wide entity counts.
func (s *ReportService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.catalog.Counts(ctx)
}
