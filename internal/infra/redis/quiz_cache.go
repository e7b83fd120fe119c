package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
)

// QuizCache caches quiz definitions and their question sets in Redis and
// falls back to the backing repository on a miss. Definitions are stored as:
//
//	SET quiz:{quizID}:def       {quiz JSON}
//	SET quiz:{quizID}:questions {questions JSON}
//
// singleflight collapses concurrent misses so the backing store sees one
// load per quiz.
type QuizCache struct {
	client *redis.Client
	source app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group

	randMu sync.Mutex
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, source app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	key := c.defKey(quizID)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}
		quiz, err := c.source.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.cacheJSON(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) GetQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	key := c.questionsKey(quizID)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []cachedQuestion
		if err := json.Unmarshal(raw, &questions); err == nil {
			return fromCached(questions), nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []cachedQuestion
			if err := json.Unmarshal(raw, &questions); err == nil {
				return fromCached(questions), nil
			}
		}
		questions, err := c.source.GetQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		c.cacheJSON(ctx, key, toCached(questions))
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuizCache) cacheJSON(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Cache writes are best-effort; the loaded value is already in hand.
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *QuizCache) defKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:def", quizID)
}

func (c *QuizCache) questionsKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:questions", quizID)
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// cachedQuestion carries the correct label, which domain.Question withholds
// from JSON; the cache is server-side only.
type cachedQuestion struct {
	Question     domain.Question `json:"question"`
	CorrectLabel string          `json:"correctLabel"`
}

func toCached(questions []domain.Question) []cachedQuestion {
	out := make([]cachedQuestion, len(questions))
	for i, q := range questions {
		out[i] = cachedQuestion{Question: q, CorrectLabel: q.CorrectLabel}
	}
	return out
}

func fromCached(cached []cachedQuestion) []domain.Question {
	out := make([]domain.Question, len(cached))
	for i, cq := range cached {
		q := cq.Question
		q.CorrectLabel = cq.CorrectLabel
		out[i] = q
	}
	return out
}
