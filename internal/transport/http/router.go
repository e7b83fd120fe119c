package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quizmaster-service/internal/app"
)

// Services bundles the application services the router exposes.
type Services struct {
	Attempts *app.AttemptService
	Catalog  *app.CatalogService
	Users    *app.UserService
	Reports  *app.ReportService
	Board    *app.LeaderboardHub
}

// NewRouter builds the full HTTP surface: public auth endpoints, the
// authenticated quiz-taking API, the admin catalog API, and the leaderboard
// websocket.
func NewRouter(s Services, auth *Auth) http.Handler {
	users := NewUserHandler(s.Users, auth)
	attempts := NewAttemptHandler(s.Attempts)
	admin := NewAdminHandler(s.Catalog, s.Users, s.Reports)
	reports := NewReportHandler(s.Reports, s.Board)
	ws := NewWSHandler(s.Board)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(auth.withAuth)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", users.Register)
		r.Post("/login", users.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", users.Me)
			r.Put("/me", users.UpdateProfile)
			r.Delete("/me", users.DeleteProfile)
			r.Get("/me/scores", reports.MyScores)
			r.Get("/me/performance", reports.MyPerformance)

			r.Get("/subjects", admin.ListSubjects)
			r.Get("/subjects/{id}/chapters", admin.ListChapters)
			r.Get("/chapters/{id}/quizzes", admin.ListQuizzes)

			r.Get("/quizzes/{quizID}/attempt", attempts.Start)
			r.Post("/quizzes/{quizID}/attempt/save", attempts.Save)
			r.Post("/quizzes/{quizID}/attempt/submit", attempts.Submit)
			r.Post("/quizzes/{quizID}/attempt/auto-submit", attempts.AutoSubmit)

			r.Get("/leaderboard", reports.Leaderboard)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/subjects", admin.CreateSubject)
			r.Put("/subjects/{id}", admin.UpdateSubject)
			r.Delete("/subjects/{id}", admin.DeleteSubject)
			r.Post("/subjects/{id}/chapters", admin.CreateChapter)

			r.Put("/chapters/{id}", admin.UpdateChapter)
			r.Delete("/chapters/{id}", admin.DeleteChapter)
			r.Post("/chapters/{id}/quizzes", admin.CreateQuiz)

			r.Put("/quizzes/{id}", admin.UpdateQuiz)
			r.Delete("/quizzes/{id}", admin.DeleteQuiz)
			r.Get("/quizzes/{id}/questions", admin.ListQuestions)
			r.Post("/quizzes/{id}/questions", admin.CreateQuestion)

			r.Put("/questions/{id}", admin.UpdateQuestion)
			r.Delete("/questions/{id}", admin.DeleteQuestion)

			r.Get("/users", admin.ListUsers)
			r.Delete("/users/{id}", admin.DeleteUser)
			r.Get("/stats", admin.Stats)
		})
	})

	r.Get("/ws/leaderboard", ws.ServeWS)

	return r
}
