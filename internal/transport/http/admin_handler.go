package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
)

// AdminHandler covers catalog curation and user administration.
type AdminHandler struct {
	catalog *app.CatalogService
	users   *app.UserService
	reports *app.ReportService
}

func NewAdminHandler(catalog *app.CatalogService, users *app.UserService, reports *app.ReportService) *AdminHandler {
	return &AdminHandler{catalog: catalog, users: users, reports: reports}
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// ---- subjects ----

type subjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *AdminHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "subject name is required")
		return
	}
	subject, err := h.catalog.CreateSubject(r.Context(), domain.Subject{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *AdminHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}
	var req subjectRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "subject name is required")
		return
	}
	if err := h.catalog.UpdateSubject(r.Context(), domain.Subject{ID: id, Name: req.Name, Description: req.Description}); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}
	if err := h.catalog.DeleteSubject(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- chapters ----

type chapterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *AdminHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}
	var req chapterRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "chapter name is required")
		return
	}
	chapter, err := h.catalog.CreateChapter(r.Context(), domain.Chapter{
		SubjectID:   subjectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapter)
}

func (h *AdminHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chapter id")
		return
	}
	current, err := h.catalog.GetChapter(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	var req chapterRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "chapter name is required")
		return
	}
	current.Name = req.Name
	current.Description = req.Description
	if err := h.catalog.UpdateChapter(r.Context(), current); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chapter id")
		return
	}
	if err := h.catalog.DeleteChapter(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- quizzes ----

type quizRequest struct {
	DateOfQuiz    string `json:"dateOfQuiz"` // YYYY-MM-DD, optional
	Duration      string `json:"duration"`   // HH:MM
	Remarks       string `json:"remarks"`
	QuestionLimit int    `json:"questionLimit"`
	ScheduledAt   string `json:"scheduledAt"` // YYYY-MM-DDTHH:MM, quiz time zone
}

func (req quizRequest) toQuiz() (domain.Quiz, error) {
	quiz := domain.Quiz{
		Duration:      req.Duration,
		Remarks:       req.Remarks,
		QuestionLimit: req.QuestionLimit,
	}
	if req.DateOfQuiz != "" {
		date, err := time.Parse("2006-01-02", req.DateOfQuiz)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.DateOfQuiz = date
	}
	if req.ScheduledAt != "" {
		// Parsed without a zone: the attempt gate interprets it in the
		// configured quiz time zone.
		scheduled, err := time.Parse("2006-01-02T15:04", req.ScheduledAt)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.ScheduledAt = scheduled
	}
	return quiz, nil
}

func (h *AdminHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chapter id")
		return
	}
	var req quizRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := req.toQuiz()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date or scheduled time")
		return
	}
	quiz.ChapterID = chapterID
	created, err := h.catalog.CreateQuiz(r.Context(), quiz)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return
	}
	current, err := h.catalog.GetQuiz(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	var req quizRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := req.toQuiz()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date or scheduled time")
		return
	}
	quiz.ID = current.ID
	quiz.ChapterID = current.ChapterID
	if quiz.DateOfQuiz.IsZero() {
		quiz.DateOfQuiz = current.DateOfQuiz
	}
	if quiz.ScheduledAt.IsZero() {
		quiz.ScheduledAt = current.ScheduledAt
	}
	if err := h.catalog.UpdateQuiz(r.Context(), quiz); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return
	}
	if err := h.catalog.DeleteQuiz(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- questions ----

type questionRequest struct {
	Statement     string `json:"statement"`
	Option1       string `json:"option1"`
	Option2       string `json:"option2"`
	Option3       string `json:"option3"`
	Option4       string `json:"option4"`
	CorrectOption string `json:"correctOption"`
	Explanation   string `json:"explanation"`
}

func (req questionRequest) toQuestion() domain.Question {
	q := domain.Question{
		Statement:    req.Statement,
		CorrectLabel: req.CorrectOption,
		Explanation:  req.Explanation,
	}
	slots := []struct {
		label string
		text  string
	}{
		{"option1", req.Option1},
		{"option2", req.Option2},
		{"option3", req.Option3},
		{"option4", req.Option4},
	}
	for _, slot := range slots {
		if slot.text != "" {
			q.Options = append(q.Options, domain.Option{Label: slot.label, Text: slot.text})
		}
	}
	return q
}

func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return
	}
	var req questionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := req.toQuestion()
	question.QuizID = quizID
	created, err := h.catalog.CreateQuestion(r.Context(), question)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return
	}
	questions, err := h.catalog.ListQuestions(r.Context(), quizID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	current, err := h.catalog.GetQuestion(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	var req questionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := req.toQuestion()
	question.ID = current.ID
	question.QuizID = current.QuizID
	if err := h.catalog.UpdateQuestion(r.Context(), question); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := h.catalog.DeleteQuestion(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- read endpoints, shared with regular users ----

func (h *AdminHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.catalog.ListSubjects(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *AdminHandler) ListChapters(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}
	chapters, err := h.catalog.ListChapters(r.Context(), subjectID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (h *AdminHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chapter id")
		return
	}
	quizzes, err := h.catalog.ListQuizzes(r.Context(), chapterID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// ---- users & stats ----

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
