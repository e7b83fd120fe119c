package http

import (
	"net/http"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
)

// UserHandler covers registration, login, and profile endpoints.
type UserHandler struct {
	users *app.UserService
	auth  *Auth
}

func NewUserHandler(users *app.UserService, auth *Auth) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type registerRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	FullName      string `json:"fullName"`
	Qualification string `json:"qualification"`
	DOB           string `json:"dob"` // YYYY-MM-DD, optional
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user := domain.User{
		Username:      req.Username,
		FullName:      req.FullName,
		Qualification: req.Qualification,
	}
	if req.DOB != "" {
		dob, err := time.Parse("2006-01-02", req.DOB)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date of birth, expected YYYY-MM-DD")
			return
		}
		user.DOB = &dob
	}
	created, err := h.users.Register(r.Context(), user, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	token, err := h.auth.SignToken(user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	user, err := h.users.GetUser(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Username      string `json:"username"`
	FullName      string `json:"fullName"`
	Qualification string `json:"qualification"`
	DOB           string `json:"dob"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	var req profileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := domain.User{
		ID:            identity.UserID,
		Username:      req.Username,
		FullName:      req.FullName,
		Qualification: req.Qualification,
	}
	if req.DOB != "" {
		dob, err := time.Parse("2006-01-02", req.DOB)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date of birth, expected YYYY-MM-DD")
			return
		}
		user.DOB = &dob
	}
	if err := h.users.UpdateProfile(r.Context(), user); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *UserHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := h.users.DeleteUser(r.Context(), identity.UserID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
