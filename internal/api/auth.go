package api

import (
	"net/http"

	"github.com/p-n-ai/pai-course/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.Auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.UserID(r.Context())
	u, err := s.Auth.User(r.Context(), id)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
