package http

import (
	"errors"
	"net/http"

	"subtrack/internal/auth"
	"subtrack/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "login.html", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	user, err := s.auth.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeErrorFragment(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.ErrorContext(r.Context(), "login failed",
			log.FieldOperation, "login",
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Something went wrong, try again")
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "token generation failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Something went wrong, try again")
		return
	}

	s.setSessionCookie(w, token)
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "signup.html", nil)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	displayName := sanitizeInput(r.Form.Get("display_name"))
	password := r.Form.Get("password")

	user, err := s.auth.Register(r.Context(), email, displayName, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Enter a valid email address")
		case errors.Is(err, auth.ErrWeakPassword):
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Password must be at least 8 characters")
		case errors.Is(err, auth.ErrEmailExists):
			writeErrorFragment(w, http.StatusConflict, "An account with this email already exists")
		default:
			s.logger.ErrorContext(r.Context(), "signup failed",
				log.FieldOperation, "signup",
				log.FieldError, err)
			writeErrorFragment(w, http.StatusInternalServerError, "Something went wrong, try again")
		}
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "token generation failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		writeErrorFragment(w, http.StatusInternalServerError, "Something went wrong, try again")
		return
	}

	s.logger.InfoContext(r.Context(), "user registered", log.FieldUserID, user.ID)

	s.setSessionCookie(w, token)
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
