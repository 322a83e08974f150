// Package devserver is an in-memory implementation of the blog backend used
// for local development and tests.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds development backend configuration.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Server serves the blog REST API under /api.
type Server struct {
	store    *memoryStore
	secret   []byte
	tokenTTL time.Duration
	router   chi.Router
	logger   *slog.Logger
}

// New creates a new development backend with an empty store.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}

	s := &Server{
		store:    newMemoryStore(),
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
		logger:   logger.With("component", "devserver"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SeedAccount creates an account directly, bypassing HTTP.
func (s *Server) SeedAccount(name, email, secret string) (string, error) {
	a, err := s.store.createAccount(name, email, secret)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// SeedPost creates a post directly, bypassing HTTP.
func (s *Server) SeedPost(title, body, author string) string {
	return s.store.createPost(title, body, author).ID
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{postID}", s.handleGetPost)
		r.Patch("/posts/{postID}/like", s.handleLikePost)
		r.Post("/posts/{postID}/comments", s.handleAddComment)

		r.Post("/accounts/login", s.handleLogin)
		r.Post("/accounts/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{postID}", s.handleUpdatePost)
			r.Delete("/posts/{postID}", s.handleDeletePost)

			r.Get("/accounts", s.handleListAccounts)
			r.Get("/accounts/{accountID}", s.handleGetAccount)
			r.Patch("/accounts/{accountID}", s.handleUpdateAccount)
			r.Delete("/accounts/{accountID}", s.handleDeleteAccount)
		})
	})

	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if _, err := s.validateToken(raw); err != nil {
			s.logger.Debug("rejected token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueToken(accountID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})
	return token.SignedString(s.secret)
}

func (s *Server) validateToken(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	// tokens of deleted accounts are rejected
	if _, err := s.store.getAccount(claims.Subject); err != nil {
		return "", fmt.Errorf("token subject: %w", err)
	}
	return claims.Subject, nil
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	// page and q are accepted and ignored; clients de-duplicate
	writeJSON(w, http.StatusOK, s.store.listPosts())
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.getPost(chi.URLParam(r, "postID"))
	if err != nil {
		writeStoreError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string `json:"titulo"`
		Body   string `json:"conteudo"`
		Author string `json:"autor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Title) || blank(req.Body) || blank(req.Author) {
		writeError(w, http.StatusBadRequest, "titulo, conteudo and autor are required")
		return
	}

	writeJSON(w, http.StatusCreated, s.store.createPost(req.Title, req.Body, req.Author))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"titulo"`
		Body  string `json:"conteudo"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Title) || blank(req.Body) {
		writeError(w, http.StatusBadRequest, "titulo and conteudo are required")
		return
	}

	p, err := s.store.updatePost(chi.URLParam(r, "postID"), req.Title, req.Body)
	if err != nil {
		writeStoreError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deletePost(chi.URLParam(r, "postID")); err != nil {
		writeStoreError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	likes, err := s.store.likePost(chi.URLParam(r, "postID"))
	if err != nil {
		writeStoreError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"curtidas": likes})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req comment
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Body) {
		writeError(w, http.StatusBadRequest, "conteudo is required")
		return
	}

	c, err := s.store.addComment(chi.URLParam(r, "postID"), req.Body)
	if err != nil {
		writeStoreError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Secret string `json:"senha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Email) || blank(req.Secret) {
		writeError(w, http.StatusBadRequest, "email and senha are required")
		return
	}

	a, err := s.store.authenticate(req.Email, req.Secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := s.issueToken(a.ID)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"nome":  a.Name,
		"email": a.Email,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"nome"`
		Email  string `json:"email"`
		Secret string `json:"senha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if blank(req.Name) || blank(req.Email) || blank(req.Secret) {
		writeError(w, http.StatusBadRequest, "nome, email and senha are required")
		return
	}

	a, err := s.store.createAccount(req.Name, req.Email, req.Secret)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.listAccounts())
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.getAccount(chi.URLParam(r, "accountID"))
	if err != nil {
		writeStoreError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string  `json:"nome"`
		Email  string  `json:"email"`
		Secret *string `json:"senha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Secret != nil && blank(*req.Secret) {
		req.Secret = nil
	}

	a, err := s.store.updateAccount(chi.URLParam(r, "accountID"), req.Name, req.Email, req.Secret)
	if err != nil {
		writeStoreError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteAccount(chi.URLParam(r, "accountID")); err != nil {
		writeStoreError(w, err, "account not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, errEmailTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
