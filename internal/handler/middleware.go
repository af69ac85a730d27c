package handler

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/service"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const claimsKey ctxKey = iota

// claimsFrom возвращает координатора, чей токен пришёл с запросом
func claimsFrom(ctx context.Context) *service.Claims {
	claims, _ := ctx.Value(claimsKey).(*service.Claims)
	return claims
}

// actor возвращает явно указанного автора или логин из токена
func actor(r *http.Request, explicit *string) *string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		return explicit
	}
	if claims := claimsFrom(r.Context()); claims != nil {
		username := claims.Username
		return &username
	}
	return nil
}

// identify разбирает Bearer-токен, если он есть. Запросы без токена
// пропускаются, неверный токен отклоняется.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || h.auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			h.writeError(w, r, apperr.Unauthorized("malformed Authorization header"))
			return
		}
		claims, err := h.auth.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			h.writeError(w, r, apperr.Unauthorized("Invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.frontendURL != "" {
			w.Header().Set("Access-Control-Allow-Origin", h.frontendURL)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap нужен websocket-апгрейду, которому требуется http.Hijacker
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(started).String(),
		}).Debug("Request handled")
	})
}

func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.logger.WithFields(logrus.Fields{
					"panic": v,
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Handler panicked")
				h.writeJSON(w, http.StatusInternalServerError, map[string]errorBody{
					"error": {Kind: apperr.KindInternal, Message: "internal error"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
