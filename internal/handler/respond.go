package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"work-allocation/internal/apperr"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
	Fields  []string    `json:"fields,omitempty"`
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Warn("Failed to write response")
	}
}

// writeError переводит ошибку сервиса в статус и тело {"error": {...}}
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	body := errorBody{Kind: kind, Message: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Fields = appErr.Fields
	}

	status := statusOf(kind)
	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
		if kind == apperr.KindInternal {
			body.Message = "internal error"
		}
	} else {
		entry.Debug("Request rejected")
	}

	h.writeJSON(w, status, map[string]errorBody{"error": body})
}

// decode читает JSON тело запроса. Пустое тело оставляет dst без изменений.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseTime принимает ISO-строку или дату без времени. Для даты без времени
// endOfDay сдвигает значение на последний момент этого дня.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC); err == nil {
		if endOfDay {
			return d.Add(24*time.Hour - time.Nanosecond), nil
		}
		return d, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// parseRange читает границы [start, end] из пары строк
func parseRange(start, end string) (time.Time, time.Time, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		var fields []string
		if strings.TrimSpace(start) == "" {
			fields = append(fields, "start")
		}
		if strings.TrimSpace(end) == "" {
			fields = append(fields, "end")
		}
		return time.Time{}, time.Time{}, apperr.Validation("start and end are required (ISO date strings)", fields...)
	}

	from, err := parseTime(start, false)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("Invalid date format", "start")
	}
	to, err := parseTime(end, true)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("Invalid date format", "end")
	}
	return from, to, nil
}

// parseOptionalDate читает необязательную дату плана
func parseOptionalDate(raw *string, fieldName string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseTime(*raw, false)
	if err != nil {
		return nil, apperr.Validation("Invalid date format", fieldName)
	}
	return &t, nil
}
