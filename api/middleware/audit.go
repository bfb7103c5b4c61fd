package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

const (
	auditBodyLimit      = 64 << 10
	auditValueMaxLen    = 500
	auditUserAgentLimit = 500
)

var auditSensitiveKeys = map[string]struct{}{
	"password":         {},
	"current_password": {},
	"new_password":     {},
	"token":            {},
	"refresh_token":    {},
	"secret":           {},
	"authorization":    {},
}

// AuditEntry is what the middleware hands to the audit sink per request.
type AuditEntry struct {
	UserID        *uuid.UUID
	Action        enums.AuditAction
	EntityName    string
	EntityID      *string
	RequestPath   string
	RequestMethod string
	IPAddress     string
	UserAgent     string
	StatusCode    int
	Changes       json.RawMessage
}

// AuditSink persists request audit entries. Implementations must be safe
// to call after the response has been written.
type AuditSink interface {
	RecordHTTP(ctx context.Context, entry AuditEntry) error
}

// Audit records mutating requests after the response is written. Audit
// failures are logged and swallowed; they never break the request.
func Audit(sink AuditSink, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sink == nil || !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(io.LimitReader(r.Body, auditBodyLimit))
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry := buildAuditEntry(r, rec.status, body)
			if err := sink.RecordHTTP(r.Context(), entry); err != nil && logg != nil {
				logg.Warn(r.Context(), "audit record failed: "+err.Error())
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func buildAuditEntry(r *http.Request, status int, body []byte) AuditEntry {
	entry := AuditEntry{
		Action:        actionForMethod(r.Method),
		RequestPath:   r.URL.Path,
		RequestMethod: r.Method,
		IPAddress:     ClientIP(r),
		UserAgent:     truncate(r.UserAgent(), auditUserAgentLimit),
		StatusCode:    status,
		Changes:       sanitizeAuditBody(body),
	}
	if raw := UserIDFromContext(r.Context()); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			entry.UserID = &id
		}
	}
	entry.EntityName, entry.EntityID = entityFromPath(r.URL.Path)
	return entry
}

func actionForMethod(method string) enums.AuditAction {
	switch method {
	case http.MethodPost:
		return enums.AuditActionCreate
	case http.MethodDelete:
		return enums.AuditActionDelete
	}
	return enums.AuditActionUpdate
}

// entityFromPath infers the module entity and id from /api/v1/<entity>/<id>/... routes.
func entityFromPath(path string) (string, *string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "v1" && i+1 < len(parts) {
			entity := parts[i+1]
			if i+2 < len(parts) {
				if _, err := uuid.Parse(parts[i+2]); err == nil {
					id := parts[i+2]
					return entity, &id
				}
			}
			return entity, nil
		}
	}
	return "", nil
}

func sanitizeAuditBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}
	sanitizeAuditMap(decoded)
	cleaned, err := json.Marshal(decoded)
	if err != nil {
		return nil
	}
	return cleaned
}

func sanitizeAuditMap(m map[string]any) {
	for key, value := range m {
		if _, sensitive := auditSensitiveKeys[strings.ToLower(key)]; sensitive {
			m[key] = "[redacted]"
			continue
		}
		switch v := value.(type) {
		case string:
			m[key] = truncate(v, auditValueMaxLen)
		case map[string]any:
			sanitizeAuditMap(v)
		}
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}

// ClientIP extracts the originating address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	return clientIP(r)
}
