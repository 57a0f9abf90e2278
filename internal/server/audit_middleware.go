package server

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/assolink/cantine/internal/repository"
)

// auditMiddleware records every authenticated API call as an audit event.
// It runs inside the auth middleware so the tenant identity is available.
func (s *Server) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event := repository.AuditEvent{
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
		}

		if route := mux.CurrentRoute(r); route != nil {
			event.Handler = route.GetName()
			event.Action = route.GetName()
		}
		if tenant := tenantFrom(r.Context()); tenant != nil {
			event.TenantID = tenant.ID
		}
		if id, ok := mux.Vars(r)["id"]; ok {
			event.OrderID = id
		}

		if r.Body != nil && r.Method != http.MethodGet {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(body))
			event.Request = string(body)
		}

		recorder := newResponseRecorder(w)
		next.ServeHTTP(recorder, r)

		event.StatusCode = recorder.statusCode
		event.Response = recorder.buffer.String()

		s.auditor.Record(r.Context(), event)
	})
}
