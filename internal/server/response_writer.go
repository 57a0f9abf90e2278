package server

import (
	"bytes"
	"net/http"
)

// responseRecorder captures the status code and body written by a handler so
// the audit middleware can log them after the fact.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	buffer     bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.buffer.Write(b)
	return w.ResponseWriter.Write(b)
}
