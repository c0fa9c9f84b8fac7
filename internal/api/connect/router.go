package connect

import (
	"encoding/json"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
)

// NewRouter creates the HTTP router serving WorkoutService and the health check.
// Start, Pause, Reset and Configure require the control token when one is set.
func NewRouter(svc *WorkoutService, controlToken string, opts ...connect.HandlerOption) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogging)

	control := append([]connect.HandlerOption{
		connect.WithInterceptors(NewControlTokenInterceptor(controlToken)),
	}, opts...)

	r.Handle(StartProcedure, connect.NewUnaryHandler(StartProcedure, svc.Start, control...))
	r.Handle(PauseProcedure, connect.NewUnaryHandler(PauseProcedure, svc.Pause, control...))
	r.Handle(ResetProcedure, connect.NewUnaryHandler(ResetProcedure, svc.Reset, control...))
	r.Handle(ConfigureProcedure, connect.NewUnaryHandler(ConfigureProcedure, svc.Configure, control...))
	r.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...))
	r.Handle(SubscribeProcedure, connect.NewServerStreamHandler(SubscribeProcedure, svc.Subscribe, opts...))

	r.Get("/healthz", svc.handleHealth)
	return r
}

func (s *WorkoutService) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"state":  s.session.Status().State.String(),
	})
}

// RequestLogging logs each request at debug level.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		zlog.Debug().Msgf("http: request: method=%s path=%s status=%d duration=%s",
			r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps server streams working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
