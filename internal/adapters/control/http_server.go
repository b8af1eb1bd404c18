// Package control implements the out-of-scope control-channel
// transport — originally a character device exposing EXEC_AND_FAULT, SEND,
// RECEIVE, KILL, and open/close — reimplemented as local HTTP so a campaign
// runner and an engine process can run on separate hosts. Routing follows
// gorilla/mux, one handler per operation. Only open, EXEC_AND_FAULT, KILL
// and close are exposed; there are no SEND or RECEIVE routes.
package control

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hardware-forge/fij-go/internal/adapters/engine"
	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server exposes one EngineController per opened session over HTTP.
type Server struct {
	control ports.ProcessControl
	regs    ports.ArchRegs
	probe   ports.Probe
	sink    ports.EventSink

	mu       sync.Mutex
	sessions map[string]*engine.Controller
}

func NewServer(control ports.ProcessControl, regs ports.ArchRegs, probe ports.Probe, sink ports.EventSink) *Server {
	return &Server{
		control:  control,
		regs:     regs,
		probe:    probe,
		sink:     sink,
		sessions: make(map[string]*engine.Controller),
	}
}

// Handler returns the control channel's otel-instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/sessions", s.handleOpen).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/exec", s.handleExecAndFault).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/kill", s.handleKill).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.handleClose).Methods(http.MethodDelete)
	return otelhttp.NewHandler(r, "control-channel")
}

// handleOpen is the control channel's "open" operation: allocate a new
// session and its EngineController.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	controller := engine.New(s.control, s.regs, s.probe)
	if s.sink != nil {
		controller.SetLogger(func(event, level string) {
			s.sink.Publish("session_event", map[string]any{"session": id, "event": event, "level": level})
		})
	}

	s.mu.Lock()
	s.sessions[id] = controller
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleExecAndFault is the control channel's EXEC_AND_FAULT operation:
// launch the target and, per the request's policy, inject a fault.
func (s *Server) handleExecAndFault(w http.ResponseWriter, r *http.Request) {
	controller, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	var req domain.ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := controller.RunIteration(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleKill is the control channel's KILL operation.
func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	controller, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err := controller.Kill(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleClose is the control channel's "close" operation.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*engine.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[id]
	return c, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
