package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubControl is a ports.ProcessControl double that launches instantly and
// reports a clean exit, enough to drive the control channel's HTTP routes
// without a real ptrace'd child.
type stubControl struct{ killed bool }

func (s *stubControl) Launch(ctx context.Context, path string, argv, env []string, logPath string) (int, error) {
	return 4242, nil
}
func (s *stubControl) GroupStop(tgid int) error                 { return nil }
func (s *stubControl) GroupContinue(tgid int) error              { return nil }
func (s *stubControl) WaitStopped(tid int, timeoutMS int) error  { return nil }
func (s *stubControl) Continue(tid int, sig int) error           { return nil }
func (s *stubControl) Descendants(root int) ([]int, error)       { return nil, nil }
func (s *stubControl) Threads(tgid int) ([]int, error)           { return []int{tgid}, nil }
func (s *stubControl) ReadRegs(tid int) ([]byte, error)          { return make([]byte, 64), nil }
func (s *stubControl) WriteRegs(tid int, frame []byte) error     { return nil }
func (s *stubControl) VMAs(tgid int) ([]ports.VMA, error)        { return nil, nil }
func (s *stubControl) ReadByte(tgid int, addr uint64) (byte, error) {
	return 0, fmt.Errorf("no memory")
}
func (s *stubControl) WriteByte(tgid int, addr uint64, value byte) error { return nil }
func (s *stubControl) Wait4(tgid int) (int, error)                      { return 0, nil }
func (s *stubControl) Kill(tgid int) error {
	s.killed = true
	return nil
}
func (s *stubControl) CodeStart(tgid int) (uint64, error) { return 0x1000, nil }

var _ ports.ProcessControl = (*stubControl)(nil)

type stubRegs struct{}

func (stubRegs) Arch() domain.Arch                                    { return domain.ArchAMD64 }
func (stubRegs) Resolve(id domain.RegisterID) (int, bool)             { return 64, true }
func (stubRegs) Names() []domain.RegisterID                           { return []domain.RegisterID{"rax"} }
func (stubRegs) Read(frame []byte, id domain.RegisterID) (uint64, error) { return 0, nil }
func (stubRegs) Write(frame []byte, id domain.RegisterID, value uint64) error { return nil }

var _ ports.ArchRegs = stubRegs{}

type stubProbe struct{}

func (stubProbe) Arm(ctx context.Context, tgid int, file string, offset uint64, onHit func()) error {
	return fmt.Errorf("not used in this test")
}
func (stubProbe) Disarm() error { return nil }

var _ ports.Probe = stubProbe{}

func newTestServer() *Server {
	return NewServer(&stubControl{}, stubRegs{}, stubProbe{}, nil)
}

func openSession(t *testing.T, srv *Server) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out.SessionID
}

func TestHandleOpenCreatesSession(t *testing.T) {
	srv := newTestServer()
	id := openSession(t, srv)
	assert.NotEmpty(t, id)
}

func TestHandleExecAndFaultNoInjection(t *testing.T) {
	srv := newTestServer()
	id := openSession(t, srv)

	body, _ := json.Marshal(domain.ExecutionRequest{
		IterationID: 1,
		Path:        "/bin/true",
		Policy:      domain.InjectionPolicy{NoInjection: true},
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/exec", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.ExecutionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 4242, result.TargetTGID)
}

func TestHandleExecAndFaultUnknownSession(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/sessions/does-not-exist/exec", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleKillBeforeLaunchConflicts(t *testing.T) {
	srv := newTestServer()
	id := openSession(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/kill", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCloseRemovesSession(t *testing.T) {
	srv := newTestServer()
	id := openSession(t, srv)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/kill", nil)
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}
