package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRecorderWritesOneFilePerIteration(t *testing.T) {
	dir := t.TempDir()
	recorder := NewJSONRecorder(dir)

	rec := domain.Record{
		Iteration:  3,
		Timestamp:  time.Now(),
		DurationMS: 1.5,
		Result:     domain.ExecutionResult{IterationID: 3, FaultInjected: true},
	}
	require.NoError(t, recorder.Write(rec))

	data, err := os.ReadFile(filepath.Join(dir, "injection_3", "injection_3.json"))
	require.NoError(t, err)

	var got domain.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Iteration)
	assert.True(t, got.Result.FaultInjected)
}

func TestJSONRecorderIterationDirMatchesWriteLocation(t *testing.T) {
	dir := t.TempDir()
	recorder := NewJSONRecorder(dir)
	assert.Equal(t, filepath.Join(dir, "injection_7"), recorder.IterationDir(7))
}
