package engine

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hardware-forge/fij-go/internal/core/ports"
)

// Monitor periodically checks whether a launched target is still alive,
// the userspace stand-in for the kernel module's monitor kthread polling
// task_struct state. It publishes a "target_exited" event once the target's
// /proc entry is gone.
type Monitor struct {
	sink ports.EventSink
}

func NewMonitor(sink ports.EventSink) *Monitor {
	return &Monitor{sink: sink}
}

// Watch polls tgid every interval until ctx is canceled or the process
// directory disappears (the target exited).
func (m *Monitor) Watch(ctx context.Context, campaign string, tgid int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !alive(tgid) {
				if m.sink != nil {
					m.sink.Publish("target_exited", map[string]any{"campaign": campaign, "tgid": tgid})
				}
				return
			}
		}
	}
}

func alive(tgid int) bool {
	_, err := os.Stat("/proc/" + strconv.Itoa(tgid))
	return err == nil
}
