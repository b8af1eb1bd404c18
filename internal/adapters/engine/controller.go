package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
	"golang.org/x/sys/unix"
)

// Controller drives one EngineSession through its lifecycle:
// IDLE -> SETUP -> LAUNCHED -> ARMED -> RUNNING -> DRAINING -> DONE.
// Its atomic state mirrors a lock-free atomic-state adapter: readable
// without a lock from any goroutine, written only by the owning session.
type Controller struct {
	control ports.ProcessControl
	regs    ports.ArchRegs
	probe   ports.Probe

	logger func(event, level string)

	state       atomic.Int32
	tgid        atomic.Int32
	hangTimeout atomic.Int64

	// restore is the in-flight file-backed memory restore record, if any.
	// Set by RunIteration's memory-flip branch, consumed and cleared during
	// the DRAINING teardown for this same iteration; never touched
	// concurrently since one Controller runs one iteration at a time.
	restore *domain.RestoreRecord
}

// New builds a Controller for one architecture's register table.
func New(control ports.ProcessControl, regs ports.ArchRegs, probe ports.Probe) *Controller {
	c := &Controller{control: control, regs: regs, probe: probe}
	c.state.Store(int32(domain.StateIdle))
	c.hangTimeout.Store(hangTimeoutMS)
	return c
}

// SetLogger installs a callback invoked for each lifecycle transition and
// notable event, mirroring AuthFloodEngine.SetLogger.
func (c *Controller) SetLogger(logger func(event, level string)) {
	c.logger = logger
}

// SetHangTimeout overrides the default hang-detection window, per a
// campaign's CampaignConfig.HangTimeout. ms<=0 leaves the default in place.
func (c *Controller) SetHangTimeout(ms int) {
	if ms > 0 {
		c.hangTimeout.Store(int64(ms))
	}
}

func (c *Controller) log(event, level string) {
	if c.logger != nil {
		c.logger(event, level)
	}
}

// State returns the session's current lifecycle state.
func (c *Controller) State() domain.SessionState {
	return domain.SessionState(c.state.Load())
}

func (c *Controller) setState(s domain.SessionState) {
	c.state.Store(int32(s))
	c.log(fmt.Sprintf("state -> %s", s), "debug")
}

// hangTimeoutMS bounds how long RunIteration waits for the target to exit
// after an injection before declaring it hung and killing it.
const hangTimeoutMS = 5000

// RunIteration launches req.Path once, optionally injects a fault per
// req.Policy, and reports the outcome. It never returns an error for a
// target crash, hang, or unexpected exit — those are all valid
// ExecutionResults; err is reserved for engine-side failures (launch
// failed, ptrace call failed) that leave no usable result.
func (c *Controller) RunIteration(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	c.setState(domain.StateSetup)

	c.setState(domain.StateLaunched)
	start := time.Now()
	tgid, err := c.control.Launch(ctx, req.Path, req.Args, req.Env, req.LogPath)
	if err != nil {
		c.setState(domain.StateIdle)
		return domain.ExecutionResult{IterationID: req.IterationID}, fmt.Errorf("controller: launch: %w", err)
	}

	c.tgid.Store(int32(tgid))
	result := domain.ExecutionResult{IterationID: req.IterationID, TargetTGID: tgid}

	if req.Policy.NoInjection {
		c.setState(domain.StateRunning)
		if err := c.control.Continue(tgid, 0); err != nil {
			return result, fmt.Errorf("controller: continue: %w", err)
		}
		c.finishMeasurement(tgid, &result, start)
		c.setState(domain.StateDone)
		return result, nil
	}

	memory := useMemory(req.Policy)
	result.MemoryFlip = memory

	if req.Policy.TargetPCPresent {
		c.setState(domain.StateArmed)
		hit := make(chan struct{}, 1)
		if err := c.probe.Arm(ctx, tgid, req.Path, req.Policy.TargetPC, func() { hit <- struct{}{} }); err != nil {
			return result, fmt.Errorf("controller: arm probe: %w", err)
		}
		if err := c.control.Continue(tgid, 0); err != nil {
			return result, fmt.Errorf("controller: continue: %w", err)
		}
		select {
		case <-hit:
		case <-ctx.Done():
			c.probe.Disarm()
			return result, ctx.Err()
		}
	} else {
		if err := c.control.Continue(tgid, 0); err != nil {
			return result, fmt.Errorf("controller: continue: %w", err)
		}
		min, max := req.Policy.DelayWindow()
		delay := min
		if max > min {
			delay = min + time.Duration(randIntn(int(max-min)))
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	c.setState(domain.StateRunning)
	if err := c.control.GroupStop(tgid); err != nil {
		// Target likely already exited; treat as a completed (non-injected) run.
		c.finishMeasurement(tgid, &result, start)
		c.setState(domain.StateDone)
		return result, nil
	}

	injTime := time.Now()
	var flipErr error
	if memory {
		addr, before, after, restore, err := flipMemory(c.control, tgid)
		if err != nil {
			flipErr = err
		} else {
			result.Address = addr
			result.Before = uint64(before)
			result.After = uint64(after)
			result.FaultInjected = true
			c.restore = restore
		}
	} else {
		threads, err := c.control.Threads(tgid)
		if err != nil {
			flipErr = err
		} else if chosen, err := pickThreads(threads, req.Policy); err != nil {
			flipErr = err
		} else {
			// all_threads: one register flip per eligible user thread,
			// accumulated; the first error is kept but every remaining
			// thread is still attempted and the group is still resumed.
			// If any thread's flip lands, the iteration reports success
			// overall and the kept error is only logged, not returned.
			for _, tid := range chosen {
				reg, before, after, ferr := flipRegister(c.control, c.regs, tid, req.Policy)
				if ferr != nil {
					if flipErr == nil {
						flipErr = ferr
					}
					continue
				}
				result.RegisterFlips = append(result.RegisterFlips, domain.RegisterFlip{
					ThreadID: tid,
					RegName:  string(reg),
					Before:   before,
					After:    after,
				})
				result.FaultInjected = true
				c.log(fmt.Sprintf("register flip: tid=%d reg=%s", tid, reg), "debug")
			}
			if n := len(result.RegisterFlips); n > 0 {
				last := result.RegisterFlips[n-1]
				result.RegName = last.RegName
				result.Before = last.Before
				result.After = last.After

				// At least one thread's flip landed: the group injection is a
				// success overall, even though one or more other threads
				// failed. The first such failure is still logged, never
				// silently dropped.
				if flipErr != nil {
					c.log(fmt.Sprintf("all_threads: per-thread error kept but overridden by %d successful flips: %v", n, flipErr), "warn")
					flipErr = nil
				}
			}
		}
	}
	result.InjectionTimeNS = time.Since(injTime).Nanoseconds()

	if err := c.control.GroupContinue(tgid); err != nil {
		return result, fmt.Errorf("controller: group continue: %w", err)
	}

	c.setState(domain.StateDraining)
	c.waitWithHangTimeout(tgid, &result)
	if err := restoreFileBacked(c.restore); err != nil {
		c.log(fmt.Sprintf("restore file-backed byte: %v", err), "warn")
	}
	c.restore = nil

	c.setState(domain.StateDone)
	if flipErr != nil {
		return result, fmt.Errorf("controller: injection: %w", flipErr)
	}
	return result, nil
}

// finishMeasurement waits for a no-injection baseline run to exit and fills
// in its exit status.
func (c *Controller) finishMeasurement(tgid int, result *domain.ExecutionResult, start time.Time) {
	status, err := c.control.Wait4(tgid)
	if err == nil {
		ws := unix.WaitStatus(status)
		result.ExitStatus = status
		if ws.Signaled() {
			result.Signal = int(ws.Signal())
		}
	}
}

// waitWithHangTimeout waits for the target to exit after an injection; if
// it doesn't within the controller's hang timeout (hangTimeoutMS unless
// overridden by SetHangTimeout), it's classified as hung and killed.
func (c *Controller) waitWithHangTimeout(tgid int, result *domain.ExecutionResult) {
	done := make(chan int, 1)
	go func() {
		status, err := c.control.Wait4(tgid)
		if err != nil {
			done <- -1
			return
		}
		done <- status
	}()

	select {
	case status := <-done:
		if status >= 0 {
			ws := unix.WaitStatus(status)
			result.ExitStatus = status
			if ws.Signaled() {
				result.Signal = int(ws.Signal())
			}
		}
	case <-time.After(time.Duration(c.hangTimeout.Load()) * time.Millisecond):
		result.ProcessHanged = true
		c.control.Kill(tgid)
		<-done
	}
}

// Kill force-terminates the session's current target, if one is launched.
func (c *Controller) Kill() error {
	tgid := int(c.tgid.Load())
	if tgid == 0 {
		return fmt.Errorf("controller: no active target")
	}
	return c.control.Kill(tgid)
}
