package campaign

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hardware-forge/fij-go/internal/adapters/engine"
	"github.com/hardware-forge/fij-go/internal/adapters/reporting"
	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
	"github.com/hardware-forge/fij-go/internal/telemetry"
)

// baselineWarmup is how many leading baseline runs are discarded before
// averaging, so JIT/cache warmup doesn't skew the timing estimate.
const baselineWarmup = 2

// Runner executes one or more targets/variants from a CampaignConfig.
type Runner struct {
	Control ports.ProcessControl
	Regs    ports.ArchRegs
	Probe   ports.Probe
	Audit   ports.AuditStore
	Sink    ports.EventSink
}

// Run executes every target/variant combination in cfg sequentially,
// each one's iterations fanned out across cfg.Workers goroutines.
func (r *Runner) Run(ctx context.Context, cfg domain.CampaignConfig) ([]domain.CampaignSummary, error) {
	var summaries []domain.CampaignSummary
	for _, target := range cfg.Targets {
		variants := target.Variants
		if len(variants) == 0 {
			variants = []domain.VariantConfig{{Label: "default"}}
		}
		for _, variant := range variants {
			summary, err := r.runOne(ctx, cfg, target, variant)
			if err != nil {
				return summaries, fmt.Errorf("campaign: %s/%s: %w", target.Label, variant.Label, err)
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries, nil
}

func (r *Runner) runOne(ctx context.Context, cfg domain.CampaignConfig, target domain.TargetConfig, variant domain.VariantConfig) (domain.CampaignSummary, error) {
	label := slug(target.Label, variant.Label)
	dir := filepath.Join(cfg.BasePath, label)

	policy := cfg.Defaults
	if target.Policy != nil {
		policy = *target.Policy
	}

	campaignID, err := r.Audit.RecordCampaignStart(ctx, label, digest(cfg, target, variant))
	if err != nil {
		return domain.CampaignSummary{}, fmt.Errorf("audit start: %w", err)
	}

	summary := *domain.NewCampaignSummary(label)

	baselineMS, okCount, goldenPath := r.runBaseline(ctx, cfg, target, variant, dir)
	summary.BaselineRuns = len(baselineMS) + baselineWarmup
	summary.BaselineOK = okCount
	summary.MeanMS, summary.StdDevMS = meanStdDev(baselineMS)

	// The measured baseline mean becomes phase 2's nondeterministic delay
	// ceiling; a campaign with no usable baseline samples keeps whatever
	// MaxDelayMS the policy already carried.
	if summary.MeanMS > 0 {
		policy.MaxDelayMS = int(math.Round(summary.MeanMS))
	}
	summary.MaxDelayMS = policy.MaxDelayMS

	recorder := reporting.NewJSONRecorder(dir)
	diffDir := filepath.Join(dir, "diff")

	requests := make(chan domain.ExecutionRequest)
	newController := func() *engine.Controller {
		c := engine.New(r.Control, r.Regs, r.Probe)
		c.SetHangTimeout(cfg.HangTimeout)
		c.SetLogger(func(event, level string) {
			if r.Sink != nil {
				r.Sink.Publish("engine_event", map[string]any{"campaign": label, "event": event, "level": level})
			}
		})
		return c
	}
	worker := engine.NewWorker(newController, cfg.Workers)
	outcomes := worker.Run(ctx, requests)

	// attemptScratch maps an in-flight attempt's IterationID to its scratch
	// output directory; read and written only from this goroutine, since
	// dispatch() and the outcome-processing loop below both run here.
	attemptScratch := make(map[int]string)

	pipeline := cfg.Workers
	if pipeline < 1 {
		pipeline = 1
	}

	var sendWG sync.WaitGroup
	dispatch := func(id int) {
		req := r.buildRequest(id, target, variant, policy)
		if scratch, err := os.MkdirTemp("", "fij-attempt-"); err == nil {
			attemptScratch[id] = scratch
			req.LogPath = filepath.Join(scratch, "log.txt")
		}
		sendWG.Add(1)
		go func() {
			defer sendWG.Done()
			select {
			case requests <- req:
			case <-ctx.Done():
			}
		}()
	}

	nextID := 0
	outstanding := 0
	classifiedIndex := 0

outer:
	for classifiedIndex < cfg.Iterations || outstanding > 0 {
		for outstanding < pipeline && classifiedIndex+outstanding < cfg.Iterations {
			nextID++
			outstanding++
			dispatch(nextID)
		}

		select {
		case oc, ok := <-outcomes:
			if !ok {
				break outer
			}
			outstanding--

			scratch := attemptScratch[oc.Request.IterationID]
			delete(attemptScratch, oc.Request.IterationID)

			telemetry.InjectionsAttempted.WithLabelValues(label).Inc()
			if oc.Err != nil {
				os.RemoveAll(scratch)
				continue
			}

			result := oc.Result
			// Retry-until-injected: an attempt that never landed a fault and
			// didn't crash/hang/exit abnormally doesn't consume a unit of
			// cfg.Iterations — the dispatch loop above replaces it.
			if !result.FaultInjected && result.Signal == 0 && result.ExitStatus == 0 && !result.ProcessHanged {
				os.RemoveAll(scratch)
				continue
			}

			classifiedIndex++
			iterDir := recorder.IterationDir(classifiedIndex)
			outputPath := r.captureOutput(scratch, iterDir)
			os.RemoveAll(scratch)

			diffPixels := 0
			var diffFiles []string
			clean := result.ExitStatus == 0 && result.Signal == 0 && !result.ProcessHanged
			if clean && goldenPath != "" && outputPath != "" {
				differs, pixels, files := compareOutputs(goldenPath, outputPath, filepath.Join(diffDir, fmt.Sprintf("diff_%d", classifiedIndex)))
				if differs {
					diffPixels = pixels
					if diffPixels == 0 {
						diffPixels = 1 // byte-level divergence in a non-image output
					}
					diffFiles = files
				}
			}

			class := Classify(result, diffPixels)
			kind := Kind(result)
			summary.Add(domain.IterationOutcome{
				Iteration:      classifiedIndex,
				Classification: class,
				Kind:           kind,
				DurationMS:     float64(result.InjectionTimeNS) / 1e6,
				DiffPixels:     diffPixels,
				DiffFiles:      diffFiles,
			})

			telemetry.IterationsTotal.WithLabelValues(label, string(class), string(kind)).Inc()
			if result.ProcessHanged {
				telemetry.TargetsKilled.WithLabelValues(label).Inc()
			}

			recorder.Write(domain.Record{
				Iteration:  classifiedIndex,
				Timestamp:  time.Now(),
				DurationMS: float64(result.InjectionTimeNS) / 1e6,
				Result:     result,
			})
		case <-ctx.Done():
			break outer
		}
	}

	sendWG.Wait()
	close(requests)
	for range outcomes {
		// drain any in-flight outcome left over from a canceled context
	}

	summary.Requested = cfg.Iterations
	summary.Completed = len(summary.Outcomes)

	csvReporter := reporting.NewCSVReporter()
	if err := csvReporter.Write(diffDir, summary); err != nil {
		return summary, fmt.Errorf("write csv: %w", err)
	}
	pdfBytes, err := reporting.NewPDFExporter().ExportSummary(summary)
	if err == nil {
		_ = os.WriteFile(filepath.Join(dir, "summary.pdf"), pdfBytes, 0o644)
	}

	if err := r.Audit.RecordCampaignEnd(ctx, campaignID, summary); err != nil {
		return summary, fmt.Errorf("audit end: %w", err)
	}

	return summary, nil
}

// captureOutput copies an attempt's scratch log into its final per-iteration
// directory, returning the persisted path (or "" if nothing was captured).
func (r *Runner) captureOutput(scratch, iterDir string) string {
	if scratch == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(scratch, "log.txt"))
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(iterDir, 0o755); err != nil {
		return ""
	}
	dst := filepath.Join(iterDir, "log.txt")
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return ""
	}
	return dst
}

// compareOutputs checks candidatePath against the golden baseline
// byte-for-byte; if they differ, it writes golden/injected copies plus (when
// both decode as PNG) a visual diff mask under diffDir, per the runner's
// on-disk diff tree.
func compareOutputs(goldenPath, candidatePath, diffDir string) (differs bool, pixels int, files []string) {
	golden, gerr := os.ReadFile(goldenPath)
	candidate, cerr := os.ReadFile(candidatePath)
	if gerr != nil || cerr != nil {
		return false, 0, nil
	}
	if bytes.Equal(golden, candidate) {
		return false, 0, nil
	}

	if err := os.MkdirAll(diffDir, 0o755); err != nil {
		return true, 0, nil
	}
	goldenDst := filepath.Join(diffDir, "golden")
	injectedDst := filepath.Join(diffDir, "injected")
	_ = os.WriteFile(goldenDst, golden, 0o644)
	_ = os.WriteFile(injectedDst, candidate, 0o644)
	files = []string{goldenDst, injectedDst}

	maskPath := filepath.Join(diffDir, "diff_mask")
	if n, err := reporting.WriteDiffMask(goldenPath, candidatePath, maskPath); err == nil {
		return true, n, append(files, maskPath)
	}
	return true, 0, files
}

func (r *Runner) buildRequest(iteration int, target domain.TargetConfig, variant domain.VariantConfig, policy domain.InjectionPolicy) domain.ExecutionRequest {
	return domain.ExecutionRequest{
		IterationID: iteration,
		Path:        target.Path,
		Args:        variant.Args,
		Env:         target.Env,
		Policy:      policy,
		Extra:       target.Extra,
	}
}

// runBaseline executes a handful of measurement-only runs under no_inj/,
// returning the post-warmup duration samples, how many completed without
// error, and the path of the golden (no_inj/injection_0) output file that
// injected runs are later diffed against.
func (r *Runner) runBaseline(ctx context.Context, cfg domain.CampaignConfig, target domain.TargetConfig, variant domain.VariantConfig, dir string) ([]float64, int, string) {
	const baselineRuns = 5 + baselineWarmup
	controller := engine.New(r.Control, r.Regs, r.Probe)
	noInjDir := filepath.Join(dir, "no_inj")

	var samples []float64
	ok := 0
	goldenPath := ""
	for i := 0; i < baselineRuns; i++ {
		iterDir := filepath.Join(noInjDir, fmt.Sprintf("injection_%d", i))
		logPath := ""
		if err := os.MkdirAll(iterDir, 0o755); err == nil {
			logPath = filepath.Join(iterDir, "log.txt")
		}
		if i == 0 {
			goldenPath = logPath
		}

		req := domain.ExecutionRequest{
			IterationID: i,
			Path:        target.Path,
			Args:        variant.Args,
			Env:         target.Env,
			LogPath:     logPath,
			Policy:      domain.InjectionPolicy{NoInjection: true},
		}
		start := time.Now()
		_, err := controller.RunIteration(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			continue
		}
		ok++
		if i < baselineWarmup {
			continue
		}
		samples = append(samples, float64(elapsed.Milliseconds()))
	}
	return samples, ok, goldenPath
}

func meanStdDev(samples []float64) (mean, stddev float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean = sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		variance += (s - mean) * (s - mean)
	}
	if len(samples) > 1 {
		variance /= float64(len(samples) - 1)
	}
	stddev = math.Sqrt(variance)
	return mean, stddev
}

// slug builds a filesystem-safe campaign folder name from the target and
// variant labels, per the original runner's campaign slugging.
func slug(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, "-"))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}

func digest(cfg domain.CampaignConfig, target domain.TargetConfig, variant domain.VariantConfig) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%v", target.Path, variant.Label, cfg.Defaults))).String()
}
