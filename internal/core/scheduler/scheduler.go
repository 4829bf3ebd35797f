package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/camwatch/camwatch-go/internal/core/capture"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

const (
	cycleRefreshTimeout = 30 * time.Second
	tokenRefreshTimeout = 30 * time.Second
	reinitTimeout       = 30 * time.Second

	// errorCooldown is the pause after an error escapes the poll-loop body.
	// The loop always resumes; transient failures never end the process.
	errorCooldown = 60 * time.Second
)

// CameraProcessor runs one acquisition pass for a camera. Satisfied by
// capture.Processor; narrowed to an interface so cycle tests can fail
// individual cameras.
type CameraProcessor interface {
	ProcessCamera(ctx context.Context, camera string) (capture.Result, error)
}

// Session is the credential lifecycle surface the scheduler drives.
type Session interface {
	RefreshSession(ctx context.Context) error
	Reinitialize(ctx context.Context) error
	SessionInfo() (maskedToken string, accountID int)
}

// Snoozer reports whether a camera is temporarily suppressed.
type Snoozer interface {
	IsSnoozed(camera string) bool
}

// CycleStats summarizes one pass over the configured cameras.
type CycleStats struct {
	Successful int
	Failed     int
	Skipped    int
	Duration   time.Duration
}

// Scheduler drives the polling loop: one cycle per aligned wall-clock
// interval, cameras processed strictly one at a time. Sequential processing
// is deliberate; it keeps the vendor API calm and makes per-camera failures
// trivially isolated.
type Scheduler struct {
	api     capture.CameraAPI
	proc    CameraProcessor
	session Session
	snoozer Snoozer
	log     *logger.Logger

	cameras  []string
	interval time.Duration

	// tokenChanged is set by the credentials watcher and drained at the top
	// of each cycle.
	tokenChanged <-chan struct{}
}

// New creates a scheduler over the configured camera allow-list. Cameras are
// processed in the given order every cycle.
func New(api capture.CameraAPI, proc CameraProcessor, session Session, snoozer Snoozer, log *logger.Logger, cameras []string, interval time.Duration, tokenChanged <-chan struct{}) *Scheduler {
	return &Scheduler{
		api:          api,
		proc:         proc,
		session:      session,
		snoozer:      snoozer,
		log:          log,
		cameras:      cameras,
		interval:     interval,
		tokenChanged: tokenChanged,
	}
}

// RunCycle executes one snapshot cycle: a forced global refresh, then every
// configured camera in order. A camera failure is logged and counted but
// never stops its siblings.
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	cycleStart := time.Now()

	s.log.Main("Refreshing all cameras...")
	refreshStart := time.Now()
	refreshCtx, cancel := context.WithTimeout(ctx, cycleRefreshTimeout)
	err := s.api.RefreshAll(refreshCtx, true)
	cancel()
	if err != nil {
		s.log.Perf(fmt.Sprintf("global_refresh | %.2fs | FAILED", time.Since(refreshStart).Seconds()))
		s.log.Mainf("WARNING: Camera refresh failed: %v", err)
	} else {
		s.log.Perf(fmt.Sprintf("global_refresh | %.2fs | SUCCESS", time.Since(refreshStart).Seconds()))
		s.log.Mainf("Refresh complete in %.2fs", time.Since(refreshStart).Seconds())
	}

	s.log.Main("============================================================")
	s.log.Main("STARTING SEQUENTIAL CAMERA PROCESSING")
	s.log.Main("============================================================")

	stats := CycleStats{}
	for _, camera := range s.cameras {
		if s.snoozer != nil && s.snoozer.IsSnoozed(camera) {
			s.log.Mainf("Skipping %s (snoozed)", camera)
			stats.Skipped++
			continue
		}
		if s.processOne(ctx, camera) {
			stats.Successful++
		} else {
			stats.Failed++
		}
	}

	stats.Duration = time.Since(cycleStart)
	s.log.Main("============================================================")
	s.log.Mainf("Snapshot cycle complete: %d processed, %d failed, %d snoozed",
		stats.Successful, stats.Failed, stats.Skipped)
	s.log.Mainf("Total cycle time: %.2fs (sequential)", stats.Duration.Seconds())
	s.log.Main("============================================================")
	s.log.Perf(fmt.Sprintf("snapshot_cycle | %.2fs | Success:%d Failed:%d",
		stats.Duration.Seconds(), stats.Successful, stats.Failed))

	return stats
}

// processOne isolates a single camera's processing, converting panics and
// errors into a counted failure.
func (s *Scheduler) processOne(ctx context.Context, camera string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Mainf("ERROR: Critical error processing %s: %v", camera, r)
			s.log.Camera(camera, fmt.Sprintf("CRITICAL ERROR: panic: %v", r))
			ok = false
		}
	}()

	result, err := s.proc.ProcessCamera(ctx, camera)
	if err != nil {
		s.log.Mainf("ERROR: Critical error processing %s: %v", camera, err)
		s.log.Camera(camera, fmt.Sprintf("CRITICAL ERROR: %v", err))
		return false
	}
	return result.Success
}

// AlignmentWait computes how long to sleep so the next cycle lands on a
// wall-clock boundary of the interval (every 5 minutes lands on :00, :05,
// :10, ...). Returns zero when already on a boundary.
func AlignmentWait(now time.Time, interval time.Duration) time.Duration {
	intervalMinutes := int(interval / time.Minute)
	if intervalMinutes <= 0 {
		return 0
	}

	minutesToWait := intervalMinutes - (now.Minute() % intervalMinutes)
	secondsToWait := minutesToWait*60 - now.Second()
	if secondsToWait <= 0 {
		return 0
	}
	return time.Duration(secondsToWait) * time.Second
}

// Run drives the outer polling loop until the context is cancelled. The
// loop body never exits on error: failures are logged, followed by a
// cooldown, and polling resumes.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Main("Taking initial startup snapshot...")
	s.RunCycle(ctx)

	if !s.waitAligned(ctx) {
		return
	}

	loopCount := 0
	for ctx.Err() == nil {
		loopCount++
		s.runLoopIteration(ctx, loopCount)
	}
}

// runLoopIteration is one guarded pass of the outer loop: token upkeep, one
// snapshot cycle, then the aligned wait.
func (s *Scheduler) runLoopIteration(ctx context.Context, loopCount int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Perf("poll_cycle | CRITICAL_ERROR")
			s.log.Mainf("ERROR: Critical error in polling loop: %v", r)
			s.log.Main(string(debug.Stack()))
			s.log.Mainf("Waiting %s before retry...", errorCooldown)
			sleepCtx(ctx, errorCooldown)
		}
	}()

	loopStart := time.Now()

	s.log.Main("############################################################")
	s.log.Mainf("POLLING CYCLE #%d - %s", loopCount, time.Now().Format("2006-01-02 15:04:05"))
	s.log.Main("############################################################")

	s.refreshToken(ctx)
	s.handleTokenChange(ctx)

	s.log.Main("Starting snapshot cycle...")
	s.RunCycle(ctx)

	s.log.Perf(fmt.Sprintf("poll_cycle | %.2fs | Cycle#%d", time.Since(loopStart).Seconds(), loopCount))
	s.log.Mainf("Poll cycle #%d completed in %.2fs", loopCount, time.Since(loopStart).Seconds())

	s.waitAligned(ctx)
}

// refreshToken keeps the vendor session alive. Failures are swallowed: the
// cycle continues with existing credentials.
func (s *Scheduler) refreshToken(ctx context.Context) {
	tokenStart := time.Now()
	tokenCtx, cancel := context.WithTimeout(ctx, tokenRefreshTimeout)
	err := s.session.RefreshSession(tokenCtx)
	cancel()

	if err != nil {
		s.log.Perf(fmt.Sprintf("token_refresh | %.2fs | FAILED", time.Since(tokenStart).Seconds()))
		s.log.Mainf("WARNING: Token refresh error: %v", err)
		return
	}
	s.log.Perf(fmt.Sprintf("token_refresh | %.2fs | SUCCESS", time.Since(tokenStart).Seconds()))
}

// handleTokenChange reacts to an externally rewritten credentials file by
// re-establishing the camera session. Only a masked token prefix is logged.
func (s *Scheduler) handleTokenChange(ctx context.Context) {
	if s.tokenChanged == nil {
		return
	}
	select {
	case <-s.tokenChanged:
	default:
		return
	}
	// Collapse bursts of watcher events into one re-init.
drain:
	for {
		select {
		case <-s.tokenChanged:
		default:
			break drain
		}
	}

	s.log.Token("Token refreshed externally")

	reinitStart := time.Now()
	reinitCtx, cancel := context.WithTimeout(ctx, reinitTimeout)
	err := s.session.Reinitialize(reinitCtx)
	cancel()

	if err != nil {
		s.log.Token(fmt.Sprintf("  ERROR re-initializing cameras: %v", err))
		s.log.Perf("camera_reinit | FAILED")
		return
	}

	masked, accountID := s.session.SessionInfo()
	s.log.Token(fmt.Sprintf("  New token (first 20 chars): %s", masked))
	s.log.Token(fmt.Sprintf("  Account ID: %d", accountID))
	s.log.Token(fmt.Sprintf("  Camera objects re-initialized successfully in %.2fs", time.Since(reinitStart).Seconds()))
	s.log.Perf(fmt.Sprintf("camera_reinit | %.2fs | SUCCESS", time.Since(reinitStart).Seconds()))
}

// waitAligned sleeps until the next interval boundary. Returns false when
// the context was cancelled during the wait.
func (s *Scheduler) waitAligned(ctx context.Context) bool {
	wait := AlignmentWait(time.Now(), s.interval)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	return sleepCtx(ctx, wait)
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
