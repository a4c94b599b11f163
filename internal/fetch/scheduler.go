package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/CdubVentures/spec-harvester-sub006/internal/hostbudget"
)

// Source is one URL the scheduler may fetch, belonging to a host for
// pacing purposes (spec.md §4.3).
type Source struct {
	URL    string
	Host   string
}

// Result is what a fetch attempt yields on success.
type Result struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// FetchFunc performs a single fetch. It is the scheduler's only suspension
// point besides SleepFunc (spec.md §5).
type FetchFunc func(ctx context.Context, src Source) (Result, error)

// FetchWithModeFunc is FetchFunc parameterized by fetcher mode, used when
// fallback is wired.
type FetchWithModeFunc func(ctx context.Context, src Source, mode Mode) (Result, error)

// SleepFunc abstracts time.Sleep so tests can inject a fake clock.
type SleepFunc func(ctx context.Context, d time.Duration)

// RealSleep sleeps for real, respecting context cancellation.
func RealSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// PoolSnapshot is the pool-state payload carried on scheduler_tick events
// (spec.md §4.3 "Event emission").
type PoolSnapshot struct {
	InFlight    int64
	Concurrency int64
}

// Event is the shape carried on every EmitEvent callback invocation.
type Event struct {
	Type       string
	Source     Source
	Mode       Mode
	Outcome    hostbudget.Outcome
	Pool       PoolSnapshot
	WaitMs     int64
	Processed  int
	Skipped    int
	Failed     int
	FallbackAttempts int
	ElapsedMs  int64
}

const (
	EventSchedulerTick              = "scheduler_tick"
	EventSchedulerHostWait          = "scheduler_host_wait"
	EventSchedulerFallbackStarted   = "scheduler_fallback_started"
	EventSchedulerFallbackSucceeded = "scheduler_fallback_succeeded"
	EventSchedulerFallbackExhausted = "scheduler_fallback_exhausted"
	EventSchedulerDrainCompleted    = "scheduler_drain_completed"
)

// Callbacks are the scheduler's observation hooks (spec.md §4.3, §9
// "Exposing an explicit emitEvent callback means tests can observe pool
// state without racing real I/O").
type Callbacks struct {
	OnSkipped     func(src Source, reason string)
	OnFetchResult func(src Source, result Result, mode Mode)
	OnFetchError  func(src Source, err error, mode Mode)
	EmitEvent     func(Event)
}

func (c Callbacks) emit(e Event) {
	if c.EmitEvent != nil {
		c.EmitEvent(e)
	}
}

// DrainOptions configures one DrainQueue call.
type DrainOptions struct {
	Sources         []Source
	FetchFn         FetchFunc
	FetchWithMode   FetchWithModeFunc
	ClassifyOutcome func(Result, error) hostbudget.Outcome
	ShouldSkip      func(Source) (reason string, skip bool)
	ShouldStop      func() bool
	InitialMode     Mode
	MaxRetries      int
	Concurrency     int64
	PerHostDelayMs  int64
	Callbacks       Callbacks
	Sleep           SleepFunc
	NowMs           func() int64
}

// DrainResult summarizes one drain pass (spec.md §4.3 "Drain contract").
type DrainResult struct {
	Processed        int
	Skipped          int
	Failed           int
	FallbackAttempts int
	ElapsedMs        int64
}

// hostPacer tracks, per host, the timestamp at which the next fetch may
// start, so two sources sharing a host are started at least PerHostDelayMs
// apart (spec.md §5 "Ordering guarantees").
type hostPacer struct {
	mu             sync.Mutex
	nextAllowedMs  map[string]int64
	perHostDelayMs int64
}

func newHostPacer(perHostDelayMs int64) *hostPacer {
	return &hostPacer{nextAllowedMs: make(map[string]int64), perHostDelayMs: perHostDelayMs}
}

// wait blocks (via sleep) until host's pacing window has elapsed, and
// returns how long it waited in milliseconds. It reserves the start slot
// before sleeping, so a concurrent caller for the same host waits a further
// perHostDelayMs.
func (p *hostPacer) wait(ctx context.Context, host string, nowMs func() int64, sleep SleepFunc) int64 {
	p.mu.Lock()
	now := nowMs()
	next := p.nextAllowedMs[host]
	var waitMs int64
	if next > now {
		waitMs = next - now
	}
	p.nextAllowedMs[host] = now + waitMs + p.perHostDelayMs
	p.mu.Unlock()

	if waitMs > 0 {
		sleep(ctx, time.Duration(waitMs)*time.Millisecond)
	}
	return waitMs
}

// markCompleted records that a fetch to host just finished, so the next
// fetch to the same host may not start before perHostDelayMs later. A later
// slot already reserved by wait is kept.
func (p *hostPacer) markCompleted(host string, nowMs func() int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if next := nowMs() + p.perHostDelayMs; next > p.nextAllowedMs[host] {
		p.nextAllowedMs[host] = next
	}
}

// DrainQueue cooperatively drains opts.Sources at up to opts.Concurrency
// in-flight fetches, pacing same-host starts by opts.PerHostDelayMs and
// applying the Fallback Policy on every outcome when FetchWithMode is wired
// (spec.md §4.3).
func DrainQueue(ctx context.Context, opts DrainOptions) DrainResult {
	start := time.Now()
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.NowMs == nil {
		opts.NowMs = func() int64 { return time.Now().UnixMilli() }
	}
	if opts.Sleep == nil {
		opts.Sleep = RealSleep
	}
	if opts.ClassifyOutcome == nil {
		opts.ClassifyOutcome = func(r Result, err error) hostbudget.Outcome {
			if err != nil {
				return hostbudget.OutcomeFetchError
			}
			return hostbudget.Classify(hostbudget.FetchResult{Status: r.StatusCode})
		}
	}

	sem := semaphore.NewWeighted(opts.Concurrency)
	pacer := newHostPacer(opts.PerHostDelayMs)

	var (
		mu               sync.Mutex
		processed        int
		skipped          int
		failed           int
		fallbackAttempts int
		inFlight         int64
		wg               sync.WaitGroup
	)

	for _, src := range opts.Sources {
		if opts.ShouldStop != nil && opts.ShouldStop() {
			break
		}

		if opts.ShouldSkip != nil {
			if reason, skip := opts.ShouldSkip(src); skip {
				mu.Lock()
				skipped++
				mu.Unlock()
				if opts.Callbacks.OnSkipped != nil {
					opts.Callbacks.OnSkipped(src, reason)
				}
				continue
			}
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		mu.Lock()
		inFlight++
		snapshot := PoolSnapshot{InFlight: inFlight, Concurrency: opts.Concurrency}
		mu.Unlock()
		opts.Callbacks.emit(Event{Type: EventSchedulerTick, Source: src, Pool: snapshot})

		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			defer sem.Release(1)

			waitMs := pacer.wait(ctx, src.Host, opts.NowMs, opts.Sleep)
			if waitMs > 0 {
				opts.Callbacks.emit(Event{Type: EventSchedulerHostWait, Source: src, WaitMs: waitMs})
			}

			ok, attempted := runWithFallback(ctx, src, opts)

			mu.Lock()
			inFlight--
			if ok {
				processed++
			} else {
				failed++
			}
			fallbackAttempts += attempted
			mu.Unlock()

			pacer.markCompleted(src.Host, opts.NowMs)
		}(src)
	}

	wg.Wait()

	result := DrainResult{
		Processed:        processed,
		Skipped:          skipped,
		Failed:           failed,
		FallbackAttempts: fallbackAttempts,
		ElapsedMs:        time.Since(start).Milliseconds(),
	}
	opts.Callbacks.emit(Event{
		Type: EventSchedulerDrainCompleted, Processed: result.Processed, Skipped: result.Skipped,
		Failed: result.Failed, FallbackAttempts: result.FallbackAttempts, ElapsedMs: result.ElapsedMs,
	})
	return result
}

// runWithFallback performs one source's fetch, following the Fallback
// Policy across mode-ladder retries until the outcome resolves to "none"
// (success/no-op) or the ladder is exhausted.
func runWithFallback(ctx context.Context, src Source, opts DrainOptions) (ok bool, attempts int) {
	mode := opts.InitialMode
	var exhaustedModes []Mode
	retryCount := 0

	for {
		var (
			result Result
			err    error
		)
		if opts.FetchWithMode != nil {
			result, err = opts.FetchWithMode(ctx, src, mode)
		} else if opts.FetchFn != nil {
			result, err = opts.FetchFn(ctx, src)
		}

		if err != nil && opts.Callbacks.OnFetchError != nil {
			opts.Callbacks.OnFetchError(src, err, mode)
		} else if err == nil && opts.Callbacks.OnFetchResult != nil {
			opts.Callbacks.OnFetchResult(src, result, mode)
		}

		outcome := opts.ClassifyOutcome(result, err)
		decision := DecideFallback(outcome, mode, exhaustedModes, retryCount, opts.MaxRetries)

		switch decision.Action {
		case ActionNone:
			if attempts > 0 {
				opts.Callbacks.emit(Event{Type: EventSchedulerFallbackSucceeded, Source: src, Mode: mode, Outcome: outcome})
			}
			return true, attempts
		case ActionSkip:
			return true, attempts
		case ActionWaitAndRetrySame:
			retryCount++
			if retryCount > opts.MaxRetries {
				return false, attempts
			}
			opts.Sleep(ctx, time.Duration(retryCount)*time.Second)
			continue
		case ActionTryAlternateFetcher:
			attempts++
			if decision.Exhausted {
				opts.Callbacks.emit(Event{Type: EventSchedulerFallbackExhausted, Source: src, Mode: mode, Outcome: outcome})
				return false, attempts
			}
			opts.Callbacks.emit(Event{Type: EventSchedulerFallbackStarted, Source: src, Mode: decision.NextMode, Outcome: outcome})
			exhaustedModes = append(exhaustedModes, mode)
			mode = decision.NextMode
			retryCount++
			if opts.FetchWithMode == nil {
				// No fallback fetcher wired: treat as exhausted rather than loop forever.
				return false, attempts
			}
			continue
		default:
			return false, attempts
		}
	}
}
