package headless

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/browsing"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

// Step outcomes recorded in StepResult.Status.
const (
	stepOK       = "ok"
	stepNoop     = "noop"
	stepRejected = "rejected"
	stepError    = "error"
	stepFailed   = "failed"
	stepTimeout  = "timeout"
)

// defaultWait bounds a wait step that sets no duration.
const defaultWait = 30 * time.Second

var errLoopStopped = errors.New("session loop stopped")

// Executor runs a scripted list of browsing steps against a Session.
//
// The Session is driven exclusively from the executor's loop; engines
// created by the session's factory must deliver callbacks through the same
// loop. Run consumes the session and closes it when done.
type Executor struct {
	session        *browsing.Session
	loop           *browsing.Loop
	config         *Config
	constraintMgr  *ConstraintManager
	artifactWriter *ArtifactWriter
	logger         *Logger

	// Execution state
	startTime time.Time
	summary   *ExecutionSummary
	subs      []*browsing.Subscription
}

// Option customizes an Executor.
type Option func(*Executor)

// WithConsoleLogger replaces the stdout logger.
func WithConsoleLogger(l *Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates a new headless executor for session. loop must not be
// running yet; Run drives it.
func NewExecutor(session *browsing.Session, loop *browsing.Loop, config *Config, opts ...Option) (*Executor, error) {
	if session == nil || loop == nil {
		return nil, fmt.Errorf("session and loop are required")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	constraintMgr, err := NewConstraintManager(config.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint manager: %w", err)
	}

	e := &Executor{
		session:        session,
		loop:           loop,
		config:         config,
		constraintMgr:  constraintMgr,
		artifactWriter: NewArtifactWriter(config.Artifacts.OutputDir),
		logger:         NewLogger(parseLogLevel(config.Logging.Verbosity)),
		summary: &ExecutionSummary{
			Name:   config.Name,
			Status: "running",
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Summary returns the execution summary. It is complete once Run returns.
func (e *Executor) Summary() *ExecutionSummary {
	return e.summary
}

// Run executes every step in order, then writes artifacts.
func (e *Executor) Run(ctx context.Context) error {
	e.startTime = time.Now()
	e.summary.StartTime = e.startTime

	name := e.config.Name
	if name == "" {
		name = fmt.Sprintf("%d steps", len(e.config.Steps))
	}
	e.logger.Header("surf headless: " + name)

	runCtx := ctx
	if e.config.Constraints.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.config.Constraints.Timeout)
		defer cancel()
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = e.loop.Run(context.Background())
	}()
	defer func() {
		e.loop.Stop()
		<-loopDone
	}()

	if !e.loop.Call(e.observe) {
		return e.fail(errLoopStopped)
	}

	e.logger.Section("Steps")
	for i, step := range e.config.Steps {
		if err := runCtx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return e.fail(fmt.Errorf("execution timeout exceeded"))
			}
			return e.fail(fmt.Errorf("execution canceled: %w", err))
		}

		e.logger.Step(step.String())
		result := e.runStep(runCtx, i, step)
		e.summary.Steps = append(e.summary.Steps, result)
		e.logger.StepResult(result)
	}

	return e.finalize()
}

// observe subscribes to session events. Runs on the loop.
func (e *Executor) observe() {
	e.subs = append(e.subs,
		e.session.OnNavigationFailed(func(f browsing.NavigationFailure) {
			rec := FailureRecord{
				TabID:       string(f.TabID),
				Error:       f.Message(),
				Provisional: f.Provisional,
				Time:        time.Now(),
			}
			if snap, err := e.session.Snapshot(f.TabID); err == nil {
				rec.URL = snap.URLString()
			}
			e.summary.Failures = append(e.summary.Failures, rec)
			e.logger.Failure(rec)
		}),
		e.session.OnInvalidInput(func(in browsing.InvalidInput) {
			e.logger.Warningf("invalid input %q: %v", in.Input, in.Err)
		}),
		e.session.OnTitles(func(tc browsing.TitleChange) {
			e.logger.Verbosef("tab %d title: %s", tc.Index+1, tc.Title)
		}),
	)
}

func (e *Executor) runStep(ctx context.Context, i int, step Step) StepResult {
	started := time.Now()
	result := StepResult{Index: i + 1, Action: step.Action, Target: step.Target, Status: stepOK}

	var (
		watch *idleWatch
		noop  bool
		err   error
	)
	if !e.loop.Call(func() { watch, noop, err = e.apply(step, &result) }) {
		err = errLoopStopped
	}

	switch {
	case err != nil:
		result.Status = stepError
		var violation *ConstraintViolation
		if errors.As(err, &violation) {
			result.Status = stepRejected
		}
		result.Error = err.Error()
	case noop:
		result.Status = stepNoop
	case watch != nil:
		wait := step.Wait
		if wait <= 0 {
			wait = defaultWait
		}
		idle := watch.wait(ctx, wait)
		var failed bool
		e.loop.Call(func() { failed = watch.stop() })
		switch {
		case failed:
			result.Status = stepFailed
		case !idle:
			result.Status = stepTimeout
		}
	}

	result.Duration = time.Since(started)
	return result
}

// apply performs step on the session. Runs on the loop.
func (e *Executor) apply(step Step, result *StepResult) (*idleWatch, bool, error) {
	waitFor := func(id browsing.TabID, requireLoading bool) (*idleWatch, bool, error) {
		result.TabID = string(id)
		if step.Wait <= 0 && step.Action != ActionWait {
			return nil, false, nil
		}
		w, err := e.watchIdle(id, requireLoading)
		return w, false, err
	}

	switch step.Action {
	case ActionOpen:
		target, err := e.resolve(step.Target)
		if err != nil {
			return nil, false, err
		}
		check := target
		if check == nil {
			check = e.session.StartPage()
		}
		if err := e.constraintMgr.ValidateNavigation(check); err != nil {
			return nil, false, err
		}
		if err := e.constraintMgr.ValidateOpenTab(e.session.Len()); err != nil {
			return nil, false, err
		}
		id, err := e.session.AddTab(target)
		if err != nil {
			return nil, false, err
		}
		return waitFor(id, true)

	case ActionLoad:
		id, err := e.tabFor(step)
		if err != nil {
			return nil, false, err
		}
		target, err := e.resolve(step.Target)
		if err != nil {
			return nil, false, err
		}
		if err := e.constraintMgr.ValidateNavigation(target); err != nil {
			return nil, false, err
		}
		if err := e.session.Route(id, browsing.LoadCommand(step.Target)); err != nil {
			return nil, false, err
		}
		return waitFor(id, true)

	case ActionBack, ActionForward, ActionReload, ActionToggleMode:
		id, err := e.tabFor(step)
		if err != nil {
			return nil, false, err
		}
		forwarded := false
		sub := e.session.OnCommand(func(ev browsing.CommandEvent) {
			if ev.TabID == id {
				forwarded = ev.Forwarded
			}
		})
		err = e.session.Route(id, commandFor(step.Action))
		sub.Unsubscribe()
		if err != nil {
			return nil, false, err
		}
		if !forwarded {
			result.TabID = string(id)
			return nil, true, nil
		}
		if step.Action == ActionToggleMode {
			if mode, err := e.session.ContentMode(id); err == nil {
				e.logger.Verbosef("content mode: %s", mode)
			}
		}
		return waitFor(id, true)

	case ActionSwitch:
		if err := e.session.SwitchTab(*step.Index); err != nil {
			return nil, false, err
		}
		result.TabID = string(e.session.ActiveTabID())
		return nil, false, nil

	case ActionClose:
		index, ok := e.session.ActiveIndex()
		if step.Index != nil {
			index, ok = *step.Index, true
		}
		if !ok {
			return nil, false, fmt.Errorf("no tab to close: %w", browsing.ErrTabNotFound)
		}
		if index >= 0 && index < e.session.Len() {
			result.TabID = string(e.session.TabIDs()[index])
		}
		return nil, false, e.session.CloseTab(index)

	case ActionWait:
		id, err := e.tabFor(step)
		if err != nil {
			return nil, false, err
		}
		return waitFor(id, false)
	}

	return nil, false, fmt.Errorf("unknown action %q", step.Action)
}

// tabFor returns the tab addressed by step.Index, or the active tab.
func (e *Executor) tabFor(step Step) (browsing.TabID, error) {
	if step.Index != nil {
		ids := e.session.TabIDs()
		if *step.Index >= len(ids) {
			return "", &browsing.IndexError{Index: *step.Index, Len: len(ids)}
		}
		return ids[*step.Index], nil
	}
	id := e.session.ActiveTabID()
	if id == "" {
		return "", fmt.Errorf("no active tab: %w", browsing.ErrTabNotFound)
	}
	return id, nil
}

func (e *Executor) resolve(target string) (*url.URL, error) {
	if target == "" {
		return nil, nil
	}
	return browsing.ResolveInput(target)
}

func commandFor(action Action) browsing.Command {
	switch action {
	case ActionBack:
		return browsing.GoBackCommand
	case ActionForward:
		return browsing.GoForwardCommand
	case ActionReload:
		return browsing.ReloadCommand
	default:
		return browsing.ToggleContentModeCommand
	}
}

// idleWatch waits for a tab to stop loading. Its fields are only touched on
// the loop except idle, which the runner waits on.
type idleWatch struct {
	idle       chan struct{}
	once       sync.Once
	subs       []*browsing.Subscription
	sawLoading bool
	failed     bool
}

// watchIdle must run on the loop. With requireLoading the watch only fires
// after the tab has been seen loading; otherwise an idle tab fires at once.
func (e *Executor) watchIdle(id browsing.TabID, requireLoading bool) (*idleWatch, error) {
	w := &idleWatch{idle: make(chan struct{}), sawLoading: !requireLoading}

	snapSub, err := e.session.SubscribeSnapshot(id, func(s browsing.Snapshot) {
		if s.IsLoading {
			w.sawLoading = true
			return
		}
		if w.sawLoading {
			w.fire()
		}
	})
	if err != nil {
		return nil, err
	}

	w.subs = append(w.subs,
		snapSub,
		e.session.OnNavigationFailed(func(f browsing.NavigationFailure) {
			if f.TabID == id {
				w.failed = true
				w.fire()
			}
		}),
		e.session.OnTabListChanged(func(c browsing.TabListChange) {
			if c.Kind == browsing.TabClosed && c.TabID == id {
				w.fire()
			}
		}),
	)
	return w, nil
}

func (w *idleWatch) fire() {
	w.once.Do(func() { close(w.idle) })
}

func (w *idleWatch) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.idle:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// stop unsubscribes and reports whether the navigation failed. Runs on the
// loop.
func (w *idleWatch) stop() bool {
	for _, sub := range w.subs {
		sub.Unsubscribe()
	}
	return w.failed
}

// finalize completes the execution and generates artifacts
func (e *Executor) finalize() error {
	if !e.loop.Call(e.collect) {
		return e.fail(errLoopStopped)
	}

	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.summary.StartTime)

	state := e.constraintMgr.GetCurrentState()
	metrics := ExecutionMetrics{
		StepsRun:           len(e.summary.Steps),
		TabsOpened:         state.TabsOpened,
		Navigations:        state.Navigations,
		NavigationFailures: len(e.summary.Failures),
		HistoryItems:       len(e.summary.History),
	}
	for _, step := range e.summary.Steps {
		switch step.Status {
		case stepRejected:
			metrics.StepsRejected++
		case stepError, stepFailed, stepTimeout:
			metrics.StepsFailed++
		}
	}
	e.summary.Metrics = metrics

	if metrics.StepsFailed > 0 || metrics.StepsRejected > 0 || metrics.NavigationFailures > 0 {
		e.summary.Status = statusPartialSuccess
	} else {
		e.summary.Status = statusSuccess
	}

	e.writeArtifacts()
	e.logger.Summary(e.summary.Status, e.summary)
	return nil
}

// collect snapshots tabs and history, then closes the session. Runs on the
// loop.
func (e *Executor) collect() {
	for _, sub := range e.subs {
		sub.Unsubscribe()
	}
	e.subs = nil

	active := e.session.ActiveTabID()
	for i, id := range e.session.TabIDs() {
		snap, err := e.session.Snapshot(id)
		if err != nil {
			continue
		}
		mode, _ := e.session.ContentMode(id)
		e.summary.Tabs = append(e.summary.Tabs, TabSummary{
			Index:       i,
			ID:          string(id),
			URL:         snap.URLString(),
			Title:       snap.Title,
			ContentMode: mode.String(),
			Loading:     snap.IsLoading,
			Active:      id == active,
		})
	}
	e.summary.History = e.session.History().Items()
	e.session.Close()
}

// fail marks the execution as failed and returns an error
func (e *Executor) fail(err error) error {
	e.loop.Call(e.collect)

	e.summary.Status = statusFailed
	e.summary.Error = err.Error()
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.startTime)
	e.summary.Metrics.StepsRun = len(e.summary.Steps)
	e.summary.Metrics.NavigationFailures = len(e.summary.Failures)

	// Try to generate artifacts even on failure
	e.writeArtifacts()
	e.logger.Summary(e.summary.Status, e.summary)
	return err
}

func (e *Executor) writeArtifacts() {
	if !e.config.Artifacts.Enabled {
		return
	}
	if err := e.artifactWriter.WriteAll(e.summary); err != nil {
		e.logger.Warningf("failed to write artifacts: %v", err)
		return
	}
	e.logger.Verbosef("artifacts written to %s", e.config.Artifacts.OutputDir)
}
