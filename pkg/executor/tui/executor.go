// Package tui provides the interactive terminal front end for a browsing
// session: a tab strip, an address bar with back/forward and content mode
// controls, a load progress bar and a history overlay.
//
// The TUI codebase is split into multiple files:
// - executor.go: Executor, Dispatcher and program lifecycle
// - model.go: Core model structure and session wiring
// - update.go: Bubble Tea Update function and key handling
// - view.go: Bubble Tea View function and rendering
// - history.go: History overlay
// - overlay.go: Overlay state and render helpers
// - keys.go: Key bindings
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/logging"
)

// Settings controls presentation details of the TUI.
type Settings struct {
	ToastDuration  time.Duration
	ShowTabNumbers bool
	HistoryLimit   int
}

// DefaultSettings returns the settings used when no configuration exists.
func DefaultSettings() Settings {
	return Settings{
		ToastDuration:  4 * time.Second,
		ShowTabNumbers: true,
		HistoryLimit:   200,
	}
}

// SettingsFromConfig reads the UI section of the configuration.
func SettingsFromConfig(ui *config.UISection) Settings {
	s := DefaultSettings()
	if ui == nil {
		return s
	}
	if d := ui.GetToastDuration(); d > 0 {
		s.ToastDuration = d
	}
	s.ShowTabNumbers = ui.GetShowTabNumbers()
	if n := ui.GetHistoryLimit(); n > 0 {
		s.HistoryLimit = n
	}
	return s
}

// dispatchMsg carries a function that must run on the Bubble Tea update
// goroutine, which is the session's main context.
type dispatchMsg struct {
	fn func()
}

// Dispatcher delivers engine callbacks to the TUI's update goroutine. It
// implements browsing.Dispatcher and never blocks the caller: functions are
// queued on a pump loop that forwards them to the program. Functions
// dispatched before the program starts are held until it does.
type Dispatcher struct {
	pump *browsing.Loop

	mu   sync.Mutex
	send func(tea.Msg)
}

// NewDispatcher creates a Dispatcher with no program attached.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{pump: browsing.NewLoop()}
}

// Dispatch queues fn for the update goroutine.
func (d *Dispatcher) Dispatch(fn func()) {
	d.pump.Dispatch(func() { d.deliver(fn) })
}

func (d *Dispatcher) deliver(fn func()) {
	d.mu.Lock()
	send := d.send
	d.mu.Unlock()
	if send != nil {
		send(dispatchMsg{fn: fn})
	}
}

// attach sets the function used to hand messages to the program.
func (d *Dispatcher) attach(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

// run pumps queued functions until ctx is done or stop is called.
func (d *Dispatcher) run(ctx context.Context) error {
	return d.pump.Run(ctx)
}

func (d *Dispatcher) stop() {
	d.pump.Stop()
}

// Option configures an Executor.
type Option func(*Executor)

// WithSettings overrides the presentation settings.
func WithSettings(s Settings) Option {
	return func(e *Executor) { e.settings = s }
}

// WithLogger sets the executor logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(e *Executor) { e.copy = write }
}

// Executor runs a browsing session in the terminal.
type Executor struct {
	session    *browsing.Session
	dispatcher *Dispatcher
	program    *tea.Program
	settings   Settings
	logger     *logging.Logger
	copy       func(string) error
}

// NewExecutor creates a TUI executor for session. The dispatcher must be
// the one the session's engines were created with.
func NewExecutor(session *browsing.Session, dispatcher *Dispatcher, opts ...Option) (*Executor, error) {
	if session == nil {
		return nil, errors.New("tui: session is required")
	}
	if dispatcher == nil {
		return nil, errors.New("tui: dispatcher is required")
	}

	e := &Executor{
		session:    session,
		dispatcher: dispatcher,
		settings:   DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Discard("tui")
	}
	return e, nil
}

// Run starts the TUI and blocks until the user quits or the last tab is
// closed. The session is closed before Run returns.
func (e *Executor) Run(ctx context.Context) error {
	m := newModel(e.session, e.settings, e.logger)
	if e.copy != nil {
		m.copy = e.copy
	}

	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	e.dispatcher.attach(e.program.Send)

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := e.dispatcher.run(pumpCtx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warnf("dispatcher stopped: %v", err)
		}
	}()

	e.logger.Infof("TUI starting")
	_, err := e.program.Run()

	e.dispatcher.stop()
	m.release()
	e.session.Close()

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
