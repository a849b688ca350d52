package headless

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/security/hostguard"
)

// ConstraintManager enforces safety limits during headless execution
type ConstraintManager struct {
	config *ConstraintConfig
	guard  *hostguard.Guard

	// Runtime state tracking
	tabsOpened  int
	navigations int
	rejected    int
	startTime   time.Time

	mu sync.RWMutex
}

// ConstraintViolation represents a constraint violation error
type ConstraintViolation struct {
	Type    ViolationType
	Message string
	Details map[string]interface{}
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation (%s): %s", e.Type, e.Message)
}

// ViolationType identifies the type of constraint that was violated
type ViolationType string

const (
	ViolationHostPattern ViolationType = "host_pattern"
	ViolationTabCount    ViolationType = "tab_count"
	ViolationTimeout     ViolationType = "timeout"
)

// NewConstraintManager creates a new constraint manager
func NewConstraintManager(config ConstraintConfig) (*ConstraintManager, error) {
	guard, err := hostguard.New(config.AllowedHosts, config.DeniedHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create host guard: %w", err)
	}

	return &ConstraintManager{
		config:    &config,
		guard:     guard,
		startTime: time.Now(),
	}, nil
}

// ValidateNavigation checks a resolved navigation target against the host
// patterns.
func (cm *ConstraintManager) ValidateNavigation(u *url.URL) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.guard.Check(u); err != nil {
		cm.rejected++
		return &ConstraintViolation{
			Type:    ViolationHostPattern,
			Message: err.Error(),
			Details: map[string]interface{}{
				"url":           u.String(),
				"allowed_hosts": cm.config.AllowedHosts,
				"denied_hosts":  cm.config.DeniedHosts,
			},
		}
	}

	cm.navigations++
	return nil
}

// ValidateOpenTab checks the tab limit against the current tab count.
func (cm *ConstraintManager) ValidateOpenTab(open int) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.config.MaxTabs > 0 && open >= cm.config.MaxTabs {
		cm.rejected++
		return &ConstraintViolation{
			Type:    ViolationTabCount,
			Message: fmt.Sprintf("maximum tab count reached (%d)", cm.config.MaxTabs),
			Details: map[string]interface{}{
				"max_tabs":  cm.config.MaxTabs,
				"open_tabs": open,
			},
		}
	}

	cm.tabsOpened++
	return nil
}

// CheckTimeout checks if execution has exceeded the timeout
func (cm *ConstraintManager) CheckTimeout() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.config.Timeout <= 0 {
		return nil // No timeout configured
	}

	elapsed := time.Since(cm.startTime)
	if elapsed > cm.config.Timeout {
		return &ConstraintViolation{
			Type:    ViolationTimeout,
			Message: fmt.Sprintf("execution timeout exceeded (%v)", cm.config.Timeout),
			Details: map[string]interface{}{
				"timeout": cm.config.Timeout,
				"elapsed": elapsed,
			},
		}
	}

	return nil
}

// GetCurrentState returns the current constraint state
func (cm *ConstraintManager) GetCurrentState() *ConstraintState {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &ConstraintState{
		TabsOpened:  cm.tabsOpened,
		Navigations: cm.navigations,
		Rejected:    cm.rejected,
		Elapsed:     time.Since(cm.startTime),
	}
}

// ConstraintState represents the current state of constraint tracking
type ConstraintState struct {
	TabsOpened  int
	Navigations int
	Rejected    int
	Elapsed     time.Duration
}
