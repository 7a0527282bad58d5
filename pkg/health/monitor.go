// Package health polls the control plane on a cron schedule and reports
// connectivity changes to the log channel.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/samber/mo"

	"github.com/edgestream/linkbot/pkg/controlplane"
	"github.com/edgestream/linkbot/pkg/logger"
	"github.com/edgestream/linkbot/pkg/notify"
)

const (
	MessageLost     = "Lost connection to the control plane"
	MessageRestored = "Connection to the control plane restored"

	checkTimeout = 30 * time.Second
)

type StatusChecker interface {
	Status(ctx context.Context) mo.Result[controlplane.Status]
}

type Notifier interface {
	Notify(ctx context.Context, text string, severity notify.Severity)
}

// Monitor runs one status probe per schedule tick. Only transitions are
// reported: the first failed probe and the first success after it.
type Monitor struct {
	checker  StatusChecker
	notifier Notifier
	schedule string

	mu       sync.Mutex
	down     bool
	running  bool
	stopChan chan struct{}
	done     chan struct{}
	now      func() time.Time
}

// NewMonitor creates a monitor for schedule. An empty schedule disables
// the periodic probe; Start then only runs the initial check.
func NewMonitor(checker StatusChecker, notifier Notifier, schedule string) *Monitor {
	return &Monitor{
		checker:  checker,
		notifier: notifier,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start runs the initial check and then probes in the background until
// Stop is called or ctx is done.
func (m *Monitor) Start(ctx context.Context) error {
	if m.schedule != "" && !gronx.New().IsValid(m.schedule) {
		return fmt.Errorf("invalid health check schedule %q", m.schedule)
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stopChan, m.done
	m.mu.Unlock()

	if status, err := m.Check(ctx); err == nil {
		logger.InfoCF("health", "Control plane reachable", map[string]any{
			"active_links":   status.ActiveCount,
			"total_links":    status.TotalCount,
			"check_interval": status.CheckInterval,
		})
	}

	if m.schedule == "" {
		logger.InfoC("health", "Periodic health check disabled")
		close(done)
		return nil
	}

	go m.runLoop(ctx, stop, done)

	logger.InfoCF("health", "Health monitor started", map[string]any{
		"schedule": m.schedule,
	})
	return nil
}

// Stop ends the background loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	done := m.done
	m.mu.Unlock()

	<-done
	logger.InfoC("health", "Health monitor stopped")
}

func (m *Monitor) runLoop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	for {
		next, err := gronx.NextTickAfter(m.schedule, m.now(), false)
		if err != nil {
			logger.ErrorCF("health", "Cannot compute next check", map[string]any{
				"schedule": m.schedule,
				"error":    err.Error(),
			})
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			_, _ = m.Check(ctx)
		}
	}
}

// Check probes the control plane once and reports a connectivity change
// if there is one.
func (m *Monitor) Check(ctx context.Context) (controlplane.Status, error) {
	probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status, err := m.checker.Status(probeCtx).Get()

	m.mu.Lock()
	wasDown := m.down
	m.down = err != nil
	m.mu.Unlock()

	if err != nil {
		logger.WarnCF("health", "Control plane unreachable", map[string]any{
			"error": err.Error(),
		})
		if !wasDown {
			m.notify(ctx, MessageLost, notify.Warning)
		}
		return status, err
	}

	if wasDown {
		logger.InfoC("health", "Control plane reachable again")
		m.notify(ctx, MessageRestored, notify.Success)
	}
	return status, nil
}

// Down reports the result of the latest probe.
func (m *Monitor) Down() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.down
}

func (m *Monitor) notify(ctx context.Context, text string, severity notify.Severity) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(ctx, text, severity)
}
