package daemon

import (
	"fmt"

	"github.com/tx7do/kratos-transport-aws/broker"
)

type ManagerOption func(*Manager)

// WithStopHook runs hook before every stop request.
func WithStopHook(hook func()) ManagerOption {
	return func(m *Manager) {
		m.stopHook = hook
	}
}

// Manager drives a Controller with a fixed work function and reports the
// outcome of every action as a status line.
type Manager struct {
	ctrl     *Controller
	work     WorkFunc
	stopHook func()
}

// NewManager uses a fresh Controller when ctrl is nil.
func NewManager(ctrl *Controller, work WorkFunc, opts ...ManagerOption) (*Manager, error) {
	if work == nil {
		return nil, broker.Errorf(broker.ErrConfiguration, nil, "work function is required")
	}
	if ctrl == nil {
		ctrl = NewController()
	}

	m := &Manager{
		ctrl: ctrl,
		work: work,
	}

	for _, o := range opts {
		o(m)
	}

	return m, nil
}

func (m *Manager) Controller() *Controller {
	return m.ctrl
}

func (m *Manager) Pid() int {
	return m.ctrl.Pid()
}

func (m *Manager) Start() (string, error) {
	if err := m.ctrl.Start(m.work); err != nil {
		return fmt.Sprintf("Listener failed to start PID:%d", m.ctrl.Pid()), err
	}

	pid := m.ctrl.Pid()
	if pid == 0 {
		return fmt.Sprintf("Listener failed to start PID:%d", pid), nil
	}
	return fmt.Sprintf("Listener started with PID:%d", pid), nil
}

func (m *Manager) Stop() (string, error) {
	if m.stopHook != nil {
		m.stopHook()
	}

	if err := m.ctrl.Stop(); err != nil || m.ctrl.Pid() != 0 {
		return "There was a problem stopping the listener", err
	}
	return "Listener successfully stopped", nil
}

// Restart starts the worker when nothing was started before.
func (m *Manager) Restart() (string, error) {
	if m.ctrl.Pid() == 0 {
		if err := m.ctrl.Start(m.work); err != nil {
			return "Listener failed to restart", err
		}
	} else if err := m.ctrl.Restart(); err != nil {
		return "Listener failed to restart", err
	}
	return fmt.Sprintf("Listener restarted. New PID:%d", m.ctrl.Pid()), nil
}
