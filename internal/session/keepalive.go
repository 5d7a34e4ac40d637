package session

import (
	"context"
	"net/http"
	"time"
)

// KeepAlive probes the session once. It does not change the session state:
// a *SessionError means the identity service rejected the probe, and the
// caller decides whether that is fatal.
func (m *Manager) KeepAlive(ctx context.Context) error {
	token, err := m.Token()
	if err != nil {
		return err
	}
	return m.sessionCall(ctx, "keepAlive", m.cfg.KeepAliveURL, token)
}

// sessionCall posts an empty body to a token-authenticated identity endpoint
// and classifies the {status, error} response.
func (m *Manager) sessionCall(ctx context.Context, op, url, token string) error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("X-Application", m.cfg.AppKey)
	header.Set("X-Authentication", token)

	var body sessionResponse
	resp, err := m.http.Call(ctx, url, header, nil, &body)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &SessionError{Op: op, Reason: ReasonUnknown, StatusCode: resp.StatusCode}
	}
	if body.Status == StatusFail {
		reason := body.Error
		if reason == "" {
			reason = StatusFail
		}
		return &SessionError{Op: op, Reason: reason}
	}
	if body.Error != "" {
		return &SessionError{Op: op, Reason: body.Error}
	}
	return nil
}

// startKeepAlive launches the loop. Must be called with lifecycleMu held and
// no loop running.
func (m *Manager) startKeepAlive() {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	m.loops.Add(1)
	m.wg.Add(1)
	go m.keepAliveLoop(ctx)
}

// stopKeepAlive cancels the running loop, if any, and waits for it to exit.
// Must be called with lifecycleMu held and without m.mu.
func (m *Manager) stopKeepAlive() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	m.wg.Wait()
}

// keepAliveLoop probes immediately, then once per interval. Failures do not
// end the loop.
func (m *Manager) keepAliveLoop(ctx context.Context) {
	defer m.wg.Done()
	defer m.loops.Add(-1)

	m.logger.Info("keep alive loop started", "interval", m.cfg.KeepAliveInterval)

	ticker := time.NewTicker(m.cfg.KeepAliveInterval)
	defer ticker.Stop()

	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("keep alive loop stopped")
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe runs one keep-alive and reports it.
func (m *Manager) probe(ctx context.Context) {
	start := time.Now()
	err := m.KeepAlive(ctx)
	if ctx.Err() != nil {
		// Cancelled mid-flight by Logout/Close/Login; not a probe failure.
		return
	}

	if err != nil {
		m.logger.Warn("keep alive failed", "error", err)
	} else {
		m.logger.Info("keeping alive")
	}

	if m.probes == nil {
		return
	}
	result := ProbeResult{
		At:       start,
		Duration: time.Since(start),
		Err:      err,
	}
	select {
	case m.probes <- result:
	default:
		m.logger.Warn("probe handler is behind, dropping result", "error", err)
	}
}

// dispatchProbes delivers probe results to the handler in order. It runs
// outside the loop's WaitGroup, so a handler may call Login, Logout or Close
// on this manager. It exits when the manager is closed.
func (m *Manager) dispatchProbes() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case r := <-m.probes:
			m.handler.HandleProbe(r)
		}
	}
}
