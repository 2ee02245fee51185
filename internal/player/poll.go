package player

import (
	"context"
	"errors"
	"time"

	"github.com/haynafi/MusicPlayer/internal/spotify"
)

// DefaultPollInterval is how often the device poll checks playback state.
const DefaultPollInterval = 5 * time.Second

// StartDevicePoll launches the background liveness check: every interval it
// polls the provider's playback state, reconciles the predicted state with
// the confirmed one, and transfers playback to an available device if none
// is active. The poll stops when ctx is cancelled, when Logout is called, or
// when the session expires. Starting a second poll is a no-op.
func (m *Manager) StartDevicePoll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	m.mu.Lock()
	if m.pollCancel != nil {
		m.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel
	m.mu.Unlock()

	go m.pollLoop(pollCtx, interval)
}

// Polling reports whether the device poll is running.
func (m *Manager) Polling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollCancel != nil
}

// stopPoll cancels the device poll if one is running.
func (m *Manager) stopPoll() {
	m.mu.Lock()
	cancel := m.pollCancel
	m.pollCancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *Manager) pollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.poll(ctx) {
				return
			}
		}
	}
}

// poll runs one liveness check. Returns false when polling should stop.
func (m *Manager) poll(ctx context.Context) bool {
	state, err := m.client.PlaybackState(ctx)
	if err != nil {
		if errors.Is(err, spotify.ErrSessionExpired) || errors.Is(err, spotify.ErrNotAuthenticated) {
			m.logger.Info("device poll stopping, session ended")
			m.stopPoll()
			return false
		}
		m.logger.Warn("device poll failed", "err", err)
		return true
	}

	if state == nil {
		m.reconnect(ctx)
		return true
	}

	// A logout racing this tick cancels ctx first; don't resurrect state
	// it already cleared.
	m.mu.Lock()
	if ctx.Err() == nil {
		m.confirmed = state
		m.predicted = nil
	}
	m.mu.Unlock()
	return true
}

// reconnect transfers playback to the first available device when the
// provider reports none active.
func (m *Manager) reconnect(ctx context.Context) {
	devices, err := m.client.Devices(ctx)
	if err != nil || len(devices) == 0 {
		return
	}

	if err := m.client.TransferPlayback(ctx, devices[0].ID, false); err != nil {
		m.logger.Warn("playback transfer failed", "device", devices[0].Name, "err", err)
		return
	}
	m.logger.Debug("playback transferred", "device", devices[0].Name)
}
