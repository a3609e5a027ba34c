// Package supervisor implements the Device Stream Supervisor (spec §4.5):
// one long-running worker per device that normalizes raw terminal events
// and feeds them to the reconciliation engine.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pfp-attendance/engine/internal/clock"
	"github.com/pfp-attendance/engine/internal/deviceclient"
	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/metrics"
	"github.com/pfp-attendance/engine/internal/reconcile"
)

// reconnectBackoff is the fixed delay between reconnect attempts on
// DeviceTransport errors (spec §7).
const reconnectBackoff = 3 * time.Second

// Supervisor owns the normalize -> engine.Process loop for one device.
type Supervisor struct {
	device   domain.Device
	terminal deviceclient.Terminal
	engine   *reconcile.Engine
	clock    clock.OffsetClock
	logger   *slog.Logger
}

// New builds a Supervisor for one device.
func New(device domain.Device, terminal deviceclient.Terminal, engine *reconcile.Engine, oc clock.OffsetClock, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		device:   device,
		terminal: terminal,
		engine:   engine,
		clock:    oc,
		logger:   logger.With("device_ip", device.IP, "device_name", device.Name),
	}
}

// Run loops forever until ctx is canceled: connect, stream, reconnect on
// failure with a fixed backoff (spec §4.5 steps 1-5, §4.7 cooperative
// shutdown).
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopping")
			return
		}

		if err := s.runOnce(ctx); err != nil {
			metrics.DeviceConnectsTotal.WithLabelValues(s.device.IP, "error").Inc()
			s.logger.Warn("device stream error, reconnecting", "error", err, "backoff", reconnectBackoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) error {
	if err := s.terminal.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer s.terminal.Close()

	metrics.DeviceConnectsTotal.WithLabelValues(s.device.IP, "ok").Inc()
	metrics.DevicesConnectedGauge.Inc()
	defer metrics.DevicesConnectedGauge.Dec()
	s.logger.Info("device connected")

	for ev := range s.terminal.Events(ctx) {
		p, ok := normalize(ev, s.device.IP, s.clock)
		if !ok {
			continue
		}

		start := time.Now()
		outcome, err := s.engine.Process(ctx, p)
		metrics.EngineProcessDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			s.logger.Warn("engine process failed, punch dropped", "employee_id", p.EmployeeID, "error", err)
			continue
		}
		s.logger.Debug("punch processed", "employee_id", p.EmployeeID, "outcome", outcome)
	}

	return s.terminal.Err()
}

// normalize implements spec §4.5 step 3: zero-pad the employee id (dropping
// blanks), classify the punch kind, and apply the configured TZ offset.
// Malformed punches (empty employee id) are skipped per spec §7.
func normalize(ev deviceclient.RawEvent, deviceIP string, oc clock.OffsetClock) (domain.Punch, bool) {
	empID := zeroPad(ev.EmployeeID, 5)
	if empID == "" {
		return domain.Punch{}, false
	}

	instant := ev.Instant
	if instant.IsZero() {
		instant = oc.Now()
	} else {
		instant = oc.Apply(instant)
	}

	kind := domain.PunchKindUnknown
	switch ev.Kind {
	case 0:
		kind = domain.PunchKindCheckIn
	case 1:
		kind = domain.PunchKindCheckOut
	}

	return domain.Punch{
		DeviceIP:   deviceIP,
		EmployeeID: empID,
		Timestamp:  instant,
		Kind:       kind,
	}, true
}

// zeroPad left-pads id with '0' to width, mirroring _normalize_user_id's
// zfill(5). A blank id is returned as "" so the caller can drop the event.
func zeroPad(id string, width int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	for len(id) < width {
		id = "0" + id
	}
	return id
}
