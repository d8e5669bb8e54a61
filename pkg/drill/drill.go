// Package drill runs the scripted security drill: a fixed delay standing in
// for an attack simulation, followed by a canned threat record.
package drill

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
)

// Sink receives recorded threat events, e.g. an alert broker
type Sink interface {
	PublishThreat(event models.ThreatEvent) error
}

// Result is what a drill surfaces to the user
type Result struct {
	Notification string             `json:"notification"`
	Event        models.ThreatEvent `json:"event"`
}

// Simulator runs security drills against a session
type Simulator struct {
	sim    config.Simulation
	logger *logrus.Logger
	sink   Sink
	sleep  func(time.Duration)
	now    func() time.Time
}

// Option configures a Simulator
type Option func(*Simulator)

// WithSink forwards every recorded event to sink
func WithSink(sink Sink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithClock replaces the wall clock and the delay function
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Simulator) {
		s.now = now
		s.sleep = sleep
	}
}

// NewSimulator creates a drill simulator
func NewSimulator(sim config.Simulation, logger *logrus.Logger, opts ...Option) *Simulator {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Simulator{
		sim:    sim,
		logger: logger,
		sleep:  time.Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks for the drill delay, then prepends a threat event to the
// session's history. It only fails for an unauthenticated session, in which
// case nothing is recorded.
func (s *Simulator) Run(sess *session.Session) (Result, error) {
	if !sess.IsAuthenticated() {
		return Result{}, session.ErrNotAuthenticated
	}

	log := s.logger.WithFields(logrus.Fields{
		"session": sess.ID(),
		"target":  s.sim.DrillTarget,
	})
	log.Info("Simulating attack vector...")
	s.sleep(s.sim.DrillDelay)

	now := s.now()
	event := models.ThreatEvent{
		Time:      now.Format("15:04:05"),
		CreatedAt: now,
		Type:      s.sim.DrillThreatType,
		Target:    s.sim.DrillTarget,
		Status:    s.sim.DrillStatus,
		Vector:    s.vectorFor(sess),
	}

	if err := sess.RecordThreat(event); err != nil {
		return Result{}, err
	}
	log.WithField("threat", event.Type).Warn("Drill threat recorded")

	if s.sink != nil {
		if err := s.sink.PublishThreat(event); err != nil {
			log.Errorf("Failed to publish drill threat: %v", err)
		}
	}

	return Result{
		Notification: fmt.Sprintf(s.sim.DrillNotification, s.sim.DrillTarget),
		Event:        event,
	}, nil
}

// vectorFor describes the probe aimed at the drill target, or "" when the
// target is not in the registry or has no usable address
func (s *Simulator) vectorFor(sess *session.Session) string {
	target, ok := sess.FindDeviceByName(s.sim.DrillTarget)
	if !ok {
		return ""
	}

	packet, err := BuildProbe(s.sim.DrillProbeSource, target.IP, s.sim.DrillProbePort)
	if err != nil {
		s.logger.Debugf("No probe for %s: %v", target.Name, err)
		return ""
	}
	return DescribeProbe(packet)
}
