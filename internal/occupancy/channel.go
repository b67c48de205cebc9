package occupancy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Status is the connection state of a Channel.
type Status string

// Channel connection states. Status() reports one of the first four;
// StatusError is a notification-only value delivered to OnStatus
// subscribers when a connect attempt against a reachable broker fails.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusError        Status = "error"
)

// floorSubscriber pairs a floor filter with its callback.
type floorSubscriber struct {
	floor int
	fn    func([]parking.OccupancyEvent)
}

// Channel is the live occupancy event channel for one location.
//
// All methods are safe for concurrent use. Event slices passed to
// subscriber callbacks are shared between subscribers and must be treated
// as read-only.
type Channel struct {
	transport  Transport
	prober     Prober
	logger     Logger
	locationID string

	// retryInterval is the supervisor's reconnect cadence.
	retryInterval time.Duration

	topics Topics
	now    func() time.Time

	mu     sync.Mutex
	status Status

	// wantConnected is set by Connect and cleared by Disconnect. While
	// set, the supervisor keeps redialling whenever there is no session.
	wantConnected bool

	updateSubs map[string]func([]parking.OccupancyEvent)
	floorSubs  map[string]floorSubscriber
	statusSubs map[string]func(Status)

	// lastSeen dedupes repeated sensor readings: an event whose occupied
	// flag matches the last one seen for that sensor is dropped before
	// fan-out.
	lastSeen map[int]bool

	supervisorCancel context.CancelFunc
	supervisorDone   chan struct{}
}

// NewChannel creates an occupancy channel for one location. No connection
// is attempted until Connect.
func NewChannel(transport Transport, prober Prober, locationID string, retryInterval time.Duration) *Channel {
	c := &Channel{
		transport:     transport,
		prober:        prober,
		logger:        noopLogger{},
		locationID:    locationID,
		retryInterval: retryInterval,
		now:           time.Now,
		status:        StatusDisconnected,
		updateSubs:    make(map[string]func([]parking.OccupancyEvent)),
		floorSubs:     make(map[string]floorSubscriber),
		statusSubs:    make(map[string]func(Status)),
		lastSeen:      make(map[int]bool),
	}
	transport.SetConnectionLostHandler(c.handleConnectionLost)
	return c
}

// SetLogger sets the logger for the channel.
func (c *Channel) SetLogger(logger Logger) {
	c.logger = logger
}

// Status returns the current connection state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsConnected reports whether the channel currently has a live session.
func (c *Channel) IsConnected() bool {
	return c.Status() == StatusConnected
}

// Connect establishes the broker session and subscribes to the location's
// event topic. It also starts the supervisor, which keeps redialling
// until Disconnect whenever there is no live session.
//
// When the broker is unreachable, Connect returns nil without a session,
// because an absent broker is an expected condition, not a fault; the
// supervisor establishes the session once the broker becomes reachable.
// Calling Connect while already connected or connecting is a no-op. Only
// a failure against a reachable broker returns an error, and the
// supervisor keeps retrying after it.
func (c *Channel) Connect(ctx context.Context) error {
	if !c.transitionFrom(StatusDisconnected, StatusConnecting) {
		return nil
	}

	c.mu.Lock()
	c.wantConnected = true
	c.mu.Unlock()
	c.startSupervisor()

	if err := c.prober.Probe(ctx); err != nil {
		c.logger.Info("broker unreachable, deferring connect to supervisor",
			"location_id", c.locationID, "error", err)
		c.setState(StatusDisconnected)
		return nil
	}

	if err := c.establish(); err != nil {
		c.setState(StatusDisconnected)
		c.notifyStatus(StatusError)
		return err
	}

	c.setState(StatusConnected)
	c.notifyStatus(StatusConnected)
	c.logger.Info("occupancy channel connected", "location_id", c.locationID)
	return nil
}

// establish connects the transport and subscribes to the event topic.
// A failed subscription tears the fresh session back down.
func (c *Channel) establish() error {
	if err := c.transport.Connect(); err != nil {
		return err
	}
	if err := c.transport.Subscribe(c.topics.OccupancyEvents(c.locationID), c.handleMessage); err != nil {
		c.transport.Disconnect()
		return err
	}
	return nil
}

// OnUpdate registers a callback for every deduplicated event batch.
// The returned function removes the subscription.
func (c *Channel) OnUpdate(fn func([]parking.OccupancyEvent)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.updateSubs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.updateSubs, id)
		c.mu.Unlock()
	}
}

// OnFloorUpdate registers a callback that receives only the events
// belonging to one floor. An event's floor is its explicit floor field
// when present, otherwise derived from the sensor numbering block.
// The returned function removes the subscription.
func (c *Channel) OnFloorUpdate(floor int, fn func([]parking.OccupancyEvent)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.floorSubs[id] = floorSubscriber{floor: floor, fn: fn}
	return func() {
		c.mu.Lock()
		delete(c.floorSubs, id)
		c.mu.Unlock()
	}
}

// OnStatus registers a callback for session lifecycle notifications.
// Callbacks receive StatusConnected when a session is established,
// StatusDisconnected when one ends (lost connection or Disconnect), and
// StatusError when a connect attempt against a reachable broker fails.
// The returned function removes the subscription.
func (c *Channel) OnStatus(fn func(Status)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.statusSubs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.statusSubs, id)
		c.mu.Unlock()
	}
}

// ForceUpdate requests a full occupancy snapshot from the backend. The
// snapshot arrives asynchronously on the event topic.
//
// This is the only channel operation that surfaces transport errors:
// a caller asking for a resync needs to know when the request could not
// be delivered.
func (c *Channel) ForceUpdate(ctx context.Context) error {
	if c.Status() != StatusConnected {
		return fmt.Errorf("%w: %w", ErrForceUpdate, ErrNotConnected)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrForceUpdate, err)
	}

	payload := encodeRefreshRequest(c.locationID, c.now())
	if err := c.transport.Publish(c.topics.RefreshRequest(c.locationID), payload); err != nil {
		return fmt.Errorf("%w: %w", ErrForceUpdate, err)
	}
	return nil
}

// Disconnect tears the channel down: the supervisor stops, the session
// closes and every subscription is removed. The teardown holds until
// Connect is called again; the same channel then re-establishes the
// session and accepts new subscriptions.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	wasDown := c.status == StatusDisconnected
	c.status = StatusDisconnected
	c.wantConnected = false
	cancel := c.supervisorCancel
	done := c.supervisorDone
	c.supervisorCancel = nil
	c.supervisorDone = nil

	statusSubs := make([]func(Status), 0, len(c.statusSubs))
	for _, fn := range c.statusSubs {
		statusSubs = append(statusSubs, fn)
	}
	c.updateSubs = make(map[string]func([]parking.OccupancyEvent))
	c.floorSubs = make(map[string]floorSubscriber)
	c.statusSubs = make(map[string]func(Status))
	c.lastSeen = make(map[int]bool)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.transport.Disconnect()

	if !wasDown {
		for _, fn := range statusSubs {
			fn(StatusDisconnected)
		}
		c.logger.Info("occupancy channel disconnected", "location_id", c.locationID)
	}
}

// handleMessage decodes, dedupes and fans out one event payload.
// Decode errors propagate to the transport wrapper, which logs them;
// subscribers never see malformed events.
func (c *Channel) handleMessage(_ string, payload []byte) error {
	events, err := decodeEvents(payload, c.now())
	if err != nil {
		return err
	}

	fresh := c.dedupe(events)
	if len(fresh) == 0 {
		return nil
	}
	c.fanOut(fresh)
	return nil
}

// dedupe drops events that repeat a sensor's last seen occupied flag and
// records the rest.
func (c *Channel) dedupe(events []parking.OccupancyEvent) []parking.OccupancyEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := make([]parking.OccupancyEvent, 0, len(events))
	for _, event := range events {
		if last, seen := c.lastSeen[event.SensorID]; seen && last == event.Occupied {
			continue
		}
		c.lastSeen[event.SensorID] = event.Occupied
		fresh = append(fresh, event)
	}
	return fresh
}

// fanOut delivers an event batch to all subscribers. Callbacks run outside
// the channel lock so they may safely call back into the channel.
func (c *Channel) fanOut(events []parking.OccupancyEvent) {
	c.mu.Lock()
	updates := make([]func([]parking.OccupancyEvent), 0, len(c.updateSubs))
	for _, fn := range c.updateSubs {
		updates = append(updates, fn)
	}
	floors := make([]floorSubscriber, 0, len(c.floorSubs))
	for _, sub := range c.floorSubs {
		floors = append(floors, sub)
	}
	c.mu.Unlock()

	for _, fn := range updates {
		fn(events)
	}
	for _, sub := range floors {
		var filtered []parking.OccupancyEvent
		for _, event := range events {
			if eventFloor(event) == sub.floor {
				filtered = append(filtered, event)
			}
		}
		if len(filtered) > 0 {
			sub.fn(filtered)
		}
	}
}

// handleConnectionLost marks the channel as reconnecting; the supervisor
// takes over from there. Subscribers see the session end as a
// disconnected notification.
func (c *Channel) handleConnectionLost(err error) {
	if !c.transitionFrom(StatusConnected, StatusReconnecting) {
		return
	}
	c.logger.Warn("broker connection lost", "location_id", c.locationID, "error", err)
	c.notifyStatus(StatusDisconnected)
}

// startSupervisor launches the redial loop. It runs until Disconnect;
// a later Connect launches a fresh one.
func (c *Channel) startSupervisor() {
	c.mu.Lock()
	if c.supervisorCancel != nil || !c.wantConnected {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.supervisorCancel = cancel
	c.supervisorDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.supervise(ctx)
	}()
}

// supervise redials the broker on a fixed interval while a session is
// wanted but absent: after a lost connection, and after a Connect that
// found the broker unreachable. Attempts against an unreachable broker
// are skipped via the prober.
func (c *Channel) supervise(ctx context.Context) {
	ticker := time.NewTicker(c.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.shouldRedial() {
				continue
			}
			if err := c.prober.Probe(ctx); err != nil {
				c.logger.Debug("broker still unreachable", "error", err)
				continue
			}
			if err := c.establish(); err != nil {
				c.logger.Warn("reconnect attempt failed", "error", err)
				c.notifyStatus(StatusError)
				continue
			}
			c.setState(StatusConnected)
			c.notifyStatus(StatusConnected)
			c.logger.Info("connected to broker", "location_id", c.locationID)
		}
	}
}

// shouldRedial reports whether the supervisor ought to attempt a connect
// on this tick.
func (c *Channel) shouldRedial() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wantConnected &&
		(c.status == StatusDisconnected || c.status == StatusReconnecting)
}

// setState moves the state machine without notifying subscribers;
// lifecycle notifications are sent separately via notifyStatus.
func (c *Channel) setState(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// transitionFrom moves to a new state only when currently in the given
// one, reporting whether the transition happened.
func (c *Channel) transitionFrom(from, to Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != from {
		return false
	}
	c.status = to
	return true
}

// notifyStatus delivers a lifecycle notification to status subscribers.
// Callbacks run outside the channel lock so they may safely call back
// into the channel.
func (c *Channel) notifyStatus(status Status) {
	c.mu.Lock()
	subs := make([]func(Status), 0, len(c.statusSubs))
	for _, fn := range c.statusSubs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(status)
	}
}
