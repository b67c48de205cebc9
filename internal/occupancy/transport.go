package occupancy

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/parkpilot/parkpilot-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// connectTimeout is the maximum time to wait for a connection attempt.
	connectTimeout = 10 * time.Second

	// opTimeout is the maximum time to wait for publish/subscribe
	// acknowledgment.
	opTimeout = 5 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on
	// disconnect, in milliseconds.
	disconnectQuiesce = 1000

	// keepAlive is the keepalive interval for the connection.
	keepAlive = 60 * time.Second

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the underlying client and
// should not block for extended periods. A returned error is logged but
// does not affect message acknowledgment.
type MessageHandler func(topic string, payload []byte) error

// Transport abstracts the broker client underneath a Channel.
//
// The transport performs no automatic reconnection: a lost connection is
// reported once through the lost handler and the transport stays down
// until Connect is called again. Reconnection policy belongs to the
// Channel's supervisor.
type Transport interface {
	// Connect establishes a session, restoring any prior subscriptions.
	Connect() error

	// Disconnect tears the session down gracefully.
	Disconnect()

	// Subscribe registers a handler for a topic. The subscription is
	// remembered and restored by subsequent Connect calls.
	Subscribe(topic string, handler MessageHandler) error

	// Publish sends a payload to a topic and waits for acknowledgment.
	Publish(topic string, payload []byte) error

	// IsConnected reports whether the session is currently live.
	IsConnected() bool

	// SetConnectionLostHandler registers the callback invoked when an
	// established session drops.
	SetConnectionLostHandler(handler func(error))
}

// PahoTransport implements Transport over paho.mqtt.golang.
//
// All methods are safe for concurrent use.
type PahoTransport struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// subscriptions are tracked for restoration across reconnects.
	subscriptions map[string]MessageHandler
	subMu         sync.RWMutex

	onLost func(error)
	lostMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewPahoTransport creates a broker transport from MQTT configuration.
// No connection is attempted until Connect.
func NewPahoTransport(cfg config.MQTTConfig) *PahoTransport {
	t := &PahoTransport{
		cfg:           cfg,
		subscriptions: make(map[string]MessageHandler),
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		t.restoreSubscriptions()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		t.lostMu.RLock()
		handler := t.onLost
		t.lostMu.RUnlock()
		if handler != nil {
			handler(err)
		}
	})

	t.client = pahomqtt.NewClient(opts)
	return t
}

// buildClientOptions creates paho options from parkpilot config.
//
// Auto-reconnect and connect-retry are deliberately off: the occupancy
// channel supervises reconnection itself so that status transitions and
// retry cadence stay under its control.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// SetLogger sets a logger for handler error and panic logging.
// If not set, handler errors are silently ignored.
func (t *PahoTransport) SetLogger(logger Logger) {
	t.loggerMu.Lock()
	t.logger = logger
	t.loggerMu.Unlock()
}

func (t *PahoTransport) getLogger() Logger {
	t.loggerMu.RLock()
	defer t.loggerMu.RUnlock()
	return t.logger
}

// Connect implements Transport.
func (t *PahoTransport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// Disconnect implements Transport.
func (t *PahoTransport) Disconnect() {
	t.client.Disconnect(disconnectQuiesce)
}

// IsConnected implements Transport.
func (t *PahoTransport) IsConnected() bool {
	return t.client.IsConnectionOpen()
}

// SetConnectionLostHandler implements Transport.
func (t *PahoTransport) SetConnectionLostHandler(handler func(error)) {
	t.lostMu.Lock()
	t.onLost = handler
	t.lostMu.Unlock()
}

// Subscribe implements Transport.
func (t *PahoTransport) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrSubscribeFailed)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}

	t.subMu.Lock()
	t.subscriptions[topic] = handler
	t.subMu.Unlock()

	token := t.client.Subscribe(topic, byte(t.cfg.QoS), t.wrapHandler(handler))
	if !token.WaitTimeout(opTimeout) {
		t.forgetSubscription(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, opTimeout)
	}
	if err := token.Error(); err != nil {
		t.forgetSubscription(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

func (t *PahoTransport) forgetSubscription(topic string) {
	t.subMu.Lock()
	delete(t.subscriptions, topic)
	t.subMu.Unlock()
}

// Publish implements Transport.
func (t *PahoTransport) Publish(topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrPublishFailed)
	}
	if !t.IsConnected() {
		return ErrNotConnected
	}

	token := t.client.Publish(topic, byte(t.cfg.QoS), false, payload)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, opTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// restoreSubscriptions re-subscribes to all tracked topics after a
// reconnect. Errors here are logged, not surfaced; the supervisor notices
// a dead session on its next probe.
func (t *PahoTransport) restoreSubscriptions() {
	t.subMu.RLock()
	defer t.subMu.RUnlock()

	for topic, handler := range t.subscriptions {
		token := t.client.Subscribe(topic, byte(t.cfg.QoS), t.wrapHandler(handler))
		if token.WaitTimeout(opTimeout) && token.Error() == nil {
			continue
		}
		if logger := t.getLogger(); logger != nil {
			logger.Warn("failed to restore subscription", "topic", topic, "error", token.Error())
		}
	}
}

// wrapHandler wraps a MessageHandler with panic recovery and optional
// logging.
func (t *PahoTransport) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := t.getLogger(); logger != nil {
					logger.Error("message handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := t.getLogger(); logger != nil {
				logger.Warn("message handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
