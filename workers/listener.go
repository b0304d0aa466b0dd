// workers/listener.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"creator-indexer/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/websocket"
)

// ListenerState is where the notification listener is in its one-way lifecycle.
type ListenerState int32

const (
	StateConnecting ListenerState = iota
	StateSubscribed
	StateDegradedPolling
)

func (s ListenerState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateDegradedPolling:
		return "degraded_polling"
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

const (
	graphQLTransportWS  = "graphql-transport-ws"
	handshakeTimeout    = 10 * time.Second
	defaultPollInterval = 10 * time.Second

	notificationsSubscription = `subscription Notifications($chainId: ChainId!) {
  notifications(chainId: $chainId)
}`
)

// wsMessage is one graphql-transport-ws protocol frame.
type wsMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NotificationListener turns node push notifications into sync triggers. On
// the first subscription error it falls back to interval polling for the rest
// of the process lifetime.
type NotificationListener struct {
	URL           string
	ChainID       string
	ApplicationID string
	PollInterval  time.Duration
	Target        Triggerer
	Dialer        *websocket.Dialer

	state atomic.Int32
}

func NewNotificationListener(url, chainID, applicationID string, pollInterval time.Duration, target Triggerer) *NotificationListener {
	return &NotificationListener{
		URL:           url,
		ChainID:       chainID,
		ApplicationID: applicationID,
		PollInterval:  pollInterval,
		Target:        target,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			Subprotocols:     []string{graphQLTransportWS},
		},
	}
}

// State returns the current lifecycle state.
func (l *NotificationListener) State() ListenerState {
	return ListenerState(l.state.Load())
}

func (l *NotificationListener) setState(s ListenerState) {
	l.state.Store(int32(s))
	utils.ListenerState.Set(float64(s))
}

// Run blocks until ctx is cancelled.
func (l *NotificationListener) Run(ctx context.Context) {
	l.setState(StateConnecting)
	log.Printf("[LISTENER] 🔌 Subscribing to notifications at %s (chain=%s)", l.URL, l.ChainID)

	err := l.subscribe(ctx)
	if ctx.Err() != nil {
		log.Println("[LISTENER] ⏹️ Notification listener stopped")
		return
	}
	log.Printf("[LISTENER] ⚠️ Subscription failed, degrading to polling every %s: %v", l.PollInterval, err)
	l.setState(StateDegradedPolling)
	l.poll(ctx)
}

// subscribe performs the handshake and forwards notifications until the
// subscription breaks. It always returns a non-nil error.
func (l *NotificationListener) subscribe(ctx context.Context) error {
	conn, _, err := l.Dialer.DialContext(ctx, l.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := l.handshake(conn); err != nil {
		return err
	}
	l.setState(StateSubscribed)
	log.Printf("[LISTENER] ✅ Subscribed to notifications for chain %s", l.ChainID)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case "next", "data":
			l.Target.Trigger()
		case "ping":
			if err := conn.WriteJSON(wsMessage{Type: "pong"}); err != nil {
				return fmt.Errorf("write pong: %w", err)
			}
		case "pong", "ka", "connection_ack":
		case "error":
			return fmt.Errorf("subscription error: %v", msg.Payload)
		case "complete":
			return errors.New("subscription completed by node")
		default:
			log.Printf("[LISTENER] Ignoring unexpected %q message", msg.Type)
		}
	}
}

func (l *NotificationListener) handshake(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	hello := wsMessage{
		Type: "connection_init",
		Payload: map[string]string{
			"chainId":       l.ChainID,
			"applicationId": l.ApplicationID,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("connection_init: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("awaiting connection_ack: %w", err)
		}
		if msg.Type == "connection_ack" {
			break
		}
		switch msg.Type {
		case "ka":
			continue
		case "ping":
			if err := conn.WriteJSON(wsMessage{Type: "pong"}); err != nil {
				return fmt.Errorf("write pong: %w", err)
			}
			continue
		}
		return fmt.Errorf("expected connection_ack, got %q", msg.Type)
	}

	sub := wsMessage{
		ID:   "notifications",
		Type: "subscribe",
		Payload: map[string]any{
			"query":     notificationsSubscription,
			"variables": map[string]string{"chainId": l.ChainID},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	return nil
}

// poll triggers a pass every PollInterval until ctx is cancelled.
func (l *NotificationListener) poll(ctx context.Context) {
	if l.PollInterval <= 0 {
		l.PollInterval = defaultPollInterval
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[LISTENER] ⚠️ Scheduler unavailable, using ticker: %v", err)
		l.pollWithTicker(ctx)
		return
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(l.PollInterval),
		gocron.NewTask(l.Target.Trigger),
	); err != nil {
		log.Printf("[LISTENER] ⚠️ Failed to schedule polling job, using ticker: %v", err)
		_ = sched.Shutdown()
		l.pollWithTicker(ctx)
		return
	}
	sched.Start()
	log.Printf("[LISTENER] ⏱️ Polling every %s", l.PollInterval)

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Printf("[LISTENER] ⚠️ Scheduler shutdown: %v", err)
	}
	log.Println("[LISTENER] ⏹️ Polling stopped")
}

func (l *NotificationListener) pollWithTicker(ctx context.Context) {
	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Target.Trigger()
		}
	}
}
