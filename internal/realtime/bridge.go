// Package realtime keeps a websocket open to the NepaliPay push endpoint for
// the lifetime of a user session and turns server events into notifications.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nepalipay/nepalipay-web3/internal/constants"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/nepalipay/nepalipay-web3/internal/notify"
	"go.uber.org/zap"
)

const (
	defaultReconnectDelay = 5 * time.Second
	handshakeTimeout      = 10 * time.Second
	writeTimeout          = 10 * time.Second
)

// ErrNotConnected is returned by SendMessage while the socket is down.
var ErrNotConnected = errors.New("real-time channel not connected")

// State is the socket lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Message is the envelope for both directions.
type Message struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	UserID *int64          `json:"userId,omitempty"`
}

// Handler receives dispatched messages of one type.
type Handler func(msg Message)

// StateObserver is called after each state transition.
type StateObserver func(State)

type toast struct {
	title       string
	description string
	variant     notify.Variant
}

// toasts lists the message types that raise a notification. price_update is
// dispatched to handlers only.
var toasts = map[string]toast{
	constants.MessageTransactionCompleted: {constants.TitlePaymentReceived, "Your transaction has been completed.", notify.VariantSuccess},
	constants.MessageTransactionFailed:    {constants.TitlePaymentFailed, "Your transaction could not be completed.", notify.VariantDestructive},
	constants.MessageLoanApproved:         {constants.TitleLoanApproved, "Your loan has been approved.", notify.VariantSuccess},
	constants.MessageLoanRejected:         {constants.TitleLoanRejected, "Your loan application was not approved.", notify.VariantDestructive},
	constants.MessageCollateralLocked:     {constants.TitleCollateralLocked, "Your collateral has been locked.", notify.VariantDefault},
}

func known(msgType string) bool {
	_, ok := toasts[msgType]
	return ok || msgType == constants.MessagePriceUpdate
}

// Config configures the bridge.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	// Header is sent with every handshake, typically the session cookie.
	Header http.Header
}

// URLFromBase derives the socket URL from the REST API base URL.
func URLFromBase(apiBase string) string {
	u := strings.TrimSuffix(apiBase, "/")
	switch {
	case strings.HasPrefix(u, "https"):
		u = "wss" + u[5:]
	case strings.HasPrefix(u, "http"):
		u = "ws" + u[4:]
	}
	return u + constants.RealtimePath
}

// Bridge is the session's push channel. Between Start and Stop it keeps
// reconnecting after a fixed delay; after Stop it stays closed.
type Bridge struct {
	cfg      Config
	dialer   *websocket.Dialer
	notifier notify.Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	active    bool
	gen       uint64
	userID    int64
	conn      *websocket.Conn
	reconnect *time.Timer
	handlers  map[string][]Handler
	observers []StateObserver

	writeMu sync.Mutex
}

// NewBridge creates a stopped bridge.
func NewBridge(cfg Config, notifier notify.Notifier) *Bridge {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Bridge{
		cfg:      cfg,
		dialer:   &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		notifier: notifier,
		logger:   logger.Named("realtime"),
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for a message type.
func (b *Bridge) On(msgType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[msgType] = append(b.handlers[msgType], h)
}

// OnStateChange registers a state observer.
func (b *Bridge) OnStateChange(fn StateObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start opens the channel for userID. Starting an already running bridge for
// the same user does nothing; a different user replaces the session.
func (b *Bridge) Start(userID int64) {
	b.mu.Lock()
	if b.active && b.userID == userID {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.Stop()

	b.mu.Lock()
	b.active = true
	b.userID = userID
	gen := b.gen
	b.mu.Unlock()

	b.logger.Info("Starting real-time channel", zap.Int64("user_id", userID), zap.String("url", b.cfg.URL))
	go b.connect(gen)
}

// Stop ends the session: the socket is closed, a pending reconnect is
// cancelled and no further attempts are made.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	b.gen++
	if b.reconnect != nil {
		b.reconnect.Stop()
		b.reconnect = nil
	}
	conn := b.conn
	b.conn = nil
	observers := b.setStateLocked(StateDisconnected)
	b.mu.Unlock()

	if conn != nil {
		b.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		b.writeMu.Unlock()
		_ = conn.Close()
	}
	b.notifyState(observers, StateDisconnected)
	b.logger.Info("Real-time channel stopped")
}

// SendMessage writes msg to the socket. There is no outbound queue: while
// not connected the user is told and ErrNotConnected is returned.
func (b *Bridge) SendMessage(msg Message) error {
	b.mu.Lock()
	conn := b.conn
	connected := b.state == StateConnected && conn != nil
	b.mu.Unlock()

	if !connected {
		b.notifier.Notify(notify.Failure(constants.TitleNotConnected, "Real-time updates are not connected. Please try again shortly."))
		return ErrNotConnected
	}
	if err := b.write(conn, msg); err != nil {
		return err
	}
	return nil
}

func (b *Bridge) connect(gen uint64) {
	b.mu.Lock()
	if !b.active || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.reconnect = nil
	userID := b.userID
	observers := b.setStateLocked(StateConnecting)
	b.mu.Unlock()
	b.notifyState(observers, StateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, b.cfg.Header)
	cancel()
	if err != nil {
		b.logger.Warn("Real-time dial failed", zap.String("url", b.cfg.URL), zap.Error(err))
		b.dropped(gen, nil)
		return
	}

	b.mu.Lock()
	if !b.active || gen != b.gen {
		b.mu.Unlock()
		_ = conn.Close()
		return
	}
	b.conn = conn
	observers = b.setStateLocked(StateConnected)
	b.mu.Unlock()
	b.notifyState(observers, StateConnected)
	b.logger.Info("Real-time channel connected", zap.Int64("user_id", userID))

	// Authentication is fire-and-forget.
	if err := b.write(conn, Message{Type: constants.MessageAuth, UserID: &userID}); err != nil {
		b.logger.Warn("Failed to send auth message", zap.Error(err))
	}

	go b.readLoop(gen, conn)
}

func (b *Bridge) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.logger.Debug("Real-time read ended", zap.Error(err))
			b.dropped(gen, conn)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug("Ignoring malformed message", zap.Error(err))
			continue
		}
		b.dispatch(msg)
	}
}

// dropped moves to Disconnected and schedules exactly one reconnect, unless
// the session has ended or moved on.
func (b *Bridge) dropped(gen uint64, conn *websocket.Conn) {
	b.mu.Lock()
	if conn != nil && b.conn == conn {
		b.conn = nil
	}
	if !b.active || gen != b.gen {
		b.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	observers := b.setStateLocked(StateDisconnected)
	b.reconnect = time.AfterFunc(b.cfg.ReconnectDelay, func() { b.connect(gen) })
	b.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	b.notifyState(observers, StateDisconnected)
	b.logger.Info("Real-time channel disconnected, reconnecting",
		zap.Duration("delay", b.cfg.ReconnectDelay))
}

func (b *Bridge) dispatch(msg Message) {
	if !known(msg.Type) {
		b.logger.Debug("Ignoring message", zap.String("type", msg.Type))
		return
	}

	if t, ok := toasts[msg.Type]; ok {
		b.notifier.Notify(notify.New(t.title, describe(msg, t.description), t.variant))
	}

	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[msg.Type]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

// describe prefers a server-supplied message in data.
func describe(msg Message, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return fallback
}

func (b *Bridge) write(conn *websocket.Conn, msg Message) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return errors.Join(ErrNotConnected, err)
	}
	return nil
}

func (b *Bridge) setStateLocked(next State) []StateObserver {
	if b.state == next {
		return nil
	}
	b.state = next
	return append([]StateObserver(nil), b.observers...)
}

func (b *Bridge) notifyState(observers []StateObserver, s State) {
	for _, fn := range observers {
		fn(s)
	}
}
