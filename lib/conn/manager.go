package conn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("conn")

// --------------------------------------------------------------------------
// State and Variant
// --------------------------------------------------------------------------

// State is the connection state of a Manager
type State uint8

const (
	StateDisconnected State = iota // no usable handle, the next call must connect first
	StateConnected                 // a live handle exists
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Variant is the kind of backend handle
type Variant uint8

const (
	VariantSingleNode Variant = iota
	VariantCluster
)

func (v Variant) String() string {
	switch v {
	case VariantSingleNode:
		return "single node"
	case VariantCluster:
		return "cluster"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrDisconnected is returned for backend calls issued without a live handle
	ErrDisconnected = errors.New("conn: not connected")
	// ErrShutdown is returned by every operation after Shutdown
	ErrShutdown = errors.New("conn: manager is shut down")
)

// ConnectionError reports that a backend handle could not be established
type ConnectionError struct {
	Variant Variant
	Addrs   []string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting %s (%s) failed: %v", e.Variant, strings.Join(e.Addrs, ","), e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Stats are counters about the lifecycle of a Manager
type Stats struct {
	Connects        uint64 // successful connects
	ConnectFailures uint64 // failed connects
	Invalidations   uint64 // calls to Invalidate that closed a live handle
}

// handle is the live backend session, never handed out to callers
type handle struct {
	variant Variant
	addrs   []string
	backend backend.IBackend
}

// Manager owns the lifecycle of one backend handle. Every backend call is routed through
// a live handle; after a failure the caller invalidates the handle and the next call
// connects again.
//
// Thread-safety: A Manager is NOT safe for concurrent use. It belongs to exactly one
// goroutine; concurrent callers each need their own Manager.
type Manager struct {
	config   Config
	dialer   backend.IDialer
	state    State
	handle   *handle
	shutdown bool
	stats    Stats
}

// NewManager creates a disconnected manager. No connection is made until Connect or
// EnsureConnected is called.
func NewManager(config Config, dialer backend.IDialer) *Manager {
	return &Manager{
		config: config,
		dialer: dialer,
		state:  StateDisconnected,
	}
}

// Connect establishes a new handle. A cluster handle is created if more than one host is
// configured or cluster mode is enabled, otherwise a single node handle is created. An
// existing handle is closed first. Failures are returned as *ConnectionError and never
// retried here.
func (m *Manager) Connect() error {
	if m.shutdown {
		return ErrShutdown
	}
	if err := m.config.Validate(); err != nil {
		return &ConnectionError{Variant: m.config.variant(), Addrs: m.config.Addresses(), Err: err}
	}

	// never keep two handles
	if m.handle != nil {
		m.closeHandle()
	}

	var (
		h   = &handle{variant: m.config.variant()}
		err error
	)

	if h.variant == VariantCluster {
		h.addrs = dedupAddresses(m.config.Addresses())
		h.backend, err = m.dialer.DialCluster(h.addrs, m.config.ConnectTimeout)
	} else {
		h.addrs = m.config.Addresses()[:1]
		h.backend, err = m.dialer.DialNode(h.addrs[0], m.config.ConnectTimeout)
	}

	if err == nil && h.backend == nil {
		err = fmt.Errorf("dialer %s returned no backend", m.dialer.GetName())
	}
	if err != nil {
		m.stats.ConnectFailures++
		Logger.Warningf("connecting %s %v via %s failed: %v", h.variant, h.addrs, m.dialer.GetName(), err)
		return &ConnectionError{Variant: h.variant, Addrs: h.addrs, Err: err}
	}

	m.handle = h
	m.state = StateConnected
	m.stats.Connects++
	Logger.Debugf("connected %s %v via %s", h.variant, h.addrs, m.dialer.GetName())
	return nil
}

// EnsureConnected connects if the manager is disconnected (initially or after Invalidate)
// and does nothing otherwise.
func (m *Manager) EnsureConnected() error {
	if m.shutdown {
		return ErrShutdown
	}
	if m.state == StateConnected {
		return nil
	}
	return m.Connect()
}

// Invalidate closes the current handle and marks the manager disconnected. Close errors are
// logged, not returned. Calling it without a handle is a no-op.
func (m *Manager) Invalidate() {
	if m.handle == nil {
		m.state = StateDisconnected
		return
	}
	m.closeHandle()
	m.stats.Invalidations++
}

// Shutdown releases the handle for good. The manager must not be used afterwards, all
// further operations return ErrShutdown.
func (m *Manager) Shutdown() {
	if m.handle != nil {
		m.closeHandle()
	}
	m.state = StateDisconnected
	m.shutdown = true
}

// closeHandle drops the handle before closing it so a panicking Close can not leave a
// closed handle marked as usable
func (m *Manager) closeHandle() {
	h := m.handle
	m.handle = nil
	m.state = StateDisconnected

	if err := h.backend.Close(); err != nil {
		Logger.Warningf("closing %s %v failed: %v", h.variant, h.addrs, err)
	}
}

// --------------------------------------------------------------------------
// Backend calls
// --------------------------------------------------------------------------

// Get issues a GET on the live handle. It returns ErrDisconnected if there is none,
// callers must call EnsureConnected first.
func (m *Manager) Get(key string) ([]byte, bool, error) {
	if err := m.checkUsable(); err != nil {
		return nil, false, err
	}
	return m.handle.backend.Get(key)
}

// Set issues a SET on the live handle. It returns ErrDisconnected if there is none,
// callers must call EnsureConnected first.
func (m *Manager) Set(key string, value []byte) error {
	if err := m.checkUsable(); err != nil {
		return err
	}
	return m.handle.backend.Set(key, value)
}

func (m *Manager) checkUsable() error {
	if m.shutdown {
		return ErrShutdown
	}
	if m.state != StateConnected || m.handle == nil {
		return ErrDisconnected
	}
	return nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Config returns the configuration the manager was created with
func (m *Manager) Config() Config {
	return m.config
}

// State returns the current connection state
func (m *Manager) State() State {
	return m.state
}

// Variant returns the variant of the handle the manager creates
func (m *Manager) Variant() Variant {
	return m.config.variant()
}

// Stats returns a copy of the lifecycle counters
func (m *Manager) Stats() Stats {
	return m.stats
}
