package testing

import (
	"errors"
	"sync"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/lib/backend/memory"
)

// ErrInjected is the default error returned for scripted failures
var ErrInjected = errors.New("injected failure")

// FakeDialer is a scriptable backend.IDialer. All handles it creates share one in-memory
// store and one failure script.
type FakeDialer struct {
	store *memory.Store

	mu sync.Mutex

	// failure script
	failDials int
	dialErr   error
	failSets  int
	setErr    error
	failGets  int
	getErr    error
	closeErr  error

	// recorded calls
	nodeDials    int
	clusterDials int
	lastAddrs    []string
	lastTimeout  time.Duration
	handles      []*FakeBackend
	gets         int
	sets         int
}

// NewFakeDialer creates a dialer that never fails until told to
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{store: memory.NewStore()}
}

// Store returns the shared in-memory store behind all handles
func (d *FakeDialer) Store() *memory.Store {
	return d.store
}

// FailDials makes the next n dial attempts fail with err (ErrInjected if nil)
func (d *FakeDialer) FailDials(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failDials, d.dialErr = n, orInjected(err)
}

// FailSets makes the next n Set calls on any handle fail with err (ErrInjected if nil)
func (d *FakeDialer) FailSets(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSets, d.setErr = n, orInjected(err)
}

// FailGets makes the next n Get calls on any handle fail with err (ErrInjected if nil)
func (d *FakeDialer) FailGets(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failGets, d.getErr = n, orInjected(err)
}

// FailClose makes every Close on a handle return err
func (d *FakeDialer) FailClose(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeErr = err
}

// NodeDials returns how many single node handles were dialed successfully
func (d *FakeDialer) NodeDials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodeDials
}

// ClusterDials returns how many cluster handles were dialed successfully
func (d *FakeDialer) ClusterDials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clusterDials
}

// LastAddrs returns the addresses of the last dial attempt
func (d *FakeDialer) LastAddrs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lastAddrs...)
}

// LastTimeout returns the timeout of the last dial attempt
func (d *FakeDialer) LastTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastTimeout
}

// Handles returns all handles created so far, oldest first
func (d *FakeDialer) Handles() []*FakeBackend {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeBackend(nil), d.handles...)
}

// Calls returns the number of Get and Set calls that reached any handle
func (d *FakeDialer) Calls() (gets, sets int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gets, d.sets
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IDialer)
// --------------------------------------------------------------------------

func (d *FakeDialer) DialNode(addr string, timeout time.Duration) (backend.IBackend, error) {
	return d.dial([]string{addr}, timeout, false)
}

func (d *FakeDialer) DialCluster(addrs []string, timeout time.Duration) (backend.IBackend, error) {
	return d.dial(addrs, timeout, true)
}

func (d *FakeDialer) GetName() string {
	return "fake"
}

func (d *FakeDialer) dial(addrs []string, timeout time.Duration, cluster bool) (backend.IBackend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastAddrs = append([]string(nil), addrs...)
	d.lastTimeout = timeout

	if d.failDials > 0 {
		d.failDials--
		return nil, d.dialErr
	}

	if cluster {
		d.clusterDials++
	} else {
		d.nodeDials++
	}

	h := &FakeBackend{
		dialer:  d,
		Addrs:   append([]string(nil), addrs...),
		Cluster: cluster,
	}
	d.handles = append(d.handles, h)
	return h, nil
}

// --------------------------------------------------------------------------
// Fake Backend
// --------------------------------------------------------------------------

// FakeBackend is a handle created by FakeDialer
type FakeBackend struct {
	dialer *FakeDialer

	// Addrs are the addresses the handle was dialed with
	Addrs []string
	// Cluster reports whether the handle was created by DialCluster
	Cluster bool

	closed bool
	closes int
}

// Closed reports whether Close was called at least once
func (b *FakeBackend) Closed() bool {
	b.dialer.mu.Lock()
	defer b.dialer.mu.Unlock()
	return b.closed
}

// Closes returns how often Close was called
func (b *FakeBackend) Closes() int {
	b.dialer.mu.Lock()
	defer b.dialer.mu.Unlock()
	return b.closes
}

func (b *FakeBackend) Get(key string) ([]byte, bool, error) {
	d := b.dialer
	d.mu.Lock()
	d.gets++
	if b.closed {
		d.mu.Unlock()
		return nil, false, backend.ErrClosed
	}
	if d.failGets > 0 {
		d.failGets--
		err := d.getErr
		d.mu.Unlock()
		return nil, false, err
	}
	d.mu.Unlock()
	return d.store.Get(key)
}

func (b *FakeBackend) Set(key string, value []byte) error {
	d := b.dialer
	d.mu.Lock()
	d.sets++
	if b.closed {
		d.mu.Unlock()
		return backend.ErrClosed
	}
	if d.failSets > 0 {
		d.failSets--
		err := d.setErr
		d.mu.Unlock()
		return err
	}
	d.mu.Unlock()
	return d.store.Set(key, value)
}

func (b *FakeBackend) Close() error {
	d := b.dialer
	d.mu.Lock()
	defer d.mu.Unlock()
	b.closed = true
	b.closes++
	return d.closeErr
}

func orInjected(err error) error {
	if err == nil {
		return ErrInjected
	}
	return err
}
