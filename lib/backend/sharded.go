package backend

import (
	"errors"
	"fmt"
)

// Sharded is an IBackend that spreads keys over several node backends.
// Each key is owned by exactly one node, chosen by a consistent hash Ring.
//
// Thread-safety: Sharded adds no locking of its own. It is as safe for concurrent use
// as the node backends it wraps.
type Sharded struct {
	ring  *Ring
	nodes map[string]IBackend
}

// NewSharded creates a sharded backend from a map of address -> node backend.
// If virtualNodes is <= 0, DefaultVirtualNodes is used.
func NewSharded(nodes map[string]IBackend, virtualNodes int) (*Sharded, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("sharded backend needs at least one node")
	}

	addrs := make([]string, 0, len(nodes))
	for addr, node := range nodes {
		if node == nil {
			return nil, fmt.Errorf("node %s is nil", addr)
		}
		addrs = append(addrs, addr)
	}

	return &Sharded{
		ring:  NewRing(addrs, virtualNodes),
		nodes: nodes,
	}, nil
}

// NodeFor returns the address of the node that owns the key.
func (s *Sharded) NodeFor(key string) string {
	return s.ring.Node(key)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IBackend)
// --------------------------------------------------------------------------

func (s *Sharded) Get(key string) ([]byte, bool, error) {
	addr := s.ring.Node(key)
	value, loaded, err := s.nodes[addr].Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("get from %s: %w", addr, err)
	}
	return value, loaded, nil
}

func (s *Sharded) Set(key string, value []byte) error {
	addr := s.ring.Node(key)
	if err := s.nodes[addr].Set(key, value); err != nil {
		return fmt.Errorf("set on %s: %w", addr, err)
	}
	return nil
}

// Close closes every node, it does not stop at the first error.
func (s *Sharded) Close() error {
	var errs []error
	for addr, node := range s.nodes {
		if err := node.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
		}
	}
	return errors.Join(errs...)
}
