package backend

import (
	"sort"
	"strconv"
)

// DefaultVirtualNodes is the number of positions each node occupies on the ring
// when no explicit value is given.
const DefaultVirtualNodes = 160

// Ring is an immutable consistent hash ring. It is created once for a fixed set of nodes
// and is safe for concurrent reads.
type Ring struct {
	hashes []uint64          // sorted positions on the ring
	owners map[uint64]string // position -> node
	nodes  []string
}

// NewRing creates a ring for the given nodes. Duplicate nodes are ignored.
// If virtualNodes is <= 0, DefaultVirtualNodes is used.
func NewRing(nodes []string, virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}

	r := &Ring{
		owners: make(map[uint64]string, len(nodes)*virtualNodes),
	}

	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		r.nodes = append(r.nodes, node)

		for i := 0; i < virtualNodes; i++ {
			h := HashString(node+"#"+strconv.Itoa(i), 0)
			// first owner wins on the (unlikely) collision
			if _, taken := r.owners[h]; taken {
				continue
			}
			r.owners[h] = node
			r.hashes = append(r.hashes, h)
		}
	}

	sort.Slice(r.hashes, func(i, j int) bool { return r.hashes[i] < r.hashes[j] })
	return r
}

// Node returns the node responsible for the key, or "" if the ring is empty.
func (r *Ring) Node(key string) string {
	if len(r.hashes) == 0 {
		return ""
	}

	h := HashString(key, 0)
	idx := sort.Search(len(r.hashes), func(i int) bool { return r.hashes[i] >= h })
	if idx == len(r.hashes) {
		idx = 0 // wrap around
	}
	return r.owners[r.hashes[idx]]
}

// Nodes returns the distinct nodes of the ring in the order they were given.
func (r *Ring) Nodes() []string {
	out := make([]string, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// HashString generates a hash value for a string with a seed
// This function uses the FNV-1a hash algorithm, which is fast and has good distribution
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}

	// FNV-1a alone clusters similar short strings, finalize with a murmur3 style mix
	hash ^= hash >> 33
	hash *= 0xff51afd7ed558ccd
	hash ^= hash >> 33
	return hash
}
