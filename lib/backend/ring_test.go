package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingIsDeterministic(t *testing.T) {
	nodes := []string{"10.0.0.1:6378", "10.0.0.2:6378", "10.0.0.3:6378"}
	a := NewRing(nodes, 0)
	b := NewRing([]string{nodes[2], nodes[0], nodes[1]}, 0)

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("user%d", i)
		require.Equal(t, a.Node(key), b.Node(key), "node order must not change key ownership (key %s)", key)
	}
}

func TestRingDistribution(t *testing.T) {
	nodes := []string{"a:1", "b:1", "c:1", "d:1"}
	r := NewRing(nodes, 0)

	counts := make(map[string]int)
	const numKeys = 20000
	for i := 0; i < numKeys; i++ {
		counts[r.Node(fmt.Sprintf("user%d", i))]++
	}

	require.Len(t, counts, len(nodes))
	for node, count := range counts {
		// every node should get a reasonable share (ideal: 25%)
		require.Greater(t, count, numKeys/10, "node %s got too few keys", node)
	}
}

func TestRingDeduplicatesNodes(t *testing.T) {
	r := NewRing([]string{"a:1", "b:1", "a:1"}, 10)
	require.Equal(t, []string{"a:1", "b:1"}, r.Nodes())
}

func TestRingEmpty(t *testing.T) {
	r := NewRing(nil, 0)
	require.Equal(t, "", r.Node("key"))
}

func TestRingMinimalMovement(t *testing.T) {
	before := NewRing([]string{"a:1", "b:1", "c:1"}, 0)
	after := NewRing([]string{"a:1", "b:1", "c:1", "d:1"}, 0)

	moved := 0
	const numKeys = 10000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("user%d", i)
		if before.Node(key) != after.Node(key) {
			moved++
			// keys may only move to the new node
			require.Equal(t, "d:1", after.Node(key))
		}
	}
	require.Less(t, moved, numKeys/2)
}
