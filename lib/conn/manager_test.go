package conn_test

import (
	"errors"
	"testing"
	"time"

	backendtesting "github.com/ValentinKolb/kvbind/lib/backend/testing"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/stretchr/testify/require"
)

func newManager(hosts []string, cluster bool) (*conn.Manager, *backendtesting.FakeDialer) {
	dialer := backendtesting.NewFakeDialer()
	config := conn.NewConfig(hosts, 6378, 250*time.Millisecond, cluster, 10)
	return conn.NewManager(config, dialer), dialer
}

func TestNewManagerIsLazy(t *testing.T) {
	m, dialer := newManager(nil, false)

	require.Equal(t, conn.StateDisconnected, m.State())
	require.Zero(t, dialer.NodeDials())
	require.Zero(t, dialer.ClusterDials())
}

func TestConnectSingleNode(t *testing.T) {
	m, dialer := newManager([]string{"10.0.0.1"}, false)

	require.NoError(t, m.Connect())
	require.Equal(t, conn.StateConnected, m.State())
	require.Equal(t, conn.VariantSingleNode, m.Variant())
	require.Equal(t, 1, dialer.NodeDials())
	require.Equal(t, []string{"10.0.0.1:6378"}, dialer.LastAddrs())
	require.Equal(t, 250*time.Millisecond, dialer.LastTimeout())
}

func TestConnectCluster(t *testing.T) {
	m, dialer := newManager([]string{"10.0.0.1", "10.0.0.2", "10.0.0.1"}, false)

	require.NoError(t, m.Connect())
	require.Equal(t, conn.VariantCluster, m.Variant())
	require.Equal(t, 1, dialer.ClusterDials())
	require.Zero(t, dialer.NodeDials())
	require.Equal(t, []string{"10.0.0.1:6378", "10.0.0.2:6378"}, dialer.LastAddrs())
	// the timeout is passed to the cluster dialer as well
	require.Equal(t, 250*time.Millisecond, dialer.LastTimeout())
}

func TestConnectClusterFlagSingleHost(t *testing.T) {
	m, dialer := newManager([]string{"10.0.0.1"}, true)

	require.NoError(t, m.Connect())
	require.Equal(t, 1, dialer.ClusterDials())
	require.True(t, dialer.Handles()[0].Cluster)
}

func TestConnectReplacesHandle(t *testing.T) {
	m, dialer := newManager(nil, false)

	require.NoError(t, m.Connect())
	require.NoError(t, m.Connect())

	handles := dialer.Handles()
	require.Len(t, handles, 2)
	require.True(t, handles[0].Closed())
	require.False(t, handles[1].Closed())
}

func TestConnectFailure(t *testing.T) {
	m, dialer := newManager([]string{"10.0.0.1", "10.0.0.2"}, false)
	dialer.FailDials(1, nil)

	err := m.Connect()
	require.Error(t, err)

	var connErr *conn.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, conn.VariantCluster, connErr.Variant)
	require.Equal(t, []string{"10.0.0.1:6378", "10.0.0.2:6378"}, connErr.Addrs)
	require.ErrorIs(t, err, backendtesting.ErrInjected)

	require.Equal(t, conn.StateDisconnected, m.State())
	require.Equal(t, uint64(1), m.Stats().ConnectFailures)

	// no automatic retry, the next explicit call succeeds
	require.NoError(t, m.EnsureConnected())
	require.Equal(t, conn.StateConnected, m.State())
}

func TestConnectInvalidConfig(t *testing.T) {
	dialer := backendtesting.NewFakeDialer()
	m := conn.NewManager(conn.Config{}, dialer)

	var connErr *conn.ConnectionError
	require.ErrorAs(t, m.Connect(), &connErr)
	require.Zero(t, dialer.NodeDials())
}

func TestEnsureConnectedIsIdempotent(t *testing.T) {
	m, dialer := newManager(nil, false)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.EnsureConnected())
	}
	require.Equal(t, 1, dialer.NodeDials())
	require.Equal(t, uint64(1), m.Stats().Connects)
}

func TestInvalidate(t *testing.T) {
	m, dialer := newManager(nil, false)
	require.NoError(t, m.EnsureConnected())

	m.Invalidate()
	require.Equal(t, conn.StateDisconnected, m.State())
	require.True(t, dialer.Handles()[0].Closed())
	require.Equal(t, uint64(1), m.Stats().Invalidations)

	// the next call reconnects with a fresh handle
	require.NoError(t, m.EnsureConnected())
	require.Len(t, dialer.Handles(), 2)
	require.False(t, dialer.Handles()[1].Closed())
}

func TestInvalidateWithoutHandle(t *testing.T) {
	m, dialer := newManager(nil, false)

	m.Invalidate()
	m.Invalidate()
	require.Equal(t, conn.StateDisconnected, m.State())
	require.Empty(t, dialer.Handles())
	require.Zero(t, m.Stats().Invalidations)
}

func TestInvalidateSwallowsCloseError(t *testing.T) {
	m, dialer := newManager(nil, false)
	dialer.FailClose(errors.New("close failed"))
	require.NoError(t, m.EnsureConnected())

	m.Invalidate()
	require.Equal(t, conn.StateDisconnected, m.State())
	require.Equal(t, 1, dialer.Handles()[0].Closes())
}

func TestCallsRequireHandle(t *testing.T) {
	m, _ := newManager(nil, false)

	_, _, err := m.Get("k")
	require.ErrorIs(t, err, conn.ErrDisconnected)
	require.ErrorIs(t, m.Set("k", []byte("v")), conn.ErrDisconnected)

	require.NoError(t, m.EnsureConnected())
	require.NoError(t, m.Set("k", []byte("v")))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	m.Invalidate()
	require.ErrorIs(t, m.Set("k", []byte("v")), conn.ErrDisconnected)
}

func TestShutdown(t *testing.T) {
	m, dialer := newManager(nil, false)
	require.NoError(t, m.EnsureConnected())

	m.Shutdown()
	require.True(t, dialer.Handles()[0].Closed())
	require.Equal(t, conn.StateDisconnected, m.State())

	require.ErrorIs(t, m.EnsureConnected(), conn.ErrShutdown)
	require.ErrorIs(t, m.Connect(), conn.ErrShutdown)
	require.ErrorIs(t, m.Set("k", nil), conn.ErrShutdown)
	_, _, err := m.Get("k")
	require.ErrorIs(t, err, conn.ErrShutdown)

	// shutting down twice is harmless
	m.Shutdown()
	require.Equal(t, 1, dialer.Handles()[0].Closes())
}
