package server_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/ValentinKolb/kvbind/rpc/client"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/server"
	"github.com/ValentinKolb/kvbind/rpc/transport/tcp"
	"github.com/ValentinKolb/kvbind/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shardId = 100

// startUnixServer serves shardId on a fresh unix socket and returns the socket path
func startUnixServer(t *testing.T, s serializer.IRPCSerializer) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kv.sock")
	srv := server.NewRPCServer(common.ServerConfig{
		Shards:    []uint64{shardId},
		Endpoint:  path,
		Transport: common.DefaultTransportConfig(),
	}, unix.NewUnixServerTransport(), s)

	serve(t, srv)
	return path
}

func serve(t *testing.T, srv *server.RPCServer) {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		require.NoError(t, <-errCh)
	})
}

func newDialer(s serializer.IRPCSerializer, shard uint64) backend.IDialer {
	return client.NewDialer(shard, client.AutoTransport, s, common.ClientConfig{
		Transport: common.DefaultTransportConfig(),
	})
}

func TestServerShards(t *testing.T) {
	s := serializer.NewBinarySerializer()
	path := startUnixServer(t, s)

	t.Run("GetSet", func(t *testing.T) {
		b, err := newDialer(s, shardId).DialNode(path, time.Second)
		require.NoError(t, err)
		defer b.Close()

		_, loaded, err := b.Get("missing")
		require.NoError(t, err)
		assert.False(t, loaded)

		require.NoError(t, b.Set("k", []byte("v")))
		val, loaded, err := b.Get("k")
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Equal(t, []byte("v"), val)
	})

	t.Run("UnknownShard", func(t *testing.T) {
		b, err := newDialer(s, shardId+1).DialNode(path, time.Second)
		require.NoError(t, err)
		defer b.Close()

		err = b.Set("k", []byte("v"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ClosedBackend", func(t *testing.T) {
		b, err := newDialer(s, shardId).DialNode(path, time.Second)
		require.NoError(t, err)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		assert.ErrorIs(t, b.Set("k", []byte("v")), backend.ErrClosed)
	})
}

func TestServerRequiresShards(t *testing.T) {
	srv := server.NewRPCServer(common.ServerConfig{
		Endpoint:  filepath.Join(t.TempDir(), "kv.sock"),
		Transport: common.DefaultTransportConfig(),
	}, unix.NewUnixServerTransport(), serializer.NewBinarySerializer())

	require.Error(t, srv.Serve())
}

func TestServerTCP(t *testing.T) {
	s := serializer.NewJSONSerializer()
	srv := server.NewRPCServer(common.ServerConfig{
		Shards:        []uint64{shardId},
		Endpoint:      "127.0.0.1:0",
		TimeoutSecond: 5,
		Transport:     common.DefaultTransportConfig(),
	}, tcp.NewTCPServerTransport(), s)
	serve(t, srv)

	b, err := newDialer(s, shardId).DialNode(srv.Addr().String(), time.Second)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Set("k", []byte("tcp")))
	val, loaded, err := b.Get("k")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []byte("tcp"), val)
}

// TestRecordStoreEndToEnd runs the record binding against real servers through the dKV protocol
func TestRecordStoreEndToEnd(t *testing.T) {
	for name, s := range map[string]serializer.IRPCSerializer{
		"binary": serializer.NewBinarySerializer(),
		"json":   serializer.NewJSONSerializer(),
		"gob":    serializer.NewGOBSerializer(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("SingleNode", func(t *testing.T) {
				path := startUnixServer(t, s)
				store, manager := newRecordStore(t, s, []string{path})
				assert.Equal(t, conn.VariantSingleNode, manager.Variant())

				record := binding.NewRecordOf(binding.FieldValue{Name: "field0", Value: []byte("abc")})
				require.NoError(t, store.Insert("user1", record))

				got, err := store.Read("user1")
				require.NoError(t, err)
				assert.Equal(t, 1, got.Len())
				value, ok := got.Get("user1")
				require.True(t, ok)
				assert.Len(t, value, 30)
				assert.Equal(t, []byte("abcabcabcabcabcabcabcabcabcabc"), value)

				_, err = store.Read("user2")
				assert.ErrorIs(t, err, binding.ErrNotFound)
				assert.Equal(t, binding.StatusNotFound, binding.StatusOf(err))
			})

			t.Run("Cluster", func(t *testing.T) {
				paths := []string{startUnixServer(t, s), startUnixServer(t, s), startUnixServer(t, s)}
				store, manager := newRecordStore(t, s, paths)
				assert.Equal(t, conn.VariantCluster, manager.Variant())

				for i := 0; i < 50; i++ {
					key := fmt.Sprintf("user%d", i)
					require.NoError(t, store.Update(key, binding.NewRecordOf(
						binding.FieldValue{Name: "f", Value: []byte(key)},
					)))
				}

				for i := 0; i < 50; i++ {
					key := fmt.Sprintf("user%d", i)
					got, err := store.Read(key)
					require.NoError(t, err)
					value, _ := got.Get(key)
					assert.Len(t, value, 10*len(key))
				}
			})

			t.Run("ServerGone", func(t *testing.T) {
				s2 := serializer.NewBinarySerializer()
				path := filepath.Join(t.TempDir(), "kv.sock")
				srv := server.NewRPCServer(common.ServerConfig{
					Shards:    []uint64{shardId},
					Endpoint:  path,
					Transport: common.DefaultTransportConfig(),
				}, unix.NewUnixServerTransport(), s2)

				errCh := make(chan error, 1)
				go func() { errCh <- srv.Serve() }()
				require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

				store, manager := newRecordStore(t, s2, []string{path})
				require.NoError(t, store.Insert("k", binding.NewRecordOf(binding.FieldValue{Name: "f", Value: []byte("x")})))

				require.NoError(t, srv.Close())
				require.NoError(t, <-errCh)

				err := store.Insert("k", binding.NewRecordOf(binding.FieldValue{Name: "f", Value: []byte("x")}))
				require.Error(t, err)
				assert.True(t, binding.IsWriteError(err))

				var bindingErr *binding.Error
				require.True(t, errors.As(err, &bindingErr))
				assert.Equal(t, binding.DefaultInsertRetries, bindingErr.Attempts)
				assert.Equal(t, conn.StateDisconnected, manager.State())
			})
		})
	}
}

func newRecordStore(t *testing.T, s serializer.IRPCSerializer, hosts []string) (*binding.RecordStore, *conn.Manager) {
	t.Helper()

	manager := conn.NewManager(
		conn.NewConfig(hosts, 0, time.Second, false, conn.DefaultFieldCount),
		newDialer(s, shardId),
	)
	store := binding.NewRecordStore(manager, binding.DefaultOptions(conn.DefaultFieldCount))
	require.NoError(t, store.Init())
	t.Cleanup(store.Cleanup)
	return store, manager
}
