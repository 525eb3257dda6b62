package client

import (
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport answers every request with a fixed response
type scriptedTransport struct {
	connectErr error
	sendErr    error
	response   *common.Message
	config     common.ClientConfig
	sent       []common.Message
	closes     int
}

func (s *scriptedTransport) Connect(config common.ClientConfig) error {
	s.config = config
	return s.connectErr
}

func (s *scriptedTransport) Send(_ uint64, req []byte) ([]byte, error) {
	var msg common.Message
	if err := serializer.NewBinarySerializer().Deserialize(req, &msg); err != nil {
		return nil, err
	}
	s.sent = append(s.sent, msg)
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return serializer.NewBinarySerializer().Serialize(*s.response)
}

func (s *scriptedTransport) Close() error {
	s.closes++
	return nil
}

func newScripted(t *testing.T, st *scriptedTransport) backend.IBackend {
	t.Helper()
	b, err := NewRPCBackend(1, common.ClientConfig{}, st, serializer.NewBinarySerializer())
	require.NoError(t, err)
	return b
}

func TestSetRequiresSuccess(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		st := &scriptedTransport{response: common.NewSetResponse(nil)}
		require.NoError(t, newScripted(t, st).Set("k", []byte("v")))
		require.Len(t, st.sent, 1)
		assert.Equal(t, common.MsgTKVSet, st.sent[0].MsgType)
		assert.Equal(t, []byte("v"), st.sent[0].Value)
	})

	t.Run("UnexpectedReply", func(t *testing.T) {
		st := &scriptedTransport{response: common.NewGetResponse([]byte("v"), true, nil)}
		err := newScripted(t, st).Set("k", []byte("v"))
		assert.ErrorIs(t, err, backend.ErrUnexpectedReply)
	})

	t.Run("ServerError", func(t *testing.T) {
		st := &scriptedTransport{response: common.NewErrorResponse("disk full")}
		err := newScripted(t, st).Set("k", []byte("v"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("TransportError", func(t *testing.T) {
		st := &scriptedTransport{sendErr: transport.ErrBroken}
		assert.ErrorIs(t, newScripted(t, st).Set("k", []byte("v")), transport.ErrBroken)
	})
}

func TestGet(t *testing.T) {
	st := &scriptedTransport{response: common.NewGetResponse(nil, false, nil)}
	_, loaded, err := newScripted(t, st).Get("k")
	require.NoError(t, err)
	assert.False(t, loaded)

	st = &scriptedTransport{response: common.NewGetResponse([]byte("v"), true, nil)}
	val, loaded, err := newScripted(t, st).Get("k")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []byte("v"), val)
}

func TestCloseOnce(t *testing.T) {
	st := &scriptedTransport{response: common.NewSetResponse(nil)}
	b := newScripted(t, st)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, st.closes)

	_, _, err := b.Get("k")
	assert.ErrorIs(t, err, backend.ErrClosed)
}

func TestDialer(t *testing.T) {
	var created []*scriptedTransport
	failAddr := ""
	factory := func(addr string) transport.IRPCClientTransport {
		st := &scriptedTransport{response: common.NewSetResponse(nil)}
		if addr == failAddr {
			st.connectErr = errors.New("refused")
		}
		created = append(created, st)
		return st
	}

	d := NewDialer(7, factory, serializer.NewBinarySerializer(), common.ClientConfig{
		Endpoints: []string{"ignored:1"},
		Timeout:   time.Minute,
	})
	assert.Equal(t, "dkv", d.GetName())

	t.Run("Node", func(t *testing.T) {
		created = nil
		b, err := d.DialNode("a:1", time.Second)
		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, []string{"a:1"}, created[0].config.Endpoints)
		assert.Equal(t, time.Second, created[0].config.Timeout)
		require.NoError(t, b.Close())
	})

	t.Run("Cluster", func(t *testing.T) {
		created = nil
		b, err := d.DialCluster([]string{"a:1", "b:1", "c:1"}, time.Second)
		require.NoError(t, err)
		assert.Len(t, created, 3)
		assert.IsType(t, &backend.Sharded{}, b)
		require.NoError(t, b.Set("k", []byte("v")))
		require.NoError(t, b.Close())
		for _, st := range created {
			assert.Equal(t, 1, st.closes)
		}
	})

	t.Run("ClusterPartialFailure", func(t *testing.T) {
		created = nil
		failAddr = "c:1"
		defer func() { failAddr = "" }()

		_, err := d.DialCluster([]string{"a:1", "b:1", "c:1"}, time.Second)
		require.Error(t, err)
		require.Len(t, created, 3)
		assert.Equal(t, 1, created[0].closes)
		assert.Equal(t, 1, created[1].closes)
	})

	t.Run("ClusterEmpty", func(t *testing.T) {
		_, err := d.DialCluster(nil, time.Second)
		require.Error(t, err)
	})
}

func TestTransportFactories(t *testing.T) {
	assert.NotNil(t, AutoTransport("/tmp/kv.sock"))
	assert.NotNil(t, AutoTransport("127.0.0.1:6378"))
	assert.NotNil(t, TCPTransport(""))
	assert.NotNil(t, UnixTransport(""))
}
