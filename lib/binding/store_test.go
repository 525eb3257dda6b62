package binding_test

import (
	"bytes"
	"errors"
	"testing"

	backendtesting "github.com/ValentinKolb/kvbind/lib/backend/testing"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dialer  *backendtesting.FakeDialer
	manager *conn.Manager
	store   *binding.RecordStore
}

func newFixture(t *testing.T, fieldCount int, mutate ...func(o *binding.Options)) *fixture {
	t.Helper()

	dialer := backendtesting.NewFakeDialer()
	manager := conn.NewManager(conn.NewConfig(nil, 0, 0, false, fieldCount), dialer)

	opts := binding.DefaultOptions(fieldCount)
	for _, m := range mutate {
		m(&opts)
	}

	store := binding.NewRecordStore(manager, opts)
	t.Cleanup(store.Cleanup)

	return &fixture{dialer: dialer, manager: manager, store: store}
}

func (f *fixture) stored(t *testing.T, key string) []byte {
	t.Helper()
	value, ok, err := f.dialer.Store().Get(key)
	require.NoError(t, err)
	require.True(t, ok, "no value stored for %q", key)
	return value
}

func record(payloads ...string) *binding.Record {
	r := binding.NewRecord()
	for i, p := range payloads {
		r.Put("field"+string(rune('0'+i)), []byte(p))
	}
	return r
}

func TestEndToEndUser1(t *testing.T) {
	f := newFixture(t, 3)
	payload := []byte("0123456789")

	// insert: one 10 byte field, field count 3
	require.NoError(t, f.store.Insert("user1", binding.NewRecord().Put("field0", payload)))
	expected := bytes.Repeat(payload, 3)
	require.Len(t, f.stored(t, "user1"), 30)
	require.Equal(t, expected, f.stored(t, "user1"))

	// read back
	r, err := f.store.Read("user1")
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	value, ok := r.Get("user1")
	require.True(t, ok)
	require.Equal(t, expected, value)

	// empty update uses the stashed first field
	require.NoError(t, f.store.Update("user1", binding.NewRecord()))
	require.Equal(t, expected, f.stored(t, "user1"))

	// fail, fail, succeed
	before := f.manager.Stats().Invalidations
	f.dialer.FailSets(2, nil)
	require.NoError(t, f.store.Insert("user1", binding.NewRecord().Put("field0", payload)))
	require.Equal(t, before+2, f.manager.Stats().Invalidations)
	require.Equal(t, expected, f.stored(t, "user1"))
}

func TestStoredLength(t *testing.T) {
	for _, fieldCount := range []int{1, 3, 10} {
		for _, unit := range []int{0, 1, 7, 100} {
			for fields := 1; fields <= 12; fields++ {
				f := newFixture(t, fieldCount)

				r := binding.NewRecord()
				for i := 0; i < fields; i++ {
					r.Put(string(rune('a'+i)), bytes.Repeat([]byte{byte(i + 1)}, unit))
				}
				require.NoError(t, f.store.Insert("k", r))

				want := unit * max(fields, fieldCount)
				require.Len(t, f.stored(t, "k"), want, "unit=%d fields=%d F=%d", unit, fields, fieldCount)
				// only the first field is replicated
				require.Equal(t, bytes.Repeat([]byte{1}, want), f.stored(t, "k"))
			}
		}
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t, 10)

	require.NoError(t, f.store.Insert("k", record("abcde", "xx", "yyy")))
	inserted := f.stored(t, "k")

	require.NoError(t, f.store.Update("k", record("abcde", "other", "fields")))
	require.Equal(t, inserted, f.stored(t, "k"))

	// fewer fields than configured still produce the same buffer
	require.NoError(t, f.store.Update("k", record("abcde")))
	require.Equal(t, inserted, f.stored(t, "k"))
}

func TestWriteRetriesExhausted(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		name     string
		write    func(s *binding.RecordStore) error
		attempts int
	}{
		{"insert", func(s *binding.RecordStore) error { return s.Insert("k", record("v")) }, binding.DefaultInsertRetries},
		{"update", func(s *binding.RecordStore) error { return s.Update("k", record("v")) }, binding.DefaultUpdateRetries},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 3)
			f.dialer.FailSets(100, cause)

			err := tc.write(f.store)
			require.Error(t, err)
			require.True(t, binding.IsWriteError(err))
			require.False(t, binding.IsReadError(err))
			require.ErrorIs(t, err, cause)
			require.Equal(t, binding.StatusError, binding.StatusOf(err))

			var bErr *binding.Error
			require.ErrorAs(t, err, &bErr)
			require.Equal(t, tc.attempts, bErr.Attempts)
			require.Equal(t, "k", bErr.Key)

			// invalidation count == attempt count, every attempt ran on a fresh handle
			require.Equal(t, uint64(tc.attempts), f.manager.Stats().Invalidations)
			require.Equal(t, tc.attempts, f.dialer.NodeDials())
			_, sets := f.dialer.Calls()
			require.Equal(t, tc.attempts, sets)
			for _, h := range f.dialer.Handles() {
				require.True(t, h.Closed())
			}
			require.Equal(t, conn.StateDisconnected, f.manager.State())
		})
	}
}

func TestWriteCarriesLastCause(t *testing.T) {
	f := newFixture(t, 1)
	first, last := errors.New("first"), errors.New("last")

	f.dialer.FailSets(2, first)
	require.NoError(t, f.store.Insert("k", record("v")))

	f.dialer.FailSets(1, first)
	require.Error(t, f.store.Update("k", record("v")))

	f.dialer.FailSets(3, last)
	err := f.store.Insert("k", record("v"))
	require.ErrorIs(t, err, last)
	require.NotErrorIs(t, err, first)
}

func TestWriteRetriesConnectFailures(t *testing.T) {
	f := newFixture(t, 2)
	f.dialer.FailDials(2, nil)

	require.NoError(t, f.store.Insert("k", record("ab")))
	require.Equal(t, []byte("abab"), f.stored(t, "k"))
	require.Equal(t, uint64(2), f.manager.Stats().ConnectFailures)

	f.manager.Invalidate()
	f.dialer.FailDials(5, nil)
	err := f.store.Update("k", record("cd"))
	require.True(t, binding.IsWriteError(err))

	var connErr *conn.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestConfiguredRetries(t *testing.T) {
	f := newFixture(t, 1, func(o *binding.Options) {
		o.InsertRetries = 5
		o.UpdateRetries = 0 // treated as 1
	})
	require.Equal(t, 1, f.store.Options().UpdateRetries)

	f.dialer.FailSets(4, nil)
	require.NoError(t, f.store.Insert("k", record("v")))
	require.Equal(t, uint64(4), f.manager.Stats().Invalidations)

	f.dialer.FailSets(1, nil)
	require.Error(t, f.store.Update("k", record("v")))
}

func TestEmptyRecordWithoutStash(t *testing.T) {
	f := newFixture(t, 3)

	err := f.store.Update("k", binding.NewRecord())
	require.True(t, binding.IsWriteError(err))
	require.ErrorIs(t, err, binding.ErrEmptyRecord)

	err = f.store.Insert("k", nil)
	require.ErrorIs(t, err, binding.ErrEmptyRecord)

	_, sets := f.dialer.Calls()
	require.Zero(t, sets)
}

func TestStashIsCopied(t *testing.T) {
	f := newFixture(t, 2)
	payload := []byte("ab")

	require.NoError(t, f.store.Insert("k1", binding.NewRecord().Put("f", payload)))
	payload[0] = 'z'

	require.NoError(t, f.store.Insert("k2", binding.NewRecord()))
	require.Equal(t, []byte("abab"), f.stored(t, "k2"))
}

func TestReadNotFound(t *testing.T) {
	f := newFixture(t, 3)

	r, err := f.store.Read("missing")
	require.Nil(t, r)
	require.True(t, binding.IsReadError(err))
	require.ErrorIs(t, err, binding.ErrNotFound)
	require.Equal(t, binding.StatusNotFound, binding.StatusOf(err))
	require.Equal(t, conn.StateConnected, f.manager.State())
}

func TestReadFailureKeepsConnection(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.store.Insert("k", record("v")))
	f.dialer.FailGets(1, nil)

	_, err := f.store.Read("k")
	require.True(t, binding.IsReadError(err))
	require.ErrorIs(t, err, backendtesting.ErrInjected)
	require.Equal(t, binding.StatusError, binding.StatusOf(err))

	// single attempt, no invalidation
	gets, _ := f.dialer.Calls()
	require.Equal(t, 1, gets)
	require.Zero(t, f.manager.Stats().Invalidations)
	require.Equal(t, conn.StateConnected, f.manager.State())
}

func TestReadFailureInvalidatesWhenEnabled(t *testing.T) {
	f := newFixture(t, 3, func(o *binding.Options) { o.InvalidateOnReadError = true })
	require.NoError(t, f.store.Insert("k", record("v")))
	f.dialer.FailGets(1, nil)

	_, err := f.store.Read("k")
	require.Error(t, err)
	require.Equal(t, conn.StateDisconnected, f.manager.State())
	require.Equal(t, uint64(1), f.manager.Stats().Invalidations)

	// the next read reconnects
	_, err = f.store.Read("k")
	require.NoError(t, err)
	require.Equal(t, 2, f.dialer.NodeDials())
}

func TestReadConnectFailure(t *testing.T) {
	f := newFixture(t, 3)
	f.dialer.FailDials(1, nil)

	_, err := f.store.Read("k")
	require.True(t, binding.IsReadError(err))
	var connErr *conn.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestDeleteAndScanAreNotImplemented(t *testing.T) {
	f := newFixture(t, 3)

	err := f.store.Delete("k")
	require.ErrorIs(t, err, binding.ErrNotImplemented)
	require.Equal(t, binding.StatusNotImplemented, binding.StatusOf(err))

	records, err := f.store.Scan("k", 10, []string{"field0"})
	require.Nil(t, records)
	require.Equal(t, binding.StatusNotImplemented, binding.StatusOf(err))

	gets, sets := f.dialer.Calls()
	require.Zero(t, gets)
	require.Zero(t, sets)
	require.Zero(t, f.dialer.NodeDials())
}

func TestInitAndCleanup(t *testing.T) {
	dialer := backendtesting.NewFakeDialer()
	manager := conn.NewManager(conn.NewConfig(nil, 0, 0, false, 3), dialer)
	store := binding.NewRecordStore(manager, binding.DefaultOptions(3))

	require.NoError(t, store.Init())
	require.Equal(t, conn.StateConnected, manager.State())

	store.Cleanup()
	require.True(t, dialer.Handles()[0].Closed())
	require.ErrorIs(t, store.Insert("k", record("v")), conn.ErrShutdown)
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func BenchmarkInsert(b *testing.B) {
	dialer := backendtesting.NewFakeDialer()
	store := binding.NewRecordStore(conn.NewManager(conn.NewConfig(nil, 0, 0, false, 10), dialer), binding.DefaultOptions(10))
	defer store.Cleanup()

	r := binding.NewRecord().Put("field0", bytes.Repeat([]byte("x"), 100))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Insert("user1", r); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "ops/s")
}
