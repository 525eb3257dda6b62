// Package testing provides a reusable test suite and fakes for backend.IBackend implementations.
//
// RunBackendTests checks the behavior every backend must share (set/get, overwrite, missing keys,
// large and binary values, use after close). Each backend package calls it from its own tests
// with a factory for fresh instances.
//
// FakeDialer and FakeBackend are scriptable stand-ins used by the connection manager and
// record binding tests. All handles created by one FakeDialer share one in-memory store and
// one failure script, so data survives reconnects and failures can be injected across them.
package testing
