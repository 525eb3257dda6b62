package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvbind/lib/backend"
)

// BackendFactory is a function that creates a new, connected backend
type BackendFactory func() backend.IBackend

// RunBackendTests runs a comprehensive test suite for an IBackend implementation.
func RunBackendTests(t *testing.T, name string, factory BackendFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, factory())
		})

		t.Run("LargeValue", func(t *testing.T) {
			testLargeValue(t, factory())
		})

		t.Run("BinaryValue", func(t *testing.T) {
			testBinaryValue(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("UseAfterClose", func(t *testing.T) {
			testUseAfterClose(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, b backend.IBackend) {
	defer b.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := b.Set(testKey, testValue1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, loaded, err := b.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	if err := b.Set(testKey, testValue2); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}

	result, loaded, err = b.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded || !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s after overwrite, got %s (loaded=%v)", testValue2, result, loaded)
	}
}

func testGetMissing(t *testing.T, b backend.IBackend) {
	defer b.Close()

	value, loaded, err := b.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get of a missing key must not fail, got: %v", err)
	}
	if loaded {
		t.Errorf("Expected nonexistent key to return loaded=false, got value %q", value)
	}
}

func testLargeValue(t *testing.T, b backend.IBackend) {
	defer b.Close()

	largeValue := bytes.Repeat([]byte("0123456789"), 100*1024) // ~1 MB
	if err := b.Set("large-key", largeValue); err != nil {
		t.Fatalf("Set of large value failed: %v", err)
	}

	result, loaded, err := b.Get("large-key")
	if err != nil {
		t.Fatalf("Get of large value failed: %v", err)
	}
	if !loaded {
		t.Fatalf("Expected large value to exist")
	}
	if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: expected %d bytes, got %d bytes", len(largeValue), len(result))
	}
}

func testBinaryValue(t *testing.T, b backend.IBackend) {
	defer b.Close()

	binaryValue := make([]byte, 256)
	for i := range binaryValue {
		binaryValue[i] = byte(i)
	}

	if err := b.Set("binary-key", binaryValue); err != nil {
		t.Fatalf("Set of binary value failed: %v", err)
	}

	result, loaded, err := b.Get("binary-key")
	if err != nil || !loaded {
		t.Fatalf("Get of binary value failed: loaded=%v err=%v", loaded, err)
	}
	if !bytes.Equal(result, binaryValue) {
		t.Errorf("Binary value was not preserved")
	}
}

func testManyKeys(t *testing.T, b backend.IBackend) {
	defer b.Close()

	const numKeys = 200
	for i := 0; i < numKeys; i++ {
		if err := b.Set(fmt.Sprintf("user%d", i), []byte(fmt.Sprintf("value-%d", i))); err != nil {
			t.Fatalf("Set of key %d failed: %v", i, err)
		}
	}

	for i := 0; i < numKeys; i++ {
		result, loaded, err := b.Get(fmt.Sprintf("user%d", i))
		if err != nil || !loaded {
			t.Fatalf("Get of key %d failed: loaded=%v err=%v", i, loaded, err)
		}
		if expected := fmt.Sprintf("value-%d", i); string(result) != expected {
			t.Errorf("Key %d: expected %s, got %s", i, expected, result)
		}
	}
}

func testUseAfterClose(t *testing.T, b backend.IBackend) {
	if err := b.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := b.Set("key", []byte("value")); err == nil {
		t.Errorf("Expected Set after Close to fail")
	}
	if _, _, err := b.Get("key"); err == nil {
		t.Errorf("Expected Get after Close to fail")
	}
}
