package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	record, err := parseFields([]string{"field1=b", "field0=a=c", "empty="})
	require.NoError(t, err)
	assert.Equal(t, []string{"field1", "field0", "empty"}, record.Names())

	value, ok := record.Get("field0")
	require.True(t, ok)
	assert.Equal(t, []byte("a=c"), value)

	value, ok = record.Get("empty")
	require.True(t, ok)
	assert.Empty(t, value)

	record, err = parseFields(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Len())

	_, err = parseFields([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseFields([]string{"=x"})
	assert.Error(t, err)
}
