package binding

import "bytes"

// EffectiveFieldCount is the number of logical fields a stored value is built from. A record
// with fewer fields than configured is padded, so the size of a stored value stays stable
// across insert and update.
func EffectiveFieldCount(actual, configured int) int {
	return max(actual, configured)
}

// Normalize builds the stored value for a record: the source payload repeated effective
// times without separators. The result has length len(source) * effective.
func Normalize(source []byte, effective int) []byte {
	if effective <= 0 || len(source) == 0 {
		return []byte{}
	}
	return bytes.Repeat(source, effective)
}
