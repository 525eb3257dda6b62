// Package serializer converts rpc messages to bytes and back. Client and server must
// use the same implementation.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom compact format. A flags byte marks the present fields,
//     which are written with an uvarint length prefix. Recommended for benchmarks since the
//     serializer overhead is part of every measured operation.
//
//   - jsonSerializer: JSON encoding, human-readable and useful for debugging.
//
//   - gobSerializer: Go's gob encoding. Noticeably slower and larger than binary, kept
//     for comparison runs.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewSetRequest("user1", value))
//	// ... send data ...
//	var reply common.Message
//	err = s.Deserialize(received, &reply)
package serializer
