package serializer

import "github.com/ValentinKolb/kvbind/rpc/common"

// IRPCSerializer is the interface for all Message Serializers.
// Deserialize must overwrite every field of msg, so a Message can be reused for decoding.
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	Deserialize(b []byte, msg *common.Message) error
	// GetName returns the name of the wire format (e.g. "json", "gob", "binary")
	GetName() string
}
