package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvbind/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
//
//	[type:1][flags:1]([keyLen:uvarint][key])([valueLen:uvarint][value])([errLen:uvarint][err])
//
// Only fields whose flag is set are written. The Ok field is encoded in the flags.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	isOk     byte = 1 << 2
	hasErr   byte = 1 << 3
)

var errShortData = errors.New("data too short")

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		result = appendField(result, []byte(msg.Key))
	}
	if msg.Value != nil {
		flags |= hasValue
		result = appendField(result, msg.Value)
	}
	if msg.Ok {
		flags |= isOk
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendField(result, []byte(msg.Err))
	}
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("message header: %w", errShortData)
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	data = data[2:]

	var field []byte
	var err error

	msg.Key = ""
	if flags&hasKey != 0 {
		if field, data, err = readField(data); err != nil {
			return fmt.Errorf("key: %w", err)
		}
		msg.Key = string(field)
	}

	msg.Value = nil
	if flags&hasValue != 0 {
		if field, data, err = readField(data); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		// an empty value stays a non nil slice
		msg.Value = append(make([]byte, 0, len(field)), field...)
	}

	msg.Ok = flags&isOk != 0

	msg.Err = ""
	if flags&hasErr != 0 {
		if field, _, err = readField(data); err != nil {
			return fmt.Errorf("err: %w", err)
		}
		msg.Err = string(field)
	}

	return nil
}

func (b binarySerializerImpl) GetName() string {
	return "binary"
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates an upper bound of the size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags, each field at most binary.MaxVarintLen64 length bytes
	size := 2
	if msg.Key != "" {
		size += binary.MaxVarintLen64 + len(msg.Key)
	}
	if msg.Value != nil {
		size += binary.MaxVarintLen64 + len(msg.Value)
	}
	if msg.Err != "" {
		size += binary.MaxVarintLen64 + len(msg.Err)
	}
	return size
}

func appendField(dst, field []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(field)))
	return append(dst, field...)
}

// readField returns the next length prefixed field and the remaining data
func readField(data []byte) (field, rest []byte, err error) {
	n, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, nil, fmt.Errorf("field length: %w", errShortData)
	}
	data = data[read:]
	if uint64(len(data)) < n {
		return nil, nil, fmt.Errorf("field data: %w", errShortData)
	}
	return data[:n], data[n:], nil
}
