package serializer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/kvbind/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Message types are written as their names (see common.MessageType).
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializer{}
}

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IRPCSerializer {
	return gobSerializer{}
}

type jsonSerializer struct{}

type gobSerializer struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (jsonSerializer) Serialize(msg common.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("json: encode %s message: %w", msg.MsgType, err)
	}
	return data, nil
}

func (jsonSerializer) Deserialize(b []byte, msg *common.Message) error {
	// omitted fields must not keep the values of a previous message
	*msg = common.Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("json: decode message: %w", err)
	}
	return nil
}

func (jsonSerializer) GetName() string {
	return "json"
}

func (gobSerializer) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("gob: encode %s message: %w", msg.MsgType, err)
	}
	return buf.Bytes(), nil
}

func (gobSerializer) Deserialize(b []byte, msg *common.Message) error {
	// gob does not transmit zero values
	*msg = common.Message{}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(msg); err != nil {
		return fmt.Errorf("gob: decode message: %w", err)
	}
	return nil
}

func (gobSerializer) GetName() string {
	return "gob"
}
