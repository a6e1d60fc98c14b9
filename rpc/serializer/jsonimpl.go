package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dotset/rpc/common"
)

// NewJSONSerializer creates a serializer that writes messages as JSON objects.
// Message types are written by name ("read", "write", ...).
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("json: encoding %s message: %w", msg.MsgType, err)
	}
	return data, nil
}

func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("json: decoding message: %w", err)
	}
	return nil
}
