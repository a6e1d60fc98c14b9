package serializer

import "github.com/ValentinKolb/dotset/rpc/common"

// IRPCSerializer turns settings messages into bytes and back. Client and
// server must use the same implementation.
type IRPCSerializer interface {
	// Serialize encodes msg, including its entries and backend info
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. msg is reset first, so no field of a
	// previous message survives.
	Deserialize(b []byte, msg *common.Message) error
}
