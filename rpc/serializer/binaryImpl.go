package serializer

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ValentinKolb/dotset/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasEntries byte = 1 << 0
	hasOk      byte = 1 << 1
	hasCode    byte = 1 << 2
	hasErr     byte = 1 << 3
	hasMeta    byte = 1 << 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	var flags byte = 0
	pos := 2 // Start after MsgType and flags

	// Handle Entries, keys are written in sorted order so equal messages
	// produce equal bytes
	if len(msg.Entries) > 0 {
		flags |= hasEntries
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Entries)))
		pos += 4

		keys := make([]string, 0, len(msg.Entries))
		for k := range msg.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pos = putString(result, pos, k)
			pos = putString(result, pos, msg.Entries[k])
		}
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Code
	if msg.Code != 0 {
		flags |= hasCode
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Code)
		pos += 8
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Handle Meta
	if len(msg.Meta) > 0 {
		flags |= hasMeta
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Meta)))
		pos += 4
		copy(result[pos:pos+len(msg.Meta)], msg.Meta)
		pos += len(msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	pos := 2

	// Read Entries if present
	msg.Entries = nil
	if flags&hasEntries != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for entry count")
		}
		count := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		// every entry needs at least two length prefixes
		if count > (len(data)-pos)/8 {
			return fmt.Errorf("entry count %d exceeds data", count)
		}

		msg.Entries = make(map[string]string, count)
		for i := 0; i < count; i++ {
			var k, v string
			var err error
			if k, pos, err = readString(data, pos, "entry key"); err != nil {
				return err
			}
			if v, pos, err = readString(data, pos, "entry value"); err != nil {
				return err
			}
			msg.Entries[k] = v
		}
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	// Read Code if present
	if flags&hasCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for code")
		}
		msg.Code = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Code = 0
	}

	// Read Err if present
	if flags&hasErr != 0 {
		var err error
		if msg.Err, pos, err = readString(data, pos, "error"); err != nil {
			return err
		}
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for meta length")
		}
		metaLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if pos+metaLen > len(data) {
			return fmt.Errorf("data too short for meta data")
		}

		// Allocate only if needed
		if cap(msg.Meta) < metaLen {
			msg.Meta = make([]byte, metaLen)
		} else {
			msg.Meta = msg.Meta[:metaLen]
		}
		copy(msg.Meta, data[pos:pos+metaLen])
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if len(msg.Entries) > 0 {
		size += 4 // entry count
		for k, v := range msg.Entries {
			size += 4 + len(k) + 4 + len(v)
		}
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Code != 0 {
		size += 8 // uint64
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if len(msg.Meta) > 0 {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}

// putString writes a length prefixed string at pos and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// readString reads a length prefixed string at pos
func readString(data []byte, pos int, field string) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+n > len(data) {
		return "", pos, fmt.Errorf("data too short for %s data", field)
	}
	return string(data[pos : pos+n]), pos + n, nil
}
