package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dotset/lib/backend"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Entries map[string]string `json:"entries,omitempty"` // Used for: Write (request), Read (response). Values are JSON encoded scalars

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: Read, Write, Info responses
	Code uint64 `json:"code,omitempty"` // backend.RetCode of a failed operation
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info (response), JSON encoded backend.Info
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewReadRequest creates a new Read request
func NewReadRequest() *Message {
	return &Message{
		MsgType: MsgTRead,
	}
}

// NewReadResponse creates a new Read response
func NewReadResponse(flat backend.Flat, err error) *Message {
	msg := &Message{
		MsgType: MsgTRead,
	}
	if err != nil {
		msg.setError(err)
		return msg
	}
	entries, err := EncodeEntries(flat)
	if err != nil {
		msg.setError(backend.MalformedError(backend.ImplRemote, "read", "%v", err))
		return msg
	}
	msg.Entries = entries
	msg.Ok = true
	return msg
}

// NewWriteRequest creates a new Write request
func NewWriteRequest(target backend.Flat) (*Message, error) {
	entries, err := EncodeEntries(target)
	if err != nil {
		return nil, err
	}
	return &Message{
		MsgType: MsgTWrite,
		Entries: entries,
	}, nil
}

// NewWriteResponse creates a new Write response
func NewWriteResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTWrite,
		Ok:      err == nil,
	}
	if err != nil {
		msg.setError(err)
	}
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(info backend.Info) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
	}
	meta, err := json.Marshal(info)
	if err != nil {
		msg.setError(err)
		return msg
	}
	msg.Meta = meta
	msg.Ok = true
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    uint64(backend.RetCUnsupportedOperation),
		Err:     err,
	}
}

// setError stores err and its return code in the message
func (m *Message) setError(err error) {
	m.Ok = false
	m.Err = err.Error()
	m.Code = uint64(backend.RetCStorageAccess)
	var be *backend.Error
	if errors.As(err, &be) {
		m.Code = uint64(be.Code)
		if be.Err != nil {
			m.Err = be.Err.Error()
		}
	}
}

// Failure returns the error carried by the message as a *backend.Error, or nil.
func (m *Message) Failure() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	code := backend.RetCode(m.Code)
	if code == backend.RetCSuccess {
		code = backend.RetCStorageAccess
	}
	return backend.NewError(code, backend.ImplRemote, m.MsgType.String(), errors.New(m.Err))
}

// Info decodes the backend info of an Info response.
func (m *Message) Info() (backend.Info, error) {
	var info backend.Info
	if err := json.Unmarshal(m.Meta, &info); err != nil {
		return info, fmt.Errorf("decoding backend info: %w", err)
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Entry Encoding
// --------------------------------------------------------------------------

// EncodeEntries encodes every value of flat as JSON, so scalars keep their
// type on the wire.
func EncodeEntries(flat backend.Flat) (map[string]string, error) {
	entries := make(map[string]string, len(flat))
	for k, v := range flat {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		entries[k] = string(data)
	}
	return entries, nil
}

// DecodeEntries reverses EncodeEntries. Integers decode to int64, other
// numbers to float64.
func DecodeEntries(entries map[string]string) (backend.Flat, error) {
	flat := make(backend.Flat, len(entries))
	for k, raw := range entries {
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", k, err)
		}
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = i
			} else if f, err := n.Float64(); err == nil {
				v = f
			}
		}
		flat[k] = v
	}
	return flat, nil
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRead:
		return "read"
	case MsgTWrite:
		return "write"
	case MsgTInfo:
		return "info"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "read":
		*t = MsgTRead
	case "write":
		*t = MsgTWrite
	case "info":
		*t = MsgTInfo
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Backend operations

	MsgTRead  // Read the whole namespace
	MsgTWrite // Replace the whole namespace
	MsgTInfo  // Describe the backend of a namespace
)
