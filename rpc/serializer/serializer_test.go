package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Read request
		{MsgType: common.MsgTRead},

		// Write request
		{
			MsgType: common.MsgTWrite,
			Entries: map[string]string{
				"app.name":      `"dotset"`,
				"app.debug":     `true`,
				"limits.0":      `10`,
				"limits.1":      `2.5`,
				"empty.string":  `""`,
				"unicode.name":  `"grüße"`,
				"nested.a.b.c.": `null`,
			},
		},

		// Read response
		{
			MsgType: common.MsgTRead,
			Entries: map[string]string{"a": `"1"`},
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Code:    uint64(backend.RetCStorageAccess),
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTInfo,
			Entries: map[string]string{"k": `"v"`},
			Ok:      true,
			Code:    uint64(backend.RetCMalformedRecord),
			Err:     "partial failure",
			Meta:    []byte(`{"driver":"memory"}`),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTInfo; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestEntriesSurviveRoundTrip checks that typed values survive the encode,
// serialize, deserialize and decode chain
func TestEntriesSurviveRoundTrip(t *testing.T) {
	target := backend.Flat{
		"name":    "dotset",
		"port":    int64(8080),
		"ratio":   0.75,
		"enabled": true,
		"unset":   nil,
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			req, err := common.NewWriteRequest(target)
			if err != nil {
				t.Fatalf("Failed to build request: %v", err)
			}
			data, err := serializer.Serialize(*req)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			flat, err := common.DecodeEntries(result.Entries)
			if err != nil {
				t.Fatalf("Failed to decode entries: %v", err)
			}
			if !reflect.DeepEqual(target, flat) {
				t.Errorf("Entries mismatch:\nExpected: %#v\nGot: %#v", target, flat)
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
		want common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
			want: common.Message{},
		},
		{
			name: "Empty entries and meta are dropped",
			msg: common.Message{
				MsgType: common.MsgTWrite,
				Entries: map[string]string{},
				Meta:    []byte{},
			},
			want: common.Message{MsgType: common.MsgTWrite},
		},
		{
			name: "Empty key and value",
			msg: common.Message{
				MsgType: common.MsgTWrite,
				Entries: map[string]string{"": ""},
			},
			want: common.Message{
				MsgType: common.MsgTWrite,
				Entries: map[string]string{"": ""},
			},
		},
		{
			name: "Ok without payload",
			msg:  common.Message{MsgType: common.MsgTWrite, Ok: true},
			want: common.Message{MsgType: common.MsgTWrite, Ok: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.want, result) {
				t.Errorf("Mismatch:\nExpected: %+v\nGot: %+v", tc.want, result)
			}
		})
	}
}

// TestBinarySerializerDeterministic checks that map ordering does not leak into the output
func TestBinarySerializerDeterministic(t *testing.T) {
	serializer := NewBinarySerializer()
	msg := common.Message{MsgType: common.MsgTWrite, Entries: map[string]string{}}
	for _, k := range []string{"z", "a", "m", "b.c", "b.a", "0", "10", "9"} {
		msg.Entries[k] = `"` + k + `"`
	}

	first, err := serializer.Serialize(msg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	for i := 0; i < 20; i++ {
		data, err := serializer.Serialize(msg)
		if err != nil {
			t.Fatalf("Failed to serialize: %v", err)
		}
		if !reflect.DeepEqual(first, data) {
			t.Fatalf("Serialization %d differs from the first one", i)
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Missing entry count",
			data:        []byte{4, hasEntries, 0, 0},
			expectError: true,
		},
		{
			name:        "Entry count exceeds data",
			data:        []byte{4, hasEntries, 0, 0, 0, 9, 0, 0, 0, 1, 'a'},
			expectError: true,
		},
		{
			name:        "Invalid length for entry value",
			data:        []byte{4, hasEntries, 0, 0, 0, 1, 0, 0, 0, 1, 'a', 0, 0, 0, 5, 'b', 'c', 'd'},
			expectError: true,
		},
		{
			name:        "Invalid length for error",
			data:        []byte{2, hasErr, 0, 0, 0, 10}, // Claims error length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Truncated code",
			data:        []byte{2, hasCode, 0, 0, 0},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestByName tests the lookup of serializers by their configured name
func TestByName(t *testing.T) {
	for _, name := range []string{"json", "GOB", "binary", ""} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) failed: %v", name, err)
		}
	}
	if _, err := ByName("protobuf"); err == nil {
		t.Errorf("Expected error for unknown serializer")
	}
}
