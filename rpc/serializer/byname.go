package serializer

import (
	"fmt"
	"strings"
)

// ByName returns the serializer registered under name (json, gob, binary)
func ByName(name string) (IRPCSerializer, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	case "binary":
		return NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}
