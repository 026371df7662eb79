package notifier

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Encode renders ev for broker payloads.
func Encode(ev domain.AlertEvent, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingJSON:
		return json.Marshal(ev)
	case EncodingMsgpack:
		return msgpack.Marshal(ev)
	default:
		return nil, fmt.Errorf("unknown alert encoding %q", encoding)
	}
}

// Decode is the inverse of Encode; subscribers in tests and tools use it.
func Decode(data []byte, encoding string) (domain.AlertEvent, error) {
	var ev domain.AlertEvent
	var err error
	switch encoding {
	case "", EncodingJSON:
		err = json.Unmarshal(data, &ev)
	case EncodingMsgpack:
		err = msgpack.Unmarshal(data, &ev)
	default:
		err = fmt.Errorf("unknown alert encoding %q", encoding)
	}
	return ev, err
}
