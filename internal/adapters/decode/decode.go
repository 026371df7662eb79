// Package decode turns device wire units into samples. It holds no state.
package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

var (
	errMissingValue = errors.New("missing t_c")
	errNotObject    = errors.New("not a JSON object")
)

type frameRecord struct {
	TempC  json.RawMessage `json:"t_c"`
	Sensor json.RawMessage `json:"sensor"`
	TS     json.RawMessage `json:"ts"`
}

// DecodeLine decodes one newline-framed record such as
// {"t_c": 23.7, "sensor": "S1", "ts": 1700000000.5}.
// A blank line yields no samples and no error.
func DecodeLine(line []byte, now time.Time) ([]domain.Sample, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	if line[0] != '{' {
		return nil, domain.NewDecodeError(line, errNotObject)
	}
	var rec frameRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, domain.NewDecodeError(line, err)
	}
	if isNull(rec.TempC) {
		return nil, domain.NewDecodeError(line, errMissingValue)
	}
	v, err := number(rec.TempC)
	if err != nil {
		return nil, domain.NewDecodeError(line, fmt.Errorf("t_c: %w", err))
	}

	channel := domain.DefaultChannel
	if !isNull(rec.Sensor) {
		channel, err = label(rec.Sensor)
		if err != nil {
			return nil, domain.NewDecodeError(line, fmt.Errorf("sensor: %w", err))
		}
	}

	ts := now
	if !isNull(rec.TS) {
		secs, err := number(rec.TS)
		if err != nil {
			return nil, domain.NewDecodeError(line, fmt.Errorf("ts: %w", err))
		}
		ts = FromEpoch(secs)
	}
	return []domain.Sample{{Timestamp: ts, ChannelID: channel, Value: v}}, nil
}

type pollBody struct {
	C1    *float64 `json:"c1"`
	C2    *float64 `json:"c2"`
	En1   *bool    `json:"en1"`
	En2   *bool    `json:"en2"`
	Shown *float64 `json:"shown"`
	IP    string   `json:"ip"`
}

// DecodePoll decodes the body of GET /temp. c1 and c2 map to S1 and S2;
// a null or absent reading yields no sample for that channel.
func DecodePoll(body []byte, now time.Time) ([]domain.Sample, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.NewDecodeError(trimmed, errNotObject)
	}
	var b pollBody
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return nil, domain.NewDecodeError(trimmed, err)
	}
	out := make([]domain.Sample, 0, 2)
	if b.C1 != nil {
		out = append(out, domain.Sample{Timestamp: now, ChannelID: "S1", Value: *b.C1})
	}
	if b.C2 != nil {
		out = append(out, domain.Sample{Timestamp: now, ChannelID: "S2", Value: *b.C2})
	}
	return out, nil
}

// FromEpoch converts fractional seconds since the Unix epoch.
func FromEpoch(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9))
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// number accepts a JSON number or a string holding one.
func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not numeric: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", s)
	}
	return finite(f)
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %v", f)
	}
	return f, nil
}

// label accepts a string, or a number which is rendered as text.
func label(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return domain.DefaultChannel, nil
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported value %s", raw)
}
