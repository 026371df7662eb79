package ports

import "time"

// Record is one buffered entry as persisted by an archive sink.
// Gap is set for disconnect markers, whose Value is NaN.
type Record struct {
	ChannelID string
	Timestamp time.Time
	Value     float64
	Gap       bool
}

// Sink archives batches drained by the consumer.
type Sink interface {
	WriteBatch(records []Record) error
	Name() string
}
