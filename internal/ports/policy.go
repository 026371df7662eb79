package ports

import "time"

// Policy bounds the dispatch queue and paces the consumer.
type Policy struct {
	SampleCapacity int           `yaml:"sample_capacity"`
	StatusCapacity int           `yaml:"status_capacity"`
	DrainInterval  time.Duration `yaml:"drain_interval"`
}
