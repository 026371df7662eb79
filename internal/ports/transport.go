package ports

import "github.com/NoahOriano/SeniorDesignTeam8/internal/domain"

// Transport pulls readings from the device and pushes them into sink until stopped.
type Transport interface {
	Start(sink EventSink) error
	Stop() error
	State() domain.ConnectionState
	Name() string
}

// SampleObserver is called inline by a transport after each decoded sample.
type SampleObserver interface {
	OnSample(s domain.Sample)
}

// SampleObserverFunc adapts a function to SampleObserver.
type SampleObserverFunc func(domain.Sample)

func (f SampleObserverFunc) OnSample(s domain.Sample) { f(s) }
