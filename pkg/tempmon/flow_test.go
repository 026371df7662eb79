package tempmon

import (
	"context"
	"testing"
	"time"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig()

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	src := NewExternalSource("flow")
	sink := &stubSink{}

	rt, err := flow.
		StreamIN(
			StreamInTransport(src),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(
			StreamOutSink(sink),
			StreamOutNotifier(&stubNotifier{}),
			StreamOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if wrapped, ok := rt.transport.(*observedTransport); !ok || wrapped.Transport != src {
		t.Fatalf("expected custom transport to be wired")
	}
	if rt.sink != sink {
		t.Fatalf("expected custom sink to be wired")
	}
	if rt.dispatcher == nil {
		t.Fatalf("expected notifier to be wired")
	}
}

func TestStreamInHostSelectsBuiltinTransport(t *testing.T) {
	flow, err := ConfFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	rt, err := flow.StreamIN(StreamInHost("127.0.0.1", 5001)).StreamOUT(StreamOutObservability(&stubObservability{}))
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.transport.Name() != "stream" {
		t.Fatalf("expected stream transport, got %q", rt.transport.Name())
	}
	if flow.Config().Device.Port != 5001 {
		t.Fatalf("expected port override")
	}
}

func TestFlowRunUsesStreamOutOptions(t *testing.T) {
	flow, err := ConfFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var got []Record
	if err := flow.StreamIN(
		StreamInTransport(NewExternalSource("")),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutCallback("cb", func(batch []Record) error {
			got = append(got, batch...)
			return nil
		}),
	); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records without input, got %d", len(got))
	}
}
