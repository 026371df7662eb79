package sink

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "samples")
	ts := time.Now()

	records := []ports.Record{
		{ChannelID: "S1", Timestamp: ts, Value: 21.5},
		{ChannelID: "S1", Timestamp: ts.Add(time.Second), Gap: true},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO samples (channel_id, ts, value, gap) VALUES ($1,$2,$3,$4),($5,$6,$7,$8) ON CONFLICT (channel_id, ts, gap) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(
			"S1", ts, 21.5, false,
			"S1", ts.Add(time.Second), nil, true,
		).
		WillReturnResult(sqlmock.NewResult(2, 2))

	if err := sink.WriteBatch(records); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchNoRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "samples")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS temperature_samples")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	sink := NewTimescaleSink(db, "")
	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewTimescaleSink(db, "samples")
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
