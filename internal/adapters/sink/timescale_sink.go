package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	if table == "" {
		table = "temperature_samples"
	}
	return &TimescaleSink{db: db, tableName: table}
}

// OpenTimescale connects through lib/pq and checks the connection.
func OpenTimescale(ctx context.Context, connString, table string) (*TimescaleSink, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("open timescale: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping timescale: %w", err)
	}
	return NewTimescaleSink(db, table), nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

// EnsureSchema creates the archive table when it does not exist.
// Gap markers are stored with a NULL value.
func (t *TimescaleSink) EnsureSchema(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+t.tableName+
		" (channel_id TEXT NOT NULL, ts TIMESTAMPTZ NOT NULL, value DOUBLE PRECISION, gap BOOLEAN NOT NULL DEFAULT FALSE,"+
		" UNIQUE (channel_id, ts, gap))")
	return err
}

func (t *TimescaleSink) WriteBatch(records []ports.Record) error {
	if len(records) == 0 {
		return nil
	}

	// re-sent rows are ignored via the unique key
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (channel_id, ts, value, gap) VALUES ")

	args := make([]any, 0, len(records)*4)
	for i, r := range records {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4))

		var value sql.NullFloat64
		if !r.Gap {
			value = sql.NullFloat64{Float64: r.Value, Valid: true}
		}
		args = append(args, r.ChannelID, r.Timestamp, value, r.Gap)
	}

	b.WriteString(" ON CONFLICT (channel_id, ts, gap) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

func (t *TimescaleSink) Close() error {
	return t.db.Close()
}

var _ ports.Sink = (*TimescaleSink)(nil)
