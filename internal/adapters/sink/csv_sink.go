package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	csvFileLayout = "2006-01-02"
	csvGapValue   = "gap"
)

// CSVSink appends records to one file per UTC day, named YYYY-MM-DD.csv:
//
//	time,channel,value
//
// Gap markers carry the literal value "gap".
type CSVSink struct {
	mu      sync.Mutex
	dir     string
	current *os.File
	writer  *csv.Writer
	curDate string
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("csv sink: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv sink: create dir: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

func (c *CSVSink) Name() string { return "csv" }

func (c *CSVSink) WriteBatch(records []ports.Record) error {
	if len(records) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		ts := r.Timestamp.UTC()
		if err := c.rotate(ts.Format(csvFileLayout)); err != nil {
			return err
		}
		value := csvGapValue
		if !r.Gap {
			value = strconv.FormatFloat(r.Value, 'f', -1, 64)
		}
		if err := c.writer.Write([]string{ts.Format(time.RFC3339Nano), r.ChannelID, value}); err != nil {
			return fmt.Errorf("csv sink: write: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVSink) rotate(date string) error {
	if c.curDate == date && c.current != nil {
		return nil
	}
	c.closeLocked()
	path := filepath.Join(c.dir, date+".csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csv sink: open %s: %w", path, err)
	}
	c.current = f
	c.writer = csv.NewWriter(f)
	c.curDate = date

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		if err := c.writer.Write([]string{"time", "channel", "value"}); err != nil {
			return fmt.Errorf("csv sink: header: %w", err)
		}
	}
	return nil
}

func (c *CSVSink) closeLocked() {
	if c.writer != nil {
		c.writer.Flush()
	}
	if c.current != nil {
		_ = c.current.Close()
		c.current = nil
	}
}

// Close flushes and closes the current file.
func (c *CSVSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

// Days lists archived dates, newest first.
func (c *CSVSink) Days() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if strings.HasSuffix(name, ".csv") {
			days = append(days, strings.TrimSuffix(name, ".csv"))
		}
	}
	return days, nil
}

// LoadCSVFile reads an archive file back into records.
func LoadCSVFile(path string) ([]ports.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := make([]ports.Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "time" {
			continue
		}
		if len(row) != 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 fields, got %d", path, i+1, len(row))
		}
		ts, err := time.Parse(time.RFC3339Nano, row[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		rec := ports.Record{ChannelID: row[1], Timestamp: ts}
		if row[2] == csvGapValue {
			rec.Gap = true
		} else if rec.Value, err = strconv.ParseFloat(row[2], 64); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ ports.Sink = (*CSVSink)(nil)
