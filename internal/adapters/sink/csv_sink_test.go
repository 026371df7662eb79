package sink

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

func TestCSVSinkRotatesDaily(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir)
	require.NoError(t, err)
	defer s.Close()

	day1 := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	day2 := day1.Add(2 * time.Second)
	require.NoError(t, s.WriteBatch([]ports.Record{
		{ChannelID: "S1", Timestamp: day1, Value: 21.25},
		{ChannelID: "S1", Timestamp: day2, Gap: true},
		{ChannelID: "S2", Timestamp: day2, Value: -3},
	}))
	require.NoError(t, s.WriteBatch([]ports.Record{{ChannelID: "S2", Timestamp: day2.Add(time.Second), Value: -2.5}}))

	days, err := s.Days()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-02", "2024-03-01"}, days)

	first, err := LoadCSVFile(filepath.Join(dir, "2024-03-01.csv"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 21.25, first[0].Value)

	second, err := LoadCSVFile(filepath.Join(dir, "2024-03-02.csv"))
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.True(t, second[0].Gap)
	assert.Equal(t, "S2", second[1].ChannelID)
	assert.Equal(t, -2.5, second[2].Value)
}

func TestCSVSinkAppendsWithoutDuplicateHeader(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		s, err := NewCSVSink(dir)
		require.NoError(t, err)
		require.NoError(t, s.WriteBatch([]ports.Record{{ChannelID: "S1", Timestamp: ts.Add(time.Duration(i) * time.Second), Value: float64(i)}}))
		require.NoError(t, s.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, "2024-03-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "time,channel,value\n2024-03-01T08:00:00Z,S1,0\n2024-03-01T08:00:01Z,S1,1\n", string(data))
}

func TestCSVSinkRequiresDir(t *testing.T) {
	_, err := NewCSVSink("")
	assert.Error(t, err)
}
