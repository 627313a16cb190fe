package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	trades := filepath.Join(dir, "trades.csv")
	cycles := filepath.Join(dir, "cycles.csv")

	j, err := NewCSV(trades, cycles)
	require.NoError(t, err)

	return j, trades, cycles
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, trades, cycles := newTestCSV(t)
	require.NoError(t, j.Close())

	tr := readCSV(t, trades)
	require.Len(t, tr, 1)
	assert.Equal(t, "trade_id", tr[0][0])
	assert.Equal(t, "spread", tr[0][len(tr[0])-1])

	cy := readCSV(t, cycles)
	require.Len(t, cy, 1)
	assert.Equal(t, "run_id", cy[0][0])
	assert.Equal(t, "total_trades", cy[0][len(cy[0])-1])
}

func TestCSVJournalRecords(t *testing.T) {
	t.Parallel()

	j, trades, cycles := newTestCSV(t)

	require.NoError(t, j.RecordTrade(testTrade("T1", "R1")))
	require.NoError(t, j.RecordCycle(CycleSnapshot{
		RunID: "R1", Time: "2024-01-02 00:00:00",
		TotalValue: 1000, Deposits: 1000, Cash: 1000,
	}))
	require.NoError(t, j.Close())

	tr := readCSV(t, trades)
	require.Len(t, tr, 2)
	assert.Equal(t, "T1", tr[1][0])
	assert.Equal(t, "SPY", tr[1][2])
	assert.Equal(t, "100", tr[1][5])
	assert.Equal(t, "412.340000", tr[1][6])

	cy := readCSV(t, cycles)
	require.Len(t, cy, 2)
	assert.Equal(t, "R1", cy[1][0])
	assert.Equal(t, "1000.000000", cy[1][2])
}
