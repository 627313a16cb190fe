package journal

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func testTrade(id, run string) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		RunID:      run,
		Symbol:     "SPY",
		Action:     "OPEN",
		Side:       "LONG",
		Units:      100,
		Price:      412.34,
		Time:       "2024-01-02 00:00:00",
		Commission: 2.5,
		Spread:     0.21,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','cycles')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["cycles"])
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	rec := testTrade("T1", "R1")
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListTradesByRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	require.NoError(t, j.RecordTrade(testTrade("T1", "R1")))
	require.NoError(t, j.RecordTrade(testTrade("T2", "R1")))
	require.NoError(t, j.RecordTrade(testTrade("T3", "R2")))

	recs, err := j.ListTradesByRun("R1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "T1", recs[0].TradeID)
	assert.Equal(t, "T2", recs[1].TradeID)

	recs, err = j.ListTradesByRun("R9")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteCycles(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	snaps := []CycleSnapshot{
		{RunID: "R1", Time: "2024-01-02 00:00:00", TotalValue: 1000, Deposits: 1000, Cash: 1000},
		{RunID: "R1", Time: "2024-01-03 00:00:00", TotalValue: 1010, Deposits: 1000, Cash: 10, MarginUsed: 0, TotalTrades: 1},
		{RunID: "R2", Time: "2024-01-02 00:00:00", TotalValue: 500, Deposits: 500, Cash: 500},
	}
	for _, s := range snaps {
		require.NoError(t, j.RecordCycle(s))
	}

	got, err := j.ListCyclesByRun("R1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, snaps[0], got[0])
	assert.Equal(t, snaps[1], got[1])

	last, err := j.LastRunID()
	require.NoError(t, err)
	assert.Equal(t, "R2", last)

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Equal(t, []string{"R2", "R1"}, runs)
}
