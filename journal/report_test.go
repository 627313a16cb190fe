package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportDerived(t *testing.T) {
	r := RunReport{
		Deposits:          1000,
		FinalValue:        1250,
		CommissionExpense: 10,
		SpreadExpense:     5,
	}

	assert.Equal(t, 250.0, r.NetPL())
	assert.Equal(t, 25.0, r.ReturnPct())
	assert.Equal(t, 15.0, r.TotalExpenses())

	empty := RunReport{}
	assert.Equal(t, 0.0, empty.ReturnPct())
}

func TestRunReportWriteOrg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.org")

	r := RunReport{
		RunID:      "R1",
		Strategy:   "buy-and-hold",
		Symbols:    []string{"SPY"},
		Start:      "2024-01-02",
		End:        "2024-06-28",
		Deposits:   1000,
		FinalValue: 1100,
	}
	require.NoError(t, r.WriteOrg(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "BACKTEST: buy-and-hold SPY")
	assert.Contains(t, out, ":RUN_ID:      R1")
	assert.Contains(t, out, ":NET_PL:      100.00")
	assert.Contains(t, out, ":RETURN_PCT:  10.00")
}
