// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	side TEXT NOT NULL,
	units INTEGER NOT NULL,
	price REAL NOT NULL,
	time TEXT NOT NULL,
	margin_call INTEGER NOT NULL,
	commission REAL NOT NULL,
	spread REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
	run_id TEXT NOT NULL,
	time TEXT NOT NULL,
	total_value REAL NOT NULL,
	deposits REAL NOT NULL,
	cash REAL NOT NULL,
	margin_used REAL NOT NULL,
	total_expenses REAL NOT NULL,
	total_trades INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_cycles_run_time ON cycles(run_id, time);
`
