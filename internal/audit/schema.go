package audit

// Schema is applied on open; every statement is idempotent
const Schema = `
CREATE TABLE IF NOT EXISTS allocation_records (
	id            TEXT PRIMARY KEY,
	ts            INTEGER NOT NULL,
	symbol        TEXT NOT NULL,
	timeframe     TEXT NOT NULL,
	market_regime TEXT NOT NULL,
	volatility    REAL NOT NULL,
	base_risk     REAL NOT NULL,
	adjusted_risk REAL NOT NULL,
	drawdown      REAL
);

CREATE INDEX IF NOT EXISTS idx_allocation_records_symbol_ts
	ON allocation_records(symbol, ts);

CREATE TABLE IF NOT EXISTS sizing_results (
	id                         TEXT PRIMARY KEY,
	ts                         INTEGER NOT NULL,
	symbol                     TEXT NOT NULL,
	entry_price                REAL NOT NULL,
	stop_loss                  REAL NOT NULL,
	risk_percentage            REAL NOT NULL,
	risk_amount                REAL NOT NULL,
	position_size_usd          REAL NOT NULL,
	quantity                   REAL NOT NULL,
	account_balance            REAL NOT NULL,
	leverage                   REAL NOT NULL,
	is_small_account           INTEGER NOT NULL,
	liquidity_adjusted         INTEGER NOT NULL,
	original_position_size_usd REAL NOT NULL,
	slippage                   REAL NOT NULL,
	warning                    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sizing_results_symbol_ts
	ON sizing_results(symbol, ts);
`
