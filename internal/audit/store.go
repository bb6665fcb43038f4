package audit

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	rerrors "github.com/ducminhle1904/position-risk-engine/internal/errors"
	"github.com/ducminhle1904/position-risk-engine/internal/risk"
	"github.com/ducminhle1904/position-risk-engine/pkg/id"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

const component = "audit"

// Store persists allocation records and sizing results to SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// SizingEntry is a stored sizing result with its row id and time
type SizingEntry struct {
	ID        string
	Timestamp time.Time
	Result    risk.PositionSizingResult
}

// Open opens (or creates) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, rerrors.NewStorageError(component, "open", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, rerrors.NewStorageError(component, "apply schema", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAllocationRecords stores records in one transaction
func (s *Store) SaveAllocationRecords(ctx context.Context, records []risk.RiskAllocationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rerrors.NewStorageError(component, "begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO allocation_records
		(id, ts, symbol, timeframe, market_regime, volatility, base_risk, adjusted_risk, drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return rerrors.NewStorageError(component, "prepare allocation insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var drawdown sql.NullFloat64
		if r.Drawdown != nil {
			drawdown = sql.NullFloat64{Float64: *r.Drawdown, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			id.At(r.Timestamp), r.Timestamp.UnixNano(), r.Symbol, r.Timeframe, string(r.MarketRegime),
			r.Volatility, r.BaseRisk, r.AdjustedRisk, drawdown,
		); err != nil {
			return rerrors.NewStorageError(component, "insert allocation record", err).
				WithContext("symbol", r.Symbol)
		}
	}

	if err := tx.Commit(); err != nil {
		return rerrors.NewStorageError(component, "commit", err)
	}
	return nil
}

// ListAllocationRecords returns the newest limit records for symbol, oldest
// first. An empty symbol matches all; limit <= 0 returns everything.
func (s *Store) ListAllocationRecords(ctx context.Context, symbol string, limit int) ([]risk.RiskAllocationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, symbol, timeframe, market_regime, volatility, base_risk, adjusted_risk, drawdown
		FROM allocation_records
		WHERE (? = '' OR symbol = ?)
		ORDER BY ts DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, rerrors.NewStorageError(component, "list allocation records", err)
	}
	defer rows.Close()

	var out []risk.RiskAllocationRecord
	for rows.Next() {
		var (
			r        risk.RiskAllocationRecord
			ts       int64
			regime   string
			drawdown sql.NullFloat64
		)
		if err := rows.Scan(&ts, &r.Symbol, &r.Timeframe, &regime, &r.Volatility, &r.BaseRisk, &r.AdjustedRisk, &drawdown); err != nil {
			return nil, rerrors.NewStorageError(component, "scan allocation record", err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		r.MarketRegime = types.MarketRegime(regime)
		if drawdown.Valid {
			v := drawdown.Float64
			r.Drawdown = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, rerrors.NewStorageError(component, "list allocation records", err)
	}

	reverse(out)
	return out, nil
}

// SaveSizingResult stores one sizing result and returns its row id
func (s *Store) SaveSizingResult(ctx context.Context, result risk.PositionSizingResult) (string, error) {
	ts := s.now()
	rowID := id.At(ts)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sizing_results
		(id, ts, symbol, entry_price, stop_loss, risk_percentage, risk_amount, position_size_usd,
		 quantity, account_balance, leverage, is_small_account, liquidity_adjusted,
		 original_position_size_usd, slippage, warning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rowID, ts.UnixNano(), result.Symbol, result.EntryPrice, result.StopLoss, result.RiskPercentage,
		result.RiskAmount, result.PositionSizeUSD, result.Quantity, result.AccountBalance, result.Leverage,
		result.IsSmallAccount, result.LiquidityAdjusted, result.OriginalPositionSizeUSD,
		result.Slippage, result.Warning,
	)
	if err != nil {
		return "", rerrors.NewStorageError(component, "insert sizing result", err).
			WithContext("symbol", result.Symbol)
	}
	return rowID, nil
}

// ListSizingResults returns the newest limit results for symbol, oldest first
func (s *Store) ListSizingResults(ctx context.Context, symbol string, limit int) ([]SizingEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, symbol, entry_price, stop_loss, risk_percentage, risk_amount, position_size_usd,
		       quantity, account_balance, leverage, is_small_account, liquidity_adjusted,
		       original_position_size_usd, slippage, warning
		FROM sizing_results
		WHERE (? = '' OR symbol = ?)
		ORDER BY ts DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, rerrors.NewStorageError(component, "list sizing results", err)
	}
	defer rows.Close()

	var out []SizingEntry
	for rows.Next() {
		var (
			e  SizingEntry
			ts int64
			r  = &e.Result
		)
		if err := rows.Scan(&e.ID, &ts, &r.Symbol, &r.EntryPrice, &r.StopLoss, &r.RiskPercentage,
			&r.RiskAmount, &r.PositionSizeUSD, &r.Quantity, &r.AccountBalance, &r.Leverage,
			&r.IsSmallAccount, &r.LiquidityAdjusted, &r.OriginalPositionSizeUSD, &r.Slippage, &r.Warning,
		); err != nil {
			return nil, rerrors.NewStorageError(component, "scan sizing result", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, rerrors.NewStorageError(component, "list sizing results", err)
	}

	reverse(out)
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
