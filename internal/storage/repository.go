package storage

import (
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/itchpulse/internal/domain/models"
)

// ReplayRepository defines the contract for persisting and querying one
// capture's reconstruction output.
type ReplayRepository interface {
	InsertTradesBatch(trades []models.Trade) error
	InsertOpenOrdersBatch(orders []models.OpenOrder) error
	InsertVWAPBatch(samples []models.VWAPSample) error
	HasReplayForFile(filename string) (bool, error)
	UpsertReplayLog(filename string, frames uint64, trades, samples int) error
	DeleteReplayByFile(filename string) error
	GetVWAPBySymbol(symbol string, fromHour, toHour *int) ([]models.VWAPSample, error)
}

type replayRepository struct {
	db *sql.DB
}

func NewReplayRepository(db *sql.DB) ReplayRepository {
	return &replayRepository{db: db}
}

// copyBatch runs one COPY-based bulk insert inside a transaction.
func (r *replayRepository) copyBatch(table string, cols []string, rows [][]interface{}) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(table, cols...))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// InsertTradesBatch bulk-inserts realized trades in a single transaction.
func (r *replayRepository) InsertTradesBatch(trades []models.Trade) error {
	rows := make([][]interface{}, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []interface{}{
			t.Symbol,
			int64(t.SecurityID),
			int64(t.MatchNumber),
			int64(t.Timestamp),
			int64(t.Quantity),
			t.Price,
			t.SourceFile,
		})
	}
	return r.copyBatch("trades",
		[]string{"symbol", "security_id", "match_number", "ts", "quantity", "price", "source_file"},
		rows)
}

// InsertOpenOrdersBatch bulk-inserts the orders still open at end of capture.
func (r *replayRepository) InsertOpenOrdersBatch(orders []models.OpenOrder) error {
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.Symbol,
			int64(o.SecurityID),
			int64(o.OrderRef),
			int64(o.Timestamp),
			int64(o.Quantity),
			o.Price,
			o.SourceFile,
		})
	}
	return r.copyBatch("open_orders",
		[]string{"symbol", "security_id", "order_ref", "ts", "quantity", "price", "source_file"},
		rows)
}

// InsertVWAPBatch bulk-inserts the hourly cumulative VWAP series.
func (r *replayRepository) InsertVWAPBatch(samples []models.VWAPSample) error {
	rows := make([][]interface{}, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []interface{}{
			s.Symbol,
			int64(s.SecurityID),
			s.HourBucket,
			s.VWAP,
			s.SourceFile,
		})
	}
	return r.copyBatch("vwap_samples",
		[]string{"symbol", "security_id", "hour_bucket", "vwap", "source_file"},
		rows)
}

// HasReplayForFile checks whether a capture file was already processed.
func (r *replayRepository) HasReplayForFile(filename string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM replay_log WHERE source_file = $1)`, filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertReplayLog records (or updates) the processing entry for one capture.
func (r *replayRepository) UpsertReplayLog(filename string, frames uint64, trades, samples int) error {
	_, err := r.db.Exec(`
		INSERT INTO replay_log (source_file, frame_count, trade_count, sample_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_file)
		DO UPDATE SET frame_count = EXCLUDED.frame_count,
					  trade_count = EXCLUDED.trade_count,
					  sample_count = EXCLUDED.sample_count,
					  replayed_at = NOW()
	`, filename, int64(frames), trades, samples)
	return err
}

// DeleteReplayByFile removes all persisted output of one capture file.
func (r *replayRepository) DeleteReplayByFile(filename string) error {
	for _, table := range []string{"trades", "open_orders", "vwap_samples"} {
		if _, err := r.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE source_file = $1`, table), filename); err != nil {
			return err
		}
	}
	return nil
}

// GetVWAPBySymbol returns the VWAP series for one symbol, optionally bounded
// to an hour-bucket range. A nil result with nil error means no data.
func (r *replayRepository) GetVWAPBySymbol(symbol string, fromHour, toHour *int) ([]models.VWAPSample, error) {
	conditions := "symbol = $1"
	args := []interface{}{symbol}
	if fromHour != nil {
		conditions += fmt.Sprintf(" AND hour_bucket >= $%d", len(args)+1)
		args = append(args, *fromHour)
	}
	if toHour != nil {
		conditions += fmt.Sprintf(" AND hour_bucket <= $%d", len(args)+1)
		args = append(args, *toHour)
	}

	query := fmt.Sprintf(`
		SELECT symbol, hour_bucket, vwap
		FROM vwap_samples
		WHERE %s
		ORDER BY hour_bucket
	`, conditions)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.VWAPSample
	for rows.Next() {
		var s models.VWAPSample
		if err := rows.Scan(&s.Symbol, &s.HourBucket, &s.VWAP); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
