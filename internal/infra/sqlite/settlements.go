package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitflow/splitflow/internal/domain"
)

// SaveReport persists a settlement report and its per-channel legs.
// The report row and leg rows are written in one transaction; a duplicate
// payment id replaces nothing (first write wins, matching dedup semantics).
func (d *DB) SaveReport(report domain.SettlementReport) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	deduped := 0
	if report.Deduped {
		deduped = 1
	}
	created := report.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := tx.Exec(`
		INSERT OR IGNORE INTO settlements (payment_id, amount, currency, duration_ms, deduped, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.PaymentID, report.Input.Amount.String(), report.Input.Currency,
		report.DurationMs, deduped, created.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already recorded by an earlier delivery.
		return nil
	}

	for ch, result := range report.Results {
		amount := ""
		if per, ok := report.PerChannel[ch]; ok {
			amount = per.Amount.String()
		}
		if _, err := tx.Exec(`
			INSERT INTO settlement_legs (payment_id, channel, amount, result_kind, reason, note, external_id, status, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, report.PaymentID, string(ch), amount, string(result.Kind),
			result.Reason, result.Note, result.ExternalID, result.Status, result.Error); err != nil {
			return fmt.Errorf("insert leg %s: %w", ch, err)
		}
	}

	return tx.Commit()
}

// GetReport loads a stored report by payment id. Returns (nil, nil) when the
// payment has not been settled.
func (d *DB) GetReport(paymentID string) (*domain.SettlementReport, error) {
	var (
		amountStr, currency, createdStr string
		durationMs                      int64
		deduped                         int
	)
	err := d.db.QueryRow(`
		SELECT amount, currency, duration_ms, deduped, created_at
		FROM settlements WHERE payment_id = ?
	`, paymentID).Scan(&amountStr, &currency, &durationMs, &deduped, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select settlement: %w", err)
	}

	report := domain.SettlementReport{
		PaymentID:  paymentID,
		Input:      moneyFromColumns(amountStr, currency),
		PerChannel: make(map[domain.ChannelKind]domain.Money),
		Results:    make(map[domain.ChannelKind]domain.PayoutResult),
		DurationMs: durationMs,
		Deduped:    deduped == 1,
	}
	report.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)

	rows, err := d.db.Query(`
		SELECT channel, amount, result_kind, reason, note, external_id, status, error
		FROM settlement_legs WHERE payment_id = ?
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("select legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ch, legAmount, kind, reason, note, externalID, status, errMsg string
		if err := rows.Scan(&ch, &legAmount, &kind, &reason, &note, &externalID, &status, &errMsg); err != nil {
			return nil, err
		}
		channel := domain.ChannelKind(ch)
		if legAmount != "" {
			report.PerChannel[channel] = moneyFromColumns(legAmount, currency)
		}
		report.Results[channel] = domain.PayoutResult{
			Kind:       domain.ResultKind(kind),
			Reason:     reason,
			Note:       note,
			ExternalID: externalID,
			Status:     status,
			Error:      errMsg,
		}
	}
	if len(report.PerChannel) == 0 {
		report.PerChannel = nil
	}
	return &report, rows.Err()
}

// ListReports returns the most recent settlements, newest first.
func (d *DB) ListReports(limit int) ([]domain.SettlementReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT payment_id FROM settlements ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select settlements: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reports := make([]domain.SettlementReport, 0, len(ids))
	for _, id := range ids {
		r, err := d.GetReport(id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports, nil
}

func moneyFromColumns(amount, currency string) domain.Money {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		dec = decimal.Zero
	}
	return domain.NewMoney(dec, currency)
}
