package sqlite

import (
	"fmt"
	"time"
)

// ReservePayment atomically records a payment id as seen. Returns true when
// this call made the reservation (first delivery), false when the id was
// already reserved. Expired reservations are reclaimed, bounding growth to
// the upstream rail's own dedup window.
func (d *DB) ReservePayment(paymentID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	// Reclaim anything past its eviction window first so a legitimately
	// re-settled id (outside the window) is not blocked forever.
	if _, err := d.db.Exec(`
		DELETE FROM payment_reservations WHERE expires_at <= ?
	`, now.Format(time.RFC3339)); err != nil {
		return false, fmt.Errorf("purge reservations: %w", err)
	}

	res, err := d.db.Exec(`
		INSERT OR IGNORE INTO payment_reservations (payment_id, reserved_at, expires_at)
		VALUES (?, ?, ?)
	`, paymentID, now.Format(time.RFC3339), now.Add(ttl).Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("reserve payment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReservationCount returns the number of live reservations (test/diagnostic).
func (d *DB) ReservationCount() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM payment_reservations`).Scan(&n)
	return n, err
}
