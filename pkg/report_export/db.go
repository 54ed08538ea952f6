package report_export

import (
	"database/sql"
	"fmt"
	"time"
)

// StoreReport inserts one run's report rows into the entitlement table in
// a single transaction, tagged with the run timestamp. Rows follow the CSV
// column order: first name, last name, unique id, joined entitlements,
// email, app owner.
func StoreReport(db *sql.DB, rows [][]string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %v", err)
	}

	query := `
		INSERT INTO entitlement (
			first_name, last_name, unique_id, entitlement, email, app_owner, collected_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	collectedAt := time.Now().Format("2006-01-02 15:04:05")
	for _, row := range rows {
		if len(row) != 6 {
			tx.Rollback()
			return fmt.Errorf("unexpected row width %d", len(row))
		}
		if _, err := stmt.Exec(row[0], row[1], row[2], row[3], row[4], row[5], collectedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert report row: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}
