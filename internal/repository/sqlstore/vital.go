package sqlstore

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

var _ repository.VitalRepository = (*DB)(nil)

// CreateVital stamps RecordedAt with the current time and inserts the reading.
func (db *DB) CreateVital(ctx context.Context, vital *model.Vital) error {
	vital.ID = xid.New().String()
	vital.RecordedAt = now()

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO vitals (id, account_id, vital_type, value, unit, recorded_at)
		 VALUES (:id, :account_id, :vital_type, :value, :unit, :recorded_at)`,
		vital,
	)
	if err != nil {
		vital.ID = ""
		if isForeignKeyViolation(err) {
			return apperror.NotFound("account", vital.AccountID)
		}
		return fmt.Errorf("sqlstore: inserting vital: %w", err)
	}
	return nil
}

// ListVitals returns accountID's readings, newest first, limited to
// filter.VitalType when it is set.
func (db *DB) ListVitals(ctx context.Context, accountID string, filter repository.VitalFilter, opts repository.ListOptions) ([]model.Vital, error) {
	query := `SELECT id, account_id, vital_type, value, unit, recorded_at
		 FROM vitals
		 WHERE account_id = ?`
	args := []any{accountID}
	if filter.VitalType != "" {
		query += " AND vital_type = ?"
		args = append(args, filter.VitalType)
	}

	q, args := db.withPaging(query+" ORDER BY recorded_at DESC, id DESC", args, opts.Limit, opts.Offset)

	vitals := []model.Vital{}
	if err := db.conn.SelectContext(ctx, &vitals, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing vitals for %s: %w", accountID, err)
	}
	return vitals, nil
}
