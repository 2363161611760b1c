package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

var _ repository.HealthRecordRepository = (*DB)(nil)

// CreateHealthRecord inserts a record for record.AccountID. An unknown owner
// is rejected by the foreign key and reported as apperror.ErrNotFound.
func (db *DB) CreateHealthRecord(ctx context.Context, record *model.HealthRecord) error {
	record.ID = xid.New().String()
	record.CreatedAt = now()

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO health_records (id, account_id, title, description, record_type, record_date, created_at)
		 VALUES (:id, :account_id, :title, :description, :record_type, :record_date, :created_at)`,
		record,
	)
	if err != nil {
		record.ID = ""
		if isForeignKeyViolation(err) {
			return apperror.NotFound("account", record.AccountID)
		}
		return fmt.Errorf("sqlstore: inserting health record: %w", err)
	}
	return nil
}

// ListHealthRecords returns only accountID's records matching filter, newest
// record date first. Records sharing a date fall back to creation order,
// newest first.
func (db *DB) ListHealthRecords(ctx context.Context, accountID string, filter repository.RecordFilter, opts repository.ListOptions) ([]model.HealthRecord, error) {
	where := []string{"account_id = ?"}
	args := []any{accountID}
	if filter.RecordType != "" {
		where = append(where, "record_type = ?")
		args = append(args, filter.RecordType)
	}
	if filter.From != nil {
		where = append(where, "record_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "record_date <= ?")
		args = append(args, filter.To.UTC())
	}

	q, args := db.withPaging(
		`SELECT id, account_id, title, description, record_type, record_date, created_at
		 FROM health_records
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY record_date DESC, created_at DESC, id DESC`,
		args, opts.Limit, opts.Offset,
	)

	records := []model.HealthRecord{}
	if err := db.conn.SelectContext(ctx, &records, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing health records for %s: %w", accountID, err)
	}
	return records, nil
}
