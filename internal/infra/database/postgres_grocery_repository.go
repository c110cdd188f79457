// internal/infra/database/postgres_grocery_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homestock_notifier/internal/domain/grocery"
	"homestock_notifier/internal/domain/user"
)

// Custom errors specific to grocery repository
var ErrGroceryNotFound = fmt.Errorf("grocery not found")

type PostgresGroceryRepository struct {
	db *sql.DB
}

func NewPostgresGroceryRepository(db *sql.DB) *PostgresGroceryRepository {
	return &PostgresGroceryRepository{db: db}
}

// FindExpiringUnnotified returns groceries expiring on or before windowEnd (already expired
// ones included) that still need a notification. Owners are joined; a dangling owner
// comes back as a nil Owner with OwnerID still set.
func (r *PostgresGroceryRepository) FindExpiringUnnotified(ctx context.Context, windowEnd time.Time) ([]*grocery.Grocery, error) {
	query := `SELECT g.id, g.name, g.expiry_date, g.user_id, g.notification_sent,
                      u.id, u.name, u.email, u.phone_number, u.created_at, u.updated_at
               FROM groceries g
               LEFT JOIN users u ON u.id = g.user_id
               WHERE g.expiry_date <= $1
                 AND g.notification_sent IS NOT TRUE
                 AND g.user_id IS NOT NULL
               ORDER BY g.expiry_date ASC, g.id ASC`
	rows, err := r.db.QueryContext(ctx, query, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("error querying expiring groceries: %w", err)
	}
	defer rows.Close()
	return scanGroceries(rows)
}

// Helper to scan grocery rows joined with their owner
func scanGroceries(rows *sql.Rows) ([]*grocery.Grocery, error) {
	groceries := make([]*grocery.Grocery, 0)
	for rows.Next() {
		var (
			g                          grocery.Grocery
			ownerID                    sql.NullString
			uID, uName, uEmail, uPhone sql.NullString
			uCreatedAt, uUpdatedAt     sql.NullTime
		)
		if err := rows.Scan(
			&g.ID, &g.Name, &g.ExpiryDate, &ownerID, &g.NotificationSent,
			&uID, &uName, &uEmail, &uPhone, &uCreatedAt, &uUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning grocery row: %w", err)
		}
		g.OwnerID = ownerID.String
		if uID.Valid {
			g.Owner = &user.User{
				ID:          uID.String,
				Name:        uName.String,
				Email:       uEmail.String,
				PhoneNumber: uPhone,
				CreatedAt:   uCreatedAt.Time,
				UpdatedAt:   uUpdatedAt.Time,
			}
		}
		groceries = append(groceries, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grocery rows: %w", err)
	}
	return groceries, nil
}

// MarkNotified sets the notification flag of one grocery in a single statement.
func (r *PostgresGroceryRepository) MarkNotified(ctx context.Context, id string) error {
	query := `UPDATE groceries
               SET notification_sent = TRUE, updated_at = NOW()
               WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error marking grocery as notified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrGroceryNotFound
	}
	return nil
}
