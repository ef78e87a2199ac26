package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caterline/caterline/internal/domain"
)

const addressColumns = `address_id, customer_id, tag, pincode, line1, line2, location,
	COALESCE(ship_to_name, ''), COALESCE(ship_to_phone_number, ''), created_at`

func (r *Repository) CreateAddress(ctx context.Context, addr *domain.Address) (*domain.Address, error) {
	query := `INSERT INTO address (customer_id, tag, pincode, line1, line2, location, ship_to_name, ship_to_phone_number, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	          RETURNING ` + addressColumns

	return scanAddress(r.db.QueryRowContext(ctx, query,
		addr.CustomerID, addr.Tag, addr.Pincode, addr.Line1, addr.Line2,
		addr.Location, addr.ShipToName, addr.ShipToPhone))
}

func (r *Repository) GetAddressByID(ctx context.Context, id int64) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM address WHERE address_id = $1`
	return scanAddress(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) ListAddressesByCustomer(ctx context.Context, customerID int64) ([]*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM address WHERE customer_id = $1 ORDER BY address_id`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addrs []*domain.Address
	for rows.Next() {
		var a domain.Address
		if e2 := rows.Scan(&a.ID, &a.CustomerID, &a.Tag, &a.Pincode, &a.Line1, &a.Line2,
			&a.Location, &a.ShipToName, &a.ShipToPhone, &a.CreatedAt); e2 != nil {
			return nil, fmt.Errorf("scan address: %w", e2)
		}
		addrs = append(addrs, &a)
	}
	if e3 := rows.Err(); e3 != nil {
		return nil, fmt.Errorf("address iteration: %w", e3)
	}
	return addrs, nil
}

func (r *Repository) UpdateAddress(ctx context.Context, addr *domain.Address) (*domain.Address, error) {
	query := `UPDATE address SET tag = $2, pincode = $3, line1 = $4, line2 = $5
	          WHERE address_id = $1
	          RETURNING ` + addressColumns

	return scanAddress(r.db.QueryRowContext(ctx, query,
		addr.ID, addr.Tag, addr.Pincode, addr.Line1, addr.Line2))
}

func scanAddress(row *sql.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.CustomerID, &a.Tag, &a.Pincode, &a.Line1, &a.Line2,
		&a.Location, &a.ShipToName, &a.ShipToPhone, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan address: %w", err)
	}
	return &a, nil
}
