package repo

import "context"

const addressColumns = `id, user_id, label, street, city, state, postal_code, country, is_default`

func scanAddress(row interface{ Scan(...any) error }) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault)
	if err != nil {
		return Address{}, mapNoRows(err)
	}
	return a, nil
}

// CreateAddress adds an address-book entry.
func (q *Queries) CreateAddress(ctx context.Context, a Address) (Address, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, label, street, city, state, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+addressColumns,
		a.UserID, a.Label, a.Street, a.City, a.State, a.PostalCode, a.Country, a.IsDefault)
	return scanAddress(row)
}

// GetAddress loads one address owned by the given user.
func (q *Queries) GetAddress(ctx context.Context, addressID, userID string) (Address, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	return scanAddress(row)
}

// ListAddresses returns the user's address book.
func (q *Queries) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAddress replaces a user's address fields.
func (q *Queries) UpdateAddress(ctx context.Context, a Address) (Address, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addresses SET label = $1, street = $2, city = $3, state = $4,
		       postal_code = $5, country = $6, is_default = $7, updated_at = now()
		WHERE id = $8 AND user_id = $9
		RETURNING `+addressColumns,
		a.Label, a.Street, a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.ID, a.UserID)
	return scanAddress(row)
}

// DeleteAddress removes an address owned by the given user.
func (q *Queries) DeleteAddress(ctx context.Context, addressID, userID string) error {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
