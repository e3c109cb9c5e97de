package repo

import "context"

func scanZone(row interface{ Scan(...any) error }) (Zone, error) {
	var z Zone
	var cost, carbon string
	if err := row.Scan(&z.ID, &z.Name, &cost, &carbon); err != nil {
		return Zone{}, mapNoRows(err)
	}
	var err error
	if z.Cost, err = parseDec(cost); err != nil {
		return Zone{}, err
	}
	if z.FlatCarbon, err = parseDec(carbon); err != nil {
		return Zone{}, err
	}
	return z, nil
}

// GetZoneByName loads a transport zone by its configured name.
func (q *Queries) GetZoneByName(ctx context.Context, name string) (Zone, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, name, cost::text, flat_carbon::text FROM transport_zones WHERE name = $1`, name)
	return scanZone(row)
}

// GetZoneByID loads a transport zone by primary key.
func (q *Queries) GetZoneByID(ctx context.Context, id string) (Zone, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, name, cost::text, flat_carbon::text FROM transport_zones WHERE id = $1`, id)
	return scanZone(row)
}

// GetTaxRateByName loads the active tax rate.
func (q *Queries) GetTaxRateByName(ctx context.Context, name string) (TaxRate, error) {
	var t TaxRate
	var rate string
	err := q.db.QueryRow(ctx,
		`SELECT id, name, rate::text, country, state FROM tax_rates WHERE name = $1`, name).
		Scan(&t.ID, &t.Name, &rate, &t.Country, &t.State)
	if err != nil {
		return TaxRate{}, mapNoRows(err)
	}
	if t.Rate, err = parseDec(rate); err != nil {
		return TaxRate{}, err
	}
	return t, nil
}
