package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/ecobazaarx/backend-eco/internal/loyalty"
)

const userColumns = `id, name, email, password_hash, roles, referral_code, referrer_id,
	eco_points, rank_level, rank_level_achieved_at, total_order_count,
	lifetime_total_carbon::text, lifetime_average_carbon::text, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var lifetimeTotal, lifetimeAvg string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Roles, &u.ReferralCode, &u.ReferrerID,
		&u.EcoPoints, &u.RankLevel, &u.RankLevelAchievedAt, &u.TotalOrderCount,
		&lifetimeTotal, &lifetimeAvg, &u.CreatedAt,
	)
	if err != nil {
		return User{}, mapNoRows(err)
	}
	if u.LifetimeTotalCarbon, err = parseDec(lifetimeTotal); err != nil {
		return User{}, err
	}
	if u.LifetimeAverageCarbon, err = parseDec(lifetimeAvg); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateUser inserts a user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, name, email, passwordHash, referralCode string, referrerID *string) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, referral_code, referrer_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		name, email, passwordHash, referralCode, referrerID)
	return scanUser(row)
}

// GetUserByEmail loads a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID loads a user by id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByReferralCode resolves a referral code to its owner.
func (q *Queries) GetUserByReferralCode(ctx context.Context, code string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

// GetUserForUpdate loads a user with a row lock so loyalty updates inside
// the checkout transaction do not race.
func (q *Queries) GetUserForUpdate(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

// GrantPoints adds a positive delta to the balance and writes the matching
// ledger entry. A non-positive delta is a no-op.
func (q *Queries) GrantPoints(ctx context.Context, userID string, delta int, reason string) error {
	if delta <= 0 {
		return nil
	}
	if _, err := q.db.Exec(ctx,
		`UPDATE users SET eco_points = eco_points + $1, updated_at = now() WHERE id = $2`,
		delta, userID); err != nil {
		return fmt.Errorf("grant points: %w", err)
	}
	return q.insertLedger(ctx, userID, delta, reason)
}

// RedeemPoints subtracts points with a balance guard. The conditional UPDATE
// makes concurrent redemptions safe: if another transaction drained the
// balance first, zero rows match and ErrInsufficientPoints is returned.
func (q *Queries) RedeemPoints(ctx context.Context, userID string, points int, reason string) error {
	if points <= 0 {
		return nil
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET eco_points = eco_points - $1, updated_at = now()
		 WHERE id = $2 AND eco_points >= $1`,
		points, userID)
	if err != nil {
		return fmt.Errorf("redeem points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrInsufficientPoints
	}
	return q.insertLedger(ctx, userID, -points, reason)
}

func (q *Queries) insertLedger(ctx context.Context, userID string, delta int, reason string) error {
	if _, err := q.db.Exec(ctx,
		`INSERT INTO eco_point_ledger (user_id, points_changed, reason) VALUES ($1, $2, $3)`,
		userID, delta, reason); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries returns a user's point history, newest first.
func (q *Queries) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]loyalty.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, points_changed, reason, created_at
		FROM eco_point_ledger WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []loyalty.Entry
	for rows.Next() {
		var e loyalty.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.PointsChanged, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumLedger totals a user's ledger entries. Equal to the balance by invariant.
func (q *Queries) SumLedger(ctx context.Context, userID string) (int, error) {
	var sum int
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(points_changed), 0) FROM eco_point_ledger WHERE user_id = $1`,
		userID).Scan(&sum)
	return sum, err
}

// UpdateLoyaltyProgress writes the rank engine output in one statement.
func (q *Queries) UpdateLoyaltyProgress(ctx context.Context, userID string, p loyalty.Progress) error {
	var achievedAt *time.Time
	if !p.LevelAchievedAt.IsZero() {
		achievedAt = &p.LevelAchievedAt
	}
	_, err := q.db.Exec(ctx, `
		UPDATE users SET
			total_order_count = $1,
			lifetime_total_carbon = $2::numeric,
			lifetime_average_carbon = $3::numeric,
			rank_level = $4,
			rank_level_achieved_at = COALESCE($5, rank_level_achieved_at),
			updated_at = now()
		WHERE id = $6`,
		p.OrderCount,
		p.LifetimeCarbon.String(),
		p.AverageCarbon.String(),
		p.Level,
		achievedAt,
		userID)
	if err != nil {
		return fmt.Errorf("update loyalty progress: %w", err)
	}
	return nil
}

// Progress assembles the loyalty state carried on a user row.
func (u User) Progress() loyalty.Progress {
	p := loyalty.Progress{
		OrderCount:     u.TotalOrderCount,
		LifetimeCarbon: u.LifetimeTotalCarbon,
		AverageCarbon:  u.LifetimeAverageCarbon,
		Level:          u.RankLevel,
	}
	if u.RankLevelAchievedAt != nil {
		p.LevelAchievedAt = *u.RankLevelAchievedAt
	}
	return p
}
