// Package postgres implements the store contract on PostgreSQL via the
// pgx stdlib driver. Uniqueness rules (one session per station, one waitlist
// entry and one reservation per user) are enforced by primary keys so racing
// transactions resolve to store.ErrDuplicate for the loser.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/store"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second

	uniqueViolation = "23505"
)

// Store is the PostgreSQL-backed implementation of store.Store.
type Store struct {
	db        *sql.DB
	txTimeout time.Duration
}

// Open creates a pgx/stdlib backed pool, validates the connection and
// returns the store. txTimeout bounds every Atomic unit.
func Open(dsn string, txTimeout time.Duration) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: empty DSN")
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnLifetime)
	db.SetConnMaxIdleTime(defaultConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, txTimeout: txTimeout}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Atomic runs fn inside one database transaction with a bounded deadline.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicate
	}
	return err
}

func (t *pgTx) SessionByStation(ctx context.Context, station int) (*models.Session, error) {
	const query = `
		SELECT user_alias, vehicle, battery_pct, station, start_time, pin_hash
		FROM charging_sessions
		WHERE station = $1
	`
	var s models.Session
	err := t.tx.QueryRowContext(ctx, query, station).Scan(
		&s.UserAlias,
		&s.Vehicle,
		&s.BatteryPct,
		&s.Station,
		&s.StartTime,
		&s.PINHash,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (t *pgTx) Sessions(ctx context.Context) ([]models.Session, error) {
	const query = `
		SELECT user_alias, vehicle, battery_pct, station, start_time, pin_hash
		FROM charging_sessions
		ORDER BY station
	`
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.UserAlias,
			&s.Vehicle,
			&s.BatteryPct,
			&s.Station,
			&s.StartTime,
			&s.PINHash,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (t *pgTx) InsertSession(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO charging_sessions (user_alias, vehicle, battery_pct, station, start_time, pin_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.ExecContext(ctx, query,
		session.UserAlias,
		session.Vehicle,
		session.BatteryPct,
		session.Station,
		session.StartTime,
		session.PINHash,
	)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) DeleteSession(ctx context.Context, station int) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM charging_sessions WHERE station = $1`, station)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (t *pgTx) Waitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	// seq breaks request-time ties in insertion order.
	const query = `
		SELECT user_alias, vehicle, battery_pct, requested_at
		FROM waitlist_entries
		ORDER BY requested_at, seq
	`
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		if err := rows.Scan(&e.UserAlias, &e.Vehicle, &e.BatteryPct, &e.RequestedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *pgTx) WaitlistEntryByUser(ctx context.Context, userAlias string) (*models.WaitlistEntry, error) {
	const query = `
		SELECT user_alias, vehicle, battery_pct, requested_at
		FROM waitlist_entries
		WHERE user_alias = $1
	`
	var e models.WaitlistEntry
	err := t.tx.QueryRowContext(ctx, query, userAlias).Scan(&e.UserAlias, &e.Vehicle, &e.BatteryPct, &e.RequestedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

func (t *pgTx) InsertWaitlistEntry(ctx context.Context, entry models.WaitlistEntry) error {
	const query = `
		INSERT INTO waitlist_entries (user_alias, vehicle, battery_pct, requested_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := t.tx.ExecContext(ctx, query,
		entry.UserAlias,
		entry.Vehicle,
		entry.BatteryPct,
		entry.RequestedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) DeleteWaitlistEntry(ctx context.Context, userAlias string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE user_alias = $1`, userAlias)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (t *pgTx) Reservations(ctx context.Context) ([]models.Reservation, error) {
	const query = `
		SELECT user_alias, granted_at
		FROM reservations
		ORDER BY granted_at
	`
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(&r.UserAlias, &r.GrantedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (t *pgTx) UpsertReservation(ctx context.Context, reservation models.Reservation) error {
	const query = `
		INSERT INTO reservations (user_alias, granted_at)
		VALUES ($1, $2)
		ON CONFLICT (user_alias) DO UPDATE SET granted_at = EXCLUDED.granted_at
	`
	_, err := t.tx.ExecContext(ctx, query, reservation.UserAlias, reservation.GrantedAt)
	return err
}

func (t *pgTx) DeleteReservation(ctx context.Context, userAlias string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE user_alias = $1`, userAlias)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (t *pgTx) AppendArchive(ctx context.Context, records []models.ArchiveRecord) error {
	const query = `
		INSERT INTO archive_records (batch_id, kind, user_alias, vehicle, battery_pct, station, recorded_at, archived_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, r := range records {
		if _, err := t.tx.ExecContext(ctx, query,
			r.BatchID,
			string(r.Kind),
			r.UserAlias,
			r.Vehicle,
			r.BatteryPct,
			r.Station,
			r.RecordedAt,
			r.ArchivedOn,
		); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ResetMarker(ctx context.Context) (time.Time, error) {
	var date time.Time
	err := t.tx.QueryRowContext(ctx, `SELECT reset_date FROM reset_marker WHERE id = 1`).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func (t *pgTx) SetResetMarker(ctx context.Context, date time.Time) error {
	const query = `
		INSERT INTO reset_marker (id, reset_date)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET reset_date = EXCLUDED.reset_date
	`
	_, err := t.tx.ExecContext(ctx, query, date)
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
