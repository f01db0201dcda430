package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/piquetdestream/piquet/internal/stream"
)

// SQLite implements stream.Repository using SQLite.
//
// Write transactions start with BEGIN IMMEDIATE, so the read-check-write of
// a status change holds the database write lock from its first read.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (creating if needed) the database at path and runs migrations.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := migrate(ctx, db, goose.DialectSQLite3, "migrations/sqlite", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	params := []string{
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_txlock=immediate",
	}
	if path != ":memory:" {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	return path + "?" + strings.Join(params, "&")
}

// sqliteErr maps constraint and lock failures to stream.ErrConflict.
func sqliteErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code&0xff == sqlite3.SQLITE_BUSY {
			return fmt.Errorf("%w: %v", stream.ErrConflict, err)
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", stream.ErrConflict, err)
	}
	return err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetUser retrieves a user by ID.
func (s *SQLite) GetUser(ctx context.Context, id string) (*stream.User, error) {
	return getUserSQLite(ctx, s.db, id)
}

func getUserSQLite(ctx context.Context, q querier, id string) (*stream.User, error) {
	var (
		u     stream.User
		roles string
	)
	err := q.QueryRowContext(ctx, `SELECT id, name, roles FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name, &roles)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(roles), &names); err != nil {
		return nil, fmt.Errorf("decoding roles: %w", err)
	}
	u.Roles = stringsToRoles(names)
	return &u, nil
}

// SaveUser creates the user or replaces its name and roles.
func (s *SQLite) SaveUser(ctx context.Context, u *stream.User) error {
	roles, err := json.Marshal(rolesToStrings(u.Roles))
	if err != nil {
		return fmt.Errorf("encoding roles: %w", err)
	}
	query := `
		INSERT INTO users (id, name, roles) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, roles = excluded.roles
	`
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Name, string(roles)); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// ListUsers returns every user ordered by ID.
func (s *SQLite) ListUsers(ctx context.Context) ([]*stream.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	_ = rows.Close()

	users := make([]*stream.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// CreateStreamRequest inserts the request and its slots in one transaction.
func (s *SQLite) CreateStreamRequest(ctx context.Context, r *stream.StreamRequest) error {
	guests, err := json.Marshal(nonNil(r.Guests))
	if err != nil {
		return fmt.Errorf("encoding guests: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO stream_requests (streamer_id, title, description, category, guests, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.StreamerID, r.Title, r.Description, r.Category, string(guests), formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting stream request: %w", sqliteErr(err))
	}
	r.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	if err := insertSlotsSQLite(ctx, tx, r.ID, r.TimeSlots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", sqliteErr(err))
	}
	return nil
}

func insertSlotsSQLite(ctx context.Context, tx *sql.Tx, requestID int64, slots []*stream.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stream_request_time_slots (stream_request_id, start_time, end_time, status)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ts := range slots {
		result, err := stmt.ExecContext(ctx, requestID, formatTime(ts.Start), formatTime(ts.End), ts.Status)
		if err != nil {
			return fmt.Errorf("inserting time slot: %w", sqliteErr(err))
		}
		ts.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}
		ts.StreamRequestID = requestID
	}
	return nil
}

// GetStreamRequest retrieves a request with its slots, streamer and tech appointment.
func (s *SQLite) GetStreamRequest(ctx context.Context, id int64) (*stream.StreamRequest, error) {
	r, err := getRequestSQLite(ctx, s.db, id)
	if err != nil || r == nil {
		return r, err
	}
	r.TimeSlots, err = listSlotsSQLite(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// getRequestSQLite loads a request with its streamer and appointment but no slots.
func getRequestSQLite(ctx context.Context, q querier, id int64) (*stream.StreamRequest, error) {
	var (
		r         stream.StreamRequest
		guests    string
		createdAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, streamer_id, title, description, category, guests, created_at
		FROM stream_requests
		WHERE id = ?
	`, id).Scan(&r.ID, &r.StreamerID, &r.Title, &r.Description, &r.Category, &guests, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stream request: %w", err)
	}

	if err := json.Unmarshal([]byte(guests), &r.Guests); err != nil {
		return nil, fmt.Errorf("decoding guests: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}

	if r.Streamer, err = getUserSQLite(ctx, q, r.StreamerID); err != nil {
		return nil, err
	}
	if r.TechAppointment, err = getAppointmentSQLite(ctx, q, `stream_request_id = ?`, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func listSlotsSQLite(ctx context.Context, q querier, requestID int64) ([]*stream.TimeSlot, error) {
	return querySlotsSQLite(ctx, q, `
		SELECT id, stream_request_id, start_time, end_time, status
		FROM stream_request_time_slots
		WHERE stream_request_id = ?
		ORDER BY start_time, id
	`, requestID)
}

func querySlotsSQLite(ctx context.Context, q querier, query string, args ...any) ([]*stream.TimeSlot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying time slots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []*stream.TimeSlot
	for rows.Next() {
		var (
			ts         stream.TimeSlot
			start, end string
		)
		if err := rows.Scan(&ts.ID, &ts.StreamRequestID, &start, &end, &ts.Status); err != nil {
			return nil, fmt.Errorf("scanning time slot: %w", err)
		}
		if ts.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("parsing start time: %w", err)
		}
		if ts.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("parsing end time: %w", err)
		}
		slots = append(slots, &ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time slots: %w", err)
	}
	return slots, nil
}

func getAppointmentSQLite(ctx context.Context, q querier, where string, arg any) (*stream.TechAppointment, error) {
	var (
		a     stream.TechAppointment
		start string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, stream_request_id, tech_id, start_time, status
		FROM tech_appointments
		WHERE `+where, arg).Scan(&a.ID, &a.StreamRequestID, &a.TechUserID, &start, &a.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying tech appointment: %w", err)
	}
	if a.StartTime, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parsing appointment start: %w", err)
	}
	if a.Tech, err = getUserSQLite(ctx, q, a.TechUserID); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateStreamRequest replaces the request metadata and slot set in one transaction.
func (s *SQLite) UpdateStreamRequest(ctx context.Context, r *stream.StreamRequest) error {
	guests, err := json.Marshal(nonNil(r.Guests))
	if err != nil {
		return fmt.Errorf("encoding guests: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE stream_requests SET title = ?, description = ?, category = ?, guests = ?
		WHERE id = ?
	`, r.Title, r.Description, r.Category, string(guests), r.ID)
	if err != nil {
		return fmt.Errorf("updating stream request: %w", sqliteErr(err))
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("stream request %d: %w", r.ID, stream.ErrNotFound)
	}

	stored, err := listSlotsSQLite(ctx, tx, r.ID)
	if err != nil {
		return err
	}
	keep := make(map[int64]bool)
	for _, ts := range r.TimeSlots {
		if ts.ID != 0 {
			keep[ts.ID] = true
		}
	}
	for _, ts := range stored {
		if keep[ts.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM stream_request_time_slots WHERE id = ?`, ts.ID); err != nil {
			return fmt.Errorf("deleting time slot %d: %w", ts.ID, err)
		}
	}

	var added []*stream.TimeSlot
	for _, ts := range r.TimeSlots {
		if ts.ID == 0 {
			added = append(added, ts)
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE stream_request_time_slots SET start_time = ?, end_time = ?, status = ?
			WHERE id = ? AND stream_request_id = ?
		`, formatTime(ts.Start), formatTime(ts.End), ts.Status, ts.ID, r.ID)
		if err != nil {
			return fmt.Errorf("updating time slot %d: %w", ts.ID, sqliteErr(err))
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return fmt.Errorf("time slot %d: %w", ts.ID, stream.ErrNotFound)
		}
	}
	if err := insertSlotsSQLite(ctx, tx, r.ID, added); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", sqliteErr(err))
	}
	return nil
}

// ListApprovedSlots returns every APPROVED slot overlapping [from, to).
func (s *SQLite) ListApprovedSlots(ctx context.Context, from, to time.Time) ([]*stream.TimeSlot, error) {
	return querySlotsSQLite(ctx, s.db, `
		SELECT id, stream_request_id, start_time, end_time, status
		FROM stream_request_time_slots
		WHERE status = 'APPROVED' AND start_time < ? AND end_time > ?
		ORDER BY start_time, id
	`, formatTime(to), formatTime(from))
}

// ListSchedule returns the requests having at least one slot matching f,
// each carrying only its matching slots, ordered by their first slot.
func (s *SQLite) ListSchedule(ctx context.Context, f stream.ScheduleFilter) ([]*stream.StreamRequest, error) {
	query := `
		SELECT s.id, s.stream_request_id, s.start_time, s.end_time, s.status
		FROM stream_request_time_slots s
		JOIN stream_requests r ON r.id = s.stream_request_id
		WHERE s.start_time >= ? AND s.end_time <= ?
	`
	args := []any{formatTime(f.From), formatTime(f.To)}
	if len(f.Statuses) > 0 {
		query += ` AND s.status IN (?` + strings.Repeat(`, ?`, len(f.Statuses)-1) + `)`
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.StreamerID != "" {
		query += ` AND r.streamer_id = ?`
		args = append(args, f.StreamerID)
	}
	query += ` ORDER BY s.start_time, s.id`

	slots, err := querySlotsSQLite(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}

	order, byRequest := groupSlots(slots)
	requests := make([]*stream.StreamRequest, 0, len(order))
	for _, id := range order {
		r, err := getRequestSQLite(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		r.TimeSlots = byRequest[id]
		requests = append(requests, r)
	}
	return requests, nil
}

// SetTimeSlotStatus applies stream.ApplySlotStatus to the request's slots
// inside one write transaction.
func (s *SQLite) SetTimeSlotStatus(ctx context.Context, requestID, slotID int64, status stream.TimeSlotStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", sqliteErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM stream_requests WHERE id = ?`, requestID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("stream request %d: %w", requestID, stream.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying stream request: %w", sqliteErr(err))
	}

	slots, err := listSlotsSQLite(ctx, tx, requestID)
	if err != nil {
		return err
	}
	changes, err := stream.ApplySlotStatus(slots, slotID, status)
	if err != nil {
		return err
	}

	for _, c := range orderedChanges(changes) {
		if _, err := tx.ExecContext(ctx, `UPDATE stream_request_time_slots SET status = ? WHERE id = ?`, c.status, c.id); err != nil {
			return fmt.Errorf("updating time slot %d: %w", c.id, sqliteErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", sqliteErr(err))
	}

	s.logger.Debug("time slot changes written",
		zap.Int64("request_id", requestID),
		zap.Int("changes", len(changes)),
	)
	return nil
}

// UpsertTechAppointment creates or replaces the request's appointment.
func (s *SQLite) UpsertTechAppointment(ctx context.Context, a *stream.TechAppointment) error {
	query := `
		INSERT INTO tech_appointments (stream_request_id, tech_id, start_time, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(stream_request_id) DO UPDATE SET
			tech_id = excluded.tech_id,
			start_time = excluded.start_time,
			status = excluded.status
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, a.StreamRequestID, a.TechUserID, formatTime(a.StartTime), a.Status).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("upserting tech appointment: %w", sqliteErr(err))
	}
	return nil
}

// GetTechAppointment retrieves an appointment by ID.
func (s *SQLite) GetTechAppointment(ctx context.Context, id int64) (*stream.TechAppointment, error) {
	return getAppointmentSQLite(ctx, s.db, `id = ?`, id)
}

// SetTechAppointmentStatus updates an appointment status.
func (s *SQLite) SetTechAppointmentStatus(ctx context.Context, id int64, status stream.AppointmentStatus) error {
	result, err := s.db.ExecContext(ctx, `UPDATE tech_appointments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("setting tech appointment status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("tech appointment %d: %w", id, stream.ErrNotFound)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
