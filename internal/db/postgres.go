package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/stream"
)

// Postgres implements stream.Repository using PostgreSQL.
//
// Status changes run in SERIALIZABLE transactions that lock the request's
// slot rows with SELECT ... FOR UPDATE.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects to dsn and runs migrations.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// goose works on *sql.DB, so open one on top of the pool.
	sqlDB := stdlib.OpenDBFromPool(pool)
	err = migrate(ctx, sqlDB, goose.DialectPostgres, "migrations/postgres", logger)
	_ = sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// pgErr maps unique violations and serialization failures to stream.ErrConflict.
func pgErr(err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505", "40001", "40P01":
			return fmt.Errorf("%w: %v", stream.ErrConflict, err)
		}
	}
	return err
}

// pgQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GetUser retrieves a user by ID.
func (p *Postgres) GetUser(ctx context.Context, id string) (*stream.User, error) {
	return getUserPG(ctx, p.pool, id)
}

func getUserPG(ctx context.Context, q pgQuerier, id string) (*stream.User, error) {
	var (
		u     stream.User
		roles []string
	)
	err := q.QueryRow(ctx, `SELECT id, name, roles FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &roles)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Roles = stringsToRoles(roles)
	return &u, nil
}

// SaveUser creates the user or replaces its name and roles.
func (p *Postgres) SaveUser(ctx context.Context, u *stream.User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, name, roles) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, roles = EXCLUDED.roles
	`, u.ID, u.Name, rolesToStrings(u.Roles))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ListUsers returns every user ordered by ID.
func (p *Postgres) ListUsers(ctx context.Context) ([]*stream.User, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, roles FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*stream.User
	for rows.Next() {
		var (
			u     stream.User
			roles []string
		)
		if err := rows.Scan(&u.ID, &u.Name, &roles); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Roles = stringsToRoles(roles)
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CreateStreamRequest inserts the request and its slots in one transaction.
func (p *Postgres) CreateStreamRequest(ctx context.Context, r *stream.StreamRequest) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO stream_requests (streamer_id, title, description, category, guests, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.StreamerID, r.Title, r.Description, r.Category, nonNil(r.Guests), r.CreatedAt).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert stream request: %w", pgErr(err))
	}

	if err := insertSlotsPG(ctx, tx, r.ID, r.TimeSlots); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", pgErr(err))
	}
	return nil
}

func insertSlotsPG(ctx context.Context, tx pgx.Tx, requestID int64, slots []*stream.TimeSlot) error {
	for _, ts := range slots {
		err := tx.QueryRow(ctx, `
			INSERT INTO stream_request_time_slots (stream_request_id, start_time, end_time, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, requestID, ts.Start, ts.End, string(ts.Status)).Scan(&ts.ID)
		if err != nil {
			return fmt.Errorf("insert time slot: %w", pgErr(err))
		}
		ts.StreamRequestID = requestID
	}
	return nil
}

// GetStreamRequest retrieves a request with its slots, streamer and tech appointment.
func (p *Postgres) GetStreamRequest(ctx context.Context, id int64) (*stream.StreamRequest, error) {
	r, err := getRequestPG(ctx, p.pool, id)
	if err != nil || r == nil {
		return r, err
	}
	r.TimeSlots, err = querySlotsPG(ctx, p.pool, `
		SELECT id, stream_request_id, start_time, end_time, status
		FROM stream_request_time_slots
		WHERE stream_request_id = $1
		ORDER BY start_time, id
	`, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func getRequestPG(ctx context.Context, q pgQuerier, id int64) (*stream.StreamRequest, error) {
	var r stream.StreamRequest
	err := q.QueryRow(ctx, `
		SELECT id, streamer_id, title, description, category, guests, created_at
		FROM stream_requests
		WHERE id = $1
	`, id).Scan(&r.ID, &r.StreamerID, &r.Title, &r.Description, &r.Category, &r.Guests, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get stream request: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()

	if r.Streamer, err = getUserPG(ctx, q, r.StreamerID); err != nil {
		return nil, err
	}
	if r.TechAppointment, err = getAppointmentPG(ctx, q, `stream_request_id = $1`, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func querySlotsPG(ctx context.Context, q pgQuerier, query string, args ...any) ([]*stream.TimeSlot, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query time slots: %w", pgErr(err))
	}
	defer rows.Close()

	var slots []*stream.TimeSlot
	for rows.Next() {
		var (
			ts     stream.TimeSlot
			status string
		)
		if err := rows.Scan(&ts.ID, &ts.StreamRequestID, &ts.Start, &ts.End, &status); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		ts.Start, ts.End = ts.Start.UTC(), ts.End.UTC()
		ts.Status = stream.TimeSlotStatus(status)
		slots = append(slots, &ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time slots: %w", pgErr(err))
	}
	return slots, nil
}

func getAppointmentPG(ctx context.Context, q pgQuerier, where string, arg any) (*stream.TechAppointment, error) {
	var (
		a      stream.TechAppointment
		status string
	)
	err := q.QueryRow(ctx, `
		SELECT id, stream_request_id, tech_id, start_time, status
		FROM tech_appointments
		WHERE `+where, arg).Scan(&a.ID, &a.StreamRequestID, &a.TechUserID, &a.StartTime, &status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get tech appointment: %w", err)
	}
	a.StartTime = a.StartTime.UTC()
	a.Status = stream.AppointmentStatus(status)
	if a.Tech, err = getUserPG(ctx, q, a.TechUserID); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateStreamRequest replaces the request metadata and slot set in one transaction.
func (p *Postgres) UpdateStreamRequest(ctx context.Context, r *stream.StreamRequest) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE stream_requests SET title = $1, description = $2, category = $3, guests = $4
		WHERE id = $5
	`, r.Title, r.Description, r.Category, nonNil(r.Guests), r.ID)
	if err != nil {
		return fmt.Errorf("update stream request: %w", pgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stream request %d: %w", r.ID, stream.ErrNotFound)
	}

	keep := []int64{}
	for _, ts := range r.TimeSlots {
		if ts.ID != 0 {
			keep = append(keep, ts.ID)
		}
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM stream_request_time_slots
		WHERE stream_request_id = $1 AND NOT (id = ANY($2))
	`, r.ID, keep)
	if err != nil {
		return fmt.Errorf("delete time slots: %w", err)
	}

	var added []*stream.TimeSlot
	for _, ts := range r.TimeSlots {
		if ts.ID == 0 {
			added = append(added, ts)
			continue
		}
		tag, err := tx.Exec(ctx, `
			UPDATE stream_request_time_slots SET start_time = $1, end_time = $2, status = $3
			WHERE id = $4 AND stream_request_id = $5
		`, ts.Start, ts.End, string(ts.Status), ts.ID, r.ID)
		if err != nil {
			return fmt.Errorf("update time slot %d: %w", ts.ID, pgErr(err))
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("time slot %d: %w", ts.ID, stream.ErrNotFound)
		}
	}
	if err := insertSlotsPG(ctx, tx, r.ID, added); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", pgErr(err))
	}
	return nil
}

// ListApprovedSlots returns every APPROVED slot overlapping [from, to).
func (p *Postgres) ListApprovedSlots(ctx context.Context, from, to time.Time) ([]*stream.TimeSlot, error) {
	return querySlotsPG(ctx, p.pool, `
		SELECT id, stream_request_id, start_time, end_time, status
		FROM stream_request_time_slots
		WHERE status = 'APPROVED' AND start_time < $1 AND end_time > $2
		ORDER BY start_time, id
	`, to, from)
}

// ListSchedule returns the requests having at least one slot matching f,
// each carrying only its matching slots, ordered by their first slot.
func (p *Postgres) ListSchedule(ctx context.Context, f stream.ScheduleFilter) ([]*stream.StreamRequest, error) {
	var (
		conds = []string{"s.start_time >= $1", "s.end_time <= $2"}
		args  = []any{f.From, f.To}
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("s.status = ANY($%d)", len(args)))
	}
	if f.StreamerID != "" {
		args = append(args, f.StreamerID)
		conds = append(conds, fmt.Sprintf("r.streamer_id = $%d", len(args)))
	}

	query := `
		SELECT s.id, s.stream_request_id, s.start_time, s.end_time, s.status
		FROM stream_request_time_slots s
		JOIN stream_requests r ON r.id = s.stream_request_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY s.start_time, s.id`

	slots, err := querySlotsPG(ctx, p.pool, query, args...)
	if err != nil {
		return nil, err
	}

	order, byRequest := groupSlots(slots)
	requests := make([]*stream.StreamRequest, 0, len(order))
	for _, id := range order {
		r, err := getRequestPG(ctx, p.pool, id)
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
// inside one serializable transaction.
func (p *Postgres) SetTimeSlotStatus(ctx context.Context, requestID, slotID int64, status stream.TimeSlotStatus) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM stream_requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&exists)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("stream request %d: %w", requestID, stream.ErrNotFound)
		}
		return fmt.Errorf("lock stream request: %w", pgErr(err))
	}

	slots, err := querySlotsPG(ctx, tx, `
		SELECT id, stream_request_id, start_time, end_time, status
		FROM stream_request_time_slots
		WHERE stream_request_id = $1
		ORDER BY start_time, id
		FOR UPDATE
	`, requestID)
	if err != nil {
		return err
	}

	changes, err := stream.ApplySlotStatus(slots, slotID, status)
	if err != nil {
		return err
	}
	for _, c := range orderedChanges(changes) {
		if _, err := tx.Exec(ctx, `UPDATE stream_request_time_slots SET status = $1 WHERE id = $2`, string(c.status), c.id); err != nil {
			return fmt.Errorf("update time slot %d: %w", c.id, pgErr(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", pgErr(err))
	}

	p.logger.Debug("time slot changes written",
		zap.Int64("request_id", requestID),
		zap.Int("changes", len(changes)),
	)
	return nil
}

// UpsertTechAppointment creates or replaces the request's appointment.
func (p *Postgres) UpsertTechAppointment(ctx context.Context, a *stream.TechAppointment) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO tech_appointments (stream_request_id, tech_id, start_time, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stream_request_id) DO UPDATE SET
			tech_id = EXCLUDED.tech_id,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status
		RETURNING id
	`, a.StreamRequestID, a.TechUserID, a.StartTime, string(a.Status)).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("upsert tech appointment: %w", pgErr(err))
	}
	return nil
}

// GetTechAppointment retrieves an appointment by ID.
func (p *Postgres) GetTechAppointment(ctx context.Context, id int64) (*stream.TechAppointment, error) {
	return getAppointmentPG(ctx, p.pool, `id = $1`, id)
}

// SetTechAppointmentStatus updates an appointment status.
func (p *Postgres) SetTechAppointmentStatus(ctx context.Context, id int64, status stream.AppointmentStatus) error {
	tag, err := p.pool.Exec(ctx, `UPDATE tech_appointments SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("set tech appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tech appointment %d: %w", id, stream.ErrNotFound)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
