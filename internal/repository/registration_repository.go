package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
)

// RegistrationRepo provides CRUD operations for registrations.  Writes
// are only exposed in ...Tx form: every registration change also moves
// seats on the owning course, so the caller must hold that course's row
// lock in the same transaction.
type RegistrationRepo struct {
    db      *sql.DB
    dialect Dialect
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB, dialect Dialect) *RegistrationRepo {
    return &RegistrationRepo{db: db, dialect: dialect}
}

// DB exposes the underlying handle so callers can open transactions.
func (r *RegistrationRepo) DB() *sql.DB { return r.db }

const registrationColumns = `id, course_id, name, email, phone, participants, status, notes, created_at, updated_at`

func scanRegistration(s rowScanner) (*model.Registration, error) {
    var reg model.Registration
    var status string
    var notes sql.NullString
    err := s.Scan(
        &reg.ID, &reg.CourseID, &reg.Name, &reg.Email, &reg.Phone, &reg.Participants,
        &status, &notes, timeCol{&reg.CreatedAt}, timeCol{&reg.UpdatedAt},
    )
    if err != nil {
        return nil, err
    }
    reg.Status = model.RegistrationStatus(status)
    reg.Notes = strPtr(notes)
    return &reg, nil
}

func (r *RegistrationRepo) get(ctx context.Context, q querier, id uint64, lock bool) (*model.Registration, error) {
    query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`
    if lock {
        query += r.dialect.forUpdate()
    }
    reg, err := scanRegistration(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return reg, err
}

// GetByID returns the registration with the given id or ErrNotFound.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (*model.Registration, error) {
    return r.get(ctx, r.db, id, false)
}

// GetForUpdateTx loads a registration inside tx with a locking read, so
// it sees the latest committed status even after earlier reads in the
// same transaction.
func (r *RegistrationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Registration, error) {
    return r.get(ctx, tx, id, true)
}

// CreateTx inserts reg inside tx and fills in its id and timestamps.  A
// second live registration for the same email and course is rejected by
// the unique index and reported as ErrDuplicate.
func (r *RegistrationRepo) CreateTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
    ts := now()
    const q = `INSERT INTO registrations (course_id, name, email, phone, participants, status, notes, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        reg.CourseID, reg.Name, reg.Email, reg.Phone, reg.Participants,
        string(reg.Status), nullString(reg.Notes), ts, ts,
    )
    if err != nil {
        if isUniqueViolation(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    reg.ID = uint64(id)
    reg.CreatedAt, reg.UpdatedAt = ts, ts
    return nil
}

// UpdateTx writes the status and notes of reg inside tx.
func (r *RegistrationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
    ts := now()
    const q = `UPDATE registrations SET status = ?, notes = ?, updated_at = ? WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, string(reg.Status), nullString(reg.Notes), ts, reg.ID)
    if err != nil {
        if isUniqueViolation(err) {
            return ErrDuplicate
        }
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    reg.UpdatedAt = ts
    return nil
}

// DeleteTx removes the registration inside tx.
func (r *RegistrationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    return expectOne(res)
}

// ExistsActiveTx reports whether email already has a registration for
// the course that is not cancelled.
func (r *RegistrationRepo) ExistsActiveTx(ctx context.Context, tx *sql.Tx, email string, courseID uint64) (bool, error) {
    return r.existsActive(ctx, tx, email, courseID)
}

// ExistsActive is ExistsActiveTx outside a transaction.
func (r *RegistrationRepo) ExistsActive(ctx context.Context, email string, courseID uint64) (bool, error) {
    return r.existsActive(ctx, r.db, email, courseID)
}

func (r *RegistrationRepo) existsActive(ctx context.Context, q querier, email string, courseID uint64) (bool, error) {
    const query = `SELECT COUNT(*) FROM registrations WHERE email = ? AND course_id = ? AND status <> ?`
    var n int
    if err := q.QueryRowContext(ctx, query, email, courseID, string(model.RegistrationCancelled)).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// RegistrationFilter narrows List.  Zero values match everything.
type RegistrationFilter struct {
    CourseID uint64
    Status   model.RegistrationStatus
    Page
}

// List returns registrations matching f, newest first.
func (r *RegistrationRepo) List(ctx context.Context, f RegistrationFilter) ([]model.Registration, error) {
    where, args := f.where()
    q := `SELECT ` + registrationColumns + ` FROM registrations` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
    limit, skip := f.Page.args()
    args = append(args, limit, skip)
    return r.query(ctx, q, args...)
}

// Count returns the number of registrations matching f.  Paging fields
// are ignored.
func (r *RegistrationRepo) Count(ctx context.Context, f RegistrationFilter) (int, error) {
    where, args := f.where()
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`+where, args...).Scan(&n)
    return n, err
}

func (f RegistrationFilter) where() (string, []any) {
    var conds []string
    var args []any
    if f.CourseID != 0 {
        conds = append(conds, "course_id = ?")
        args = append(args, f.CourseID)
    }
    if f.Status != "" {
        conds = append(conds, "status = ?")
        args = append(args, string(f.Status))
    }
    if len(conds) == 0 {
        return "", nil
    }
    return " WHERE " + strings.Join(conds, " AND "), args
}

// ListByEmail returns every registration made with email, newest first,
// each paired with its course.
func (r *RegistrationRepo) ListByEmail(ctx context.Context, email string) ([]model.RegistrationWithCourse, error) {
    const q = `SELECT r.id, r.course_id, r.name, r.email, r.phone, r.participants, r.status, r.notes, r.created_at, r.updated_at,
                      c.id, c.title, c.description, c.category, c.status, c.date, c.start_time, c.end_time, c.location,
                      c.max_spots, c.current_registrations, c.instructor_id, c.image_url, c.requirements, c.notes,
                      c.created_at, c.updated_at
               FROM registrations r
               JOIN courses c ON c.id = r.course_id
               WHERE r.email = ?
               ORDER BY r.created_at DESC, r.id DESC`
    rows, err := r.db.QueryContext(ctx, q, email)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.RegistrationWithCourse{}
    for rows.Next() {
        var item model.RegistrationWithCourse
        var regStatus string
        var regNotes sql.NullString
        cs := &courseScan{c: &item.Course}
        dest := append([]any{
            &item.ID, &item.CourseID, &item.Name, &item.Email, &item.Phone, &item.Participants,
            &regStatus, &regNotes, timeCol{&item.CreatedAt}, timeCol{&item.UpdatedAt},
        }, cs.dest()...)
        if err := rows.Scan(dest...); err != nil {
            return nil, err
        }
        item.Status = model.RegistrationStatus(regStatus)
        item.Notes = strPtr(regNotes)
        cs.finish()
        out = append(out, item)
    }
    return out, rows.Err()
}

func (r *RegistrationRepo) query(ctx context.Context, q string, args ...any) ([]model.Registration, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Registration{}
    for rows.Next() {
        reg, err := scanRegistration(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *reg)
    }
    return out, rows.Err()
}
