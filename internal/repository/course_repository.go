package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
)

// CourseRepo provides CRUD operations for courses and the locked
// read/write pair used by the seat ledger.  All timestamps are stored in
// UTC.
type CourseRepo struct {
    db      *sql.DB
    dialect Dialect
}

// NewCourseRepo returns a new CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB, dialect Dialect) *CourseRepo {
    return &CourseRepo{db: db, dialect: dialect}
}

// DB exposes the underlying handle so callers can open transactions.
func (r *CourseRepo) DB() *sql.DB { return r.db }

const courseColumns = `id, title, description, category, status, date, start_time, end_time, location,
    max_spots, current_registrations, instructor_id, image_url, requirements, notes, created_at, updated_at`

// courseScan holds the nullable intermediates for one course row so the
// same column list can be scanned alone or as part of a join.
type courseScan struct {
    c                                      *model.Course
    category, status                       string
    desc, start, end, loc, img, req, notes sql.NullString
    instructorID                           sql.NullInt64
}

func (s *courseScan) dest() []any {
    c := s.c
    return []any{
        &c.ID, &c.Title, &s.desc, &s.category, &s.status, &c.Date, &s.start, &s.end, &s.loc,
        &c.MaxSpots, &c.CurrentRegistrations, &s.instructorID, &s.img, &s.req, &s.notes,
        timeCol{&c.CreatedAt}, timeCol{&c.UpdatedAt},
    }
}

func (s *courseScan) finish() {
    c := s.c
    c.Category = model.CourseCategory(s.category)
    c.Status = model.CourseStatus(s.status)
    c.Description = strPtr(s.desc)
    c.StartTime = strPtr(s.start)
    c.EndTime = strPtr(s.end)
    c.Location = strPtr(s.loc)
    c.InstructorID = idPtr(s.instructorID)
    c.ImageURL = strPtr(s.img)
    c.Requirements = strPtr(s.req)
    c.Notes = strPtr(s.notes)
}

func scanCourse(row rowScanner) (*model.Course, error) {
    var c model.Course
    cs := &courseScan{c: &c}
    if err := row.Scan(cs.dest()...); err != nil {
        return nil, err
    }
    cs.finish()
    return &c, nil
}

func (r *CourseRepo) getBy(ctx context.Context, q querier, id uint64, lock bool) (*model.Course, error) {
    query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ?`
    if lock {
        query += r.dialect.forUpdate()
    }
    c, err := scanCourse(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return c, err
}

// GetByID returns the course with the given id or ErrNotFound.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
    return r.getBy(ctx, r.db, id, false)
}

// GetForUpdateTx loads a course inside tx and locks its row until the
// transaction ends.  Every change to the seat ledger starts here.
func (r *CourseRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Course, error) {
    return r.getBy(ctx, tx, id, true)
}

// Create inserts a course and fills in its id and timestamps.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
    ts := now()
    const q = `INSERT INTO courses (title, description, category, status, date, start_time, end_time, location,
                   max_spots, current_registrations, instructor_id, image_url, requirements, notes, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        c.Title, nullString(c.Description), string(c.Category), string(c.Status), c.Date,
        nullString(c.StartTime), nullString(c.EndTime), nullString(c.Location),
        c.MaxSpots, c.CurrentRegistrations, nullID(c.InstructorID), nullString(c.ImageURL),
        nullString(c.Requirements), nullString(c.Notes), ts, ts,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    c.CreatedAt, c.UpdatedAt = ts, ts
    return nil
}

// Modify loads the course under a row lock, lets fn edit it and writes it
// back in the same transaction, so a concurrent seat adjustment is never
// overwritten with a stale count.  fn's error aborts the change.
func (r *CourseRepo) Modify(ctx context.Context, id uint64, fn func(c *model.Course) error) (*model.Course, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    c, err := r.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return nil, err
    }
    if err := fn(c); err != nil {
        return nil, err
    }
    if err := r.update(ctx, tx, c); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return c, nil
}

// update writes every editable column of c.  Only Modify calls it, with
// the row already locked.
func (r *CourseRepo) update(ctx context.Context, q querier, c *model.Course) error {
    ts := now()
    const stmt = `UPDATE courses SET title = ?, description = ?, category = ?, status = ?, date = ?, start_time = ?,
                   end_time = ?, location = ?, max_spots = ?, current_registrations = ?, instructor_id = ?,
                   image_url = ?, requirements = ?, notes = ?, updated_at = ?
               WHERE id = ?`
    res, err := q.ExecContext(ctx, stmt,
        c.Title, nullString(c.Description), string(c.Category), string(c.Status), c.Date,
        nullString(c.StartTime), nullString(c.EndTime), nullString(c.Location),
        c.MaxSpots, c.CurrentRegistrations, nullID(c.InstructorID), nullString(c.ImageURL),
        nullString(c.Requirements), nullString(c.Notes), ts, c.ID,
    )
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    c.UpdatedAt = ts
    return nil
}

// UpdateSeatsTx persists the seat ledger fields of c inside tx.  The row
// must have been locked with GetForUpdateTx first.
func (r *CourseRepo) UpdateSeatsTx(ctx context.Context, tx *sql.Tx, c *model.Course) error {
    ts := now()
    const q = `UPDATE courses SET current_registrations = ?, status = ?, updated_at = ? WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, c.CurrentRegistrations, string(c.Status), ts, c.ID)
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    c.UpdatedAt = ts
    return nil
}

// Delete removes a course.  A course that still has registrations (in
// any status) is not deleted and ErrConflict is returned.
func (r *CourseRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := r.GetForUpdateTx(ctx, tx, id); err != nil {
        return err
    }
    var n int
    if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE course_id = ?`, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// CourseFilter narrows List.  Zero values match everything.
type CourseFilter struct {
    Status   model.CourseStatus
    Category model.CourseCategory
    Page
}

// List returns courses matching f, newest course date first.
func (r *CourseRepo) List(ctx context.Context, f CourseFilter) ([]model.Course, error) {
    var where []string
    var args []any
    if f.Status != "" {
        where = append(where, "status = ?")
        args = append(args, string(f.Status))
    }
    if f.Category != "" {
        where = append(where, "category = ?")
        args = append(args, string(f.Category))
    }
    q := `SELECT ` + courseColumns + ` FROM courses`
    if len(where) > 0 {
        q += ` WHERE ` + strings.Join(where, " AND ")
    }
    q += ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
    limit, skip := f.Page.args()
    args = append(args, limit, skip)
    return r.query(ctx, q, args...)
}

// ListUpcoming returns courses that are upcoming or open, soonest first.
func (r *CourseRepo) ListUpcoming(ctx context.Context, limit int) ([]model.Course, error) {
    const q = `SELECT ` + courseColumns + ` FROM courses
               WHERE status IN (?, ?)
               ORDER BY date ASC, id ASC LIMIT ?`
    return r.query(ctx, q, string(model.CourseUpcoming), string(model.CourseOpen), limit)
}

// Count returns the total number of courses.
func (r *CourseRepo) Count(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n)
    return n, err
}

func (r *CourseRepo) query(ctx context.Context, q string, args ...any) ([]model.Course, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Course{}
    for rows.Next() {
        c, err := scanCourse(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *c)
    }
    return out, rows.Err()
}

// expectOne maps an UPDATE/DELETE that matched no rows to ErrNotFound.
// MySQL connections are opened with clientFoundRows so unchanged rows
// still count.
func expectOne(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
