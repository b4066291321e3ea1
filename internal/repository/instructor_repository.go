package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
)

// InstructorRepo provides CRUD operations for instructors.
type InstructorRepo struct {
    db *sql.DB
}

// NewInstructorRepo returns a new InstructorRepo bound to the given database.
func NewInstructorRepo(db *sql.DB) *InstructorRepo { return &InstructorRepo{db: db} }

const instructorColumns = `id, name, title, description, image_url, specialties, email, phone, is_active, created_at, updated_at`

func scanInstructor(s rowScanner) (*model.Instructor, error) {
    var in model.Instructor
    var title, desc, img, specialties, email, phone sql.NullString
    err := s.Scan(&in.ID, &in.Name, &title, &desc, &img, &specialties, &email, &phone, &in.IsActive,
        timeCol{&in.CreatedAt}, timeCol{&in.UpdatedAt})
    if err != nil {
        return nil, err
    }
    in.Title = strPtr(title)
    in.Description = strPtr(desc)
    in.ImageURL = strPtr(img)
    in.Email = strPtr(email)
    in.Phone = strPtr(phone)
    if in.Specialties, err = decodeList(specialties); err != nil {
        return nil, err
    }
    return &in, nil
}

// GetByID returns the instructor with the given id or ErrNotFound.
func (r *InstructorRepo) GetByID(ctx context.Context, id uint64) (*model.Instructor, error) {
    in, err := scanInstructor(r.db.QueryRowContext(ctx, `SELECT `+instructorColumns+` FROM instructors WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return in, err
}

// Summaries returns the instructor cards for ids keyed by id.  Unknown
// ids are left out.
func (r *InstructorRepo) Summaries(ctx context.Context, ids []uint64) (map[uint64]*model.InstructorSummary, error) {
    out := make(map[uint64]*model.InstructorSummary, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    placeholders := make([]string, len(ids))
    args := make([]any, len(ids))
    for i, id := range ids {
        placeholders[i] = "?"
        args[i] = id
    }
    q := `SELECT id, name, title, image_url FROM instructors WHERE id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var s model.InstructorSummary
        var title, img sql.NullString
        if err := rows.Scan(&s.ID, &s.Name, &title, &img); err != nil {
            return nil, err
        }
        s.Title = strPtr(title)
        s.ImageURL = strPtr(img)
        out[s.ID] = &s
    }
    return out, rows.Err()
}

// InstructorFilter narrows List.  A nil IsActive matches everything.
type InstructorFilter struct {
    IsActive *bool
    Page
}

// List returns instructors matching f in id order.
func (r *InstructorRepo) List(ctx context.Context, f InstructorFilter) ([]model.Instructor, error) {
    q := `SELECT ` + instructorColumns + ` FROM instructors`
    var args []any
    if f.IsActive != nil {
        q += ` WHERE is_active = ?`
        args = append(args, *f.IsActive)
    }
    q += ` ORDER BY id ASC LIMIT ? OFFSET ?`
    limit, skip := f.Page.args()
    args = append(args, limit, skip)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Instructor{}
    for rows.Next() {
        in, err := scanInstructor(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *in)
    }
    return out, rows.Err()
}

// Create inserts an instructor and fills in its id and timestamps.
func (r *InstructorRepo) Create(ctx context.Context, in *model.Instructor) error {
    specialties, err := encodeList(in.Specialties)
    if err != nil {
        return err
    }
    ts := now()
    const q = `INSERT INTO instructors (name, title, description, image_url, specialties, email, phone, is_active, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, in.Name, nullString(in.Title), nullString(in.Description), nullString(in.ImageURL),
        specialties, nullString(in.Email), nullString(in.Phone), in.IsActive, ts, ts)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    in.ID = uint64(id)
    in.CreatedAt, in.UpdatedAt = ts, ts
    if in.Specialties == nil {
        in.Specialties = []string{}
    }
    return nil
}

// Update writes every editable column of in.
func (r *InstructorRepo) Update(ctx context.Context, in *model.Instructor) error {
    specialties, err := encodeList(in.Specialties)
    if err != nil {
        return err
    }
    ts := now()
    const q = `UPDATE instructors SET name = ?, title = ?, description = ?, image_url = ?, specialties = ?,
                   email = ?, phone = ?, is_active = ?, updated_at = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, in.Name, nullString(in.Title), nullString(in.Description), nullString(in.ImageURL),
        specialties, nullString(in.Email), nullString(in.Phone), in.IsActive, ts, in.ID)
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    in.UpdatedAt = ts
    return nil
}

// Delete removes an instructor.  Courses that referenced it keep
// existing with no instructor.
func (r *InstructorRepo) Delete(ctx context.Context, id uint64) error {
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
    if _, err := tx.ExecContext(ctx, `UPDATE courses SET instructor_id = NULL WHERE instructor_id = ?`, id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM instructors WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
