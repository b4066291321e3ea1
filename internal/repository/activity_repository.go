package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
)

// ActivityRepo provides CRUD operations for past activities.
type ActivityRepo struct {
    db *sql.DB
}

// NewActivityRepo returns a new ActivityRepo bound to the given database.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

const activityColumns = `id, title, description, category, date, location, image_url, participants_count,
    highlights, photos, created_at, updated_at`

func scanActivity(s rowScanner) (*model.Activity, error) {
    var a model.Activity
    var desc, category, loc, img, highlights, photos sql.NullString
    var date *model.Date
    var count sql.NullInt64
    err := s.Scan(&a.ID, &a.Title, &desc, &category, nullDate{&date}, &loc, &img, &count, &highlights, &photos,
        timeCol{&a.CreatedAt}, timeCol{&a.UpdatedAt})
    if err != nil {
        return nil, err
    }
    a.Description = strPtr(desc)
    a.Category = strPtr(category)
    a.Date = date
    a.Location = strPtr(loc)
    a.ImageURL = strPtr(img)
    a.ParticipantsCount = intPtr(count)
    a.Highlights = strPtr(highlights)
    if a.Photos, err = decodeList(photos); err != nil {
        return nil, err
    }
    return &a, nil
}

// nullDate scans a nullable DATE column into a *model.Date.
type nullDate struct{ d **model.Date }

func (n nullDate) Scan(src any) error {
    if src == nil {
        *n.d = nil
        return nil
    }
    var d model.Date
    if err := d.Scan(src); err != nil {
        return err
    }
    *n.d = &d
    return nil
}

// GetByID returns the activity with the given id or ErrNotFound.
func (r *ActivityRepo) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
    a, err := scanActivity(r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return a, err
}

// ActivityFilter narrows List.  An empty Category matches everything.
type ActivityFilter struct {
    Category string
    Page
}

// List returns activities matching f, most recent first.  Activities
// without a date sort last.
func (r *ActivityRepo) List(ctx context.Context, f ActivityFilter) ([]model.Activity, error) {
    q := `SELECT ` + activityColumns + ` FROM activities`
    var args []any
    if f.Category != "" {
        q += ` WHERE category = ?`
        args = append(args, f.Category)
    }
    q += ` ORDER BY date IS NULL, date DESC, id DESC LIMIT ? OFFSET ?`
    limit, skip := f.Page.args()
    args = append(args, limit, skip)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Activity{}
    for rows.Next() {
        a, err := scanActivity(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *a)
    }
    return out, rows.Err()
}

func dateArg(d *model.Date) any {
    if d == nil {
        return nil
    }
    return *d
}

// Create inserts an activity and fills in its id and timestamps.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
    photos, err := encodeList(a.Photos)
    if err != nil {
        return err
    }
    ts := now()
    const q = `INSERT INTO activities (title, description, category, date, location, image_url, participants_count,
                   highlights, photos, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, a.Title, nullString(a.Description), nullString(a.Category), dateArg(a.Date),
        nullString(a.Location), nullString(a.ImageURL), nullInt(a.ParticipantsCount), nullString(a.Highlights),
        photos, ts, ts)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    a.ID = uint64(id)
    a.CreatedAt, a.UpdatedAt = ts, ts
    if a.Photos == nil {
        a.Photos = []string{}
    }
    return nil
}

// Update writes every editable column of a.
func (r *ActivityRepo) Update(ctx context.Context, a *model.Activity) error {
    photos, err := encodeList(a.Photos)
    if err != nil {
        return err
    }
    ts := now()
    const q = `UPDATE activities SET title = ?, description = ?, category = ?, date = ?, location = ?, image_url = ?,
                   participants_count = ?, highlights = ?, photos = ?, updated_at = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, a.Title, nullString(a.Description), nullString(a.Category), dateArg(a.Date),
        nullString(a.Location), nullString(a.ImageURL), nullInt(a.ParticipantsCount), nullString(a.Highlights),
        photos, ts, a.ID)
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    a.UpdatedAt = ts
    return nil
}

// Delete removes an activity.
func (r *ActivityRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
    if err != nil {
        return err
    }
    return expectOne(res)
}
