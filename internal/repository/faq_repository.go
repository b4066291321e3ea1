package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/eco-adventures-backend/internal/model"
)

// FAQRepo provides CRUD operations for FAQ entries.
type FAQRepo struct {
    db *sql.DB
}

// NewFAQRepo returns a new FAQRepo bound to the given database.
func NewFAQRepo(db *sql.DB) *FAQRepo { return &FAQRepo{db: db} }

const faqColumns = `id, question, answer, category, sort_order, is_active, created_at, updated_at`

func scanFAQ(s rowScanner) (*model.FAQ, error) {
    var f model.FAQ
    var category sql.NullString
    err := s.Scan(&f.ID, &f.Question, &f.Answer, &category, &f.Order, &f.IsActive,
        timeCol{&f.CreatedAt}, timeCol{&f.UpdatedAt})
    if err != nil {
        return nil, err
    }
    f.Category = strPtr(category)
    return &f, nil
}

// GetByID returns the FAQ with the given id or ErrNotFound.
func (r *FAQRepo) GetByID(ctx context.Context, id uint64) (*model.FAQ, error) {
    f, err := scanFAQ(r.db.QueryRowContext(ctx, `SELECT `+faqColumns+` FROM faqs WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return f, err
}

// FAQFilter narrows List.  Zero values match everything.
type FAQFilter struct {
    IsActive *bool
    Category string
    Page
}

// List returns FAQs matching f by display order, then creation time.
func (r *FAQRepo) List(ctx context.Context, f FAQFilter) ([]model.FAQ, error) {
    var conds []string
    var args []any
    if f.IsActive != nil {
        conds = append(conds, "is_active = ?")
        args = append(args, *f.IsActive)
    }
    if f.Category != "" {
        conds = append(conds, "category = ?")
        args = append(args, f.Category)
    }
    q := `SELECT ` + faqColumns + ` FROM faqs`
    if len(conds) > 0 {
        q += ` WHERE ` + strings.Join(conds, " AND ")
    }
    q += ` ORDER BY sort_order ASC, created_at ASC, id ASC LIMIT ? OFFSET ?`
    limit, skip := f.Page.args()
    args = append(args, limit, skip)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.FAQ{}
    for rows.Next() {
        item, err := scanFAQ(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *item)
    }
    return out, rows.Err()
}

// Create inserts a FAQ and fills in its id and timestamps.
func (r *FAQRepo) Create(ctx context.Context, f *model.FAQ) error {
    ts := now()
    const q = `INSERT INTO faqs (question, answer, category, sort_order, is_active, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, f.Question, f.Answer, nullString(f.Category), f.Order, f.IsActive, ts, ts)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    f.CreatedAt, f.UpdatedAt = ts, ts
    return nil
}

// Update writes every editable column of f.
func (r *FAQRepo) Update(ctx context.Context, f *model.FAQ) error {
    ts := now()
    const q = `UPDATE faqs SET question = ?, answer = ?, category = ?, sort_order = ?, is_active = ?, updated_at = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, f.Question, f.Answer, nullString(f.Category), f.Order, f.IsActive, ts, f.ID)
    if err != nil {
        return err
    }
    if err := expectOne(res); err != nil {
        return err
    }
    f.UpdatedAt = ts
    return nil
}

// Delete removes a FAQ.
func (r *FAQRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, id)
    if err != nil {
        return err
    }
    return expectOne(res)
}
