package repository

import (
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"
)

// now is the timestamp written to created_at/updated_at.  Whole seconds
// keep MySQL DATETIME and SQLite text values identical.
func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// timeCol scans DATETIME columns.  MySQL (parseTime=true) hands back a
// time.Time; SQLite may hand back the stored text.
type timeCol struct{ t *time.Time }

var timeLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02 15:04:05.999999999Z07:00",
    "2006-01-02 15:04:05.999999999",
    "2006-01-02T15:04:05.999999999",
    "2006-01-02",
}

func (c timeCol) Scan(src any) error {
    switch v := src.(type) {
    case nil:
        *c.t = time.Time{}
        return nil
    case time.Time:
        *c.t = v.UTC()
        return nil
    case string:
        return c.parse(v)
    case []byte:
        return c.parse(string(v))
    }
    return fmt.Errorf("cannot scan %T into time", src)
}

func (c timeCol) parse(s string) error {
    s = strings.TrimSpace(s)
    for _, layout := range timeLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            *c.t = t.UTC()
            return nil
        }
    }
    return fmt.Errorf("unrecognised time value %q", s)
}

func nullString(p *string) sql.NullString {
    if p == nil {
        return sql.NullString{}
    }
    return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
    if p == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullID(p *uint64) sql.NullInt64 {
    if p == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func strPtr(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    s := ns.String
    return &s
}

func intPtr(ni sql.NullInt64) *int {
    if !ni.Valid {
        return nil
    }
    n := int(ni.Int64)
    return &n
}

func idPtr(ni sql.NullInt64) *uint64 {
    if !ni.Valid {
        return nil
    }
    id := uint64(ni.Int64)
    return &id
}

// encodeList stores a string list as JSON text.  An empty list is
// stored as "[]" rather than NULL.
func encodeList(items []string) (string, error) {
    if items == nil {
        items = []string{}
    }
    b, err := json.Marshal(items)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// decodeList reads a JSON text list.  NULL and blank values decode to an
// empty list.
func decodeList(ns sql.NullString) ([]string, error) {
    out := []string{}
    if !ns.Valid || strings.TrimSpace(ns.String) == "" {
        return out, nil
    }
    if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
        return nil, fmt.Errorf("decode list: %w", err)
    }
    return out, nil
}

// Page bounds a list query.  Limit <= 0 means the package default.
type Page struct {
    Skip  int
    Limit int
}

const defaultLimit = 100

func (p Page) args() (int, int) {
    limit := p.Limit
    if limit <= 0 {
        limit = defaultLimit
    }
    skip := p.Skip
    if skip < 0 {
        skip = 0
    }
    return limit, skip
}
