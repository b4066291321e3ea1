package model

import (
    "database/sql/driver"
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day.  It is encoded as
// "YYYY-MM-DD" in JSON and in the database.
type Date struct {
    time.Time
}

// NewDate returns midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) Date {
    return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s in DateLayout.
func ParseDate(s string) (Date, error) {
    t, err := time.Parse(DateLayout, strings.TrimSpace(s))
    if err != nil {
        return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
    }
    return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

// MarshalJSON writes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
    return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string.  A full RFC 3339
// timestamp is accepted too and truncated to its day.
func (d *Date) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    if s == "" || s == "null" {
        *d = Date{}
        return nil
    }
    if len(s) > len(DateLayout) {
        t, err := time.Parse(time.RFC3339, s)
        if err != nil {
            return fmt.Errorf("invalid date %q: %w", s, err)
        }
        *d = NewDate(t.Date())
        return nil
    }
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}

// Value stores the date as text so both MySQL DATE and SQLite TEXT
// columns accept it.
func (d Date) Value() (driver.Value, error) {
    return d.Format(DateLayout), nil
}

// Scan reads DATE columns returned as time.Time (MySQL with
// parseTime=true) or as text (SQLite).
func (d *Date) Scan(src any) error {
    switch v := src.(type) {
    case nil:
        *d = Date{}
        return nil
    case time.Time:
        *d = NewDate(v.UTC().Date())
        return nil
    case string:
        return d.scanText(v)
    case []byte:
        return d.scanText(string(v))
    }
    return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanText(s string) error {
    if len(s) > len(DateLayout) {
        s = s[:len(DateLayout)]
    }
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}
