package model

import "time"

// FAQ is a question and answer pair.  Order controls display position
// (ascending); it is stored in the sort_order column.
type FAQ struct {
    ID        uint64    `json:"id"`         // faqs.id
    Question  string    `json:"question"`   // faqs.question
    Answer    string    `json:"answer"`     // faqs.answer
    Category  *string   `json:"category"`   // faqs.category (nullable)
    Order     int       `json:"order"`      // faqs.sort_order
    IsActive  bool      `json:"is_active"`  // faqs.is_active
    CreatedAt time.Time `json:"created_at"` // faqs.created_at
    UpdatedAt time.Time `json:"updated_at"` // faqs.updated_at
}
