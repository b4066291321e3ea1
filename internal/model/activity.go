package model

import "time"

// Activity is a past event shown in the gallery.  Photos is stored as a
// JSON array of URLs in a text column.
type Activity struct {
    ID                uint64    `json:"id"`                 // activities.id
    Title             string    `json:"title"`              // activities.title
    Description       *string   `json:"description"`        // activities.description (nullable)
    Category          *string   `json:"category"`           // activities.category (nullable)
    Date              *Date     `json:"date"`               // activities.date (nullable)
    Location          *string   `json:"location"`           // activities.location (nullable)
    ImageURL          *string   `json:"image_url"`          // activities.image_url (nullable)
    ParticipantsCount *int      `json:"participants_count"` // activities.participants_count (nullable)
    Highlights        *string   `json:"highlights"`         // activities.highlights (nullable)
    Photos            []string  `json:"photos"`             // activities.photos (JSON text)
    CreatedAt         time.Time `json:"created_at"`         // activities.created_at
    UpdatedAt         time.Time `json:"updated_at"`         // activities.updated_at
}
