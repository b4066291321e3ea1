package model

import "time"

// Instructor leads courses.  Specialties is stored as a JSON array in a
// text column.
type Instructor struct {
    ID          uint64    `json:"id"`          // instructors.id
    Name        string    `json:"name"`        // instructors.name
    Title       *string   `json:"title"`       // instructors.title (nullable)
    Description *string   `json:"description"` // instructors.description (nullable)
    ImageURL    *string   `json:"image_url"`   // instructors.image_url (nullable)
    Specialties []string  `json:"specialties"` // instructors.specialties (JSON text)
    Email       *string   `json:"email"`       // instructors.email (nullable)
    Phone       *string   `json:"phone"`       // instructors.phone (nullable)
    IsActive    bool      `json:"is_active"`   // instructors.is_active
    CreatedAt   time.Time `json:"created_at"`  // instructors.created_at
    UpdatedAt   time.Time `json:"updated_at"`  // instructors.updated_at
}

// InstructorSummary is the short instructor card embedded in course
// responses.
type InstructorSummary struct {
    ID       uint64  `json:"id"`
    Name     string  `json:"name"`
    Title    *string `json:"title"`
    ImageURL *string `json:"image_url"`
}

// Summary returns the card for i.
func (i *Instructor) Summary() *InstructorSummary {
    return &InstructorSummary{ID: i.ID, Name: i.Name, Title: i.Title, ImageURL: i.ImageURL}
}
