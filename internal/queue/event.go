// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer that move them.
package queue

// Registration event types.
const (
    EventRegistrationConfirmed  = "registration.confirmed"
    EventRegistrationWaitlisted = "registration.waitlisted"
    EventRegistrationCancelled  = "registration.cancelled"
    EventRegistrationDeleted    = "registration.deleted"
    EventRegistrationUpdated    = "registration.updated"
)

// RegistrationEvent is published after a registration change commits.
// It carries the registration and the owning course's seat ledger as they
// stood after the change, so consumers can log or notify without
// querying the primary database.
type RegistrationEvent struct {
    EventID              string `json:"event_id"`
    Type                 string `json:"type"`
    RegistrationID       uint64 `json:"registration_id"`
    RegistrationStatus   string `json:"registration_status"`
    Participants         int    `json:"participants"`
    Name                 string `json:"name"`
    Email                string `json:"email"`
    CourseID             uint64 `json:"course_id"`
    CourseTitle          string `json:"course_title"`
    CourseStatus         string `json:"course_status"`
    CurrentRegistrations int    `json:"current_registrations"`
    MaxSpots             int    `json:"max_spots"`
    OccurredAt           string `json:"occurred_at"`
}
