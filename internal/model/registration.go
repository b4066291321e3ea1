package model

import "time"

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
    RegistrationPending    RegistrationStatus = "pending"
    RegistrationConfirmed  RegistrationStatus = "confirmed"
    RegistrationCancelled  RegistrationStatus = "cancelled"
    RegistrationWaitlisted RegistrationStatus = "waitlisted"
)

// Valid reports whether s is one of the known registration statuses.
func (s RegistrationStatus) Valid() bool {
    switch s {
    case RegistrationPending, RegistrationConfirmed, RegistrationCancelled, RegistrationWaitlisted:
        return true
    }
    return false
}

// Participant bounds for a single registration.
const (
    MinParticipants = 1
    MaxParticipants = 5
)

// Registration records a guest's sign-up for a course.  Contact details
// are stored on the registration itself so no account is needed.  Only
// confirmed registrations hold seats on the owning course.
//
// Fields:
//  ID           – primary key identifier.
//  CourseID     – course being registered for.
//  Name, Email, Phone – contact details of the registrant.
//  Participants – number of seats requested (1..5).
//  Status       – pending, confirmed, cancelled or waitlisted.
//  Notes        – optional free text.
type Registration struct {
    ID           uint64             `json:"id"`           // registrations.id
    CourseID     uint64             `json:"course_id"`    // registrations.course_id
    Name         string             `json:"name"`         // registrations.name
    Email        string             `json:"email"`        // registrations.email
    Phone        string             `json:"phone"`        // registrations.phone
    Participants int                `json:"participants"` // registrations.participants
    Status       RegistrationStatus `json:"status"`       // registrations.status
    Notes        *string            `json:"notes"`        // registrations.notes (nullable)
    CreatedAt    time.Time          `json:"created_at"`   // registrations.created_at
    UpdatedAt    time.Time          `json:"updated_at"`   // registrations.updated_at
}

// SeatsHeld is the number of course seats this registration occupies
// in its current status.
func (r *Registration) SeatsHeld() int {
    return SeatsHeldFor(r.Status, r.Participants)
}

// SeatsHeldFor returns participants for confirmed registrations and
// zero for every other status.
func SeatsHeldFor(status RegistrationStatus, participants int) int {
    if status == RegistrationConfirmed {
        return participants
    }
    return 0
}

// RegistrationWithCourse pairs a registration with the course it
// belongs to.
type RegistrationWithCourse struct {
    Registration
    Course Course `json:"course"`
}
