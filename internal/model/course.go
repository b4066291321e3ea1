package model

import "time"

// CourseStatus is the lifecycle state of a course.  Only open and full
// are driven by seat accounting; the other transitions are made by an
// administrator.
type CourseStatus string

const (
    CourseUpcoming  CourseStatus = "upcoming"
    CourseOpen      CourseStatus = "open"
    CourseFull      CourseStatus = "full"
    CourseCompleted CourseStatus = "completed"
    CourseCancelled CourseStatus = "cancelled"
)

// Valid reports whether s is one of the known course statuses.
func (s CourseStatus) Valid() bool {
    switch s {
    case CourseUpcoming, CourseOpen, CourseFull, CourseCompleted, CourseCancelled:
        return true
    }
    return false
}

// CourseCategory groups courses for browsing.
type CourseCategory string

const (
    CategoryNatureExplore CourseCategory = "nature_explore"
    CategoryWorkshop      CourseCategory = "workshop"
    CategoryLecture       CourseCategory = "lecture"
    CategoryOther         CourseCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c CourseCategory) Valid() bool {
    switch c {
    case CategoryNatureExplore, CategoryWorkshop, CategoryLecture, CategoryOther:
        return true
    }
    return false
}

// DefaultMaxSpots is used when a course is created without a capacity.
const DefaultMaxSpots = 30

// Course is a scheduled session that people register for.  MaxSpots,
// CurrentRegistrations and Status together form the course's seat
// ledger; they must only be changed through ApplySeatDelta so that the
// full/open status stays in step with the seat count.
//
// Fields:
//  ID                   – primary key identifier.
//  Title                – display title.
//  Category             – browsing category.
//  Status               – lifecycle status.
//  Date                 – calendar day the course runs on.
//  StartTime, EndTime   – optional wall clock times (HH:MM[:SS]).
//  MaxSpots             – capacity ceiling.
//  CurrentRegistrations – seats held by confirmed registrations.
//  InstructorID         – optional instructor reference.
type Course struct {
    ID                   uint64         `json:"id"`                    // courses.id
    Title                string         `json:"title"`                 // courses.title
    Description          *string        `json:"description"`           // courses.description (nullable)
    Category             CourseCategory `json:"category"`              // courses.category
    Status               CourseStatus   `json:"status"`                // courses.status
    Date                 Date           `json:"date"`                  // courses.date
    StartTime            *string        `json:"start_time"`            // courses.start_time (nullable)
    EndTime              *string        `json:"end_time"`              // courses.end_time (nullable)
    Location             *string        `json:"location"`              // courses.location (nullable)
    MaxSpots             int            `json:"max_spots"`             // courses.max_spots
    CurrentRegistrations int            `json:"current_registrations"` // courses.current_registrations
    InstructorID         *uint64        `json:"instructor_id"`         // courses.instructor_id (nullable)
    ImageURL             *string        `json:"image_url"`             // courses.image_url (nullable)
    Requirements         *string        `json:"requirements"`          // courses.requirements (nullable)
    Notes                *string        `json:"notes"`                 // courses.notes (nullable)
    CreatedAt            time.Time      `json:"created_at"`            // courses.created_at
    UpdatedAt            time.Time      `json:"updated_at"`            // courses.updated_at
}

// AvailableSpots is MaxSpots minus CurrentRegistrations.  The result is
// not clamped and goes negative when an administrator shrinks MaxSpots
// below the number of seats already held.
func (c *Course) AvailableSpots() int {
    return c.MaxSpots - c.CurrentRegistrations
}

// ApplySeatDelta moves delta seats in (delta > 0) or out (delta < 0) of
// the course in one step.  A single call with +n or -n leaves the course
// in the same state as n single-seat reservations or releases:
//
//   - reserving adds delta and marks the course full once the count
//     reaches MaxSpots; it never checks capacity.
//   - releasing only happens while the count is above zero, floors the
//     count at zero and turns a full course back to open even if the
//     remaining seats still meet MaxSpots.
func (c *Course) ApplySeatDelta(delta int) {
    switch {
    case delta > 0:
        c.CurrentRegistrations += delta
        if c.CurrentRegistrations >= c.MaxSpots {
            c.Status = CourseFull
        }
    case delta < 0:
        if c.CurrentRegistrations <= 0 {
            return
        }
        c.CurrentRegistrations += delta
        if c.CurrentRegistrations < 0 {
            c.CurrentRegistrations = 0
        }
        if c.Status == CourseFull {
            c.Status = CourseOpen
        }
    }
}

// CourseDetail is the public representation of a course: the stored
// row plus the derived free seat count and a short instructor card.
type CourseDetail struct {
    Course
    AvailableSpots int                `json:"available_spots"`
    Instructor     *InstructorSummary `json:"instructor"`
}

// NewCourseDetail wraps c for output.  ins may be nil.
func NewCourseDetail(c Course, ins *InstructorSummary) CourseDetail {
    return CourseDetail{Course: c, AvailableSpots: c.AvailableSpots(), Instructor: ins}
}

// CapacitySnapshot is a point-in-time view of a course's seat ledger.
type CapacitySnapshot struct {
    CourseID             uint64       `json:"course_id"`
    MaxSpots             int          `json:"max_spots"`
    CurrentRegistrations int          `json:"current_registrations"`
    AvailableSpots       int          `json:"available_spots"`
    Status               CourseStatus `json:"status"`
}

// Snapshot captures the course's current seat ledger.
func (c *Course) Snapshot() CapacitySnapshot {
    return CapacitySnapshot{
        CourseID:             c.ID,
        MaxSpots:             c.MaxSpots,
        CurrentRegistrations: c.CurrentRegistrations,
        AvailableSpots:       c.AvailableSpots(),
        Status:               c.Status,
    }
}
