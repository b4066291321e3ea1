package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/eco-adventures-backend/internal/model"
	"github.com/iliyamo/eco-adventures-backend/internal/queue"
	"github.com/iliyamo/eco-adventures-backend/internal/repository"
)

// EventPublisher delivers registration events after a change commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.RegistrationEvent) error
}

const publishTimeout = 3 * time.Second

// RegistrationService decides the fate of registration requests and keeps
// them in step with the capacity ledger.
//
// Every state change runs in one transaction that first locks the owning
// course row.  The duplicate check, the capacity decision, the
// registration write and the seat adjustment therefore commit or roll
// back together, and concurrent requests for the same course are
// serialized.  Waitlisted registrations are never promoted automatically.
type RegistrationService struct {
	courses       *repository.CourseRepo
	registrations *repository.RegistrationRepo
	ledger        *CapacityLedger
	events        EventPublisher
	log           *log.Logger
}

// NewRegistrationService wires the service.  events may be nil, in which
// case nothing is published.
func NewRegistrationService(courses *repository.CourseRepo, registrations *repository.RegistrationRepo,
	ledger *CapacityLedger, events EventPublisher, logger *log.Logger) *RegistrationService {
	return &RegistrationService{
		courses:       courses,
		registrations: registrations,
		ledger:        ledger,
		events:        events,
		log:           logger,
	}
}

// SubmitRequest is a new registration.
type SubmitRequest struct {
	CourseID     uint64
	Name         string
	Email        string
	Phone        string
	Participants int
	Notes        *string
}

func (r *SubmitRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.Name == "" || r.Email == "" || r.Phone == "":
		return fmt.Errorf("%w: name, email and phone are required", ErrValidation)
	case r.Participants < model.MinParticipants || r.Participants > model.MaxParticipants:
		return fmt.Errorf("%w: participants must be between %d and %d", ErrValidation, model.MinParticipants, model.MaxParticipants)
	}
	return nil
}

// UpdateRequest changes a registration.  Nil fields are left alone.
type UpdateRequest struct {
	Status *model.RegistrationStatus
	Notes  *string
}

// Submit creates a registration.  A full course yields a waitlisted
// registration without touching the ledger.  Otherwise the request needs
// participants free seats: it is confirmed and the seats are reserved, or
// it fails with ErrInsufficientCapacity and nothing is stored.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRequest) (*model.Registration, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	reg := &model.Registration{
		CourseID:     req.CourseID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Participants: req.Participants,
		Notes:        req.Notes,
	}
	var course *model.Course
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := s.ledger.lockTx(ctx, tx, req.CourseID)
		if err != nil {
			return err
		}
		course = c
		dup, err := s.registrations.ExistsActiveTx(ctx, tx, req.Email, req.CourseID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateRegistration
		}
		if c.Status == model.CourseFull {
			reg.Status = model.RegistrationWaitlisted
			return s.createTx(ctx, tx, reg)
		}
		if c.AvailableSpots() < req.Participants {
			return ErrInsufficientCapacity
		}
		reg.Status = model.RegistrationConfirmed
		if err := s.createTx(ctx, tx, reg); err != nil {
			return err
		}
		return s.ledger.applyTx(ctx, tx, c, req.Participants)
	})
	if err != nil {
		return nil, err
	}

	evType := queue.EventRegistrationConfirmed
	if reg.Status == model.RegistrationWaitlisted {
		evType = queue.EventRegistrationWaitlisted
	}
	s.log.Infoj(log.JSON{
		"msg":             "registration submitted",
		"registration_id": reg.ID,
		"course_id":       reg.CourseID,
		"status":          string(reg.Status),
		"participants":    reg.Participants,
	})
	s.publish(ctx, evType, reg, course)
	return reg, nil
}

// Cancel marks a registration cancelled.  A confirmed registration gives
// its seats back first; any other status releases nothing.  Cancelling
// an already cancelled registration is a no-op that succeeds.
func (s *RegistrationService) Cancel(ctx context.Context, id uint64) (*model.Registration, error) {
	var reg *model.Registration
	var course *model.Course
	changed := false
	err := s.withLockedRegistration(ctx, id, func(tx *sql.Tx, r *model.Registration, c *model.Course) error {
		reg, course = r, c
		if r.Status == model.RegistrationCancelled {
			return nil
		}
		if err := s.ledger.applyTx(ctx, tx, c, -r.SeatsHeld()); err != nil {
			return err
		}
		r.Status = model.RegistrationCancelled
		changed = true
		return s.registrations.UpdateTx(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Infoj(log.JSON{"msg": "registration cancelled", "registration_id": reg.ID, "course_id": reg.CourseID})
		s.publish(ctx, queue.EventRegistrationCancelled, reg, course)
	}
	return reg, nil
}

// Delete removes a registration, releasing its seats first when it is
// confirmed.
func (s *RegistrationService) Delete(ctx context.Context, id uint64) error {
	var reg *model.Registration
	var course *model.Course
	err := s.withLockedRegistration(ctx, id, func(tx *sql.Tx, r *model.Registration, c *model.Course) error {
		reg, course = r, c
		if err := s.ledger.applyTx(ctx, tx, c, -r.SeatsHeld()); err != nil {
			return err
		}
		if err := s.registrations.DeleteTx(ctx, tx, r.ID); err != nil {
			return registrationErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Infoj(log.JSON{"msg": "registration deleted", "registration_id": reg.ID, "course_id": reg.CourseID})
	s.publish(ctx, queue.EventRegistrationDeleted, reg, course)
	return nil
}

// Update edits notes and, optionally, the status of a registration.  A
// status change moves seats by the difference between what the new and
// old statuses hold: only confirmed registrations hold seats.  Taking
// seats requires that many free seats; moving back to pending is not
// allowed.
func (s *RegistrationService) Update(ctx context.Context, id uint64, req UpdateRequest) (*model.Registration, error) {
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		if *req.Status == model.RegistrationPending {
			return nil, fmt.Errorf("%w: a registration cannot return to pending", ErrValidation)
		}
	}
	var reg *model.Registration
	var course *model.Course
	statusChanged := false
	err := s.withLockedRegistration(ctx, id, func(tx *sql.Tx, r *model.Registration, c *model.Course) error {
		reg, course = r, c
		if req.Status != nil && *req.Status != r.Status {
			delta := model.SeatsHeldFor(*req.Status, r.Participants) - r.SeatsHeld()
			if delta > 0 && (c.Status == model.CourseFull || c.AvailableSpots() < delta) {
				return ErrInsufficientCapacity
			}
			if err := s.ledger.applyTx(ctx, tx, c, delta); err != nil {
				return err
			}
			r.Status = *req.Status
			statusChanged = true
		}
		if req.Notes != nil {
			r.Notes = req.Notes
		}
		if err := s.registrations.UpdateTx(ctx, tx, r); err != nil {
			return registrationErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if statusChanged {
		s.log.Infoj(log.JSON{"msg": "registration status changed", "registration_id": reg.ID, "status": string(reg.Status)})
		s.publish(ctx, queue.EventRegistrationUpdated, reg, course)
	}
	return reg, nil
}

// Get returns a registration by id.
func (s *RegistrationService) Get(ctx context.Context, id uint64) (*model.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, registrationErr(err)
	}
	return reg, nil
}

// List returns registrations matching f, newest first.
func (s *RegistrationService) List(ctx context.Context, f repository.RegistrationFilter) ([]model.Registration, error) {
	return s.registrations.List(ctx, f)
}

// ListByEmail returns every registration made with email together with
// its course.
func (s *RegistrationService) ListByEmail(ctx context.Context, email string) ([]model.RegistrationWithCourse, error) {
	return s.registrations.ListByEmail(ctx, normalizeEmail(email))
}

// Count returns the number of registrations, optionally for one course
// (courseID 0 counts all).
func (s *RegistrationService) Count(ctx context.Context, courseID uint64) (int, error) {
	return s.registrations.Count(ctx, repository.RegistrationFilter{CourseID: courseID})
}

// CheckDuplicate reports whether email already holds a live registration
// for the course.  Submit repeats this check under the course lock; this
// read-only version lets clients warn early.
func (s *RegistrationService) CheckDuplicate(ctx context.Context, email string, courseID uint64) (bool, error) {
	return s.registrations.ExistsActive(ctx, normalizeEmail(email), courseID)
}

// withLockedRegistration runs fn in a transaction holding the lock on the
// registration's course and a fresh locking read of the registration.
// The course id is looked up first because all registration writes are
// serialized on the course row.
func (s *RegistrationService) withLockedRegistration(ctx context.Context, id uint64,
	fn func(tx *sql.Tx, reg *model.Registration, course *model.Course) error) error {
	existing, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return registrationErr(err)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := s.ledger.lockTx(ctx, tx, existing.CourseID)
		if err != nil {
			return err
		}
		reg, err := s.registrations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return registrationErr(err)
		}
		return fn(tx, reg, c)
	})
}

func (s *RegistrationService) createTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
	err := s.registrations.CreateTx(ctx, tx, reg)
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicateRegistration
	}
	return err
}

func (s *RegistrationService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.courses.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// publish sends an event for a committed change.  Failures are logged
// and never reach the caller.
func (s *RegistrationService) publish(ctx context.Context, evType string, reg *model.Registration, c *model.Course) {
	if s.events == nil {
		return
	}
	ev := queue.RegistrationEvent{
		EventID:              uuid.NewString(),
		Type:                 evType,
		RegistrationID:       reg.ID,
		RegistrationStatus:   string(reg.Status),
		Participants:         reg.Participants,
		Name:                 reg.Name,
		Email:                reg.Email,
		CourseID:             c.ID,
		CourseTitle:          c.Title,
		CourseStatus:         string(c.Status),
		CurrentRegistrations: c.CurrentRegistrations,
		MaxSpots:             c.MaxSpots,
		OccurredAt:           time.Now().UTC().Format(time.RFC3339),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warnj(log.JSON{"msg": "event publish failed", "event_id": ev.EventID, "type": evType, "error": err.Error()})
	}
}

func registrationErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicateRegistration
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
