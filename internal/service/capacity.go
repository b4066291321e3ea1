package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/eco-adventures-backend/internal/model"
	"github.com/iliyamo/eco-adventures-backend/internal/repository"
)

// CapacityLedger owns a course's max_spots / current_registrations /
// status triple.  Every change goes through a transaction that holds the
// course row lock, so each adjustment is atomic on its own and composes
// with the registration change that caused it.
type CapacityLedger struct {
	courses *repository.CourseRepo
	log     *log.Logger
}

// NewCapacityLedger returns a ledger over the given course repository.
func NewCapacityLedger(courses *repository.CourseRepo, logger *log.Logger) *CapacityLedger {
	return &CapacityLedger{courses: courses, log: logger}
}

// Reserve takes one seat on the course.  It does not check capacity;
// callers decide whether a seat may be taken.
func (l *CapacityLedger) Reserve(ctx context.Context, courseID uint64) (*model.Course, error) {
	return l.Adjust(ctx, courseID, 1)
}

// Release gives one seat back.  The count never drops below zero and a
// full course always reopens.
func (l *CapacityLedger) Release(ctx context.Context, courseID uint64) (*model.Course, error) {
	return l.Adjust(ctx, courseID, -1)
}

// Adjust moves delta seats in one transaction and returns the updated
// course.  It fails with ErrCourseNotFound when the course is missing.
func (l *CapacityLedger) Adjust(ctx context.Context, courseID uint64, delta int) (*model.Course, error) {
	tx, err := l.courses.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	c, err := l.lockTx(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	if err := l.applyTx(ctx, tx, c, delta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return c, nil
}

// Snapshot reads the course's current seat ledger.
func (l *CapacityLedger) Snapshot(ctx context.Context, courseID uint64) (model.CapacitySnapshot, error) {
	c, err := l.courses.GetByID(ctx, courseID)
	if err != nil {
		return model.CapacitySnapshot{}, courseErr(err)
	}
	return c.Snapshot(), nil
}

// lockTx loads and locks the course row for the rest of tx.
func (l *CapacityLedger) lockTx(ctx context.Context, tx *sql.Tx, courseID uint64) (*model.Course, error) {
	c, err := l.courses.GetForUpdateTx(ctx, tx, courseID)
	if err != nil {
		return nil, courseErr(err)
	}
	return c, nil
}

// applyTx applies delta to a course already locked by lockTx and writes
// it back.  A zero delta writes nothing.
func (l *CapacityLedger) applyTx(ctx context.Context, tx *sql.Tx, c *model.Course, delta int) error {
	if delta == 0 {
		return nil
	}
	before, status := c.CurrentRegistrations, c.Status
	c.ApplySeatDelta(delta)
	if err := l.courses.UpdateSeatsTx(ctx, tx, c); err != nil {
		return courseErr(err)
	}
	l.log.Debugj(log.JSON{
		"msg":       "seats adjusted",
		"course_id": c.ID,
		"delta":     delta,
		"from":      before,
		"to":        c.CurrentRegistrations,
		"status":    string(c.Status),
		"was":       string(status),
	})
	return nil
}

func courseErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCourseNotFound
	}
	return err
}
