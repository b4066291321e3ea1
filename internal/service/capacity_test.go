package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eco-adventures-backend/internal/model"
	"github.com/iliyamo/eco-adventures-backend/internal/testutil"
)

func TestCapacityLedger_ReserveFillsCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 2})

	c, err := f.ledger.Reserve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, c.CurrentRegistrations)
	require.Equal(t, model.CourseOpen, c.Status)

	c, err = f.ledger.Reserve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, c.CurrentRegistrations)
	require.Equal(t, model.CourseFull, c.Status)

	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current)
	require.Equal(t, "full", status)
}

func TestCapacityLedger_ReleaseReopensAndFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 1, Current: 1, Status: "full"})

	c, err := f.ledger.Release(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, c.CurrentRegistrations)
	require.Equal(t, model.CourseOpen, c.Status)

	c, err = f.ledger.Release(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, c.CurrentRegistrations, "release at zero is a no-op")

	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 0, current)
}

func TestCapacityLedger_UpcomingStaysUpcomingUntilFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 3, Status: "upcoming"})

	c, err := f.ledger.Adjust(ctx, id, 2)
	require.NoError(t, err)
	require.Equal(t, model.CourseUpcoming, c.Status)

	c, err = f.ledger.Adjust(ctx, id, 1)
	require.NoError(t, err)
	require.Equal(t, model.CourseFull, c.Status)
}

func TestCapacityLedger_MissingCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, 999)
	require.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.ledger.Release(ctx, 999)
	require.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.ledger.Snapshot(ctx, 999)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCapacityLedger_Snapshot(t *testing.T) {
	f := newFixture(t)
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 8, Current: 3})

	snap, err := f.ledger.Snapshot(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, model.CapacitySnapshot{
		CourseID:             id,
		MaxSpots:             8,
		CurrentRegistrations: 3,
		AvailableSpots:       5,
		Status:               model.CourseOpen,
	}, snap)
}
