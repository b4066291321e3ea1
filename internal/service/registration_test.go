package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/iliyamo/eco-adventures-backend/internal/model"
	"github.com/iliyamo/eco-adventures-backend/internal/queue"
	"github.com/iliyamo/eco-adventures-backend/internal/repository"
	"github.com/iliyamo/eco-adventures-backend/internal/testutil"
)

func statusPtr(s model.RegistrationStatus) *model.RegistrationStatus { return &s }

func TestSubmit_ConfirmsAndReserves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 5})

	reg, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: " Ann ", Email: " Ann@Example.COM ", Phone: "0912", Participants: 3})
	require.NoError(t, err)
	require.NotZero(t, reg.ID)
	require.Equal(t, model.RegistrationConfirmed, reg.Status)
	require.Equal(t, "ann@example.com", reg.Email)
	require.Equal(t, "Ann", reg.Name)

	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 3, current)
	require.Equal(t, "open", status)
	require.Equal(t, []string{queue.EventRegistrationConfirmed}, f.events.types())
	require.Equal(t, 3, f.events.events[0].CurrentRegistrations)
}

func TestSubmit_FullCourseWaitlists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 2, Current: 2, Status: "full"})

	reg, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "Bo", Email: "bo@example.com", Phone: "0913", Participants: 4})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, reg.Status)

	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current, "waitlisting holds no seats")
	require.Equal(t, "full", status)
	require.Equal(t, []string{queue.EventRegistrationWaitlisted}, f.events.types())
}

func TestSubmit_InsufficientCapacityStoresNothing(t *testing.T) {
	f := newFixture(t)
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 5, Current: 3})

	_, err := f.submit(t, id, "cy@example.com", 3)
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	require.Equal(t, 0, testutil.CountRows(t, f.db, "registrations"))
	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 3, current)
	require.Equal(t, "open", status)
	require.Empty(t, f.events.types())
}

func TestSubmit_ExactFitMarksFull(t *testing.T) {
	f := newFixture(t)
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 5, Current: 3})

	_, err := f.submit(t, id, "dee@example.com", 2)
	require.NoError(t, err)
	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 5, current)
	require.Equal(t, "full", status)
}

func TestSubmit_Duplicate(t *testing.T) {
	f := newFixture(t)
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 10})

	_, err := f.submit(t, id, "ann@example.com", 1)
	require.NoError(t, err)
	_, err = f.submit(t, id, "ANN@example.com ", 1)
	require.ErrorIs(t, err, ErrDuplicateRegistration)

	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 1, current, "rejected duplicate holds no seats")

	dup, err := f.svc.CheckDuplicate(context.Background(), " Ann@Example.com", id)
	require.NoError(t, err)
	require.True(t, dup)
}

func TestSubmit_CancelledRegistrationAllowsRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 10})

	reg, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "Ann", Email: "ann@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, reg.ID)
	require.NoError(t, err)

	dup, err := f.svc.CheckDuplicate(ctx, "ann@example.com", id)
	require.NoError(t, err)
	require.False(t, dup)

	_, err = f.submit(t, id, "ann@example.com", 2)
	require.NoError(t, err)
	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{})

	for _, n := range []int{0, 6, -1} {
		_, err := f.submit(t, id, fmt.Sprintf("p%d@example.com", n), n)
		require.ErrorIs(t, err, ErrValidation)
	}
	_, err := f.svc.Submit(context.Background(), SubmitRequest{CourseID: id, Name: "  ", Email: "x@example.com", Phone: "1", Participants: 1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmit_MissingCourse(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit(t, 4242, "ann@example.com", 1)
	require.ErrorIs(t, err, ErrCourseNotFound)
	require.Equal(t, 0, testutil.CountRows(t, f.db, "registrations"))
}

// Two seats, A takes both, B is waitlisted, A cancels: the seats come
// back but B is not promoted.
func TestWaitlistIsNotPromotedOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 2})

	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationConfirmed, a.Status)
	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current)
	require.Equal(t, "full", status)

	b, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "B", Email: "b@example.com", Phone: "2", Participants: 1})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, b.Status)

	cancelled, err := f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationCancelled, cancelled.Status)
	current, status = testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 0, current)
	require.Equal(t, "open", status)

	b, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, b.Status)

	require.Equal(t, []string{
		queue.EventRegistrationConfirmed,
		queue.EventRegistrationWaitlisted,
		queue.EventRegistrationCancelled,
	}, f.events.types())
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 4})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "B", Email: "b@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current, "second cancel releases nothing")
	require.Equal(t, "open", status)
	require.Len(t, f.events.types(), 3)
}

func TestCancel_WaitlistedReleasesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 2, Current: 2, Status: "full"})
	w, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "W", Email: "w@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, w.ID)
	require.NoError(t, err)
	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current)
	require.Equal(t, "full", status)
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Cancel(context.Background(), 77)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, f.svc.Delete(context.Background(), 77), ErrNotFound)
	_, err = f.svc.Get(context.Background(), 77)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_ReleasesConfirmedSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 3})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 3})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 0, current)
	require.Equal(t, "open", status)
	require.Equal(t, 0, testutil.CountRows(t, f.db, "registrations"))
	require.Equal(t, queue.EventRegistrationDeleted, f.events.types()[1])
}

func TestDelete_CancelledReleasesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 3})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "B", Email: "b@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 1, current)
}

func TestUpdate_StatusMovesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 3})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 2})
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, a.ID, UpdateRequest{Status: statusPtr(model.RegistrationWaitlisted)})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, got.Status)
	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 0, current)

	got, err = f.svc.Update(ctx, a.ID, UpdateRequest{Status: statusPtr(model.RegistrationConfirmed)})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationConfirmed, got.Status)
	current, _ = testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current)

	note := "bring boots"
	got, err = f.svc.Update(ctx, a.ID, UpdateRequest{Notes: &note})
	require.NoError(t, err)
	require.Equal(t, note, *got.Notes)
	current, _ = testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 2, current, "notes-only update keeps seats")
	require.Equal(t, []string{queue.EventRegistrationConfirmed, queue.EventRegistrationUpdated, queue.EventRegistrationUpdated}, f.events.types())
}

func TestUpdate_ConfirmNeedsCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 2, Current: 2, Status: "full"})
	w, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "W", Email: "w@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, w.ID, UpdateRequest{Status: statusPtr(model.RegistrationConfirmed)})
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	got, err := f.svc.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, got.Status)
}

func TestUpdate_RejectsPendingAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, a.ID, UpdateRequest{Status: statusPtr(model.RegistrationPending)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Update(ctx, a.ID, UpdateRequest{Status: statusPtr("lost")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdate_ReviveCancelledConflictsWithLiveRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{})
	a, err := f.svc.Submit(ctx, SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.submit(t, id, "a@example.com", 1)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, a.ID, UpdateRequest{Status: statusPtr(model.RegistrationConfirmed)})
	require.ErrorIs(t, err, ErrDuplicateRegistration)
	current, _ := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 1, current, "failed revive rolls back its seats")
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{})

	_, err := f.submit(t, id, "a@example.com", 1)
	require.NoError(t, err)
	require.Equal(t, 1, testutil.CountRows(t, f.db, "registrations"))
}

func TestNilPublisher(t *testing.T) {
	db := testutil.NewTestDB(t)
	courses := repository.NewCourseRepo(db, repository.SQLite)
	ledger := NewCapacityLedger(courses, quietLogger())
	svc := NewRegistrationService(courses, repository.NewRegistrationRepo(db, repository.SQLite), ledger, nil, quietLogger())
	id := testutil.SeedCourse(t, db, testutil.CourseSeed{})

	_, err := svc.Submit(context.Background(), SubmitRequest{CourseID: id, Name: "A", Email: "a@example.com", Phone: "1", Participants: 1})
	require.NoError(t, err)
}

func TestListByEmailAndCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := testutil.SeedCourse(t, f.db, testutil.CourseSeed{Title: "Birding"})
	c2 := testutil.SeedCourse(t, f.db, testutil.CourseSeed{Title: "Mosses"})
	_, err := f.submit(t, c1, "ann@example.com", 1)
	require.NoError(t, err)
	_, err = f.submit(t, c2, "ann@example.com", 2)
	require.NoError(t, err)
	_, err = f.submit(t, c2, "bo@example.com", 1)
	require.NoError(t, err)

	mine, err := f.svc.ListByEmail(ctx, " ANN@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	titles := []string{mine[0].Course.Title, mine[1].Course.Title}
	require.ElementsMatch(t, []string{"Birding", "Mosses"}, titles)

	n, err := f.svc.Count(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	n, err = f.svc.Count(ctx, c2)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := f.svc.List(ctx, repository.RegistrationFilter{CourseID: c2})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

// Concurrent single-seat requests never overbook: exactly max_spots are
// confirmed and the rest are waitlisted.  The in-memory database has a
// single connection, so here the pool serializes the requests; the
// file-backed variant has the transactions contend for the write lock.
func TestSubmit_ConcurrentRequestsNeverOverbook(t *testing.T) {
	t.Run("single connection", func(t *testing.T) {
		assertNoOverbooking(t, newFixture(t))
	})
	t.Run("pooled connections", func(t *testing.T) {
		assertNoOverbooking(t, newFixtureOn(t, testutil.NewFileTestDB(t, 4)))
	})
}

func assertNoOverbooking(t *testing.T, f *fixture) {
	t.Helper()
	id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: 5})

	const n = 12
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(context.Background(), SubmitRequest{
				CourseID: id, Name: "G", Email: fmt.Sprintf("g%d@example.com", i), Phone: "1", Participants: 1,
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	current, status := testutil.CourseSeats(t, f.db, id)
	require.Equal(t, 5, current)
	require.Equal(t, "full", status)
	confirmed, err := f.svc.registrations.Count(context.Background(), repository.RegistrationFilter{CourseID: id, Status: model.RegistrationConfirmed})
	require.NoError(t, err)
	require.Equal(t, 5, confirmed)
	waitlisted, err := f.svc.registrations.Count(context.Background(), repository.RegistrationFilter{CourseID: id, Status: model.RegistrationWaitlisted})
	require.NoError(t, err)
	require.Equal(t, n-5, waitlisted)
}

// Any sequence of submits, cancels and deletes keeps the ledger equal to
// the seats held by confirmed registrations, within max_spots, and full
// exactly when no seat is left.
func TestLedgerMatchesConfirmedSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		maxSpots := rapid.IntRange(1, 12).Draw(rt, "max")
		id := testutil.SeedCourse(t, f.db, testutil.CourseSeed{MaxSpots: maxSpots})
		var ids []uint64
		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom([]string{"submit", "submit", "cancel", "delete"}).Draw(rt, "op")
			switch {
			case op == "submit" || len(ids) == 0:
				p := rapid.IntRange(1, 5).Draw(rt, "participants")
				reg, err := f.svc.Submit(ctx, SubmitRequest{
					CourseID: id, Name: "G", Email: fmt.Sprintf("c%d-%d@example.com", id, i), Phone: "1", Participants: p,
				})
				if err != nil && !errors.Is(err, ErrInsufficientCapacity) {
					rt.Fatalf("submit: %v", err)
				}
				if reg != nil {
					ids = append(ids, reg.ID)
				}
			case op == "cancel":
				k := rapid.IntRange(0, len(ids)-1).Draw(rt, "k")
				if _, err := f.svc.Cancel(ctx, ids[k]); err != nil {
					rt.Fatalf("cancel: %v", err)
				}
			default:
				k := rapid.IntRange(0, len(ids)-1).Draw(rt, "k")
				if err := f.svc.Delete(ctx, ids[k]); err != nil {
					rt.Fatalf("delete: %v", err)
				}
				ids = append(ids[:k], ids[k+1:]...)
			}
		}

		var held int
		err := f.db.QueryRow(`SELECT COALESCE(SUM(participants), 0) FROM registrations WHERE course_id = ? AND status = 'confirmed'`, id).Scan(&held)
		if err != nil {
			rt.Fatalf("sum: %v", err)
		}
		current, status := testutil.CourseSeats(t, f.db, id)
		if current != held {
			rt.Fatalf("ledger %d != confirmed seats %d", current, held)
		}
		if current > maxSpots {
			rt.Fatalf("overbooked: %d > %d", current, maxSpots)
		}
		if (status == "full") != (current == maxSpots) {
			rt.Fatalf("status %q with %d/%d", status, current, maxSpots)
		}
	})
}
