package service

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/eco-adventures-backend/internal/queue"
	"github.com/iliyamo/eco-adventures-backend/internal/repository"
	"github.com/iliyamo/eco-adventures-backend/internal/testutil"
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RegistrationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.RegistrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db     *sql.DB
	ledger *CapacityLedger
	svc    *RegistrationService
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewTestDB(t))
}

func newFixtureOn(t *testing.T, db *sql.DB) *fixture {
	t.Helper()
	logger := quietLogger()
	courses := repository.NewCourseRepo(db, repository.SQLite)
	regs := repository.NewRegistrationRepo(db, repository.SQLite)
	ledger := NewCapacityLedger(courses, logger)
	events := &recordingPublisher{}
	return &fixture{
		db:     db,
		ledger: ledger,
		svc:    NewRegistrationService(courses, regs, ledger, events, logger),
		events: events,
	}
}

func (f *fixture) submit(t *testing.T, courseID uint64, email string, participants int) (*SubmitRequest, error) {
	t.Helper()
	req := SubmitRequest{CourseID: courseID, Name: "Guest", Email: email, Phone: "0912000000", Participants: participants}
	_, err := f.svc.Submit(context.Background(), req)
	return &req, err
}
