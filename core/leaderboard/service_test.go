package leaderboard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/scoring"
	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
	inmemdb "github.com/gongbuapp/gongbu/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type mailRecorder struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
}

type fixture struct {
	svc      ServiceInterface
	usrRepo  user.Repository
	sessRepo session.Repository
	mail     *mailRecorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2021, 3, 10, 15, 0, 0, 0, time.UTC) // Wednesday
	nowFn := func() time.Time { return now }

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	sessRepo := inmemdb.NewSessionRepositoryMock(db, nowFn)

	conf := &core.Config{}
	conf.Scoring.LeaderboardTopN = 10

	mail := &mailRecorder{}
	svc := NewServiceMock(usrRepo, sessRepo, scoring.NewScorer(conf.Scoring), conf, mail, nopLogger{}, nowFn)

	return &fixture{svc: svc, usrRepo: usrRepo, sessRepo: sessRepo, mail: mail, now: now}
}

func (f *fixture) addStudent(t *testing.T, name, uname, school string) user.User {
	t.Helper()
	usr, err := f.usrRepo.CreateUser(context.Background(), user.User{
		Name:      name,
		Username:  uname,
		Email:     uname + "@test.kr",
		School:    school,
		IsActive:  true,
		Roles:     []string{user.RoleStudent},
		CreatedAt: f.now.Add(-30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("addStudent() failed: %v", err)
	}
	return usr
}

func (f *fixture) logSessions(t *testing.T, userID string, sessions ...session.Session) {
	t.Helper()
	for _, sess := range sessions {
		sess.UserID = userID
		if _, err := f.sessRepo.CreateSession(context.Background(), sess); err != nil {
			t.Fatalf("logSessions() failed: %v", err)
		}
	}
}

func TestService_GenerateWindowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	diligent := f.addStudent(t, "Jiho", "jiho01", "Hanbit High")
	dormant := f.addStudent(t, "Mina", "mina02", "Hanbit High")

	// diligent: active this week; dormant: last active three weeks ago
	f.logSessions(t, diligent.ID, daily(diligent.ID, f.now, 3)...)
	f.logSessions(t, dormant.ID, daily(dormant.ID, f.now.AddDate(0, 0, -21), 10)...)

	allTime, err := f.svc.Generate(ctx, session.WindowAllTime, 0)
	if err != nil {
		t.Fatalf("Generate(all) failed: %v", err)
	}
	if len(allTime) != 2 {
		t.Fatalf("all time: len = %d; want 2", len(allTime))
	}
	if allTime[0].UserID != dormant.ID { // 10 active days beat 3
		t.Errorf("all time: entries[0].UserID = %s; want %s", allTime[0].UserID, dormant.ID)
	}

	week, err := f.svc.Generate(ctx, session.WindowThisWeek, 0)
	if err != nil {
		t.Fatalf("Generate(week) failed: %v", err)
	}
	if len(week) != 1 {
		t.Fatalf("this week: len = %d; want 1", len(week))
	}
	if week[0].UserID != diligent.ID || week[0].Rank != 1 {
		t.Errorf("this week: entries[0] = %+v; want %s at rank 1", week[0], diligent.ID)
	}
}

func TestService_GenerateSkipsFutureSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// logging tolerates a minute of clock skew, so a stored session may sit
	// slightly past the generation clock
	usr := f.addStudent(t, "Jiho", "jiho01", "Hanbit High")
	f.logSessions(t, usr.ID, session.Session{CreatedAt: f.now.Add(30 * time.Second)})

	entries, err := f.svc.Generate(ctx, session.WindowThisWeek, 0)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d; want 0 (session not logged yet as of now)", len(entries))
	}

	// the board and the per-user breakdown must agree on what counts
	scores, err := f.svc.UserBreakdown(ctx, usr.ID, session.WindowThisWeek)
	if err != nil {
		t.Fatalf("UserBreakdown() failed: %v", err)
	}
	if (scores != scoring.Breakdown{}) {
		t.Errorf("breakdown = %+v; want zero", scores)
	}
}

func TestService_GenerateSkipsNonStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	teacher, err := f.usrRepo.CreateUser(ctx, user.User{
		Name: "Mr Kim", Username: "mrkim", Email: "kim@test.kr",
		IsActive: true, Roles: []string{user.RoleTeacher}, CreatedAt: f.now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	f.logSessions(t, teacher.ID, daily(teacher.ID, f.now, 10)...)

	entries, err := f.svc.Generate(ctx, session.WindowAllTime, 0)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d; want 0 (teachers are not ranked)", len(entries))
	}
}

func TestService_GenerateSchools(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addStudent(t, "Jiho", "jiho01", "Hanbit High")
	b := f.addStudent(t, "Mina", "mina02", "Daesung High")
	c := f.addStudent(t, "Hana", "hana03", "Hanbit High")
	f.logSessions(t, a.ID, daily(a.ID, f.now, 10)...)
	f.logSessions(t, b.ID, daily(b.ID, f.now, 8)...)
	f.logSessions(t, c.ID, daily(c.ID, f.now, 4)...)

	boards, err := f.svc.GenerateSchools(ctx, session.WindowAllTime, 0)
	if err != nil {
		t.Fatalf("GenerateSchools() failed: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("len(boards) = %d; want 2", len(boards))
	}
	hanbit := boards[0]
	if hanbit.School != "Hanbit High" {
		t.Fatalf("boards[0].School = %s; want Hanbit High", hanbit.School)
	}
	if len(hanbit.Entries) != 2 || hanbit.Entries[0].UserID != a.ID || hanbit.Entries[0].SchoolRank != 1 ||
		hanbit.Entries[1].UserID != c.ID || hanbit.Entries[1].SchoolRank != 2 {
		t.Errorf("hanbit board = %+v; want [%s #1, %s #2]", hanbit.Entries, a.ID, c.ID)
	}
}

func TestService_UserBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	usr := f.addStudent(t, "Jiho", "jiho01", "Hanbit High")
	f.logSessions(t, usr.ID, daily(usr.ID, f.now, 3)...)
	// outside this week
	f.logSessions(t, usr.ID, daily(usr.ID, f.now.AddDate(0, 0, -14), 5)...)

	all, err := f.svc.UserBreakdown(ctx, usr.ID, session.WindowAllTime)
	if err != nil {
		t.Fatalf("UserBreakdown(all) failed: %v", err)
	}
	week, err := f.svc.UserBreakdown(ctx, usr.ID, session.WindowThisWeek)
	if err != nil {
		t.Fatalf("UserBreakdown(week) failed: %v", err)
	}

	if all.Engagement <= week.Engagement {
		t.Errorf("all-time engagement %d should exceed weekly %d", all.Engagement, week.Engagement)
	}
	if want := 10; week.Engagement != want { // 3 sessions / 30
		t.Errorf("week engagement = %d; want %d", week.Engagement, want)
	}

	// unknown users simply have no activity
	empty, err := f.svc.UserBreakdown(ctx, "nope", session.WindowAllTime)
	if err != nil {
		t.Fatalf("UserBreakdown(unknown) failed: %v", err)
	}
	if (empty != scoring.Breakdown{}) {
		t.Errorf("unknown user breakdown = %+v; want zero", empty)
	}
}

func TestService_SendDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addStudent(t, "Jiho", "jiho01", "Hanbit High")
	b := f.addStudent(t, "Mina", "mina02", "Daesung High")
	f.logSessions(t, a.ID, daily(a.ID, f.now, 10)...)
	f.logSessions(t, b.ID, daily(b.ID, f.now, 5)...)

	if err := f.svc.SendDigest(ctx, session.WindowThisMonth); err != nil {
		t.Fatalf("SendDigest() failed: %v", err)
	}
	if len(f.mail.messages) != 1 {
		t.Fatalf("len(messages) = %d; want 1", len(f.mail.messages))
	}
	msg := f.mail.messages[0]
	if len(msg.Bcc) != 2 {
		t.Errorf("len(Bcc) = %d; want 2", len(msg.Bcc))
	}
	if !strings.Contains(msg.TextContent, "Jiho") || !strings.Contains(msg.TextContent, "1.") {
		t.Errorf("digest body missing standings:\n%s", msg.TextContent)
	}
	if !strings.Contains(msg.Subject, "this month") {
		t.Errorf("subject = %q; want window label", msg.Subject)
	}
}

func TestService_SendDigestEmptyBoard(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.SendDigest(context.Background(), session.WindowThisWeek); err != nil {
		t.Fatalf("SendDigest() failed: %v", err)
	}
	if len(f.mail.messages) != 0 {
		t.Errorf("len(messages) = %d; want 0 for an empty board", len(f.mail.messages))
	}
}
