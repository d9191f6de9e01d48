package leaderboard

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/scoring"
	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
)

type (
	ServiceInterface interface {
		Generate(ctx context.Context, w session.Window, topN int) ([]Entry, error)
		GenerateSchools(ctx context.Context, w session.Window, topN int) ([]SchoolBoard, error)
		UserBreakdown(ctx context.Context, userID string, w session.Window) (scoring.Breakdown, error)
		SendDigest(ctx context.Context, w session.Window) error
	}

	service struct {
		usrRepo  user.Repository
		sessRepo session.Repository
		scorer   *scoring.Scorer
		topN     int
		mailSvc  core.EmailService
		logger   core.Logger
		now      func() time.Time
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	usrRepo user.Repository,
	sessRepo session.Repository,
	scorer *scoring.Scorer,
	conf *core.Config,
	mailSvc core.EmailService,
	logger core.Logger,
) *service {
	topN := conf.Scoring.LeaderboardTopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &service{
		usrRepo:  usrRepo,
		sessRepo: sessRepo,
		scorer:   scorer,
		topN:     topN,
		mailSvc:  mailSvc,
		logger:   logger,
		now:      time.Now,
	}
}

// NewServiceMock returns a service with a frozen clock; for tests.
func NewServiceMock(
	usrRepo user.Repository,
	sessRepo session.Repository,
	scorer *scoring.Scorer,
	conf *core.Config,
	mailSvc core.EmailService,
	logger core.Logger,
	now func() time.Time,
) *service {
	svc := NewService(usrRepo, sessRepo, scorer, conf, mailSvc, logger)
	svc.now = now
	return svc
}

// Generate recomputes the board from scratch over the window; nothing is
// maintained incrementally. All sessions are read in one snapshot call so
// every learner is ranked from the same state.
func (svc *service) Generate(ctx context.Context, w session.Window, topN int) ([]Entry, error) {
	if topN <= 0 {
		topN = svc.topN
	}
	learners, err := svc.loadLearners(ctx, w)
	if err != nil {
		return nil, err
	}
	return Rank(svc.scorer, learners, topN), nil
}

func (svc *service) GenerateSchools(ctx context.Context, w session.Window, topN int) ([]SchoolBoard, error) {
	entries, err := svc.Generate(ctx, w, topN)
	if err != nil {
		return nil, err
	}
	return GroupBySchool(entries), nil
}

func (svc *service) UserBreakdown(ctx context.Context, userID string, w session.Window) (scoring.Breakdown, error) {
	sessions, err := svc.sessRepo.ListByUser(ctx, userID, w)
	if err != nil {
		return scoring.Breakdown{}, errors.Wrap(err, "listing user sessions")
	}
	return svc.scorer.Compute(sessions), nil
}

// loadLearners joins active students with their windowed sessions. Students
// are kept in repository order (created_at) so tie-breaking stays reproducible
// across runs.
func (svc *service) loadLearners(ctx context.Context, w session.Window) ([]Learner, error) {
	isActive := true
	students, err := svc.usrRepo.QueryUsers(
		ctx,
		&user.QueryFilter{Roles: []string{user.RoleStudent}, IsActive: &isActive},
		core.DBOrdering{Field: "created_at", Ascending: true},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	now := svc.now()
	sessions, err := svc.sessRepo.ListSince(ctx, w.Start(now))
	if err != nil {
		return nil, errors.Wrap(err, "listing session snapshot")
	}
	byUser := make(map[string][]session.Session, len(students))
	for _, sess := range sessions {
		// validation tolerates a minute of clock skew; such a session must not
		// count here before the per-user path counts it
		if sess.CreatedAt.After(now) {
			continue
		}
		byUser[sess.UserID] = append(byUser[sess.UserID], sess)
	}

	learners := make([]Learner, 0, len(students))
	for _, st := range students {
		learners = append(learners, Learner{User: st, Sessions: byUser[st.ID]})
	}
	return learners, nil
}

// SendDigest emails the current standings to every ranked learner.
func (svc *service) SendDigest(ctx context.Context, w session.Window) error {
	entries, err := svc.Generate(ctx, w, svc.topN)
	if err != nil {
		return errors.Wrap(err, "generating board for digest")
	}
	if len(entries) == 0 {
		svc.logger.Info("digest skipped: empty leaderboard", "window", string(w))
		return nil
	}

	recipients, err := svc.digestRecipients(ctx, entries)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	msg := &core.EmailMessage{
		Bcc:         recipients,
		Subject:     fmt.Sprintf("Study leaderboard (%s)", windowLabel(w)),
		TextContent: renderDigest(w, entries),
	}
	// a digest needs at least one To: address; send to ranked learners via Bcc
	msg.To = recipients[:1]
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) digestRecipients(ctx context.Context, entries []Entry) ([]mail.Address, error) {
	recipients := make([]mail.Address, 0, len(entries))
	for _, e := range entries {
		usr, err := svc.usrRepo.GetUserByID(ctx, e.UserID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return nil, errors.Wrap(err, "resolving digest recipient")
		}
		if usr.Email == "" {
			continue
		}
		recipients = append(recipients, mail.Address{Name: usr.Name, Address: usr.Email})
	}
	return recipients, nil
}

func renderDigest(w session.Window, entries []Entry) string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Top learners - %s\n\n", windowLabel(w))
	for _, e := range entries {
		if e.School != "" {
			fmt.Fprintf(b, "%2d. %s (%s) - %d\n", e.Rank, e.Name, e.School, e.Scores.Score)
		} else {
			fmt.Fprintf(b, "%2d. %s - %d\n", e.Rank, e.Name, e.Scores.Score)
		}
	}
	b.WriteString("\nKeep your streak going!\n")
	return b.String()
}

func windowLabel(w session.Window) string {
	switch w {
	case session.WindowThisWeek:
		return "this week"
	case session.WindowThisMonth:
		return "this month"
	}
	return "all time"
}
