package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"noticeboard/internal/model"
	"noticeboard/internal/repository"
	"noticeboard/internal/service/mocks"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/ratelimit"
	"noticeboard/pkg/testutil"
)

type LifecycleSuite struct {
	suite.Suite
	ctx     context.Context
	db      *sqlx.DB
	anns    repository.AnnouncementRepository
	notes   repository.NotificationRepository
	audits  repository.AuditRepository
	limiter *ratelimit.Limiter
	svc     *AnnouncementService
	admin   model.Actor
	now     time.Time
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.anns = repository.NewAnnouncementRepository(s.db, nil)
	s.notes = repository.NewNotificationRepository(s.db, nil, 0)
	s.audits = repository.NewAuditRepository(s.db, nil)
	s.limiter = ratelimit.NewLimiter(ratelimit.NewMemoryStore(), map[string]ratelimit.Policy{
		ActionCreate:  {Limit: 10, Window: time.Hour},
		ActionPublish: {Limit: 20, Window: time.Hour},
		ActionDelete:  {Limit: 5, Window: time.Hour},
	})
	s.admin = model.Actor{ID: "admin-a", Role: model.RoleAdmin}
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.svc = s.newService(s.audits, s.notes)
}

func (s *LifecycleSuite) newService(audit AuditStore, writer NotificationWriter, opts ...Option) *AnnouncementService {
	return s.newServiceWithRepo(s.anns, audit, writer, opts...)
}

func (s *LifecycleSuite) newServiceWithRepo(repo repository.AnnouncementRepository, audit AuditStore, writer NotificationWriter, opts ...Option) *AnnouncementService {
	log := logger.NewNop()
	resolver := NewAudienceResolver(repository.NewProfileRepository(s.db), log)
	dispatcher := NewFanoutDispatcher(writer, log, nil)
	recorder := NewAuditRecorder(audit, log, nil)
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return NewAnnouncementService(repo, s.limiter, resolver, dispatcher, recorder, log, opts...)
}

func (s *LifecycleSuite) create(in CreateAnnouncementInput) *CreateResult {
	if in.Content == "" {
		in.Content = in.Title + " body"
	}
	res, err := s.svc.Create(s.ctx, s.admin, in)
	s.Require().NoError(err)
	return res
}

func (s *LifecycleSuite) notificationCount(id string) int64 {
	n, err := s.notes.CountByAnnouncement(s.ctx, id)
	s.Require().NoError(err)
	return n
}

func (s *LifecycleSuite) requireCode(err error, code string) *Error {
	var se *Error
	s.Require().ErrorAs(err, &se)
	s.Require().Equal(code, se.Code, se.Error())
	return se
}

func (s *LifecycleSuite) TestMaintenanceScenario() {
	testutil.SeedProfiles(s.T(), s.db, "student", 500)
	testutil.SeedProfiles(s.T(), s.db, "affiliate", 300)
	testutil.SeedProfiles(s.T(), s.db, "admin", 200)

	created := s.create(CreateAnnouncementInput{
		Title:          "Maintenance",
		TargetAudience: "role:student",
		Status:         model.StatusDraft,
	})
	s.Equal(model.StatusDraft, created.Status)
	s.Zero(s.notificationCount(created.ID))

	res, err := s.svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, res.Status)
	s.EqualValues(500, res.NotificationsCreated)
	s.False(res.Diagnostics.HasCode(CodePartialDelivery))

	a, err := s.svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(a.PublishedAt)
	s.True(a.PublishedAt.Equal(s.now))
	s.Nil(a.ArchivedAt)

	s.EqualValues(500, s.notificationCount(created.ID))

	var leaked int
	s.Require().NoError(s.db.Get(&leaked, `SELECT COUNT(*) FROM notifications n
		JOIN profiles p ON p.id = n.recipient_id
		WHERE n.announcement_id = ? AND p.role <> 'student'`, created.ID))
	s.Zero(leaked)

	trail, err := s.svc.AuditTrail(s.ctx, s.admin, created.ID, 10)
	s.Require().NoError(err)
	kinds := make([]model.AuditAction, 0, len(trail))
	for _, r := range trail {
		kinds = append(kinds, r.ActionKind)
	}
	s.ElementsMatch([]model.AuditAction{model.AuditCreate, model.AuditPublish}, kinds)
}

func (s *LifecycleSuite) TestAllAudienceReachesEveryIdentity() {
	testutil.SeedProfiles(s.T(), s.db, "student", 12)
	testutil.SeedProfiles(s.T(), s.db, "affiliate", 5)
	testutil.SeedProfiles(s.T(), s.db, "admin", 3)

	res := s.create(CreateAnnouncementInput{Title: "Welcome", TargetAudience: "all", Status: model.StatusPublished})

	s.Equal(model.StatusPublished, res.Status)
	s.Require().NotNil(res.NotificationsCreated)
	s.EqualValues(20, *res.NotificationsCreated)
	s.EqualValues(20, s.notificationCount(res.ID))

	trail, err := s.svc.AuditTrail(s.ctx, s.admin, res.ID, 10)
	s.Require().NoError(err)
	kinds := make([]model.AuditAction, 0, len(trail))
	for _, r := range trail {
		kinds = append(kinds, r.ActionKind)
		if r.ActionKind == model.AuditPublish {
			s.EqualValues(20, r.Detail["recipients"])
			s.EqualValues(20, r.Detail["notifications_created"])
		}
	}
	s.ElementsMatch([]model.AuditAction{model.AuditCreate, model.AuditPublish}, kinds)
}

func (s *LifecycleSuite) TestPluralLabelIsStoredCanonical() {
	testutil.SeedProfiles(s.T(), s.db, "affiliate", 4)
	testutil.SeedProfiles(s.T(), s.db, "student", 2)

	res := s.create(CreateAnnouncementInput{Title: "Payouts", TargetAudience: "affiliates", Status: model.StatusPublished})

	a, err := s.svc.Get(s.ctx, s.admin, res.ID)
	s.Require().NoError(err)
	s.Equal(model.AudienceAffiliates, a.TargetAudience)
	s.EqualValues(4, *res.NotificationsCreated)
}

func (s *LifecycleSuite) TestSpecificUserTargeting() {
	testutil.SeedProfiles(s.T(), s.db, "student", 3)

	ok := s.create(CreateAnnouncementInput{
		Title:          "Your transcript",
		TargetAudience: "specific-user",
		TargetUserID:   strPtr("student-0001"),
		Status:         model.StatusPublished,
	})
	s.EqualValues(1, *ok.NotificationsCreated)

	var recipient string
	s.Require().NoError(s.db.Get(&recipient, `SELECT recipient_id FROM notifications WHERE announcement_id = ?`, ok.ID))
	s.Equal("student-0001", recipient)

	ghost := s.create(CreateAnnouncementInput{
		Title:          "Lost",
		TargetAudience: "specific-user",
		TargetUserID:   strPtr("ghost"),
		Status:         model.StatusPublished,
	})
	s.Equal(model.StatusPublished, ghost.Status)
	s.EqualValues(0, *ghost.NotificationsCreated)
	s.True(ghost.Diagnostics.HasCode(DiagTargetUserNotFound))
}

func (s *LifecycleSuite) TestUnknownAudienceDoesNotBlockPublish() {
	testutil.SeedProfiles(s.T(), s.db, "student", 3)

	created := s.create(CreateAnnouncementInput{Title: "Odd", TargetAudience: "role:teacher"})
	s.True(created.Diagnostics.HasCode(DiagAudienceUnknown))

	res, err := s.svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, res.Status)
	s.Zero(res.NotificationsCreated)
	s.True(res.Diagnostics.HasCode(DiagAudienceUnknown))

	for _, d := range res.Diagnostics.ByStage(model.StageAudience) {
		s.NotEqual(model.OutcomeOK, d.Outcome, d.Detail)
	}
}

func (s *LifecycleSuite) TestArchiveNeverCreatesNotifications() {
	testutil.SeedProfiles(s.T(), s.db, "student", 4)
	future := s.now.Add(time.Hour)

	inputs := map[model.AnnouncementStatus]CreateAnnouncementInput{
		model.StatusDraft:     {Title: "d", TargetAudience: "all"},
		model.StatusScheduled: {Title: "s", TargetAudience: "all", Status: model.StatusScheduled, ScheduledFor: &future},
		model.StatusPublished: {Title: "p", TargetAudience: "all", Status: model.StatusPublished},
	}
	for status, in := range inputs {
		created := s.create(in)
		s.Equal(status, created.Status)
		before := s.notificationCount(created.ID)

		res, err := s.svc.Archive(s.ctx, s.admin, created.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusArchived, res.Status)
		s.Equal(before, s.notificationCount(created.ID), "archive from %s", status)

		a, err := s.svc.Get(s.ctx, s.admin, created.ID)
		s.Require().NoError(err)
		s.NotNil(a.ArchivedAt)
		s.Nil(a.PublishedAt)

		again, err := s.svc.Archive(s.ctx, s.admin, created.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusArchived, again.Status)
		s.Equal(before, s.notificationCount(created.ID))
	}
}

func (s *LifecycleSuite) TestRepublishCreatesFreshBatch() {
	testutil.SeedProfiles(s.T(), s.db, "student", 3)
	created := s.create(CreateAnnouncementInput{Title: "Exam", TargetAudience: "students"})

	first, err := s.svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	_, err = s.svc.Archive(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)

	second, err := s.svc.Republish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, second.Status)
	s.EqualValues(3, second.NotificationsCreated)
	s.NotEqual(first.BatchID, second.BatchID)
	s.EqualValues(6, s.notificationCount(created.ID))

	a, err := s.svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Nil(a.ArchivedAt)
	s.NotNil(a.PublishedAt)
}

func (s *LifecycleSuite) TestInvalidTransitions() {
	created := s.create(CreateAnnouncementInput{Title: "t", TargetAudience: "all"})

	_, err := s.svc.Republish(s.ctx, s.admin, created.ID)
	s.requireCode(err, CodeValidation)

	_, err = s.svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	_, err = s.svc.Publish(s.ctx, s.admin, created.ID)
	s.requireCode(err, CodeValidation)

	_, err = s.svc.Archive(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	_, err = s.svc.Publish(s.ctx, s.admin, created.ID)
	s.requireCode(err, CodeValidation)

	_, err = s.svc.Publish(s.ctx, s.admin, "missing")
	s.requireCode(err, CodeNotFound)
	_, err = s.svc.Archive(s.ctx, s.admin, "missing")
	s.requireCode(err, CodeNotFound)
}

func (s *LifecycleSuite) TestDeleteKeepsDispatchedNotifications() {
	testutil.SeedProfiles(s.T(), s.db, "student", 5)
	keep := s.create(CreateAnnouncementInput{Title: "keep", TargetAudience: "all"})
	gone := s.create(CreateAnnouncementInput{Title: "gone", TargetAudience: "all", Status: model.StatusPublished})
	s.EqualValues(5, s.notificationCount(gone.ID))

	res, err := s.svc.Delete(s.ctx, s.admin, gone.ID)
	s.Require().NoError(err)
	s.True(res.OK)

	list, err := s.svc.List(s.ctx, s.admin, model.AnnouncementFilter{}, 1, 20)
	s.Require().NoError(err)
	s.EqualValues(1, list.TotalCount)
	s.Equal(keep.ID, list.Items[0].ID)

	s.EqualValues(5, s.notificationCount(gone.ID))

	_, err = s.svc.Get(s.ctx, s.admin, gone.ID)
	s.requireCode(err, CodeNotFound)
	_, err = s.svc.Delete(s.ctx, s.admin, gone.ID)
	s.requireCode(err, CodeNotFound)
}

func (s *LifecycleSuite) TestAuditFailureDoesNotBlockPrimaryAction() {
	testutil.SeedProfiles(s.T(), s.db, "student", 2)
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockAuditStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("audit table locked")).AnyTimes()
	svc := s.newService(store, s.notes)

	created, err := svc.Create(s.ctx, s.admin, CreateAnnouncementInput{Title: "a", Content: "b", TargetAudience: "all"})
	s.Require().NoError(err)
	s.True(created.Diagnostics.HasCode(CodeAuditFailure))

	published, err := svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, published.Status)
	s.EqualValues(2, published.NotificationsCreated)
	s.True(published.Diagnostics.HasCode(CodeAuditFailure))

	deleted, err := svc.Delete(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.True(deleted.OK)
	audit := deleted.Diagnostics.ByStage(model.StageAudit)
	s.Require().Len(audit, 1)
	s.Equal(model.OutcomeFailed, audit[0].Outcome)
}

func (s *LifecycleSuite) TestPartialDeliveryKeepsPublishedStatus() {
	testutil.SeedProfiles(s.T(), s.db, "student", 4)
	svc := s.newService(s.audits, &stubWriter{created: 1})
	created, err := svc.Create(s.ctx, s.admin, CreateAnnouncementInput{Title: "x", Content: "y", TargetAudience: "students"})
	s.Require().NoError(err)

	res, err := svc.Publish(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, res.Status)
	s.EqualValues(1, res.NotificationsCreated)
	s.True(res.Diagnostics.HasCode(CodePartialDelivery))

	a, err := svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, a.Status)

	trail, err := svc.AuditTrail(s.ctx, s.admin, created.ID, 0)
	s.Require().NoError(err)
	for _, rec := range trail {
		if rec.ActionKind == model.AuditPublish {
			s.EqualValues(4, rec.Detail["recipients"])
			s.EqualValues(1, rec.Detail["notifications_created"])
		}
	}
}

func (s *LifecycleSuite) TestDeleteIsRateLimited() {
	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		ids = append(ids, s.create(CreateAnnouncementInput{Title: "bulk", TargetAudience: "all"}).ID)
	}
	for _, id := range ids[:5] {
		_, err := s.svc.Delete(s.ctx, s.admin, id)
		s.Require().NoError(err)
	}

	_, err := s.svc.Delete(s.ctx, s.admin, ids[5])
	se := s.requireCode(err, CodeRateLimited)
	s.Equal(ActionDelete, se.ActionKind)
	s.Positive(se.RetryAfter)

	// 被拒绝的删除不产生任何写入
	_, err = s.svc.Get(s.ctx, s.admin, ids[5])
	s.Require().NoError(err)

	// 其他管理员有独立配额
	other := model.Actor{ID: "admin-b", Role: model.RoleAdmin}
	_, err = s.svc.Delete(s.ctx, other, ids[5])
	s.Require().NoError(err)
}

func (s *LifecycleSuite) TestCreateIsRateLimited() {
	for i := 0; i < 10; i++ {
		s.create(CreateAnnouncementInput{Title: "n", TargetAudience: "all"})
	}
	_, err := s.svc.Create(s.ctx, s.admin, CreateAnnouncementInput{Title: "n", Content: "c", TargetAudience: "all"})
	s.requireCode(err, CodeRateLimited)

	stats, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.EqualValues(10, stats.Total)
	s.EqualValues(10, stats.Draft)
}

func (s *LifecycleSuite) TestNonAdminIsUnauthorized() {
	created := s.create(CreateAnnouncementInput{Title: "t", TargetAudience: "all"})
	student := model.Actor{ID: "student-0001", Role: model.RoleStudent}

	_, err := s.svc.Create(s.ctx, student, CreateAnnouncementInput{Title: "t", Content: "c", TargetAudience: "all"})
	s.requireCode(err, CodeUnauthorized)
	_, err = s.svc.Publish(s.ctx, student, created.ID)
	s.requireCode(err, CodeUnauthorized)
	_, err = s.svc.Archive(s.ctx, student, created.ID)
	s.requireCode(err, CodeUnauthorized)
	_, err = s.svc.Delete(s.ctx, student, created.ID)
	s.requireCode(err, CodeUnauthorized)
	_, err = s.svc.List(s.ctx, model.Actor{}, model.AnnouncementFilter{}, 1, 10)
	s.requireCode(err, CodeUnauthorized)

	a, err := s.svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusDraft, a.Status)
}

func (s *LifecycleSuite) TestCreateValidation() {
	past := s.now.Add(-time.Minute)
	future := s.now.Add(time.Minute)
	cases := map[string]CreateAnnouncementInput{
		"missing title":            {Content: "c", TargetAudience: "all"},
		"missing audience":         {Title: "t", Content: "c"},
		"specific without user":    {Title: "t", Content: "c", TargetAudience: "specific-user"},
		"user without specific":    {Title: "t", Content: "c", TargetAudience: "all", TargetUserID: strPtr("u1")},
		"archived initial status":  {Title: "t", Content: "c", TargetAudience: "all", Status: model.StatusArchived},
		"unknown priority":         {Title: "t", Content: "c", TargetAudience: "all", Priority: "critical"},
		"scheduled in the past":    {Title: "t", Content: "c", TargetAudience: "all", Status: model.StatusScheduled, ScheduledFor: &past},
		"scheduled without time":   {Title: "t", Content: "c", TargetAudience: "all", Status: model.StatusScheduled},
		"schedule time on a draft": {Title: "t", Content: "c", TargetAudience: "all", ScheduledFor: &future},
	}
	for name, in := range cases {
		_, err := s.svc.Create(s.ctx, s.admin, in)
		s.True(IsCode(err, CodeValidation), name)
	}

	stats, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Zero(stats.Total)
}

func (s *LifecycleSuite) TestScheduleAndListDue() {
	created := s.create(CreateAnnouncementInput{Title: "Later", TargetAudience: "all"})

	_, err := s.svc.Schedule(s.ctx, s.admin, created.ID, s.now.Add(-time.Second))
	s.requireCode(err, CodeValidation)

	res, err := s.svc.Schedule(s.ctx, s.admin, created.ID, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(model.StatusScheduled, res.Status)

	due, err := s.svc.ListDue(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(due)

	s.now = s.now.Add(2 * time.Hour)
	due, err = s.svc.ListDue(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(created.ID, due[0].ID)

	pub, err := s.svc.Publish(s.ctx, model.SystemActor, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, pub.Status)
}

func (s *LifecycleSuite) TestUpdateTargeting() {
	created := s.create(CreateAnnouncementInput{Title: "Old", TargetAudience: "all", Tags: []string{"x"}})

	specific := "specific-user"
	_, _, err := s.svc.Update(s.ctx, s.admin, created.ID, UpdateAnnouncementInput{TargetAudience: &specific})
	s.requireCode(err, CodeValidation)

	title := "New"
	a, diags, err := s.svc.Update(s.ctx, s.admin, created.ID, UpdateAnnouncementInput{
		Title:          &title,
		TargetAudience: &specific,
		TargetUserID:   strPtr("student-0007"),
	})
	s.Require().NoError(err)
	s.Equal("New", a.Title)
	s.Equal(model.AudienceSpecificUser, a.TargetAudience)
	s.Equal("student-0007", *a.TargetUserID)
	s.NotEmpty(diags.ByStage(model.StageMutation))

	students := "students"
	a, _, err = s.svc.Update(s.ctx, s.admin, created.ID, UpdateAnnouncementInput{TargetAudience: &students})
	s.Require().NoError(err)
	s.Nil(a.TargetUserID)
	s.Equal(model.AudienceStudents, a.TargetAudience)

	_, _, err = s.svc.Update(s.ctx, s.admin, created.ID, UpdateAnnouncementInput{})
	s.requireCode(err, CodeValidation)
}

func (s *LifecycleSuite) TestListPublishedHonoursVisibility() {
	s.create(CreateAnnouncementInput{Title: "everyone", TargetAudience: "all", Status: model.StatusPublished})
	s.create(CreateAnnouncementInput{Title: "students", TargetAudience: "students", Status: model.StatusPublished})
	s.create(CreateAnnouncementInput{Title: "admins", TargetAudience: "admins", Status: model.StatusPublished})
	s.create(CreateAnnouncementInput{Title: "draft", TargetAudience: "all"})

	student := model.Actor{ID: "student-0001", Role: model.RoleStudent}
	page, err := s.svc.ListPublished(s.ctx, student, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(2, page.TotalCount)

	page, err = s.svc.ListPublished(s.ctx, s.admin, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(3, page.TotalCount)

	_, err = s.svc.ListPublished(s.ctx, model.Actor{}, 1, 10)
	s.requireCode(err, CodeUnauthorized)
}

func (s *LifecycleSuite) TestPublishIsRateLimited() {
	testutil.SeedProfiles(s.T(), s.db, "student", 3)
	created := s.create(CreateAnnouncementInput{Title: "Quota", TargetAudience: "students"})

	for i := 0; i < 20; i++ {
		_, err := s.svc.Publish(s.ctx, s.admin, "missing")
		s.requireCode(err, CodeNotFound)
	}

	_, err := s.svc.Publish(s.ctx, s.admin, created.ID)
	se := s.requireCode(err, CodeRateLimited)
	s.Equal(ActionPublish, se.ActionKind)
	s.Positive(se.RetryAfter)

	a, err := s.svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusDraft, a.Status)
	s.Nil(a.PublishedAt)
	s.Zero(s.notificationCount(created.ID))
}

// gatedAnnouncements 让前两次读取在同一时刻返回，模拟两个请求同时读到草稿
type gatedAnnouncements struct {
	repository.AnnouncementRepository
	calls   atomic.Int32
	arrived sync.WaitGroup
}

func (g *gatedAnnouncements) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := g.AnnouncementRepository.GetByID(ctx, id)
	if g.calls.Add(1) <= 2 {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return a, err
}

func (s *LifecycleSuite) TestConcurrentPublishFansOutOnce() {
	testutil.SeedProfiles(s.T(), s.db, "student", 3)
	created := s.create(CreateAnnouncementInput{Title: "Race", TargetAudience: "students"})

	gated := &gatedAnnouncements{AnnouncementRepository: s.anns}
	gated.arrived.Add(2)
	svc := s.newServiceWithRepo(gated, s.audits, s.notes)

	var wg sync.WaitGroup
	results := make([]*PublishResult, 2)
	errs := make([]error, 2)
	actors := []model.Actor{s.admin, model.SystemActor}
	for i := range actors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Publish(s.ctx, actors[i], created.ID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i, err := range errs {
		if err == nil {
			succeeded++
			s.EqualValues(3, results[i].NotificationsCreated)
			continue
		}
		s.requireCode(err, CodeValidation)
	}
	s.Equal(1, succeeded)
	s.EqualValues(3, s.notificationCount(created.ID))

	a, err := s.svc.Get(s.ctx, s.admin, created.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, a.Status)
}
