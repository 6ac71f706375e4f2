package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"noticeboard/internal/model"
	"noticeboard/pkg/changefeed"
	"noticeboard/pkg/testutil"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []changefeed.ChangeEvent
}

func (c *captureNotifier) Notify(events ...changefeed.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *captureNotifier) kinds(table string) []changefeed.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []changefeed.Kind
	for _, e := range c.events {
		if e.Table == table {
			out = append(out, e.Kind)
		}
	}
	return out
}

type RepositorySuite struct {
	suite.Suite
	ctx      context.Context
	db       *sqlx.DB
	notifier *captureNotifier
	anns     AnnouncementRepository
	notes    NotificationRepository
	audits   AuditRepository
	profiles ProfileRepository
	now      time.Time
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.notifier = &captureNotifier{}
	s.anns = NewAnnouncementRepository(s.db, s.notifier)
	s.notes = NewNotificationRepository(s.db, s.notifier, 7)
	s.audits = NewAuditRepository(s.db, s.notifier)
	s.profiles = NewProfileRepository(s.db)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) newAnnouncement(title string, status model.AnnouncementStatus, aud model.Audience) *model.Announcement {
	return &model.Announcement{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        title + " content",
		Status:         status,
		Priority:       model.PriorityMedium,
		TargetAudience: aud,
		CreatedBy:      "admin-1",
		CreatedAt:      s.now,
		UpdatedAt:      s.now,
		Tags:           model.TagList{"ops"},
	}
}

func (s *RepositorySuite) TestAnnouncementCRUD() {
	a := s.newAnnouncement("Maintenance", model.StatusDraft, model.AudienceStudents)
	a.Tags = model.TagList{"ops", "night"}
	s.Require().NoError(s.anns.Create(s.ctx, a))

	got, err := s.anns.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Maintenance", got.Title)
	s.Equal(model.AudienceStudents, got.TargetAudience)
	s.Equal(model.TagList{"ops", "night"}, got.Tags)
	s.Nil(got.PublishedAt)
	s.True(got.CreatedAt.Equal(s.now))

	publishedAt := s.now.Add(time.Minute)
	got.Status = model.StatusPublished
	got.PublishedAt = &publishedAt
	got.UpdatedAt = publishedAt
	s.Require().NoError(s.anns.Update(s.ctx, got))

	again, err := s.anns.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, again.Status)
	s.Require().NotNil(again.PublishedAt)
	s.True(again.PublishedAt.Equal(publishedAt))

	s.Require().NoError(s.anns.Delete(s.ctx, a.ID))
	_, err = s.anns.GetByID(s.ctx, a.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.anns.Delete(s.ctx, a.ID), ErrNotFound)

	s.Equal([]changefeed.Kind{changefeed.KindInsert, changefeed.KindUpdate, changefeed.KindDelete},
		s.notifier.kinds(TableAnnouncements))
}

func (s *RepositorySuite) TestUpdateMissingReturnsNotFound() {
	a := s.newAnnouncement("ghost", model.StatusDraft, model.AudienceAll)
	s.ErrorIs(s.anns.Update(s.ctx, a), ErrNotFound)
	s.Empty(s.notifier.kinds(TableAnnouncements))
}

func (s *RepositorySuite) TestTransitionRequiresExpectedStatus() {
	a := s.newAnnouncement("Exam", model.StatusDraft, model.AudienceStudents)
	s.Require().NoError(s.anns.Create(s.ctx, a))

	first := *a
	first.Status = model.StatusPublished
	s.Require().NoError(s.anns.Transition(s.ctx, &first, model.StatusDraft, model.StatusScheduled))

	second := *a
	second.Status = model.StatusPublished
	second.Title = "stale"
	s.ErrorIs(s.anns.Transition(s.ctx, &second, model.StatusDraft, model.StatusScheduled), ErrConflict)

	got, err := s.anns.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPublished, got.Status)
	s.Equal("Exam", got.Title)

	ghost := s.newAnnouncement("ghost", model.StatusPublished, model.AudienceAll)
	s.ErrorIs(s.anns.Transition(s.ctx, ghost, model.StatusDraft), ErrNotFound)

	s.Equal([]changefeed.Kind{changefeed.KindInsert, changefeed.KindUpdate}, s.notifier.kinds(TableAnnouncements))
}

func (s *RepositorySuite) TestListFiltersAndPagination() {
	for i := 0; i < 5; i++ {
		a := s.newAnnouncement(fmt.Sprintf("draft %d", i), model.StatusDraft, model.AudienceAll)
		a.CreatedAt = s.now.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.anns.Create(s.ctx, a))
	}
	urgent := s.newAnnouncement("Exam 100% room change", model.StatusPublished, model.AudienceStudents)
	urgent.Priority = model.PriorityUrgent
	urgent.Tags = model.TagList{"exam"}
	urgent.CreatedAt = s.now.Add(time.Hour)
	s.Require().NoError(s.anns.Create(s.ctx, urgent))

	items, total, err := s.anns.List(s.ctx, model.AnnouncementFilter{Status: model.StatusDraft}, 1, 2)
	s.Require().NoError(err)
	s.EqualValues(5, total)
	s.Require().Len(items, 2)
	s.Equal("draft 4", items[0].Title)

	items, _, err = s.anns.List(s.ctx, model.AnnouncementFilter{Status: model.StatusDraft}, 3, 2)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("draft 0", items[0].Title)

	items, total, err = s.anns.List(s.ctx, model.AnnouncementFilter{Tag: "exam"}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(urgent.ID, items[0].ID)

	// 标签需整体匹配
	_, total, err = s.anns.List(s.ctx, model.AnnouncementFilter{Tag: "exa"}, 1, 10)
	s.Require().NoError(err)
	s.Zero(total)

	_, total, err = s.anns.List(s.ctx, model.AnnouncementFilter{Search: "100%"}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, total)

	_, total, err = s.anns.List(s.ctx, model.AnnouncementFilter{Priority: model.PriorityUrgent, TargetAudience: model.AudienceStudents}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, total)

	stats, err := s.anns.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.AnnouncementStats{Total: 6, Draft: 5, Published: 1}, stats)
}

func (s *RepositorySuite) TestListViewerVisibility() {
	all := s.newAnnouncement("all", model.StatusPublished, model.AudienceAll)
	students := s.newAnnouncement("students", model.StatusPublished, model.AudienceStudents)
	admins := s.newAnnouncement("admins", model.StatusPublished, model.AudienceAdmins)
	mine := s.newAnnouncement("mine", model.StatusPublished, model.AudienceSpecificUser)
	uid := "student-0001"
	mine.TargetUserID = &uid
	other := s.newAnnouncement("other", model.StatusPublished, model.AudienceSpecificUser)
	otherID := "student-0002"
	other.TargetUserID = &otherID
	for _, a := range []*model.Announcement{all, students, admins, mine, other} {
		s.Require().NoError(s.anns.Create(s.ctx, a))
	}

	viewer := &model.Actor{ID: uid, Role: model.RoleStudent}
	items, total, err := s.anns.List(s.ctx, model.AnnouncementFilter{Status: model.StatusPublished, Viewer: viewer}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(3, total)
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	s.ElementsMatch([]string{"all", "students", "mine"}, titles)
}

func (s *RepositorySuite) TestListDue() {
	due := s.newAnnouncement("due", model.StatusScheduled, model.AudienceAll)
	past := s.now.Add(-time.Minute)
	due.ScheduledFor = &past
	later := s.newAnnouncement("later", model.StatusScheduled, model.AudienceAll)
	future := s.now.Add(time.Hour)
	later.ScheduledFor = &future
	draft := s.newAnnouncement("draft", model.StatusDraft, model.AudienceAll)
	draft.ScheduledFor = &past
	for _, a := range []*model.Announcement{due, later, draft} {
		s.Require().NoError(s.anns.Create(s.ctx, a))
	}

	items, err := s.anns.ListDue(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(due.ID, items[0].ID)
}

func (s *RepositorySuite) newNotifications(annID string, recipients ...string) []model.Notification {
	out := make([]model.Notification, 0, len(recipients))
	for _, rid := range recipients {
		id := annID
		out = append(out, model.Notification{
			ID:             uuid.NewString(),
			RecipientID:    rid,
			AnnouncementID: &id,
			BatchID:        "batch1",
			Type:           model.NotificationTypeAnnouncement,
			Category:       model.NotificationCategorySystem,
			Title:          "t",
			Message:        "m",
			Payload:        model.NotificationPayload{AnnouncementID: annID, BatchID: "batch1", Priority: model.PriorityHigh},
			Priority:       model.PriorityHigh,
			CreatedAt:      s.now,
		})
	}
	return out
}

func (s *RepositorySuite) TestBulkCreateChunks() {
	recipients := testutil.SeedProfiles(s.T(), s.db, "student", 23)
	items := s.newNotifications("ann-1", recipients...)

	n, err := s.notes.BulkCreate(s.ctx, items)
	s.Require().NoError(err)
	s.EqualValues(23, n)

	count, err := s.notes.CountByAnnouncement(s.ctx, "ann-1")
	s.Require().NoError(err)
	s.EqualValues(23, count)
	s.Len(s.notifier.kinds(TableNotifications), 23)

	n, err = s.notes.BulkCreate(s.ctx, nil)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RepositorySuite) TestBulkCreateStopsOnFailedChunk() {
	items := s.newNotifications("ann-2", "a", "b", "c", "d", "e", "f", "g", "h", "i")
	// 第二个分块内出现重复主键
	items[8].ID = items[7].ID

	n, err := s.notes.BulkCreate(s.ctx, items)
	s.Require().Error(err)
	s.EqualValues(7, n)

	count, err := s.notes.CountByAnnouncement(s.ctx, "ann-2")
	s.Require().NoError(err)
	s.EqualValues(7, count)
}

func (s *RepositorySuite) TestReadState() {
	items := s.newNotifications("ann-3", "u1", "u1", "u1", "u2")
	_, err := s.notes.BulkCreate(s.ctx, items)
	s.Require().NoError(err)

	unread, err := s.notes.CountUnread(s.ctx, "u1")
	s.Require().NoError(err)
	s.EqualValues(3, unread)

	s.Require().NoError(s.notes.MarkRead(s.ctx, "u1", items[0].ID, s.now))
	// 不能标记他人的通知
	s.ErrorIs(s.notes.MarkRead(s.ctx, "u1", items[3].ID, s.now), ErrNotFound)

	list, total, err := s.notes.ListByRecipient(s.ctx, "u1", true, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(list, 2)
	s.Equal("ann-3", list[0].Payload.AnnouncementID)

	n, err := s.notes.MarkAllRead(s.ctx, "u1", s.now)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	unread, err = s.notes.CountUnread(s.ctx, "u1")
	s.Require().NoError(err)
	s.Zero(unread)

	unread, err = s.notes.CountUnread(s.ctx, "u2")
	s.Require().NoError(err)
	s.EqualValues(1, unread)
}

func (s *RepositorySuite) TestAuditAppendAndList() {
	for i, action := range []model.AuditAction{model.AuditCreate, model.AuditPublish} {
		s.Require().NoError(s.audits.Append(s.ctx, &model.AuditRecord{
			ID:           uuid.NewString(),
			ActorID:      "admin-1",
			ActionKind:   action,
			ResourceType: model.ResourceAnnouncement,
			ResourceID:   "ann-9",
			Detail:       model.AuditDetail{"step": i},
			CreatedAt:    s.now.Add(time.Duration(i) * time.Second),
		}))
	}

	recs, err := s.audits.ListByResource(s.ctx, model.ResourceAnnouncement, "ann-9", 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(model.AuditPublish, recs[0].ActionKind)
	s.EqualValues(1, recs[0].Detail["step"])
}

func (s *RepositorySuite) TestProfileQueries() {
	students := testutil.SeedProfiles(s.T(), s.db, "student", 3)
	testutil.SeedProfiles(s.T(), s.db, "admin", 2)

	ids, err := s.profiles.ListIDsByRole(s.ctx, model.RoleStudent)
	s.Require().NoError(err)
	s.Equal(students, ids)

	all, err := s.profiles.ListIDs(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 5)

	n, err := s.profiles.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(5, n)

	p, err := s.profiles.GetByID(s.ctx, "admin-0001")
	s.Require().NoError(err)
	s.Equal(model.RoleAdmin, p.Role)

	_, err = s.profiles.GetByID(s.ctx, "nobody")
	s.ErrorIs(err, ErrNotFound)

	found, err := s.profiles.Search(s.ctx, "admin-000", 10)
	s.Require().NoError(err)
	s.Len(found, 2)

	found, err = s.profiles.Search(s.ctx, "_", 10)
	s.Require().NoError(err)
	s.Empty(found)
}
