package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"noticeboard/internal/metrics"
	"noticeboard/internal/model"
	"noticeboard/internal/repository"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/ratelimit"
)

// 受限流控制的操作类型
const (
	ActionCreate  = "create"
	ActionPublish = "publish"
	ActionDelete  = "delete"
)

// 分页默认值
const (
	DefaultPageSize   = 20
	MaxPageSize       = 100
	DefaultAuditLimit = 50
)

// RateGate 限流判定
type RateGate interface {
	Allow(ctx context.Context, actorID, action string) (ratelimit.Decision, error)
}

// CreateAnnouncementInput 创建公告参数
type CreateAnnouncementInput struct {
	Title          string                   `json:"title"`
	Content        string                   `json:"content"`
	Status         model.AnnouncementStatus `json:"status"`
	Priority       model.Priority           `json:"priority"`
	TargetAudience string                   `json:"target_audience"`
	TargetUserID   *string                  `json:"target_user_id"`
	ScheduledFor   *time.Time               `json:"scheduled_for"`
	Tags           []string                 `json:"tags"`
	ActionURL      string                   `json:"action_url"`
}

// UpdateAnnouncementInput 编辑公告参数，nil 字段保持不变；状态只能通过生命周期操作修改
type UpdateAnnouncementInput struct {
	Title          *string         `json:"title"`
	Content        *string         `json:"content"`
	Priority       *model.Priority `json:"priority"`
	TargetAudience *string         `json:"target_audience"`
	TargetUserID   *string         `json:"target_user_id"`
	Tags           *[]string       `json:"tags"`
	ActionURL      *string         `json:"action_url"`
}

// CreateResult 创建结果
type CreateResult struct {
	ID                   string                   `json:"id"`
	Status               model.AnnouncementStatus `json:"status"`
	NotificationsCreated *int64                   `json:"notifications_created,omitempty"`
	Diagnostics          model.Diagnostics        `json:"diagnostics"`
}

// PublishResult 发布/重新发布结果
type PublishResult struct {
	Status               model.AnnouncementStatus `json:"status"`
	NotificationsCreated int64                    `json:"notifications_created"`
	BatchID              string                   `json:"batch_id,omitempty"`
	Diagnostics          model.Diagnostics        `json:"diagnostics"`
}

// TransitionResult 归档、定时等不扇出的状态变更结果
type TransitionResult struct {
	Status       model.AnnouncementStatus `json:"status"`
	ScheduledFor *time.Time               `json:"scheduled_for,omitempty"`
	Diagnostics  model.Diagnostics        `json:"diagnostics,omitempty"`
}

// DeleteResult 删除结果
type DeleteResult struct {
	OK          bool              `json:"ok"`
	Diagnostics model.Diagnostics `json:"diagnostics,omitempty"`
}

// AnnouncementService 公告生命周期：限流 → 状态变更 → 受众解析 → 扇出 → 审计 → 诊断
type AnnouncementService struct {
	repo    repository.AnnouncementRepository
	limiter RateGate
	audit   *AuditRecorder
	cache   *AnnouncementCache
	hooks   hookChain
	extra   []PostCommitHook
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option 公告服务可选项
type Option func(*AnnouncementService)

// WithCache 启用成员端列表缓存
func WithCache(c *AnnouncementCache) Option {
	return func(s *AnnouncementService) { s.cache = c }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AnnouncementService) { s.metrics = m }
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *AnnouncementService) { s.now = now }
}

// WithHooks 在内置钩子之后追加提交后钩子
func WithHooks(hooks ...PostCommitHook) Option {
	return func(s *AnnouncementService) { s.extra = append(s.extra, hooks...) }
}

// NewAnnouncementService 创建公告服务实例，limiter 为 nil 时不限流
func NewAnnouncementService(
	repo repository.AnnouncementRepository,
	limiter RateGate,
	resolver *AudienceResolver,
	dispatcher *FanoutDispatcher,
	recorder *AuditRecorder,
	logger *logger.Logger,
	opts ...Option,
) *AnnouncementService {
	s := &AnnouncementService{
		repo:    repo,
		limiter: limiter,
		audit:   recorder,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewAnnouncementCache(nil, 0, logger)
	}

	hooks := []PostCommitHook{
		&fanoutHook{resolver: resolver, dispatcher: dispatcher},
		&auditHook{recorder: recorder},
		&cacheHook{cache: s.cache},
	}
	s.hooks = hookChain{hooks: append(hooks, s.extra...), logger: logger, metrics: s.metrics}
	return s
}

func (s *AnnouncementService) clock() time.Time {
	return s.now().UTC()
}

func authorize(actor model.Actor) error {
	if !actor.IsAdmin() {
		return errUnauthorized("需要管理员权限")
	}
	return nil
}

// gate 检查限流，拒绝时返回 RATE_LIMITED；存储不可用时放行
func (s *AnnouncementService) gate(ctx context.Context, actor model.Actor, action string, diags *model.Diagnostics) error {
	if s.limiter == nil {
		return nil
	}
	d, err := s.limiter.Allow(ctx, actor.ID, action)
	if err != nil {
		s.logger.Warn("限流存储不可用，本次放行", "actor_id", actor.ID, "action", action, "error", err)
		diags.Add(model.StageRateLimit, model.OutcomeSkipped, "rate limit store unavailable: "+err.Error())
		return nil
	}
	if !d.Allowed {
		s.metrics.IncrementRateLimited(action)
		s.metrics.ObserveTransition(action, "rate_limited")
		s.logger.Warn("操作触发限流", "actor_id", actor.ID, "action", action, "count", d.Count, "limit", d.Limit)
		return errRateLimited(action, d.RetryAfter)
	}
	if d.Limit > 0 {
		diags.Add(model.StageRateLimit, model.OutcomeOK, fmt.Sprintf("%s quota %d/%d", action, d.Count, d.Limit))
	}
	return nil
}

func (s *AnnouncementService) load(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("公告不存在", err)
		}
		return nil, errInternal("获取公告失败", err)
	}
	return a, nil
}

func (s *AnnouncementService) save(ctx context.Context, a *model.Announcement) error {
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("公告不存在", err)
		}
		return errInternal("更新公告失败", err)
	}
	return nil
}

func (s *AnnouncementService) commit(ctx context.Context, ev *CommitEvent, diags model.Diagnostics) model.Diagnostics {
	s.metrics.ObserveTransition(string(ev.Action), "ok")
	return append(diags, s.hooks.run(ctx, ev)...)
}

// Create 创建公告；初始状态为 published 时在创建中完成发布与扇出
func (s *AnnouncementService) Create(ctx context.Context, actor model.Actor, in CreateAnnouncementInput) (*CreateResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	diags := model.Diagnostics{}
	a, err := s.newAnnouncement(actor, in, &diags)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx, actor, ActionCreate, &diags); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, errInternal("创建公告失败", err)
	}
	diags.Add(model.StageMutation, model.OutcomeOK, "created with status "+string(a.Status))
	s.logger.Info("公告已创建", "id", a.ID, "status", a.Status, "actor_id", actor.ID)

	ev := &CommitEvent{
		Actor:        actor,
		Action:       model.AuditCreate,
		Announcement: a.Clone(),
		Fanout:       a.Status == model.StatusPublished,
		Detail:       model.AuditDetail{"target_audience": a.TargetAudience},
	}
	if ev.Fanout {
		ev.FollowUp = model.AuditPublish
	}
	diags = s.commit(ctx, ev, diags)

	res := &CreateResult{ID: a.ID, Status: a.Status, Diagnostics: diags}
	if ev.Delivery != nil {
		n := ev.Delivery.Created
		res.NotificationsCreated = &n
	}
	return res, nil
}

func (s *AnnouncementService) newAnnouncement(actor model.Actor, in CreateAnnouncementInput, diags *model.Diagnostics) (*model.Announcement, error) {
	now := s.clock()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errValidation("标题不能为空")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errValidation("内容不能为空")
	}

	status := in.Status
	if status == "" {
		status = model.StatusDraft
	}
	switch status {
	case model.StatusDraft, model.StatusScheduled, model.StatusPublished:
	default:
		return nil, errValidation("不支持的初始状态: %s", status)
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, errValidation("不支持的优先级: %s", priority)
	}

	audience, target, err := normalizeTargeting(in.TargetAudience, in.TargetUserID, diags)
	if err != nil {
		return nil, err
	}

	var scheduledFor *time.Time
	switch {
	case status == model.StatusScheduled:
		if in.ScheduledFor == nil || !in.ScheduledFor.After(now) {
			return nil, errValidation("定时发布时间必须晚于当前时间")
		}
		t := in.ScheduledFor.UTC()
		scheduledFor = &t
	case in.ScheduledFor != nil:
		return nil, errValidation("只有 scheduled 状态可以设置定时发布时间")
	}

	a := &model.Announcement{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        in.Content,
		Status:         status,
		Priority:       priority,
		TargetAudience: audience,
		TargetUserID:   target,
		ScheduledFor:   scheduledFor,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Tags:           model.NormalizeTags(in.Tags),
		ActionURL:      strings.TrimSpace(in.ActionURL),
	}
	if status == model.StatusPublished {
		a.PublishedAt = &now
	}
	return a, nil
}

// normalizeTargeting 规范化受众并校验 target_user_id 仅在 specific-user 时出现。
// 未知受众原样保存，发布时解析为空集合。
func normalizeTargeting(raw string, targetUserID *string, diags *model.Diagnostics) (model.Audience, *string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, errValidation("目标受众不能为空")
	}
	audience, known := model.ParseAudience(raw)
	if !known {
		audience = model.Audience(raw)
		diags.AddCode(model.StageAudience, model.OutcomeSkipped, DiagAudienceUnknown,
			fmt.Sprintf("unknown target audience %q will resolve to no recipients", raw))
	}

	var target *string
	if targetUserID != nil && strings.TrimSpace(*targetUserID) != "" {
		t := strings.TrimSpace(*targetUserID)
		target = &t
	}
	switch {
	case audience == model.AudienceSpecificUser && target == nil:
		return "", nil, errValidation("指定用户公告必须提供 target_user_id")
	case audience != model.AudienceSpecificUser && target != nil:
		return "", nil, errValidation("只有指定用户公告可以设置 target_user_id")
	}
	return audience, target, nil
}

// Publish 发布草稿或定时公告，并发发布同一公告时只有一次生效
func (s *AnnouncementService) Publish(ctx context.Context, actor model.Actor, id string) (*PublishResult, error) {
	from := []model.AnnouncementStatus{model.StatusDraft, model.StatusScheduled}
	return s.publish(ctx, actor, id, model.AuditPublish, from, func(status model.AnnouncementStatus) error {
		switch status {
		case model.StatusDraft, model.StatusScheduled:
			return nil
		case model.StatusPublished:
			return errValidation("公告已发布")
		default:
			return errValidation("已归档的公告需要重新发布")
		}
	})
}

// Republish 重新发布已归档公告，总是生成新的通知批次
func (s *AnnouncementService) Republish(ctx context.Context, actor model.Actor, id string) (*PublishResult, error) {
	return s.publish(ctx, actor, id, model.AuditRepublish, nil, func(status model.AnnouncementStatus) error {
		if status != model.StatusArchived {
			return errValidation("只有已归档的公告可以重新发布，当前状态: %s", status)
		}
		return nil
	})
}

// publish from 非空时只在库中状态仍属于 from 时写入
func (s *AnnouncementService) publish(ctx context.Context, actor model.Actor, id string, action model.AuditAction, from []model.AnnouncementStatus, allowed func(model.AnnouncementStatus) error) (*PublishResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	diags := model.Diagnostics{}
	if err := s.gate(ctx, actor, ActionPublish, &diags); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allowed(a.Status); err != nil {
		return nil, err
	}

	prev := a.Status
	now := s.clock()
	a.Status = model.StatusPublished
	a.PublishedAt = &now
	a.ArchivedAt = nil
	a.UpdatedAt = now
	if err := s.transition(ctx, a, from, allowed); err != nil {
		return nil, err
	}
	diags.Add(model.StageMutation, model.OutcomeOK, fmt.Sprintf("%s -> %s", prev, a.Status))
	s.logger.Info("公告已发布", "id", a.ID, "action", action, "actor_id", actor.ID)

	ev := &CommitEvent{
		Actor:          actor,
		Action:         action,
		Announcement:   a.Clone(),
		PreviousStatus: prev,
		Fanout:         true,
	}
	diags = s.commit(ctx, ev, diags)

	res := &PublishResult{Status: a.Status, Diagnostics: diags}
	if ev.Delivery != nil {
		res.NotificationsCreated = ev.Delivery.Created
		res.BatchID = ev.Delivery.BatchID
	}
	return res, nil
}

// transition 条件写入；失败于并发修改时按当前状态重新判定
func (s *AnnouncementService) transition(ctx context.Context, a *model.Announcement, from []model.AnnouncementStatus, allowed func(model.AnnouncementStatus) error) error {
	if len(from) == 0 {
		return s.save(ctx, a)
	}
	err := s.repo.Transition(ctx, a, from...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errNotFound("公告不存在", err)
	case !errors.Is(err, repository.ErrConflict):
		return errInternal("更新公告失败", err)
	}

	s.logger.Warn("公告状态已被并发修改", "id", a.ID)
	current, loadErr := s.load(ctx, a.ID)
	if loadErr != nil {
		return loadErr
	}
	if verr := allowed(current.Status); verr != nil {
		return verr
	}
	return errValidation("公告状态已变更，请重试")
}

// Schedule 设置定时发布，到期后由调度器调用 Publish
func (s *AnnouncementService) Schedule(ctx context.Context, actor model.Actor, id string, when time.Time) (*TransitionResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	now := s.clock()
	if !when.After(now) {
		return nil, errValidation("定时发布时间必须晚于当前时间")
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusDraft && a.Status != model.StatusScheduled {
		return nil, errValidation("当前状态不能设置定时发布: %s", a.Status)
	}

	prev := a.Status
	at := when.UTC()
	a.Status = model.StatusScheduled
	a.ScheduledFor = &at
	a.PublishedAt = nil
	a.ArchivedAt = nil
	a.UpdatedAt = now
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	diags := model.Diagnostics{}
	diags.Add(model.StageMutation, model.OutcomeOK, fmt.Sprintf("%s -> %s at %s", prev, a.Status, at.Format(time.RFC3339)))
	diags = s.commit(ctx, &CommitEvent{
		Actor:          actor,
		Action:         model.AuditSchedule,
		Announcement:   a.Clone(),
		PreviousStatus: prev,
		Detail:         model.AuditDetail{"scheduled_for": at},
	}, diags)
	return &TransitionResult{Status: a.Status, ScheduledFor: &at, Diagnostics: diags}, nil
}

// Archive 归档公告，不扇出、不限流
func (s *AnnouncementService) Archive(ctx context.Context, actor model.Actor, id string) (*TransitionResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == model.StatusArchived {
		return &TransitionResult{Status: a.Status}, nil
	}

	prev := a.Status
	now := s.clock()
	a.Status = model.StatusArchived
	a.ArchivedAt = &now
	a.PublishedAt = nil
	a.UpdatedAt = now
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("公告已归档", "id", a.ID, "actor_id", actor.ID)

	diags := model.Diagnostics{}
	diags.Add(model.StageMutation, model.OutcomeOK, fmt.Sprintf("%s -> %s", prev, a.Status))
	diags = s.commit(ctx, &CommitEvent{
		Actor:          actor,
		Action:         model.AuditArchive,
		Announcement:   a.Clone(),
		PreviousStatus: prev,
	}, diags)
	return &TransitionResult{Status: a.Status, Diagnostics: diags}, nil
}

// Delete 删除公告，已发出的通知保留
func (s *AnnouncementService) Delete(ctx context.Context, actor model.Actor, id string) (*DeleteResult, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	diags := model.Diagnostics{}
	if err := s.gate(ctx, actor, ActionDelete, &diags); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("公告不存在", err)
		}
		return nil, errInternal("删除公告失败", err)
	}
	diags.Add(model.StageMutation, model.OutcomeOK, "deleted")
	s.logger.Info("公告已删除", "id", id, "actor_id", actor.ID)

	diags = s.commit(ctx, &CommitEvent{
		Actor:          actor,
		Action:         model.AuditDelete,
		Announcement:   a,
		PreviousStatus: a.Status,
	}, diags)
	return &DeleteResult{OK: true, Diagnostics: diags}, nil
}

// Update 编辑公告内容与受众
func (s *AnnouncementService) Update(ctx context.Context, actor model.Actor, id string, in UpdateAnnouncementInput) (*model.Announcement, model.Diagnostics, error) {
	if err := authorize(actor); err != nil {
		return nil, nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	diags := model.Diagnostics{}
	var changed []string
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, nil, errValidation("标题不能为空")
		}
		a.Title = title
		changed = append(changed, "title")
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, nil, errValidation("内容不能为空")
		}
		a.Content = *in.Content
		changed = append(changed, "content")
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, nil, errValidation("不支持的优先级: %s", *in.Priority)
		}
		a.Priority = *in.Priority
		changed = append(changed, "priority")
	}
	if in.TargetAudience != nil || in.TargetUserID != nil {
		raw := string(a.TargetAudience)
		if in.TargetAudience != nil {
			raw = *in.TargetAudience
		}
		target := a.TargetUserID
		if in.TargetUserID != nil {
			target = in.TargetUserID
		} else if in.TargetAudience != nil {
			// 受众变更时未提供新的用户，旧值只对 specific-user 保留
			if aud, ok := model.ParseAudience(raw); !ok || aud != model.AudienceSpecificUser {
				target = nil
			}
		}
		audience, normalized, err := normalizeTargeting(raw, target, &diags)
		if err != nil {
			return nil, nil, err
		}
		a.TargetAudience = audience
		a.TargetUserID = normalized
		changed = append(changed, "targeting")
	}
	if in.Tags != nil {
		a.Tags = model.NormalizeTags(*in.Tags)
		changed = append(changed, "tags")
	}
	if in.ActionURL != nil {
		a.ActionURL = strings.TrimSpace(*in.ActionURL)
		changed = append(changed, "action_url")
	}
	if len(changed) == 0 {
		return nil, nil, errValidation("没有需要更新的字段")
	}

	a.UpdatedAt = s.clock()
	if err := s.save(ctx, a); err != nil {
		return nil, nil, err
	}
	diags.Add(model.StageMutation, model.OutcomeOK, "updated "+strings.Join(changed, ","))
	diags = s.commit(ctx, &CommitEvent{
		Actor:          actor,
		Action:         model.AuditUpdate,
		Announcement:   a.Clone(),
		PreviousStatus: a.Status,
		Detail:         model.AuditDetail{"fields": changed},
	}, diags)
	return a, diags, nil
}

// Get 管理员获取公告详情
func (s *AnnouncementService) Get(ctx context.Context, actor model.Actor, id string) (*model.Announcement, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// List 管理员按条件分页查询公告
func (s *AnnouncementService) List(ctx context.Context, actor model.Actor, filter model.AnnouncementFilter, page, pageSize int) (*model.PaginatedAnnouncements, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if filter.TargetAudience != "" {
		if aud, ok := model.ParseAudience(string(filter.TargetAudience)); ok {
			filter.TargetAudience = aud
		}
	}
	return s.list(ctx, filter, page, pageSize)
}

func (s *AnnouncementService) list(ctx context.Context, filter model.AnnouncementFilter, page, pageSize int) (*model.PaginatedAnnouncements, error) {
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		s.logger.Error("获取公告列表失败", "error", err)
		return nil, errInternal("获取公告列表失败", err)
	}
	return &model.PaginatedAnnouncements{
		Items:      items,
		TotalCount: total,
		PageInfo:   model.NewPageInfo(page, pageSize, total),
	}, nil
}

// Stats 各状态公告数量
func (s *AnnouncementService) Stats(ctx context.Context, actor model.Actor) (*model.AnnouncementStats, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	stats, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, errInternal("统计公告失败", err)
	}
	return &stats, nil
}

// AuditTrail 公告的审计记录
func (s *AnnouncementService) AuditTrail(ctx context.Context, actor model.Actor, id string, limit int) ([]model.AuditRecord, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultAuditLimit
	}
	records, err := s.audit.List(ctx, id, limit)
	if err != nil {
		return nil, errInternal("获取审计记录失败", err)
	}
	return records, nil
}

// ListPublished 成员可见的已发布公告，结果缓存在 Redis
func (s *AnnouncementService) ListPublished(ctx context.Context, viewer model.Actor, page, pageSize int) (*model.PaginatedAnnouncements, error) {
	if viewer.ID == "" {
		return nil, errUnauthorized("请先登录")
	}
	page, pageSize = normalizePage(page, pageSize)

	filter := model.AnnouncementFilter{Status: model.StatusPublished}
	viewerKey := "*"
	if !viewer.IsAdmin() {
		filter.Viewer = &viewer
		viewerKey = viewer.ID
	}

	gen, cacheable := s.cache.Generation(ctx)
	key := publishedListKey(gen, string(viewer.Role), viewerKey, page, pageSize)
	var cached model.PaginatedAnnouncements
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.list(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

// ListDue 到期的定时公告
func (s *AnnouncementService) ListDue(ctx context.Context, limit int) ([]model.Announcement, error) {
	return s.repo.ListDue(ctx, s.clock(), limit)
}
