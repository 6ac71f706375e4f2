package service

import (
	"context"
	"fmt"
	"maps"

	"noticeboard/internal/metrics"
	"noticeboard/internal/model"
	"noticeboard/pkg/logger"
)

// CommitEvent 一次已提交的公告变更，按顺序传给各个提交后钩子
type CommitEvent struct {
	Actor          model.Actor
	Action         model.AuditAction
	Announcement   *model.Announcement
	PreviousStatus model.AnnouncementStatus
	// 是否需要向受众扇出通知
	Fanout bool
	Detail model.AuditDetail
	// 同一次提交中紧随 Action 记录的审计动作，如创建即发布
	FollowUp model.AuditAction
	// 由扇出钩子填写
	Delivery *DeliveryReport
}

// PostCommitHook 主变更成功后执行的副作用，失败只产生诊断
type PostCommitHook interface {
	Name() string
	Stage() model.Stage
	AfterCommit(ctx context.Context, ev *CommitEvent) model.Diagnostics
}

type hookChain struct {
	hooks   []PostCommitHook
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// run 依次执行钩子，单个钩子 panic 不影响其余钩子与调用方
func (c hookChain) run(ctx context.Context, ev *CommitEvent) model.Diagnostics {
	// 主变更已提交，副作用不随请求取消而中断
	ctx = context.WithoutCancel(ctx)

	var diags model.Diagnostics
	for _, hook := range c.hooks {
		diags = append(diags, c.runOne(ctx, hook, ev)...)
	}
	return diags
}

func (c hookChain) runOne(ctx context.Context, hook PostCommitHook, ev *CommitEvent) (diags model.Diagnostics) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.IncrementHookPanics(hook.Name())
			c.logger.Error("提交后钩子异常", "hook", hook.Name(), "announcement_id", ev.Announcement.ID, "panic", r)
			diags = append(diags, model.Diagnostic{
				Stage:   hook.Stage(),
				Outcome: model.OutcomeFailed,
				Code:    CodeInternal,
				Detail:  fmt.Sprintf("hook %s panicked: %v", hook.Name(), r),
			})
		}
	}()
	return hook.AfterCommit(ctx, ev)
}

// fanoutHook 解析受众并批量生成通知
type fanoutHook struct {
	resolver   *AudienceResolver
	dispatcher *FanoutDispatcher
}

func (h *fanoutHook) Name() string       { return "fanout" }
func (h *fanoutHook) Stage() model.Stage { return model.StageFanout }

func (h *fanoutHook) AfterCommit(ctx context.Context, ev *CommitEvent) model.Diagnostics {
	if !ev.Fanout {
		return nil
	}
	a := ev.Announcement
	res := h.resolver.Resolve(ctx, a.TargetAudience, a.TargetUserID)
	diags := res.Diagnostics
	outcome := model.OutcomeOK
	for _, d := range res.Diagnostics {
		if d.Outcome != model.OutcomeOK {
			outcome = model.OutcomePartial
			break
		}
	}
	diags.Add(model.StageAudience, outcome,
		fmt.Sprintf("resolved %d recipients for %s", res.Recipients.Len(), a.TargetAudience))

	report, fanoutDiags := h.dispatcher.Dispatch(ctx, a, res.Recipients)
	ev.Delivery = &report
	return append(diags, fanoutDiags...)
}

// auditHook 追加审计记录，失败转为 AUDIT_FAILURE 诊断
type auditHook struct {
	recorder *AuditRecorder
}

func (h *auditHook) Name() string       { return "audit" }
func (h *auditHook) Stage() model.Stage { return model.StageAudit }

func (h *auditHook) AfterCommit(ctx context.Context, ev *CommitEvent) model.Diagnostics {
	detail := model.AuditDetail{}
	maps.Copy(detail, ev.Detail)
	detail["title"] = ev.Announcement.Title
	detail["status"] = ev.Announcement.Status
	if ev.PreviousStatus != "" {
		detail["previous_status"] = ev.PreviousStatus
	}
	if ev.Delivery != nil {
		detail["batch_id"] = ev.Delivery.BatchID
		detail["recipients"] = ev.Delivery.Requested
		detail["notifications_created"] = ev.Delivery.Created
	}

	var diags model.Diagnostics
	for _, action := range []model.AuditAction{ev.Action, ev.FollowUp} {
		if action == "" {
			continue
		}
		if err := h.recorder.Record(ctx, ev.Actor, action, ev.Announcement.ID, detail); err != nil {
			diags.AddCode(model.StageAudit, model.OutcomeFailed, CodeAuditFailure, err.Error())
		}
	}
	return diags
}

// cacheHook 使成员端公告缓存失效
type cacheHook struct {
	cache *AnnouncementCache
}

func (h *cacheHook) Name() string       { return "cache" }
func (h *cacheHook) Stage() model.Stage { return model.StageCache }

func (h *cacheHook) AfterCommit(ctx context.Context, _ *CommitEvent) model.Diagnostics {
	if err := h.cache.Invalidate(ctx); err != nil {
		var diags model.Diagnostics
		diags.Add(model.StageCache, model.OutcomeFailed, "cache invalidation failed: "+err.Error())
		return diags
	}
	return nil
}
