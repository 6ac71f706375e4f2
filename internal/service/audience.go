package service

//go:generate mockgen -source=audience.go -destination=mocks/mock_audience.go -package=mocks ProfileDirectory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"noticeboard/internal/model"
	"noticeboard/internal/repository"
	"noticeboard/pkg/logger"
)

// 受众解析诊断码
const (
	DiagAudienceUnknown    = "AUDIENCE_UNKNOWN"
	DiagTargetUserMissing  = "TARGET_USER_MISSING"
	DiagTargetUserNotFound = "TARGET_USER_NOT_FOUND"
	DiagLookupFailed       = "LOOKUP_FAILED"
)

// ProfileDirectory 身份目录的只读查询
type ProfileDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListIDsByRole(ctx context.Context, role model.Role) ([]string, error)
}

// Resolution 受众解析结果
type Resolution struct {
	Recipients  sets.Set[string]
	Diagnostics model.Diagnostics
}

// AudienceResolver 将目标受众解析为接收者集合。
// 任何情况下都不返回错误，查询失败与配置问题记录为诊断。
type AudienceResolver struct {
	profiles ProfileDirectory
	logger   *logger.Logger
}

// NewAudienceResolver 创建受众解析器
func NewAudienceResolver(profiles ProfileDirectory, logger *logger.Logger) *AudienceResolver {
	return &AudienceResolver{profiles: profiles, logger: logger}
}

// Resolve 解析受众
func (r *AudienceResolver) Resolve(ctx context.Context, audience model.Audience, targetUserID *string) Resolution {
	res := Resolution{Recipients: sets.New[string]()}

	if !audience.Known() {
		// 兼容界面复数标签
		parsed, ok := model.ParseAudience(string(audience))
		if !ok {
			res.Diagnostics.AddCode(model.StageAudience, model.OutcomeSkipped, DiagAudienceUnknown,
				fmt.Sprintf("unknown target audience %q, no recipients", audience))
			r.logger.Warn("未知的目标受众", "audience", audience)
			return res
		}
		audience = parsed
	}

	switch audience {
	case model.AudienceAll:
		r.resolveAll(ctx, &res)
	case model.AudienceSpecificUser:
		r.resolveSpecific(ctx, targetUserID, &res)
	default:
		role, _ := audience.Role()
		ids, err := r.profiles.ListIDsByRole(ctx, role)
		if err != nil {
			r.lookupFailed(&res, "role "+string(role), err)
			return res
		}
		res.Recipients.Insert(ids...)
	}
	return res
}

// resolveAll 全量查询失败时退回按角色逐个查询，保留成功的部分
func (r *AudienceResolver) resolveAll(ctx context.Context, res *Resolution) {
	ids, err := r.profiles.ListIDs(ctx)
	if err == nil {
		res.Recipients.Insert(ids...)
		return
	}
	r.lookupFailed(res, "all profiles", err)

	for _, aud := range model.RoleAudiences() {
		role, _ := aud.Role()
		ids, err := r.profiles.ListIDsByRole(ctx, role)
		if err != nil {
			r.lookupFailed(res, "role "+string(role), err)
			continue
		}
		res.Recipients.Insert(ids...)
	}
	if res.Recipients.Len() > 0 {
		res.Diagnostics.Add(model.StageAudience, model.OutcomePartial,
			fmt.Sprintf("resolved %d recipients from per-role fallback", res.Recipients.Len()))
	}
}

func (r *AudienceResolver) resolveSpecific(ctx context.Context, targetUserID *string, res *Resolution) {
	if targetUserID == nil || strings.TrimSpace(*targetUserID) == "" {
		res.Diagnostics.AddCode(model.StageAudience, model.OutcomeSkipped, DiagTargetUserMissing,
			"specific-user audience without target_user_id")
		return
	}
	id := strings.TrimSpace(*targetUserID)

	p, err := r.profiles.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		res.Diagnostics.AddCode(model.StageAudience, model.OutcomeSkipped, DiagTargetUserNotFound,
			fmt.Sprintf("target user %q does not exist", id))
	case err != nil:
		r.lookupFailed(res, "user "+id, err)
	default:
		res.Recipients.Insert(p.ID)
	}
}

func (r *AudienceResolver) lookupFailed(res *Resolution, what string, err error) {
	res.Diagnostics.AddCode(model.StageAudience, model.OutcomeFailed, DiagLookupFailed,
		fmt.Sprintf("lookup %s: %v", what, err))
	r.logger.Error("受众查询失败", "query", what, "error", err)
}
