package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noticeboard/internal/model"
)

// ProfileRepository 身份资料只读查询
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListIDsByRole(ctx context.Context, role model.Role) ([]string, error)
	Search(ctx context.Context, keyword string, limit int) ([]model.Profile, error)
	Count(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository 创建身份资料查询实例
func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, role, status, display_name, email, created_at`

// GetByID 根据ID获取身份资料
func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListIDs 全部身份ID
func (r *profileRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM profiles ORDER BY id`); err != nil {
		return nil, fmt.Errorf("查询身份列表失败: %w", err)
	}
	return ids, nil
}

// ListIDsByRole 指定角色的身份ID（精确匹配）
func (r *profileRepository) ListIDsByRole(ctx context.Context, role model.Role) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM profiles WHERE role = ? ORDER BY id`, role); err != nil {
		return nil, fmt.Errorf("按角色查询身份失败: %w", err)
	}
	return ids, nil
}

// Search 按ID、名称或邮箱模糊搜索
func (r *profileRepository) Search(ctx context.Context, keyword string, limit int) ([]model.Profile, error) {
	items := []model.Profile{}
	p := containsPattern(keyword)
	query := `SELECT ` + profileColumns + ` FROM profiles
		WHERE id LIKE ? ESCAPE '!' OR display_name LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!'
		ORDER BY id LIMIT ?`
	if err := r.db.SelectContext(ctx, &items, query, p, p, p, limit); err != nil {
		return nil, fmt.Errorf("搜索身份失败: %w", err)
	}
	return items, nil
}

// Count 身份总数
func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles`)
	return n, err
}
