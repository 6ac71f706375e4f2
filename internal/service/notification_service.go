package service

import (
	"context"
	"errors"
	"time"

	"noticeboard/internal/model"
	"noticeboard/internal/repository"
	"noticeboard/pkg/logger"
)

// NotificationService 成员查看与标记自己的通知
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(repo repository.NotificationRepository, logger *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger, now: time.Now}
}

func member(actor model.Actor) error {
	if actor.ID == "" {
		return errUnauthorized("请先登录")
	}
	return nil
}

// List 分页获取本人的通知
func (s *NotificationService) List(ctx context.Context, actor model.Actor, unreadOnly bool, page, pageSize int) (*model.PaginatedNotifications, error) {
	if err := member(actor); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.repo.ListByRecipient(ctx, actor.ID, unreadOnly, page, pageSize)
	if err != nil {
		s.logger.Error("获取通知列表失败", "recipient_id", actor.ID, "error", err)
		return nil, errInternal("获取通知列表失败", err)
	}
	return &model.PaginatedNotifications{
		Items:      items,
		TotalCount: total,
		PageInfo:   model.NewPageInfo(page, pageSize, total),
	}, nil
}

// UnreadCount 未读数量
func (s *NotificationService) UnreadCount(ctx context.Context, actor model.Actor) (int64, error) {
	if err := member(actor); err != nil {
		return 0, err
	}
	n, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, errInternal("获取未读数量失败", err)
	}
	return n, nil
}

// MarkRead 标记一条通知为已读
func (s *NotificationService) MarkRead(ctx context.Context, actor model.Actor, id string) error {
	if err := member(actor); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, actor.ID, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("通知不存在", err)
		}
		return errInternal("标记已读失败", err)
	}
	return nil
}

// MarkAllRead 全部标记为已读，返回本次更新数量
func (s *NotificationService) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	if err := member(actor); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, actor.ID, s.now())
	if err != nil {
		return 0, errInternal("标记全部已读失败", err)
	}
	return n, nil
}
