// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// Service owns order status evolution and order reads.
type Service struct {
	db        *gorm.DB
	uow       uow.Runner
	inventory *inventory.Service
	notifier  Notifier
	logger    logrus.FieldLogger
}

func NewService(db *gorm.DB, runner uow.Runner, inv *inventory.Service, notifier Notifier, logger logrus.FieldLogger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		db:        db,
		uow:       runner,
		inventory: inv,
		notifier:  notifier,
		logger:    logger,
	}
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Status    Status `form:"status"`
	UserID    uint   `form:"user_id"`
	Guest     *bool  `form:"guest"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

// ListResponse represents orders with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetOrders lists orders for the back office
func (s *Service) GetOrders(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, apperr.Validation("order.list", "unknown status %q", req.Status)
	}

	filter := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&Order{})
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.UserID > 0 {
			query = query.Where("user_id = ?", req.UserID)
		}
		if req.Guest != nil {
			if *req.Guest {
				query = query.Where("user_id IS NULL")
			} else {
				query = query.Where("user_id IS NOT NULL")
			}
		}
		if req.DateFrom != "" {
			query = query.Where("created_at >= ?", req.DateFrom)
		}
		if req.DateTo != "" {
			query = query.Where("created_at <= ?", req.DateTo)
		}
		return query
	}

	var (
		orders []Order
		total  int64
		eg     errgroup.Group
	)
	eg.Go(func() error {
		if err := filter().Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		err := filter().
			Preload("Items").
			Order(buildOrderClause(req.SortBy, req.SortOrder)).
			Offset((req.Page - 1) * req.Limit).
			Limit(req.Limit).
			Find(&orders).Error
		if err != nil {
			return fmt.Errorf("failed to retrieve orders: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUserOrders lists the caller's own orders, newest first
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*ListResponse, error) {
	if userID == 0 {
		return nil, apperr.Errorf(apperr.EUNAUTHORIZED, "order.mine", "authentication required")
	}
	return s.GetOrders(ctx, &ListRequest{
		Page:      page,
		Limit:     limit,
		UserID:    userID,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
}

// GetOrder loads an order with items and history
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order.get")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// GetOrderByCode loads an order by its ORD- code
func (s *Service) GetOrderByCode(ctx context.Context, code string) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("code = ?", code).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order.get")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"total":      true,
		"status":     true,
		"code":       true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
