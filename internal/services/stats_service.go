package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
)

// StatsService computes the dashboard aggregates. Results are cached in
// Redis for a few minutes; stale reads are fine for display paths.
type StatsService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewStatsService(db *gorm.DB, cache *RedisCache) *StatsService {
	return &StatsService{db: db, cache: cache}
}

// DashboardStats is the aggregate snapshot shown on the dashboard
type DashboardStats struct {
	ActiveClients      int64   `json:"active_clients"`
	SessionsThisWeek   int64   `json:"sessions_this_week"`
	RevenueThisMonth   float64 `json:"revenue_this_month"`
	OpenLeads          int64   `json:"open_leads"`
	LeadConversionRate float64 `json:"lead_conversion_rate"`
}

const statsCacheTTL = 5 * time.Minute

// Dashboard returns the trainer's dashboard stats, computing them on a
// cache miss or when no cache is configured
func (s *StatsService) Dashboard(ctx context.Context, trainerID string) (DashboardStats, error) {
	if s.cache == nil {
		return s.computeDashboard(ctx, trainerID)
	}
	key := fmt.Sprintf("dashboard:stats:%s", trainerID)
	return GetOrSet(s.cache, ctx, key, statsCacheTTL, func() (DashboardStats, error) {
		return s.computeDashboard(ctx, trainerID)
	})
}

// Invalidate drops the cached stats after a mutation worth reflecting fast
func (s *StatsService) Invalidate(ctx context.Context, trainerID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, fmt.Sprintf("dashboard:stats:%s", trainerID))
}

func (s *StatsService) computeDashboard(ctx context.Context, trainerID string) (DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var stats DashboardStats

	err := db.Model(&models.Client{}).
		Where("trainer_id = ? AND status = ?", trainerID, models.ClientStatusActive).
		Count(&stats.ActiveClients).Error
	if err != nil {
		return stats, mapStoreError(err)
	}

	now := time.Now()
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, now.Location())
	err = db.Model(&models.Session{}).
		Where("trainer_id = ? AND scheduled_at >= ? AND scheduled_at < ?", trainerID, weekStart, weekStart.AddDate(0, 0, 7)).
		Count(&stats.SessionsThisWeek).Error
	if err != nil {
		return stats, mapStoreError(err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var revenue *float64
	err = db.Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("trainer_id = ? AND status = ? AND payment_date >= ?", trainerID, models.PaymentStatusCompleted, monthStart).
		Scan(&revenue).Error
	if err != nil {
		return stats, mapStoreError(err)
	}
	if revenue != nil {
		stats.RevenueThisMonth = *revenue
	}

	var totalLeads, convertedLeads int64
	err = db.Model(&models.Lead{}).
		Where("trainer_id = ?", trainerID).
		Count(&totalLeads).Error
	if err != nil {
		return stats, mapStoreError(err)
	}
	err = db.Model(&models.Lead{}).
		Where("trainer_id = ? AND status = ?", trainerID, models.LeadStatusConverted).
		Count(&convertedLeads).Error
	if err != nil {
		return stats, mapStoreError(err)
	}
	err = db.Model(&models.Lead{}).
		Where("trainer_id = ? AND status NOT IN ?", trainerID, []models.LeadStatus{models.LeadStatusConverted, models.LeadStatusLost}).
		Count(&stats.OpenLeads).Error
	if err != nil {
		return stats, mapStoreError(err)
	}
	if totalLeads > 0 {
		stats.LeadConversionRate = float64(convertedLeads) / float64(totalLeads)
	}

	return stats, nil
}
