// internal/services/settings_service.go
package services

import (
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/models"
)

// SettingsService reads platform configuration rows with config fallbacks.
// The core treats these values as read-only inputs; administration of the
// rows happens outside this module.
type SettingsService struct {
	db     *gorm.DB
	config *config.Config
}

// TierLevel is one rung of the royalty ladder, ordered by threshold.
type TierLevel struct {
	Name           models.TierName
	ThresholdCents int64
	RoyaltyRateBps int64
}

type WithdrawalLimits struct {
	MinimumCents  int64
	MaximumCents  int64
	FrequencyDays int
}

func NewSettingsService(db *gorm.DB, cfg *config.Config) *SettingsService {
	return &SettingsService{
		db:     db,
		config: cfg,
	}
}

// TierSchedule returns the tier ladder in ascending threshold order, from
// platform settings where present, falling back to config defaults.
func (s *SettingsService) TierSchedule() []TierLevel {
	tiers := s.config.Tiers
	return []TierLevel{
		{
			Name:           models.TierBronze,
			ThresholdCents: 0,
			RoyaltyRateBps: s.intSetting("tiers", "bronze_rate_bps", tiers.BronzeRateBps),
		},
		{
			Name:           models.TierSilver,
			ThresholdCents: s.intSetting("tiers", "silver_threshold_cents", tiers.SilverThresholdCents),
			RoyaltyRateBps: s.intSetting("tiers", "silver_rate_bps", tiers.SilverRateBps),
		},
		{
			Name:           models.TierGold,
			ThresholdCents: s.intSetting("tiers", "gold_threshold_cents", tiers.GoldThresholdCents),
			RoyaltyRateBps: s.intSetting("tiers", "gold_rate_bps", tiers.GoldRateBps),
		},
	}
}

func (s *SettingsService) WithdrawalLimits() WithdrawalLimits {
	w := s.config.Withdrawal
	return WithdrawalLimits{
		MinimumCents:  s.intSetting("withdrawals", "minimum_cents", w.MinimumCents),
		MaximumCents:  s.intSetting("withdrawals", "maximum_cents", w.MaximumCents),
		FrequencyDays: int(s.intSetting("withdrawals", "frequency_days", int64(w.FrequencyDays))),
	}
}

// intSetting reads an integer setting row; missing or malformed rows fall
// back to the supplied default.
func (s *SettingsService) intSetting(category, key string, fallback int64) int64 {
	var setting models.PlatformSetting
	if err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error; err != nil {
		return fallback
	}

	switch v := setting.Value["value"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return fallback
	}
}
