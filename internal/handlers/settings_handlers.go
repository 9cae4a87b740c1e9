package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coachdesk_app_echo/internal/models"
)

type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// GetProfile returns the trainer's profile, seeding a default one from
// the auth claims on first access
func (h *SettingsHandler) GetProfile(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var profile models.TrainerProfile
	err := h.db.WithContext(ctx).Where("trainer_uid = ?", trainerID(c)).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = models.TrainerProfile{
			TrainerUID: trainerID(c),
			Name:       getStringFromContext(c, "trainerName"),
			Email:      getStringFromContext(c, "trainerEmail"),
			Currency:   "USD",
		}
		if err := h.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create profile")
		}
		return c.JSON(http.StatusOK, profile)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

type profileInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Currency     string `json:"currency"`
}

// UpdateProfile upserts the trainer's profile keyed by their UID
func (h *SettingsHandler) UpdateProfile(c echo.Context) error {
	var input profileInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile := models.TrainerProfile{
		TrainerUID:   trainerID(c),
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		BusinessName: input.BusinessName,
		Currency:     input.Currency,
	}
	if profile.Currency == "" {
		profile.Currency = "USD"
	}

	err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trainer_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "email", "phone", "business_name", "currency", "updated_at",
		}),
	}).Create(&profile).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update profile")
	}

	if err := h.db.WithContext(ctx).Where("trainer_uid = ?", trainerID(c)).First(&profile).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
