package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

type PackageHandler struct {
	db           *gorm.DB
	entitlements *services.EntitlementService
	payments     *services.PaymentService
}

func NewPackageHandler(db *gorm.DB, entitlements *services.EntitlementService, payments *services.PaymentService) *PackageHandler {
	return &PackageHandler{db: db, entitlements: entitlements, payments: payments}
}

// ListPackages returns the trainer's package templates
func (h *PackageHandler) ListPackages(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	query := h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c))
	if c.QueryParam("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var packages []models.Package
	if err := query.Order("name").Find(&packages).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch packages")
	}
	return c.JSON(http.StatusOK, packages)
}

type packageInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	SessionCount int     `json:"session_count"`
	DurationDays int     `json:"duration_days"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// CreatePackage adds a package template
func (h *PackageHandler) CreatePackage(c echo.Context) error {
	var input packageInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if input.SessionCount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "session_count must be positive")
	}
	if input.DurationDays <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "duration_days must be positive")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pkg := models.Package{
		TrainerID:    trainerID(c),
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		SessionCount: input.SessionCount,
		DurationDays: input.DurationDays,
		IsActive:     true,
	}
	if input.IsActive != nil {
		pkg.IsActive = *input.IsActive
	}

	if err := h.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create package")
	}
	return c.JSON(http.StatusCreated, pkg)
}

// UpdatePackage edits template fields. Existing client purchases keep
// the counts they were bought with.
func (h *PackageHandler) UpdatePackage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input packageInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var pkg models.Package
	err = h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c)).First(&pkg, id).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "package not found")
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"name":        input.Name,
		"description": input.Description,
		"price":       input.Price,
	}
	if input.SessionCount > 0 {
		updates["session_count"] = input.SessionCount
	}
	if input.DurationDays > 0 {
		updates["duration_days"] = input.DurationDays
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := h.db.WithContext(ctx).Model(&pkg).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update package")
	}
	return c.JSON(http.StatusOK, pkg)
}

// DeletePackage removes a template, or deactivates it when client
// purchases still reference it
func (h *PackageHandler) DeletePackage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var pkg models.Package
	err = h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c)).First(&pkg, id).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "package not found")
	}
	if err != nil {
		return err
	}

	var referenced int64
	if err := h.db.WithContext(ctx).Model(&models.ClientPackage{}).
		Where("package_id = ?", pkg.ID).Count(&referenced).Error; err != nil {
		return err
	}
	if referenced > 0 {
		if err := h.db.WithContext(ctx).Model(&pkg).Update("is_active", false).Error; err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "deactivated"})
	}

	if err := h.db.WithContext(ctx).Delete(&pkg).Error; err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type assignPackageInput struct {
	PackageID     uint                 `json:"package_id"`
	AmountPaid    *float64             `json:"amount_paid,omitempty"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
}

// AssignPackage purchases a package for a client: entitlement plus
// completed payment in one transaction
func (h *PackageHandler) AssignPackage(c echo.Context) error {
	clientID, err := idParam(c)
	if err != nil {
		return err
	}
	var input assignPackageInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.PackageID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "package_id is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var pkg models.Package
	err = h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c)).First(&pkg, input.PackageID).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "package not found")
	}
	if err != nil {
		return err
	}

	amount := pkg.Price
	if input.AmountPaid != nil {
		amount = *input.AmountPaid
	}
	method := input.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCash
	}

	payment, err := h.payments.Record(ctx, trainerID(c), services.RecordPaymentInput{
		ClientID:    clientID,
		Amount:      amount,
		Method:      method,
		Status:      models.PaymentStatusCompleted,
		PaymentDate: time.Now(),
		PackageID:   &input.PackageID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

// ListClientPackages returns a client's purchases with derived flags
func (h *PackageHandler) ListClientPackages(c echo.Context) error {
	clientID, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := h.entitlements.ListForClient(ctx, trainerID(c), clientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
