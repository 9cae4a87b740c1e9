package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

type ClientHandler struct {
	db           *gorm.DB
	entitlements *services.EntitlementService
}

func NewClientHandler(db *gorm.DB, entitlements *services.EntitlementService) *ClientHandler {
	return &ClientHandler{db: db, entitlements: entitlements}
}

// ListClients returns the trainer's clients, optionally filtered by status
func (h *ClientHandler) ListClients(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	query := h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c))
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var clients []models.Client
	if err := query.Order("first_name, last_name").Find(&clients).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch clients")
	}
	return c.JSON(http.StatusOK, clients)
}

// clientDetail is a client plus its packages with derived flags
type clientDetail struct {
	models.Client
	PackageViews []services.EntitlementView `json:"package_views"`
}

// GetClient returns one client with packages and recent sessions
func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var client models.Client
	err = h.db.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_at desc").Limit(10)
		}).
		Where("trainer_id = ?", trainerID(c)).
		First(&client, id).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "client not found")
	}
	if err != nil {
		return err
	}

	views, err := h.entitlements.ListForClient(ctx, trainerID(c), client.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clientDetail{Client: client, PackageViews: views})
}

type clientInput struct {
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	Status    models.ClientStatus `json:"status"`
	Notes     string              `json:"notes"`
}

// CreateClient adds a client directly (not via lead conversion)
func (h *ClientHandler) CreateClient(c echo.Context) error {
	var input clientInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.FirstName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_name is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	client := models.Client{
		TrainerID: trainerID(c),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Status:    input.Status,
		Notes:     input.Notes,
	}
	if client.Status == "" {
		client.Status = models.ClientStatusActive
	}

	if err := h.db.WithContext(ctx).Create(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create client")
	}
	return c.JSON(http.StatusCreated, client)
}

// UpdateClient edits contact fields and status. Status changes never
// touch the client's packages.
func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input clientInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var client models.Client
	err = h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c)).First(&client, id).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "client not found")
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"email":      input.Email,
		"phone":      input.Phone,
		"notes":      input.Notes,
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}
	if err := h.db.WithContext(ctx).Model(&client).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update client")
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient soft-deletes a client; their packages and sessions stay
// in place for bookkeeping
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res := h.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID(c)).
		Delete(&models.Client{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete client")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "client not found")
	}
	return c.NoContent(http.StatusNoContent)
}
