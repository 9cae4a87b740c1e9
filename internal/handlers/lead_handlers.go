package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

type LeadHandler struct {
	db    *gorm.DB
	leads *services.LeadService
}

func NewLeadHandler(db *gorm.DB, leads *services.LeadService) *LeadHandler {
	return &LeadHandler{db: db, leads: leads}
}

// ListLeads returns the trainer's pipeline, optionally filtered by status
func (h *LeadHandler) ListLeads(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	query := h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c))
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := query.Order("created_at desc").Find(&leads).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch leads")
	}
	return c.JSON(http.StatusOK, leads)
}

type leadInput struct {
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Source       models.LeadSource `json:"source"`
	Status       models.LeadStatus `json:"status"`
	FollowUpDate *time.Time        `json:"follow_up_date,omitempty"`
	Notes        string            `json:"notes"`
}

// CreateLead adds a lead to the pipeline
func (h *LeadHandler) CreateLead(c echo.Context) error {
	var input leadInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.FirstName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_name is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	lead := models.Lead{
		TrainerID:    trainerID(c),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		Source:       input.Source,
		Status:       input.Status,
		FollowUpDate: input.FollowUpDate,
		Notes:        input.Notes,
	}
	if lead.Source == "" {
		lead.Source = models.LeadSourceWebsite
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusActive
	}

	if err := h.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create lead")
	}
	return c.JSON(http.StatusCreated, lead)
}

// UpdateLead edits lead fields. Converting is a separate operation so
// the converted stamp always travels with the created client.
func (h *LeadHandler) UpdateLead(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input leadInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.Status == models.LeadStatusConverted {
		return echo.NewHTTPError(http.StatusBadRequest, "use the convert endpoint to convert a lead")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var lead models.Lead
	err = h.db.WithContext(ctx).Where("trainer_id = ?", trainerID(c)).First(&lead, id).Error
	if err == gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "lead not found")
	}
	if err != nil {
		return err
	}
	if lead.Status == models.LeadStatusConverted {
		return services.ErrLeadAlreadyConverted
	}

	updates := map[string]interface{}{
		"first_name":     input.FirstName,
		"last_name":      input.LastName,
		"email":          input.Email,
		"phone":          input.Phone,
		"notes":          input.Notes,
		"follow_up_date": input.FollowUpDate,
	}
	if input.Source != "" {
		updates["source"] = input.Source
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}
	if err := h.db.WithContext(ctx).Model(&lead).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update lead")
	}
	return c.JSON(http.StatusOK, lead)
}

// DeleteLead soft-deletes a lead
func (h *LeadHandler) DeleteLead(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res := h.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID(c)).
		Delete(&models.Lead{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete lead")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "lead not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ConvertLead turns a lead into a client, optionally with a package
// purchase and payment, all-or-nothing
func (h *LeadHandler) ConvertLead(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var opts services.ConvertOptions
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.leads.Convert(ctx, trainerID(c), id, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}
