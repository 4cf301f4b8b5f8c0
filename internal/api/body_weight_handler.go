package api

import (
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/stats"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyWeightHandler serves the body measurements of the request identity.
// Guests read and write the guest-owned entries.
type BodyWeightHandler struct {
	repo *local.Repository
}

func NewBodyWeightHandler(repo *local.Repository) *BodyWeightHandler {
	return &BodyWeightHandler{repo: repo}
}

type SaveBodyWeightRequest struct {
	Weight float64 `json:"weight" binding:"required,gt=0"`
	Date   string  `json:"date"` // ISO date, defaults to today
}

type LatestBodyWeightResponse struct {
	Weight *float64 `json:"weight"`
}

// GetHistory godoc
// @Summary Body weight history, oldest first
// @Tags BodyWeight
// @Produce json
// @Success 200 {array} domain.BodyMeasurement
// @Router /body-weight [get]
func (h *BodyWeightHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetBodyWeightHistory(c.Request.Context(), getOwnerIDFromContext(c)))
}

// Save godoc
// @Summary Record the body weight of a day
// @Description An existing entry for the same day is updated.
// @Tags BodyWeight
// @Accept json
// @Produce json
// @Param body body SaveBodyWeightRequest true "Measurement"
// @Success 200 {object} domain.BodyMeasurement
// @Failure 400 {object} gin.H "Invalid input"
// @Router /body-weight [post]
func (h *BodyWeightHandler) Save(c *gin.Context) {
	var req SaveBodyWeightRequest
	if !bindBody(c, &req) {
		return
	}
	saved, err := h.repo.SaveBodyWeight(c.Request.Context(), getOwnerIDFromContext(c), req.Weight, req.Date)
	if err != nil {
		writeRepoError(c, "body weight", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *BodyWeightHandler) Delete(c *gin.Context) {
	if err := h.repo.DeleteBodyWeight(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, "body weight", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLatest godoc
// @Summary Most recent body weight
// @Tags BodyWeight
// @Produce json
// @Success 200 {object} LatestBodyWeightResponse "weight is null without measurements"
// @Router /body-weight/latest [get]
func (h *BodyWeightHandler) GetLatest(c *gin.Context) {
	var resp LatestBodyWeightResponse
	if w, ok := h.repo.GetLatestBodyWeight(c.Request.Context(), getOwnerIDFromContext(c)); ok {
		resp.Weight = &w
	}
	c.JSON(http.StatusOK, resp)
}

// GetChart godoc
// @Summary Body weight chart for a range
// @Tags BodyWeight
// @Produce json
// @Param range query string false "Week, Month, 6Month or Year"
// @Success 200 {object} stats.WeightChart
// @Failure 400 {object} gin.H "Unknown range"
// @Router /body-weight/chart [get]
func (h *BodyWeightHandler) GetChart(c *gin.Context) {
	rng, err := stats.ParseRange(c.Query("range"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.repo.WeightHistory(c.Request.Context(), getOwnerIDFromContext(c), rng))
}
