package api

import (
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/stats"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler serves the exercise catalog and per-exercise statistics
// computed from the workout history.
type ExerciseHandler struct {
	repo *local.Repository
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(repo *local.Repository) *ExerciseHandler {
	return &ExerciseHandler{repo: repo}
}

// SeriesResponse is the chart data of one exercise.
type SeriesResponse struct {
	Name   string             `json:"name"`
	Metric stats.Metric       `json:"metric"`
	Points []stats.ChartPoint `json:"points"`
}

// --- Handler Methods ---

// GetDefaultExercises godoc
// @Summary Built-in exercise catalog
// @Tags Exercises
// @Produce json
// @Success 200 {array} domain.Exercise
// @Router /exercises/defaults [get]
func (h *ExerciseHandler) GetDefaultExercises(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetDefaultExercises())
}

// GetExerciseStats godoc
// @Summary Max weight, total volume and PR date of an exercise
// @Tags Exercises
// @Produce json
// @Param name path string true "Exercise name"
// @Success 200 {object} stats.ExerciseStats
// @Router /exercises/{name}/stats [get]
func (h *ExerciseHandler) GetExerciseStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetExerciseStats(c.Request.Context(), c.Param("name")))
}

// GetExerciseSeries godoc
// @Summary Daily best value of an exercise
// @Description The exercise is matched by catalog id (query "id") or by name.
// @Tags Exercises
// @Produce json
// @Param name path string true "Exercise name"
// @Param id query string false "Catalog exercise id"
// @Param metric query string false "weight, reps, duration or distance"
// @Success 200 {object} SeriesResponse
// @Failure 400 {object} gin.H "Unknown metric"
// @Router /exercises/{name}/series [get]
func (h *ExerciseHandler) GetExerciseSeries(c *gin.Context) {
	metric, err := stats.ParseMetric(c.Query("metric"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	name := c.Param("name")
	c.JSON(http.StatusOK, SeriesResponse{
		Name:   name,
		Metric: metric,
		Points: h.repo.ExerciseSeries(c.Request.Context(), c.Query("id"), name, metric),
	})
}

// GetLastPerformance godoc
// @Summary Most recent logged session of an exercise
// @Tags Exercises
// @Produce json
// @Param name path string true "Exercise name"
// @Param id query string false "Catalog exercise id"
// @Success 200 {object} stats.Performance
// @Failure 404 {object} gin.H "Never performed"
// @Router /exercises/{name}/last [get]
func (h *ExerciseHandler) GetLastPerformance(c *gin.Context) {
	perf, ok := h.repo.FetchLastPerformance(c.Request.Context(), c.Query("id"), c.Param("name"))
	if !ok {
		abortWithError(c, http.StatusNotFound, "No logged sets for this exercise")
		return
	}
	c.JSON(http.StatusOK, perf)
}
