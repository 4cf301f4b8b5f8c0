package api

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler serves saved workouts, routines and workout history.
type WorkoutHandler struct {
	repo *local.Repository
}

func NewWorkoutHandler(repo *local.Repository) *WorkoutHandler {
	return &WorkoutHandler{repo: repo}
}

// writeRepoError maps local repository errors onto HTTP statuses.
func writeRepoError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, local.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, local.ErrNotFound):
		abortWithError(c, http.StatusNotFound, fmt.Sprintf("%s not found", what))
	default:
		log.Printf("ERROR: Failed to handle %s request: %v", what, err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func bindBody(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return false
	}
	return true
}

// --- Saved workouts ---

// GetWorkouts godoc
// @Summary List saved workouts
// @Tags Workouts
// @Produce json
// @Success 200 {array} domain.SavedWorkout
// @Router /workouts [get]
func (h *WorkoutHandler) GetWorkouts(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetWorkouts(c.Request.Context()))
}

// SaveWorkout godoc
// @Summary Create or update a saved workout
// @Description A body with a known id replaces that workout; otherwise a new one is created.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workout body domain.SavedWorkout true "Workout"
// @Success 200 {object} domain.SavedWorkout
// @Failure 400 {object} gin.H "Invalid input"
// @Router /workouts [post]
func (h *WorkoutHandler) SaveWorkout(c *gin.Context) {
	var w domain.SavedWorkout
	if !bindBody(c, &w) {
		return
	}
	saved, err := h.repo.SaveWorkout(c.Request.Context(), w)
	if err != nil {
		writeRepoError(c, "workout", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteWorkout godoc
// @Summary Delete a saved workout
// @Tags Workouts
// @Param id path string true "Workout ID"
// @Success 204
// @Failure 404 {object} gin.H "Not found"
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	if err := h.repo.DeleteWorkout(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, "workout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Routines ---

func (h *WorkoutHandler) GetRoutines(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetRoutines(c.Request.Context()))
}

func (h *WorkoutHandler) SaveRoutine(c *gin.Context) {
	var r domain.WorkoutRoutine
	if !bindBody(c, &r) {
		return
	}
	saved, err := h.repo.SaveRoutine(c.Request.Context(), r)
	if err != nil {
		writeRepoError(c, "routine", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *WorkoutHandler) DeleteRoutine(c *gin.Context) {
	if err := h.repo.DeleteRoutine(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, "routine", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- History ---

// GetHistory godoc
// @Summary List completed workouts
// @Tags History
// @Produce json
// @Success 200 {array} domain.WorkoutLog
// @Router /history [get]
func (h *WorkoutHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetHistory(c.Request.Context()))
}

// SaveLog godoc
// @Summary Log a completed workout
// @Tags History
// @Accept json
// @Produce json
// @Param log body domain.WorkoutLog true "Workout log"
// @Success 200 {object} domain.WorkoutLog
// @Failure 400 {object} gin.H "Invalid input"
// @Router /history [post]
func (h *WorkoutHandler) SaveLog(c *gin.Context) {
	var l domain.WorkoutLog
	if !bindBody(c, &l) {
		return
	}
	saved, err := h.repo.SaveLog(c.Request.Context(), l)
	if err != nil {
		writeRepoError(c, "workout log", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *WorkoutHandler) DeleteLog(c *gin.Context) {
	if err := h.repo.DeleteLog(c.Request.Context(), c.Param("id")); err != nil {
		writeRepoError(c, "workout log", err)
		return
	}
	c.Status(http.StatusNoContent)
}
