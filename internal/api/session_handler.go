package api

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/service"
	"alcyxob/myhealth/internal/syncer"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncRunner is the part of the sync engine the API drives.
type SyncRunner interface {
	Sync(ctx context.Context, user *domain.Identity) syncer.Report
	IsSyncing() bool
	LastReport() syncer.Report
}

// SessionHandler exposes sign-in, sign-out and manual sync.
type SessionHandler struct {
	sessions service.SessionService
	engine   SyncRunner
}

func NewSessionHandler(sessions service.SessionService, engine SyncRunner) *SessionHandler {
	return &SessionHandler{sessions: sessions, engine: engine}
}

// --- Request/Response Structs ---

type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

type SessionResponse struct {
	Guest bool             `json:"guest"`
	User  *domain.Identity `json:"user,omitempty"`
}

type SyncStatusResponse struct {
	Syncing    bool          `json:"syncing"`
	LastReport syncer.Report `json:"lastReport"`
}

// --- Handler Methods ---

// SignIn godoc
// @Summary Sign in with a session token
// @Description Stores the identity for sync, leaves guest mode and starts a sync.
// @Tags Session
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Session token"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Invalid or expired token"
// @Router /session [post]
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.sessions.SignIn(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) {
			abortWithError(c, http.StatusUnauthorized, "Token has expired")
		} else {
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
		}
		return
	}
	c.JSON(http.StatusOK, SessionResponse{User: user})
}

// SignOut godoc
// @Summary Sign out
// @Description Drops the identity and switches to guest mode. Local data is kept.
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) SignOut(c *gin.Context) {
	h.sessions.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GetSession returns the identity the request acts for.
func (h *SessionHandler) GetSession(c *gin.Context) {
	user := getIdentityFromContext(c)
	c.JSON(http.StatusOK, SessionResponse{Guest: user == nil, User: user})
}

// SyncStatus godoc
// @Summary Sync status
// @Tags Sync
// @Produce json
// @Success 200 {object} SyncStatusResponse
// @Router /sync [get]
func (h *SessionHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, SyncStatusResponse{
		Syncing:    h.engine.IsSyncing(),
		LastReport: h.engine.LastReport(),
	})
}

// TriggerSync godoc
// @Summary Run a sync now
// @Description Pushes pending records and pulls remote state for the request identity.
// @Tags Sync
// @Produce json
// @Success 200 {object} syncer.Report "Sync ran"
// @Success 202 {object} syncer.Report "Sync skipped"
// @Router /sync [post]
func (h *SessionHandler) TriggerSync(c *gin.Context) {
	report := h.engine.Sync(c.Request.Context(), getIdentityFromContext(c))
	if !report.Ran() {
		c.JSON(http.StatusAccepted, report)
		return
	}
	c.JSON(http.StatusOK, report)
}
