package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/familyvault/familyvault/internal/share"
	"github.com/familyvault/familyvault/internal/share/repository"
	"github.com/familyvault/familyvault/internal/share/service"
	"github.com/familyvault/familyvault/pkg/middleware"
)

// RegisterShareRoutes mounts the sharing endpoints consumed by the frontend's
// Document Sharing screen. All routes require an authenticated subject.
func RegisterShareRoutes(rg *gin.RouterGroup, svc *service.Service) {
	rg.POST("/share/document", createShare(svc))
	rg.GET("/share/received", listReceived(svc))
	rg.GET("/share/sent", listSent(svc))
	rg.DELETE("/share/:id", revokeShare(svc))
}

type createShareRequest struct {
	DocumentID     string `json:"documentId"`
	ShareWithEmail string `json:"shareWithEmail"`
	Permissions    string `json:"permissions"`
	Relationship   string `json:"relationshipType"`
	ShareMessage   string `json:"shareMessage"`
}

func createShare(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := middleware.Subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}
		var req createShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		g, err := svc.CreateShare(c.Request.Context(), sub, service.CreateShareInput{
			DocumentID:     req.DocumentID,
			RecipientEmail: req.ShareWithEmail,
			Permission:     share.Permission(req.Permissions),
			Relationship:   share.Relationship(req.Relationship),
			Message:        req.ShareMessage,
		})
		if err != nil {
			status, msg := shareErrorStatus(err)
			c.JSON(status, gin.H{"message": msg})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Document shared successfully", "share": g})
	}
}

func listReceived(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := middleware.Subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}
		views, err := svc.ListReceived(c.Request.Context(), sub)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list shares"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sharedDocuments": views})
	}
}

func listSent(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := middleware.Subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}
		views, err := svc.ListSent(c.Request.Context(), sub)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list shares"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sharedDocuments": views})
	}
}

func revokeShare(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := middleware.Subject(c)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			return
		}
		if err := svc.RevokeShare(c.Request.Context(), sub, c.Param("id")); err != nil {
			status, msg := shareErrorStatus(err)
			c.JSON(status, gin.H{"message": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Share revoked successfully"})
	}
}

// shareErrorStatus maps service errors to HTTP statuses; the message text is
// what the frontend toasts.
func shareErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrSelfShare):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrRecipientNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}
