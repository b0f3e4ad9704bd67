package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyvault/familyvault/internal/document"
	"github.com/familyvault/familyvault/internal/document/service"
	shareservice "github.com/familyvault/familyvault/internal/share/service"
	"github.com/familyvault/familyvault/internal/tickets"
	"github.com/familyvault/familyvault/pkg/logger"
	"github.com/familyvault/familyvault/pkg/middleware"
)

// Sharing is the slice of the sharing subsystem the document endpoints need:
// access decisions before releasing bytes, and the derived isShared flag for
// listings.
type Sharing interface {
	Authorize(ctx context.Context, actorID, documentID string, action shareservice.Action) (shareservice.Decision, error)
	IsShared(ctx context.Context, documentID string) (bool, error)
}

// ObjectStore abstracts the bytes store (MinIO in production).
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	RemoveFile(ctx context.Context, key string) error
	GetPresignedURL(ctx context.Context, key, downloadName string, expires time.Duration) (string, error)
}

// Handler serves the document metadata and content endpoints.
type Handler struct {
	docs      service.Service
	sharing   Sharing
	store     ObjectStore
	tickets   *tickets.Service
	ticketTTL time.Duration
}

func New(docs service.Service, sharing Sharing, store ObjectStore, tk *tickets.Service, ticketTTL time.Duration) *Handler {
	if ticketTTL <= 0 {
		ticketTTL = 10 * time.Minute
	}
	return &Handler{docs: docs, sharing: sharing, store: store, tickets: tk, ticketTTL: ticketTTL}
}

// Register mounts the authenticated document routes on rg and the
// ticket-redemption route on public (no auth; the ticket is the credential).
func (h *Handler) Register(rg *gin.RouterGroup, public *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.POST("/documents/:id/link", h.link)
	rg.DELETE("/documents/:id", h.delete)
	if public != nil && h.tickets != nil {
		public.GET("/dl/:token", h.redeem)
	}
}

// listedDocument decorates document metadata with the derived sharing flag.
type listedDocument struct {
	*document.Document
	IsShared bool `json:"isShared"`
}

func (h *Handler) list(c *gin.Context) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	docs, err := h.docs.ListByOwner(c.Request.Context(), sub, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list documents"})
		return
	}
	out := make([]listedDocument, 0, len(docs))
	for _, d := range docs {
		shared, err := h.sharing.IsShared(c.Request.Context(), d.ID)
		if err != nil {
			logger.Warnf("isShared lookup failed for %s: %v", d.ID, err)
		}
		out = append(out, listedDocument{Document: d, IsShared: shared})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (h *Handler) upload(c *gin.Context) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing document file"})
		return
	}
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "document title is required"})
		return
	}
	category := document.Category(c.PostForm("category"))
	docType := document.Type(c.PostForm("type"))
	if !category.Valid() || !docType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown category or document type"})
		return
	}
	if fileHeader.Size > document.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file exceeds the 5MB size limit"})
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !document.AllowedMimeType(mimeType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported file type"})
		return
	}

	// the storage key must be in place before the metadata is persisted;
	// repositories snapshot the document at insert
	d := &document.Document{
		ID:          primitive.NewObjectID().Hex(),
		OwnerID:     sub,
		Title:       title,
		Description: c.PostForm("description"),
		Category:    category,
		Type:        docType,
		MimeType:    mimeType,
		FileSize:    fileHeader.Size,
	}
	d.StorageKey = d.ID + "_" + fileHeader.Filename

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read uploaded file"})
		return
	}
	defer f.Close()
	if h.store != nil {
		if err := h.store.UploadFile(c.Request.Context(), d.StorageKey, f, fileHeader.Size, mimeType); err != nil {
			logger.Errorf("object upload failed for %s: %v", d.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to store file"})
			return
		}
	}
	if _, err := h.docs.Create(c.Request.Context(), d); err != nil {
		if h.store != nil {
			_ = h.store.RemoveFile(c.Request.Context(), d.StorageKey)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to save document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Document uploaded successfully", "document": d})
}

func (h *Handler) get(c *gin.Context) {
	d, ok := h.authorizeDocument(c, shareservice.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": d})
}

func (h *Handler) download(c *gin.Context) {
	d, ok := h.authorizeDocument(c, shareservice.ActionDownload)
	if !ok {
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "file storage not configured"})
		return
	}
	rc, err := h.store.DownloadFile(c.Request.Context(), d.StorageKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found in storage"})
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `attachment; filename="`+d.Title+`"`)
	c.DataFromReader(http.StatusOK, d.FileSize, d.MimeType, rc, nil)
}

// link mints a single-use download ticket so the caller can hand the bytes to
// a viewer component without re-sending credentials.
func (h *Handler) link(c *gin.Context) {
	d, ok := h.authorizeDocument(c, shareservice.ActionDownload)
	if !ok {
		return
	}
	if h.tickets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "download links not configured"})
		return
	}
	token, err := h.tickets.Issue(c.Request.Context(), middleware.Subject(c), d.ID, h.ticketTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create download link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       "/api/dl/" + token,
		"expiresIn": int(h.ticketTTL.Seconds()),
	})
}

func (h *Handler) redeem(c *gin.Context) {
	t, err := h.tickets.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to validate download link"})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "download link is invalid or expired"})
		return
	}
	d, err := h.docs.Get(c.Request.Context(), t.DocumentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "file storage not configured"})
		return
	}
	url, err := h.store.GetPresignedURL(c.Request.Context(), d.StorageKey, d.Title, h.ticketTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to resolve download"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *Handler) delete(c *gin.Context) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}
	d, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return
	}
	if d.OwnerID != sub {
		c.JSON(http.StatusForbidden, gin.H{"message": "only the owner can delete a document"})
		return
	}
	if err := h.docs.Delete(c.Request.Context(), d.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete document"})
		return
	}
	if h.store != nil && d.StorageKey != "" {
		if err := h.store.RemoveFile(c.Request.Context(), d.StorageKey); err != nil {
			logger.Warnf("failed to remove object %s: %v", d.StorageKey, err)
		}
	}
	c.Status(http.StatusNoContent)
}

// authorizeDocument loads the document and runs the access check, writing the
// denial response itself. The deny reason is surfaced so the frontend can say
// why ("expired", "revoked", ...) rather than a generic 403.
func (h *Handler) authorizeDocument(c *gin.Context, action shareservice.Action) (*document.Document, bool) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return nil, false
	}
	id := c.Param("id")
	decision, err := h.sharing.Authorize(c.Request.Context(), sub, id, action)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return nil, false
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"message": denyMessage(decision.Reason), "reason": decision.Reason})
		return nil, false
	}
	d, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
		return nil, false
	}
	return d, true
}

func denyMessage(reason shareservice.DenyReason) string {
	switch reason {
	case shareservice.DenyNotShared:
		return "This document has not been shared with you"
	case shareservice.DenyInsufficientPermission:
		return "Your share allows viewing only"
	case shareservice.DenyExpired:
		return "This share has expired"
	case shareservice.DenyRevoked:
		return "This share has been revoked"
	}
	return "Access denied"
}
