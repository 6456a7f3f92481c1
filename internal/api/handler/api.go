package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/timmy/imagesim/internal/logger"
	"github.com/timmy/imagesim/internal/service"
)

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	compareService *service.CompareService
	uploadService  *service.UploadService
}

// NewAPIHandler creates a new API handler.
// Parameters:
//   - compareService: comparison service instance.
//   - uploadService: upload service instance.
// Returns:
//   - *APIHandler: initialized handler.
func NewAPIHandler(compareService *service.CompareService, uploadService *service.UploadService) *APIHandler {
	return &APIHandler{
		compareService: compareService,
		uploadService:  uploadService,
	}
}

// Similarity handles POST /api/similarity. Uploads go to a request-scoped
// temp directory that is removed when the request finishes, whatever the
// outcome.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *APIHandler) Similarity(c *gin.Context) {
	ctx := c.Request.Context()

	file1, err1 := c.FormFile("image1")
	file2, err2 := c.FormFile("image2")
	if err1 != nil || err2 != nil {
		if isBodyTooLarge(err1) || isBodyTooLarge(err2) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "File is too large. Maximum size is 16MB.",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Both images are required",
		})
		return
	}

	if !service.AllowedFile(file1.Filename) || !service.AllowedFile(file2.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file type",
		})
		return
	}

	tmpDir, err := os.MkdirTemp("", "imagesim-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to allocate temporary storage",
		})
		return
	}
	defer os.RemoveAll(tmpDir)

	path1 := filepath.Join(tmpDir, "image1"+filepath.Ext(file1.Filename))
	path2 := filepath.Join(tmpDir, "image2"+filepath.Ext(file2.Filename))
	if err := c.SaveUploadedFile(file1, path1); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save upload: " + err.Error(),
		})
		return
	}
	if err := c.SaveUploadedFile(file2, path2); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save upload: " + err.Error(),
		})
		return
	}

	similarity, err := h.compareService.Similarity(ctx, path1, path2)
	if err != nil {
		logger.CtxError(ctx, "Similarity computation failed: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute similarity: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"similarity":            similarity,
		"similarity_percentage": service.Percentage(similarity),
		"interpretation":        service.Interpret(similarity),
	})
}

// embeddingsRequest names two previously stored uploads by their opaque IDs
// (stored filenames are also accepted and matched against the registry).
type embeddingsRequest struct {
	Image1 string `json:"image1"`
	Image2 string `json:"image2"`
}

// Embeddings handles POST /api/embeddings.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *APIHandler) Embeddings(c *gin.Context) {
	ctx := c.Request.Context()

	var req embeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Image1 == "" || req.Image2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Image filenames are required",
		})
		return
	}

	upload1, err := h.uploadService.Lookup(ctx, req.Image1)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	upload2, err := h.uploadService.Lookup(ctx, req.Image2)
	if err != nil {
		h.lookupError(c, err)
		return
	}

	vec1, err := h.compareService.Embed(ctx, h.uploadService.Path(upload1))
	if err != nil {
		logger.CtxError(ctx, "Embedding failed: upload_id=%s, error=%v", upload1.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute embeddings: " + err.Error(),
		})
		return
	}
	vec2, err := h.compareService.Embed(ctx, h.uploadService.Path(upload2))
	if err != nil {
		logger.CtxError(ctx, "Embedding failed: upload_id=%s, error=%v", upload2.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute embeddings: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"embedding1": vec1,
		"embedding2": vec2,
		"dimensions": len(vec1),
		"success":    true,
	})
}

// lookupError maps upload lookup failures to API responses.
func (h *APIHandler) lookupError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image files not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve upload: " + err.Error()})
	}
}
