package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/timmy/imagesim/internal/embedder"
	"github.com/timmy/imagesim/internal/logger"
	"github.com/timmy/imagesim/internal/service"
)

// PageHandler serves the HTML form flow.
type PageHandler struct {
	compareService *service.CompareService
	uploadService  *service.UploadService
}

// NewPageHandler creates a new page handler.
// Parameters:
//   - compareService: comparison service instance.
//   - uploadService: upload service instance.
// Returns:
//   - *PageHandler: initialized handler.
func NewPageHandler(compareService *service.CompareService, uploadService *service.UploadService) *PageHandler {
	return &PageHandler{
		compareService: compareService,
		uploadService:  uploadService,
	}
}

// imageView is the template payload for one compared image.
type imageView struct {
	ID       string
	URL      string
	Filename string
	Width    int
	Height   int
}

// Index handles GET / and renders the upload form with any flashed errors.
func (h *PageHandler) Index(c *gin.Context) {
	session := sessions.Default(c)
	flashes := session.Flashes("error")
	_ = session.Save()

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Errors": flashes,
	})
}

// Upload handles POST /upload: validates both files, stores them, computes
// similarity, and renders the result view.
func (h *PageHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file1, err1 := c.FormFile("image1")
	file2, err2 := c.FormFile("image2")
	if err1 != nil || err2 != nil {
		if isBodyTooLarge(err1) || isBodyTooLarge(err2) {
			flashAndRedirect(c, "File is too large. Maximum size is 16MB.")
			return
		}
		flashAndRedirect(c, "Please select both images")
		return
	}

	upload1, err := h.uploadService.Store(ctx, file1, 1)
	if err != nil {
		h.failUpload(c, err)
		return
	}
	upload2, err := h.uploadService.Store(ctx, file2, 2)
	if err != nil {
		h.failUpload(c, err)
		return
	}

	path1 := h.uploadService.Path(upload1)
	path2 := h.uploadService.Path(upload2)

	similarity, err := h.compareService.Similarity(ctx, path1, path2)
	if err != nil {
		logger.CtxError(ctx, "Similarity computation failed: error=%v", err)
		flashAndRedirect(c, fmt.Sprintf("Error processing images: %v", err))
		return
	}

	view1 := h.displayView(c, upload1.ID, path1, file1.Filename)
	view2 := h.displayView(c, upload2.ID, path2, file2.Filename)

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Similarity":           fmt.Sprintf("%.4f", similarity),
		"SimilarityPercentage": service.Percentage(similarity),
		"Interpretation":       service.Interpret(similarity),
		"Image1":               view1,
		"Image2":               view2,
	})
}

// displayView resizes an upload for display, falling back to the original
// file when the resize fails.
func (h *PageHandler) displayView(c *gin.Context, id, path, originalName string) imageView {
	displayPath, w, hgt, err := embedder.ResizeForDisplay(path, 480, 480)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "Display resize failed, serving original: path=%s, error=%v", path, err)
		displayPath = path
	}
	return imageView{
		ID:       id,
		URL:      "/uploads/" + filepath.Base(displayPath),
		Filename: originalName,
		Width:    w,
		Height:   hgt,
	}
}

// failUpload converts a storage error into the right flash message.
func (h *PageHandler) failUpload(c *gin.Context, err error) {
	if service.IsValidation(err) {
		flashAndRedirect(c, err.Error())
		return
	}
	logger.CtxError(c.Request.Context(), "Upload failed: error=%v", err)
	flashAndRedirect(c, "Error processing images. Please try again.")
}

// flashAndRedirect stores a flash error in the session and redirects to the
// form page.
func flashAndRedirect(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, "error")
	_ = session.Save()
	c.Redirect(http.StatusSeeOther, "/")
}

// isBodyTooLarge reports whether err stems from the request body limit.
func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
