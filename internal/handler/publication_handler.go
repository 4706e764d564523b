package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"folio/internal/domain"
	"folio/internal/service"
)

// PublicationHandler handles publish, validate and retract endpoints.
type PublicationHandler struct {
	intake       service.UploadIntake
	publications service.PublicationService
}

// NewPublicationHandler creates a new PublicationHandler.
func NewPublicationHandler(intake service.UploadIntake, publications service.PublicationService) *PublicationHandler {
	return &PublicationHandler{intake: intake, publications: publications}
}

// Upload handles POST /api/v1/publications
// @Summary Publish a PDF
// @Description Store a PDF under {correlation_id}.pdf and publish it. Blocks until conversion finishes.
// @Tags publications
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF to publish"
// @Param correlation_id formData string true "Stable id the storage key is derived from (alias: auction_id)"
// @Param download_filename formData string true "Filename offered on download (alias: s3.download_filename)"
// @Param title formData string true "Publication title (alias: issuu.title)"
// @Param description formData string true "Publication description (alias: issuu.description)"
// @Success 201 {object} APIResponse{data=domain.PublicationRecord} "Stored and published"
// @Failure 400 {object} APIResponse "Missing field or not a PDF"
// @Failure 409 {object} APIResponse "Correlation id already stored"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 502 {object} APIResponse{data=domain.PublicationRecord} "Upstream failure; data holds the partial record"
// @Failure 504 {object} APIResponse{data=domain.PublicationRecord} "Conversion timed out; data holds the partial record"
// @Router /publications [post]
func (h *PublicationHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	input := service.IntakeInput{
		CorrelationID:    param(c, "correlation_id", "auction_id"),
		DownloadFilename: param(c, "download_filename", "s3.download_filename"),
		Title:            param(c, "title", "issuu.title"),
		Description:      param(c, "description", "issuu.description"),
		File:             file,
		DeclaredMimeType: header.Header.Get("Content-Type"),
		DeclaredSize:     header.Size,
	}

	record, err := h.intake.Submit(c.Request.Context(), input)
	if err != nil {
		if record != nil {
			HandleErrorWithData(c, err, record)
			return
		}
		HandleError(c, err)
		return
	}

	RespondCreated(c, record)
}

// Validate handles GET /api/v1/publications/:correlation_id
// @Summary Check a record on both backends
// @Description Reports storage and publication presence independently. success is true only when both exist.
// @Tags publications
// @Produce json
// @Param correlation_id path string true "Correlation id"
// @Param slug query string false "Publication slug (alias: issuu.slug)"
// @Success 200 {object} APIResponse{data=domain.ValidationResult}
// @Failure 400 {object} APIResponse "Invalid correlation id"
// @Router /publications/{correlation_id} [get]
func (h *PublicationHandler) Validate(c *gin.Context) {
	ref := domain.RecordRef{
		CorrelationID: c.Param("correlation_id"),
		Slug:          param(c, "slug", "issuu.slug"),
	}

	result, err := h.publications.Validate(c.Request.Context(), ref)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: result.Success, Data: result})
}

// Retract handles DELETE /api/v1/publications/:correlation_id
// @Summary Delete a record from both backends
// @Description Attempts both deletions regardless of each other's outcome. 207 when only one succeeded.
// @Tags publications
// @Produce json
// @Param correlation_id path string true "Correlation id"
// @Param slug query string true "Publication slug (alias: issuu.slug)"
// @Success 200 {object} APIResponse{data=domain.RetractResult} "Deleted from both"
// @Success 207 {object} APIResponse{data=domain.RetractResult} "Partial deletion"
// @Failure 400 {object} APIResponse "Missing correlation id or slug"
// @Router /publications/{correlation_id} [delete]
func (h *PublicationHandler) Retract(c *gin.Context) {
	ref := domain.RecordRef{
		CorrelationID: c.Param("correlation_id"),
		Slug:          param(c, "slug", "issuu.slug"),
	}

	result, err := h.publications.Retract(c.Request.Context(), ref)
	if err != nil {
		HandleError(c, err)
		return
	}

	respondRetract(c, result, "deleted from storage and publication")
}

// RetractStorage handles DELETE /api/v1/publications/:correlation_id/storage
// @Summary Delete only the stored object
// @Description Cleans up the stored PDF after a publish whose publication leg failed.
// @Tags publications
// @Produce json
// @Param correlation_id path string true "Correlation id"
// @Success 200 {object} APIResponse{data=domain.RetractResult}
// @Success 207 {object} APIResponse{data=domain.RetractResult} "Storage deletion failed"
// @Failure 400 {object} APIResponse "Invalid correlation id"
// @Router /publications/{correlation_id}/storage [delete]
func (h *PublicationHandler) RetractStorage(c *gin.Context) {
	result, err := h.publications.RetractStorageOnly(c.Request.Context(), c.Param("correlation_id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	respondRetract(c, result, "deleted from storage")
}

// Estimate handles GET /api/v1/estimate
// @Summary Estimate conversion wait
// @Description Seconds a caller should expect to wait for a file of the given size. Messaging only.
// @Tags publications
// @Produce json
// @Param size query int true "File size in bytes"
// @Success 200 {object} APIResponse{data=EstimateResponse}
// @Failure 400 {object} APIResponse "Invalid size"
// @Router /estimate [get]
func (h *PublicationHandler) Estimate(c *gin.Context) {
	size, err := strconv.ParseInt(c.Query("size"), 10, 64)
	if err != nil || size < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "size must be a non-negative integer number of bytes")
		return
	}

	RespondOK(c, EstimateResponse{
		SizeBytes:   size,
		WaitSeconds: h.publications.EstimateWait(size),
	})
}

// EstimateResponse is the body of the estimate endpoint.
type EstimateResponse struct {
	SizeBytes   int64 `json:"size_bytes"`
	WaitSeconds int   `json:"wait_seconds"`
}

func respondRetract(c *gin.Context, result *domain.RetractResult, okMessage string) {
	if result.Partial() {
		RespondMultiStatus(c, "partial deletion - check individual results", result)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: okMessage, Data: result})
}

// param reads a value from the form or query string, falling back to its legacy name.
func param(c *gin.Context, name, legacy string) string {
	for _, key := range []string{name, legacy} {
		if v := c.PostForm(key); v != "" {
			return v
		}
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}
