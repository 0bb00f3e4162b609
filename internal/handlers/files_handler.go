package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
)

type FilesHandler struct {
	repo   *repository.CatalogRepository
	logger *logrus.Logger
}

func NewFilesHandler(repo *repository.CatalogRepository, logger *logrus.Logger) *FilesHandler {
	return &FilesHandler{repo: repo, logger: logger}
}

// uploadedImage is one entry of the upload response.
type uploadedImage struct {
	File    *models.StoredFile `json:"file"`
	Skipped bool               `json:"skipped"`
}

// UploadImages stages image files so filename references in a later import
// can resolve them. A file whose name already exists in the store is skipped
// and the existing asset reported, keeping uploads re-runnable.
// POST /api/v1/catalog/images/upload
func (h *FilesHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILES_REQUIRED", Message: "Please upload one or more image files"},
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILES_REQUIRED", Message: "Please upload one or more image files"},
		})
		return
	}

	var results []uploadedImage
	for _, header := range files {
		name := filepath.Base(header.Filename)
		if !isImageUpload(name) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UNSUPPORTED_FILE_TYPE",
					Message: "Only jpg, jpeg, png, gif and webp files can be staged",
					Field:   name,
				},
			})
			return
		}

		existing, err := h.repo.FindFileByName(name)
		if err != nil {
			h.logger.WithError(err).WithField("filename", name).Error("Asset lookup failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "UPLOAD_FAILED", Message: "Failed to stage image"},
			})
			return
		}
		if existing != nil {
			results = append(results, uploadedImage{File: existing, Skipped: true})
			continue
		}

		src, err := header.Open()
		if err != nil {
			h.logger.WithError(err).WithField("filename", name).Error("Upload read failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "UPLOAD_FAILED", Message: "Failed to read uploaded file"},
			})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			h.logger.WithError(err).WithField("filename", name).Error("Upload read failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "UPLOAD_FAILED", Message: "Failed to read uploaded file"},
			})
			return
		}

		file, err := h.repo.ImportFile(data, name)
		if err != nil {
			h.logger.WithError(err).WithField("filename", name).Error("Asset import failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "UPLOAD_FAILED", Message: "Failed to store image"},
			})
			return
		}
		results = append(results, uploadedImage{File: file})
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: results})
}

func isImageUpload(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
