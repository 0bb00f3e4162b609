package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
)

type ProductsHandler struct {
	repo   *repository.CatalogRepository
	logger *logrus.Logger
}

func NewProductsHandler(repo *repository.CatalogRepository, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{repo: repo, logger: logger}
}

// ListProducts returns a page of the imported catalog
// GET /api/v1/catalog/products
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	search := c.Query("search")

	products, total, err := h.repo.ListProducts(search, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LIST_FAILED", Message: "Failed to list products"},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"products": products,
			"total":    total,
			"page":     page,
			"pageSize": pageSize,
		},
	})
}

// GetProduct returns one product by id
// GET /api/v1/catalog/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Product id must be a UUID", Field: "id"},
		})
		return
	}

	product, err := h.repo.GetProductByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("product_id", id).Error("Failed to load product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LOOKUP_FAILED", Message: "Failed to load product"},
		})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NOT_FOUND", Message: "Product not found"},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}
