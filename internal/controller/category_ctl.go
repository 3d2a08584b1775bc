package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/service"
)

type CategoryController struct {
	catalogService *service.CatalogService
}

func NewCategoryController(catalogService *service.CatalogService) *CategoryController {
	return &CategoryController{catalogService: catalogService}
}

// GetCategories 分类列表
// GET /public-api/categories
// 充值类租户没有分类概念，直接 403；其余按 style 过滤
func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)

	if apiKey.Type == model.APIKeyTypeGameTopup {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Categories are not available for this API key type",
		})
		return
	}

	categories, err := ctrl.catalogService.ListCategories(c.Request.Context(), apiKey.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}
