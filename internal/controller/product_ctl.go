package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/repository"
	"panel_api_v1_202608/internal/service"
)

type ProductController struct {
	catalogService *service.CatalogService
}

func NewProductController(catalogService *service.CatalogService) *ProductController {
	return &ProductController{catalogService: catalogService}
}

// ==================== 查询接口 ====================

// GetProducts 商品列表
// GET /public-api/products?limit=20&offset=0&category=<slug>&featured=true
// 商品范围由 key 类型隐式决定，调用方无法越过自己的 style 片区
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := repository.ProductFilter{
		CategorySlug: c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
		Limit:        limit,
		Offset:       offset,
	}

	products, total, err := ctrl.catalogService.ListProducts(c.Request.Context(), apiKey.Type, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetProduct 商品详情
// GET /public-api/products/:slug
// style 不匹配与不存在同样 404，避免跨租户探测商品存在性
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)
	slug := c.Param("slug")

	product, err := ctrl.catalogService.GetProduct(c.Request.Context(), apiKey.Type, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Product not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}
