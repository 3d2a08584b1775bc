package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/service"
)

type FlashSaleController struct {
	catalogService *service.CatalogService
}

func NewFlashSaleController(catalogService *service.CatalogService) *FlashSaleController {
	return &FlashSaleController{catalogService: catalogService}
}

// GetFlashSales 进行中的限时抢购
// GET /public-api/flash-sales
// 明细按 key 的 style 过滤，过滤后空掉的活动不返回
func (ctrl *FlashSaleController) GetFlashSales(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)

	sales, err := ctrl.catalogService.ListActiveFlashSales(c.Request.Context(), apiKey.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sales,
	})
}
