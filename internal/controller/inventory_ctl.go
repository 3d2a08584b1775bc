package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/service"
)

type InventoryController struct {
	catalogService *service.CatalogService
}

func NewInventoryController(catalogService *service.CatalogService) *InventoryController {
	return &InventoryController{catalogService: catalogService}
}

// GetInventoryCount 可售库存计数
// GET /public-api/account-inventory?product_id=<id>
// 仅 game_account 类型的 key 可用；只返回数量，库存明细（账号凭据）
// 属于发货环节，永远不出这个接口
func (ctrl *InventoryController) GetInventoryCount(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)

	if apiKey.Type != model.APIKeyTypeGameAccount {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Account inventory is only available for game_account API keys",
		})
		return
	}

	productIDStr := c.Query("product_id")
	if productIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "product_id query parameter is required",
		})
		return
	}
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "product_id must be a positive integer",
		})
		return
	}

	count, err := ctrl.catalogService.CountAvailableInventory(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"product_id":      productID,
			"available_count": count,
		},
	})
}
