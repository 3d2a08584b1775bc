package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panel_api_v1_202608/internal/middleware"
	"panel_api_v1_202608/internal/model"
	"panel_api_v1_202608/internal/service"
)

// smmActions 合法子操作清单，未知操作的 404 响应里原样列出
var smmActions = []string{"services", "balance", "order", "orders", "status", "refill"}

type SMMController struct {
	orderService    *service.OrderService
	providerService *service.ProviderService
	logger          *zap.Logger
}

func NewSMMController(orderService *service.OrderService, providerService *service.ProviderService, logger *zap.Logger) *SMMController {
	return &SMMController{
		orderService:    orderService,
		providerService: providerService,
		logger:          logger,
	}
}

// ==================== 分发 ====================

// Handle SMM 子操作统一入口
// ANY /public-api/smm/:action，仅 smm 类型 key 可用
func (ctrl *SMMController) Handle(c *gin.Context) {
	apiKey := middleware.GetAPIKey(c)

	if apiKey.Type != model.APIKeyTypeSMM {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "SMM endpoints are only available for smm API keys",
		})
		return
	}

	switch c.Param("action") {
	case "services":
		ctrl.services(c)
	case "balance":
		ctrl.balance(c)
	case "order":
		ctrl.order(c, apiKey)
	case "orders":
		ctrl.orders(c, apiKey)
	case "status":
		ctrl.status(c)
	case "refill":
		ctrl.refill(c)
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"success":       false,
			"error":         "Unknown SMM action",
			"valid_actions": smmActions,
		})
	}
}

// ==================== 子操作 ====================

// services 上游服务列表，原样透传
func (ctrl *SMMController) services(c *gin.Context) {
	raw, err := ctrl.providerService.Services(c.Request.Context())
	if err != nil {
		ctrl.providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    raw,
	})
}

// balance 上游余额
func (ctrl *SMMController) balance(c *gin.Context) {
	balance, err := ctrl.providerService.Balance(c.Request.Context())
	if err != nil {
		ctrl.providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"balance":  balance.Balance,
		"currency": balance.Currency,
	})
}

// orderRequest 下单请求体
type orderRequest struct {
	Service  *int64  `json:"service"`
	Link     *string `json:"link"`
	Quantity *int    `json:"quantity"`
}

// order 下单，仅 POST
func (ctrl *SMMController) order(c *gin.Context, apiKey *model.APIKey) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"success": false,
			"error":   "order requires POST",
		})
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid JSON body",
		})
		return
	}
	if req.Service == nil || req.Link == nil || *req.Link == "" || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "service, link and quantity are required",
		})
		return
	}
	if *req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "quantity must be a positive integer",
		})
		return
	}

	result, err := ctrl.orderService.PlaceOrder(c.Request.Context(), apiKey.UserID, service.PlaceOrderInput{
		ServiceID: *req.Service,
		Link:      *req.Link,
		Quantity:  *req.Quantity,
	})
	if err != nil {
		var insufficient *service.InsufficientBalanceError
		var providerErr *service.ProviderError
		switch {
		case errors.As(err, &insufficient):
			c.JSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"error":     "Insufficient balance",
				"required":  insufficient.Required,
				"available": insufficient.Available,
			})
		case errors.Is(err, service.ErrServiceNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Service not found",
			})
		case errors.As(err, &providerErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   providerErr.Message,
			})
		default:
			ctrl.logger.Error("下单失败", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"order_id":          result.OrderNo,
		"external_order_id": result.ExternalOrderID,
		"charge":            result.Charge,
		"status":            result.Status,
	})
}

// orders 租户订单列表
func (ctrl *SMMController) orders(c *gin.Context, apiKey *model.APIKey) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, total, err := ctrl.orderService.ListOrders(c.Request.Context(), apiKey.UserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
		"total":   total,
	})
}

// status 查单，上游返回的字段全部透传
func (ctrl *SMMController) status(c *gin.Context) {
	orderIDStr := c.Query("order_id")
	if orderIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "order_id query parameter is required",
		})
		return
	}
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "order_id must be an integer",
		})
		return
	}

	raw, err := ctrl.providerService.Status(c.Request.Context(), orderID)
	if err != nil {
		ctrl.providerFail(c, err)
		return
	}

	fields := gin.H{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		ctrl.logger.Error("上游状态响应不是对象", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}
	fields["success"] = true
	c.JSON(http.StatusOK, fields)
}

// refillRequest 补量请求体
type refillRequest struct {
	OrderID *int64 `json:"order_id"`
}

// refill 补量申请，仅 POST
func (ctrl *SMMController) refill(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"success": false,
			"error":   "refill requires POST",
		})
		return
	}

	var req refillRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "order_id is required",
		})
		return
	}

	raw, err := ctrl.providerService.Refill(c.Request.Context(), *req.OrderID)
	if err != nil {
		ctrl.providerFail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    raw,
	})
}

// ==================== 错误映射 ====================

// providerFail 上游错误统一映射：业务错误 400 透传文案，其余 500 固定文案
func (ctrl *SMMController) providerFail(c *gin.Context, err error) {
	var providerErr *service.ProviderError
	if errors.As(err, &providerErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   providerErr.Message,
		})
		return
	}
	ctrl.logger.Error("上游调用失败", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal server error",
	})
}
