package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"panel_api_v1_202608/internal/controller"
)

// Controllers 控制器集合
type Controllers struct {
	Product   *controller.ProductController
	Category  *controller.CategoryController
	FlashSale *controller.FlashSaleController
	Inventory *controller.InventoryController
	SMM       *controller.SMMController
}

// Middlewares 网关中间件链，main 里装配好注入
// 顺序固定：鉴权 → IP 白名单 → 限流 → 流水，后面的阶段假定前面的已通过
type Middlewares struct {
	Recovery    gin.HandlerFunc
	APIKeyAuth  gin.HandlerFunc
	IPAllowList gin.HandlerFunc
	RateLimit   gin.HandlerFunc
	UsageLogger gin.HandlerFunc
}

// SetupRouter 注册所有路由
func SetupRouter(ctrls *Controllers, mws *Middlewares) *gin.Engine {
	r := gin.New()
	r.Use(mws.Recovery)

	// CORS：公开 API，预检请求在这里短路掉，不会进鉴权链
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
	}))

	// 健康检查，不鉴权
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 公开 API 组
	// Recovery 在流水中间件内侧再挂一层：handler panic 先被兜成 500，
	// UsageLogger 才能把真实的 500 记进流水
	api := r.Group("/public-api",
		mws.APIKeyAuth,
		mws.IPAllowList,
		mws.RateLimit,
		mws.UsageLogger,
		mws.Recovery,
	)
	{
		// 商品
		api.GET("/products", ctrls.Product.GetProducts)
		api.GET("/products/:slug", ctrls.Product.GetProduct)

		// 分类
		api.GET("/categories", ctrls.Category.GetCategories)

		// 限时抢购
		api.GET("/flash-sales", ctrls.FlashSale.GetFlashSales)

		// 账号库存
		api.GET("/account-inventory", ctrls.Inventory.GetInventoryCount)

		// SMM 面板（子操作在 controller 内分发，order/refill 的 POST 约束也在那里管）
		api.Any("/smm/:action", ctrls.SMM.Handle)
	}

	// 未知资源：/public-api 下的照样走完整链路（鉴权通过才 404，且照记流水），
	// 其余路径直接 404
	r.NoRoute(
		func(c *gin.Context) {
			if !strings.HasPrefix(c.Request.URL.Path, "/public-api") {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"success": false,
					"error":   "Resource not found",
				})
			}
		},
		mws.APIKeyAuth,
		mws.IPAllowList,
		mws.RateLimit,
		mws.UsageLogger,
		func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Resource not found",
			})
		},
	)

	return r
}
