package router

import (
	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/interfaces/http/handler"
)

// Handlers holds every API handler the portal exposes
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Wallet    *handler.WalletHandler
	Catalog   *handler.CatalogHandler
	Order     *handler.OrderHandler
	Payment   *handler.PaymentHandler
	Claim     *handler.ClaimHandler
	Tutorial  *handler.TutorialHandler
	Audit     *handler.AuditHandler
	Dashboard *handler.DashboardHandler
	Job       *handler.JobHandler
	System    *handler.SystemHandler
}

// Guards are the middleware chains placed in front of each audience.
//
// Public resolves the tenant from the X-Tenant-ID header or the default.
// Member authenticates the bearer token and then resolves the tenant from
// its claims. Admin runs after Member. AuthLimit throttles the credential
// endpoints and may be nil.
type Guards struct {
	Public    []gin.HandlerFunc
	Member    []gin.HandlerFunc
	Admin     []gin.HandlerFunc
	AuthLimit gin.HandlerFunc
}

// PortalRoutes returns the /api/v1 route table
func PortalRoutes(h Handlers, g Guards) []RouteRegistrar {
	system := NewDomainGroup("system", "")
	system.GET("/ping", h.System.Ping)
	system.GET("/system/info", h.System.Info)

	authPublic := NewDomainGroup("auth", "/auth").Use(g.Public...).Use(g.AuthLimit)
	authPublic.POST("/register", h.Auth.Register)
	authPublic.POST("/login", h.Auth.Login)
	authPublic.POST("/refresh", h.Auth.Refresh)

	authMember := NewDomainGroup("auth-session", "/auth").Use(g.Member...)
	authMember.POST("/logout", h.Auth.Logout)

	catalog := NewDomainGroup("catalog", "/catalog").Use(g.Public...)
	catalog.GET("/products", h.Catalog.List)
	catalog.GET("/products/:id", h.Catalog.Get)

	tutorials := NewDomainGroup("tutorials", "/tutorials").Use(g.Public...)
	tutorials.GET("", h.Tutorial.List)
	tutorials.GET("/:slug", h.Tutorial.GetBySlug)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("/tripay/callback", h.Payment.Callback)
	paymentInfo := payments.Group("payment-info", "").Use(g.Public...)
	paymentInfo.GET("/channels", h.Payment.Channels)
	paymentInfo.GET("/fee", h.Payment.Fee)

	return []RouteRegistrar{
		system,
		authPublic,
		authMember,
		catalog,
		tutorials,
		payments,
		memberRoutes(h, g),
		adminRoutes(h, g),
	}
}

func memberRoutes(h Handlers, g Guards) *DomainGroup {
	member := NewDomainGroup("member", "").Use(g.Member...)

	member.GET("/me", h.User.Me)
	member.PUT("/me", h.User.UpdateMe)
	member.PUT("/me/password", h.User.ChangePassword)

	member.GET("/wallet", h.Wallet.GetMine)
	member.GET("/wallet/transactions", h.Wallet.ListMyTransactions)

	member.POST("/orders", h.Order.Purchase)
	member.GET("/orders", h.Order.ListMine)
	member.GET("/orders/:id", h.Order.GetMine)

	member.POST("/topups", h.Payment.CreateTopUp)
	member.GET("/topups", h.Payment.ListMine)
	member.GET("/topups/:id", h.Payment.GetMine)
	member.POST("/topups/:id/sync", h.Payment.Sync)

	member.POST("/claims/evidence-url", h.Claim.PresignEvidence)
	member.POST("/claims", h.Claim.Submit)
	member.GET("/claims", h.Claim.ListMine)
	member.GET("/claims/:id", h.Claim.GetMine)

	return member
}

func adminRoutes(h Handlers, g Guards) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin").Use(g.Member...).Use(g.Admin...)

	admin.GET("/dashboard", h.Dashboard.Stats)
	admin.GET("/audit-logs", h.Audit.List)

	users := admin.Group("users", "/users")
	users.GET("", h.User.List)
	users.GET("/:id", h.User.Get)
	users.PUT("/:id/status", h.User.SetStatus)
	users.PUT("/:id/role", h.User.SetRole)

	wallets := admin.Group("wallets", "/wallets")
	wallets.POST("/adjust", h.Wallet.Adjust)
	wallets.GET("/:userId", h.Wallet.GetForUser)
	wallets.GET("/:userId/transactions", h.Wallet.ListForUser)

	products := admin.Group("products", "/products")
	products.GET("", h.Catalog.AdminList)
	products.POST("", h.Catalog.Create)
	products.GET("/:id", h.Catalog.AdminGet)
	products.PUT("/:id", h.Catalog.Update)
	products.PUT("/:id/status", h.Catalog.SetStatus)
	products.DELETE("/:id", h.Catalog.Delete)
	products.POST("/:id/stock", h.Catalog.AddStock)
	products.GET("/:id/stock", h.Catalog.ListStock)

	stock := admin.Group("stock", "/stock")
	stock.POST("/:itemId/revoke", h.Catalog.RevokeStock)

	orders := admin.Group("orders", "/orders")
	orders.GET("", h.Order.AdminList)
	orders.GET("/:id", h.Order.AdminGet)

	topups := admin.Group("topups", "/topups")
	topups.GET("", h.Payment.AdminList)

	admin.POST("/payments/channels/refresh", h.Payment.RefreshChannels)

	jobs := admin.Group("jobs", "/jobs")
	jobs.GET("", h.Job.List)
	jobs.POST("/:name/run", h.Job.Run)

	claims := admin.Group("claims", "/claims")
	claims.GET("", h.Claim.AdminList)
	claims.GET("/:id", h.Claim.AdminGet)
	claims.POST("/:id/approve", h.Claim.Approve)
	claims.POST("/:id/reject", h.Claim.Reject)

	tutorials := admin.Group("tutorials", "/tutorials")
	tutorials.GET("", h.Tutorial.AdminList)
	tutorials.POST("", h.Tutorial.Create)
	tutorials.GET("/:id", h.Tutorial.AdminGet)
	tutorials.PUT("/:id", h.Tutorial.Update)
	tutorials.PUT("/:id/published", h.Tutorial.SetPublished)
	tutorials.DELETE("/:id", h.Tutorial.Delete)

	return admin
}
