package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlot/auctionhouse/internal/api/handler"
	"github.com/openlot/auctionhouse/internal/api/middleware"
	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/notify"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc    *service.AuthService
	AssetSvc   *service.AssetService
	AuctionSvc *service.AuctionService
	BidSvc     *service.BidService
	WalletSvc  *service.WalletService
	DisputeSvc *service.DisputeService
	Notifier   *notify.Worker
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	userH := handler.NewUserHandler(deps.AuthSvc)
	auctionH := handler.NewAuctionHandler(deps.AssetSvc, deps.AuctionSvc, deps.BidSvc)
	bidH := handler.NewBidHandler(deps.BidSvc)
	walletH := handler.NewWalletHandler(deps.WalletSvc, deps.Notifier)
	disputeH := handler.NewDisputeHandler(deps.DisputeSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for auth endpoints
	bidRL := middleware.RateLimitMiddleware(30)  // 30 req/s per IP for bid endpoints

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", userH.Register)
			auth.POST("/login", userH.Login)
			auth.POST("/refresh", userH.Refresh)
		}

		// ── Auctions (public reads) ──────────────────────────────────────────
		auctions := api.Group("/auctions")
		{
			auctions.GET("", auctionH.ListAuctions)
			auctions.GET("/:id", auctionH.GetAuction)
			auctions.GET("/:id/bids", auctionH.ListAuctionBids)
		}

		// ── Assets (public reads) ────────────────────────────────────────────
		api.GET("/assets/:id", auctionH.GetAsset)

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			authed.GET("/me", userH.Me)

			// Asset submission and auction lifecycle
			authed.POST("/assets", auctionH.CreateAsset)
			authed.POST("/auctions", auctionH.CreateAuction)
			authed.POST("/auctions/:id/cancel", auctionH.CancelAuction)

			// Bids
			bids := authed.Group("/bids")
			bids.Use(bidRL)
			{
				bids.POST("", bidH.PlaceBid)
			}

			// Wallet
			wallet := authed.Group("/wallet")
			{
				wallet.GET("/balance", walletH.GetBalance)
				wallet.POST("/deposit", walletH.Deposit)
				wallet.GET("/entries", walletH.GetEntries)
			}
			authed.GET("/notifications", walletH.GetNotifications)

			// Disputes
			disputes := authed.Group("/disputes")
			{
				disputes.POST("", disputeH.RaiseDispute)
				disputes.GET("/:id", disputeH.GetDispute)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured ones.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() || len(allowed) == 0 {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
