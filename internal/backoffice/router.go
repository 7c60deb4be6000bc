// Package backoffice serves the admin API on its own port: asset review,
// dispute resolution, settlement oversight, and the audit trail.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlot/auctionhouse/internal/backoffice/handler"
	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	AuthSvc       *service.AuthService
	AssetSvc      *service.AssetService
	AuctionSvc    *service.AuctionService
	SettlementSvc *service.SettlementService
	DisputeSvc    *service.DisputeService
	Store         store.Store
	Cfg           *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	assetH := handler.NewAssetAdminHandler(deps.AssetSvc, deps.AuthSvc)
	auctionH := handler.NewAuctionAdminHandler(deps.AuctionSvc, deps.SettlementSvc, deps.AuthSvc)
	disputeH := handler.NewDisputeAdminHandler(deps.DisputeSvc, deps.AuthSvc)
	auditH := handler.NewAuditHandler(deps.Store)

	jwtMW := adminJWTMiddleware(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(jwtMW)
	{
		// Assets
		a := admin.Group("/assets")
		{
			a.GET("", assetH.List)
			a.POST("/:id/approve", assetH.Approve)
			a.POST("/:id/reject", assetH.Reject)
		}

		// Auctions
		au := admin.Group("/auctions")
		{
			au.GET("", auctionH.List)
			au.GET("/:id", auctionH.Get)
			au.POST("/:id/settle", auctionH.Settle)
		}

		// Disputes
		d := admin.Group("/disputes")
		{
			d.GET("", disputeH.List)
			d.POST("/:id/resolve", disputeH.Resolve)
		}

		// Audit trail
		admin.GET("/audit", auditH.List)
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !allowed[clientIP] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the caller to hold a
// back-office role (admin, ops, readonly).
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		backofficeRoles := map[string]bool{
			"admin":    true,
			"ops":      true,
			"readonly": true,
		}
		if !backofficeRoles[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
