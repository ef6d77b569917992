package webserver

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/config"
	"github.com/dupelab/dupelab-api/src/api/membership"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(cfg.JWTSecret)
	authH := NewAuth(db, rdb, secret, cfg.TokenTTL())
	usersH := Users{db: db}
	perfumesH := Perfumes{db: db}
	proposalsH := Proposals{db: db, rdb: rdb}
	groupsH := Groups{db: db}
	expeditionsH := Expeditions{db: db}
	storesH := Stores{db: db}
	pricesH := Prices{db: db}
	votesH := Votes{db: db}
	adminH := Admin{db: db}

	editors := []membership.Role{membership.RoleOwner, membership.RoleEditor}
	contributors := []membership.Role{membership.RoleOwner, membership.RoleEditor, membership.RoleMember}

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/google", authH.Google)

	// Catalog reads work anonymously; a token widens what moderators see.
	browse := v1.Group("", OptionalJWT(secret, rdb))
	{
		browse.GET("/perfumes", perfumesH.Search)
		browse.GET("/perfumes/brands", perfumesH.Brands)
		browse.GET("/perfumes/tags/popular", perfumesH.PopularTags)
		browse.GET("/perfumes/slug/:slug", perfumesH.GetBySlug)
		browse.GET("/perfumes/:id", perfumesH.Get)
		browse.GET("/perfumes/:id/dupes", perfumesH.Dupes)
		browse.GET("/perfumes/:id/votes", votesH.ForPerfume)
		browse.GET("/groups/public/:slug", groupsH.Public)
	}

	secured := v1.Group("", JWTMiddleware(secret, rdb))
	{
		secured.GET("/auth/me", authH.Me)
		secured.POST("/auth/logout", authH.Logout)
		secured.POST("/auth/refresh", authH.Refresh)

		secured.GET("/users/:id", usersH.Get)
		secured.PATCH("/users/me", usersH.UpdateMe)

		secured.POST("/perfumes", perfumesH.Submit)
		secured.PUT("/perfumes/:id/votes", votesH.Cast)
		secured.DELETE("/perfumes/:id/votes", votesH.Delete)
		secured.GET("/perfumes/:id/votes/mine", votesH.MineForPerfume)
		secured.GET("/votes/mine", votesH.Mine)

		secured.POST("/proposals", proposalsH.Submit)
		secured.GET("/proposals/mine", proposalsH.Mine)
		secured.GET("/proposals/:id", proposalsH.Get)

		secured.POST("/groups", groupsH.Create)
		secured.GET("/groups", groupsH.Mine)
		secured.POST("/groups/join", groupsH.Join)

		secured.POST("/expeditions", expeditionsH.Create)
		secured.GET("/expeditions", expeditionsH.Mine)
	}

	// Group-scoped routes: the gate resolves the caller's role from the :id
	// segment and rejects non-members before the handler runs.
	group := secured.Group("/groups/:id")
	{
		group.GET("", membership.RequireGroup(db), groupsH.Get)
		group.PATCH("", membership.RequireGroup(db, membership.RoleOwner), groupsH.Update)
		group.DELETE("", membership.RequireGroup(db, membership.RoleOwner), groupsH.Delete)
		group.POST("/invite-code", membership.RequireGroup(db, membership.RoleOwner), groupsH.RegenerateCode)

		group.GET("/members", membership.RequireGroup(db), groupsH.Members)
		group.POST("/members", membership.RequireGroup(db, editors...), groupsH.AddMember)
		group.PATCH("/members/:userId", membership.RequireGroup(db, membership.RoleOwner), groupsH.UpdateMemberRole)
		group.DELETE("/members/:userId", membership.RequireGroup(db, membership.RoleOwner), groupsH.RemoveMember)
		group.POST("/leave", membership.RequireGroup(db), groupsH.Leave)

		group.GET("/expeditions", membership.RequireGroup(db), expeditionsH.ByGroup)

		group.GET("/stores", membership.RequireGroup(db), storesH.List)
		group.POST("/stores", membership.RequireGroup(db, editors...), storesH.Create)
		group.PATCH("/stores/:storeId", membership.RequireGroup(db, editors...), storesH.Update)
		group.DELETE("/stores/:storeId", membership.RequireGroup(db, editors...), storesH.Delete)

		group.GET("/prices", membership.RequireGroup(db), pricesH.List)
		group.PUT("/prices", membership.RequireGroup(db, contributors...), pricesH.Upsert)
		group.DELETE("/prices/:priceId", membership.RequireGroup(db, editors...), pricesH.Delete)
		group.GET("/perfumes/:perfumeId/prices", membership.RequireGroup(db), pricesH.ForPerfume)
		group.GET("/perfumes/:perfumeId/prices/lowest", membership.RequireGroup(db), pricesH.Lowest)
		group.GET("/perfumes/:perfumeId/history", membership.RequireGroup(db), pricesH.History)

		group.GET("/votes", membership.RequireGroup(db), votesH.GroupFeed)
		group.PUT("/perfumes/:perfumeId/votes", membership.RequireGroup(db, contributors...), votesH.CastGroup)
		group.DELETE("/perfumes/:perfumeId/votes", membership.RequireGroup(db, contributors...), votesH.DeleteGroup)
	}

	expedition := secured.Group("/expeditions/:id")
	{
		expedition.GET("", membership.RequireExpedition(db), expeditionsH.Get)
		expedition.PATCH("", membership.RequireExpedition(db, editors...), expeditionsH.Update)
		expedition.DELETE("", membership.RequireExpedition(db, membership.RoleOwner), expeditionsH.Delete)

		expedition.GET("/members", membership.RequireExpedition(db), expeditionsH.Members)
		expedition.POST("/members", membership.RequireExpedition(db, membership.RoleOwner), expeditionsH.AddMember)
		expedition.DELETE("/members/:userId", membership.RequireExpedition(db, membership.RoleOwner), expeditionsH.RemoveMember)

		expedition.GET("/items", membership.RequireExpedition(db), expeditionsH.Items)
		expedition.POST("/items", membership.RequireExpedition(db, editors...), expeditionsH.AddItem)
		expedition.PATCH("/items/:itemId", membership.RequireExpedition(db, editors...), expeditionsH.UpdateItemStatus)
		expedition.DELETE("/items/:itemId", membership.RequireExpedition(db, editors...), expeditionsH.RemoveItem)

		expedition.GET("/items/:itemId/notes", membership.RequireExpedition(db), expeditionsH.ItemNotes)
		expedition.POST("/items/:itemId/notes", membership.RequireExpedition(db, editors...), expeditionsH.AddItemNote)
		expedition.DELETE("/items/:itemId/notes/:noteId", membership.RequireExpedition(db, editors...), expeditionsH.RemoveItemNote)
	}

	mod := secured.Group("", ModeratorOnly())
	{
		mod.GET("/proposals/pending", proposalsH.ListPending)
		mod.POST("/proposals/:id/approve", proposalsH.Approve)
		mod.POST("/proposals/:id/reject", proposalsH.Reject)

		mod.PATCH("/perfumes/:id", perfumesH.Update)
		mod.DELETE("/perfumes/:id", perfumesH.Delete)
		mod.POST("/perfumes/:id/approve", perfumesH.Approve)
		mod.POST("/perfumes/:id/reject", perfumesH.Reject)
		mod.POST("/perfumes/:id/tags", perfumesH.AddTag)
		mod.DELETE("/perfumes/:id/tags/:tag", perfumesH.RemoveTag)
		mod.POST("/perfumes/:id/urls", perfumesH.AddURL)
		mod.DELETE("/perfumes/:id/urls/:urlId", perfumesH.RemoveURL)

		mod.GET("/admin/users", adminH.ListUsers)
		mod.PATCH("/admin/users/:id/moderator", adminH.SetModerator)
		mod.GET("/admin/settings", adminH.ListSettings)
		mod.PATCH("/admin/settings/:name", adminH.UpdateSetting)
	}
}
