package router

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers exposed under /api/v1
type Handlers struct {
	System       *handler.SystemHandler
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Building     *handler.BuildingHandler
	Activity     *handler.ActivityHandler
	Organization *handler.OrganizationHandler
	Export       *handler.ExportHandler
}

// Guards holds the per-group middleware. Authenticated must start with the
// bearer token check; Superuser runs after it. LoginLimit is optional.
type Guards struct {
	Authenticated []gin.HandlerFunc
	Superuser     gin.HandlerFunc
	LoginLimit    gin.HandlerFunc
}

func chain(handlers ...[]gin.HandlerFunc) []gin.HandlerFunc {
	var out []gin.HandlerFunc
	for _, h := range handlers {
		out = append(out, h...)
	}
	return out
}

// DirectoryRoutes returns the route groups of the directory API. The API key
// check is applied once at router level, see Router.Use.
func DirectoryRoutes(h Handlers, g Guards) []RouteRegistrar {
	superuser := chain(g.Authenticated, []gin.HandlerFunc{g.Superuser})

	authGroup := NewDomainGroup("auth", "/auth")
	login := []gin.HandlerFunc{h.Auth.Login}
	if g.LoginLimit != nil {
		login = append([]gin.HandlerFunc{g.LoginLimit}, login...)
	}
	authGroup.POST("/jwt/login", login...)
	authGroup.POST("/jwt/logout", chain(g.Authenticated, []gin.HandlerFunc{h.Auth.Logout})...)
	authGroup.POST("/register", h.Auth.Register)

	// /users/me is open to any authenticated user, /users/:id only to superusers.
	users := NewDomainGroup("users", "/users")
	users.Use(g.Authenticated...)
	users.GET("/me", h.User.Me)
	users.PATCH("/me", h.User.UpdateMe)
	users.GET("/:id", g.Superuser, h.User.Get)
	users.PATCH("/:id", g.Superuser, h.User.Update)
	users.DELETE("/:id", g.Superuser, h.User.Delete)

	buildings := NewDomainGroup("buildings", "/buildings")
	buildings.GET("", h.Building.List)
	buildings.POST("", h.Building.Create)
	buildings.GET("/:id", h.Building.Get)
	buildings.PATCH("/:id", h.Building.Update)
	buildings.DELETE("/:id", h.Building.Delete)

	activities := NewDomainGroup("activities", "/activities")
	activities.GET("", h.Activity.List)
	activities.POST("", h.Activity.Create)
	activities.GET("/tree", h.Activity.Tree)
	activities.GET("/:id", h.Activity.Get)
	activities.PATCH("/:id", h.Activity.Update)
	activities.DELETE("/:id", h.Activity.Delete)

	organizations := NewDomainGroup("organizations", "/organizations")
	organizations.POST("", h.Organization.Create)
	organizations.GET("/search", h.Organization.Search)
	organizations.GET("/by_location", h.Organization.ListByLocation)
	organizations.GET("/by_building/:building_id", h.Organization.ListByBuilding)
	organizations.GET("/by_activity/:activity_id", h.Organization.ListByActivity)
	organizations.GET("/by_activity_tree/:activity_id", h.Organization.ListByActivityTree)
	organizations.GET("/:id", h.Organization.Get)
	organizations.PATCH("/:id", h.Organization.Update)
	organizations.DELETE("/:id", h.Organization.Delete)

	exports := NewDomainGroup("exports", "/exports")
	exports.POST("/snapshot", chain(superuser, []gin.HandlerFunc{h.Export.Snapshot})...)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{authGroup, users, buildings, activities, organizations, exports, system}
}
