package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(NewDomainGroup("buildings", "/buildings").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "v2 buildings")
	}))
	r.Setup()

	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v2/buildings").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/buildings").Code)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(NewDomainGroup("buildings", "/buildings"))
	assert.Len(t, r.registrars, 1)

	r.Register(
		NewDomainGroup("activities", "/activities"),
		NewDomainGroup("organizations", "/organizations"),
	)
	assert.Len(t, r.registrars, 3)

	r.Register()
	assert.Len(t, r.registrars, 3)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	t.Run("guards every registered group", func(t *testing.T) {
		engine := gin.New()
		denyAll := func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		}

		r := NewRouter(engine).Use(denyAll)
		r.Register(
			NewDomainGroup("buildings", "/buildings").GET("", func(c *gin.Context) { c.String(http.StatusOK, "b") }),
			NewDomainGroup("activities", "/activities").GET("", func(c *gin.Context) { c.String(http.StatusOK, "a") }),
		).Setup()

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/buildings").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/activities").Code)
	})

	t.Run("leaves routes outside the api prefix alone", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		NewRouter(engine).
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }).
			Register(NewDomainGroup("buildings", "/buildings").GET("", func(c *gin.Context) {})).
			Setup()

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	})

	t.Run("runs router middleware before group middleware", func(t *testing.T) {
		engine := gin.New()
		var order []string

		group := NewDomainGroup("organizations", "/organizations").
			Use(func(c *gin.Context) {
				order = append(order, "group")
				c.Next()
			}).
			GET("", func(c *gin.Context) {
				order = append(order, "handler")
				c.Status(http.StatusOK)
			})

		NewRouter(engine).
			Use(func(c *gin.Context) {
				order = append(order, "router")
				c.Next()
			}).
			Register(group).
			Setup()

		require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/organizations").Code)
		assert.Equal(t, []string{"router", "group", "handler"}, order)
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("directory", "/organizations")
		assert.Equal(t, "directory", g.Name())
		assert.Equal(t, "/organizations", g.Prefix())
	})

	methods := []struct {
		method   string
		register func(g *DomainGroup, path string, handlers ...gin.HandlerFunc) *DomainGroup
		path     string
		request  string
		status   int
	}{
		{http.MethodGet, (*DomainGroup).GET, "/items", "/api/v1/test/items", http.StatusOK},
		{http.MethodPost, (*DomainGroup).POST, "/items", "/api/v1/test/items", http.StatusCreated},
		{http.MethodPut, (*DomainGroup).PUT, "/items/:id", "/api/v1/test/items/123", http.StatusOK},
		{http.MethodPatch, (*DomainGroup).PATCH, "/items/:id", "/api/v1/test/items/123", http.StatusOK},
		{http.MethodDelete, (*DomainGroup).DELETE, "/items/:id", "/api/v1/test/items/123", http.StatusNoContent},
	}
	for _, m := range methods {
		t.Run("registers "+m.method+" route", func(t *testing.T) {
			engine := gin.New()
			g := NewDomainGroup("test", "/test")
			status := m.status
			m.register(g, m.path, func(c *gin.Context) {
				c.Status(status)
			})

			g.RegisterRoutes(engine.Group("/api/v1"))

			assert.Equal(t, m.status, serve(engine, m.method, m.request).Code)
		})
	}

	t.Run("chains several handlers on one route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("exports", "/exports")
		g.POST("/snapshot",
			func(c *gin.Context) { c.Header("X-Guard", "passed"); c.Next() },
			func(c *gin.Context) { c.Status(http.StatusCreated) },
		)
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodPost, "/api/v1/exports/snapshot")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "passed", w.Header().Get("X-Guard"))
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")

		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("keeps group middleware local to the group", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)

		users := NewDomainGroup("users", "/users").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
			GET("/1", func(c *gin.Context) { c.Status(http.StatusOK) })
		buildings := NewDomainGroup("buildings", "/buildings").
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

		r.Register(users, buildings).Setup()

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/users/1").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/buildings").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("organizations", "/organizations")

		byBuilding := g.Group("by_building", "/by_building")
		byBuilding.GET("/:building_id", func(c *gin.Context) {
			c.String(http.StatusOK, "building "+c.Param("building_id"))
		})

		byActivity := g.Group("by_activity", "/by_activity")
		byActivity.GET("/:activity_id", func(c *gin.Context) {
			c.String(http.StatusOK, "activity "+c.Param("activity_id"))
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w1 := serve(engine, http.MethodGet, "/api/v1/organizations/by_building/2")
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "building 2", w1.Body.String())

		w2 := serve(engine, http.MethodGet, "/api/v1/organizations/by_activity/7")
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "activity 7", w2.Body.String())
	})

	t.Run("subgroups inherit parent middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("users", "/users").Use(func(c *gin.Context) {
			c.Header("X-Parent", "yes")
			c.Next()
		})
		g.Group("me", "/me").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/users/me")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Parent"))
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	buildings := NewDomainGroup("buildings", "/buildings")
	buildings.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "buildings")
	})

	activities := NewDomainGroup("activities", "/activities")
	activities.GET("/tree", func(c *gin.Context) {
		c.String(http.StatusOK, "tree")
	})

	r.Register(buildings).Register(activities)
	r.Setup()

	w1 := serve(engine, http.MethodGet, "/api/v1/buildings")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "buildings", w1.Body.String())

	w2 := serve(engine, http.MethodGet, "/api/v1/activities/tree")
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "tree", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		PUT("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") }).
		PATCH("/d", func(c *gin.Context) { c.String(http.StatusOK, "d") }).
		DELETE("/e", func(c *gin.Context) { c.String(http.StatusOK, "e") })

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/test/a"},
		{http.MethodPost, "/api/v1/test/b"},
		{http.MethodPut, "/api/v1/test/c"},
		{http.MethodPatch, "/api/v1/test/d"},
		{http.MethodDelete, "/api/v1/test/e"},
	}

	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}
