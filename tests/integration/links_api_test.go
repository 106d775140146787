package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
	"github.com/linkdeck/linkdeck/internal/client/api"
	"github.com/linkdeck/linkdeck/internal/client/optimistic"
	"github.com/linkdeck/linkdeck/internal/infrastructure/auth"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"github.com/linkdeck/linkdeck/internal/infrastructure/kv"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/handler"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/middleware"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/router"
)

// newTestEngine wires the HTTP surface the way the server binary does, with
// an in-memory link store. When authCfg is non-nil, mutating routes require
// a bearer token and the login endpoint is registered.
func newTestEngine(t *testing.T, authCfg *config.AuthConfig) (*gin.Engine, *linkapp.LinkService) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	repo := kv.NewMemoryLinkRepository()
	linkService := linkapp.NewLinkService(repo)
	linkHandler := handler.NewLinkHandler(linkService)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "linkdeck-test",
	})

	protect := func(c *gin.Context) { c.Next() }
	if authCfg != nil {
		protect = middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
		})
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())

	formRoutes := engine.Group("/links")
	formRoutes.POST("", protect, linkHandler.Create)
	formRoutes.POST("/:key", protect, linkHandler.Update)
	formRoutes.POST("/:key/delete", protect, linkHandler.DeleteForm)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	linkRoutes := router.NewGroup("links", "/links")
	linkRoutes.GET("", linkHandler.List)
	linkRoutes.GET("/:key", linkHandler.Get)
	linkRoutes.POST("", protect, linkHandler.Create)
	linkRoutes.PUT("/:key", protect, linkHandler.Update)
	linkRoutes.DELETE("/:key", protect, linkHandler.Delete)
	r.Register(linkRoutes)

	if authCfg != nil {
		authHandler := handler.NewAuthHandler(jwtService, *authCfg)
		authRoutes := router.NewGroup("auth", "/auth")
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
		r.Register(authRoutes)
	}

	r.Setup()

	return engine, linkService
}

// testItem implements optimistic.ItemView for the end to end flow.
type testItem struct {
	key     string
	hidden  bool
	removed bool
}

func (i *testItem) Key() string      { return i.key }
func (i *testItem) Hidden() bool     { return i.hidden }
func (i *testItem) SetHidden(h bool) { i.hidden = h }
func (i *testItem) Remove()          { i.removed = true }

func TestLinksAPI_CRUD(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	client := api.NewClient(srv.URL)
	ctx := context.Background()

	created, err := client.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/blog",
		Title: "My Blog",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-blog", created.Key)
	assert.Equal(t, "POST", created.DeleteForm.Method)
	assert.Equal(t, "/links/my-blog/delete", created.DeleteForm.Action)

	got, err := client.GetLink(ctx, "my-blog")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/blog", got.URL)

	newTitle := "My Blog v2"
	updated, err := client.UpdateLink(ctx, "my-blog", linkapp.UpdateLinkRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "My Blog v2", updated.Title)

	all, err := client.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "my-blog", all[0].Key)
}

func TestLinksAPI_GetMissingReturnsNotFound(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	client := api.NewClient(srv.URL)

	_, err := client.GetLink(context.Background(), "missing")
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestLinksAPI_FormDelete(t *testing.T) {
	engine, linkService := newTestEngine(t, nil)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	client := api.NewClient(srv.URL)
	ctx := context.Background()

	created, err := client.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/docs",
		Title: "Docs",
	})
	require.NoError(t, err)

	// Submit the form descriptor exactly as the server handed it out
	require.NoError(t, client.Do(ctx, created.DeleteForm.Method, created.DeleteForm.Action))

	// A received response counts as delivered even when it carries an error
	// status, so confirm the actual deletion through the service
	_, err = linkService.Get(ctx, created.Key)
	assert.Error(t, err)
}

func TestLinksAPI_OptimisticDeleteFlow(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	client := api.NewClient(srv.URL)
	ctx := context.Background()

	created, err := client.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/blog",
		Title: "Blog",
	})
	require.NoError(t, err)

	item := &testItem{key: created.Key}
	ctrl, err := optimistic.NewDelete(optimistic.Form{
		Action: created.DeleteForm.Action,
		Method: created.DeleteForm.Method,
	}, item, client)
	require.NoError(t, err)

	state := ctrl.Run(ctx, nil)

	assert.Equal(t, optimistic.StateRemoved, state)
	assert.True(t, item.removed)

	// The server really deleted the link
	_, err = client.GetLink(ctx, created.Key)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestLinksAPI_OptimisticDeleteRestoresOnTransportFailure(t *testing.T) {
	engine, linkService := newTestEngine(t, nil)
	srv := httptest.NewServer(engine)

	client := api.NewClient(srv.URL)
	ctx := context.Background()

	created, err := client.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/blog",
		Title: "Blog",
	})
	require.NoError(t, err)

	// Kill the server so the delete request fails at the transport level
	srv.Close()

	item := &testItem{key: created.Key}
	ctrl, err := optimistic.NewDelete(optimistic.Form{
		Action: created.DeleteForm.Action,
		Method: created.DeleteForm.Method,
	}, item, client)
	require.NoError(t, err)

	state := ctrl.Run(ctx, nil)

	assert.Equal(t, optimistic.StateVisible, state)
	assert.False(t, item.removed)
	assert.False(t, item.hidden, "item must be restored to its pre-click visibility")

	// The link survived on the server side
	link, err := linkService.Get(ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, created.Key, link.Key)
}

func TestLinksAPI_AuthProtectsMutations(t *testing.T) {
	passwordHash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	authCfg := &config.AuthConfig{
		Enabled:      true,
		Username:     "admin",
		PasswordHash: passwordHash,
	}
	engine, _ := newTestEngine(t, authCfg)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx := context.Background()

	// Without a token, creation is rejected
	anon := api.NewClient(srv.URL)
	_, err = anon.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/blog",
		Title: "Blog",
	})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// Wrong password is rejected
	_, err = anon.Login(ctx, "admin", "wrong")
	require.Error(t, err)

	// Login installs the token and mutations start working
	_, err = anon.Login(ctx, "admin", "correct-horse")
	require.NoError(t, err)

	created, err := anon.CreateLink(ctx, linkapp.CreateLinkRequest{
		URL:   "https://example.com/blog",
		Title: "Blog",
	})
	require.NoError(t, err)

	// Reads stay open to everyone
	unauthed := api.NewClient(srv.URL)
	all, err := unauthed.ListLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The form delete route is protected the same way
	err = unauthed.Do(ctx, created.DeleteForm.Method, created.DeleteForm.Action)
	// Do treats any received response as delivered, so check server state
	require.NoError(t, err)
	stillThere, err := unauthed.GetLink(ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, created.Key, stillThere.Key)
}
