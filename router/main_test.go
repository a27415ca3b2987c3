package router

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/services"
	"github.com/sahilchouksey/video-agent-api/services/agent"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/storage"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/utils/auth"
)

func newRoutedApp(t *testing.T, jwt *auth.JWTManager) *fiber.App {
	t.Helper()
	st := store.NewStore(store.NewMemoryRepository(), nil)
	dir := t.TempDir()
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Store:       st,
		ChatService: services.NewChatService(st, agent.NewOfflineRunner(), reconciler.New(reconciler.DefaultConfig())),
		Brand:       brand.NewService(storage.NewLocalStorage(dir, "/uploads"), brand.Config{}),
		JWTManager:  jwt,
		UploadDir:   dir,
	})
	return app
}

func TestRoutesAreMounted(t *testing.T) {
	app := newRoutedApp(t, nil)

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/v1/health", 200},
		{"GET", "/api/v1/sessions", 200},
		{"GET", "/api/v1/sessions/nope", 404},
		{"GET", "/api/v1/sessions/nope/transitions", 404},
		{"GET", "/api/v1/brand-profiles", 200},
		{"GET", "/api/v1/content/recent", 200},
		{"GET", "/api/v1/generated-videos", 200},
		{"GET", "/api/v1/unknown", 404},
	} {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, tc.path)
	}
}

func TestTokenRequiredToBeValidWhenSent(t *testing.T) {
	app := newRoutedApp(t, auth.NewJWTManager(auth.JWTConfig{Secret: "s3cret"}))

	req := httptest.NewRequest("POST", "/api/v1/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer forged")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// health stays public
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
