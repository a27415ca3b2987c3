package brand

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/model"
	brandsvc "github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/storage"
	"github.com/sahilchouksey/video-agent-api/services/store"
)

func newBrandApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	st := store.NewStore(store.NewMemoryRepository(), nil)
	svc := brandsvc.NewService(storage.NewLocalStorage(t.TempDir(), "/uploads"), brandsvc.Config{})
	h := NewBrandHandler(st, svc)

	app := fiber.New()
	app.Put("/sessions/:id/brand/marketing-context", h.UpdateMarketingContext)
	app.Post("/sessions/:id/brand/images", h.UploadImage)
	app.Post("/sessions/:id/brand/documents", h.UploadDocument)
	app.Post("/sessions/:id/brand/profile/:name", h.LoadProfile)
	app.Post("/brand-profiles", h.SaveProfile)
	app.Get("/brand-profiles", h.ListProfiles)
	app.Get("/brand-profiles/:name", h.GetProfile)

	_, err := st.Create(context.Background(), "s-1", "default_user")
	require.NoError(t, err)
	return app, st
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 220, G: 20, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadImageAddsUserImage(t *testing.T) {
	app, st := newBrandApp(t)

	up := multipartUpload(t, "/sessions/s-1/brand/images", "hero.png", redPNG(t), map[string]string{"usage_intent": "product_focus"})
	status, body := send(t, app, up)
	require.Equal(t, fiber.StatusCreated, status, body)

	sess, err := st.Get(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, sess.Brand.UserImages, 1)
	img := sess.Brand.UserImages[0]
	assert.Equal(t, model.IntentProductFocus, img.UsageIntent)
	assert.True(t, strings.HasPrefix(img.URL, "/uploads/"))
	assert.NotEmpty(t, img.ExtractedColors)
	assert.Equal(t, model.StageBrandSetup, sess.Stage)
}

func TestUploadLogoSetsBrandColors(t *testing.T) {
	app, st := newBrandApp(t)

	up := multipartUpload(t, "/sessions/s-1/brand/images", "logo.png", redPNG(t), map[string]string{"usage_intent": "logo_badge"})
	status, _ := send(t, app, up)
	require.Equal(t, fiber.StatusCreated, status)

	sess, err := st.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Brand.LogoPath)
	assert.NotEmpty(t, sess.Brand.Colors)
	assert.Empty(t, sess.Brand.UserImages)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	app, _ := newBrandApp(t)

	up := multipartUpload(t, "/sessions/s-1/brand/images", "notes.txt", []byte("just some text"), nil)
	status, _ := send(t, app, up)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = send(t, app, jsonRequest("POST", "/sessions/s-1/brand/images", `{}`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	up = multipartUpload(t, "/sessions/missing/brand/images", "hero.png", redPNG(t), nil)
	status, _ = send(t, app, up)
	assert.Equal(t, fiber.StatusNotFound, status)

	up = multipartUpload(t, "/sessions/s-1/brand/documents", "brief.png", redPNG(t), nil)
	status, _ = send(t, app, up)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMarketingContextAndProfiles(t *testing.T) {
	app, st := newBrandApp(t)

	status, body := send(t, app, jsonRequest("PUT", "/sessions/s-1/brand/marketing-context",
		`{"company_overview":"We roast coffee","target_audience":"commuters","products_services":"beans","marketing_goals":["awareness"]}`))
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["data"].(map[string]any)["complete"])

	sess, err := st.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "We roast coffee", sess.Brand.Overview)

	status, _ = send(t, app, jsonRequest("POST", "/brand-profiles", `{"name":"BeanCo","session_id":"s-1"}`))
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = send(t, app, jsonRequest("POST", "/brand-profiles", `{"name":""}`))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, body = send(t, app, jsonRequest("GET", "/brand-profiles/BeanCo", ""))
	require.Equal(t, 200, status)
	assert.Equal(t, "BeanCo", body["data"].(map[string]any)["name"])

	status, body = send(t, app, jsonRequest("GET", "/brand-profiles", ""))
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 1)

	_, err = st.Create(context.Background(), "s-2", "default_user")
	require.NoError(t, err)
	status, _ = send(t, app, jsonRequest("POST", "/sessions/s-2/brand/profile/BeanCo", ""))
	require.Equal(t, 200, status)

	loaded, err := st.Get(context.Background(), "s-2")
	require.NoError(t, err)
	assert.Equal(t, "BeanCo", loaded.Brand.Name)
	assert.Equal(t, "We roast coffee", loaded.Brand.MarketingContext.CompanyOverview)

	status, _ = send(t, app, jsonRequest("GET", "/brand-profiles/Nobody", ""))
	assert.Equal(t, fiber.StatusNotFound, status)
}
