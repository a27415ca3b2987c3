package brand

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/video-agent-api/model"
	brandsvc "github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/services/workflow"
	"github.com/sahilchouksey/video-agent-api/utils/response"
	"github.com/sahilchouksey/video-agent-api/utils/validation"
)

// BrandHandler manages a session's brand and the saved profile library
type BrandHandler struct {
	store     *store.Store
	brand     *brandsvc.Service
	validator *validation.Validator
}

func NewBrandHandler(st *store.Store, svc *brandsvc.Service) *BrandHandler {
	return &BrandHandler{store: st, brand: svc, validator: validation.NewValidator()}
}

type SaveProfileRequest struct {
	Name  string              `json:"name" validate:"notblank,max=255"`
	Brand *model.BrandProfile `json:"brand"`
	// SessionID saves that session's brand under Name instead of Brand
	SessionID string `json:"session_id" validate:"required_without=Brand"`
}

// UpdateMarketingContext godoc
// PUT /api/v1/sessions/:id/brand/marketing-context
func (h *BrandHandler) UpdateMarketingContext(c *fiber.Ctx) error {
	var mc model.MarketingContext
	if err := c.BodyParser(&mc); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	sess.Brand.MarketingContext = mc
	if sess.Brand.Overview == "" {
		sess.Brand.Overview = mc.CompanyOverview
	}
	enterBrandSetup(sess)

	if err := h.store.Update(c.UserContext(), sess); err != nil {
		return storeError(c, err)
	}
	return response.Success(c, fiber.Map{
		"marketing_context": sess.Brand.MarketingContext,
		"complete":          sess.Brand.MarketingContext.IsComplete(),
	})
}

// UploadImage godoc
// POST /api/v1/sessions/:id/brand/images (multipart: file, usage_intent)
func (h *BrandHandler) UploadImage(c *fiber.Ctx) error {
	filename, data, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	intent := model.ParseImageIntent(c.FormValue("usage_intent"))
	var img *model.UploadedImage
	if intent == model.IntentLogoBadge {
		img, err = h.brand.StoreLogo(c.UserContext(), &sess.Brand, sess.SessionID, filename, data)
	} else {
		img, err = h.brand.StoreImage(c.UserContext(), sess.SessionID, filename, data, string(intent))
		if err == nil {
			sess.Brand.UserImages = append(sess.Brand.UserImages, *img)
		}
	}
	if err != nil {
		return uploadError(c, err)
	}
	enterBrandSetup(sess)

	if err := h.store.Update(c.UserContext(), sess); err != nil {
		return storeError(c, err)
	}
	return response.Created(c, img)
}

// UploadDocument godoc
// POST /api/v1/sessions/:id/brand/documents (multipart: file)
func (h *BrandHandler) UploadDocument(c *fiber.Ctx) error {
	filename, data, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	doc, err := h.brand.StoreDocument(c.UserContext(), &sess.Brand, sess.SessionID, filename, data)
	if err != nil {
		return uploadError(c, err)
	}
	enterBrandSetup(sess)

	if err := h.store.Update(c.UserContext(), sess); err != nil {
		return storeError(c, err)
	}
	return response.Created(c, doc)
}

// SaveProfile godoc
// POST /api/v1/brand-profiles
func (h *BrandHandler) SaveProfile(c *fiber.Ctx) error {
	var req SaveProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var profile model.BrandProfile
	if req.Brand != nil {
		profile = *req.Brand
	} else {
		sess, err := h.store.Get(c.UserContext(), req.SessionID)
		if err != nil {
			return storeError(c, err)
		}
		profile = sess.Brand
	}
	profile.Name = strings.TrimSpace(req.Name)

	id, err := h.store.SaveProfile(c.UserContext(), profile)
	if err != nil {
		return storeError(c, err)
	}
	log.Printf("[Brand] saved profile %q (id %d)", profile.Name, id)
	return response.Created(c, profile)
}

// ListProfiles godoc
// GET /api/v1/brand-profiles
func (h *BrandHandler) ListProfiles(c *fiber.Ctx) error {
	profiles, err := h.store.ListProfiles(c.UserContext())
	if err != nil {
		return storeError(c, err)
	}
	return response.Success(c, profiles)
}

// GetProfile godoc
// GET /api/v1/brand-profiles/:name
func (h *BrandHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.UserContext(), c.Params("name"))
	if err != nil {
		return storeError(c, err)
	}
	return response.Success(c, profile)
}

// LoadProfile godoc
// POST /api/v1/sessions/:id/brand/profile/:name
func (h *BrandHandler) LoadProfile(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.UserContext(), c.Params("name"))
	if err != nil {
		return storeError(c, err)
	}
	sess, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	sess.Brand = *profile
	enterBrandSetup(sess)
	if err := h.store.Update(c.UserContext(), sess); err != nil {
		return storeError(c, err)
	}
	return response.Success(c, sess)
}

// enterBrandSetup starts the brand stage for a fresh session
func enterBrandSetup(sess *model.Session) {
	if sess.Stage != model.StageStart {
		return
	}
	if err := workflow.Advance(sess, model.StageBrandSetup); err != nil {
		log.Printf("[Workflow] session %s: %v", sess.SessionID, err)
	}
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, brandsvc.ErrEmptyFile
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, errors.New("failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.New("failed to read uploaded file")
	}
	return fh.Filename, data, nil
}

func uploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, brandsvc.ErrFileTooLarge):
		return response.Error(c, fiber.StatusRequestEntityTooLarge, err.Error(), "FILE_TOO_LARGE")
	case errors.Is(err, brandsvc.ErrEmptyFile),
		errors.Is(err, brandsvc.ErrUnsupportedType),
		errors.Is(err, brandsvc.ErrImageTooLarge),
		errors.Is(err, brandsvc.ErrInvalidImage),
		errors.Is(err, brandsvc.ErrTooManyPages),
		errors.Is(err, brandsvc.ErrNoText):
		return response.BadRequest(c, err.Error())
	default:
		log.Printf("[Brand] upload failed: %v", err)
		return response.InternalServerError(c, "Failed to process upload")
	}
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return response.NotFound(c, "Session not found")
	case errors.Is(err, store.ErrProfileNotFound):
		return response.NotFound(c, "Brand profile not found")
	default:
		log.Printf("[Brand] store request failed: %v", err)
		return response.InternalServerError(c, "Failed to access brand data")
	}
}
