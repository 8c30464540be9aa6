package controllers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/ingestion"
	"github.com/ufsoft/screener/internal/pkg/metrics"
	"github.com/ufsoft/screener/internal/pkg/session"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// FieldTOS is the terms of service checkbox unconfirmed users must tick.
const FieldTOS = "tos"

var errTOSRequired = errors.New("you must accept the terms of service")

// sessionGranter stores capabilities in the requesting session.
type sessionGranter struct {
	c *fiber.Ctx
}

func (g sessionGranter) Grant(imageID string) error {
	_, err := session.GrantCapability(g.c, imageID, deps.Config.App.Secret, deps.Config.Visibility.CapabilityLimit)
	return err
}

// HandleUploadForm describes the upload form, optionally preset to a
// category.
func HandleUploadForm(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	body := fiber.Map{
		"fields": []string{
			ingestion.FieldFile, ingestion.FieldCategoryName, ingestion.FieldCategoryDescription,
			ingestion.FieldCategoryPrivate, ingestion.FieldDescription, ingestion.FieldPrivate,
			ingestion.FieldAdultContent, ingestion.FieldWatermarkText, ingestion.FieldMultiple,
		},
		"max_size":           deps.Config.Upload.MaxSize,
		"watermark_optional": deps.Config.Watermark.Optional,
		"tos_required":       !uc.Confirmed,
		"host_country":       deps.Config.App.Country,
		"flash":              flash.Get(c),
	}
	if ref := param(c, "category"); ref != "" {
		category, err := deps.Repos.Category.GetByRef(ref)
		if err != nil {
			return notFoundOr(c, "Upload", err)
		}
		body["category"] = category
	}
	return c.JSON(body)
}

// uploadForm reads the multipart fields into an ingestion form.
func uploadForm(c *fiber.Ctx) ingestion.Form {
	values := map[string]string{}
	if mf, err := c.MultipartForm(); err == nil {
		for k, v := range mf.Value {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
	}
	return ingestion.Form{
		CategoryName:        c.FormValue(ingestion.FieldCategoryName),
		CategoryDescription: c.FormValue(ingestion.FieldCategoryDescription),
		CategoryPrivate:     formBool(c, ingestion.FieldCategoryPrivate),
		Description:         c.FormValue(ingestion.FieldDescription),
		Private:             formBool(c, ingestion.FieldPrivate),
		AdultContent:        formBool(c, ingestion.FieldAdultContent),
		WatermarkText:       c.FormValue(ingestion.FieldWatermarkText),
		Values:              values,
	}
}

// ingest runs the uploaded file of the request through the pipeline.
func ingest(c *fiber.Ctx, uc usercontext.UserContext, form ingestion.Form) (*models.Image, error) {
	req := ingestion.Request{
		OwnerUUID:   uc.UUID,
		SubmitterIP: GetClientIP(c),
		CategoryRef: param(c, "category"),
		Form:        form,
		Session:     sessionGranter{c: c},
	}

	var file io.ReadCloser
	if fh, err := c.FormFile(ingestion.FieldFile); err == nil {
		file, err = fh.Open()
		if err != nil {
			return nil, &ingestion.FormError{Err: ingestion.ErrSaveFailed, Field: ingestion.FieldFile, Form: form.Values}
		}
		defer file.Close()
		req.File = file
		req.Filename = fh.Filename
		req.DeclaredSize = fh.Size
	}
	return deps.Pipeline.Ingest(c.Context(), req)
}

// uploadStatus maps a recoverable ingestion error to its status code.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, ingestion.ErrFileTooBig):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, ingestion.ErrDuplicateImage):
		return fiber.StatusConflict
	case errors.Is(err, ingestion.ErrSaveFailed):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadRequest
	}
}

// respondUploadError answers an ingestion failure. Recoverable errors echo
// the form so the client can refill it.
func respondUploadError(c *fiber.Ctx, err error) error {
	m := metrics.Get()
	var fe *ingestion.FormError
	if ingestion.Recoverable(err) && errors.As(err, &fe) {
		m.UploadTotal.WithLabelValues("rejected").Inc()
		return c.Status(uploadStatus(err)).JSON(fiber.Map{
			"error": fe.Error(),
			"field": fe.Field,
			"form":  fe.Form,
		})
	}
	m.UploadTotal.WithLabelValues("failed").Inc()
	log.Errorf("[Upload] Upload failed: %v", err)
	return jsonError(c, fiber.StatusInternalServerError, ingestion.ErrCommitFailed.Error())
}

// HandleUpload stores an uploaded image.
func HandleUpload(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	form := uploadForm(c)

	if !uc.Confirmed && c.FormValue(FieldTOS) != "yes" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errTOSRequired.Error(),
			"field": FieldTOS,
			"form":  form.Values,
		})
	}

	image, err := ingest(c, uc, form)
	if err != nil {
		return respondUploadError(c, err)
	}
	metrics.Get().UploadTotal.WithLabelValues("stored").Inc()
	deps.Statistics.Invalidate(c.Context())

	links := imageLinks(image, image.Category)
	if formBool(c, ingestion.FieldMultiple) {
		fm := fiber.Map{"type": "success", "message": "Image " + image.Filename + " uploaded.", "link": links["show"]}
		if image.Private {
			fm["message"] = "Private image " + image.Filename + " uploaded. Keep the link, it is the only way to share it."
		}
		return flash.WithSuccess(c, fm).Redirect(models.UploadURL(image.Category), fiber.StatusSeeOther)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"image": image,
		"links": links,
	})
}
