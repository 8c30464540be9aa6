package controllers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

// lookupReportable resolves the image to report. Images the requester may
// not know about are reported as missing; gated and pending ones are not.
func lookupReportable(c *fiber.Ctx) (*resolvedImage, error) {
	found, err := lookupImage(c)
	if err != nil {
		return nil, err
	}
	uc := usercontext.GetUserContext(c)
	if deps.Policy.CanView(uc.Requester(), found.image, found.viaSecret) == visibility.NotFound {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

// GET /abuse/:category/:image – describe the report form
func HandleAbuseForm(c *fiber.Ctx) error {
	found, err := lookupReportable(c)
	if err != nil {
		return notFoundOr(c, "Abuse", err)
	}
	if found.image.Abuse != nil {
		fm := fiber.Map{"type": "error", "message": "An abuse report for this image already exists."}
		return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
	}

	uc := usercontext.GetUserContext(c)
	body := fiber.Map{
		"image":    found.image.ImageName(),
		"category": found.category.Ref(),
		"fields":   []string{"reason", "email"},
		"flash":    flash.Get(c),
	}
	if !uc.IsLoggedIn && deps.Captcha.Enabled() {
		body["hcaptcha_sitekey"] = deps.Captcha.SiteKey()
	}
	return c.JSON(body)
}

// POST /abuse/:category/:image – submit a report
func HandleAbuseSubmit(c *fiber.Ctx) error {
	found, err := lookupReportable(c)
	if err != nil {
		return notFoundOr(c, "Abuse", err)
	}
	image := found.image
	if image.Abuse != nil {
		return jsonError(c, fiber.StatusConflict, "an abuse report for this image already exists")
	}

	reason := strings.TrimSpace(c.FormValue("reason"))
	email := strings.TrimSpace(c.FormValue("email"))
	if reason == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "you need both your email address and a reason why you're reporting this abuse",
			"form":  fiber.Map{"reason": reason, "email": email},
		})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid email address",
			"field": "email",
			"form":  fiber.Map{"reason": reason, "email": email},
		})
	}

	// guests must solve hCaptcha when it is configured
	uc := usercontext.GetUserContext(c)
	ip := GetClientIP(c)
	if !uc.IsLoggedIn {
		if err := deps.Captcha.Verify(c.Context(), c.FormValue("h-captcha-response"), ip); err != nil {
			log.Infof("[Abuse] Captcha rejected for %s: %v", ip, err)
			return jsonError(c, fiber.StatusBadRequest, "captcha validation failed, please try again")
		}
	}

	abuse := models.NewAbuse(image, uc.UUID, reason, ip, email)
	if err := deps.Repos.Abuse.Create(abuse); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return jsonError(c, fiber.StatusConflict, "an abuse report for this image already exists")
		}
		return internalError(c, "Abuse", err)
	}
	image.Abuse = abuse
	log.Infof("[Abuse] Image %s reported", image.ID)

	if err := deps.Notifier.SendAbuseConfirmation(c.Context(), abuse, image); err != nil {
		log.Errorf("[Abuse] Could not mail confirmation for %s: %v", abuse.Hash, err)
	}
	if image.OwnerUUID != "" {
		if _, err := deps.DiskUsage.RefreshUser(c.Context(), image.OwnerUUID); err != nil {
			log.Warnf("[Abuse] Disk usage refresh for %s failed: %v", image.OwnerUUID, err)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Thank you. Check your mailbox to confirm the report.",
	})
}

// GET|POST /abuse/confirm[/:hash] – confirm a report by the mailed hash
func HandleAbuseConfirm(c *fiber.Ctx) error {
	hash := c.FormValue("confirm_hash", param(c, "hash"))
	if hash == "" {
		return c.JSON(fiber.Map{
			"message": "Please insert the hash you were given.",
			"fields":  []string{"confirm_hash"},
		})
	}

	report, err := deps.Repos.Abuse.GetByHash(hash)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fm := fiber.Map{"type": "error", "message": "There is no report to confirm on the URL you used."}
		return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
	case err != nil:
		return internalError(c, "Abuse", err)
	case report.Confirmed:
		fm := fiber.Map{"type": "info", "message": "The abuse report was already confirmed."}
		return flash.WithInfo(c, fm).Redirect("/", fiber.StatusSeeOther)
	}

	if err := deps.Repos.Abuse.Confirm(hash); err != nil {
		return internalError(c, "Abuse", err)
	}
	log.Infof("[Abuse] Report %s for image %s confirmed", hash, report.ImageID)
	fm := fiber.Map{"type": "success", "message": "The abuse report is now confirmed."}
	return flash.WithSuccess(c, fm).Redirect("/", fiber.StatusSeeOther)
}
