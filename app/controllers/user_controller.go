package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// currentUser loads the account of the request.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	return deps.Repos.User.GetByUUID(usercontext.GetUserUUID(c))
}

// HandleUserPreferences returns the account with its disk usage.
func HandleUserPreferences(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return notFoundOr(c, "Account", err)
	}
	return c.JSON(fiber.Map{
		"user":        user,
		"disk_usage":  user.DiskUsage(),
		"has_api_key": user.HasAPIKey(),
	})
}

// HandleUserPreferencesUpdate changes the password directly, the email
// address through a mailed confirmation, and the adult content opt in.
func HandleUserPreferencesUpdate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return notFoundOr(c, "Account", err)
	}
	fill := formFill(c, "email", "show_adult_content")

	password := c.FormValue("password")
	confirm := c.FormValue("password_confirm")
	switch {
	case password != "" && confirm == "":
		return formFailure(c, fiber.StatusBadRequest, "you need to confirm your password", fill)
	case password == "" && confirm != "":
		return formFailure(c, fiber.StatusBadRequest, "can't confirm an empty password", fill)
	case password != confirm:
		return formFailure(c, fiber.StatusBadRequest, "passwords do not match", fill)
	case password != "":
		if err := user.SetPassword(password); err != nil {
			return internalError(c, "Account", err)
		}
	}

	user.ShowAdultContent = formBool(c, "show_adult_content")
	if err := deps.Repos.User.Update(user); err != nil {
		return internalError(c, "Account", err)
	}

	body := fiber.Map{"user": user}
	email := strings.TrimSpace(c.FormValue("email"))
	if email != "" && email != user.EmailAddress() {
		change, err := models.NewChange(user, models.ChangeEmail, email)
		if err != nil {
			return internalError(c, "Account", err)
		}
		if err := deps.Repos.Change.Create(change); err != nil {
			return internalError(c, "Account", err)
		}
		if err := deps.Notifier.SendChange(c.Context(), user, change); err != nil {
			log.Errorf("[Account] Could not mail email change confirmation to %s: %v", email, err)
		}
		body["message"] = "An email message was sent to " + email + " in order to confirm the address. Until confirmed, your old address is still in use."
	}
	return c.JSON(body)
}

// HandleUserImages lists the images owned by the requester.
func HandleUserImages(c *fiber.Ctx) error {
	uuid := usercontext.GetUserUUID(c)
	images, err := deps.Repos.Image.ListByOwner(uuid)
	if err != nil {
		return internalError(c, "Account", err)
	}
	listed := make([]fiber.Map, 0, len(images))
	for i := range images {
		image := &images[i]
		category, err := deps.Repos.Category.GetByName(image.CategoryName)
		if err != nil {
			log.Warnf("[Account] Image %s has no category %s: %v", image.ID, image.CategoryName, err)
			continue
		}
		listed = append(listed, fiber.Map{"image": image, "links": imageLinks(image, category)})
	}
	return c.JSON(fiber.Map{"images": listed})
}

// HandleUserAPIKeyIssue replaces the API key. The raw key is only returned
// here.
func HandleUserAPIKeyIssue(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return notFoundOr(c, "Account", err)
	}
	raw, err := user.IssueAPIKey()
	if err != nil {
		return internalError(c, "Account", err)
	}
	if err := deps.Repos.User.Update(user); err != nil {
		return internalError(c, "Account", err)
	}
	log.Infof("[Account] API key issued for %s", user.UUID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key": raw,
		"prefix":  user.APIKeyPrefix,
	})
}

// HandleUserAPIKeyRevoke removes the API key.
func HandleUserAPIKeyRevoke(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return notFoundOr(c, "Account", err)
	}
	user.RevokeAPIKey()
	if err := deps.Repos.User.Update(user); err != nil {
		return internalError(c, "Account", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
