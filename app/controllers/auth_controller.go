package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/constants"
	"github.com/ufsoft/screener/internal/pkg/session"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

func formFill(c *fiber.Ctx, keys ...string) fiber.Map {
	fill := fiber.Map{}
	for _, k := range keys {
		fill[k] = c.FormValue(k)
	}
	return fill
}

func formFailure(c *fiber.Ctx, status int, message string, fill fiber.Map) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "form": fill})
}

// HandleAuthLogin authenticates a confirmed account and binds it to the
// session.
func HandleAuthLogin(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	fill := fiber.Map{"username": username}

	user, err := deps.Repos.User.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return formFailure(c, fiber.StatusUnauthorized, "user is not known", fill)
		}
		return internalError(c, "Auth", err)
	}
	if !user.CheckPassword(password) {
		return formFailure(c, fiber.StatusUnauthorized, "authentication failed", fill)
	}
	if !user.Confirmed {
		return formFailure(c, fiber.StatusForbidden, "this account hasn't been confirmed yet", fill)
	}

	if err := session.Login(c, user.UUID); err != nil {
		return internalError(c, "Auth", err)
	}
	if err := deps.Repos.User.TouchLastVisit(user.UUID); err != nil {
		log.Warnf("[Auth] Could not update last visit of %s: %v", user.UUID, err)
	}
	log.Infof("[Auth] %s logged in", user.DisplayName())

	next := constants.PublicRoute
	if user.IsAdmin {
		next = constants.AdminRoute
	}
	return c.JSON(fiber.Map{"user": user, "next": next})
}

// HandleAuthLogout ends the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	if err := session.Logout(c); err != nil {
		log.Warnf("[Auth] Logout failed: %v", err)
	}
	return c.Redirect(constants.UploadRoute, fiber.StatusSeeOther)
}

// HandleAuthRegister creates an account. A visitor registering from an
// anonymous session keeps the images uploaded so far. The account can log in
// once the mailed confirmation is followed.
func HandleAuthRegister(c *fiber.Ctx) error {
	fill := formFill(c, "username", "email")
	username := strings.TrimSpace(c.FormValue("username"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	confirm := c.FormValue("password_confirm")

	for _, v := range []string{username, email, password, confirm} {
		if v == "" {
			return formFailure(c, fiber.StatusBadRequest, "all fields are required", fill)
		}
	}
	if _, err := deps.Repos.User.GetByUsername(username); err == nil {
		return formFailure(c, fiber.StatusConflict, "the username you asked for is already taken", fill)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, "Auth", err)
	}
	if _, err := deps.Repos.User.GetByEmail(email); err == nil {
		return formFailure(c, fiber.StatusConflict, "a user with this email address already exists", fill)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, "Auth", err)
	}
	if password != confirm {
		return formFailure(c, fiber.StatusBadRequest, "passwords do not match", fill)
	}

	user, err := registerUser(usercontext.GetUserContext(c), username, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return formFailure(c, fiber.StatusConflict, "the username or email address is already taken", fill)
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formFailure(c, fiber.StatusBadRequest, "invalid username or email address", fill)
		}
		return internalError(c, "Auth", err)
	}

	change, err := models.NewChange(user, models.ChangeConfirmed, "")
	if err != nil {
		return internalError(c, "Auth", err)
	}
	if err := deps.Repos.Change.Create(change); err != nil {
		return internalError(c, "Auth", err)
	}
	if err := deps.Notifier.SendChange(c.Context(), user, change); err != nil {
		log.Errorf("[Auth] Could not mail account confirmation to %s: %v", email, err)
	}
	log.Infof("[Auth] Registered %s", username)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "An email message was sent to " + email + " in order to confirm the new account. Until confirmed, you won't be able to login.",
	})
}

// registerUser turns the anonymous session user into an account, or creates
// a fresh one.
func registerUser(uc usercontext.UserContext, username, email, password string) (*models.User, error) {
	if uc.UUID != "" && !uc.IsLoggedIn {
		current, err := deps.Repos.User.GetByUUID(uc.UUID)
		if err == nil && current.IsAnonymous() {
			current.Username = &username
			current.Email = &email
			if err := current.SetPassword(password); err != nil {
				return nil, err
			}
			if err := current.Validate(); err != nil {
				return nil, err
			}
			return current, deps.Repos.User.Update(current)
		}
	}

	user, err := models.CreateUser(username, email, password)
	if err != nil {
		return nil, err
	}
	return user, deps.Repos.User.Create(user)
}

// HandleAuthReset records a pending password change and mails its
// confirmation link. The old password stays valid until then.
func HandleAuthReset(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	fill := fiber.Map{"email": email}

	if email == "" {
		return formFailure(c, fiber.StatusBadRequest, "in order to reset a password, you need to provide an email address", fill)
	}
	if password == "" {
		return formFailure(c, fiber.StatusBadRequest, "a new password is required", fill)
	}
	if password != c.FormValue("password_confirm") {
		return formFailure(c, fiber.StatusBadRequest, "the passwords do not match", fill)
	}
	user, err := deps.Repos.User.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return formFailure(c, fiber.StatusNotFound, "no user is known by this email address", fill)
		}
		return internalError(c, "Auth", err)
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return internalError(c, "Auth", err)
	}
	change, err := models.NewChange(user, models.ChangePassword, hash)
	if err != nil {
		return internalError(c, "Auth", err)
	}
	if err := deps.Repos.Change.Create(change); err != nil {
		return internalError(c, "Auth", err)
	}
	if err := deps.Notifier.SendChange(c.Context(), user, change); err != nil {
		log.Errorf("[Auth] Could not mail password reset to %s: %v", email, err)
	}
	return c.JSON(fiber.Map{
		"message": "An email message was sent to " + email + " in order to confirm the password change. Until confirmed, your old password is still in use.",
	})
}

// HandleAuthConfirm applies the pending change identified by the hash.
func HandleAuthConfirm(c *fiber.Ctx) error {
	hash := c.FormValue("confirm_hash", param(c, "hash"))
	if hash == "" {
		return c.JSON(fiber.Map{
			"message": "Please insert the hash you were given.",
			"fields":  []string{"confirm_hash"},
		})
	}

	change, err := deps.Repos.Change.GetByHash(hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fm := fiber.Map{"type": "error", "message": "There is no change to confirm on the URL you used."}
			return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
		}
		return internalError(c, "Auth", err)
	}
	if change.Expired(time.Now()) {
		if err := deps.Repos.Change.Delete(hash); err != nil {
			log.Warnf("[Auth] Could not delete expired change %s: %v", hash, err)
		}
		fm := fiber.Map{"type": "error", "message": "The confirmation link has expired."}
		return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
	}
	if err := deps.Repos.Change.Apply(change); err != nil {
		return internalError(c, "Auth", err)
	}
	log.Infof("[Auth] Applied %s change for %s", change.Name, change.OwnerUUID)

	fm := fiber.Map{"type": "success", "message": "The requested change was confirmed."}
	return flash.WithSuccess(c, fm).Redirect("/", fiber.StatusSeeOther)
}
