package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	LocalsKey       = "USER_CONTEXT"
	KeyUserUUID     = "user_uuid"
	KeyLoggedIn     = "logged_in"
	KeyCapabilities = "capabilities"
)
