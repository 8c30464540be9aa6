package constants

// Route constants shared by the router, handlers and mailed links
const (
	PublicRoute         = "/"
	UploadRoute         = "/upload"
	AdminRoute          = "/admin"
	AccountConfirmRoute = "/account/confirm"
	AbuseConfirmRoute   = "/abuse/confirm"
	AdultContentRoute   = "/adult-content/confirm"
)
