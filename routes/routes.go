package routes

// Route path constants
// Every API path the client calls is defined here so the interceptors and the account service
// agree on which request is the refresh call.
const (
	// Auth Routes - Credentials
	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"

	// Profile Routes
	RouteUsersMe         = "/users/me"
	RouteUsersMeAvatar   = "/users/me/avatar"
	RouteUsersMePassword = "/users/me/password"

	// Media Routes
	RouteMedia = "/media"
)
