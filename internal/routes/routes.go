package routes

import (
	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/handlers"
	"github.com/dohyunkim-dev/marketgate/internal/middleware"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
	authRateLimit int,
) {
	rateLimited := middleware.AuthRateLimit(authRateLimit)

	// Public routes - no authentication required
	router.With(rateLimited).Post("/auth/login", authHandler.Login)
	router.With(rateLimited).Post("/auth/refresh", authHandler.Refresh)
	router.With(rateLimited).Post("/auth/social", authHandler.SocialLogin)

	router.With(rateLimited).Post("/accounts", accountHandler.Register)
	router.Post("/accounts/check-email", accountHandler.CheckEmail)
	router.Get("/accounts/verify-email", accountHandler.VerifyEmail)

	router.With(rateLimited).Post("/accounts/password-reset", accountHandler.RequestPasswordReset)
	router.Post("/accounts/password-reset/verify", accountHandler.VerifyResetToken)
	router.With(rateLimited).Post("/accounts/password-reset/confirm", accountHandler.ConfirmPasswordReset)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Delete("/accounts/me", accountHandler.Withdraw)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/admin/accounts", adminHandler.ListAccounts)
			r.Post("/admin/accounts/suspend", adminHandler.Suspend)
			r.Post("/admin/accounts/unsuspend", adminHandler.Unsuspend)
			r.Post("/admin/accounts/role", adminHandler.ChangeRole)
			r.Post("/admin/accounts/reset-login-fail", adminHandler.ResetLoginFail)
			r.Post("/admin/accounts/force-logout", adminHandler.ForceLogout)
			r.Post("/admin/tokens/clear", adminHandler.ClearTokens)
			r.Get("/admin/accounts/{email}/login-events", adminHandler.LoginHistory)
			r.Get("/admin/accounts/{email}/actions", adminHandler.ActionHistory)
		})
	})
}
