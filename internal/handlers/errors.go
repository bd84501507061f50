package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkgauth "github.com/dohyunkim-dev/marketgate/pkg/auth"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
)

// writeServiceError maps service-layer errors onto HTTP responses. Login
// failures stay deliberately vague about whether the account exists; blocked
// accounts get a concrete reason because the caller is the account owner.
func writeServiceError(w http.ResponseWriter, err error) {
	var blocked *models.AccountBlockedError
	var invalid *models.InvalidCredentialError
	var socialOnly *models.SocialOnlyError
	var weakPassword *pkgauth.PasswordValidationError

	switch {
	case errors.As(err, &blocked):
		writeBlockedError(w, blocked)
	case errors.As(err, &invalid):
		pkghttp.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS",
			fmt.Sprintf("Invalid email or password. %d attempts remaining before lockout.", invalid.Remaining))
	case errors.As(err, &socialOnly):
		pkghttp.WriteError(w, http.StatusConflict, "SOCIAL_ACCOUNT",
			fmt.Sprintf("This account was registered through %s and has no password.", socialOnly.Provider))
	case errors.As(err, &weakPassword):
		pkghttp.WriteBadRequest(w, weakPassword.Error())
	case errors.Is(err, models.ErrTokenExpired):
		pkghttp.WriteError(w, http.StatusBadRequest, "TOKEN_EXPIRED", "The token has expired. Please request a new one.")
	case errors.Is(err, models.ErrTokenReused), errors.Is(err, models.ErrTokenInvalid):
		pkghttp.WriteUnauthorized(w, "Invalid token")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func writeBlockedError(w http.ResponseWriter, blocked *models.AccountBlockedError) {
	switch blocked.Reason {
	case models.BlockLocked:
		pkghttp.WriteError(w, http.StatusTooManyRequests, "ACCOUNT_LOCKED",
			fmt.Sprintf("Account is temporarily locked. Try again in %d seconds.", int(blocked.LockRemaining.Seconds())+1))
	case models.BlockSuspended:
		msg := "Account is suspended."
		if blocked.SuspendUntil != nil {
			msg = fmt.Sprintf("Account is suspended until %s.", blocked.SuspendUntil.Format("2006-01-02 15:04:05 MST"))
		}
		if blocked.SuspendReason != "" {
			msg += " Reason: " + blocked.SuspendReason
		}
		pkghttp.WriteError(w, http.StatusForbidden, "ACCOUNT_SUSPENDED", msg)
	default:
		pkghttp.WriteError(w, http.StatusForbidden, "ACCOUNT_NOT_VERIFIED",
			"Account is not verified. Please complete email verification first.")
	}
}
