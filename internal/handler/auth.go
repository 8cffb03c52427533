package handler

import (
	"errors"
	"net/http"

	"github.com/notely/notely-go/internal/middleware"
	"github.com/notely/notely-go/internal/model"
	"github.com/notely/notely-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleSignup handles POST /api/auth/signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTooYoung):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDeliveryFailed):
			writeError(w, http.StatusInternalServerError, "failed to send OTP, please try again")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusCreated, "OTP sent to your email, please check and verify", resp)
}

// HandleVerifyOTP handles POST /api/auth/verify-otp requests.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.VerifyOTP(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidOTP):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusOK, "signed in successfully", resp)
}

// HandleSignin handles POST /api/auth/signin requests. Passwordless: a
// fresh OTP is mailed and a verify-otp call completes the login.
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req model.SigninRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Signin(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrWrongAuthMethod):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotVerified):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrDeliveryFailed):
			writeError(w, http.StatusInternalServerError, "failed to send OTP, please try again")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusOK, "OTP sent to your email", nil)
}

// HandleResendOTP handles POST /api/auth/resend-otp requests.
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req model.ResendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ResendOTP(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrDeliveryFailed):
			writeError(w, http.StatusInternalServerError, "failed to send OTP, please try again")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusOK, "new OTP sent to your email", nil)
}

// HandleSignout handles POST /api/auth/signout requests. Tokens are
// stateless; the client discards its copy.
func (h *AuthHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "signed out successfully", nil)
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "", map[string]any{"user": user})
}
