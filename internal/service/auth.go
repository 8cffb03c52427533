package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/notely/notely-go/internal/crypto"
	"github.com/notely/notely-go/internal/model"
	"github.com/notely/notely-go/internal/repository"
)

var (
	ErrEmailTaken      = errors.New("user with this email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrDeliveryFailed  = errors.New("failed to send OTP email")
	ErrTooYoung        = errors.New("you must be at least 13 years old to register")
	ErrWrongAuthMethod = errors.New("this account uses Google sign-in")
	ErrNotVerified     = errors.New("email is not verified, please complete signup first")
)

// MinSignupAge is the youngest age an email signup may declare.
const MinSignupAge = 13

// UserStore is the persistence surface the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	SetOTP(ctx context.Context, id, otpHash string, expiry time.Time) error
	ClearOTP(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string) error
	LinkGoogle(ctx context.Context, id, googleID, avatar string) error
}

// Mailer dispatches transactional email. Implementations live in
// internal/mailer.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// AuthService orchestrates signup, OTP verification, passwordless sign-in
// and Google OAuth account linking.
type AuthService struct {
	users     UserStore
	mailer    Mailer
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, mailer Mailer, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		mailer:    mailer,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Signup registers a new email-auth user and dispatches an OTP. The signup
// is all-or-nothing: if the OTP email cannot be delivered the just-created
// user is deleted again so a retry starts clean.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.SignupResponse, error) {
	email := NormalizeEmail(req.Email)

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return model.SignupResponse{}, fmt.Errorf("parsing date of birth: %w", err)
	}
	if ageAt(dob, time.Now()) < MinSignupAge {
		return model.SignupResponse{}, ErrTooYoung
	}

	code, err := crypto.GenerateOTP()
	if err != nil {
		return model.SignupResponse{}, err
	}
	otpHash, err := crypto.HashSecret(code)
	if err != nil {
		return model.SignupResponse{}, err
	}

	expiry := time.Now().Add(crypto.OTPTTL)
	user := &model.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		DateOfBirth: &dob,
		AuthMethod:  model.AuthMethodEmail,
		OTPHash:     otpHash,
		OTPExpiry:   &expiry,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.SignupResponse{}, ErrEmailTaken
		}
		return model.SignupResponse{}, err
	}

	if err := s.mailer.SendOTP(ctx, user.Email, user.Name, code); err != nil {
		slog.Error("otp delivery failed, rolling back signup", "email", user.Email, "error", err)
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			slog.Error("signup rollback failed", "user_id", user.ID, "error", delErr)
		}
		return model.SignupResponse{}, ErrDeliveryFailed
	}

	return model.SignupResponse{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

// VerifyOTP checks a pending one-time code and completes the login. On
// success the email is marked verified, the code is consumed, a best-effort
// welcome mail goes out on first verification and a session token is issued.
func (s *AuthService) VerifyOTP(ctx context.Context, req model.VerifyOTPRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrUserNotFound
		}
		return model.AuthResponse{}, err
	}

	if !s.checkOTP(user, req.OTP) {
		// An expired code can never verify again; drop it from the row so it
		// does not linger until the next issueOTP overwrite.
		if user.HasPendingOTP() && time.Now().After(*user.OTPExpiry) {
			if err := s.users.ClearOTP(ctx, user.ID); err != nil {
				slog.Warn("clearing expired otp failed", "user_id", user.ID, "error", err)
			}
		}
		return model.AuthResponse{}, ErrInvalidOTP
	}

	firstVerification := !user.IsEmailVerified

	// Marks verified and consumes the code in one write; a verified OTP is
	// single-use and code/expiry never survive separately.
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return model.AuthResponse{}, err
	}
	user.IsEmailVerified = true
	user.OTPHash = ""
	user.OTPExpiry = nil

	if firstVerification {
		if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
			slog.Warn("welcome email failed", "email", user.Email, "error", err)
		}
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{Token: token, User: model.NewUserResponse(user)}, nil
}

// Signin starts a passwordless login: it generates a fresh OTP and mails it.
// No token is issued here; VerifyOTP completes the login.
func (s *AuthService) Signin(ctx context.Context, req model.SigninRequest) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.AuthMethod == model.AuthMethodGoogle {
		return ErrWrongAuthMethod
	}
	if !user.IsEmailVerified {
		return ErrNotVerified
	}

	return s.issueOTP(ctx, user)
}

// ResendOTP regenerates and redispatches a user's one-time code. The new
// code replaces any pending one; the old code stops verifying.
func (s *AuthService) ResendOTP(ctx context.Context, req model.ResendOTPRequest) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.issueOTP(ctx, user)
}

// GoogleCallback resolves an OAuth profile to a local account and issues a
// session token. Lookup order: by provider ID, then by email (linking an
// existing email account), else a fresh pre-verified user is created.
func (s *AuthService) GoogleCallback(ctx context.Context, profile model.GoogleProfile) (model.AuthResponse, error) {
	user, err := s.users.GetByGoogleID(ctx, profile.ProviderID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	if user == nil {
		email := NormalizeEmail(profile.Email)
		user, err = s.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			// Link-by-email: the same address should not end up as two accounts.
			if err := s.users.LinkGoogle(ctx, user.ID, profile.ProviderID, profile.Avatar); err != nil {
				return model.AuthResponse{}, err
			}
			user.GoogleID = profile.ProviderID
			user.AuthMethod = model.AuthMethodGoogle
			user.IsEmailVerified = true
			user.Avatar = profile.Avatar
		case errors.Is(err, repository.ErrUserNotFound):
			user = &model.User{
				Name:            profile.Name,
				Email:           email,
				GoogleID:        profile.ProviderID,
				Avatar:          profile.Avatar,
				AuthMethod:      model.AuthMethodGoogle,
				IsEmailVerified: true,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return model.AuthResponse{}, err
			}
		default:
			return model.AuthResponse{}, err
		}
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{Token: token, User: model.NewUserResponse(user)}, nil
}

// Me retrieves the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(user), nil
}

// issueOTP overwrites any pending code with a fresh one and mails it.
// The latest generated code wins.
func (s *AuthService) issueOTP(ctx context.Context, user *model.User) error {
	code, err := crypto.GenerateOTP()
	if err != nil {
		return err
	}
	otpHash, err := crypto.HashSecret(code)
	if err != nil {
		return err
	}

	if err := s.users.SetOTP(ctx, user.ID, otpHash, time.Now().Add(crypto.OTPTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, user.Email, user.Name, code); err != nil {
		slog.Error("otp delivery failed", "email", user.Email, "error", err)
		return ErrDeliveryFailed
	}
	return nil
}

// checkOTP reports whether candidate matches the user's pending code within
// its validity window. Missing, expired or mismatched codes all yield false.
func (s *AuthService) checkOTP(user *model.User, candidate string) bool {
	if !user.HasPendingOTP() {
		return false
	}
	if time.Now().After(*user.OTPExpiry) {
		return false
	}
	ok, err := crypto.VerifySecret(candidate, user.OTPHash)
	if err != nil {
		return false
	}
	return ok
}

// NormalizeEmail canonicalizes an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ageAt computes full years between birth date and now.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
