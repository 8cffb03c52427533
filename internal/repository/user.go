package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notely/notely-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, name, email, date_of_birth, google_id, avatar,
	is_email_verified, auth_method, otp_hash, otp_expiry, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user, assigning it a fresh ID. The unique index on
// email is the duplicate-signup guard.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `INSERT INTO users
		(id, name, email, date_of_birth, google_id, avatar, is_email_verified, auth_method, otp_hash, otp_expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.DateOfBirth,
		nullString(user.GoogleID), user.Avatar,
		user.IsEmailVerified, user.AuthMethod,
		nullString(user.OTPHash), user.OTPExpiry,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	return nil
}

// Delete removes a user. Used to compensate a signup whose OTP email
// could not be delivered.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetByEmail retrieves a user by email address. Emails are stored lowercased.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByGoogleID retrieves a user by their linked Google account ID.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
}

// SetOTP stores a fresh hashed one-time code and its expiry, overwriting any
// prior pending code. Both fields are written together.
func (r *UserRepository) SetOTP(ctx context.Context, id, otpHash string, expiry time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_hash = ?, otp_expiry = ? WHERE id = ?`,
		otpHash, expiry, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ClearOTP unsets the code and expiry together.
func (r *UserRepository) ClearOTP(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_hash = NULL, otp_expiry = NULL WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// MarkVerified flags the email as verified and consumes the pending OTP in
// the same statement, so a verified code is single-use.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = TRUE, otp_hash = NULL, otp_expiry = NULL WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// LinkGoogle attaches a Google identity to an existing account, switching it
// to the google auth method and marking the email verified.
func (r *UserRepository) LinkGoogle(ctx context.Context, id, googleID, avatar string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = ?, auth_method = ?, is_email_verified = TRUE, avatar = ?
		 WHERE id = ?`,
		googleID, model.AuthMethodGoogle, avatar, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		user      model.User
		dob       sql.NullTime
		googleID  sql.NullString
		otpHash   sql.NullString
		otpExpiry sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &dob, &googleID, &user.Avatar,
		&user.IsEmailVerified, &user.AuthMethod, &otpHash, &otpExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if dob.Valid {
		d := dob.Time
		user.DateOfBirth = &d
	}
	if googleID.Valid {
		user.GoogleID = googleID.String
	}
	if otpHash.Valid {
		user.OTPHash = otpHash.String
	}
	if otpExpiry.Valid {
		e := otpExpiry.Time
		user.OTPExpiry = &e
	}

	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
