package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is how long a generated one-time code stays valid.
const OTPTTL = 10 * time.Minute

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP produces a 6-digit numeric code uniformly in [100000, 999999]
// using crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%06d", otpMin+n.Int64()), nil
}
