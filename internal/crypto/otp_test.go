package crypto

import (
	"strconv"
	"testing"
)

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP() unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("GenerateOTP() = %q, want 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("GenerateOTP() = %q, not numeric", code)
		}
		if n < otpMin || n > otpMax {
			t.Fatalf("GenerateOTP() = %d, want in [%d, %d]", n, otpMin, otpMax)
		}
	}
}

func TestGenerateOTPVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP() unexpected error: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("GenerateOTP() produced identical codes across 50 calls")
	}
}
