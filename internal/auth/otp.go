package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTP codes are always six digits with no leading zero: the generator
// draws uniformly from [100000, 999999]. Frontends can rely on a fixed
// code length of 6.
const (
	otpMin = 100000
	otpMax = 999999

	// OTPLength is the number of digits in a login code.
	OTPLength = 6
)

// GenerateOTP returns a fresh one-time passcode as a 6-character
// numeric string.
//
// WHY crypto/rand AND NOT math/rand?
// Login codes are secrets. math/rand is seeded predictably and its
// output can be reconstructed; crypto/rand draws from the OS CSPRNG.
// rand.Int does rejection sampling internally, so the result is
// uniform across the range — no modulo bias.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("auth: generating OTP: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}
