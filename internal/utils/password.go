package utils

import (
    "crypto/rand"
    "math/big"
    "strings"

    "golang.org/x/crypto/bcrypt"
)

// HashCode returns the bcrypt hash of a passcode using the given cost.
func HashCode(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyCode compares a bcrypt hash with a plain passcode.
func VerifyCode(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NumericCode returns a random decimal string of the given length.
func NumericCode(length int) (string, error) {
    if length <= 0 {
        length = 6
    }
    var b strings.Builder
    b.Grow(length)
    for i := 0; i < length; i++ {
        n, err := rand.Int(rand.Reader, big.NewInt(10))
        if err != nil {
            return "", err
        }
        b.WriteByte(byte('0' + n.Int64()))
    }
    return b.String(), nil
}
