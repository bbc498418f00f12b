package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	temporaryPasswordLength = 12
	tenantCodeLength        = 6

	passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares in constant time.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCheck spends the same work as a real comparison so that
// unknown emails are not distinguishable by latency.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = HashPassword("stockroom-timing-equaliser")
	})
	_ = CheckPassword(password, dummyHash)
}

// GenerateTemporaryPassword returns a random credential for invited users.
func GenerateTemporaryPassword() (string, error) {
	return randomString(passwordAlphabet, temporaryPasswordLength)
}

// GenerateTenantCode returns a short, human-shareable tenant code.
func GenerateTenantCode() (string, error) {
	return randomString(codeAlphabet, tenantCodeLength)
}

func randomString(alphabet string, n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// NormalizeEmail is the canonical stored and looked-up form of an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
