package credential

import (
	"errors"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned for hash formats that cannot be verified
// in process.
var ErrUnsupportedHash = errors.New("credential: unsupported password hash")

func crypterFor(hash string) crypt.Crypter {
	switch {
	case strings.HasPrefix(hash, "$6$"):
		return sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		return sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		return md5_crypt.New()
	default:
		return nil
	}
}

func isBcrypt(hash string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}

// VerifyHash reports whether password matches hash.
func VerifyHash(hash, password string) (bool, error) {
	if c := crypterFor(hash); c != nil {
		return c.Verify(hash, []byte(password)) == nil, nil
	}
	if isBcrypt(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return false, ErrUnsupportedHash
}
