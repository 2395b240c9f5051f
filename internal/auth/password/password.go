package password

import (
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new hashes.
const Cost = 10

// Hash returns the bcrypt hash stored for new users.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify checks a password against a stored bcrypt or Argon2id hash.
func Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

func verifyArgon2(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[2] != "v=19" {
		return false
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return false
	}
	memory, ok := parseParam(params[0], "m=", 32)
	if !ok {
		return false
	}
	timeCost, ok := parseParam(params[1], "t=", 32)
	if !ok {
		return false
	}
	threads, ok := parseParam(params[2], "p=", 8)
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	check := argon2.IDKey([]byte(password), salt, uint32(timeCost), uint32(memory), uint8(threads), uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}

func parseParam(raw, prefix string, bits int) (uint64, bool) {
	value, ok := strings.CutPrefix(raw, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(value, 10, bits)
	if err != nil {
		return 0, false
	}
	return n, true
}
