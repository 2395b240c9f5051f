package password

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

func TestHashProducesBcrypt(t *testing.T) {
	hashed, err := Hash("s3cret-pass")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, Cost, cost)

	assert.True(t, Verify("s3cret-pass", hashed))
	assert.False(t, Verify("other", hashed))
}

func TestVerifyArgon2(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("s3cret-pass"), salt, 1, 64*1024, 4, 32)
	encoded := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		64*1024, 1, 4,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	assert.True(t, Verify("s3cret-pass", encoded))
	assert.False(t, Verify("wrong", encoded))
}

func TestVerifyRejectsUnknownEncoding(t *testing.T) {
	assert.False(t, Verify("plain", "plain"))
	assert.False(t, Verify("x", "$argon2id$v=19$broken"))
	assert.False(t, Verify("x", ""))
}
