package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher hashes and verifies passwords. The output of Hash embeds the
// salt and the parameters, so no separate salt storage is needed.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)

	// Verify reports whether password matches stored. Malformed hashes do not
	// match.
	Verify(password string, stored []byte) bool

	// NeedsUpgrade is true for hashes not produced with the current scheme
	// and parameters.
	NeedsUpgrade(stored []byte) bool
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follow the OWASP recommendation.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

const argon2Prefix = "$argon2id$"

// Limits on parameters read back from stored hashes. Verify computes with the
// embedded cost, so an oversized one must be refused before hashing.
const (
	maxArgon2Memory  = 1024 * 1024 // KiB
	maxArgon2Time    = 32
	maxArgon2Threads = 64
)

// Argon2idHasher produces PHC-formatted argon2id hashes:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// It also verifies bcrypt hashes ($2a$, $2b$, $2y$) written by earlier
// deployments; those report NeedsUpgrade so callers can re-hash on login.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

func (h *Argon2idHasher) Hash(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return []byte(encoded), nil
}

func (h *Argon2idHasher) Verify(password string, stored []byte) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword(stored, []byte(password)) == nil
	}

	p, salt, expected, err := decodeArgon2id(stored)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func (h *Argon2idHasher) NeedsUpgrade(stored []byte) bool {
	p, salt, _, err := decodeArgon2id(stored)
	if err != nil {
		return true
	}
	return p.Time != h.params.Time || p.Memory != h.params.Memory ||
		p.Threads != h.params.Threads || p.KeyLen != h.params.KeyLen ||
		uint32(len(salt)) != h.params.SaltLen
}

func isBcrypt(stored []byte) bool {
	return bytes.HasPrefix(stored, []byte("$2a$")) ||
		bytes.HasPrefix(stored, []byte("$2b$")) ||
		bytes.HasPrefix(stored, []byte("$2y$"))
}

func decodeArgon2id(stored []byte) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(string(stored), "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, err
	}
	if threads == 0 || threads > maxArgon2Threads || p.Time == 0 || p.Time > maxArgon2Time ||
		p.Memory == 0 || p.Memory > maxArgon2Memory {
		return p, nil, nil, errors.New("invalid argon2 parameters")
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, err
	}
	if len(key) == 0 || len(key) > 1024 {
		return p, nil, nil, errors.New("invalid hash key length")
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}

// dummyHash is verified against when an account does not exist, so login
// timing does not reveal which accounts are registered. It never matches.
var dummyHash = []byte("$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

// DummyHash returns a well-formed hash that no password matches.
func DummyHash() []byte {
	return dummyHash
}
