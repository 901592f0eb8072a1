package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// The administrator credential is a single record in its own file: a magic
// tag, a format version, the salt and the digest. There is no lockout counter
// on the admin side; recovering a lost admin secret means deleting the file
// and re-running first-time setup.

var adminMagic = []byte("TELLERADM")

const adminVersion = 1

// adminFileSize = magic + version + salt + digest.
var adminFileSize = len(adminMagic) + 1 + SaltSize + DigestSize

// ErrAdminCorrupt is returned when the admin credential file exists but
// cannot be interpreted.
var ErrAdminCorrupt = errors.New("admin credential file corrupt")

// AdminStore reads and writes the singleton administrator credential.
type AdminStore struct {
	path string
}

func NewAdminStore(path string) *AdminStore {
	return &AdminStore{path: path}
}

// Exists reports whether an admin credential has been set.
func (s *AdminStore) Exists() (bool, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return true, nil
}

// Bootstrap stores the first admin secret. The file is written with owner-only
// permissions via a temp file and rename.
func (s *AdminStore) Bootstrap(secret string) error {
	salt, err := GenerateSalt(SaltSize)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, adminFileSize)
	buf = append(buf, adminMagic...)
	buf = append(buf, adminVersion)
	buf = append(buf, salt...)
	buf = append(buf, HashSecret(secret, salt)...)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Authenticate verifies secret against the stored admin credential.
func (s *AdminStore) Authenticate(secret string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) != adminFileSize || !bytes.Equal(data[:len(adminMagic)], adminMagic) {
		return fmt.Errorf("%w: %s", ErrAdminCorrupt, s.path)
	}
	rest := data[len(adminMagic):]
	if rest[0] != adminVersion {
		return fmt.Errorf("%w: unknown version %d", ErrAdminCorrupt, rest[0])
	}
	salt := rest[1 : 1+SaltSize]
	digest := rest[1+SaltSize:]
	if !Verify(secret, salt, digest) {
		return ErrWrongCredential
	}
	return nil
}
