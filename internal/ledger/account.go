package ledger

import (
	"fmt"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/recordfile"
)

// Account is one ledger account record.
type Account struct {
	AccNo          int64
	Name           string
	Currency       string
	BalanceCents   int64
	Salt           []byte
	SecretHash     []byte
	FailedAttempts uint8
	Locked         bool
}

const (
	accountVersion  = 1
	accountNameSize = 64
)

// Account record layout (big-endian):
// version(1) accNo(8) name(64) currency(3) balance(8) salt(16) digest(32)
// failedAttempts(1) locked(1)
const accountRecordSize = 1 + 8 + accountNameSize + 3 + 8 + auth.SaltSize + auth.DigestSize + 1 + 1

// AccountCodec is the fixed-width codec for Account records.
type AccountCodec struct{}

func (AccountCodec) Size() int { return accountRecordSize }

func (AccountCodec) Encode(a Account, buf []byte) error {
	if len(a.Salt) != auth.SaltSize {
		return fmt.Errorf("salt must be %d bytes, got %d", auth.SaltSize, len(a.Salt))
	}
	if len(a.SecretHash) != auth.DigestSize {
		return fmt.Errorf("digest must be %d bytes, got %d", auth.DigestSize, len(a.SecretHash))
	}
	buf[0] = accountVersion
	recordfile.PutInt64(buf[1:], a.AccNo)
	if err := recordfile.PutString(buf[9:9+accountNameSize], a.Name); err != nil {
		return err
	}
	p := 9 + accountNameSize
	if err := recordfile.PutString(buf[p:p+3], a.Currency); err != nil {
		return err
	}
	p += 3
	recordfile.PutInt64(buf[p:], a.BalanceCents)
	p += 8
	copy(buf[p:], a.Salt)
	p += auth.SaltSize
	copy(buf[p:], a.SecretHash)
	p += auth.DigestSize
	buf[p] = a.FailedAttempts
	if a.Locked {
		buf[p+1] = 1
	} else {
		buf[p+1] = 0
	}
	return nil
}

func (AccountCodec) Decode(buf []byte) (Account, error) {
	if buf[0] != accountVersion {
		return Account{}, fmt.Errorf("unknown account record version %d", buf[0])
	}
	var a Account
	a.AccNo = recordfile.GetInt64(buf[1:])
	a.Name = recordfile.GetString(buf[9 : 9+accountNameSize])
	p := 9 + accountNameSize
	a.Currency = recordfile.GetString(buf[p : p+3])
	p += 3
	a.BalanceCents = recordfile.GetInt64(buf[p:])
	p += 8
	a.Salt = append([]byte(nil), buf[p:p+auth.SaltSize]...)
	p += auth.SaltSize
	a.SecretHash = append([]byte(nil), buf[p:p+auth.DigestSize]...)
	p += auth.DigestSize
	a.FailedAttempts = buf[p]
	a.Locked = buf[p+1] == 1
	return a, nil
}
