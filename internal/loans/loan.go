// Package loans implements the credit-extension lifecycle: application,
// administrative decision and partial repayment until the principal is
// covered.
package loans

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tellerhq/teller/internal/recordfile"
)

// Status is the loan lifecycle state.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusApproved
	StatusRejected
	StatusRepaid
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusRepaid:
		return "repaid"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Loan is one credit extension record. IDs are random UUIDs so two
// applications filed in the same second cannot collide.
type Loan struct {
	ID          uuid.UUID
	AccNo       int64
	AmountCents int64
	Time        time.Time
	Status      Status
	PaidCents   int64
}

// Outstanding is the unpaid principal.
func (l Loan) Outstanding() int64 {
	return l.AmountCents - l.PaidCents
}

const loanVersion = 1

// Loan record layout: version(1) id(16) accNo(8) amount(8) unix(8) status(1)
// paid(8)
const loanRecordSize = 1 + 16 + 8 + 8 + 8 + 1 + 8

// LoanCodec is the fixed-width codec for Loan records.
type LoanCodec struct{}

func (LoanCodec) Size() int { return loanRecordSize }

func (LoanCodec) Encode(l Loan, buf []byte) error {
	buf[0] = loanVersion
	copy(buf[1:17], l.ID[:])
	recordfile.PutInt64(buf[17:], l.AccNo)
	recordfile.PutInt64(buf[25:], l.AmountCents)
	recordfile.PutInt64(buf[33:], l.Time.Unix())
	buf[41] = byte(l.Status)
	recordfile.PutInt64(buf[42:], l.PaidCents)
	return nil
}

func (LoanCodec) Decode(buf []byte) (Loan, error) {
	if buf[0] != loanVersion {
		return Loan{}, fmt.Errorf("unknown loan record version %d", buf[0])
	}
	var l Loan
	copy(l.ID[:], buf[1:17])
	l.AccNo = recordfile.GetInt64(buf[17:])
	l.AmountCents = recordfile.GetInt64(buf[25:])
	l.Time = time.Unix(recordfile.GetInt64(buf[33:]), 0).UTC()
	l.Status = Status(buf[41])
	l.PaidCents = recordfile.GetInt64(buf[42:])
	return l, nil
}
