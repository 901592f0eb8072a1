package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tellerhq/teller/internal/recordfile"
)

// Kind is the type of a logged balance-affecting event.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindTransferOut
	KindTransferIn
	KindLoanRepayment
	KindLoanApproved
	KindLoanRejected
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindTransferOut:
		return "transfer out"
	case KindTransferIn:
		return "transfer in"
	case KindLoanRepayment:
		return "loan repayment"
	case KindLoanApproved:
		return "loan approved"
	case KindLoanRejected:
		return "loan rejected"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// TransactionRecord is one append-only history entry. Counterparty is zero
// when not applicable.
type TransactionRecord struct {
	AccNo        int64
	Kind         Kind
	AmountCents  int64
	Time         time.Time
	Counterparty int64
	Currency     string
}

const transactionVersion = 1

// Transaction record layout: version(1) accNo(8) kind(1) amount(8) unix(8)
// counterparty(8) currency(3)
const transactionRecordSize = 1 + 8 + 1 + 8 + 8 + 8 + 3

// TransactionCodec is the fixed-width codec for TransactionRecord.
type TransactionCodec struct{}

func (TransactionCodec) Size() int { return transactionRecordSize }

func (TransactionCodec) Encode(r TransactionRecord, buf []byte) error {
	buf[0] = transactionVersion
	recordfile.PutInt64(buf[1:], r.AccNo)
	buf[9] = byte(r.Kind)
	recordfile.PutInt64(buf[10:], r.AmountCents)
	recordfile.PutInt64(buf[18:], r.Time.Unix())
	recordfile.PutInt64(buf[26:], r.Counterparty)
	return recordfile.PutString(buf[34:37], r.Currency)
}

func (TransactionCodec) Decode(buf []byte) (TransactionRecord, error) {
	if buf[0] != transactionVersion {
		return TransactionRecord{}, fmt.Errorf("unknown transaction record version %d", buf[0])
	}
	var r TransactionRecord
	r.AccNo = recordfile.GetInt64(buf[1:])
	r.Kind = Kind(buf[9])
	r.AmountCents = recordfile.GetInt64(buf[10:])
	r.Time = time.Unix(recordfile.GetInt64(buf[18:]), 0).UTC()
	r.Counterparty = recordfile.GetInt64(buf[26:])
	r.Currency = recordfile.GetString(buf[34:37])
	return r, nil
}

// TransactionLog is the append-only event history. Entries are never mutated
// or deleted; append order is chronological for a single-writer process.
type TransactionLog struct {
	store  recordfile.Store[TransactionRecord]
	logger *slog.Logger
}

func NewTransactionLog(store recordfile.Store[TransactionRecord], logger *slog.Logger) *TransactionLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionLog{store: store, logger: logger}
}

// Append records an event. Failures are reported to the caller but are not
// on the consistency path: the balance mutation that preceded the entry
// stands either way.
func (l *TransactionLog) Append(rec TransactionRecord) error {
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	if err := l.store.Append(rec); err != nil {
		l.logger.Error("transaction log append failed", "acc_no", rec.AccNo, "kind", rec.Kind.String(), "err", err)
		return err
	}
	return nil
}

// History returns all entries for accNo in on-disk (chronological) order.
func (l *TransactionLog) History(accNo int64) ([]TransactionRecord, error) {
	all, err := l.store.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []TransactionRecord
	for _, rec := range all {
		if rec.AccNo == accNo {
			out = append(out, rec)
		}
	}
	return out, nil
}
