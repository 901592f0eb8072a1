package loans

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tellerhq/teller/internal/ledger"
	"github.com/tellerhq/teller/internal/recordfile"
)

var (
	ErrLoanNotFound = errors.New("loan not found")
	ErrNoActiveLoan = errors.New("no approved loan to repay")
	// ErrLoanPending rejects a second application while one is undecided.
	ErrLoanPending = errors.New("a loan application is already pending")
	// ErrNotEligible rejects applications from accounts with no funds; a
	// positive balance is the eligibility proxy.
	ErrNotEligible = errors.New("account not eligible for a loan")
)

// Book manages loan records and their interactions with accounts and the
// transaction log.
type Book struct {
	Loans    recordfile.Store[Loan]
	Accounts *ledger.AccountRepo
	Log      *ledger.TransactionLog
	Logger   *slog.Logger
}

func (b *Book) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Apply files a new loan application. At most one pending loan may exist per
// account at a time.
func (b *Book) Apply(accNo int64, secret string, amountCents int64) (Loan, error) {
	if err := b.Accounts.Authenticate(accNo, secret); err != nil {
		return Loan{}, err
	}
	if amountCents <= 0 {
		return Loan{}, ledger.ErrInvalidAmount
	}
	acct, err := b.Accounts.Get(accNo)
	if err != nil {
		return Loan{}, err
	}
	if acct.BalanceCents <= 0 {
		return Loan{}, ErrNotEligible
	}
	_, _, err = b.Loans.FindFirst(func(l Loan) bool {
		return l.AccNo == accNo && l.Status == StatusPending
	})
	if err == nil {
		return Loan{}, ErrLoanPending
	}
	if !errors.Is(err, recordfile.ErrNotFound) {
		return Loan{}, err
	}

	loan := Loan{
		ID:          uuid.New(),
		AccNo:       accNo,
		AmountCents: amountCents,
		Time:        time.Now().UTC(),
		Status:      StatusPending,
	}
	if err := b.Loans.Append(loan); err != nil {
		return Loan{}, err
	}
	b.logger().Info("loan application filed", "acc_no", accNo, "loan_id", loan.ID.String(), "amount", amountCents)
	return loan, nil
}

// Decide approves or rejects a pending loan. Administrative: no account
// secret is involved. Approval credits the principal to the account exactly
// once and logs it; rejection only logs. Both persist the loan in place.
func (b *Book) Decide(id uuid.UUID, approve bool) (Loan, error) {
	loan, off, err := b.Loans.FindFirst(func(l Loan) bool {
		return l.ID == id && l.Status == StatusPending
	})
	if err != nil {
		if errors.Is(err, recordfile.ErrNotFound) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}

	if approve {
		acct, err := b.Accounts.Credit(loan.AccNo, loan.AmountCents)
		if err != nil {
			return Loan{}, fmt.Errorf("credit principal: %w", err)
		}
		if err := b.Log.Append(ledger.TransactionRecord{
			AccNo: loan.AccNo, Kind: ledger.KindLoanApproved,
			AmountCents: loan.AmountCents, Currency: acct.Currency,
		}); err != nil {
			b.logger().Warn("loan approval not logged", "loan_id", id.String(), "err", err)
		}
		loan.Status = StatusApproved
	} else {
		acct, err := b.Accounts.Get(loan.AccNo)
		if err != nil {
			return Loan{}, err
		}
		if err := b.Log.Append(ledger.TransactionRecord{
			AccNo: loan.AccNo, Kind: ledger.KindLoanRejected,
			AmountCents: loan.AmountCents, Currency: acct.Currency,
		}); err != nil {
			b.logger().Warn("loan rejection not logged", "loan_id", id.String(), "err", err)
		}
		loan.Status = StatusRejected
	}

	if err := b.Loans.RewriteAt(off, loan); err != nil {
		return Loan{}, fmt.Errorf("persist decision: %w", err)
	}
	b.logger().Info("loan decided", "loan_id", id.String(), "status", loan.Status.String())
	return loan, nil
}

// Repay pays amountCents toward the account's approved loan. Paying the full
// outstanding amount transitions the loan to repaid.
func (b *Book) Repay(accNo int64, secret string, amountCents int64) (Loan, error) {
	if err := b.Accounts.Authenticate(accNo, secret); err != nil {
		return Loan{}, err
	}
	loan, off, err := b.Loans.FindFirst(func(l Loan) bool {
		return l.AccNo == accNo && l.Status == StatusApproved
	})
	if err != nil {
		if errors.Is(err, recordfile.ErrNotFound) {
			return Loan{}, ErrNoActiveLoan
		}
		return Loan{}, err
	}
	if amountCents <= 0 || amountCents > loan.Outstanding() {
		return Loan{}, ledger.ErrInvalidAmount
	}

	acct, err := b.Accounts.Debit(accNo, amountCents)
	if err != nil {
		return Loan{}, err
	}
	loan.PaidCents += amountCents
	if loan.PaidCents >= loan.AmountCents {
		loan.Status = StatusRepaid
	}
	if err := b.Loans.RewriteAt(off, loan); err != nil {
		return Loan{}, fmt.Errorf("persist repayment: %w", err)
	}
	if err := b.Log.Append(ledger.TransactionRecord{
		AccNo: accNo, Kind: ledger.KindLoanRepayment,
		AmountCents: amountCents, Currency: acct.Currency,
	}); err != nil {
		b.logger().Warn("repayment not logged", "loan_id", loan.ID.String(), "err", err)
	}
	b.logger().Info("loan repayment", "loan_id", loan.ID.String(), "paid", loan.PaidCents, "status", loan.Status.String())
	return loan, nil
}

// ForAccount returns all loans for accNo in application order.
func (b *Book) ForAccount(accNo int64) ([]Loan, error) {
	all, err := b.Loans.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Loan
	for _, l := range all {
		if l.AccNo == accNo {
			out = append(out, l)
		}
	}
	return out, nil
}

// Pending returns every undecided application, oldest first.
func (b *Book) Pending() ([]Loan, error) {
	all, err := b.Loans.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Loan
	for _, l := range all {
		if l.Status == StatusPending {
			out = append(out, l)
		}
	}
	return out, nil
}
