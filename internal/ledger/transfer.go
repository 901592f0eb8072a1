package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Service orchestrates balance-affecting operations against the account
// store and the transaction log. Callers authenticate through
// AccountRepo.Authenticate before invoking the session operations; Transfer
// authenticates the sender itself because the secret is part of its contract.
type Service struct {
	Accounts *AccountRepo
	Log      *TransactionLog
	Rates    *RateTable
	Logger   *slog.Logger
}

// TransferReceipt describes a completed transfer.
type TransferReceipt struct {
	DebitedCents  int64
	CreditedCents int64
	Rate          decimal.Decimal
	SenderBalance int64
	Currency      string
}

// compensation is one undoable persisted step. Steps push their undo as they
// land; a later failure unwinds the stack newest-first.
type compensation struct {
	desc string
	undo func() error
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Deposit credits the account and logs the event. The caller is expected to
// have authenticated the session.
func (s *Service) Deposit(accNo, amountCents int64) (Account, error) {
	if amountCents <= 0 {
		return Account{}, ErrInvalidAmount
	}
	a, err := s.Accounts.adjustBalance(accNo, amountCents)
	if err != nil {
		return Account{}, err
	}
	if err := s.Log.Append(TransactionRecord{
		AccNo: accNo, Kind: KindDeposit, AmountCents: amountCents, Currency: a.Currency,
	}); err != nil {
		s.logger().Warn("deposit logged balance but not history", "acc_no", accNo, "err", err)
	}
	return a, nil
}

// Withdraw debits the account and logs the event.
func (s *Service) Withdraw(accNo, amountCents int64) (Account, error) {
	if amountCents <= 0 {
		return Account{}, ErrInvalidAmount
	}
	a, err := s.Accounts.adjustBalance(accNo, -amountCents)
	if err != nil {
		return Account{}, err
	}
	if err := s.Log.Append(TransactionRecord{
		AccNo: accNo, Kind: KindWithdrawal, AmountCents: amountCents, Currency: a.Currency,
	}); err != nil {
		s.logger().Warn("withdrawal logged balance but not history", "acc_no", accNo, "err", err)
	}
	return a, nil
}

// History returns the chronological event history for accNo.
func (s *Service) History(accNo int64) ([]TransactionRecord, error) {
	if _, err := s.Accounts.Get(accNo); err != nil {
		return nil, err
	}
	return s.Log.History(accNo)
}

// Transfer moves amountCents from sender to receiver, applying the exchange
// rate between their currencies. The sender debit and receiver credit are
// separate record writes; if the credit fails the debit is compensated by
// re-crediting the sender before the error is returned. That compensation is
// best effort, not a transactional guarantee.
func (s *Service) Transfer(senderNo int64, senderSecret string, receiverNo int64, amountCents int64) (TransferReceipt, error) {
	if err := s.Accounts.Authenticate(senderNo, senderSecret); err != nil {
		return TransferReceipt{}, err
	}
	if senderNo == receiverNo {
		return TransferReceipt{}, ErrSameAccount
	}
	receiver, err := s.Accounts.Get(receiverNo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TransferReceipt{}, ErrReceiverNotFound
		}
		return TransferReceipt{}, err
	}
	if amountCents <= 0 {
		return TransferReceipt{}, ErrInvalidAmount
	}
	sender, err := s.Accounts.Get(senderNo)
	if err != nil {
		return TransferReceipt{}, err
	}
	if sender.BalanceCents < amountCents {
		return TransferReceipt{}, ErrInsufficientFunds
	}

	creditedCents, rate := s.Rates.Convert(amountCents, sender.Currency, receiver.Currency)

	var undo []compensation
	unwind := func(cause error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			c := undo[i]
			if uerr := c.undo(); uerr != nil {
				s.logger().Error("compensation failed", "step", c.desc, "err", uerr)
				cause = errors.Join(cause, fmt.Errorf("compensate %s: %w", c.desc, uerr))
			}
		}
		return cause
	}

	sender, err = s.Accounts.adjustBalance(senderNo, -amountCents)
	if err != nil {
		return TransferReceipt{}, fmt.Errorf("debit sender: %w", err)
	}
	undo = append(undo, compensation{
		desc: fmt.Sprintf("re-credit sender %d", senderNo),
		undo: func() error {
			_, uerr := s.Accounts.adjustBalance(senderNo, amountCents)
			return uerr
		},
	})

	now := time.Now().UTC()
	if err := s.Log.Append(TransactionRecord{
		AccNo: senderNo, Kind: KindTransferOut, AmountCents: amountCents,
		Time: now, Counterparty: receiverNo, Currency: sender.Currency,
	}); err != nil {
		s.logger().Warn("transfer-out entry not logged", "acc_no", senderNo, "err", err)
	}

	if _, err := s.Accounts.adjustBalance(receiverNo, creditedCents); err != nil {
		return TransferReceipt{}, unwind(fmt.Errorf("credit receiver: %w", err))
	}

	if err := s.Log.Append(TransactionRecord{
		AccNo: receiverNo, Kind: KindTransferIn, AmountCents: creditedCents,
		Time: now, Counterparty: senderNo, Currency: receiver.Currency,
	}); err != nil {
		s.logger().Warn("transfer-in entry not logged", "acc_no", receiverNo, "err", err)
	}

	s.logger().Info("transfer complete",
		"sender", senderNo, "receiver", receiverNo,
		"debited", amountCents, "credited", creditedCents, "rate", rate.String())

	return TransferReceipt{
		DebitedCents:  amountCents,
		CreditedCents: creditedCents,
		Rate:          rate,
		SenderBalance: sender.BalanceCents,
		Currency:      sender.Currency,
	}, nil
}
