package ledger

import (
	"errors"
	"testing"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/recordfile"
)

func newTestService(t *testing.T) (*Service, *recordfile.MemStore[Account]) {
	t.Helper()
	accStore := recordfile.NewMem[Account](AccountCodec{})
	txStore := recordfile.NewMem[TransactionRecord](TransactionCodec{})
	rates, err := ParseRates([]byte(`
[[rate]]
from = "USD"
to = "EUR"
rate = "0.5"
`), testLogger())
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}
	logger := testLogger()
	repo := NewAccountRepo(accStore, 3, logger)
	svc := &Service{
		Accounts: repo,
		Log:      NewTransactionLog(txStore, logger),
		Rates:    rates,
		Logger:   logger,
	}
	return svc, accStore
}

func mustOpen(t *testing.T, s *Service, accNo int64, currency string, cents int64) {
	t.Helper()
	if _, err := s.Accounts.Open(accNo, "holder", currency, "pin", cents); err != nil {
		t.Fatalf("Open %d: %v", accNo, err)
	}
}

func TestDepositWithdraw(t *testing.T) {
	svc, _ := newTestService(t)
	mustOpen(t, svc, 1, "USD", 1000)

	a, err := svc.Deposit(1, 250)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if a.BalanceCents != 1250 {
		t.Fatalf("balance = %d, want 1250", a.BalanceCents)
	}

	a, err = svc.Withdraw(1, 1250)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if a.BalanceCents != 0 {
		t.Fatalf("balance = %d, want 0", a.BalanceCents)
	}

	if _, err := svc.Withdraw(1, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw = %v, want ErrInsufficientFunds", err)
	}
	if _, err := svc.Deposit(1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero deposit = %v, want ErrInvalidAmount", err)
	}

	hist, err := svc.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].Kind != KindDeposit || hist[1].Kind != KindWithdrawal {
		t.Fatalf("history = %+v", hist)
	}
}

func TestTransferSameCurrencyConservesValue(t *testing.T) {
	svc, _ := newTestService(t)
	mustOpen(t, svc, 1, "USD", 10_000)
	mustOpen(t, svc, 2, "USD", 500)

	rec, err := svc.Transfer(1, "pin", 2, 2500)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if rec.DebitedCents != 2500 || rec.CreditedCents != 2500 {
		t.Fatalf("receipt = %+v", rec)
	}

	sender, _ := svc.Accounts.Get(1)
	receiver, _ := svc.Accounts.Get(2)
	if sender.BalanceCents != 7500 {
		t.Errorf("sender balance = %d, want 7500", sender.BalanceCents)
	}
	if receiver.BalanceCents != 3000 {
		t.Errorf("receiver balance = %d, want 3000", receiver.BalanceCents)
	}

	out, _ := svc.History(1)
	in, _ := svc.History(2)
	if len(out) != 1 || out[0].Kind != KindTransferOut || out[0].AmountCents != 2500 || out[0].Counterparty != 2 {
		t.Fatalf("sender history = %+v", out)
	}
	if len(in) != 1 || in[0].Kind != KindTransferIn || in[0].AmountCents != 2500 || in[0].Counterparty != 1 {
		t.Fatalf("receiver history = %+v", in)
	}
}

func TestTransferCrossCurrencyAppliesRate(t *testing.T) {
	svc, _ := newTestService(t)
	mustOpen(t, svc, 1, "USD", 10_000)
	mustOpen(t, svc, 2, "EUR", 0)

	rec, err := svc.Transfer(1, "pin", 2, 1000)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if rec.CreditedCents != 500 {
		t.Fatalf("credited = %d, want 500 (rate 0.5)", rec.CreditedCents)
	}
	sender, _ := svc.Accounts.Get(1)
	receiver, _ := svc.Accounts.Get(2)
	if sender.BalanceCents != 9000 {
		t.Errorf("sender balance = %d, want 9000", sender.BalanceCents)
	}
	if receiver.BalanceCents != 500 {
		t.Errorf("receiver balance = %d, want 500", receiver.BalanceCents)
	}
}

func TestTransferUnknownPairFallsBackToParity(t *testing.T) {
	svc, _ := newTestService(t)
	mustOpen(t, svc, 1, "USD", 1000)
	mustOpen(t, svc, 2, "JPY", 0)

	rec, err := svc.Transfer(1, "pin", 2, 300)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if rec.CreditedCents != 300 {
		t.Fatalf("credited = %d, want 300 (parity fallback)", rec.CreditedCents)
	}
}

func TestTransferValidation(t *testing.T) {
	svc, _ := newTestService(t)
	mustOpen(t, svc, 1, "USD", 1000)
	mustOpen(t, svc, 2, "USD", 0)

	if _, err := svc.Transfer(1, "bad-pin", 2, 100); !errors.Is(err, auth.ErrWrongCredential) {
		t.Errorf("bad secret = %v, want ErrWrongCredential", err)
	}
	if _, err := svc.Transfer(1, "pin", 1, 100); !errors.Is(err, ErrSameAccount) {
		t.Errorf("self transfer = %v, want ErrSameAccount", err)
	}
	if _, err := svc.Transfer(1, "pin", 404, 100); !errors.Is(err, ErrReceiverNotFound) {
		t.Errorf("missing receiver = %v, want ErrReceiverNotFound", err)
	}
	if _, err := svc.Transfer(1, "pin", 2, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Transfer(1, "pin", 2, 99_999); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdraw = %v, want ErrInsufficientFunds", err)
	}

	// None of the rejections moved money.
	sender, _ := svc.Accounts.Get(1)
	receiver, _ := svc.Accounts.Get(2)
	if sender.BalanceCents != 1000 || receiver.BalanceCents != 0 {
		t.Fatalf("balances changed: %d, %d", sender.BalanceCents, receiver.BalanceCents)
	}
}

func TestTransferCompensatesSenderWhenCreditFails(t *testing.T) {
	svc, accStore := newTestService(t)
	mustOpen(t, svc, 1, "USD", 1000)
	mustOpen(t, svc, 2, "USD", 0)

	// Fail the receiver's record write only; the sender occupies offset 0.
	boom := errors.New("disk full")
	receiverOff := int64(AccountCodec{}.Size())
	accStore.RewriteErr = func(off int64) error {
		if off == receiverOff {
			return boom
		}
		return nil
	}

	_, err := svc.Transfer(1, "pin", 2, 400)
	if !errors.Is(err, boom) {
		t.Fatalf("Transfer = %v, want injected write failure", err)
	}

	accStore.RewriteErr = nil
	sender, _ := svc.Accounts.Get(1)
	receiver, _ := svc.Accounts.Get(2)
	if sender.BalanceCents != 1000 {
		t.Errorf("sender balance = %d, want 1000 after compensation", sender.BalanceCents)
	}
	if receiver.BalanceCents != 0 {
		t.Errorf("receiver balance = %d, want 0", receiver.BalanceCents)
	}
}
