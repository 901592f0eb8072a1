package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/recordfile"
)

// AccountRepo handles account records: creation, lookup, balance mutation,
// the authentication lockout state machine and administrative removal.
type AccountRepo struct {
	store       recordfile.Store[Account]
	maxAttempts uint8
	logger      *slog.Logger
}

func NewAccountRepo(store recordfile.Store[Account], maxAttempts uint8, logger *slog.Logger) *AccountRepo {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountRepo{store: store, maxAttempts: maxAttempts, logger: logger}
}

// Open creates a new account with a hashed secret. Duplicate account numbers
// are rejected without touching the store.
func (r *AccountRepo) Open(accNo int64, name, currency, secret string, initialCents int64) (Account, error) {
	if accNo <= 0 {
		return Account{}, fmt.Errorf("%w: account number must be positive", ErrInvalidAmount)
	}
	if name == "" || len(name) > accountNameSize {
		return Account{}, fmt.Errorf("name must be 1-%d bytes", accountNameSize)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !validCurrency(currency) {
		return Account{}, fmt.Errorf("invalid currency code %q", currency)
	}
	if initialCents < 0 {
		return Account{}, fmt.Errorf("%w: initial balance must not be negative", ErrInvalidAmount)
	}
	if secret == "" {
		return Account{}, errors.New("secret must not be empty")
	}

	_, _, err := r.store.FindFirst(func(a Account) bool { return a.AccNo == accNo })
	if err == nil {
		return Account{}, ErrAlreadyExists
	}
	if !errors.Is(err, recordfile.ErrNotFound) {
		return Account{}, err
	}

	salt, err := auth.GenerateSalt(auth.SaltSize)
	if err != nil {
		return Account{}, err
	}
	a := Account{
		AccNo:        accNo,
		Name:         name,
		Currency:     currency,
		BalanceCents: initialCents,
		Salt:         salt,
		SecretHash:   auth.HashSecret(secret, salt),
	}
	if err := r.store.Append(a); err != nil {
		return Account{}, err
	}
	r.logger.Info("account opened", "acc_no", accNo, "currency", currency)
	return a, nil
}

// Get returns the account with the given number.
func (r *AccountRepo) Get(accNo int64) (Account, error) {
	a, _, err := r.find(accNo)
	return a, err
}

// List returns all accounts in on-disk order.
func (r *AccountRepo) List() ([]Account, error) {
	return r.store.ReadAll()
}

// SearchByName returns accounts ranked by edit distance between the holder
// name and query. Substring matches rank ahead of everything else.
func (r *AccountRepo) SearchByName(query string) ([]Account, error) {
	all, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	type scored struct {
		acct Account
		dist int
	}
	var ranked []scored
	for _, a := range all {
		name := strings.ToLower(a.Name)
		d := levenshtein.ComputeDistance(name, q)
		if strings.Contains(name, q) {
			d = 0
		}
		ranked = append(ranked, scored{acct: a, dist: d})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })
	out := make([]Account, len(ranked))
	for i, s := range ranked {
		out[i] = s.acct
	}
	return out, nil
}

// Authenticate runs the lockout state machine for accNo. A locked account
// rejects every attempt without comparing secrets. A mismatch increments the
// failure counter and locks the account when it reaches the threshold; a
// match resets the counter. Both outcomes are persisted before returning.
func (r *AccountRepo) Authenticate(accNo int64, secret string) error {
	a, off, err := r.find(accNo)
	if err != nil {
		return err
	}
	if a.Locked {
		return ErrAccountLocked
	}
	if !auth.Verify(secret, a.Salt, a.SecretHash) {
		a.FailedAttempts++
		if a.FailedAttempts >= r.maxAttempts {
			a.Locked = true
			r.logger.Warn("account locked after repeated failures", "acc_no", accNo, "attempts", a.FailedAttempts)
		}
		if werr := r.store.RewriteAt(off, a); werr != nil {
			return fmt.Errorf("persist failed attempt: %w", werr)
		}
		return auth.ErrWrongCredential
	}
	if a.FailedAttempts != 0 {
		a.FailedAttempts = 0
		if werr := r.store.RewriteAt(off, a); werr != nil {
			return fmt.Errorf("reset failed attempts: %w", werr)
		}
	}
	return nil
}

// Unlock clears the lock and failure counter unconditionally. Administrative;
// idempotent on an already-unlocked account.
func (r *AccountRepo) Unlock(accNo int64) error {
	a, off, err := r.find(accNo)
	if err != nil {
		return err
	}
	if !a.Locked && a.FailedAttempts == 0 {
		return nil
	}
	a.Locked = false
	a.FailedAttempts = 0
	if err := r.store.RewriteAt(off, a); err != nil {
		return err
	}
	r.logger.Info("account unlocked", "acc_no", accNo)
	return nil
}

// Delete removes the account record by compacting the store. Administrative.
func (r *AccountRepo) Delete(accNo int64) error {
	removed, err := r.store.Compact(func(a Account) bool { return a.AccNo == accNo })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	r.logger.Info("account deleted", "acc_no", accNo)
	return nil
}

// Credit adds cents to the account balance and persists the change.
func (r *AccountRepo) Credit(accNo, cents int64) (Account, error) {
	if cents <= 0 {
		return Account{}, ErrInvalidAmount
	}
	return r.adjustBalance(accNo, cents)
}

// Debit subtracts cents from the account balance, failing with
// ErrInsufficientFunds rather than going negative.
func (r *AccountRepo) Debit(accNo, cents int64) (Account, error) {
	if cents <= 0 {
		return Account{}, ErrInvalidAmount
	}
	return r.adjustBalance(accNo, -cents)
}

// adjustBalance applies delta to the account balance, enforcing that the
// result stays non-negative, and persists the change in place.
func (r *AccountRepo) adjustBalance(accNo int64, delta int64) (Account, error) {
	a, off, err := r.find(accNo)
	if err != nil {
		return Account{}, err
	}
	next := a.BalanceCents + delta
	if next < 0 {
		return Account{}, ErrInsufficientFunds
	}
	a.BalanceCents = next
	if err := r.store.RewriteAt(off, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *AccountRepo) find(accNo int64) (Account, int64, error) {
	a, off, err := r.store.FindFirst(func(a Account) bool { return a.AccNo == accNo })
	if errors.Is(err, recordfile.ErrNotFound) {
		return Account{}, 0, ErrNotFound
	}
	return a, off, err
}
