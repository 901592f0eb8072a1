package ledger

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/recordfile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAccounts(t *testing.T) (*AccountRepo, *recordfile.MemStore[Account]) {
	t.Helper()
	store := recordfile.NewMem[Account](AccountCodec{})
	return NewAccountRepo(store, 3, testLogger()), store
}

func TestOpenRejectsDuplicateAccNo(t *testing.T) {
	repo, store := newTestAccounts(t)
	if _, err := repo.Open(100, "Ada", "USD", "1234", 5000); err != nil {
		t.Fatalf("Open: %v", err)
	}
	before, _ := store.Count()

	if _, err := repo.Open(100, "Impostor", "USD", "0000", 0); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Open = %v, want ErrAlreadyExists", err)
	}
	after, _ := store.Count()
	if before != after {
		t.Fatalf("record count changed on rejected open: %d -> %d", before, after)
	}
}

func TestOpenValidation(t *testing.T) {
	repo, _ := newTestAccounts(t)
	if _, err := repo.Open(1, "Ada", "usd ", "1234", 0); err != nil {
		t.Fatalf("currency should be normalised: %v", err)
	}
	if _, err := repo.Open(2, "Ada", "US", "1234", 0); err == nil {
		t.Fatal("two-letter currency accepted")
	}
	if _, err := repo.Open(3, "", "USD", "1234", 0); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := repo.Open(4, "Ada", "USD", "1234", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative initial balance = %v, want ErrInvalidAmount", err)
	}
}

func TestAuthenticateLockoutMachine(t *testing.T) {
	repo, _ := newTestAccounts(t)
	if _, err := repo.Open(7, "Grace", "USD", "right", 0); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Two failures stay active.
	for i := 0; i < 2; i++ {
		if err := repo.Authenticate(7, "wrong"); !errors.Is(err, auth.ErrWrongCredential) {
			t.Fatalf("attempt %d = %v, want ErrWrongCredential", i+1, err)
		}
	}
	a, _ := repo.Get(7)
	if a.Locked {
		t.Fatal("locked after two failures")
	}
	if a.FailedAttempts != 2 {
		t.Fatalf("failed_attempts = %d, want 2", a.FailedAttempts)
	}

	// Third failure locks.
	if err := repo.Authenticate(7, "wrong"); !errors.Is(err, auth.ErrWrongCredential) {
		t.Fatalf("third attempt = %v, want ErrWrongCredential", err)
	}
	a, _ = repo.Get(7)
	if !a.Locked {
		t.Fatal("not locked after three failures")
	}

	// Locked rejects even the correct secret.
	if err := repo.Authenticate(7, "right"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked auth = %v, want ErrAccountLocked", err)
	}

	// Admin unlock restores Active(0).
	if err := repo.Unlock(7); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	a, _ = repo.Get(7)
	if a.Locked || a.FailedAttempts != 0 {
		t.Fatalf("after unlock: locked=%v attempts=%d", a.Locked, a.FailedAttempts)
	}
	if err := repo.Unlock(7); err != nil {
		t.Fatalf("Unlock should be idempotent: %v", err)
	}
}

func TestAuthenticateSuccessResetsCounter(t *testing.T) {
	repo, _ := newTestAccounts(t)
	if _, err := repo.Open(9, "Edsger", "USD", "pin", 0); err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = repo.Authenticate(9, "bad")
	_ = repo.Authenticate(9, "bad")
	if err := repo.Authenticate(9, "pin"); err != nil {
		t.Fatalf("correct secret after failures: %v", err)
	}
	a, _ := repo.Get(9)
	if a.FailedAttempts != 0 {
		t.Fatalf("failed_attempts = %d, want 0", a.FailedAttempts)
	}
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	repo, _ := newTestAccounts(t)
	if err := repo.Authenticate(404, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Authenticate = %v, want ErrNotFound", err)
	}
}

func TestDeleteCompactsExactlyOne(t *testing.T) {
	repo, store := newTestAccounts(t)
	for i := int64(1); i <= 3; i++ {
		if _, err := repo.Open(i, "acct", "USD", "p", 100*i); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}
	if err := repo.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, _ := store.Count()
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	all, _ := repo.List()
	if all[0].AccNo != 1 || all[1].AccNo != 3 {
		t.Fatalf("relative order disturbed: %+v", all)
	}
	if all[0].BalanceCents != 100 || all[1].BalanceCents != 300 {
		t.Fatal("surviving records mutated")
	}
	if err := repo.Delete(2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestSearchByNameRanksCloseMatchesFirst(t *testing.T) {
	repo, _ := newTestAccounts(t)
	names := []string{"Margaret Hamilton", "Grace Hopper", "Radia Perlman"}
	for i, n := range names {
		if _, err := repo.Open(int64(i+1), n, "USD", "p", 0); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}
	got, err := repo.SearchByName("hopper")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "Grace Hopper" {
		t.Fatalf("first result = %q, want Grace Hopper", got[0].Name)
	}
}
