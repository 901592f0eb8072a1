package tui

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/config"
	"github.com/tellerhq/teller/internal/ledger"
	"github.com/tellerhq/teller/internal/loans"
	"github.com/tellerhq/teller/internal/recordfile"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accStore := recordfile.NewMem[ledger.Account](ledger.AccountCodec{})
	txStore := recordfile.NewMem[ledger.TransactionRecord](ledger.TransactionCodec{})
	loanStore := recordfile.NewMem[loans.Loan](loans.LoanCodec{})

	repo := ledger.NewAccountRepo(accStore, 3, logger)
	log := ledger.NewTransactionLog(txStore, logger)
	rates, err := ledger.ParseRates(nil, logger)
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}

	dir := t.TempDir()
	admin := auth.NewAdminStore(filepath.Join(dir, "admin.dat"))
	if err := admin.Bootstrap("4242"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	cfg := config.Config{
		Data:     config.DataConfig{Dir: dir},
		Ledger:   config.LedgerConfig{DefaultCurrency: "USD", RatesFile: filepath.Join(dir, "rates.toml")},
		Security: config.SecurityConfig{MaxAttempts: 3},
	}

	return New(Deps{
		Cfg:      cfg,
		Accounts: repo,
		Ledger:   &ledger.Service{Accounts: repo, Log: log, Rates: rates, Logger: logger},
		Loans:    &loans.Book{Loans: loanStore, Accounts: repo, Log: log, Logger: logger},
		Admin:    admin,
		Logger:   logger,
	}, false)
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a.Update(msg)
	}
}

func typeText(t *testing.T, a *App, s string) {
	t.Helper()
	for _, r := range s {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestHomeMenuNavigation(t *testing.T) {
	a := newTestApp(t)
	if a.view != viewHome {
		t.Fatalf("initial view = %d, want home", a.view)
	}

	press(t, a, "j", "enter") // Administrator
	if a.view != viewForm {
		t.Fatalf("view = %d, want admin login form", a.view)
	}
	press(t, a, "esc")
	if a.view != viewHome {
		t.Fatalf("esc did not return home, view = %d", a.view)
	}
}

func TestAdminLoginAndOpenAccount(t *testing.T) {
	a := newTestApp(t)

	press(t, a, "j", "enter")
	typeText(t, a, "4242")
	press(t, a, "enter")
	if a.view != viewAdmin || !a.adminMode {
		t.Fatalf("admin login failed: view=%d adminMode=%v status=%q", a.view, a.adminMode, a.status)
	}

	press(t, a, "enter") // Open account
	typeText(t, a, "1001")
	press(t, a, "tab")
	typeText(t, a, "Grace Hopper")
	press(t, a, "tab") // currency, leave default
	press(t, a, "tab")
	typeText(t, a, "50.00")
	press(t, a, "tab")
	typeText(t, a, "1234")
	press(t, a, "enter")

	if a.statusErr {
		t.Fatalf("open account failed: %s", a.status)
	}
	acct, err := a.deps.Accounts.Get(1001)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.BalanceCents != 5000 || acct.Currency != "USD" {
		t.Errorf("account = %+v", acct)
	}
}

func TestWrongAdminPINStaysOnForm(t *testing.T) {
	a := newTestApp(t)
	press(t, a, "j", "enter")
	typeText(t, a, "0000")
	press(t, a, "enter")
	if a.adminMode {
		t.Fatal("wrong PIN entered admin mode")
	}
	if !a.statusErr {
		t.Errorf("expected error status, got %q", a.status)
	}
	if a.view != viewForm {
		t.Errorf("view = %d, want form retained for retry", a.view)
	}
}

func TestCustomerSessionDeposit(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.deps.Accounts.Open(1001, "Ada", "USD", "1234", 0); err != nil {
		t.Fatalf("Open: %v", err)
	}

	press(t, a, "enter") // Customer login
	typeText(t, a, "1001")
	press(t, a, "tab")
	typeText(t, a, "1234")
	press(t, a, "enter")
	if a.view != viewSession {
		t.Fatalf("login failed: view=%d status=%q", a.view, a.status)
	}

	press(t, a, "j", "enter") // Deposit
	typeText(t, a, "25.50")
	press(t, a, "enter")
	if a.statusErr {
		t.Fatalf("deposit failed: %s", a.status)
	}
	if a.session.BalanceCents != 2550 {
		t.Errorf("session balance = %d, want 2550", a.session.BalanceCents)
	}

	view := a.View()
	if !strings.Contains(view, "25.50") {
		t.Errorf("session view missing balance:\n%s", view)
	}
}

func TestPendingLoanDecisionKeys(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.deps.Accounts.Open(1001, "Ada", "USD", "1234", 1000); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := a.deps.Loans.Apply(1001, "1234", 5000); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	press(t, a, "j", "enter")
	typeText(t, a, "4242")
	press(t, a, "enter")

	// Pending loans is the sixth admin item.
	press(t, a, "j", "j", "j", "j", "j", "enter")
	if a.view != viewLoans || len(a.pending) != 1 {
		t.Fatalf("pending view not reached: view=%d pending=%d", a.view, len(a.pending))
	}

	press(t, a, "a")
	if a.statusErr {
		t.Fatalf("approve failed: %s", a.status)
	}
	if len(a.pending) != 0 {
		t.Errorf("pending not refreshed, %d left", len(a.pending))
	}
	acct, _ := a.deps.Accounts.Get(1001)
	if acct.BalanceCents != 6000 {
		t.Errorf("balance after approval = %d, want 6000", acct.BalanceCents)
	}
}
