// Package tui is the interactive menu surface over the ledger. All rules
// live in the ledger, loans and auth packages; this layer only collects
// input, invokes operations and renders outcomes.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/backup"
	"github.com/tellerhq/teller/internal/config"
	"github.com/tellerhq/teller/internal/ledger"
	"github.com/tellerhq/teller/internal/loans"
)

type view int

const (
	viewSetup view = iota
	viewHome
	viewForm
	viewSession
	viewAdmin
	viewHistory
	viewLoans
	viewAccounts
)

// Deps is everything the menu operates on.
type Deps struct {
	Cfg      config.Config
	Accounts *ledger.AccountRepo
	Ledger   *ledger.Service
	Loans    *loans.Book
	Admin    *auth.AdminStore
	Logger   *slog.Logger
}

// App is the bubbletea model.
type App struct {
	deps Deps

	view   view
	cursor int
	form   *form

	// session is the authenticated customer, nil outside a session.
	session *ledger.Account
	// adminMode gates decision keys in the loans view.
	adminMode bool

	status    string
	statusErr bool

	history  []ledger.TransactionRecord
	pending  []loans.Loan
	accounts []ledger.Account
}

// New builds the app. firstRun starts at administrator setup instead of the
// home menu.
func New(deps Deps, firstRun bool) *App {
	a := &App{deps: deps, view: viewHome}
	if firstRun {
		a.view = viewSetup
		a.form = a.setupForm()
	}
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) setStatus(s string) {
	a.status = s
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusErr = true
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if a.form != nil {
			return a, a.form.update(msg)
		}
		return a, nil
	}

	if key.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.view {
	case viewSetup, viewForm:
		return a.updateForm(key)
	case viewHome:
		return a.updateMenu(key, homeMenu, a.selectHome)
	case viewSession:
		return a.updateMenu(key, sessionMenu, a.selectSession)
	case viewAdmin:
		return a.updateMenu(key, adminMenu, a.selectAdmin)
	case viewHistory, viewAccounts:
		if key.String() == "esc" || key.String() == "q" {
			a.leaveList()
		}
		return a, nil
	case viewLoans:
		return a.updateLoans(key)
	}
	return a, nil
}

func (a *App) updateForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.form
	switch key.String() {
	case "esc":
		if a.view == viewSetup {
			// Setup cannot be skipped; without an admin credential there
			// is no way to manage accounts.
			return a, nil
		}
		a.form = nil
		a.view = f.back
		a.cursor = 0
		return a, nil
	case "tab", "down":
		f.cycle(1)
		return a, nil
	case "shift+tab", "up":
		f.cycle(-1)
		return a, nil
	case "enter":
		if f.focus < len(f.fields)-1 {
			f.cycle(1)
			return a, nil
		}
		status, err := f.submit(f.values())
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.setStatus(status)
		// A submit handler may have already moved to another view and
		// cleared the form; only fall back when it has not.
		if a.form == f {
			a.form = nil
			a.view = f.back
			a.cursor = 0
		}
		return a, nil
	}
	return a, f.update(key)
}

func (a *App) updateMenu(key tea.KeyMsg, items []string, selectItem func(int) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(items)-1 {
			a.cursor++
		}
	case "enter":
		return selectItem(a.cursor)
	case "q", "esc":
		switch a.view {
		case viewHome:
			return a, tea.Quit
		case viewSession:
			a.endSession()
		case viewAdmin:
			a.adminMode = false
			a.view = viewHome
			a.cursor = 0
		}
	}
	return a, nil
}

func (a *App) updateLoans(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "q":
		a.leaveList()
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.pending)-1 {
			a.cursor++
		}
	case "a", "r":
		if !a.adminMode || len(a.pending) == 0 {
			return a, nil
		}
		loan := a.pending[a.cursor]
		decided, err := a.deps.Loans.Decide(loan.ID, key.String() == "a")
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.setStatus(fmt.Sprintf("loan %s %s", shortID(decided.ID), decided.Status))
		a.reloadPending()
	}
	return a, nil
}

func (a *App) leaveList() {
	switch {
	case a.adminMode:
		a.view = viewAdmin
	case a.session != nil:
		a.view = viewSession
	default:
		a.view = viewHome
	}
	a.cursor = 0
}

func (a *App) endSession() {
	a.session = nil
	a.view = viewHome
	a.cursor = 0
	a.setStatus("logged out")
}

var homeMenu = []string{"Customer login", "Administrator", "Quit"}

var sessionMenu = []string{
	"Balance",
	"Deposit",
	"Withdraw",
	"Transfer",
	"History",
	"My loans",
	"Apply for loan",
	"Repay loan",
	"Log out",
}

var adminMenu = []string{
	"Open account",
	"Delete account",
	"Unlock account",
	"Find account",
	"List accounts",
	"Pending loans",
	"Backup data",
	"Log out",
}

func (a *App) selectHome(i int) (tea.Model, tea.Cmd) {
	switch homeMenu[i] {
	case "Customer login":
		a.form = a.loginForm()
		a.view = viewForm
	case "Administrator":
		a.form = a.adminLoginForm()
		a.view = viewForm
	case "Quit":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) selectSession(i int) (tea.Model, tea.Cmd) {
	acc := a.session
	switch sessionMenu[i] {
	case "Balance":
		fresh, err := a.deps.Accounts.Get(acc.AccNo)
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.session = &fresh
		a.setStatus(fmt.Sprintf("balance: %s %s", ledger.FormatCents(fresh.BalanceCents), fresh.Currency))
	case "Deposit":
		a.form = a.amountForm("Deposit", viewSession, func(cents int64) (string, error) {
			updated, err := a.deps.Ledger.Deposit(acc.AccNo, cents)
			if err != nil {
				return "", err
			}
			a.session = &updated
			return "deposited " + ledger.FormatCents(cents) + " " + updated.Currency, nil
		})
		a.view = viewForm
	case "Withdraw":
		a.form = a.amountForm("Withdraw", viewSession, func(cents int64) (string, error) {
			updated, err := a.deps.Ledger.Withdraw(acc.AccNo, cents)
			if err != nil {
				return "", err
			}
			a.session = &updated
			return "withdrew " + ledger.FormatCents(cents) + " " + updated.Currency, nil
		})
		a.view = viewForm
	case "History":
		hist, err := a.deps.Ledger.History(acc.AccNo)
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.history = hist
		a.view = viewHistory
		a.cursor = 0
	case "Transfer":
		a.form = a.transferForm()
		a.view = viewForm
	case "My loans":
		ls, err := a.deps.Loans.ForAccount(acc.AccNo)
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.pending = ls
		a.view = viewLoans
		a.cursor = 0
	case "Apply for loan":
		a.form = a.loanApplyForm()
		a.view = viewForm
	case "Repay loan":
		a.form = a.loanRepayForm()
		a.view = viewForm
	case "Log out":
		a.endSession()
	}
	return a, nil
}

func (a *App) selectAdmin(i int) (tea.Model, tea.Cmd) {
	switch adminMenu[i] {
	case "Open account":
		a.form = a.openAccountForm()
		a.view = viewForm
	case "Delete account":
		a.form = a.deleteAccountForm()
		a.view = viewForm
	case "Unlock account":
		a.form = a.unlockForm()
		a.view = viewForm
	case "Find account":
		a.form = a.searchForm()
		a.view = viewForm
	case "List accounts":
		all, err := a.deps.Accounts.List()
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.accounts = all
		a.view = viewAccounts
		a.cursor = 0
	case "Pending loans":
		a.reloadPending()
		a.view = viewLoans
		a.cursor = 0
	case "Backup data":
		a.form = a.backupForm()
		a.view = viewForm
	case "Log out":
		a.adminMode = false
		a.view = viewHome
		a.cursor = 0
		a.setStatus("administrator logged out")
	}
	return a, nil
}

func (a *App) reloadPending() {
	pending, err := a.deps.Loans.Pending()
	if err != nil {
		a.setError(err)
		return
	}
	a.pending = pending
	if a.cursor >= len(pending) {
		a.cursor = 0
	}
}

func (a *App) setupForm() *form {
	return newForm("First run: set administrator PIN", viewHome, []fieldSpec{
		{label: "Administrator PIN", secret: true},
		{label: "Confirm PIN", secret: true},
	}, func(v []string) (string, error) {
		if v[0] == "" {
			return "", errors.New("PIN must not be empty")
		}
		if v[0] != v[1] {
			return "", errors.New("PINs do not match")
		}
		if err := a.deps.Admin.Bootstrap(v[0]); err != nil {
			return "", err
		}
		return "administrator credential stored", nil
	})
}

func (a *App) loginForm() *form {
	return newForm("Customer login", viewHome, []fieldSpec{
		{label: "Account number", placeholder: "e.g. 1001", limit: 12},
		{label: "PIN", secret: true},
	}, func(v []string) (string, error) {
		accNo, err := parseAccNo(v[0])
		if err != nil {
			return "", err
		}
		if err := a.deps.Accounts.Authenticate(accNo, v[1]); err != nil {
			return "", err
		}
		acct, err := a.deps.Accounts.Get(accNo)
		if err != nil {
			return "", err
		}
		a.session = &acct
		a.form = nil
		a.view = viewSession
		a.cursor = 0
		return "welcome, " + acct.Name, nil
	})
}

func (a *App) adminLoginForm() *form {
	return newForm("Administrator login", viewHome, []fieldSpec{
		{label: "Administrator PIN", secret: true},
	}, func(v []string) (string, error) {
		if err := a.deps.Admin.Authenticate(v[0]); err != nil {
			return "", err
		}
		a.adminMode = true
		a.form = nil
		a.view = viewAdmin
		a.cursor = 0
		return "administrator mode", nil
	})
}

func (a *App) amountForm(title string, back view, apply func(cents int64) (string, error)) *form {
	return newForm(title, back, []fieldSpec{
		{label: "Amount", placeholder: "0.00", limit: 16},
	}, func(v []string) (string, error) {
		cents, err := ledger.ParseAmount(v[0])
		if err != nil {
			return "", err
		}
		return apply(cents)
	})
}

func (a *App) transferForm() *form {
	acc := a.session
	return newForm("Transfer", viewSession, []fieldSpec{
		{label: "Receiver account number", limit: 12},
		{label: "Amount", placeholder: "0.00", limit: 16},
		{label: "PIN", secret: true},
	}, func(v []string) (string, error) {
		receiver, err := parseAccNo(v[0])
		if err != nil {
			return "", err
		}
		cents, err := ledger.ParseAmount(v[1])
		if err != nil {
			return "", err
		}
		rec, err := a.deps.Ledger.Transfer(acc.AccNo, v[2], receiver, cents)
		if err != nil {
			return "", err
		}
		if updated, err := a.deps.Accounts.Get(acc.AccNo); err == nil {
			a.session = &updated
		}
		if rec.DebitedCents == rec.CreditedCents {
			return fmt.Sprintf("sent %s to account %d", ledger.FormatCents(rec.DebitedCents), receiver), nil
		}
		return fmt.Sprintf("sent %s, credited %s at rate %s",
			ledger.FormatCents(rec.DebitedCents), ledger.FormatCents(rec.CreditedCents), rec.Rate.String()), nil
	})
}

func (a *App) loanApplyForm() *form {
	acc := a.session
	return newForm("Apply for loan", viewSession, []fieldSpec{
		{label: "Principal amount", placeholder: "0.00", limit: 16},
		{label: "PIN", secret: true},
	}, func(v []string) (string, error) {
		cents, err := ledger.ParseAmount(v[0])
		if err != nil {
			return "", err
		}
		loan, err := a.deps.Loans.Apply(acc.AccNo, v[1], cents)
		if err != nil {
			return "", err
		}
		return "application " + shortID(loan.ID) + " filed", nil
	})
}

func (a *App) loanRepayForm() *form {
	acc := a.session
	return newForm("Repay loan", viewSession, []fieldSpec{
		{label: "Repayment amount", placeholder: "0.00", limit: 16},
		{label: "PIN", secret: true},
	}, func(v []string) (string, error) {
		cents, err := ledger.ParseAmount(v[0])
		if err != nil {
			return "", err
		}
		loan, err := a.deps.Loans.Repay(acc.AccNo, v[1], cents)
		if err != nil {
			return "", err
		}
		if updated, err := a.deps.Accounts.Get(acc.AccNo); err == nil {
			a.session = &updated
		}
		if loan.Status == loans.StatusRepaid {
			return "loan fully repaid", nil
		}
		return "outstanding: " + ledger.FormatCents(loan.Outstanding()), nil
	})
}

func (a *App) openAccountForm() *form {
	return newForm("Open account", viewAdmin, []fieldSpec{
		{label: "Account number", limit: 12},
		{label: "Holder name", limit: 64},
		{label: "Currency", placeholder: a.deps.Cfg.Ledger.DefaultCurrency, limit: 3},
		{label: "Initial balance", placeholder: "0.00", limit: 16},
		{label: "PIN", secret: true},
	}, func(v []string) (string, error) {
		accNo, err := parseAccNo(v[0])
		if err != nil {
			return "", err
		}
		currency := v[2]
		if currency == "" {
			currency = a.deps.Cfg.Ledger.DefaultCurrency
		}
		var initial int64
		if v[3] != "" {
			if initial, err = ledger.ParseAmount(v[3]); err != nil {
				return "", err
			}
		}
		acct, err := a.deps.Accounts.Open(accNo, v[1], currency, v[4], initial)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("account %d opened for %s", acct.AccNo, acct.Name), nil
	})
}

func (a *App) deleteAccountForm() *form {
	return newForm("Delete account", viewAdmin, []fieldSpec{
		{label: "Account number", limit: 12},
		{label: "Type DELETE to confirm", limit: 6},
	}, func(v []string) (string, error) {
		accNo, err := parseAccNo(v[0])
		if err != nil {
			return "", err
		}
		if v[1] != "DELETE" {
			return "", errors.New("not confirmed")
		}
		if err := a.deps.Accounts.Delete(accNo); err != nil {
			return "", err
		}
		return fmt.Sprintf("account %d deleted", accNo), nil
	})
}

func (a *App) unlockForm() *form {
	return newForm("Unlock account", viewAdmin, []fieldSpec{
		{label: "Account number", limit: 12},
	}, func(v []string) (string, error) {
		accNo, err := parseAccNo(v[0])
		if err != nil {
			return "", err
		}
		if err := a.deps.Accounts.Unlock(accNo); err != nil {
			return "", err
		}
		return fmt.Sprintf("account %d unlocked", accNo), nil
	})
}

func (a *App) searchForm() *form {
	return newForm("Find account", viewAdmin, []fieldSpec{
		{label: "Holder name", limit: 64},
	}, func(v []string) (string, error) {
		found, err := a.deps.Accounts.SearchByName(v[0])
		if err != nil {
			return "", err
		}
		a.accounts = found
		a.form = nil
		a.view = viewAccounts
		a.cursor = 0
		return fmt.Sprintf("%d accounts", len(found)), nil
	})
}

func (a *App) backupForm() *form {
	defaultDest := filepath.Join(a.deps.Cfg.Data.Dir, "backups")
	return newForm("Backup data", viewAdmin, []fieldSpec{
		{label: "Destination directory", placeholder: defaultDest, limit: 128},
	}, func(v []string) (string, error) {
		dest := v[0]
		if dest == "" {
			dest = defaultDest
		}
		names := []string{
			filepath.Base(a.deps.Cfg.AccountsFile()),
			filepath.Base(a.deps.Cfg.TransactionsFile()),
			filepath.Base(a.deps.Cfg.LoansFile()),
			filepath.Base(a.deps.Cfg.AdminFile()),
			filepath.Base(a.deps.Cfg.Ledger.RatesFile),
		}
		created, err := backup.Run(a.deps.Cfg.Data.Dir, dest, names)
		if err != nil {
			return "", err
		}
		return "backup written to " + created, nil
	})
}

func parseAccNo(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid account number %q", s)
	}
	return n, nil
}

func shortID(id [16]byte) string {
	return fmt.Sprintf("%x", id[:4])
}
