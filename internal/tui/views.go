package tui

import (
	"fmt"
	"strings"

	"github.com/tellerhq/teller/internal/ledger"
)

func (a *App) View() string {
	var body string
	switch a.view {
	case viewSetup, viewForm:
		body = a.form.view()
	case viewHome:
		body = a.renderMenu("Teller", homeMenu)
	case viewSession:
		body = a.renderSession()
	case viewAdmin:
		body = a.renderMenu("Administration", adminMenu)
	case viewHistory:
		body = a.renderHistory()
	case viewLoans:
		body = a.renderLoans()
	case viewAccounts:
		body = a.renderAccounts()
	}
	return body + "\n" + a.renderStatus() + "\n"
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	if a.statusErr {
		return statusErrStyle.Render(a.status)
	}
	return statusOKStyle.Render(a.status)
}

func (a *App) renderMenu(title string, items []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	for i, item := range items {
		if i == a.cursor {
			b.WriteString(menuSelectedStyle.Render("> " + item))
		} else {
			b.WriteString(menuItemStyle.Render(item))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: move • enter: select • q: back"))
	return b.String()
}

func (a *App) renderSession() string {
	acc := a.session
	header := fmt.Sprintf("%s  ·  account %d  ·  %s %s",
		acc.Name, acc.AccNo, balanceStyle.Render(ledger.FormatCents(acc.BalanceCents)), acc.Currency)
	return titleStyle.Render(header) + "\n\n" + a.renderMenu("", sessionMenu)
}

func (a *App) renderHistory() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	b.WriteString("\n\n")
	if len(a.history) == 0 {
		b.WriteString(labelStyle.Render("no transactions yet"))
		b.WriteString("\n")
	}
	for _, tx := range a.history {
		line := fmt.Sprintf("%s  %-13s %10s %s",
			tx.Time.Format("2006-01-02 15:04"), tx.Kind, ledger.FormatCents(tx.AmountCents), tx.Currency)
		if tx.Counterparty != 0 {
			line += fmt.Sprintf("  (account %d)", tx.Counterparty)
		}
		b.WriteString(menuItemStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: back"))
	return b.String()
}

func (a *App) renderLoans() string {
	var b strings.Builder
	if a.adminMode {
		b.WriteString(titleStyle.Render("Pending loans"))
	} else {
		b.WriteString(titleStyle.Render("Loans"))
	}
	b.WriteString("\n\n")
	if len(a.pending) == 0 {
		b.WriteString(labelStyle.Render("no loans"))
		b.WriteString("\n")
	}
	for i, loan := range a.pending {
		line := fmt.Sprintf("%s  account %-6d %10s  %-8s outstanding %s",
			shortID(loan.ID), loan.AccNo, ledger.FormatCents(loan.AmountCents),
			loan.Status, ledger.FormatCents(loan.Outstanding()))
		if i == a.cursor {
			b.WriteString(menuSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(menuItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if a.adminMode {
		b.WriteString(helpStyle.Render("j/k: move • a: approve • r: reject • q: back"))
	} else {
		b.WriteString(helpStyle.Render("q: back"))
	}
	return b.String()
}

func (a *App) renderAccounts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n\n")
	if len(a.accounts) == 0 {
		b.WriteString(labelStyle.Render("no accounts"))
		b.WriteString("\n")
	}
	for _, acct := range a.accounts {
		state := ""
		if acct.Locked {
			state = statusErrStyle.Render("  LOCKED")
		}
		line := fmt.Sprintf("%-8d %-24s %10s %s%s",
			acct.AccNo, acct.Name, ledger.FormatCents(acct.BalanceCents), acct.Currency, state)
		b.WriteString(menuItemStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: back"))
	return b.String()
}
