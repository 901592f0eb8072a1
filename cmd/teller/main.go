package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tellerhq/teller/internal/auth"
	"github.com/tellerhq/teller/internal/config"
	"github.com/tellerhq/teller/internal/ledger"
	"github.com/tellerhq/teller/internal/loans"
	"github.com/tellerhq/teller/internal/recordfile"
	"github.com/tellerhq/teller/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}

	// The terminal belongs to the TUI, so logs go to a file in the data dir.
	logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, nil))
	slog.SetDefault(logger)

	rates, err := ledger.LoadRates(cfg.Ledger.RatesFile, logger)
	if err != nil {
		log.Fatalf("rates: %v", err)
	}

	// stores
	accStore := recordfile.NewFile[ledger.Account](cfg.AccountsFile(), ledger.AccountCodec{})
	txStore := recordfile.NewFile[ledger.TransactionRecord](cfg.TransactionsFile(), ledger.TransactionCodec{})
	loanStore := recordfile.NewFile[loans.Loan](cfg.LoansFile(), loans.LoanCodec{})
	admin := auth.NewAdminStore(cfg.AdminFile())

	accounts := ledger.NewAccountRepo(accStore, cfg.Security.MaxAttempts, logger)
	txLog := ledger.NewTransactionLog(txStore, logger)

	svc := &ledger.Service{Accounts: accounts, Log: txLog, Rates: rates, Logger: logger}
	book := &loans.Book{Loans: loanStore, Accounts: accounts, Log: txLog, Logger: logger}

	exists, err := admin.Exists()
	if err != nil {
		log.Fatalf("admin credential: %v", err)
	}
	firstRun := !exists
	logger.Info("teller starting", "data_dir", cfg.Data.Dir, "first_run", firstRun)

	app := tui.New(tui.Deps{
		Cfg:      cfg,
		Accounts: accounts,
		Ledger:   svc,
		Loans:    book,
		Admin:    admin,
		Logger:   logger,
	}, firstRun)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
