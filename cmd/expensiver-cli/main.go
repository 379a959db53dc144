// Command expensiver-cli talks to an Expensiver server from the terminal.
// The session is stored under the user's home directory, so logging in once
// is enough.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/client"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
	applog "github.com/tejaperfect/expensiver1-sub002/internal/log"
)

const usage = `Usage: expensiver-cli <command> [flags]

Commands:
  register    create an account and log in
  login       log in
  logout      log out
  whoami      show the logged-in user
  expense     add | list | summary | delete
  group       create | join | list | show | add-expense | balances | settlements
  wallet      show | topup | transactions
  export      run an export and download the CSV

The server address comes from EXPENSIVER_URL (default http://localhost:8080).`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if os.Getenv("EXPENSIVER_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := applog.New(applog.Config{
		Level:     logLevel,
		Component: applog.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}),
	})

	sessionPath, err := client.DefaultSessionPath()
	if err != nil {
		fatal(err)
	}
	tokens, err := client.NewTokenStore(sessionPath)
	if err != nil {
		fatal(err)
	}

	baseURL := os.Getenv("EXPENSIVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := client.New(baseURL, tokens, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, c, os.Args[1], os.Args[2:]); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	if errors.Is(err, client.ErrSessionExpired) {
		fmt.Fprintln(os.Stderr, "Error: session expired, run `expensiver-cli login` again")
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func run(ctx context.Context, c *client.Client, command string, args []string) error {
	switch command {
	case "register":
		return cmdRegister(ctx, c, args)
	case "login":
		return cmdLogin(ctx, c, args)
	case "logout":
		return c.Auth.Logout(ctx)
	case "whoami":
		return cmdWhoami(ctx, c)
	case "expense":
		return cmdExpense(ctx, c, args)
	case "group":
		return cmdGroup(ctx, c, args)
	case "wallet":
		return cmdWallet(ctx, c, args)
	case "export":
		return cmdExport(ctx, c, args)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func cmdRegister(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (min 8 characters)")
	fs.Parse(args)

	user, err := c.Auth.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Registered and logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdLogin(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := c.Auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdWhoami(ctx context.Context, c *client.Client) error {
	user, err := c.Auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdExpense(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("expense needs a subcommand: add, list, summary, delete")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		fs := flag.NewFlagSet("expense add", flag.ExitOnError)
		date := fs.String("date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
		desc := fs.String("desc", "", "description")
		amount := fs.String("amount", "", "amount, e.g. 12.34")
		category := fs.String("category", core.CategoryGeneral, "category")
		fs.Parse(rest)

		expense, err := c.Expenses.Create(ctx, api.CreateExpenseRequest{
			Date:        *date,
			Description: *desc,
			Amount:      *amount,
			Category:    *category,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %s: %s %s (%s)\n", expense.Date, expense.Description, core.FormatCents(expense.AmountCents), expense.Category)
		return nil

	case "list":
		fs := flag.NewFlagSet("expense list", flag.ExitOnError)
		year := fs.Int("year", 0, "filter by year")
		month := fs.Int("month", 0, "filter by month (1-12)")
		category := fs.String("category", "", "filter by category")
		fs.Parse(rest)

		expenses, err := c.Expenses.List(ctx, client.ExpenseFilter{Year: *year, Month: *month, Category: *category})
		if err != nil {
			return err
		}
		for _, e := range expenses {
			fmt.Printf("%s  %-9s %-30s %s  %s\n", e.Date, core.FormatCents(e.AmountCents), e.Description, e.Category, e.ID)
		}
		fmt.Printf("%d expense(s)\n", len(expenses))
		return nil

	case "summary":
		fs := flag.NewFlagSet("expense summary", flag.ExitOnError)
		year := fs.Int("year", 0, "year (default current)")
		month := fs.Int("month", 0, "month 1-12 (default current)")
		fs.Parse(rest)

		sum, err := c.Expenses.Summary(ctx, *year, *month)
		if err != nil {
			return err
		}
		fmt.Printf("%04d-%02d: %s across %d expense(s)\n", sum.Year, sum.Month, core.FormatCents(sum.TotalCents), sum.Count)
		for _, cat := range sum.Categories {
			fmt.Printf("  %-20s %s\n", cat.Name, core.FormatCents(cat.AmountCents))
		}
		return nil

	case "delete":
		fs := flag.NewFlagSet("expense delete", flag.ExitOnError)
		id := fs.String("id", "", "expense id")
		fs.Parse(rest)

		expenseID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("invalid expense id: %w", err)
		}
		if err := c.Expenses.Delete(ctx, expenseID); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil

	default:
		return fmt.Errorf("unknown expense subcommand %q", sub)
	}
}

func cmdGroup(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("group needs a subcommand: create, join, list, show, add-expense, balances, settlements")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "create":
		fs := flag.NewFlagSet("group create", flag.ExitOnError)
		name := fs.String("name", "", "group name")
		currency := fs.String("currency", "EUR", "3-letter currency code")
		fs.Parse(rest)

		group, err := c.Groups.Create(ctx, *name, *currency)
		if err != nil {
			return err
		}
		fmt.Printf("Created group %q (%s), invite code %s\n", group.Name, group.ID, group.InviteCode)
		return nil

	case "join":
		fs := flag.NewFlagSet("group join", flag.ExitOnError)
		code := fs.String("code", "", "invite code")
		fs.Parse(rest)

		group, err := c.Groups.Join(ctx, *code)
		if err != nil {
			return err
		}
		fmt.Printf("Joined %q with %d member(s)\n", group.Name, len(group.Members))
		return nil

	case "list":
		groups, err := c.Groups.List(ctx)
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%-25s %s  %d member(s)  %s\n", g.Name, g.Currency, len(g.Members), g.ID)
		}
		return nil

	case "show":
		group, err := c.Groups.Get(ctx, parseGroupID(rest))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s), invite code %s\n", group.Name, group.Currency, group.InviteCode)
		for _, m := range group.Members {
			fmt.Printf("  %s (joined %s)\n", m.Name, m.JoinedAt.Format("2006-01-02"))
		}
		return nil

	case "add-expense":
		fs := flag.NewFlagSet("group add-expense", flag.ExitOnError)
		id := fs.String("id", "", "group id")
		date := fs.String("date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
		desc := fs.String("desc", "", "description")
		amount := fs.String("amount", "", "amount, e.g. 12.34")
		category := fs.String("category", core.CategoryGeneral, "category")
		fs.Parse(rest)

		groupID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("invalid group id: %w", err)
		}
		expense, err := c.Groups.AddExpense(ctx, groupID, api.CreateGroupExpenseRequest{
			Date:        *date,
			Description: *desc,
			Amount:      *amount,
			Category:    *category,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %s split across %d member(s)\n", core.FormatCents(expense.AmountCents), len(expense.Shares))
		return nil

	case "balances":
		balances, err := c.Groups.Balances(ctx, parseGroupID(rest))
		if err != nil {
			return err
		}
		for _, b := range balances {
			fmt.Printf("%s  %s\n", b.UserID, core.FormatCents(b.NetCents))
		}
		return nil

	case "settlements":
		transfers, err := c.Groups.Settlements(ctx, parseGroupID(rest))
		if err != nil {
			return err
		}
		if len(transfers) == 0 {
			fmt.Println("All settled")
			return nil
		}
		for _, t := range transfers {
			fmt.Printf("%s pays %s to %s\n", t.From, core.FormatCents(t.AmountCents), t.To)
		}
		return nil

	default:
		return fmt.Errorf("unknown group subcommand %q", sub)
	}
}

// parseGroupID reads -id from args, exiting with a usage message when it is
// missing or malformed.
func parseGroupID(args []string) uuid.UUID {
	fs := flag.NewFlagSet("group", flag.ExitOnError)
	id := fs.String("id", "", "group id")
	fs.Parse(args)

	groupID, err := uuid.Parse(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid group id %q\n", *id)
		os.Exit(2)
	}
	return groupID
}

func cmdWallet(ctx context.Context, c *client.Client, args []string) error {
	sub := "show"
	rest := args
	if len(args) > 0 {
		sub, rest = args[0], args[1:]
	}

	switch sub {
	case "show":
		wallet, err := c.Wallet.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Balance: %s\n", core.FormatCents(wallet.BalanceCents))
		return nil

	case "topup":
		fs := flag.NewFlagSet("wallet topup", flag.ExitOnError)
		amount := fs.String("amount", "", "amount, e.g. 50.00")
		desc := fs.String("desc", "top up", "description")
		fs.Parse(rest)

		txn, err := c.Wallet.TopUp(ctx, *amount, *desc)
		if err != nil {
			return err
		}
		fmt.Printf("Credited %s\n", core.FormatCents(txn.AmountCents))
		return nil

	case "transactions":
		txns, err := c.Wallet.Transactions(ctx)
		if err != nil {
			return err
		}
		for _, t := range txns {
			sign := "+"
			if t.Kind == "debit" {
				sign = "-"
			}
			fmt.Printf("%s  %s%-9s %s\n", t.CreatedAt.Format("2006-01-02"), sign, core.FormatCents(t.AmountCents), t.Description)
		}
		return nil

	default:
		return fmt.Errorf("unknown wallet subcommand %q", sub)
	}
}

func cmdExport(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	year := fs.Int("year", time.Now().Year(), "year to export")
	month := fs.Int("month", 0, "month 1-12, 0 for the whole year")
	dir := fs.String("dir", ".", "download directory")
	fs.Parse(args)

	job, err := c.Exports.Create(ctx, *year, *month)
	if err != nil {
		return err
	}
	fmt.Printf("Export %s queued...\n", job.ID)

	job, err = c.Exports.Wait(ctx, job.ID, 500*time.Millisecond)
	if err != nil {
		return err
	}

	path, err := c.Exports.Download(ctx, job.ID, *dir)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}
