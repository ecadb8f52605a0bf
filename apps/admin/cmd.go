package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/classfence/apps/api/echo"
	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
	"github.com/trezcool/classfence/storage/database"
)

var (
	// mockable
	migrateFunc    = database.RunMigration
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	errHelp = errors.New("help provided")
	errNoDB = errors.New("this command needs a postgres database")
)

type commandLine struct {
	out         io.Writer
	conf        *core.Config
	db          *sql.DB                   // nil when running in memory
	trackingSvc tracking.ServiceInterface // nil when running in memory
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [VERSION]            - run migrations (up, up-by-one, up-to, down, down-to, redo)")
	_, _ = fmt.Fprintln(cli.out, "  alerts [-json]                       - list unresolved alerts, newest first")
	_, _ = fmt.Fprintln(cli.out, "  resolve -subject ID -alert ID        - resolve a student's alert")
	_, _ = fmt.Fprintln(cli.out, "  token -subject ID [-role ROLE]       - issue an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	alertsCmd := flag.NewFlagSet("alerts", flag.ContinueOnError)
	alertsJSON := alertsCmd.Bool("json", false, "Print the alerts as JSON (default when stdout is not a terminal).")

	resolveCmd := flag.NewFlagSet("resolve", flag.ContinueOnError)
	resolveSubject := resolveCmd.String("subject", "", "The student's ID.")
	resolveAlert := resolveCmd.String("alert", "", "The alert's ID.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenSubject := tokenCmd.String("subject", "", "The user's ID.")
	tokenRole := tokenCmd.String("role", core.RoleStudent, "The user's role (admin:, teacher: or student:).")

	for _, fs := range []*flag.FlagSet{alertsCmd, resolveCmd, tokenCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if cli.db == nil {
			return errNoDB
		}
		return migrateFunc(cli.db, args[2], args[3:]...)
	case "alerts":
		if err := alertsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if cli.db == nil {
			return errNoDB
		}
		return cli.listAlerts(*alertsJSON || !isTerminalFunc())
	case "resolve":
		if err := resolveCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if core.CleanString(*resolveSubject) == "" || core.CleanString(*resolveAlert) == "" {
			resolveCmd.Usage()
			return errHelp
		}
		if cli.db == nil {
			return errNoDB
		}
		return cli.resolveAlert(*resolveSubject, *resolveAlert)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if core.CleanString(*tokenSubject) == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.issueToken(*tokenSubject, *tokenRole)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) listAlerts(asJSON bool) error {
	alerts, err := cli.trackingSvc.ActiveAlerts(context.Background())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(alerts)
	}

	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(cli.out, "No unresolved alerts.")
		return nil
	}
	for _, a := range alerts {
		_, _ = fmt.Fprintf(cli.out, "%s  %-12s %-12s %-36s %s\n",
			a.Timestamp.Local().Format(time.RFC3339), a.SubjectID, a.BoundaryID, a.ID, a.Message)
	}
	return nil
}

func (cli *commandLine) resolveAlert(subjectID, alertID string) error {
	entry, err := cli.trackingSvc.ResolveAlert(context.Background(), subjectID, alertID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "Alert %s of %s resolved.\n", entry.ID, entry.SubjectID)
	return nil
}

func (cli *commandLine) issueToken(subjectID, role string) error {
	token, err := echoapi.GenerateToken(echoapi.NewClaims(cli.conf, subjectID, subjectID, role), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, token)
	return nil
}
