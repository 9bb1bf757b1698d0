package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/user"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	conf      *core.Config
	in        io.Reader
	out       io.Writer
	userSvc   *user.Service
	dinnerSvc *dinner.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  archive [-by NAME] [-due] [-yes]  - archive the current dinner and promote the next one")
	fmt.Fprintln(cli.out, "  setadmin -name NAME [-revoke]     - grant (or revoke) admin rights")
	fmt.Fprintln(cli.out, "  users                             - list users")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]            - run a database migration command (sqlite, postgres)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	archiveCmd := flag.NewFlagSet("archive", flag.ContinueOnError)
	archiveCmd.SetOutput(cli.out)
	archiveBy := archiveCmd.String("by", "admin", "Name recorded as the archiver.")
	archiveDue := archiveCmd.Bool("due", false, "Only archive when the current dinner date has come (as the scheduler does).")
	archiveYes := archiveCmd.Bool("yes", false, "Do not ask for confirmation.")

	setAdminCmd := flag.NewFlagSet("setadmin", flag.ContinueOnError)
	setAdminCmd.SetOutput(cli.out)
	setAdminName := setAdminCmd.String("name", "", "The user's name (any case).")
	setAdminRevoke := setAdminCmd.Bool("revoke", false, "Revoke admin rights instead of granting them.")

	switch args[1] {
	case "archive":
		if err := archiveCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		by := core.CleanString(*archiveBy)
		if by == "" {
			archiveCmd.Usage()
			return errHelp
		}
		if !*archiveYes && !*archiveDue {
			if err := cli.confirm("Archive the current dinner?"); err != nil {
				return err
			}
		}
		return cli.archive(by, *archiveDue)
	case "setadmin":
		if err := setAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if core.CleanString(*setAdminName) == "" {
			setAdminCmd.Usage()
			return errHelp
		}
		return cli.setAdmin(*setAdminName, !*setAdminRevoke)
	case "users":
		return cli.listUsers()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks for a y/N answer when stdin is a terminal; otherwise it assumes yes.
func (cli *commandLine) confirm(question string) error {
	if f, ok := cli.in.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
		return nil
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
