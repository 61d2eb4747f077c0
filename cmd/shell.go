package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/report"
	"github.com/pable/go-restream-stats/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession holds what the REPL commands share between lines.
type shellSession struct {
	ctx  context.Context
	db   *storage.DB
	svc  *faceoff.Service
	opts faceoff.Options
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, svc, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()
	s := &shellSession{ctx: cmd.Context(), db: db, svc: svc}

	cGreeting.Println("restream shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("restream")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "races":
			s.races(args)
		case "matches":
			s.matches()
		case "fetch":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: fetch <racetime-id> [...]")
				continue
			}
			s.fetch(args)
		case "faceoff":
			if len(args) != 2 {
				cError.Fprintln(os.Stderr, "usage: faceoff <racetime-id> <racetime-id>")
				continue
			}
			s.faceoff(args[0], args[1])
		case "layout":
			if len(args) != 2 {
				cError.Fprintln(os.Stderr, "usage: layout <match-id> <deck>")
				continue
			}
			s.layout(args[0], args[1])
		case "goal":
			s.opts.Goal = strings.Join(args, " ")
			s.printFilters()
		case "standard":
			s.opts.Standard = !s.opts.Standard
			s.printFilters()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"races [n]", "list the n most recent stored races (default 20)"},
		{"matches", "list imported matches"},
		{"fetch <racetime-id> [...]", "download race histories"},
		{"faceoff <racetime-id> <racetime-id>", "head-to-head statistics"},
		{"layout <match-id> <deck>", "render a match layout as YAML"},
		{"goal [name]", "filter face-offs by goal (no name clears)"},
		{"standard", "toggle the standard-goal filter"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Printf("\n  decks: %s\n\n", strings.Join(layout.Names(), ", "))
}

func (s *shellSession) printFilters() {
	goal := s.opts.Goal
	if goal == "" {
		goal = "(any)"
	}
	cMuted.Printf("goal: %s  standard: %v\n", goal, s.opts.Standard)
}

func (s *shellSession) races(args []string) {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			cError.Fprintf(os.Stderr, "invalid count %q\n", args[0])
			return
		}
		limit = n
	}
	races, err := s.db.ListRaces(limit)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(races) == 0 {
		cMuted.Println("No races stored yet.")
		return
	}
	report.PrintRaces(os.Stdout, races)
}

func (s *shellSession) matches() {
	matches, err := s.db.ListMatches()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Println("No matches imported yet.")
		return
	}
	report.PrintMatches(os.Stdout, matches)
}

func (s *shellSession) fetch(ids []string) {
	results, err := s.svc.SyncAll(s.ctx, ids...)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-32s %4d races (%d new)\n", r.User.FullName, r.Races, r.New)
	}
}

func (s *shellSession) faceoff(id1, id2 string) {
	stats, err := s.svc.FaceOff(s.ctx, id1, id2, s.opts)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintFaceOff(os.Stdout, s.svc.DisplayName(id1), s.svc.DisplayName(id2), stats)
}

func (s *shellSession) layout(matchID, deckName string) {
	deck, err := layout.Lookup(deckName)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	m, err := s.db.GetMatch(matchID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if m == nil {
		cError.Fprintf(os.Stderr, "no match with id %q\n", matchID)
		return
	}
	doc, err := s.svc.Layout(s.ctx, *m, deck, s.opts)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if err := layout.Encode(os.Stdout, doc); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
