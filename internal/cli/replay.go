package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database    string
	DatabaseURL string
	Code        string
}

// ReplayResult is the json output of replay.
type ReplayResult struct {
	Code     string       `json:"code"`
	Commands int          `json:"commands"`
	Events   int          `json:"events"`
	Phase    engine.Phase `json:"phase"`
	Turn     engine.Owner `json:"turn"`
	Winner   engine.Owner `json:"winner"`
	Reason   string       `json:"reason,omitempty"`
	Live     [2]uint16    `json:"live"`
	Board    string       `json:"board"`
}

func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a game from its journal and print the final board",
		Long: `Replay the journaled commands of one game through the rules engine
and print the resulting board, phase and winner. The board is printed
unredacted: lower-case pieces belong to P0, upper-case to P1.

Examples:
  icq-rps replay --db ./rps.db --code ABC123
  icq-rps replay --database-url postgres://... --code ABC123 --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "postgres DSN of the journal")
	cmd.Flags().StringVar(&opts.Code, "code", "", "game code (required)")
	_ = cmd.MarkFlagRequired("code")
	cmd.MarkFlagsMutuallyExclusive("db", "database-url")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Database == "" && opts.DatabaseURL == "" {
		return errors.New("one of --db or --database-url is required")
	}

	journal, err := store.Open(ctx, store.Config{DatabaseURL: opts.DatabaseURL, SQLitePath: opts.Database})
	if err != nil {
		return err
	}
	defer journal.Close()

	cmds, err := journal.Load(ctx, opts.Code)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return fmt.Errorf("no journal entries for game %s", opts.Code)
	}
	g, events, err := engine.Replay(cmds)
	if err != nil {
		return err
	}

	res := ReplayResult{
		Code:     opts.Code,
		Commands: len(cmds),
		Events:   len(events),
		Phase:    g.Phase,
		Turn:     g.Turn,
		Winner:   g.Winner,
		Reason:   g.Reason,
		Live:     g.Live,
		Board:    engine.Render(g.Board),
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "game %s: %d commands, %d events\n", res.Code, res.Commands, res.Events)
	fmt.Fprint(out, res.Board)
	fmt.Fprintf(out, "phase: %s  turn: %s  live: %d/%d\n", res.Phase, res.Turn, res.Live[0], res.Live[1])
	if res.Winner != engine.OwnerNone {
		fmt.Fprintf(out, "winner: %s (%s)\n", res.Winner, res.Reason)
	}
	return nil
}
