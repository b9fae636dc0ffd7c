package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/boards"
)

var boardsCommand = &cobra.Command{
	Use:   "boards [listing-url]",
	Short: "List supported boards, or show which board serves a URL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBoardsCmd,
}

var boardsFile string

func init() {
	boardsCommand.Flags().StringVar(&boardsFile, "boards-file", "", "YAML board tables layered over the built-in boards")
	rootCmd.AddCommand(boardsCommand)
}

func runBoardsCmd(cmd *cobra.Command, args []string) error {
	registry, err := boards.Load(boardsFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		b, ok := registry.Detect(args[0])
		if !ok {
			return fmt.Errorf("no board serves %s", args[0])
		}
		id, _ := b.JobIDFromURL(args[0])
		_, _ = fmt.Fprintf(out, "board:  %s\njob id: %s\n", b.Name, orDash(id))
		return nil
	}

	for _, name := range registry.Names() {
		b, _ := registry.Get(name)
		login := "no"
		if b.RequiresLogin() {
			login = "yes"
		}
		_, _ = fmt.Fprintf(out, "%-12s login: %-4s hosts: %s\n", b.Name, login, strings.Join(b.Hosts, ", "))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
