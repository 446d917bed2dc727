package cmd

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"caldr/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive day view",
	Long:  `Launch an interactive terminal user interface: a day view with event details, navigation, and deletion (including the occurrence-vs-series choice for repeating events).`,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal; log lines would fight the alt screen.
	slog.SetDefault(slog.New(tint.NewHandler(io.Discard, nil)))

	m := tui.New(cal, ed, tui.Options{Location: displayLocation()})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
