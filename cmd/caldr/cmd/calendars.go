package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List discovered calendars",
	Long:    `List the calendars discovered on every reachable source, with their paths and visibility.`,
	RunE:    runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, args []string) error {
	fmt.Println("📅 Available calendars:")
	fmt.Println("─────────────────────────────────────────────────")

	total := 0
	for _, st := range cal.Sources() {
		label := st.Source.Name
		if label == "" {
			label = st.Source.ID
		}
		fmt.Printf("\n%s\n", label)
		if st.Err != nil {
			fmt.Printf("  ⚠ unavailable: %v\n", st.Err)
			continue
		}
		for _, c := range st.Calendars {
			marker := "•"
			if c.Hidden {
				marker = "◦"
			}
			fmt.Printf("  %s %s\n", marker, c.Name)
			fmt.Printf("    Path: %s\n", c.Path)
			if c.Description != "" {
				fmt.Printf("    %s\n", c.Description)
			}
			if !c.HoldsEvents {
				fmt.Printf("    (holds no events)\n")
			}
			if c.Hidden {
				fmt.Printf("    (hidden)\n")
			}
			total++
		}
	}

	fmt.Println()
	fmt.Printf("Total: %d calendars\n", total)
	fmt.Println("\nTip: Use 'caldr -c \"calendar name\"' to filter events by calendar")

	return nil
}
