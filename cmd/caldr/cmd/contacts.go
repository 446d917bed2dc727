package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List address book contacts",
	Long:  `List the contacts of every CardDAV address book behind the configured sources.`,
	RunE:  runContacts,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.Flags().String("search", "", "Only contacts whose name or email contains this text")
}

func runContacts(cmd *cobra.Command, args []string) error {
	contacts, err := cal.Contacts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch contacts: %w", err)
	}

	if search, _ := cmd.Flags().GetString("search"); search != "" {
		needle := strings.ToLower(search)
		filtered := contacts[:0]
		for _, c := range contacts {
			hay := strings.ToLower(c.Name + " " + strings.Join(c.Emails, " "))
			if strings.Contains(hay, needle) {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	fmt.Println("👥 Contacts:")
	fmt.Println("─────────────────────────────────────────────────")

	if len(contacts) == 0 {
		fmt.Println("No contacts found.")
		return nil
	}

	for _, c := range contacts {
		name := c.Name
		if name == "" {
			name = "(no name)"
		}
		fmt.Printf("\n  • %s\n", name)
		for _, email := range c.Emails {
			fmt.Printf("    ✉ %s\n", email)
		}
		for _, phone := range c.Phones {
			fmt.Printf("    ☎ %s\n", phone)
		}
	}

	fmt.Println()
	fmt.Printf("Total: %d contacts\n", len(contacts))
	return nil
}
