package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Jacobbrewer1/ticketbot/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketbot/pkg/intake"
	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Validate and print the ticket category catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadCatalogue(file)
			if err != nil {
				return err
			}
			return printCatalogue(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", os.Getenv(config.EnvCategoriesFile), "catalogue file to validate instead of the built-in one")
	return cmd
}

// loadCatalogue loads the catalogue at path, or the built-in catalogue when path is empty.
func loadCatalogue(path string) (*intake.Catalogue, error) {
	if path == "" {
		return intake.DefaultCatalogue()
	}
	return intake.LoadCatalogue(path)
}

func printCatalogue(w io.Writer, c *intake.Catalogue) error {
	for _, cat := range c.Categories() {
		if _, err := fmt.Fprintf(w, "%s -> %s (%s)\n", cat.Name, cat.Container, cat.Slug()); err != nil {
			return err
		}
		for _, q := range cat.Questions {
			if _, err := fmt.Fprintf(w, "  - %s [%s]\n", q.Label, q.Style); err != nil {
				return err
			}
		}
	}
	return nil
}
