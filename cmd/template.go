package cmd

import (
	"fmt"
	"os"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage balance sheet templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			names, err := b.BalanceSheetTemplates(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a template's lines and formulas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			t, err := b.BalanceSheetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printTitle(w, t.Name, "")
			tbl := newTable([]string{"Section", "Item", "Line", "Formula"}, 2)
			for _, l := range t.Lines() {
				line := ""
				if l.LineNumber != nil {
					line = fmt.Sprint(*l.LineNumber)
				}
				tbl.Row(l.Category.Label(), l.Item, line, l.Formula)
			}
			fmt.Fprintln(w, tbl)
			return nil
		})
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Write a template as YAML to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			t, err := b.BalanceSheetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := t.MarshalYAMLBytes()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		})
	},
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Create or replace a template from YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		t, err := ledger.ParseBalanceSheetTemplate(data)
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.ImportBalanceSheetTemplate(cmd.Context(), t); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Template imported: %s (%d lines)", t.Name, len(t.Lines()))
			return nil
		})
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.CreateBalanceSheetTemplate(cmd.Context(), args[0])
		})
	},
}

var templateRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.RenameBalanceSheetTemplate(cmd.Context(), args[0], args[1])
		})
	},
}

var templateCopyCmd = &cobra.Command{
	Use:   "copy [name] [new-name]",
	Short: "Copy a template under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.CopyBalanceSheetTemplate(cmd.Context(), args[0], args[1])
		})
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.DeleteBalanceSheetTemplate(cmd.Context(), args[0])
		})
	},
}

func init() {
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateExportCmd)
	templateCmd.AddCommand(templateImportCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateRenameCmd)
	templateCmd.AddCommand(templateCopyCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}
