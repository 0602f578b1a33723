package cmd

import (
	"fmt"
	"strings"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

// account create
var (
	acctCreateParent string
	acctCreateCode   string
	acctCreateName   string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a custom sub-account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			parent := acctCreateParent
			if parent == "" {
				parent = ledger.ParentCode(acctCreateCode)
			}
			acct, err := b.CreateAccount(cmd.Context(), parent, acctCreateCode, acctCreateName)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Account created: %s %s", acct.Code, acct.Qualname)
			return nil
		})
	},
}

// account list
var acctListUnder string

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			var accounts []ledger.Account
			var err error
			if acctListUnder != "" {
				accounts, err = b.Subtree(cmd.Context(), acctListUnder)
			} else {
				accounts, err = b.Accounts(cmd.Context())
			}
			if err != nil {
				return err
			}
			t := newTable([]string{"Code", "Name", "Category", "Dir", "Currency", "FX"})
			n := 0
			for _, a := range accounts {
				depth := strings.Count(a.Code, ".")
				fx := ""
				if a.NeedExchangeGainsLosses {
					fx = "yes"
				}
				name := strings.Repeat("  ", depth) + a.Name
				if a.IsCustom {
					name += dimStyle.Render(" *")
				}
				t.Row(a.Code, name, a.MajorCategory, string(a.Direction), a.Currency, fx)
				n++
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show [code|qualname]",
	Short: "Show account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			var acct *ledger.Account
			var err error
			if ledger.ValidCode(args[0]) {
				acct, err = b.Account(cmd.Context(), args[0])
			} else {
				acct, err = b.AccountByQualname(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			children, err := b.Children(cmd.Context(), acct.Code)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTitle(w, acct.Code+" "+acct.Name, acct.Qualname)
			printField(w, "Category", acct.MajorCategory)
			printField(w, "Direction", string(acct.Direction))
			printField(w, "Currency", acct.Currency)
			printField(w, "FX revaluation", fmt.Sprint(acct.NeedExchangeGainsLosses))
			printField(w, "Custom", fmt.Sprint(acct.IsCustom))
			if len(children) > 0 {
				codes := make([]string, len(children))
				for i, c := range children {
					codes[i] = c.Code + " " + c.Name
				}
				printField(w, "Children", strings.Join(codes, ", "))
			}
			return nil
		})
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [code]",
	Short: "Delete an unused custom account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Account deleted: %s", args[0])
			return nil
		})
	},
}

var acctCurrencyFX bool

var accountCurrencyCmd = &cobra.Command{
	Use:   "set-currency [code] [currency]",
	Short: "Activate a leaf account for posting in a currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.SetAccountCurrency(cmd.Context(), args[0], args[1], acctCurrencyFX); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Account %s posts in %s", args[0], args[1])
			return nil
		})
	},
}

var accountFXCmd = &cobra.Command{
	Use:   "fx [code] [on|off]",
	Short: "Toggle exchange gain/loss revaluation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var need bool
		switch args[1] {
		case "on":
			need = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.SetNeedExchangeGainsLosses(cmd.Context(), args[0], need)
		})
	},
}

var acctTopN int

var accountTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Most used accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			accounts, err := b.TopAccounts(cmd.Context(), acctTopN)
			if err != nil {
				return err
			}
			t := newTable([]string{"Code", "Qualified name", "Currency"})
			for _, a := range accounts {
				t.Row(a.Code, a.Qualname, a.Currency)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateParent, "parent", "", "Parent code (default: code minus its last segment)")
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Account code, e.g. 1002.01.05")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")

	accountListCmd.Flags().StringVar(&acctListUnder, "under", "", "Only this account and its descendants")
	accountCurrencyCmd.Flags().BoolVar(&acctCurrencyFX, "fx", false, "Revalue at month end (foreign currencies only)")
	accountTopCmd.Flags().IntVarP(&acctTopN, "n", "n", 10, "Number of accounts")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountCurrencyCmd)
	accountCmd.AddCommand(accountFXCmd)
	accountCmd.AddCommand(accountTopCmd)

	rootCmd.AddCommand(accountCmd)
}
