package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

func newTermsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Manage saved user terms",
	}
	cmd.AddCommand(newTermsListCmd(a))
	cmd.AddCommand(newTermsAddCmd(a))
	cmd.AddCommand(newTermsRemoveCmd(a))
	return cmd
}

func newTermsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved user terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			table, err := st.UserTerms(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if table.Len() == 0 {
				fmt.Fprintln(w, "No user terms.")
				return nil
			}
			for _, cat := range table.Categories() {
				fmt.Fprintf(w, "%s: %s\n", cat, strings.Join(table.Terms(cat), ", "))
			}
			return nil
		},
	}
}

func newTermsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add CATEGORY TERM...",
		Short: "Add user terms to a category",
		Long: `Add user terms to a category. Terms already present in the category,
built-in or saved, are skipped regardless of case.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editTerms(cmd, args[0], func(v *vocab.Vocabulary, category string) {
				v.AddUserTerms(category, args[1:]...)
			})
		},
	}
}

func newTermsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CATEGORY TERM...",
		Short: "Remove user terms from a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed := 0
			err := a.editTerms(cmd, args[0], func(v *vocab.Vocabulary, category string) {
				for _, term := range args[1:] {
					if v.RemoveUserTerm(category, term) {
						removed++
					}
				}
			})
			if err != nil {
				return err
			}
			if removed == 0 {
				return fmt.Errorf("no matching user terms in %q", strings.TrimSpace(args[0]))
			}
			return nil
		},
	}
}

// editTerms applies edit to a vocabulary holding the saved user terms and
// writes category back to the store.
func (a *app) editTerms(cmd *cobra.Command, category string, edit func(v *vocab.Vocabulary, category string)) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("category: %w", internalerr.ErrInvalidInput)
	}

	ctx := cmd.Context()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := a.savedVocabulary(ctx, st)
	if err != nil {
		return err
	}
	edit(v, category)

	terms := v.UserTerms().Terms(category)
	if err := st.SetUserTerms(ctx, category, terms); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", category, strings.Join(terms, ", "))
	return nil
}
