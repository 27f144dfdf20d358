package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/omatheme/internal/app"
	"github.com/sadopc/omatheme/internal/catalog"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/resolver"
	"github.com/sadopc/omatheme/internal/style"
	"github.com/sadopc/omatheme/internal/ui/historybrowser"
	"github.com/sadopc/omatheme/internal/ui/picker"
)

func filterNames() string {
	names := make([]string, 0, len(resolver.Filters()))
	for _, f := range resolver.Filters() {
		names = append(names, f.String())
	}
	return strings.Join(names, "|")
}

// parseListFlags converts the list flag values. An empty scheme means no
// scheme filter.
func parseListFlags(filter, scheme string) (resolver.Filter, *catalog.Scheme, error) {
	f, err := resolver.ParseFilter(filter)
	if err != nil {
		return 0, nil, err
	}
	if scheme == "" {
		return f, nil, nil
	}
	s, err := catalog.ParseScheme(scheme)
	if err != nil {
		return 0, nil, err
	}
	return f, &s, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter, scheme string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List themes",
		Long: `List catalog or installed themes, one per line, annotated with
(current), (built-in) or (installed).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, s, err := parseListFlags(filter, scheme)
			if err != nil {
				return err
			}
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out, err := svc.List(cmd.Context(), f, s)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), style.Current.ColorizeList(out))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", resolver.FilterAll.String(), "Themes to list ("+filterNames()+")")
	cmd.Flags().StringVarP(&scheme, "scheme", "s", "", "Only list light or dark themes")
	return cmd
}

func newCurrentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			name, err := svc.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Switch to an installed theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Set(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the preview image to this file")
	return cmd
}

func newInstallCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Install a theme from the catalog and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Install(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the preview image to this file")
	return cmd
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "preview NAME",
		Short: "Download the preview image of a catalog theme",
		Long: `Download the preview image of a catalog theme. Without --output the
image URL is printed after a successful download check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			img, rec, err := svc.Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if output == "" {
				fmt.Fprintf(w, "%s: %s (%s, %d bytes)\n", rec.Name, rec.PreviewURL, img.Format, len(img.Data))
				return nil
			}
			return writeImage(w, output, img)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the preview image to this file")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"uninstall", "rm"},
		Short:   "Remove an installed extra theme",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			rep, err := svc.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), app.Result{Report: rep}, "")
		},
	}
}

func newBgNextCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bg-next",
		Short: "Switch to the next background of the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.NextBackground(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the background image to this file")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var search string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent theme changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			pattern := ""
			if search != "" {
				pattern = "%" + search + "%"
			}
			entries, err := svc.History(limit, pattern)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show changes whose theme or query contains this text")
	return cmd
}

func newPickCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a theme interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			entries, err := pickerEntries(ctx, svc)
			if err != nil {
				return err
			}
			var load historybrowser.Loader
			if svc.HistoryEnabled() {
				load = func(pattern string) ([]history.Entry, error) {
					return svc.History(200, pattern)
				}
			}

			choice, ok, err := picker.Run(entries, load, tea.WithContext(ctx))
			if err != nil || !ok {
				return err
			}

			var res app.Result
			switch choice.Action {
			case picker.ActionSet:
				res, err = svc.Set(ctx, choice.Theme)
			case picker.ActionInstall:
				res, err = svc.Install(ctx, choice.Theme)
			}
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, "")
		},
	}
}

// pickerEntries lists the catalog followed by installed themes the catalog
// does not know.
func pickerEntries(ctx context.Context, svc *app.Service) ([]resolver.Entry, error) {
	entries, err := svc.Entries(ctx, resolver.FilterAll, nil)
	if err != nil {
		return nil, err
	}
	installed, err := svc.Entries(ctx, resolver.FilterInstalled, nil)
	if err != nil {
		return nil, err
	}
	for _, e := range installed {
		if !e.Known {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
