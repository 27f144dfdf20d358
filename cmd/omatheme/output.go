package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sadopc/omatheme/internal/app"
	"github.com/sadopc/omatheme/internal/history"
	"github.com/sadopc/omatheme/internal/mutation"
	"github.com/sadopc/omatheme/internal/preview"
	"github.com/sadopc/omatheme/internal/style"
	"github.com/sadopc/omatheme/internal/ui/historybrowser"
)

// printResult prints a mutation message and where its image went. A failed
// mutation returns errReported so the process exits non-zero.
func printResult(w io.Writer, res app.Result, output string) error {
	p := style.Current
	msg := strings.TrimRight(res.Message, "\n")
	switch {
	case res.Failed():
		msg = p.ErrorText.Render(msg)
	case res.NeedsInstall, res.NotExtra:
		msg = p.WarningText.Render(msg)
	case res.Outcome == mutation.OutcomeApplied:
		msg = p.SuccessText.Render(msg)
	}
	fmt.Fprintln(w, msg)

	if res.Image != nil {
		if output != "" {
			if err := writeImage(w, output, *res.Image); err != nil {
				return err
			}
		} else if res.Background != "" {
			fmt.Fprintln(w, p.MutedText.Render("background: "+res.Background))
		} else if res.Record.PreviewURL != "" {
			fmt.Fprintln(w, p.MutedText.Render("preview: "+res.Record.PreviewURL))
		}
	}

	if res.Failed() {
		return errReported
	}
	return nil
}

func writeImage(w io.Writer, path string, img preview.Image) error {
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Fprintf(w, "wrote %s (%s, %d bytes)\n", path, img.Format, len(img.Data))
	return nil
}

func printHistory(w io.Writer, entries []history.Entry) {
	p := style.Current
	if len(entries) == 0 {
		fmt.Fprintln(w, p.MutedText.Render("No theme changes recorded"))
		return
	}
	for _, e := range entries {
		line := historybrowser.FormatEntry(e, 100)
		if e.IsError {
			line = p.ErrorText.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}
