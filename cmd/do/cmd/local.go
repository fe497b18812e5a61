package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/voicememo/server/internal/ai"
	"github.com/voicememo/server/internal/config"
	"github.com/voicememo/server/internal/localstore"
	"github.com/voicememo/server/internal/service"
)

// LocalCmd manages the device-local recording library, which works without the API server
func LocalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Capture and process recordings without the server",
	}

	cmd.AddCommand(localCaptureCmd())
	cmd.AddCommand(localListCmd())
	cmd.AddCommand(localProcessCmd())
	cmd.AddCommand(localDeleteCmd())
	return cmd
}

func localCaptureCmd() *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "capture <audio-file>",
		Short: "Add an audio file to the local library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(false)
			if err != nil {
				return err
			}

			entry, err := library.Capture(args[0], duration)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "captured %s (%s)\n", entry.ID, entry.Status)
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "recording length in seconds")
	return cmd
}

func localListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local recordings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(false)
			if err != nil {
				return err
			}

			entries, err := library.Entries()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tDURATION\tCREATED\tTITLE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%ds\t%s\t%s\n",
					e.ID, e.Status, e.Duration, e.CreatedAt.Format("2006-01-02 15:04"), e.Title)
			}
			return w.Flush()
		},
	}
}

func localProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <id>",
		Short: "Transcribe and summarize a captured recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(true)
			if err != nil {
				return err
			}

			entry, err := library.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", entry.Title, entry.Summary)
			return nil
		},
	}
}

func localDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recording from the local library (the audio file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(false)
			if err != nil {
				return err
			}
			return library.Delete(args[0])
		},
	}
}

// openLibrary builds the library from config; providers are only needed for processing
func openLibrary(withProviders bool) (*service.LocalLibrary, error) {
	cfg := config.Load()

	store, err := localstore.NewFileStore(cfg.LocalLibraryPath)
	if err != nil {
		return nil, err
	}

	var (
		transcriber ai.Transcriber
		summarizer  ai.Summarizer
	)
	if withProviders {
		transcriber, summarizer, err = ai.New(cfg)
		if err != nil {
			return nil, err
		}
	}

	return service.NewLocalLibrary(store, transcriber, summarizer, cfg.ProcessingCallTimeout), nil
}
