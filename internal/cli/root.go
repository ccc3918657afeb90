package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/me/pbadmin/internal/logging"
	"github.com/me/pbadmin/pkg/pocketbase"
)

var (
	flagPocketBase string
	flagCollection string
	flagSessionDir string
	flagDebug      bool
	flagLogLevel   string
	flagLogFormat  string

	logger *slog.Logger
	app    *App
)

// defaultPocketBase returns the default server URL, checking POCKETBASE_URL first.
func defaultPocketBase() string {
	if s := os.Getenv("POCKETBASE_URL"); s != "" {
		return s
	}
	return pocketbase.DefaultURL
}

// defaultSessionDir returns ~/.pbadmin, or .pbadmin when there is no home.
func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pbadmin"
	}
	return filepath.Join(home, ".pbadmin")
}

// NewRootCmd creates the root cobra command for the pbadmin CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pbadmin",
		Short: "Record administration for PocketBase",
		Long:  "pbadmin lists, filters and edits PocketBase records with a persistent login session.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)

			var err error
			app, err = NewApp(AppConfig{
				BaseURL:    flagPocketBase,
				Collection: flagCollection,
				SessionDir: flagSessionDir,
			}, logger)
			return err
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagPocketBase, "pocketbase", defaultPocketBase(), "PocketBase URL (or POCKETBASE_URL env)")
	root.PersistentFlags().StringVar(&flagCollection, "collection", "users", "Auth collection used by login")
	root.PersistentFlags().StringVar(&flagSessionDir, "session-dir", defaultSessionDir(), "Directory holding the saved session")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newListCmd(),
		newGetCmd(),
		newRefsCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
	)

	return root
}
