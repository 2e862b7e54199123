// Package cli implements the eegview command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simonhull/eegview"
	"github.com/simonhull/eegview/internal/config"
	"github.com/simonhull/eegview/internal/logger"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/viewer"
)

// App holds the collaborators of one command invocation. Zero fields are
// replaced with production defaults by NewRootCmd.
type App struct {
	// Registry supplies the format loaders.
	Registry *registry.Registry
	// Launch shows a recording. Defaults to the terminal browser.
	Launch func(rec eegview.Recording, cfg *config.Config) error

	v       *viper.Viper
	cfg     *config.Config
	closers []io.Closer

	configPath string
	noView     bool
	listOnly   bool
}

// errNoFile is returned when the root command runs without a FILE and
// without --list-formats.
var errNoFile = errors.New("missing FILE argument (see --help)")

// NewRootCmd builds the eegview command tree.
func NewRootCmd(app *App) *cobra.Command {
	if app.Registry == nil {
		app.Registry = eegview.DefaultRegistry()
	}
	if app.Launch == nil {
		app.Launch = launchBrowser
	}
	app.v = config.New()

	exts := strings.Join(app.Registry.Extensions(), ", ")
	root := &cobra.Command{
		Use:   "eegview [flags] FILE",
		Short: "Load and view EEG recordings",
		Long: `eegview loads an EEG recording and opens it in a terminal trace browser.

FILE is the path to the recording. The format is chosen by extension.

Supported file extensions: ` + exts,
		Args:              cobra.MaximumNArgs(1),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
		RunE:              app.runRoot,
	}

	flags := root.Flags()
	flags.Bool(config.KeyView, true, "open the viewer after loading")
	flags.BoolVar(&app.noView, "no-view", false, "only load the file and print a summary")
	flags.BoolVar(&app.listOnly, "list-formats", false, "list supported file extensions and exit")
	flags.Bool(config.KeyAllChannels, false, "keep every channel, including stim and respiration")

	pflags := root.PersistentFlags()
	pflags.String(config.KeyLogLevel, "", "log level (debug|info|warn|error) [default: warn]")
	pflags.String(config.KeyLogFile, "", "write logs to file instead of stderr")
	pflags.StringVar(&app.configPath, "config", "", "config file [default: $XDG_CONFIG_HOME/eegview/config.yaml]")

	root.AddCommand(newInfoCmd(app), newFormatsCmd(app), newVersionCmd())
	return root
}

// Execute runs the command line with args and returns the process exit
// code. Errors are printed to stderr as "Error: <message>".
func Execute(app *App, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer app.teardown()

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		// stderr already has the message; keep a record in the log file.
		if app.cfg != nil && app.cfg.LogFile != "" {
			logger.Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}

// setup resolves configuration and configures logging before any command
// runs.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	closer, err := logger.Configure(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	a.closers = append(a.closers, closer)
	logger.Debug("configuration loaded", "view", cfg.View, "all-channels", cfg.AllChannels)
	return nil
}

func (a *App) teardown() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

func (a *App) loader() *eegview.Loader {
	opts := []eegview.Option{eegview.WithLogger(logger.NewStyledLogger("loader"))}
	if a.cfg.AllChannels {
		opts = append(opts, eegview.WithoutNormalize())
	}
	return eegview.NewLoader(a.Registry, opts...)
}

func (a *App) runRoot(cmd *cobra.Command, args []string) error {
	if a.listOnly {
		cmd.Printf("Supported file extensions: %s\n", strings.Join(a.Registry.Extensions(), ", "))
		return nil
	}
	if len(args) == 0 {
		return errNoFile
	}

	path := args[0]
	rec, err := a.loader().Load(path)
	if err != nil {
		return err
	}
	logger.Info("recording loaded", "path", path, "format", rec.Info().Format, "channels", len(rec.Channels()))

	if a.cfg.View && !a.noView {
		return a.Launch(rec, a.cfg)
	}

	cmd.Printf("Loaded %s successfully:\n", path)
	printSummary(cmd.OutOrStdout(), rec)
	cmd.Println("Use --view to visualize the data.")
	return nil
}

// launchBrowser shows rec in the terminal trace browser.
func launchBrowser(rec eegview.Recording, cfg *config.Config) error {
	l := viewer.NewLauncher(viewer.Browse(viewer.BrowserConfig{
		Window:   cfg.Viewer.Window,
		Channels: cfg.Viewer.Channels,
	}))
	l.Logger = logger.NewStyledLogger("viewer")
	return l.Launch(rec)
}
