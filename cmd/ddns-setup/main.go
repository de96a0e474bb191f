// ddns-setup collects DNS provider credentials and SSH server details for a
// dynamic DNS updater and writes them as a JSON payload.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acolita/ddns-setup/internal/adapters/realdialog"
	"github.com/acolita/ddns-setup/internal/config"
	"github.com/acolita/ddns-setup/internal/logging"
	"github.com/acolita/ddns-setup/internal/mcp"
	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/security"
	"github.com/acolita/ddns-setup/internal/setup"
	"github.com/acolita/ddns-setup/internal/ui"
)

// Version information - set at build time.
var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  string
		mode        string
		outPath     string
		filePath    string
		watchFile   bool
		remember    bool
		saveDefault bool
		accessible  bool
		formHelper  bool
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", config.DefaultConfigPath(), "Path to configuration file")
	flag.StringVar(&mode, "mode", "wizard", "Run mode: 'wizard', 'check', 'serve' or 'forget'")
	flag.StringVar(&outPath, "out", "", "Write the payload to this file instead of stdout (overrides config)")
	flag.StringVar(&filePath, "file", "", "Payload file to validate in check mode")
	flag.BoolVar(&watchFile, "watch", false, "In check mode, re-check the file whenever it changes")
	flag.BoolVar(&remember, "remember", false, "Save submitted secrets to the OS keyring")
	flag.BoolVar(&saveDefault, "save-defaults", false, "After a successful wizard, save the non-secret fields as defaults in the config file")
	flag.BoolVar(&accessible, "accessible", false, "Use plain prompts instead of the full-screen form")
	flag.BoolVar(&formHelper, realdialog.HelperFlag, false, "Run the form helper (started by serve mode in its own terminal)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("ddns-setup version %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	if formHelper {
		os.Exit(runFormHelper(accessible))
	}

	config.LoadDotEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if outPath != "" {
		cfg.Output.Path = outPath
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)

	slog.Info("starting ddns-setup",
		slog.String("version", Version),
		slog.String("mode", mode),
	)

	printer := ui.NewPrinter(os.Stderr, ui.ColorDefault())
	opts := []setup.Option{
		setup.WithDialogProvider(newDialog(mode, accessible)),
		setup.WithPrinter(printer),
	}
	if saveDefault {
		opts = append(opts, setup.WithSaveDefaults(configPath))
	}
	if cfg.Security.UseKeyring || mode == "forget" {
		ks := security.NewKeyringStore()
		if ks.IsEnabled() {
			opts = append(opts, setup.WithSecretStore(ks))
		} else {
			printer.Warn("keyring requested but not available; secrets will not be saved")
		}
	}
	runner := setup.NewRunner(cfg, opts...)

	switch mode {
	case "wizard":
		os.Exit(runWizard(runner, printer, remember))
	case "check":
		os.Exit(runCheck(runner, printer, filePath, watchFile))
	case "serve":
		os.Exit(runServe(cfg, runner))
	case "forget":
		os.Exit(runForget(runner, printer))
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q: use wizard, check, serve or forget\n", mode)
		os.Exit(2)
	}
}

// newDialog picks the form implementation. In serve mode stdin and stdout
// carry the MCP transport, so the form runs in a separate terminal window.
func newDialog(mode string, accessible bool) ports.Dialog {
	if mode == "serve" {
		return realdialog.NewLauncher(realdialog.WithHelperAccessible(accessible))
	}
	return realdialog.New(realdialog.WithAccessibleMode(accessible))
}

func runFormHelper(accessible bool) int {
	dialog := realdialog.New(realdialog.WithAccessibleMode(accessible))
	if err := realdialog.RunFormHelper(dialog, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "form helper: %v\n", err)
		return 1
	}
	return 0
}

func runForget(runner *setup.Runner, printer *ui.Printer) int {
	p, err := runner.Forget()
	if err != nil {
		printer.Error("%v", err)
		return 1
	}
	printer.Success("forgot saved secrets for %s and %s@%s", p.ProviderZone, p.ServerUsername, p.ServerAddress)
	return 0
}

func runWizard(runner *setup.Runner, printer *ui.Printer, remember bool) int {
	res, err := runner.Run(remember)
	switch {
	case errors.Is(err, setup.ErrInvalidForm):
		return 1
	case err != nil:
		printer.Error("%v", err)
		return 1
	case res.Status == setup.StatusCancelled:
		printer.Warn("wizard cancelled, nothing written")
		return 1
	}

	if res.Path != "" {
		printer.Success("payload written to %s", res.Path)
	}
	if res.DefaultsPath != "" {
		printer.Success("defaults saved to %s", res.DefaultsPath)
	}
	return 0
}

func runCheck(runner *setup.Runner, printer *ui.Printer, path string, watchFile bool) int {
	if path == "" {
		fmt.Fprintln(os.Stderr, "check mode needs -file")
		return 2
	}

	if watchFile {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runner.Watch(ctx, path); err != nil {
			printer.Error("%v", err)
			return 1
		}
		slog.Info("received shutdown signal")
		return 0
	}

	if _, err := runner.Check(path); err != nil {
		if !errors.Is(err, setup.ErrInvalidForm) {
			printer.Error("%v", err)
		}
		return 1
	}
	return 0
}

func runServe(cfg *config.Config, runner *setup.Runner) int {
	server := mcp.NewServer(cfg, Version, mcp.WithRunner(runner))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		os.Exit(0)
	}()

	if err := server.Run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
