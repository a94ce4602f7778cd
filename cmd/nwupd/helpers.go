package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightwatch-dev/nwupd/internal/addon"
	"github.com/nightwatch-dev/nwupd/internal/buildinfo"
	"github.com/nightwatch-dev/nwupd/internal/config"
	"github.com/nightwatch-dev/nwupd/internal/download"
	"github.com/nightwatch-dev/nwupd/internal/errmsg"
	"github.com/nightwatch-dev/nwupd/internal/httputil"
	"github.com/nightwatch-dev/nwupd/internal/log"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
	"github.com/nightwatch-dev/nwupd/internal/userconfig"
)

// app bundles the collaborators every command needs: resolved paths, user
// settings, the loaded manifest, and the reconciliation manager.
type app struct {
	cfg     *config.Config
	userCfg *userconfig.Config
	addons  []manifest.Addon
	manager *addon.Manager
}

// loadApp wires up the engine or exits with a classified code. Commands
// call it first; everything after is normal error returns.
func loadApp(ctx context.Context) *app {
	cfg, err := config.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nRun nwupd from the game directory, or set NWUPD_GAME_DIR.")
		exitWithCode(ExitConfig)
	}

	userCfg, err := userconfig.Load(cfg.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", cfg.ConfigFile, err)
		exitWithCode(ExitConfig)
	}

	logger := log.Default()
	if userCfg.InsecureTLS {
		logger.Warn("TLS certificate verification is DISABLED (insecure_tls in nwupd.toml)")
	}

	clientOpts := httputil.DefaultOptions()
	clientOpts.Timeout = config.GetHTTPTimeout()
	clientOpts.UserAgent = buildinfo.UserAgent()
	clientOpts.InsecureTLS = userCfg.InsecureTLS
	client := httputil.NewClient(clientOpts)

	loaderOpts := []manifest.Option{manifest.WithLogger(logger)}
	if userCfg.ManifestURL != "" {
		loaderOpts = append(loaderOpts, manifest.WithURL(userCfg.ManifestURL))
	}
	if userCfg.ManifestKeyFingerprint != "" {
		verifier, err := manifest.NewVerifier(
			userCfg.ManifestKeyFingerprint,
			userCfg.ManifestKeyURL,
			keyCacheDir(),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitConfig)
		}
		loaderOpts = append(loaderOpts, manifest.WithVerifier(verifier))
	}

	addons, err := manifest.NewLoader(client, loaderOpts...).Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(err, nil))
		exitWithCode(ExitManifest)
	}

	dl := download.New(client,
		download.WithLogger(logger),
		download.WithTerminalProgress(true),
		download.WithRetryPolicy(download.RetryPolicy{
			MaxAttempts: userCfg.DownloadRetries,
			Backoff:     download.DefaultRetryPolicy().Backoff,
		}),
	)

	manager := addon.NewManager(cfg.GameDir, addons, dl,
		addon.WithLogger(logger),
		addon.WithResolver(addon.NewGitHubResolver(client, os.Getenv(config.EnvGitHubToken))),
	)

	return &app{
		cfg:     cfg,
		userCfg: userCfg,
		addons:  addons,
		manager: manager,
	}
}

func keyCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "nwupd", "keys")
	}
	return filepath.Join(base, "nwupd", "keys")
}

// installedMark renders the status column used by list and status.
func installedMark(installed bool) string {
	if installed {
		return "[installed]"
	}
	return "[         ]"
}
