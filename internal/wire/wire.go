// Package wire provides dependency injection for the t2p application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"sync"

	agentadapter "github.com/example/t2p/internal/adapters/agent"
	"github.com/example/t2p/internal/adapters/filesystem"
	gitadapter "github.com/example/t2p/internal/adapters/git"
	"github.com/example/t2p/internal/adapters/github"
	"github.com/example/t2p/internal/adapters/jira"
	"github.com/example/t2p/internal/adapters/shell"
	"github.com/example/t2p/internal/adapters/sqlite"
	"github.com/example/t2p/internal/app"
	"github.com/example/t2p/internal/config"
	"github.com/example/t2p/internal/core/runerr"
	"github.com/example/t2p/internal/db"
	"github.com/example/t2p/internal/ports/primary"
	"github.com/example/t2p/internal/ports/secondary"
)

var (
	configPath string

	cfg         *config.Config
	stateStore  secondary.StateStore
	lockService *app.LockService
	runService  primary.RunOrchestrator
	once        sync.Once
)

// SetConfigPath overrides the config location before first use. Must be
// called before any service accessor.
func SetConfigPath(path string) {
	configPath = path
}

// Config returns the loaded singleton configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Store returns the singleton state store.
func Store() secondary.StateStore {
	once.Do(initServices)
	return stateStore
}

// LockService returns the singleton lock service.
func LockService() *app.LockService {
	once.Do(initServices)
	return lockService
}

// RunService returns the singleton run orchestrator.
func RunService() primary.RunOrchestrator {
	once.Do(initServices)
	return runService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	loaded, errs := config.Load(configPath)
	if len(errs) > 0 {
		for _, msg := range errs {
			log.Printf("config: %s", msg)
		}
		log.Print("invalid configuration; run `t2p config validate` for details")
		os.Exit(runerr.ExitNeedsHuman)
	}
	cfg = loaded

	dbPath, err := db.DefaultPath()
	if err != nil {
		log.Fatalf("failed to locate state database: %v", err)
	}
	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open state database: %v", err)
	}
	stateStore = sqlite.NewStateStore(database)
	lockService = app.NewLockService(stateStore)

	tracker := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken, cfg.Jira.APIVersion)

	var prHost secondary.PRHost
	if cfg.GitHub.UseGhCLI {
		prHost = github.NewCLIClient(cfg.GitHub.Owner, cfg.WorkspaceRoot(), cfg.GitHub.Reviewers, cfg.GitHub.Labels)
	} else {
		prHost = github.NewRESTClient(cfg.GitHub.Owner, cfg.GitHubToken())
	}

	artifacts, err := filesystem.NewArtifactStore("")
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}

	runService = app.NewRunService(
		cfg,
		stateStore,
		tracker,
		gitadapter.NewClient(),
		shell.NewRunner(),
		agentadapter.NewRunner(),
		prHost,
		artifacts,
	)
}
