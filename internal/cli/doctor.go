package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/t2p/internal/adapters/github"
	"github.com/example/t2p/internal/config"
	"github.com/example/t2p/internal/db"
)

// DoctorCmd returns the doctor command.
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "doctor",
		Short:        "Check that the environment can run the pipeline",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			ok := color.New(color.FgGreen).Sprint("✓")
			bad := color.New(color.FgRed).Sprint("✗")
			problems := 0

			cfg, errs := config.Load(path)
			if len(errs) > 0 {
				fmt.Printf("%s config: %d problem(s), run `t2p config validate`\n", bad, len(errs))
				problems++
			} else {
				fmt.Printf("%s config\n", ok)
			}

			if _, err := exec.LookPath("git"); err != nil {
				fmt.Printf("%s git not found on PATH\n", bad)
				problems++
			} else {
				fmt.Printf("%s git\n", ok)
			}

			if cfg != nil {
				if cfg.GitHub.UseGhCLI {
					if err := github.EnsureGh(); err != nil {
						fmt.Printf("%s %v\n", bad, err)
						problems++
					} else {
						fmt.Printf("%s gh\n", ok)
					}
				}

				if _, err := exec.LookPath(cfg.Agent.Command); err != nil {
					fmt.Printf("%s agent command %q not found on PATH\n", bad, cfg.Agent.Command)
					problems++
				} else {
					fmt.Printf("%s agent (%s)\n", ok, cfg.Agent.Command)
				}

				if info, err := os.Stat(cfg.WorkspaceRoot()); err != nil || !info.IsDir() {
					fmt.Printf("%s workspace root %s is not a directory\n", bad, cfg.WorkspaceRoot())
					problems++
				} else {
					fmt.Printf("%s workspace root\n", ok)
				}
			}

			dbPath, err := db.DefaultPath()
			if err == nil {
				if database, openErr := db.Open(dbPath); openErr == nil {
					database.Close()
					fmt.Printf("%s state db (%s)\n", ok, dbPath)
				} else {
					err = openErr
				}
			}
			if err != nil {
				fmt.Printf("%s state db: %v\n", bad, err)
				problems++
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}
}
