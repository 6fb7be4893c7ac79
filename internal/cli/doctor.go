package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevinelliott/launchmgr/pkg/config"
	"github.com/kevinelliott/launchmgr/pkg/platform"
	"github.com/kevinelliott/launchmgr/pkg/storage"
)

// CheckResult represents the result of a health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// CheckStatus represents the status of a check.
type CheckStatus int

const (
	CheckOK CheckStatus = iota
	CheckWarning
	CheckError
)

// NewDoctorCommand creates the doctor command for environment health checks.
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment health",
		Long: `Run health checks against launchctl, the descriptor directories,
and the status cache.

The doctor command helps diagnose why agents fail to list, probe, or
reload.

Examples:
  launchmgr doctor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var results []CheckResult
			results = append(results, checkLaunchctl(ctx, cfg))
			results = append(results, checkDirectories(cfg)...)
			results = append(results, checkCache(cfg))

			hasErrors := false
			for _, r := range results {
				switch r.Status {
				case CheckOK:
					printSuccess("%s: %s", r.Name, r.Message)
				case CheckWarning:
					printWarning("%s: %s", r.Name, r.Message)
					if r.Fix != "" {
						printInfo("  fix: %s", r.Fix)
					}
				case CheckError:
					hasErrors = true
					printError("%s: %s", r.Name, r.Message)
					if r.Fix != "" {
						printInfo("  fix: %s", r.Fix)
					}
				}
			}

			if hasErrors {
				return fmt.Errorf("health checks failed")
			}
			return nil
		},
	}
}

func checkLaunchctl(ctx context.Context, cfg *config.Config) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bin := cfg.Daemon.LaunchctlPath
	out, err := exec.CommandContext(ctx, bin, "version").CombinedOutput()
	if err != nil {
		return CheckResult{
			Name:    "launchctl",
			Status:  CheckError,
			Message: fmt.Sprintf("%s not runnable: %v", bin, err),
			Fix:     "launchmgr needs macOS launchctl; set daemon.launchctl_path if it lives elsewhere",
		}
	}

	version := strings.TrimSpace(string(out))
	if idx := strings.Index(version, "\n"); idx != -1 {
		version = version[:idx]
	}
	return CheckResult{Name: "launchctl", Status: CheckOK, Message: version}
}

func checkDirectories(cfg *config.Config) []CheckResult {
	var results []CheckResult

	user, err := cfg.UserDir()
	if err != nil {
		results = append(results, CheckResult{
			Name:    "User agents dir",
			Status:  CheckError,
			Message: err.Error(),
		})
	} else {
		results = append(results, checkDir("User agents dir", user, true))
	}

	results = append(results, checkDir("Global agents dir", cfg.GlobalDir(), false))
	results = append(results, checkDir("System agents dir", cfg.SystemDir(), false))
	return results
}

func checkDir(name, dir string, wantWritable bool) CheckResult {
	info, err := os.Stat(dir)
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckWarning,
			Message: dir + " does not exist",
			Fix:     "mkdir -p " + dir,
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: dir + " is not a directory",
		}
	}
	if wantWritable && !platform.Writable(dir) {
		return CheckResult{
			Name:    name,
			Status:  CheckWarning,
			Message: dir + " is not writable; edits will be rejected",
		}
	}
	msg := dir
	if !platform.Writable(dir) {
		msg += " (read-only)"
	}
	return CheckResult{Name: name, Status: CheckOK, Message: msg}
}

func checkCache(cfg *config.Config) CheckResult {
	if !cfg.Cache.Enabled {
		return CheckResult{
			Name:    "Status cache",
			Status:  CheckWarning,
			Message: "disabled",
			Fix:     "launchmgr config set cache.enabled true",
		}
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		dir = platform.GetDataDir()
	}
	store, err := storage.Open(dir)
	if err != nil {
		return CheckResult{
			Name:    "Status cache",
			Status:  CheckError,
			Message: fmt.Sprintf("failed to open: %v", err),
			Fix:     "check permissions on " + dir + " or delete " + storage.DBFileName + " to recreate",
		}
	}
	defer store.Close()

	records, err := store.All()
	if err != nil {
		return CheckResult{
			Name:    "Status cache",
			Status:  CheckError,
			Message: fmt.Sprintf("failed to read: %v", err),
		}
	}
	return CheckResult{
		Name:    "Status cache",
		Status:  CheckOK,
		Message: fmt.Sprintf("%d cached statuses in %s", len(records), dir),
	}
}
