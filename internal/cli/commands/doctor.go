package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/phaseplane/odekit/internal/cli/config"
	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/spf13/cobra"
)

// versionProbeTimeout bounds the xppaut -version probe, which can hang on
// a broken X display.
const versionProbeTimeout = 10 * time.Second

// DoctorCheck is one environment check result.
type DoctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local odekit environment",
		Long: `Doctor verifies everything odekit needs to run models: the xppaut
binary, its version, a writable work directory, the run history
database, and the configuration file. The exit status is non-zero when
any check fails.`,
		Example: `  odekit doctor
  odekit doctor -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	checks := runDoctorChecks(cmd.Context(), cmdCtx)

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(checks); err != nil {
			return err
		}
		return doctorVerdict(checks)
	}

	r.Header("Environment")
	for _, c := range checks {
		switch c.Status {
		case "pass":
			r.Success("%-16s %s", c.Name, c.Detail)
		case "warn":
			r.Warning("%-16s %s", c.Name, c.Detail)
		default:
			r.Error("%-16s %s", c.Name, c.Detail)
		}
	}

	if err := doctorVerdict(checks); err != nil {
		return err
	}
	r.Println()
	r.Success("environment looks good")
	return nil
}

func doctorVerdict(checks []DoctorCheck) error {
	failed := 0
	for _, c := range checks {
		if c.Status == "error" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func runDoctorChecks(ctx context.Context, cmdCtx *CommandContext) []DoctorCheck {
	cfg := cmdCtx.Cfg
	checks := make([]DoctorCheck, 0, 5)

	binCheck := checkBinary(cfg.XPPautPath)
	checks = append(checks, binCheck)

	if binCheck.Status == "pass" {
		checks = append(checks, checkVersion(ctx, cmdCtx))
	} else {
		checks = append(checks, DoctorCheck{
			Name:   "xppaut version",
			Status: "warn",
			Detail: "skipped, binary not found",
		})
	}

	checks = append(checks,
		checkWorkDir(cfg.WorkDir),
		checkStateDB(cfg),
		checkConfigFile(),
	)
	return checks
}

func checkBinary(path string) DoctorCheck {
	c := DoctorCheck{Name: "xppaut binary"}
	resolved, err := exec.LookPath(path)
	if err != nil {
		c.Status = "error"
		c.Detail = fmt.Sprintf("%v (install xppaut or set --xppaut)", err)
		return c
	}
	c.Status = "pass"
	c.Detail = resolved
	return c
}

func checkVersion(ctx context.Context, cmdCtx *CommandContext) DoctorCheck {
	c := DoctorCheck{Name: "xppaut version"}
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	version, err := cmdCtx.Sim.Version(ctx)
	if err != nil {
		c.Status = "warn"
		c.Detail = err.Error()
		return c
	}
	c.Status = "pass"
	c.Detail = version
	return c
}

func checkWorkDir(dir string) DoctorCheck {
	c := DoctorCheck{Name: "work directory"}
	f, err := os.CreateTemp(dir, ".odekit-doctor-*")
	if err != nil {
		c.Status = "error"
		c.Detail = fmt.Sprintf("not writable: %v", err)
		return c
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	c.Status = "pass"
	c.Detail = dir
	return c
}

func checkStateDB(cfg *config.Config) DoctorCheck {
	c := DoctorCheck{Name: "state database"}
	store, err := openStore(cfg)
	if err != nil {
		c.Status = "error"
		c.Detail = err.Error()
		return c
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	if err != nil {
		c.Status = "error"
		c.Detail = err.Error()
		return c
	}
	c.Status = "pass"
	c.Detail = fmt.Sprintf("%s (schema version %d)", cfg.StatePath, version)
	return c
}

func checkConfigFile() DoctorCheck {
	c := DoctorCheck{Name: "config file"}
	if path := config.GetConfigFileUsed(); path != "" {
		c.Status = "pass"
		c.Detail = path
		return c
	}
	c.Status = "warn"
	c.Detail = "no odekit.yaml found, using defaults"
	return c
}
