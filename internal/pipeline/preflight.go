package pipeline

import (
	"fmt"

	"golang.org/x/sys/unix"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

// Preflight verifies the environment can sustain a batch before any item is
// touched: required collaborator credentials and enough free space for
// artifacts and audio.
func Preflight(cfg *config.Config) error {
	if err := cfg.RequireLLM(); err != nil {
		return err
	}
	if cfg.Workflow.MinFreeSpaceGiB > 0 {
		free, err := freeSpaceBytes(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("check free space: %w", err)
		}
		required := uint64(cfg.Workflow.MinFreeSpaceGiB) << 30
		if free < required {
			return services.Wrap(services.ErrConfiguration, "", "preflight",
				fmt.Sprintf("only %d GiB free in %s, need %d GiB",
					free>>30, cfg.Paths.DataDir, cfg.Workflow.MinFreeSpaceGiB), nil)
		}
	}
	return nil
}

func freeSpaceBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
