//go:build unix

package runtime

import (
	"os/exec"
	"syscall"
	"time"
)

// configureProcessGroup puts the child in its own process group so cancellation
// reaches every process the CLI spawned, escalating to SIGKILL after grace.
func configureProcessGroup(cmd *exec.Cmd, grace time.Duration) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return err
		}
		time.AfterFunc(grace, func() {
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		})
		return nil
	}
	cmd.WaitDelay = grace + time.Second
}
