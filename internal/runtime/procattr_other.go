//go:build !unix

package runtime

import (
	"os/exec"
	"time"
)

func configureProcessGroup(cmd *exec.Cmd, grace time.Duration) {
	cmd.WaitDelay = grace
}
