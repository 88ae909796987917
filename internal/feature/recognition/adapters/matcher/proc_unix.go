//go:build unix

package matcher

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the matcher in its own process group so that a kill
// also reaches interpreter children.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
