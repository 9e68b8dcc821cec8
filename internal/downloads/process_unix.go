//go:build unix

package downloads

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places the child in a new process group so signals reach its helpers too.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

func suspendGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGSTOP)
}

func resumeGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGCONT)
}
