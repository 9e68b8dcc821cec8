//go:build !unix

package downloads

import (
	"os"
	"os/exec"
)

func setProcessGroup(_ *exec.Cmd) {}

func killGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func suspendGroup(_ int) error {
	return ErrPauseUnsupported
}

func resumeGroup(_ int) error {
	return ErrPauseUnsupported
}
