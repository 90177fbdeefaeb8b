//go:build windows

package testrunner

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
