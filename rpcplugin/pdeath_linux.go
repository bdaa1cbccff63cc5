// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package rpcplugin

import (
	"syscall"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sys/unix"
)

// armParentDeathSignal asks the kernel to deliver SIGTERM when the parent
// thread dies, as a faster-reacting backstop to the 1-second ppid poll.
// The returned function disarms it.
func armParentDeathSignal(logger hclog.Logger) func() {
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(syscall.SIGTERM), 0, 0, 0); err != nil {
		// the poll loop still covers us, so this is not fatal
		logger.Debug("could not arm parent-death signal", "error", err)
		return func() {}
	}
	return func() {
		_ = unix.Prctl(unix.PR_SET_PDEATHSIG, 0, 0, 0, 0)
	}
}
