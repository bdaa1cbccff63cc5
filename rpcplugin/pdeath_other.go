// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package rpcplugin

import "github.com/hashicorp/go-hclog"

// armParentDeathSignal is a no-op where the kernel offers no parent-death
// notification; the ppid poll loop detects the parent dying instead.
func armParentDeathSignal(logger hclog.Logger) func() {
	return func() {}
}
