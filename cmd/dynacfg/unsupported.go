//go:build !linux

package main

import "fmt"

func cmdTrace(args []string) error  { return errLinuxOnly }
func cmdRender(args []string) error { return errLinuxOnly }
func cmdStats(args []string) error  { return errLinuxOnly }

var errLinuxOnly = fmt.Errorf("dynacfg: ptrace-based tracing is only supported on linux")
