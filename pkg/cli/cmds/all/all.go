// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/fc.go/pkg/cli/cmds/fc"
)
