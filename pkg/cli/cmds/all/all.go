// Package all imports all shell commands.
package all

import (
	_ "github.com/robotalks/mculink/pkg/cli/cmds/frame"
	_ "github.com/robotalks/mculink/pkg/cli/cmds/telemetry"
)
