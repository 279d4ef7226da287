package media

import (
	"context"
	"os/exec"
)

// commandContext 可在測試中替換，避免真的呼叫外部工具。
var commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
