package cover

import (
	"context"
	"os/exec"
)

// Runner executes an external tool and returns its combined output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs tools with os/exec
type ExecRunner struct{}

// Run executes name with args, bound to ctx
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Embedder defines the interface for the cover service.
type Embedder interface {
	Embed(ctx context.Context, audioPath, thumbnailPath, title string) string
	Normalize(src, dst string) error
}
