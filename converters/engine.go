package converters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/convgate/convgate/models"
)

// lookupEngine returns the first candidate binary found on PATH. Conversions
// must fail clearly when an engine is absent from the runtime environment.
func lookupEngine(candidates ...string) (string, error) {
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", models.NewConversionError(
		fmt.Sprintf("required engine not installed (looked for %s)", strings.Join(candidates, ", ")), nil)
}

// runEngine executes one external engine invocation under the wall-clock
// timeout. Combined output is captured and sanitized into the error detail;
// it never reaches the client verbatim.
func runEngine(ctx context.Context, timeout time.Duration, bin string, args ...string) error {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return models.NewConversionError(fmt.Sprintf("%s timed out after %s", engineName(bin), timeout), ctx.Err())
	}
	if err != nil {
		return models.NewConversionError(fmt.Sprintf("%s failed: %s", engineName(bin), sanitizeOutput(out)), err)
	}
	return nil
}

func engineName(bin string) string {
	if i := strings.LastIndexByte(bin, '/'); i >= 0 {
		return bin[i+1:]
	}
	return bin
}

// sanitizeOutput collapses engine output to a single bounded line.
func sanitizeOutput(out []byte) string {
	s := strings.Join(strings.Fields(string(out)), " ")
	const limit = 300
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "(no output)"
	}
	return s
}

// verifyOutput guards against engines that exit zero while writing nothing.
func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return models.NewConversionError("engine reported success but produced no output file", err)
	}
	if info.Size() == 0 {
		return models.NewConversionError("engine produced an empty output file", nil)
	}
	return nil
}
