package workers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/convgate/convgate/converters"
	"github.com/convgate/convgate/models"
)

func TestRunner_PanicCapturedOnJob(t *testing.T) {
	tracker := NewTracker()
	pool := NewPool(1, 4)
	pool.Start(context.Background())
	// nil scratch store makes the data backend panic mid-conversion
	runner := NewRunner(tracker, pool, converters.Options{})

	input := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(input, []byte("+1 415-555-0132"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	id, err := tracker.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := runner.Launch(id, converters.CategoryData, input, "phone-clean-csv"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	pool.Wait()

	v, _ := tracker.View(id)
	if v.Status != models.JobError {
		t.Fatalf("status = %s, want error", v.Status)
	}
	if !strings.Contains(v.ErrorDetail, "internal error") {
		t.Fatalf("detail = %q, want internal error marker", v.ErrorDetail)
	}
}

func TestRunner_SaturatedQueueFailsJobImmediately(t *testing.T) {
	tracker := NewTracker()
	pool := NewPool(1, 1)
	pool.Start(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	if err := pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("Submit blocker: %v", err)
	}
	<-started
	if err := pool.Submit(func(ctx context.Context) {}); err != nil {
		t.Fatalf("Submit queued task: %v", err)
	}

	runner := NewRunner(tracker, pool, converters.Options{})
	id, _ := tracker.Create()
	if err := runner.Launch(id, converters.CategoryData, "unused", "csv"); !errors.Is(err, models.ErrQueueFull) {
		t.Fatalf("Launch over capacity = %v, want ErrQueueFull", err)
	}

	v, _ := tracker.View(id)
	if v.Status != models.JobError {
		t.Fatalf("rejected job status = %s, want error", v.Status)
	}
	if !strings.Contains(v.ErrorDetail, "busy") {
		t.Fatalf("rejected job detail = %q", v.ErrorDetail)
	}

	close(release)
	pool.Wait()
}

func TestFailureDetail(t *testing.T) {
	convErr := models.NewConversionError("soffice failed: exit 1", errors.New("exit status 1"))
	if got := failureDetail(convErr); got != "soffice failed: exit 1" {
		t.Fatalf("conversion error detail = %q", got)
	}
	if got := failureDetail(models.ErrUnsupportedPairing); got != models.ErrUnsupportedPairing.Error() {
		t.Fatalf("pairing detail = %q", got)
	}
	long := errors.New(strings.Repeat("x", 500))
	got := failureDetail(long)
	if len(got) != 303 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long detail not truncated: len=%d", len(got))
	}
}
