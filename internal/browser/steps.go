package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// FailurePolicy governs what happens when a step fails.
type FailurePolicy int

const (
	// Abort stops the sequence and propagates a NavigationError.
	Abort FailurePolicy = iota
	// Continue logs the failure and proceeds to the next step. Many UI
	// actions are nice-to-have: a filter click failing still allows a
	// screenshot-based fallback read.
	Continue
)

// Step is one declarative browser-automation action with its own timeout
// budget and failure policy.
type Step struct {
	Name      string
	Timeout   time.Duration
	OnFailure FailurePolicy
	Do        chromedp.Action
}

// Executor runs chromedp actions. Session implements it; tests substitute
// a fake so sequences are checkable without a real browser.
type Executor interface {
	Run(ctx context.Context, actions ...chromedp.Action) error
}

// RunSteps executes an ordered step sequence against the executor. A failed
// Continue step is logged and skipped; a failed Abort step halts the
// sequence with a NavigationError naming the step.
func RunSteps(ctx context.Context, exec Executor, logger *zap.Logger, steps []Step) error {
	for _, step := range steps {
		stepCtx := ctx
		cancel := func() {}
		if step.Timeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		}
		err := exec.Run(stepCtx, step.Do)
		cancel()

		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return &dashboard.NavigationError{Step: step.Name, Err: ctx.Err()}
		}
		if step.OnFailure == Continue {
			logger.Warn("navigation step failed, continuing",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			continue
		}
		return &dashboard.NavigationError{Step: step.Name, Err: err}
	}
	return nil
}

// Click builds a step that clicks the first node matching the selector.
func Click(name, selector string, timeout time.Duration, onFailure FailurePolicy) Step {
	return Step{
		Name:      name,
		Timeout:   timeout,
		OnFailure: onFailure,
		Do:        chromedp.Click(selector, chromedp.ByQuery),
	}
}

// WaitVisible builds a step that waits for the selector to become visible.
func WaitVisible(name, selector string, timeout time.Duration, onFailure FailurePolicy) Step {
	return Step{
		Name:      name,
		Timeout:   timeout,
		OnFailure: onFailure,
		Do:        chromedp.WaitVisible(selector, chromedp.ByQuery),
	}
}

// Sleep builds a settling pause between actions on pages that re-render
// after filter changes.
func Sleep(name string, d time.Duration) Step {
	return Step{
		Name:      name,
		OnFailure: Continue,
		Do:        chromedp.Sleep(d),
	}
}
