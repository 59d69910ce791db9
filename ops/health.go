package ops

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is an aggregated health status.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// CheckFunc is a health check. It returns nil when healthy and must respect ctx.
type CheckFunc func(context.Context) error

// Check is a named health check.
type Check struct {
	Name    string
	Func    CheckFunc
	Timeout time.Duration // <= 0 means no extra timeout
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	// Duration is encoded as an integer number of nanoseconds in JSON.
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// HealthReport is a point-in-time health report.
type HealthReport struct {
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"duration"`
	Components []CheckResult `json:"components,omitempty"`
}

func (rep HealthReport) text(b *strings.Builder) {
	b.WriteString(string(rep.Status))
	b.WriteByte('\n')
	for _, c := range rep.Components {
		msg := string(c.Status)
		if c.Error != "" {
			msg += "\t" + c.Error
		}
		writeKV(b, "component", c.Name, msg)
	}
}

// RunChecks runs checks concurrently and aggregates them: DOWN if any check fails.
//
// Results keep the order of checks. A panicking check is reported as DOWN.
func RunChecks(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	rep := HealthReport{Status: StatusUp, Components: results}
	for _, cr := range results {
		if cr.Status != StatusUp {
			rep.Status = StatusDown
		}
	}
	rep.Duration = time.Since(start)
	return rep
}

func runCheck(parent context.Context, c Check) (cr CheckResult) {
	cr.Name = c.Name
	start := time.Now()
	ctx, cancel := parent, context.CancelFunc(func() {})
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
	}
	defer cancel()

	defer func() {
		cr.Duration = time.Since(start)
		if p := recover(); p != nil {
			cr.Status = StatusDown
			cr.Error = fmt.Sprintf("panic: %v", p)
		}
		if ctx.Err() == context.DeadlineExceeded {
			cr.Status = StatusDown
			cr.TimedOut = true
			if cr.Error == "" {
				cr.Error = "timeout"
			}
		}
	}()

	if err := c.Func(ctx); err != nil {
		cr.Status = StatusDown
		cr.Error = err.Error()
		return cr
	}
	cr.Status = StatusUp
	return cr
}

// HealthHandler returns the health endpoint.
//
// It responds 200 when every check passes (or there are none) and 503 otherwise.
// GET/HEAD only.
func HealthHandler(checks []Check, opts ...Option) http.Handler {
	for i, c := range checks {
		if c.Name == "" {
			panic(fmt.Sprintf("ops: health check[%d] has empty Name", i))
		}
		if c.Func == nil {
			panic(fmt.Sprintf("ops: health check[%d] %q has nil Func", i, c.Name))
		}
	}
	cfg := applyOptions(opts)
	snapshot := append([]Check(nil), checks...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		rep := RunChecks(r.Context(), snapshot)
		code := http.StatusOK
		if rep.Status != StatusUp {
			code = http.StatusServiceUnavailable
		}
		write(w, r, format, code, rep)
	})
}
