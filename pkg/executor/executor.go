package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/pkg/assembler"
	"PojClient/pkg/bundle"
	"PojClient/pkg/downloader"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/planner"
	"PojClient/pkg/utils"
	"PojClient/pkg/verifier"

	"golang.org/x/sync/errgroup"
)

func New(client Fetcher, provider bundle.Provider, cfg config.PojClientConfig) *Executor {
	return &Executor{
		Client:             client,
		Provider:           provider,
		Pool:               downloader.DefaultPool,
		MaxAttempts:        cfg.MaxAttempts,
		Backoff:            cfg.RetryBackoff,
		LibraryConcurrency: cfg.LibraryConcurrency,
		Progress:           NewProgress(),
		Logger:             logging.GlobalLogger,
	}
}

func (e *Executor) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.GlobalLogger
	}
	return e.Logger
}

// Run executes every group of the plan. The classpath is composed once the
// client, library and shim groups verified; Run returns only after the asset
// group finished too. The first terminal failure cancels the rest.
func (e *Executor) Run(ctx context.Context, plan *planner.InstallPlan) (*Result, error) {
	e.Progress.addTotal(len(plan.Client.Tasks) + len(plan.BaseLibraries.Tasks) + len(plan.ModLibraries.Tasks) +
		len(plan.GraphicsShim.Tasks) + len(plan.Assets.Tasks))

	res := &Result{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		res.Assets, err = e.RunGroup(gctx, plan.Assets)
		return err
	})

	g.Go(func() error {
		cg, cctx := errgroup.WithContext(gctx)
		cg.Go(func() (err error) {
			res.Client, err = e.RunGroup(cctx, plan.Client)
			return err
		})
		cg.Go(func() (err error) {
			res.BaseLibraries, err = e.RunGroup(cctx, plan.BaseLibraries)
			return err
		})
		cg.Go(func() (err error) {
			res.ModLibraries, err = e.RunGroup(cctx, plan.ModLibraries)
			return err
		})
		cg.Go(func() (err error) {
			res.GraphicsShim, err = e.RunGroup(cctx, plan.GraphicsShim)
			return err
		})
		if err := cg.Wait(); err != nil {
			return err
		}

		client := VerifiedPaths(res.Client)
		shim := VerifiedPaths(res.GraphicsShim)
		if len(client) != 1 || len(shim) != 1 {
			return fmt.Errorf("classpath needs one client and one shim, got %d and %d", len(client), len(shim))
		}
		res.Classpath = assembler.Join(client[0], VerifiedPaths(res.BaseLibraries), VerifiedPaths(res.ModLibraries), shim[0])
		e.logger().Infof("Classpath composed for %s", plan.VersionID)
		return nil
	})

	if err := g.Wait(); err != nil {
		e.logger().WithField("cause", err).Errorf("Install of %s failed", plan.VersionID)
		return res, err
	}
	e.logger().Infof("All groups for %s verified", plan.VersionID)
	return res, nil
}

// RunGroup runs the tasks of one group concurrently. Outcomes are indexed
// like group.Tasks.
func (e *Executor) RunGroup(ctx context.Context, group planner.Group) ([]Outcome, error) {
	outcomes := make([]Outcome, len(group.Tasks))
	for i, task := range group.Tasks {
		outcomes[i] = Outcome{Task: task, State: StatePending}
	}

	g, gctx := errgroup.WithContext(ctx)
	switch {
	case group.Pooled && e.Pool != nil:
		g.SetLimit(e.Pool.Width)
	case !group.Pooled && e.LibraryConcurrency > 0:
		g.SetLimit(e.LibraryConcurrency)
	}

	for i, task := range group.Tasks {
		g.Go(func() error {
			run := func() error {
				outcomes[i] = e.runTask(gctx, task)
				return outcomes[i].Err
			}
			if group.Pooled && e.Pool != nil {
				return e.Pool.Do(gctx, run)
			}
			return run()
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, fmt.Errorf("group %s: %w", group.Name, err)
	}
	e.logger().Debugf("Group %s verified (%d tasks)", group.Name, len(group.Tasks))
	return outcomes, nil
}

func (e *Executor) runTask(ctx context.Context, task *planner.Task) Outcome {
	out := Outcome{Task: task, State: StatePending}
	log := e.logger().WithFields(logging.Fields{"artifact": task.Name, "kind": string(task.Kind)})

	_ = out.transition(StateRunning)
	log.Debug("Task started")

	var err error
	skipped := false
	switch {
	case task.Blob != "":
		err = e.materialize(task, log)
	case task.VerifyOnly:
		skipped, err = e.verifyOnly(task)
	default:
		err = e.fetch(ctx, task, &out, log)
	}

	final := StateVerified
	if err != nil {
		final = StateFailed
	} else if skipped {
		final = StateSkipped
	}
	if terr := out.transition(final); terr != nil {
		out.State = StateFailed
		err = terr
	}
	out.Err = err
	e.Progress.finished(out.State)

	switch out.State {
	case StateFailed:
		log.WithFields(logging.Fields{"attempt": out.Attempts, "cause": err}).Error("Task failed")
	case StateSkipped:
		log.Debug("Absent, skipped")
	default:
		log.WithField("attempt", out.Attempts).Debug("Verified")
	}
	return out
}

// fetch drives the download/verify loop. A present file is trusted until it
// fails verification once, after which every attempt downloads it again.
func (e *Executor) fetch(ctx context.Context, task *planner.Task, out *Outcome, log *logging.Logger) error {
	stale := false
	var last error
	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 1 {
			if err := sleep(ctx, e.Backoff*time.Duration(attempt-1)); err != nil {
				return err
			}
			_ = out.transition(StateRunning)
		}
		out.Attempts = attempt

		err := e.attempt(ctx, task, out, &stale, log)
		if err == nil {
			return nil
		}
		if !errs.Retryable(err) {
			return err
		}
		last = err
		if attempt < e.MaxAttempts {
			_ = out.transition(StateRetrying)
			e.Progress.retried()
			log.WithFields(logging.Fields{"attempt": attempt, "cause": err}).Warn("Retrying")
		}
	}
	return errs.RetryExhausted(task.Name, e.MaxAttempts, last)
}

func (e *Executor) attempt(ctx context.Context, task *planner.Task, out *Outcome, stale *bool, log *logging.Logger) error {
	digest := task.Digest
	if task.DigestURL != "" {
		body, err := e.Client.FetchBytes(ctx, task.DigestURL)
		if err != nil {
			return err
		}
		fields := strings.Fields(string(body))
		if len(fields) == 0 || !metaAPI.IsDigest(strings.ToLower(fields[0])) {
			return errs.Integrity(task.Name, fmt.Errorf("%s is not a sha1 digest", task.DigestURL))
		}
		digest = fields[0]
	}

	if *stale || !utils.Exists(task.Path) {
		log.WithField("attempt", out.Attempts).Debugf("Downloading %s", task.URL)
		out.Downloads++
		n, err := e.Client.Download(ctx, task.URL, task.Path)
		if err != nil {
			return err
		}
		e.Progress.downloaded(n)
	}

	if digest == "" {
		return nil
	}
	ok, err := verifier.Verify(task.Path, digest)
	if err != nil {
		return errs.IO(task.Path, err)
	}
	if !ok {
		*stale = true
		return errs.Integrity(task.Name, fmt.Errorf("digest mismatch, want %s", strings.ToLower(digest)))
	}
	return nil
}

// verifyOnly checks a library the graphics shim replaces. It never downloads.
func (e *Executor) verifyOnly(task *planner.Task) (skipped bool, err error) {
	if !utils.Exists(task.Path) {
		return true, nil
	}
	if task.Digest == "" {
		return false, nil
	}
	ok, err := verifier.Verify(task.Path, task.Digest)
	if err != nil {
		return false, errs.IO(task.Path, err)
	}
	if !ok {
		return false, errs.Integrity(task.Name, fmt.Errorf("present file does not match %s", task.Digest))
	}
	return false, nil
}

// materialize writes a bundled blob unless the target already holds it.
func (e *Executor) materialize(task *planner.Task, log *logging.Logger) error {
	if e.Provider == nil {
		return errs.IO(task.Blob, fmt.Errorf("no bundle provider"))
	}
	data, err := e.Provider.Open(task.Blob)
	if err != nil {
		return errs.IO(task.Blob, err)
	}
	want := verifier.BytesSHA1(data)
	if ok, _ := verifier.Verify(task.Path, want); ok {
		return nil
	}
	if err := utils.WriteFileAtomic(task.Path, data, 0o644); err != nil {
		return errs.IO(task.Path, err)
	}
	log.Debugf("Wrote bundled %s -> %s", task.Blob, task.Path)

	ok, err := verifier.Verify(task.Path, want)
	if err != nil {
		return errs.IO(task.Path, err)
	}
	if !ok {
		return errs.Integrity(task.Name, fmt.Errorf("written blob does not verify"))
	}
	return nil
}

// VerifiedPaths returns the target paths of verified tasks in task order.
func VerifiedPaths(outcomes []Outcome) []string {
	paths := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.State == StateVerified {
			paths = append(paths, o.Task.Path)
		}
	}
	return paths
}

// Downloads sums the download count over every group.
func (r *Result) Downloads() int {
	total := 0
	for _, group := range [][]Outcome{r.Client, r.BaseLibraries, r.ModLibraries, r.GraphicsShim, r.Assets} {
		for _, o := range group {
			total += o.Downloads
		}
	}
	return total
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}
