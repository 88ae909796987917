package matcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// Gateway runs the external matcher as a child process.
type Gateway struct {
	cfg Config
	sem *semaphore.Weighted
}

// Gateway implements usecase.Matcher.
var _ usecase.Matcher = (*Gateway)(nil)

// NewGateway creates a Gateway.
func NewGateway(cfg Config) *Gateway {
	if cfg.WorkDir == "" {
		cfg.WorkDir = cfg.ReportDir
	}
	if cfg.MaxStderrBytes <= 0 {
		cfg.MaxStderrBytes = 4096
	}
	// The report file name is fixed, so two running matchers would read each
	// other's reports.
	return &Gateway{cfg: cfg, sem: semaphore.NewWeighted(1)}
}

// Match stages the image, runs the recognition form of the matcher and parses
// its report. The deadline of ctx is the matcher timeout. The staged image and
// the report are removed on every path.
func (g *Gateway) Match(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return entity.MatchOutcome{}, contextError(ctx)
	}
	defer g.sem.Release(1)

	imagePath, cleanup, err := g.stageImage(image)
	if err != nil {
		return entity.MatchOutcome{}, fmt.Errorf("stage image: %w", err)
	}
	defer cleanup()

	reportPath := filepath.Join(g.cfg.ReportDir, ReportFileName)
	// 前回の実行が残したレポートを読まないように削除しておく
	removeQuietly(reportPath)
	defer removeQuietly(reportPath)

	if err := g.run(ctx,
		"--recognize", imagePath,
		"--seg-path-name", seg.PathName,
		"--rec-path-name", rec.PathName,
	); err != nil {
		return entity.MatchOutcome{}, err
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return entity.MatchOutcome{}, fmt.Errorf("%w: read report: %w", domain.ErrMatcherMalformedReport, err)
	}
	return parseReport(data)
}

// UpdateModel runs the --update-model form, which refreshes the matcher's
// internal index after new samples are registered.
func (g *Gateway) UpdateModel(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return contextError(ctx)
	}
	defer g.sem.Release(1)

	return g.run(ctx, "--update-model")
}

func (g *Gateway) stageImage(image []byte) (string, func(), error) {
	f, err := os.CreateTemp(g.cfg.TempDir, "fingerprint_*.bmp")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() { removeQuietly(path) }

	if _, err := f.Write(image); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func (g *Gateway) run(ctx context.Context, args ...string) error {
	argv := make([]string, 0, len(g.cfg.Args)+len(args))
	argv = append(argv, g.cfg.Args...)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, g.cfg.Command, argv...)
	cmd.Dir = g.cfg.WorkDir
	if len(g.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), g.cfg.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = g.cfg.WaitDelay
	configureProcess(cmd)

	err := cmd.Run()
	if ctx.Err() != nil {
		return contextError(ctx)
	}
	if stdout.Len() > 0 {
		slog.Debug("matcher output", "stdout", strings.TrimSpace(stdout.String()))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.MatcherExecutionError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   truncate(strings.TrimSpace(stderr.String()), g.cfg.MaxStderrBytes),
			}
		}
		return fmt.Errorf("%w: %w", domain.ErrMatcherExecutionFailed, err)
	}
	return nil
}

// contextError maps a finished context to the matcher error taxonomy.
func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrMatcherTimeout, ctx.Err())
	}
	return fmt.Errorf("matcher canceled: %w", ctx.Err())
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove matcher file", "path", path, "error", err)
	}
}

// truncate keeps the tail of s, where tracebacks end.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
