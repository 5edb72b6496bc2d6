package mover

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/data/bazel"
	"moduledeps/internal/shared/observability"
)

// DirResolver maps a module name to its directory relative to the root.
type DirResolver func(module string) (string, error)

// LabelDirs resolves a module label to its package directory.
func LabelDirs(module string) (string, error) {
	l, ok := bazel.ParseLabel(module)
	if !ok {
		return "", errors.AddContext(errors.New(errors.CodeNotFound, "cannot resolve module directory"), errors.CtxModule, module)
	}
	return l.Package, nil
}

type Mover struct {
	root       string
	resolve    DirResolver
	annotation string
}

// New returns a mover rooted at root. A nil resolver uses LabelDirs.
func New(root string, resolve DirResolver, annotation string) *Mover {
	if resolve == nil {
		resolve = LabelDirs
	}
	if annotation == "" {
		annotation = "TargetModule"
	}
	return &Mover{root: root, resolve: resolve, annotation: annotation}
}

type Result struct {
	Action Action
	// Dest is the workspace-relative path written, empty on failure.
	Dest string
	Err  error
}

// ApplyAll runs every action, continuing past failures.
func (m *Mover) ApplyAll(ctx context.Context, actions []Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		dest, err := m.Move(ctx, a)
		if err != nil {
			slog.Error("move failed", "action", a.String(), "error", err)
		} else {
			slog.Info("moved", "from", a.FromLocation, "to_module", a.ToModule, "dest", dest)
		}
		results = append(results, Result{Action: a, Dest: dest, Err: err})
	}
	return results
}

// Move copies the source to the mirrored path under the destination module
// with the target annotation stripped, then deletes the original. On any
// failure the source stays in place and partial output is removed.
func (m *Mover) Move(ctx context.Context, a Action) (dest string, err error) {
	_, span := observability.Tracer.Start(ctx, "mover.Move", trace.WithAttributes(
		attribute.String("from_module", a.FromModule),
		attribute.String("to_module", a.ToModule),
	))
	defer span.End()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
		}
		observability.MovesTotal.WithLabelValues(outcome).Inc()
	}()

	if err := a.validate(); err != nil {
		return "", err
	}
	fromDir, err := m.resolve(a.FromModule)
	if err != nil {
		return "", err
	}
	toDir, err := m.resolve(a.ToModule)
	if err != nil {
		return "", err
	}

	rel := filepath.FromSlash(a.FromLocation)
	src := filepath.Join(m.root, filepath.FromSlash(fromDir), rel)
	destRel := filepath.ToSlash(filepath.Join(filepath.FromSlash(toDir), rel))
	destPath := filepath.Join(m.root, filepath.FromSlash(destRel))

	content, err := os.ReadFile(src)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "read source"), errors.CtxPath, src)
	}
	if _, err := os.Stat(destPath); err == nil {
		return "", errors.AddContext(errors.New(errors.CodeConflict, "destination already exists"), errors.CtxPath, destPath)
	}

	created, err := mkdirAllTracked(filepath.Dir(destPath))
	if err != nil {
		removeDirs(created)
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "create destination directory"), errors.CtxPath, destPath)
	}
	rollback := func() {
		_ = os.Remove(destPath)
		removeDirs(created)
	}

	info, err := os.Stat(src)
	if err != nil {
		rollback()
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "stat source"), errors.CtxPath, src)
	}
	stripped := StripAnnotation(string(content), m.annotation)
	if err := os.WriteFile(destPath, []byte(stripped), info.Mode().Perm()); err != nil {
		rollback()
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "write destination"), errors.CtxPath, destPath)
	}
	if err := os.Remove(src); err != nil {
		rollback()
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "remove source"), errors.CtxPath, src)
	}
	return destRel, nil
}

// mkdirAllTracked creates dir and returns the directories it created,
// deepest first.
func mkdirAllTracked(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	var created []string
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil && !os.IsExist(err) {
			return created, err
		}
		created = append([]string{missing[i]}, created...)
	}
	return created, nil
}

func removeDirs(dirs []string) {
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}
