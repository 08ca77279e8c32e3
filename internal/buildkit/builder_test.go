package buildkit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lathe/internal/buildkit"
	"lathe/internal/checksum"
	"lathe/internal/testsupport"
)

type fakeExecutor struct {
	produce string
	stderr  string
	err     error
	calls   int
	args    []string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, workDir string) (string, error) {
	f.calls++
	f.args = args
	if f.err != nil {
		return f.stderr, f.err
	}
	if f.produce != "" {
		if err := os.MkdirAll(filepath.Dir(f.produce), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(f.produce, []byte("bundle bytes"), 0o755); err != nil {
			return "", err
		}
	}
	return f.stderr, nil
}

func TestBuildBundleRelocatesQuirkyOutputName(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBundleTemplate("{app}-v{version}.bin"))
	entry := filepath.Join(cfg.Paths.ProjectDir, "launcher.py")
	testsupport.WriteTextFile(t, entry, "print('hi')\n")

	// The packager appends .exe regardless of the requested name.
	exec := &fakeExecutor{
		produce: filepath.Join(cfg.Paths.OutputDir, "TezgahTakip-v1.2.3.bin.exe"),
	}
	builder, err := buildkit.New(cfg, nil, buildkit.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	result := builder.BuildBundle(context.Background(), entry, "1.2.3")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	want := filepath.Join(cfg.Paths.OutputDir, "TezgahTakip-v1.2.3.bin")
	if result.OutputPath != want {
		t.Fatalf("expected canonical path %q, got %q", want, result.OutputPath)
	}
	if exec.calls != 1 {
		t.Fatalf("expected one packager invocation, got %d", exec.calls)
	}

	size, digest, err := checksum.File(result.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if size != result.Size || digest != result.Checksum {
		t.Fatalf("result integrity fields disagree with independent digest: (%d,%s) vs (%d,%s)",
			result.Size, result.Checksum, size, digest)
	}
}

func TestBuildBundleMissingEntryPointSkipsPackager(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{}
	builder, err := buildkit.New(cfg, nil, buildkit.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	result := builder.BuildBundle(context.Background(), filepath.Join(cfg.Paths.ProjectDir, "absent.py"), "1.2.3")
	if result.Success {
		t.Fatal("expected failure for missing entry point")
	}
	if !strings.Contains(result.Error, "entry point not found") {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
	if exec.calls != 0 {
		t.Fatalf("packager must not run for missing entry point, ran %d times", exec.calls)
	}
	if result.OutputPath != "" {
		t.Fatalf("output path must be empty on failure, got %q", result.OutputPath)
	}
}

func TestBuildBundleSurfacesPackagerStderr(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	entry := filepath.Join(cfg.Paths.ProjectDir, "launcher.py")
	testsupport.WriteTextFile(t, entry, "print('hi')\n")

	exec := &fakeExecutor{
		stderr: "FATAL: hidden import missing",
		err:    errors.New("exit status 1"),
	}
	builder, err := buildkit.New(cfg, nil, buildkit.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	result := builder.BuildBundle(context.Background(), entry, "1.2.3")
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "hidden import missing") {
		t.Fatalf("expected stderr surfaced verbatim, got %q", result.Error)
	}
}

func TestResolveEntryPointPicksFirstExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Project.EntryPoints = []string{"launcher.py", "main.py"}
	testsupport.WriteTextFile(t, filepath.Join(cfg.Paths.ProjectDir, "main.py"), "print('hi')\n")

	builder, err := buildkit.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := builder.ResolveEntryPoint()
	if err != nil {
		t.Fatalf("ResolveEntryPoint: %v", err)
	}
	if filepath.Base(got) != "main.py" {
		t.Fatalf("expected main.py, got %q", got)
	}
}

func TestResolveEntryPointFailsWhenNoneExist(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	builder, err := buildkit.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := builder.ResolveEntryPoint(); err == nil {
		t.Fatal("expected error when no entry point exists")
	}
}

func TestCleanupToleratesMissingWorkDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	builder, err := buildkit.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := builder.Cleanup(); err != nil {
		t.Fatalf("Cleanup on absent work dir: %v", err)
	}

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkDir, "build", "junk.tmp"), 16)
	if err := builder.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.WorkDir); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, err=%v", err)
	}
}
