package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"covrun/internal/domain"
)

type fakeLoader struct {
	exists bool
	cfg    Config
	err    error
}

func (f fakeLoader) Exists(string) (bool, error) { return f.exists, f.err }
func (f fakeLoader) Load(string) (Config, error) { return f.cfg, f.err }

type fakeRunner struct {
	req     RunRequest
	calls   int
	profile string
	err     error
}

func (f *fakeRunner) Run(_ context.Context, req RunRequest) (string, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return f.profile, nil
}

type fakeModule struct{}

func (fakeModule) ModuleRoot(context.Context) (string, error) { return "/mod", nil }
func (fakeModule) ModulePath(context.Context) (string, error) { return "example.com/mod", nil }

type fakeParser struct {
	path    string
	summary domain.Summary
	err     error
}

func (f *fakeParser) Parse(path string) (domain.Summary, error) {
	f.path = path
	return f.summary, f.err
}

type fakeTerminal struct{ calls int }

func (f *fakeTerminal) WriteSummary(w io.Writer, _ domain.Summary) error {
	f.calls++
	_, err := io.WriteString(w, "<summary>\n")
	return err
}

type fakeReport struct {
	dir   string
	calls int
	index string
}

func (f *fakeReport) WriteReport(dir string, _ domain.Summary) (string, error) {
	f.calls++
	f.dir = dir
	return f.index, nil
}

type fakeOpener struct {
	paths []string
	err   error
}

func (f *fakeOpener) Open(path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

type fixture struct {
	svc      *Service
	runner   *fakeRunner
	parser   *fakeParser
	terminal *fakeTerminal
	report   *fakeReport
	opener   *fakeOpener
	out      *bytes.Buffer
}

func newFixture() *fixture {
	f := &fixture{
		runner:   &fakeRunner{profile: "/mod/.cover/coverage.out"},
		parser:   &fakeParser{summary: domain.NewSummary(map[string][]domain.Block{"example.com/mod/a.go": {{StartLine: 1, EndLine: 2, Statements: 1, Count: 0}}})},
		terminal: &fakeTerminal{},
		report:   &fakeReport{index: "/mod/.cover/html/index.html"},
		opener:   &fakeOpener{},
		out:      &bytes.Buffer{},
	}
	f.svc = &Service{
		ConfigLoader: fakeLoader{},
		Runner:       f.runner,
		Module:       fakeModule{},
		Parser:       f.parser,
		Terminal:     f.terminal,
		HTML:         f.report,
		Opener:       f.opener,
		Out:          f.out,
	}
	return f
}

func TestRunForwardsArgsVerbatim(t *testing.T) {
	f := newFixture()
	err := f.svc.Run(context.Background(), RunOptions{Args: []string{"-run", "TestFoo"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.runner.req.Args) != 2 || f.runner.req.Args[0] != "-run" || f.runner.req.Args[1] != "TestFoo" {
		t.Fatalf("expected verbatim args, got %v", f.runner.req.Args)
	}
}

func TestRunAppendsCallerArgsAfterConfigArgs(t *testing.T) {
	f := newFixture()
	f.svc.ConfigLoader = fakeLoader{exists: true, cfg: Config{
		Packages: []string{"./..."}, Mode: "count", ReportDir: "r", Profile: "p", Open: true,
		Args: []string{"-race"},
	}}
	if err := f.svc.Run(context.Background(), RunOptions{ConfigPath: "x", Args: []string{"-v"}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := f.runner.req.Args
	if len(got) != 2 || got[0] != "-race" || got[1] != "-v" {
		t.Fatalf("expected config args then caller args, got %v", got)
	}
}

func TestRunSuccessOrdering(t *testing.T) {
	f := newFixture()
	if err := f.svc.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := f.out.String()
	if !strings.Contains(out, "Running tests with coverage...") {
		t.Fatalf("expected announcement, got:\n%s", out)
	}
	if strings.Count(out, "HTML report written to /mod/.cover/html/index.html") != 1 {
		t.Fatalf("expected confirmation exactly once, got:\n%s", out)
	}
	if strings.Index(out, "<summary>") > strings.Index(out, "HTML report written") {
		t.Fatalf("expected summary before confirmation, got:\n%s", out)
	}
	if len(f.opener.paths) != 1 || f.opener.paths[0] != "/mod/.cover/html/index.html" {
		t.Fatalf("expected viewer launch after confirmation, got %v", f.opener.paths)
	}
	if f.parser.path != "/mod/.cover/coverage.out" {
		t.Fatalf("expected runner's profile parsed, got %s", f.parser.path)
	}
}

func TestRunFailFastOnTestFailure(t *testing.T) {
	f := newFixture()
	f.runner.err = &ExitError{Code: 7}

	err := f.svc.Run(context.Background(), RunOptions{Args: []string{"-k", "test_foo"}})
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 7 {
		t.Fatalf("expected exit error code 7, got %v", err)
	}
	if len(f.runner.req.Args) != 2 || f.runner.req.Args[0] != "-k" || f.runner.req.Args[1] != "test_foo" {
		t.Fatalf("expected args forwarded verbatim even on failure, got %v", f.runner.req.Args)
	}
	if f.parser.path != "" || f.terminal.calls != 0 || f.report.calls != 0 {
		t.Fatalf("expected no rendering after failed run")
	}
	if len(f.opener.paths) != 0 {
		t.Fatalf("expected no viewer launch after failed run")
	}
	if strings.Contains(f.out.String(), "HTML report written") {
		t.Fatalf("expected no confirmation after failed run, got:\n%s", f.out.String())
	}
}

func TestRunDiscardsViewerFailure(t *testing.T) {
	f := newFixture()
	f.opener.err = errors.New("no display")

	if err := f.svc.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("expected viewer failure discarded, got %v", err)
	}
	if strings.Count(f.out.String(), "HTML report written") != 1 {
		t.Fatalf("expected confirmation exactly once despite viewer failure, got:\n%s", f.out.String())
	}
}

func TestRunHonorsNoOpen(t *testing.T) {
	f := newFixture()
	if err := f.svc.Run(context.Background(), RunOptions{NoOpen: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.opener.paths) != 0 {
		t.Fatalf("expected no viewer launch with NoOpen")
	}
}

func TestRunHonorsConfigOpenFalse(t *testing.T) {
	f := newFixture()
	cfg := DefaultConfig()
	cfg.Open = false
	f.svc.ConfigLoader = fakeLoader{exists: true, cfg: cfg}
	if err := f.svc.Run(context.Background(), RunOptions{ConfigPath: "x"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.opener.paths) != 0 {
		t.Fatalf("expected no viewer launch when config disables it")
	}
}

func TestRunRelativizesModulePaths(t *testing.T) {
	f := newFixture()
	summary, err := f.svc.RunResult(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Files[0].File != "a.go" {
		t.Fatalf("expected module prefix trimmed, got %s", summary.Files[0].File)
	}
}

func TestRunResolvesReportDirAgainstModuleRoot(t *testing.T) {
	f := newFixture()
	if err := f.svc.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.report.dir != "/mod/.cover/html" {
		t.Fatalf("expected report dir under module root, got %s", f.report.dir)
	}
}

func TestReportDoesNotRunTestsOrOpen(t *testing.T) {
	f := newFixture()
	if err := f.svc.Report(context.Background(), ReportOptions{Profile: "/tmp/custom.out"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if f.runner.calls != 0 {
		t.Fatalf("expected no test run")
	}
	if f.parser.path != "/tmp/custom.out" {
		t.Fatalf("expected explicit profile used, got %s", f.parser.path)
	}
	if len(f.opener.paths) != 0 {
		t.Fatalf("expected no viewer launch from report")
	}
}

type fakeWatcher struct {
	events  chan struct{}
	watched string
}

func (f *fakeWatcher) WatchDir(root string) error { f.watched = root; return nil }
func (f *fakeWatcher) Events(ctx context.Context) <-chan struct{} {
	return f.events
}

func TestWatchRerunsOnEvents(t *testing.T) {
	f := newFixture()
	w := &fakeWatcher{events: make(chan struct{}, 2)}
	w.events <- struct{}{}
	w.events <- struct{}{}
	close(w.events)

	var runs []int
	err := f.svc.Watch(context.Background(), RunOptions{}, w, func(run int, err error) {
		runs = append(runs, run)
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if w.watched != "/mod" {
		t.Fatalf("expected module root watched, got %s", w.watched)
	}
	if len(runs) != 3 {
		t.Fatalf("expected initial run plus two re-runs, got %v", runs)
	}
	if f.runner.calls != 3 {
		t.Fatalf("expected 3 runner invocations, got %d", f.runner.calls)
	}
	// Viewer opens only for the first run.
	if len(f.opener.paths) != 1 {
		t.Fatalf("expected exactly one viewer launch across watch runs, got %d", len(f.opener.paths))
	}
}

func TestWatchKeepsRunningAfterFailure(t *testing.T) {
	f := newFixture()
	f.runner.err = &ExitError{Code: 1}
	w := &fakeWatcher{events: make(chan struct{}, 1)}
	w.events <- struct{}{}
	close(w.events)

	var errs []error
	err := f.svc.Watch(context.Background(), RunOptions{}, w, func(run int, err error) {
		errs = append(errs, err)
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(errs) != 2 || errs[0] == nil || errs[1] == nil {
		t.Fatalf("expected both runs reported as failed, got %v", errs)
	}
}

func TestRunWrapsConfigLoadFailure(t *testing.T) {
	f := newFixture()
	f.svc.ConfigLoader = fakeLoader{exists: true, err: errors.New("yaml: line 2: mapping values are not allowed")}

	err := f.svc.Run(context.Background(), RunOptions{ConfigPath: ".covrun.yaml"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if f.runner.calls != 0 {
		t.Fatalf("expected no test run with broken config")
	}
}

func TestDetectReturnsDefaultsWithoutConfig(t *testing.T) {
	f := newFixture()
	cfg, err := f.svc.Detect(context.Background(), ".covrun.yaml")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if cfg.ReportDir != DefaultConfig().ReportDir {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}
