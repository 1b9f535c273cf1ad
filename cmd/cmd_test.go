package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foodiepass/menufixture"
	"github.com/foodiepass/menufixture/config"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"golang.org/x/image/font/gofont/goregular"
)

func setup(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	gf = flags{}
	profile = ""
	verbose = false
	openFile = false
	// pflag keeps Changed across executions of the same command tree
	reset := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.PersistentFlags().VisitAll(reset)
	rootCmd.Flags().VisitAll(reset)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	if args == nil {
		// cobra falls back to os.Args when args is nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootGenerate(t *testing.T) {
	setup(t)
	out := filepath.Join(t.TempDir(), "backend", "src", "test", "resources", "images", "test-menu.jpg")

	for i := 0; i < 2; i++ {
		stdout, err := run(t, "--out", out, "--builtin-font")
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3:\n%s", len(lines), stdout)
		}
		if !strings.Contains(lines[0], "Test menu image created: "+out) {
			t.Errorf("unexpected first line: %q", lines[0])
		}
		if !strings.Contains(lines[1], "Image size: 800x600") {
			t.Errorf("unexpected second line: %q", lines[1])
		}
		if !strings.Contains(lines[2], "File size: ") || !strings.HasSuffix(lines[2], " KB") {
			t.Errorf("unexpected third line: %q", lines[2])
		}
	}

	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}
	f, err := menufixture.Inspect(out)
	if err != nil {
		t.Fatal(err)
	}
	if f.MIMEType() != menufixture.MIMETypeImageJPEG || f.Width() != 800 || f.Height() != 600 {
		t.Errorf("got %s %dx%d, want image/jpeg 800x600", f.MIMEType(), f.Width(), f.Height())
	}
}

func TestRootRejectsArgs(t *testing.T) {
	setup(t)
	if _, err := run(t, "extra"); err == nil {
		t.Error("root command should not accept positional arguments")
	}
}

func TestRootHelp(t *testing.T) {
	setup(t)
	stdout, err := run(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{menufixture.DefaultOutput, "run it from the repository root"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help does not contain %q:\n%s", want, stdout)
		}
	}
}

func TestRootQuality(t *testing.T) {
	tests := []struct {
		name    string
		quality string
		wantErr bool
	}{
		{"lowest", "1", false},
		{"highest", "100", false},
		{"zero", "0", true},
		{"too high", "101", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			out := filepath.Join(t.TempDir(), "test-menu.jpg")
			_, err := run(t, "--out", out, "--builtin-font", "--quality", tt.quality)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error %v, wantErr %v", err, tt.wantErr)
			}
			_, statErr := os.Stat(out)
			if tt.wantErr && statErr == nil {
				t.Error("no image should be written for an invalid quality")
			}
			if !tt.wantErr && statErr != nil {
				t.Error(statErr)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	setup(t)
	out := filepath.Join(t.TempDir(), "test-menu.jpg")
	if _, err := run(t, "--out", out, "--builtin-font"); err != nil {
		t.Fatal(err)
	}

	stdout, err := run(t, "verify", "--out", out, "--builtin-font")
	if err != nil {
		t.Fatalf("verify failed: %v\n%s", err, stdout)
	}
	for _, want := range []string{"✓ format: image/jpeg", "✓ size: 800x600", "✓ content:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output does not contain %q:\n%s", want, stdout)
		}
	}

	blank := filepath.Join(t.TempDir(), "blank.jpg")
	if err := os.WriteFile(blank, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "verify", blank, "--builtin-font"); err == nil {
		t.Error("verify should fail for an empty file")
	}
}

func TestDoctor(t *testing.T) {
	setup(t)
	font := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(font, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "missing.ttc")

	t.Run("font available", func(t *testing.T) {
		gf = flags{}
		stdout, err := run(t, "doctor", "--builtin-font", "--font", missing, "--font", font)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"No configuration file",
			missing + " ... ✗ UNAVAILABLE",
			font + " ... ✓ OK (selected)",
			"Japanese text will be rendered with " + font,
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output does not contain %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("no font available", func(t *testing.T) {
		gf = flags{}
		stdout, err := run(t, "doctor", "--builtin-font", "--font", missing)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(stdout, "No font candidate is available.") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		flags flags
		cfg   *config.Config
		want  settings
	}{
		{
			name: "defaults",
			cfg:  &config.Config{},
			want: settings{
				output:      menufixture.DefaultOutput,
				quality:     menufixture.DefaultQuality,
				systemFonts: true,
			},
		},
		{
			name: "config",
			cfg: &config.Config{
				Output:      "config.jpg",
				Quality:     intPtr(80),
				Fonts:       []string{"config.ttf"},
				BuiltinFont: boolPtr(true),
			},
			want: settings{
				output:  "config.jpg",
				quality: 80,
				fonts:   []string{"config.ttf"},
			},
		},
		{
			name: "flags take precedence",
			flags: flags{
				out:        "flag.jpg",
				quality:    50,
				fonts:      []string{"flag.ttf"},
				qualitySet: true,
			},
			cfg: &config.Config{
				Output:      "config.jpg",
				Quality:     intPtr(80),
				Fonts:       []string{"config.ttf"},
				BuiltinFont: boolPtr(false),
			},
			want: settings{
				output:      "flag.jpg",
				quality:     50,
				fonts:       []string{"flag.ttf", "config.ttf"},
				systemFonts: true,
			},
		},
		{
			name:  "explicit zero quality is kept",
			flags: flags{quality: 0, qualitySet: true},
			cfg:   &config.Config{Quality: intPtr(80)},
			want: settings{
				output:      menufixture.DefaultOutput,
				quality:     0,
				systemFonts: true,
			},
		},
		{
			name:  "builtin font flag",
			flags: flags{builtinFont: true},
			cfg:   &config.Config{},
			want: settings{
				output:  menufixture.DefaultOutput,
				quality: menufixture.DefaultQuality,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.flags, tt.cfg)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(settings{})); diff != "" {
				t.Errorf("resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	setup(t)
	out := filepath.Join(t.TempDir(), "from-config.jpg")
	dir := config.ConfigHomePath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := "output: " + out + "\nbuiltinFont: true\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, err := run(t)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Test menu image created: "+out) {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestLoggerTail(t *testing.T) {
	setup(t)
	logger, stop, err := newLogger(io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer stop()
	logger.Info("fixture written", "path", "kept-in-tail.jpg")

	lines := tb.Lines()
	if len(lines) == 0 {
		t.Fatal("no log lines are kept")
	}
	last := lines[len(lines)-1]
	for _, want := range []string{`"msg":"fixture written"`, `"path":"kept-in-tail.jpg"`} {
		if !strings.Contains(last, want) {
			t.Errorf("last line %q does not contain %s", last, want)
		}
	}
}

func TestWatch(t *testing.T) {
	setup(t)
	tmp := t.TempDir()
	first := filepath.Join(tmp, "first.jpg")
	second := filepath.Join(tmp, "second.jpg")
	dir := config.ConfigHomePath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yml")
	writeConfig := func(out string) {
		t.Helper()
		cfg := "output: " + out + "\nbuiltinFont: true\n"
		if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeConfig(first)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"watch"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- rootCmd.ExecuteContext(ctx)
	}()

	waitFor := func(p string, touch func()) {
		t.Helper()
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(p); err == nil {
				return
			}
			select {
			case err := <-errCh:
				t.Fatalf("watch exited early: %v", err)
			default:
			}
			if touch != nil {
				touch()
			}
			time.Sleep(100 * time.Millisecond)
		}
		t.Fatalf("%s was not written", p)
	}
	waitFor(first, nil)
	// The watcher may not be registered yet, so the config is rewritten until the change is seen
	waitFor(second, func() { writeConfig(second) })

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("watch returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}
