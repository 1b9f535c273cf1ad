package menufixture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/foodiepass/menufixture/version"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/k1LoW/errors"
	"golang.org/x/image/font/opentype"
)

var _ retryablehttp.LeveledLogger = (*slog.Logger)(nil)

var userAgent = version.Name + "/" + version.Version

// fontFetcher downloads remote fonts and keeps them in a local cache directory.
type fontFetcher struct {
	client   *http.Client
	cacheDir string
	logger   *slog.Logger
}

func newRetryClient(logger *slog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = newAPILogger(logger)
	return retryClient.StandardClient()
}

func (f *fontFetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:])
	if u, err := url.Parse(rawURL); err == nil {
		name += strings.ToLower(path.Ext(u.Path))
	}
	return filepath.Join(f.cacheDir, name)
}

// Fetch returns the font data for rawURL, downloading it only if no valid copy is cached.
// Only data that parses as a font is cached, and a cached file that no longer parses is replaced.
func (f *fontFetcher) Fetch(ctx context.Context, rawURL string) (_ []byte, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	p := f.cachePath(rawURL)
	if b, err := os.ReadFile(p); err == nil {
		if _, err := opentype.ParseCollection(b); err == nil {
			f.logger.Debug("using cached font", slog.String("url", rawURL), slog.String("path", p))
			return b, nil
		}
		f.logger.Warn("discarding broken cached font", slog.String("url", rawURL), slog.String("path", p))
		if err := os.Remove(p); err != nil {
			return nil, fmt.Errorf("failed to remove broken cached font %s: %w", p, err)
		}
	}
	f.logger.Info("fetching font", slog.String("url", rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch font from URL %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch font from URL %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch font from URL %s: status code %d", rawURL, res.StatusCode)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read font from URL %s: %w", rawURL, err)
	}
	if _, err := opentype.ParseCollection(b); err != nil {
		return nil, fmt.Errorf("failed to parse font from URL %s: %w", rawURL, err)
	}
	if err := f.store(p, b); err != nil {
		return nil, err
	}
	f.logger.Info("fetched font", slog.String("url", rawURL), slog.Int("bytes", len(b)))
	return b, nil
}

// store writes b to p through a temporary file so that p never holds a partial font.
func (f *fontFetcher) store(p string, b []byte) (err error) {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create font cache directory %s: %w", f.cacheDir, err)
	}
	tmp, err := os.CreateTemp(f.cacheDir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to cache font %s: %w", p, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to cache font %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to cache font %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to cache font %s: %w", p, err)
	}
	return nil
}

var _ retryablehttp.LeveledLogger = (*apiLogger)(nil)

type apiLogger struct {
	l *slog.Logger
}

func (l *apiLogger) Error(msg string, keysAndValues ...any) {
	l.l.Error(msg, append([]any{slog.String("original_log_level", "error")}, keysAndValues...)...)
}
func (l *apiLogger) Info(msg string, keysAndValues ...any) {
	l.l.Info(msg, append([]any{slog.String("original_log_level", "info")}, keysAndValues...)...)
}
func (l *apiLogger) Debug(msg string, keysAndValues ...any) {
	if strings.HasPrefix(msg, "retrying") {
		// Raised to info so that the console handler can show a spinner
		l.l.Info(msg, append([]any{slog.String("original_log_level", "debug")}, keysAndValues...)...)
		return
	}
	l.l.Debug(msg, append([]any{slog.String("original_log_level", "debug")}, keysAndValues...)...)
}
func (l *apiLogger) Warn(msg string, keysAndValues ...any) {
	l.l.Warn(msg, append([]any{slog.String("original_log_level", "warn")}, keysAndValues...)...)
}

func newAPILogger(l *slog.Logger) retryablehttp.LeveledLogger {
	return &apiLogger{
		l: l.WithGroup("http"),
	}
}
