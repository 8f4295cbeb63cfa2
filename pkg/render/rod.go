package render

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/matzehuels/mindmapper/pkg/errors"
)

// readyMarker is present once markmap has drawn its first node group.
const readyMarker = "svg g"

// BrowserRasterizer screenshots HTML documents in headless Chromium. Each
// call launches and tears down its own browser process; callers that run
// many renders at once should bound concurrency themselves.
type BrowserRasterizer struct {
	// Bin is the Chromium executable. Empty uses a system browser if one is
	// found, otherwise go-rod's managed download.
	Bin string
	// NoSandbox disables the Chromium sandbox, needed in most containers.
	NoSandbox bool
	// ReadinessTimeout bounds each readiness wait.
	ReadinessTimeout time.Duration
	// Settle is how long the DOM must stay unchanged before capture.
	Settle   time.Duration
	Branding Branding
	Logger   *log.Logger
}

// Rasterize captures a full-page PNG of the document at src into dst.
func (r BrowserRasterizer) Rasterize(ctx context.Context, src, dst string, s Surface) error {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := r.ReadinessTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	settle := r.Settle
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}

	target, err := fileURL(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "resolve document path")
	}

	l := launcher.New().Context(ctx).Headless(true).NoSandbox(r.NoSandbox)
	if bin := r.browserBin(); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "launch browser")
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "connect to browser")
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Debug("close browser", "error", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "open page")
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.Width,
		Height:            s.Height,
		DeviceScaleFactor: s.DeviceScale,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "set viewport %dx%d", s.Width, s.Height)
	}

	if err := page.Timeout(timeout).Navigate(target); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "navigate to %s", target)
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "wait for load")
	}
	if _, err := page.Timeout(timeout).Element(readyMarker); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "mind map did not render within %s", timeout)
	}
	if err := page.Timeout(timeout).WaitDOMStable(settle, 0); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "wait for layout to settle")
	}

	if _, err := page.Eval(removeBrandingJS, r.Branding.jsArg()); err != nil {
		logger.Warn("branding cleanup failed, continuing", "error", err)
	}
	if _, err := page.Eval(finalCleanupJS); err != nil {
		logger.Warn("final cleanup failed, continuing", "error", err)
	}
	if err := page.Timeout(timeout).WaitDOMStable(settle, 0); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "wait for cleanup to settle")
	}

	png, err := page.Timeout(timeout).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "capture screenshot")
	}
	if err := os.WriteFile(dst, png, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "write screenshot")
	}
	logger.Debug("captured screenshot", "path", dst, "bytes", len(png))
	return nil
}

func (r BrowserRasterizer) browserBin() string {
	if r.Bin != "" {
		return r.Bin
	}
	if p, ok := launcher.LookPath(); ok {
		return p
	}
	return ""
}

// CheckBrowser launches and closes the browser once.
func (r BrowserRasterizer) CheckBrowser(ctx context.Context) (string, error) {
	l := launcher.New().Context(ctx).Headless(true).NoSandbox(r.NoSandbox)
	bin := r.browserBin()
	if bin != "" {
		l = l.Bin(bin)
	}
	u, err := l.Launch()
	if err != nil {
		return bin, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return bin, fmt.Errorf("connect to browser: %w", err)
	}
	v, err := browser.Version()
	_ = browser.Close()
	if err != nil {
		return bin, fmt.Errorf("query browser version: %w", err)
	}
	return v.Product, nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
