package broker

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MaxImageBytes caps a single pasted image at 10 MiB.
const MaxImageBytes = 10 << 20

// imageExtensions maps the accepted image MIME types to the extension the
// saved file gets. Anything else is rejected.
var imageExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/bmp":     "bmp",
	"image/svg+xml": "svg",
}

// Attachments saves pasted images to a scratch directory and deletes them
// after the request that carried them resolves. The delay before deletion is
// injectable so tests do not sleep.
type Attachments struct {
	dir   string
	delay time.Duration

	mu    sync.Mutex
	saved map[string]bool // temp file paths not yet cleaned up
}

// NewAttachments creates a saver rooted at dir. delay <= 0 selects the
// default 60 seconds, which gives the agent time to read the file back
// before it disappears.
func NewAttachments(dir string, delay time.Duration) *Attachments {
	if delay <= 0 {
		delay = 60 * time.Second
	}
	return &Attachments{dir: dir, delay: delay, saved: make(map[string]bool)}
}

// SaveImage decodes a data URL and writes it under the scratch directory as
// image-pasted.<ext>, suffixing -2, -3 and so on when the name is taken. It
// returns the absolute path of the saved file.
func (a *Attachments) SaveImage(dataURL string) (string, error) {
	mimeType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mimeType)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", MaxImageBytes)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	path := filepath.Join(a.dir, "image-pasted."+ext)
	for i := 2; fileExists(path); i++ {
		path = filepath.Join(a.dir, fmt.Sprintf("image-pasted-%d.%s", i, ext))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	a.saved[path] = true
	return path, nil
}

// Remove deletes a saved image immediately, for when the user detaches it
// before the request resolves.
func (a *Attachments) Remove(path string) error {
	a.mu.Lock()
	delete(a.saved, path)
	a.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ScheduleCleanup deletes the given temp files after the configured delay.
func (a *Attachments) ScheduleCleanup(paths []string) {
	for _, p := range paths {
		p := p
		time.AfterFunc(a.delay, func() {
			a.mu.Lock()
			delete(a.saved, p)
			a.mu.Unlock()
			os.Remove(p)
		})
	}
}

// CleanupAll deletes every temp file still on disk. Called on shutdown.
func (a *Attachments) CleanupAll() {
	a.mu.Lock()
	paths := make([]string, 0, len(a.saved))
	for p := range a.saved {
		paths = append(paths, p)
	}
	a.saved = make(map[string]bool)
	a.mu.Unlock()

	for _, p := range paths {
		os.Remove(p)
	}
}

// decodeDataURL splits a data: URL into its MIME type and payload. Both
// base64 and percent-encoded payloads are accepted.
func decodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}

	mimeType := meta
	base64Encoded := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		mimeType = m
		base64Encoded = true
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	if base64Encoded {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return mimeType, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return mimeType, []byte(decoded), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
