// Package tabular reads and writes the delimited tables exchanged with the
// upstream producers and downstream consumers of a matching run. Files may be
// local or remote, plain or compressed.
package tabular

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/rotisserie/eris"
	"github.com/sethgrid/pester"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Opener opens table locations. The zero value opens local and remote UTF-8
// files.
type Opener struct {
	// Client is used for http and https locations; a default retrying
	// client is created on first use.
	Client *pester.Client
	// Encoding names the character set of the data, e.g. "windows-1252".
	// Empty or "utf-8" means no transcoding.
	Encoding string

	mu sync.Mutex
}

// Open opens a local file with default options.
func Open(name string) (io.ReadCloser, error) {
	var o Opener
	return o.Open(name)
}

// Open returns a reader over the decompressed, UTF-8 content at name. A ".gz"
// or ".zst" suffix selects the decompressor.
func (o *Opener) Open(name string) (io.ReadCloser, error) {
	var (
		rc  = &readCloser{}
		src io.ReadCloser
		err error
	)
	if isRemote(name) {
		src, err = o.get(name)
	} else {
		src, err = os.Open(name)
	}
	if err != nil {
		return nil, err
	}
	rc.Reader = src
	rc.closers = append(rc.closers, src)
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(src)
		if err != nil {
			rc.Close()
			return nil, eris.Wrapf(err, "gzip: %s", name)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, zr)
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(src)
		if err != nil {
			rc.Close()
			return nil, eris.Wrapf(err, "zstd: %s", name)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, closerFunc(func() error {
			zr.Close()
			return nil
		}))
	}
	if o.Encoding != "" && !strings.EqualFold(o.Encoding, "utf-8") {
		enc, err := htmlindex.Get(o.Encoding)
		if err != nil {
			rc.Close()
			return nil, eris.Wrapf(err, "unknown encoding %q", o.Encoding)
		}
		rc.Reader = transform.NewReader(rc.Reader, enc.NewDecoder())
	}
	return rc, nil
}

// NewClient returns a retrying HTTP client with exponential backoff. Zero
// values keep the pester defaults.
func NewClient(maxRetries int, timeout time.Duration) *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.RetryOnHTTP429 = true
	if maxRetries > 0 {
		client.MaxRetries = maxRetries
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

func (o *Opener) client() *pester.Client {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Client == nil {
		o.Client = NewClient(0, 0)
	}
	return o.Client
}

func (o *Opener) get(link string) (io.ReadCloser, error) {
	resp, err := o.client().Get(link)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s", link)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Errorf("fetch %s: got HTTP %d", link, resp.StatusCode)
	}
	return resp.Body, nil
}

// Download saves the content at link to dst, going through a temporary
// ".wip" file, so dst is either complete or absent. Content is stored as is,
// without decompression.
func (o *Opener) Download(link, dst string) error {
	body, err := o.get(link)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	wip := dst + ".wip"
	f, err := os.Create(wip)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return eris.Wrapf(err, "download %s", link)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(wip, dst)
}

// Create opens name for writing, compressing by suffix like Open. Closing the
// writer flushes the compressor and closes the file.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	wc := &writeCloser{Writer: f}
	switch {
	case strings.HasSuffix(name, ".gz"):
		zw := gzip.NewWriter(f)
		wc.Writer = zw
		wc.closers = append(wc.closers, zw)
	case strings.HasSuffix(name, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, eris.Wrapf(err, "zstd: %s", name)
		}
		wc.Writer = zw
		wc.closers = append(wc.closers, zw)
	}
	wc.closers = append(wc.closers, f)
	return wc, nil
}

func isRemote(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// readCloser closes wrapped readers innermost last.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// writeCloser closes compressors before the underlying file.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	return first
}
