// Package fetch downloads and unpacks pre-built simulation executables. A
// fetch is a single pass: resolve the platform archive URL, stream it to
// disk, extract the binary and mark it executable. There is deliberately no
// retry, checksum or concurrency logic.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BinaryName is what the extracted executable is renamed to.
const BinaryName = "project"

// Fetcher downloads model archives from a catalog.
type Fetcher struct {
	Catalog Catalog
	Client  *http.Client
	GOOS    string // defaults to runtime.GOOS
	log     *zap.Logger
}

// New creates a Fetcher over a catalog.
func New(catalog Catalog, log *zap.Logger) *Fetcher {
	return &Fetcher{
		Catalog: catalog,
		Client:  http.DefaultClient,
		GOOS:    runtime.GOOS,
		log:     log,
	}
}

// Fetch downloads the model archive into destDir, extracts the executable,
// removes the archive and returns the path of the installed binary.
func (f *Fetcher) Fetch(ctx context.Context, model, destDir string) (string, error) {
	url, err := f.Catalog.ResolveURL(model, f.GOOS)
	if err != nil {
		return "", err
	}
	archiveName, err := ArchiveName(model, f.GOOS)
	if err != nil {
		return "", err
	}

	f.log.Info("downloading model",
		zap.String("model", model),
		zap.String("os", f.GOOS),
		zap.String("url", url))

	archivePath := filepath.Join(destDir, archiveName)
	if err := f.download(ctx, url, archivePath); err != nil {
		return "", err
	}

	binaryName, err := extractFirst(archivePath, destDir)
	if err != nil {
		return "", fmt.Errorf("unpacking %s: %w", archiveName, err)
	}
	if err := os.Remove(archivePath); err != nil {
		return "", fmt.Errorf("removing archive: %w", err)
	}

	installed, err := f.install(destDir, binaryName, archiveName)
	if err != nil {
		return "", err
	}
	f.log.Info("model installed", zap.String("path", installed))
	return installed, nil
}

// download streams the URL to path. The body lands in a uniquely-suffixed
// temp file that is renamed into place only on success.
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmpPath := fmt.Sprintf("%s.%s", path, uuid.NewString()[:8])
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}

	written, err := io.Copy(out, &progressReader{
		r:     resp.Body,
		total: resp.ContentLength,
		log:   f.log,
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming download: %w", err)
	}

	f.log.Info("download complete", zap.Int64("bytes", written))
	return nil
}

// progressReader logs download progress at every 10% step when the total
// size is known, otherwise at each megabyte boundary.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastMark int64
	log      *zap.Logger
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		if mark := p.read * 10 / p.total; mark > p.lastMark {
			p.lastMark = mark
			p.log.Info("downloading",
				zap.Int64("percent", mark*10),
				zap.Int64("read", p.read),
				zap.Int64("total", p.total))
		}
	} else if mark := p.read >> 20; mark > p.lastMark {
		p.lastMark = mark
		p.log.Info("downloading", zap.Int64("read", p.read))
	}
	return n, err
}

// extractFirst extracts the first regular member of a gzipped tar archive
// into destDir and returns its name.
func extractFirst(archivePath, destDir string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("reading gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", fmt.Errorf("archive has no regular file")
		}
		if err != nil {
			return "", fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(filepath.Clean(hdr.Name))
		if name == "." || name == ".." || strings.HasPrefix(name, "..") {
			return "", fmt.Errorf("unsafe member name %q", hdr.Name)
		}
		outPath := filepath.Join(destDir, name)
		out, err := os.Create(outPath)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return "", fmt.Errorf("extracting %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return name, nil
	}
}

// install renames the extracted binary to its canonical name and sets the
// executable bit. Windows archives keep an .exe suffix and skip the chmod.
func (f *Fetcher) install(destDir, binaryName, archiveName string) (string, error) {
	target := BinaryName
	windows := strings.HasSuffix(archiveName, "win.tar.gz")
	if windows {
		target += ".exe"
	}

	from := filepath.Join(destDir, binaryName)
	to := filepath.Join(destDir, target)
	if from != to {
		if err := os.Rename(from, to); err != nil {
			return "", fmt.Errorf("renaming binary: %w", err)
		}
	}

	if !windows {
		info, err := os.Stat(to)
		if err != nil {
			return "", err
		}
		if err := os.Chmod(to, info.Mode()|0o111); err != nil {
			return "", fmt.Errorf("marking %s executable: %w", to, err)
		}
	}
	return to, nil
}
