package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/siteingest"
	"gopkg.in/yaml.v3"
)

// CreatedLayout is the timestamp format of the "created" field in page
// metadata files.
const CreatedLayout = "2006-01-02 15:04:05"

// Ensure BundleWriter implements siteingest.ContentSink at compile time.
var _ siteingest.ContentSink = (*BundleWriter)(nil)

// BundleWriter writes each page bundle as a set of sibling files under
// baseDir/<host>/<path>:
//
//	<name>.html  rendered HTML
//	<name>.txt   visible text
//	<name>.json  metadata (url, final url, created, title, images)
//	<name>.png   full-page screenshot, when captured
//	<name>.md    markdown with YAML frontmatter, when converted
//
// Every file is written to a temporary name and renamed into place, so
// readers never observe a partially written file.
type BundleWriter struct {
	baseDir string
}

// NewBundleWriter creates a BundleWriter rooted at baseDir.
func NewBundleWriter(baseDir string) *BundleWriter {
	return &BundleWriter{baseDir: baseDir}
}

// Metadata is the content of the .json file written for each page.
type Metadata struct {
	URL      string   `json:"url"`
	FinalURL string   `json:"finalUrl"`
	Created  string   `json:"created"`
	Title    string   `json:"title,omitempty"`
	Images   []string `json:"images"`
}

// Persist implements siteingest.ContentSink.
func (w *BundleWriter) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(bundle.CanonicalURL())
	if err != nil {
		return err
	}
	stem := filepath.Join(w.baseDir, filepath.FromSlash(relPath))

	// MkdirAll tolerates concurrent creation of the same directory.
	if err := os.MkdirAll(filepath.Dir(stem), 0755); err != nil {
		return fmt.Errorf("creating page directory: %w", err)
	}

	meta, err := json.MarshalIndent(NewMetadata(bundle), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding page metadata: %w", err)
	}

	files := []artifact{
		{".html", []byte(bundle.HTML)},
		{".txt", []byte(bundle.Text)},
		{".json", meta},
	}
	if len(bundle.Screenshot) > 0 {
		files = append(files, artifact{".png", bundle.Screenshot})
	}
	if bundle.Markdown != "" {
		md, err := FormatMarkdown(bundle)
		if err != nil {
			return err
		}
		files = append(files, artifact{".md", []byte(md)})
	}

	for _, f := range files {
		if err := writeFileAtomic(stem+f.ext, f.data); err != nil {
			return err
		}
	}
	return nil
}

// artifact is one file of a bundle, keyed by extension.
type artifact struct {
	ext  string
	data []byte
}

// NewMetadata builds the metadata record for a bundle.
func NewMetadata(bundle *siteingest.PageBundle) Metadata {
	captured := bundle.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	images := bundle.Images
	if images == nil {
		images = []string{}
	}
	return Metadata{
		URL:      bundle.URL,
		FinalURL: bundle.CanonicalURL(),
		Created:  captured.UTC().Format(CreatedLayout),
		Title:    bundle.Title,
		Images:   images,
	}
}

type frontmatter struct {
	Source  string `yaml:"source"`
	Title   string `yaml:"title,omitempty"`
	Crawled string `yaml:"crawled"`
}

// FormatMarkdown formats the page markdown with YAML frontmatter.
func FormatMarkdown(bundle *siteingest.PageBundle) (string, error) {
	captured := bundle.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	header, err := yaml.Marshal(frontmatter{
		Source:  bundle.CanonicalURL(),
		Title:   bundle.Title,
		Crawled: captured.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(bundle.Markdown)
	return b.String(), nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
