package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/dontsign/internal/extract"
	"github.com/ppiankov/dontsign/internal/model"
)

// maxFileBytes bounds local document reads
const maxFileBytes = 10 << 20

// IsURL reports whether source names an http(s) document
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LoadDocument resolves a source (local path, "-" for stdin, or http(s) URL)
// into a plain-text Document. HTML is reduced to its visible text.
func LoadDocument(ctx context.Context, source string, fetcher *Fetcher) (*model.Document, error) {
	switch {
	case source == "":
		return nil, model.NewError(model.KindInvalidInput, "no document source given")
	case source == "-":
		return ReadDocument(os.Stdin, "stdin", "")
	case IsURL(source):
		return loadURL(ctx, source, fetcher)
	default:
		return loadFile(source)
	}
}

func loadURL(ctx context.Context, rawURL string, fetcher *Fetcher) (*model.Document, error) {
	if fetcher == nil {
		return nil, model.NewError(model.KindConfiguration, "URL sources need a fetcher")
	}
	res, err := fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, model.WrapError(model.KindInvalidInput, fmt.Sprintf("could not fetch %s", rawURL), err)
	}

	name := res.Subject
	if extract.LooksLikeHTML(res.ContentType, res.Body) {
		page, err := extract.ParseHTML(strings.NewReader(res.Body))
		if err != nil {
			return nil, err
		}
		if page.Title != "" {
			name = page.Title
		}
		return newDocument(name, page.Text)
	}
	return newDocument(name, res.Body)
}

func loadFile(path string) (*model.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf", ".docx", ".doc":
		return nil, model.NewError(model.KindInvalidInput,
			fmt.Sprintf("%s files are not supported; convert to text first", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.WrapError(model.KindInvalidInput, fmt.Sprintf("file not found: %s", path), err)
		}
		return nil, model.WrapError(model.KindInvalidInput, fmt.Sprintf("open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	contentType := ""
	if ext == ".html" || ext == ".htm" {
		contentType = "text/html"
	}
	return ReadDocument(f, filepath.Base(path), contentType)
}

// ReadDocument reads a document from r. contentType may be empty, in which
// case HTML is sniffed from the body.
func ReadDocument(r io.Reader, name, contentType string) (*model.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileBytes+1))
	if err != nil {
		return nil, model.WrapError(model.KindInvalidInput, "read document", err)
	}
	if len(data) > maxFileBytes {
		return nil, model.NewError(model.KindInvalidInput, "document exceeds 10MB")
	}

	text := string(data)
	if extract.LooksLikeHTML(contentType, text) {
		page, err := extract.ParseHTML(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
		text = page.Text
	}
	return newDocument(name, text)
}

func newDocument(name, text string) (*model.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewError(model.KindInvalidInput, "document contains no text")
	}
	return &model.Document{Name: name, Text: text}, nil
}
