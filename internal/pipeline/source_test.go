package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dontsign/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocument_TextFile(t *testing.T) {
	path := writeFile(t, "lease.txt", "1. Rent\nRent is due monthly.")

	doc, err := LoadDocument(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "lease.txt", doc.Name)
	assert.Equal(t, "1. Rent\nRent is due monthly.", doc.Text)
}

func TestLoadDocument_HTMLFile(t *testing.T) {
	path := writeFile(t, "terms.html", "<html><body><nav>Menu</nav><p>You waive all claims.</p></body></html>")

	doc, err := LoadDocument(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "You waive all claims.", doc.Text)
}

func TestLoadDocument_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty source", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.txt")},
		{"pdf", writeFile(t, "contract.pdf", "%PDF-1.7")},
		{"docx", writeFile(t, "contract.docx", "PK")},
		{"blank file", writeFile(t, "blank.md", "  \n\t")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocument(context.Background(), tt.source, nil)
			require.Error(t, err)
			assert.Equal(t, model.KindInvalidInput, model.KindOf(err))
		})
	}
}

func TestLoadDocument_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><head><title>Acme Terms</title></head><body><main><p>Arbitration is mandatory.</p></main></body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	doc, err := LoadDocument(context.Background(), server.URL+"/terms", fetcher)
	require.NoError(t, err)
	assert.Equal(t, "Acme Terms", doc.Name)
	assert.Equal(t, "Arbitration is mandatory.", doc.Text)
}

func TestLoadDocument_URLWithoutFetcher(t *testing.T) {
	_, err := LoadDocument(context.Background(), "https://example.com/terms", nil)
	assert.Equal(t, model.KindConfiguration, model.KindOf(err))
}

func TestLoadDocument_URLNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	_, err := LoadDocument(context.Background(), server.URL+"/gone", fetcher)
	var statusErr *FetchStatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, model.KindInvalidInput, model.KindOf(err))
}

func TestReadDocument_SniffsHTML(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader("<!DOCTYPE html><html><body><p>Hi.</p></body></html>"), "stdin", "")
	require.NoError(t, err)
	assert.Equal(t, "Hi.", doc.Text)

	doc, err = ReadDocument(strings.NewReader("Plain <b>text</b> stays."), "stdin", "")
	require.NoError(t, err)
	assert.Equal(t, "Plain <b>text</b> stays.", doc.Text)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("HTTP://example.com"))
	assert.False(t, IsURL("contract.txt"))
	assert.False(t, IsURL("ftp://example.com"))
}
