package blobstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func seedBlob(t *testing.T, store Store, key, fileName, contentType, content string) *Metadata {
	t.Helper()
	meta := Metadata{Key: key, FileName: fileName, ContentType: contentType}
	result, err := store.Put(context.Background(), meta, strings.NewReader(content))
	if err != nil {
		t.Fatalf("seedBlob: %v", err)
	}
	return result
}

func newPebbleStore(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("pebble", func(t *testing.T) { fn(t, newPebbleStore(t)) })
}

// ---------------------------------------------------------------------------
// Store tests
// ---------------------------------------------------------------------------

func TestStore_PutAndGet(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		content := "%PDF-1.4 receipt"
		meta := seedBlob(t, store, "u1/1700000000000-receipt.pdf", "receipt.pdf", "application/pdf", content)

		if meta.Size != int64(len(content)) {
			t.Errorf("expected size=%d, got %d", len(content), meta.Size)
		}
		if meta.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}

		rc, got, err := store.Get(context.Background(), meta.Key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != content {
			t.Errorf("expected content %q, got %q", content, data)
		}
		if got.FileName != "receipt.pdf" || got.ContentType != "application/pdf" {
			t.Errorf("unexpected metadata: %+v", got)
		}
	})
}

func TestStore_PutReplaces(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		seedBlob(t, store, "k", "a.png", "image/png", "first")
		seedBlob(t, store, "k", "b.png", "image/png", "second!")

		meta, err := store.Stat(context.Background(), "k")
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if meta.FileName != "b.png" || meta.Size != 7 {
			t.Errorf("expected replaced blob, got %+v", meta)
		}
	})
}

func TestStore_NotFound(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("get: expected ErrBlobNotFound, got %v", err)
		}
		if _, err := store.Stat(ctx, "missing"); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("stat: expected ErrBlobNotFound, got %v", err)
		}
		if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("delete: expected ErrBlobNotFound, got %v", err)
		}
	})
}

func TestStore_Delete(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		seedBlob(t, store, "u1/x.jpg", "x.jpg", "image/jpeg", "jpeg")

		if err := store.Delete(context.Background(), "u1/x.jpg"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.Stat(context.Background(), "u1/x.jpg"); !errors.Is(err, ErrBlobNotFound) {
			t.Errorf("expected blob to be gone, got %v", err)
		}
	})
}

func TestStore_Validation(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		_, err := store.Put(ctx, Metadata{FileName: "a.pdf", ContentType: "application/pdf"}, strings.NewReader("x"))
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("expected ErrMissingKey, got %v", err)
		}

		_, err = store.Put(ctx, Metadata{Key: "k", ContentType: "text/plain"}, strings.NewReader("x"))
		if !errors.Is(err, ErrInvalidContentType) {
			t.Errorf("expected ErrInvalidContentType, got %v", err)
		}

		big := strings.NewReader(strings.Repeat("a", MaxFileSize+1))
		_, err = store.Put(ctx, Metadata{Key: "k", ContentType: "image/png"}, big)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})
}

func TestStore_SHA256Hash(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		content := "compute-my-hash"
		uploaded := seedBlob(t, store, "h", "hash.png", "image/png", content)

		expected := fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
		if uploaded.Hash != expected {
			t.Errorf("expected hash=%s, got %s", expected, uploaded.Hash)
		}
	})
}

func TestPebbleStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	seedBlob(t, s, "u1/keep.pdf", "keep.pdf", "application/pdf", "persisted")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewPebbleStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	rc, _, err := s.Get(context.Background(), "u1/keep.pdf")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "persisted" {
		t.Errorf("expected persisted content, got %q", data)
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	const goroutines = 50

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("u1/file-%d.png", n)
			_, err := store.Put(context.Background(), Metadata{Key: key, ContentType: "image/png"}, strings.NewReader(key))
			if err != nil {
				t.Errorf("put goroutine %d: %v", n, err)
				return
			}
			rc, _, err := store.Get(context.Background(), key)
			if err != nil {
				t.Errorf("get goroutine %d: %v", n, err)
				return
			}
			rc.Close()
		}(i)
	}
	wg.Wait()

	if len(store.blobs) != goroutines {
		t.Errorf("expected %d blobs, got %d", goroutines, len(store.blobs))
	}
}

// ---------------------------------------------------------------------------
// Presigner tests
// ---------------------------------------------------------------------------

func fixedPresigner(now time.Time) *Presigner {
	p := NewPresigner("test-secret", "http://localhost:3000/files/")
	p.now = func() time.Time { return now }
	return p
}

func TestPresigner_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	p := fixedPresigner(now)

	raw, expiresAt, err := p.Presign("u1/1700-bill scan.pdf", "bill scan.pdf", 0)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry one hour out, got %s", expiresAt)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.HasPrefix(raw, "http://localhost:3000/files/u1/") {
		t.Errorf("unexpected url %s", raw)
	}
	q := u.Query()
	if err := p.Verify("u1/1700-bill scan.pdf", q.Get("expires"), q.Get("filename"), q.Get("signature")); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestPresigner_Rejects(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	p := fixedPresigner(now)

	raw, _, err := p.Presign("u1/a.pdf", "a.pdf", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(raw)
	q := u.Query()

	if err := p.Verify("u2/a.pdf", q.Get("expires"), "a.pdf", q.Get("signature")); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("other key: expected ErrSignatureInvalid, got %v", err)
	}
	if err := p.Verify("u1/a.pdf", q.Get("expires"), "b.pdf", q.Get("signature")); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("other filename: expected ErrSignatureInvalid, got %v", err)
	}
	if err := p.Verify("u1/a.pdf", "soon", "a.pdf", q.Get("signature")); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("bad expires: expected ErrSignatureInvalid, got %v", err)
	}

	p.now = func() time.Time { return now.Add(2 * time.Minute) }
	if err := p.Verify("u1/a.pdf", q.Get("expires"), "a.pdf", q.Get("signature")); !errors.Is(err, ErrSignatureExpired) {
		t.Errorf("expected ErrSignatureExpired, got %v", err)
	}
}

func TestPresigner_MissingKey(t *testing.T) {
	if _, _, err := NewPresigner("s", "http://x").Presign("", "a.pdf", 0); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Handler tests
// ---------------------------------------------------------------------------

func newTestHandler(t *testing.T) (*InMemoryStore, *Presigner, *echo.Echo) {
	t.Helper()
	store := NewInMemoryStore()
	presigner := NewPresigner("test-secret", "http://example.test/files")
	e := echo.New()
	NewHandler(store, presigner).RegisterRoutes(e.Group(""))
	return store, presigner, e
}

func pathOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u.RequestURI()
}

func TestHandler_Download(t *testing.T) {
	store, presigner, e := newTestHandler(t)
	seedBlob(t, store, "u1/1700-scan.png", "scan.png", "image/png", "png-bytes")

	raw, _, err := presigner.Presign("u1/1700-scan.png", "scan.png", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, pathOf(t, raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename=scan.png` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
}

func TestHandler_Download_BadSignature(t *testing.T) {
	store, _, e := newTestHandler(t)
	seedBlob(t, store, "u1/a.pdf", "a.pdf", "application/pdf", "pdf")

	req := httptest.NewRequest(http.MethodGet, "/files/u1/a.pdf?expires=99999999999&signature=deadbeef", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues("u1/a.pdf")

	h := NewHandler(store, NewPresigner("test-secret", "http://example.test/files"))
	err := h.Download(c)
	if !apperror.IsCode(err, apperror.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
}

func TestHandler_Download_Missing(t *testing.T) {
	store, presigner, _ := newTestHandler(t)
	raw, _, _ := presigner.Presign("u1/gone.pdf", "", time.Minute)
	u, _ := url.Parse(raw)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, u.RequestURI(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues("u1/gone.pdf")

	err := NewHandler(store, presigner).Download(c)
	if !apperror.IsCode(err, apperror.CodeNotFound) {
		t.Errorf("expected RESOURCE_NOT_FOUND, got %v", err)
	}
}
