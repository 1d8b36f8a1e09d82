package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/config"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type MockFileRepo struct {
	mu    sync.Mutex
	Files map[string]*File
	Fail  error
}

func NewMockFileRepo() *MockFileRepo {
	return &MockFileRepo{Files: map[string]*File{}}
}

func (m *MockFileRepo) Save(ctx context.Context, f *File) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.Files[f.ID.Hex()] = &cp
	return nil
}

func (m *MockFileRepo) Get(ctx context.Context, id string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.Files[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockFileRepo) FindByRecord(ctx context.Context, module, recordID string) ([]*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*File
	for _, f := range m.Files {
		if f.Module == module && f.RecordID == recordID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MockFileRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, id)
	return nil
}

func (m *MockFileRepo) EnsureIndexes(ctx context.Context) error { return nil }

// fileHeader builds a real multipart header the way fiber hands it to handlers.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	return form.File["file"][0]
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		kind    UploadKind
		file    string
		size    int64
		wantErr bool
	}{
		{"png photo", ImageUpload, "me.PNG", 1024, false},
		{"pdf photo", ImageUpload, "me.pdf", 1024, true},
		{"pdf receipt", ReceiptUpload, "r.pdf", 1024, false},
		{"gif receipt", ReceiptUpload, "r.gif", 1024, true},
		{"docx document", DocumentUpload, "reg.docx", 1024, false},
		{"oversized receipt", ReceiptUpload, "r.jpg", 5*mb + 1, true},
		{"large document", DocumentUpload, "reg.pdf", 8 * mb, false},
		{"missing name", ImageUpload, "", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.kind, tt.file, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateUpload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUploadOpenDelete(t *testing.T) {
	dir := t.TempDir()
	repo := NewMockFileRepo()
	svc := NewFileService(repo, &LocalStorage{Dir: dir}, zap.NewNop())
	ctx := context.Background()

	content := []byte("%PDF-1.4 receipt")
	f, err := svc.Upload(ctx, ReceiptUpload, "payments", "abc", fileHeader(t, "receipt.pdf", content), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if f.URL != "/api/files/"+f.ID.Hex() || IDFromURL(f.URL) != f.ID.Hex() {
		t.Errorf("unexpected url %q", f.URL)
	}
	if f.StorageType != "local" || f.OriginalFilename != "receipt.pdf" {
		t.Errorf("unexpected metadata %+v", f)
	}

	_, rc, err := svc.Open(ctx, f.ID.Hex())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, content) {
		t.Errorf("stored content mismatch: %q", got)
	}

	if err := svc.Delete(ctx, f.ID.Hex()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(f.Location); !os.IsNotExist(err) {
		t.Errorf("expected stored file to be removed, stat err = %v", err)
	}
	if _, _, err := svc.Open(ctx, f.ID.Hex()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	// Deleting twice is a no-op.
	if err := svc.Delete(ctx, f.ID.Hex()); err != nil {
		t.Errorf("second delete should be ignored, got %v", err)
	}
}

func TestUploadRejectsBadTypeWithoutStoring(t *testing.T) {
	dir := t.TempDir()
	svc := NewFileService(NewMockFileRepo(), &LocalStorage{Dir: dir}, zap.NewNop())

	_, err := svc.Upload(context.Background(), ImageUpload, "members", "x", fileHeader(t, "run.exe", []byte("MZ")), primitive.NewObjectID())
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("rejected upload must not be stored, found %d files", len(entries))
	}
}

func TestUploadCleansUpWhenMetadataFails(t *testing.T) {
	dir := t.TempDir()
	repo := NewMockFileRepo()
	repo.Fail = errors.New("write failed")
	svc := NewFileService(repo, &LocalStorage{Dir: dir}, zap.NewNop())

	_, err := svc.Upload(context.Background(), ImageUpload, "members", "x", fileHeader(t, "me.jpg", []byte("jpeg")), primitive.NewObjectID())
	if err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("orphaned upload left behind: %d files", len(entries))
	}
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

func TestDownloadRequiresTokenExceptForImages(t *testing.T) {
	svc := NewFileService(NewMockFileRepo(), &LocalStorage{Dir: t.TempDir()}, zap.NewNop())
	ctx := context.Background()
	photo, err := svc.Upload(ctx, ImageUpload, "members", "m1", fileHeader(t, "face.png", []byte("png")), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Upload photo: %v", err)
	}
	receipt, err := svc.Upload(ctx, ReceiptUpload, "payments", "p1", fileHeader(t, "receipt.pdf", []byte("%PDF")), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Upload receipt: %v", err)
	}

	tests := []struct {
		name     string
		cfg      config.Config
		url      string
		wantCode int
	}{
		{"photo without token", config.Config{}, photo.URL, fiber.StatusOK},
		{"receipt without token", config.Config{}, receipt.URL, fiber.StatusUnauthorized},
		{"receipt when authenticated", config.Config{SkipAuth: true}, receipt.URL, fiber.StatusOK},
		{"unknown file", config.Config{}, "/api/files/" + primitive.NewObjectID().Hex(), fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := middleware.NewGuard(&tt.cfg, nil, connectedDB{}, middleware.NewPolicy())
			app := fiber.New()
			NewFileApi(NewFileController(svc), guard).Setup(app)

			resp, err := app.Test(httptest.NewRequest("GET", tt.url, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}
