package member

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/features/file"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MockMemberRepo keeps members in memory and enforces the nationalId index.
type MockMemberRepo struct {
	mu      sync.Mutex
	Members map[primitive.ObjectID]*Member
}

func NewMockMemberRepo() *MockMemberRepo {
	return &MockMemberRepo{Members: map[primitive.ObjectID]*Member{}}
}

func (m *MockMemberRepo) Create(ctx context.Context, mem *Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Members {
		if existing.NationalID == mem.NationalID {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	if mem.ID.IsZero() {
		mem.ID = primitive.NewObjectID()
	}
	m.Members[mem.ID] = mem.clone()
	return nil
}

func (m *MockMemberRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mem, ok := m.Members[id]; ok {
		return mem.clone(), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockMemberRepo) FindDetail(ctx context.Context, id primitive.ObjectID) (*MemberDetail, error) {
	mem, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MemberDetail{Member: *mem, Payments: []PaymentRecord{}}, nil
}

func (m *MockMemberRepo) ExistsByNationalID(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, mem := range m.Members {
		if mem.NationalID == nationalID && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMemberRepo) List(ctx context.Context, filter bson.M, skip, limit int64) ([]Member, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Member{}
	for _, mem := range m.Members {
		out = append(out, *mem)
	}
	return out, int64(len(out)), nil
}

func (m *MockMemberRepo) Update(ctx context.Context, mem *Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Members[mem.ID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	cp := mem.clone()
	cp.PaymentRecords = existing.PaymentRecords
	m.Members[mem.ID] = cp
	return nil
}

func (m *MockMemberRepo) SetPhoto(ctx context.Context, id primitive.ObjectID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.Members[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	mem.ProfilePhoto = url
	return nil
}

func (m *MockMemberRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Members[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.Members, id)
	return nil
}

func (m *MockMemberRepo) AddPaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.Members[memberID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	mem.PaymentRecords = append(mem.PaymentRecords, paymentID)
	return nil
}

func (m *MockMemberRepo) RemovePaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mem, ok := m.Members[memberID]; ok {
		kept := []primitive.ObjectID{}
		for _, id := range mem.PaymentRecords {
			if id != paymentID {
				kept = append(kept, id)
			}
		}
		mem.PaymentRecords = kept
	}
	return nil
}

func (m *MockMemberRepo) PaymentRecords(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID][]primitive.ObjectID{}
	for id, mem := range m.Members {
		out[id] = append([]primitive.ObjectID(nil), mem.PaymentRecords...)
	}
	return out, nil
}

func (m *MockMemberRepo) AddPaymentRecords(ctx context.Context, memberID primitive.ObjectID, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if err := m.AddPaymentRecord(ctx, memberID, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockMemberRepo) PullPaymentRecords(ctx context.Context, memberID primitive.ObjectID, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if err := m.RemovePaymentRecord(ctx, memberID, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockMemberRepo) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []primitive.ObjectID
	for id := range m.Members {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockMemberRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockAuditService struct {
	Actions []common_models.AuditAction
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.Actions = append(m.Actions, action)
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	return nil, 0, nil
}

type MockFileService struct {
	Deleted []string
}

func (m *MockFileService) Upload(ctx context.Context, kind file.UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*file.File, error) {
	if fh == nil {
		return nil, errs.Validation("Please upload a file")
	}
	if err := file.ValidateUpload(kind, fh.Filename, fh.Size); err != nil {
		return nil, err
	}
	f := &file.File{ID: primitive.NewObjectID(), Module: module, RecordID: recordID}
	f.URL = "/api/files/" + f.ID.Hex()
	return f, nil
}

func (m *MockFileService) Open(ctx context.Context, id string) (*file.File, io.ReadCloser, error) {
	return nil, nil, errs.NotFound("File not found")
}

func (m *MockFileService) Delete(ctx context.Context, id string) error {
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockFileService) ListByRecord(ctx context.Context, module, recordID string) ([]*file.File, error) {
	return nil, nil
}

func newService() (*MemberServiceImpl, *MockMemberRepo, *MockFileService) {
	repo := NewMockMemberRepo()
	files := &MockFileService{}
	svc := NewMemberService(repo, files, &MockAuditService{}, zap.NewNop()).(*MemberServiceImpl)
	return svc, repo, files
}

func validMember(nationalID string) *Member {
	return &Member{
		FullName:       common_models.PersonName{First: "Ahmed", Last: "Alharbi"},
		DateOfBirth:    time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC),
		NationalID:     nationalID,
		Contact:        Contact{Phone: "0500000000"},
		PrimaryAddress: Address{Street: "King Fahd Rd", City: "Riyadh"},
	}
}

func TestCreateMemberAppliesDefaults(t *testing.T) {
	svc, _, _ := newService()

	m, err := svc.CreateMember(context.Background(), validMember("1001"))
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	if m.MembershipStatus != StatusActive {
		t.Errorf("expected default status active, got %q", m.MembershipStatus)
	}
	if m.PrimaryAddress.Country != DefaultCountry {
		t.Errorf("expected default country, got %q", m.PrimaryAddress.Country)
	}
	if m.JoinDate.IsZero() || m.PaymentRecords == nil {
		t.Errorf("joinDate and paymentRecords must be initialised: %+v", m)
	}
}

func TestCreateMemberValidation(t *testing.T) {
	svc, repo, _ := newService()

	tests := []struct {
		name   string
		mutate func(m *Member)
	}{
		{"missing last name", func(m *Member) { m.FullName.Last = "" }},
		{"missing national id", func(m *Member) { m.NationalID = "  " }},
		{"missing phone", func(m *Member) { m.Contact.Phone = "" }},
		{"missing city", func(m *Member) { m.PrimaryAddress.City = "" }},
		{"bad status", func(m *Member) { m.MembershipStatus = "vip" }},
		{"bad email", func(m *Member) { m.Contact.Email = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMember("2001")
			tt.mutate(m)
			if _, err := svc.CreateMember(context.Background(), m); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(repo.Members) != 0 {
		t.Errorf("invalid members must not be stored, got %d", len(repo.Members))
	}
}

func TestCreateMemberDuplicateNationalID(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	if _, err := svc.CreateMember(ctx, validMember("3001")); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateMember(ctx, validMember("3001"))
	if !errors.Is(err, errs.ErrValidation) || errs.Message(err) != duplicateNationalID {
		t.Fatalf("expected duplicate validation error, got %v", err)
	}
	if len(repo.Members) != 1 {
		t.Errorf("expected exactly one member, got %d", len(repo.Members))
	}
}

// racingRepo lets the pre-check pass so the insert hits the unique index.
type racingRepo struct {
	*MockMemberRepo
}

func (r racingRepo) ExistsByNationalID(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error) {
	return false, nil
}

func TestCreateMemberIndexRaceIsValidationError(t *testing.T) {
	repo := NewMockMemberRepo()
	svc := NewMemberService(racingRepo{repo}, &MockFileService{}, &MockAuditService{}, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CreateMember(ctx, validMember("4001")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateMember(ctx, validMember("4001")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("index violation should map to validation error, got %v", err)
	}
	if len(repo.Members) != 1 {
		t.Errorf("expected exactly one member, got %d", len(repo.Members))
	}
}

func TestUpdateMemberMergesBody(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	m, _ := svc.CreateMember(ctx, validMember("5001"))
	paymentID := primitive.NewObjectID()
	repo.AddPaymentRecord(ctx, m.ID, paymentID)

	updated, err := svc.UpdateMember(ctx, m.ID.Hex(), []byte(`{"contact":{"email":"a@b.sa"},"membershipStatus":"inactive","paymentRecords":[]}`))
	if err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}
	if updated.Contact.Phone != "0500000000" || updated.Contact.Email != "a@b.sa" {
		t.Errorf("nested fields not merged: %+v", updated.Contact)
	}
	if updated.MembershipStatus != StatusInactive {
		t.Errorf("status not updated: %q", updated.MembershipStatus)
	}
	stored, _ := repo.FindByID(ctx, m.ID)
	if len(stored.PaymentRecords) != 1 || stored.PaymentRecords[0] != paymentID {
		t.Errorf("payment records must not be editable through update: %v", stored.PaymentRecords)
	}
}

func TestUpdateMemberRejectsTakenNationalID(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	svc.CreateMember(ctx, validMember("6001"))
	second, _ := svc.CreateMember(ctx, validMember("6002"))

	_, err := svc.UpdateMember(ctx, second.ID.Hex(), []byte(`{"nationalId":"6001"}`))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateMember(ctx, primitive.NewObjectID().Hex(), []byte(`{}`)); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUploadPhotoReplacesPrevious(t *testing.T) {
	svc, repo, files := newService()
	ctx := context.Background()
	m, _ := svc.CreateMember(ctx, validMember("7001"))

	first, err := svc.UploadPhoto(ctx, m.ID.Hex(), &multipart.FileHeader{Filename: "me.jpg", Size: 100})
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	second, err := svc.UploadPhoto(ctx, m.ID.Hex(), &multipart.FileHeader{Filename: "me2.png", Size: 100})
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	if len(files.Deleted) != 1 || files.Deleted[0] != file.IDFromURL(first.ProfilePhoto) {
		t.Errorf("previous photo should be deleted, got %v", files.Deleted)
	}
	stored, _ := repo.FindByID(ctx, m.ID)
	if stored.ProfilePhoto != second.ProfilePhoto {
		t.Errorf("stored photo %q, want %q", stored.ProfilePhoto, second.ProfilePhoto)
	}

	if _, err := svc.UploadPhoto(ctx, m.ID.Hex(), &multipart.FileHeader{Filename: "cv.pdf", Size: 100}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("pdf must be rejected as a photo, got %v", err)
	}
	if _, err := svc.UploadPhoto(ctx, m.ID.Hex(), nil); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("missing file must be rejected, got %v", err)
	}
}
