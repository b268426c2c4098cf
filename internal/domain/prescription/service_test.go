package prescription

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type mockRepo struct {
	store  map[int]*Prescription
	nextID int
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int]*Prescription)}
}

func (m *mockRepo) List(_ context.Context, f Filter, p pagination.Params) ([]*Prescription, int, error) {
	var out []*Prescription
	for id := m.nextID; id > 0; id-- {
		rx, ok := m.store[id]
		if !ok || (f.AppointmentID > 0 && rx.AppointmentID != f.AppointmentID) {
			continue
		}
		out = append(out, rx)
	}
	if err := p.Check(len(out)); err != nil {
		return nil, len(out), err
	}
	return out, len(out), nil
}

func (m *mockRepo) GetByID(_ context.Context, id int) (*Prescription, error) {
	rx, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rx, nil
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) Update(_ context.Context, id int, in UpdateInput) (*Prescription, error) {
	rx, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Medications != nil {
		rx.Medications = *in.Medications
	}
	if in.Notes != nil {
		rx.Notes = in.Notes
	}
	if in.PrintedStatus != nil {
		rx.PrintedStatus = *in.PrintedStatus
	}
	return rx, nil
}

func (m *mockRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) PrintDetail(_ context.Context, id int) (*PrintDetail, error) {
	rx, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &PrintDetail{Prescription: *rx, PatientName: "Doe Jane", AppointmentStatus: "finished"}, nil
}

type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) Render(w io.Writer, d *PrintDetail) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "%PDF-stub "+d.PatientName)
	return err
}

func newTestService() (*Service, *mockRepo, *stubRenderer) {
	repo := newMockRepo()
	r := &stubRenderer{}
	return NewService(repo, r), repo, r
}

func TestCreate_EmptyMedicationsIsArray(t *testing.T) {
	svc, _, _ := newTestService()
	rx, err := svc.Create(context.Background(), CreateInput{AppointmentID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rx.Medications == nil {
		t.Error("expected non-nil medications")
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	notes := "after meals"
	rx, _ := svc.Create(ctx, CreateInput{
		AppointmentID: 3,
		Medications:   []Medication{{Name: "Amoxicillin", Dosage: "500mg"}},
		Notes:         &notes,
	})

	printed := true
	got, err := svc.Update(ctx, rx.ID, UpdateInput{PrintedStatus: &printed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.PrintedStatus {
		t.Error("expected printed_status true")
	}
	if got.Notes == nil || *got.Notes != "after meals" || len(got.Medications) != 1 {
		t.Errorf("untouched fields changed: %+v", got)
	}

	if _, err := svc.Update(ctx, 404, UpdateInput{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestList_FilterByAppointment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, CreateInput{AppointmentID: 1})
	svc.Create(ctx, CreateInput{AppointmentID: 2})
	svc.Create(ctx, CreateInput{AppointmentID: 1})

	items, total, err := svc.List(ctx, Filter{AppointmentID: 1}, pagination.Params{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || items[0].ID != 3 {
		t.Errorf("expected newest first and 2 results, got total=%d first=%d", total, items[0].ID)
	}
}

func TestRenderPDF_MarksPrinted(t *testing.T) {
	svc, repo, r := newTestService()
	ctx := context.Background()
	rx, _ := svc.Create(ctx, CreateInput{AppointmentID: 1})

	doc, err := svc.RenderPDF(ctx, rx.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc) != "%PDF-stub Doe Jane" {
		t.Errorf("unexpected document: %q", doc)
	}
	if !repo.store[rx.ID].PrintedStatus {
		t.Error("expected prescription to be marked printed")
	}
	if r.calls != 1 {
		t.Errorf("expected 1 render, got %d", r.calls)
	}
}

func TestRenderPDF_Errors(t *testing.T) {
	svc, repo, r := newTestService()
	ctx := context.Background()

	if _, err := svc.RenderPDF(ctx, 9); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	rx, _ := svc.Create(ctx, CreateInput{AppointmentID: 1})
	r.err = errors.New("font missing")
	_, err := svc.RenderPDF(ctx, rx.ID)
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("expected internal error, got %v", err)
	}
	if repo.store[rx.ID].PrintedStatus {
		t.Error("failed render must not mark the prescription printed")
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	rx, _ := svc.Create(ctx, CreateInput{AppointmentID: 1})
	if err := svc.Delete(ctx, rx.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, rx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
