package appointment

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type mockRepo struct {
	store   map[int]*Appointment
	types   map[int][]int
	classes map[string]bool
	known   map[int]bool
	nextID  int

	failReplace bool
	lastVis     auth.Visibility
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		store:   make(map[int]*Appointment),
		types:   make(map[int][]int),
		classes: map[string]bool{"AMB": true, "EMER": true},
		known:   map[int]bool{1: true, 2: true, 3: true},
	}
}

// WithTx restores the previous state when fn fails.
func (m *mockRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	store := make(map[int]*Appointment, len(m.store))
	for k, v := range m.store {
		cp := *v
		store[k] = &cp
	}
	types := make(map[int][]int, len(m.types))
	for k, v := range m.types {
		types[k] = append([]int(nil), v...)
	}
	nextID := m.nextID

	if err := fn(ctx); err != nil {
		m.store, m.types, m.nextID = store, types, nextID
		return err
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, vis auth.Visibility, p pagination.Params) ([]*Appointment, int, error) {
	m.lastVis = vis
	var all []*Appointment
	for _, a := range m.store {
		if f.PatientID > 0 && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if vis.Restricted() && (a.EncounterClassCode == nil || *a.EncounterClassCode != vis.Category()) {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if err := p.Check(len(all)); err != nil {
		return nil, len(all), err
	}
	start, end := p.Offset(), p.Offset()+p.PerPage
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockRepo) GetByID(_ context.Context, id int) (*Appointment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockRepo) LockHistory(_ context.Context, id int) (History, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.History, nil
}

func (m *mockRepo) Update(_ context.Context, id int, ch Change) error {
	a, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = ch.Status
	a.History = ch.History
	a.UpdatedBy = &ch.UpdatedBy
	if ch.ReasonText != nil {
		a.ReasonText = ch.ReasonText
	}
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	delete(m.types, id)
	return nil
}

func (m *mockRepo) EncounterClassExists(_ context.Context, code string) (bool, error) {
	return m.classes[code], nil
}

func (m *mockRepo) MissingEncounterTypes(_ context.Context, ids []int) ([]int, error) {
	var missing []int
	for _, id := range ids {
		if !m.known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *mockRepo) ReplaceEncounterTypes(_ context.Context, id int, typeIDs []int) error {
	if m.failReplace {
		return apperr.Internal(errors.New("connection reset"), "replace encounter types")
	}
	m.types[id] = append([]int(nil), typeIDs...)
	return nil
}

type stubLookup map[string]bool

func (s stubLookup) EncounterClassExists(_ context.Context, code string) (bool, error) {
	return s[code], nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	resolver := auth.NewVisibilityResolver([]string{"super_admin", "owner", "reception"}, stubLookup{"AMB": true, "EMER": true})
	svc := NewService(repo, resolver)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

var (
	admin  = auth.Identity{ID: 1, Role: "owner", FullName: "Owner"}
	doctor = auth.Identity{ID: 2, Role: "AMB", FullName: "Dr Amb"}
)

func TestCreate_DefaultsAndHistory(t *testing.T) {
	svc, repo := newTestService()
	a, err := svc.Create(context.Background(), admin, CreateInput{
		PatientID:      10,
		EncounterClass: "AMB",
		EncounterTypes: []int{1, 2, 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.store[a.ID]
	if stored.Status != DefaultStatus {
		t.Errorf("expected status %q, got %q", DefaultStatus, stored.Status)
	}
	if len(stored.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(stored.History))
	}
	if stored.History[0].Action != ActionCreated || stored.History[0].User != admin.ID {
		t.Errorf("unexpected first entry: %+v", stored.History[0])
	}
	if !reflect.DeepEqual(repo.types[a.ID], []int{1, 2}) {
		t.Errorf("expected types [1 2], got %v", repo.types[a.ID])
	}
}

func TestCreate_UnknownClassOrTypes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "IMP"})
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("expected unknown class, got %v", err)
	}

	_, err = svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB", EncounterTypes: []int{1, 99}})
	if !errors.Is(err, ErrUnknownTypes) {
		t.Errorf("expected unknown types, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("nothing should be written when validation fails")
	}
}

func TestCreate_RollsBackOnJoinFailure(t *testing.T) {
	svc, repo := newTestService()
	repo.failReplace = true

	_, err := svc.Create(context.Background(), admin, CreateInput{PatientID: 1, EncounterClass: "AMB", EncounterTypes: []int{1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.store) != 0 {
		t.Errorf("expected rollback, store has %d rows", len(repo.store))
	}
}

func TestUpdate_RequiresStatus(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Update(context.Background(), admin, 1, UpdateInput{})
	if !errors.Is(err, ErrStatusRequired) {
		t.Errorf("expected status required, got %v", err)
	}
}

func TestUpdate_AppendsHistoryAndReplacesTypes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, err := svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB", EncounterTypes: []int{1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	types := []int{2, 3}
	reason := "follow-up"
	if err := svc.Update(ctx, doctor, a.ID, UpdateInput{Status: "booked", ReasonText: &reason, EncounterTypes: &types}); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored := repo.store[a.ID]
	if stored.Status != "booked" {
		t.Errorf("expected status booked, got %q", stored.Status)
	}
	if stored.ReasonText == nil || *stored.ReasonText != "follow-up" {
		t.Errorf("expected reason follow-up, got %v", stored.ReasonText)
	}
	if !reflect.DeepEqual(repo.types[a.ID], []int{2, 3}) {
		t.Errorf("expected types [2 3], got %v", repo.types[a.ID])
	}
	if len(stored.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(stored.History))
	}
	if stored.History[0].Action != ActionCreated {
		t.Errorf("first entry should stay %q, got %q", ActionCreated, stored.History[0].Action)
	}
	last := stored.History[1]
	if last.Action != ActionStatusUpdated || last.User != doctor.ID || last.Status != "booked" {
		t.Errorf("unexpected appended entry: %+v", last)
	}
}

func TestUpdate_KeepsTypesWhenAbsent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB", EncounterTypes: []int{1, 2}})

	if err := svc.Update(ctx, admin, a.ID, UpdateInput{Status: "arrived"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !reflect.DeepEqual(repo.types[a.ID], []int{1, 2}) {
		t.Errorf("expected types [1 2], got %v", repo.types[a.ID])
	}
}

func TestUpdate_UnknownTypesLeaveRowUntouched(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB"})

	types := []int{42}
	err := svc.Update(ctx, admin, a.ID, UpdateInput{Status: "booked", EncounterTypes: &types})
	if !errors.Is(err, ErrUnknownTypes) {
		t.Fatalf("expected unknown types, got %v", err)
	}
	if repo.store[a.ID].Status != DefaultStatus {
		t.Errorf("status changed to %q", repo.store[a.ID].Status)
	}
	if len(repo.store[a.ID].History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(repo.store[a.ID].History))
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB"})

	if err := svc.UpdateStatus(ctx, doctor, a.ID, "finished"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := svc.UpdateStatus(ctx, admin, a.ID, "cancelled"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	h := repo.store[a.ID].History
	if len(h) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(h))
	}
	if h[1].Status != "finished" || h[2].Status != "cancelled" {
		t.Errorf("unexpected history statuses: %q, %q", h[1].Status, h[2].Status)
	}
	if repo.store[a.ID].Status != "cancelled" {
		t.Errorf("expected status cancelled, got %q", repo.store[a.ID].Status)
	}

	if err := svc.UpdateStatus(ctx, admin, a.ID, "  "); !errors.Is(err, ErrStatusRequired) {
		t.Errorf("expected status required, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, admin, 999, "booked"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestList_RestrictedRoleSeesOwnClass(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB"})
	svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "EMER"})
	svc.Create(ctx, admin, CreateInput{PatientID: 2, EncounterClass: "AMB"})

	p := pagination.Params{Page: 1, PerPage: 10}
	items, total, err := svc.List(ctx, doctor, Filter{}, p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 visible appointments, got %d", total)
	}
	for _, a := range items {
		if *a.EncounterClassCode != "AMB" {
			t.Errorf("restricted role saw class %q", *a.EncounterClassCode)
		}
	}
	if repo.lastVis.Category() != "AMB" {
		t.Errorf("expected AMB visibility, got %q", repo.lastVis.Category())
	}

	if _, total, err = svc.List(ctx, admin, Filter{}, p); err != nil || total != 3 {
		t.Errorf("admin list: total=%d err=%v", total, err)
	}
	if repo.lastVis.Restricted() {
		t.Error("fixed role should be unrestricted")
	}

	if _, total, err = svc.List(ctx, doctor, Filter{PatientID: 2}, p); err != nil || total != 1 {
		t.Errorf("filtered list: total=%d err=%v", total, err)
	}
}

func TestList_InvalidRole(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.List(context.Background(), auth.Identity{ID: 9, Role: "janitor"}, Filter{}, pagination.Params{Page: 1, PerPage: 10})
	if !auth.IsInvalidRole(err) {
		t.Errorf("expected invalid role, got %v", err)
	}
}

func TestList_PageBeyondEnd(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		svc.Create(ctx, admin, CreateInput{PatientID: 1, EncounterClass: "AMB"})
	}
	_, _, err := svc.List(ctx, admin, Filter{}, pagination.Params{Page: 2, PerPage: 10})
	if !errors.Is(err, pagination.ErrInvalidPage) {
		t.Fatalf("expected invalid page, got %v", err)
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if ae.Fields["total_pages"] != 1 {
		t.Errorf("expected total_pages 1, got %v", ae.Fields["total_pages"])
	}
}

func TestDedupe(t *testing.T) {
	if got := dedupe([]int{3, 1, 3, 2, 1}); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Errorf("expected [3 1 2], got %v", got)
	}
	if got := dedupe(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
