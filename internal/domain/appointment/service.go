package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/pkg/pagination"
)

var (
	ErrStatusRequired = apperr.Validation("Status is required")
	ErrUnknownClass   = apperr.Validation("Encounter class not found")
	ErrUnknownTypes   = apperr.Validation("Some encounter types not found")
)

// Resolver maps a caller's role to the appointments they may see.
type Resolver interface {
	Resolve(ctx context.Context, role string) (auth.Visibility, error)
}

// Service owns appointment writes. Every write that changes the status
// appends to the history inside the same transaction.
type Service struct {
	repo     Repository
	resolver Resolver
	now      func() time.Time
}

// NewService returns a Service that narrows listings with resolver.
func NewService(repo Repository, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver, now: time.Now}
}

// List returns the caller's page of appointments. Callers whose role is an
// encounter class code only see appointments of that class, whatever the
// filters say.
func (s *Service) List(ctx context.Context, caller auth.Identity, f Filter, p pagination.Params) ([]*Appointment, int, error) {
	vis, err := s.resolver.Resolve(ctx, caller.Role)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, f, vis, p)
}

// Get returns the appointment with its nested references.
func (s *Service) Get(ctx context.Context, id int) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Create checks the class and types, then inserts the appointment and its
// type links in one transaction. The history starts with a created entry.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Appointment, error) {
	typeIDs := dedupe(in.EncounterTypes)
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = DefaultStatus
	}

	a := &Appointment{
		PatientID:          in.PatientID,
		EncounterClassCode: &in.EncounterClass,
		ReasonText:         in.ReasonText,
		Status:             status,
		CreatedBy:          &caller.ID,
		History: History{}.Append(AuditEvent{
			Action:    ActionCreated,
			User:      caller.ID,
			Timestamp: s.now().UTC(),
		}),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.EncounterClassExists(ctx, in.EncounterClass)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownClass
		}
		if err := s.checkTypes(ctx, typeIDs); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		return s.repo.ReplaceEncounterTypes(ctx, a.ID, typeIDs)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update sets status and reason text and appends a status_updated entry to
// the history. The encounter types are replaced only when given.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id int, in UpdateInput) error {
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return ErrStatusRequired
	}
	var typeIDs []int
	if in.EncounterTypes != nil {
		typeIDs = dedupe(*in.EncounterTypes)
	}

	return s.repo.WithTx(ctx, func(ctx context.Context) error {
		history, err := s.repo.LockHistory(ctx, id)
		if err != nil {
			return err
		}
		if in.EncounterTypes != nil {
			if err := s.checkTypes(ctx, typeIDs); err != nil {
				return err
			}
		}

		err = s.repo.Update(ctx, id, Change{
			Status:     status,
			ReasonText: in.ReasonText,
			UpdatedBy:  caller.ID,
			History:    history.Append(s.statusEvent(caller, status)),
		})
		if err != nil {
			return err
		}
		if in.EncounterTypes != nil {
			return s.repo.ReplaceEncounterTypes(ctx, id, typeIDs)
		}
		return nil
	})
}

// UpdateStatus changes only the status, recording it in the history.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, id int, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrStatusRequired
	}
	return s.repo.WithTx(ctx, func(ctx context.Context) error {
		history, err := s.repo.LockHistory(ctx, id)
		if err != nil {
			return err
		}
		return s.repo.Update(ctx, id, Change{
			Status:    status,
			UpdatedBy: caller.ID,
			History:   history.Append(s.statusEvent(caller, status)),
		})
	})
}

// Delete removes the appointment; type links and prescriptions cascade.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) statusEvent(caller auth.Identity, status string) AuditEvent {
	return AuditEvent{
		Action:    ActionStatusUpdated,
		User:      caller.ID,
		Timestamp: s.now().UTC(),
		Status:    status,
	}
}

func (s *Service) checkTypes(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.repo.MissingEncounterTypes(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return ErrUnknownTypes.WithField("missing", missing)
	}
	return nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
