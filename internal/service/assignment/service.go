// Package assignment owns the many-to-many staff/case relation and keeps the
// legacy single-manager column in step with it.
package assignment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/pkg/errors"
	"github.com/jwalitptl/caseops-api/pkg/logger"
	"github.com/jwalitptl/caseops-api/pkg/messaging"
	"github.com/jwalitptl/caseops-api/pkg/metrics"
)

type AssignmentServicer interface {
	ListAssignees(ctx context.Context, caseID uuid.UUID) ([]*model.StaffRef, error)
	ListAssignedCaseIDs(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error)
	ReplaceAssignees(ctx context.Context, actorID, caseID uuid.UUID, managerIDs []string) ([]*model.StaffRef, error)
}

type Service struct {
	repo      repository.AssignmentRepository
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo repository.AssignmentRepository, publisher messaging.Publisher, m *metrics.Metrics, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NewNopBroker()
	}
	if m == nil {
		m = metrics.Nop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// ListAssignees returns the assignees of a case, oldest assignment first.
func (s *Service) ListAssignees(ctx context.Context, caseID uuid.UUID) ([]*model.StaffRef, error) {
	refs, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list case managers: %w", err))
	}
	if refs == nil {
		refs = []*model.StaffRef{}
	}
	return refs, nil
}

// ListAssignedCaseIDs returns the ids of every case staffID is assigned to.
func (s *Service) ListAssignedCaseIDs(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.ListCaseIDsByStaff(ctx, staffID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list assigned cases: %w", err))
	}
	return ids, nil
}

// ReplaceAssignees makes managerIDs the complete assignee list of caseID.
//
// The delete, inserts and legacy-manager update commit together or not at
// all. Ids that do not name a staff member are skipped; in that case the
// stored list is returned together with a partial-assignment error.
func (s *Service) ReplaceAssignees(ctx context.Context, actorID, caseID uuid.UUID, managerIDs []string) ([]*model.StaffRef, error) {
	ids, err := parseManagerIDs(managerIDs)
	if err != nil {
		s.metrics.AssignmentReplacements.WithLabelValues("invalid").Inc()
		return nil, err
	}

	base := s.now().UTC()
	var accepted []uuid.UUID

	err = s.repo.InTx(ctx, func(tx repository.AssignmentTx) error {
		accepted = accepted[:0]

		if err := tx.LockCase(ctx, caseID); err != nil {
			return err
		}
		if _, err := tx.DeleteByCase(ctx, caseID); err != nil {
			return fmt.Errorf("failed to clear case managers: %w", err)
		}

		for i, id := range ids {
			ok, err := tx.Insert(ctx, &model.Assignment{
				CaseID:    caseID,
				StaffID:   id,
				CreatedAt: base.Add(time.Duration(i) * time.Microsecond),
			})
			if err != nil {
				return fmt.Errorf("failed to assign manager %s: %w", id, err)
			}
			if ok {
				accepted = append(accepted, id)
			}
		}

		var legacy *uuid.UUID
		if len(accepted) > 0 {
			first := accepted[0]
			legacy = &first
		}
		if err := tx.SetLegacyManager(ctx, caseID, legacy); err != nil {
			return fmt.Errorf("failed to update legacy manager: %w", err)
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.metrics.AssignmentReplacements.WithLabelValues("not_found").Inc()
			return nil, errors.NotFound("case", err)
		}
		s.metrics.AssignmentReplacements.WithLabelValues("error").Inc()
		return nil, errors.Internal(fmt.Errorf("failed to replace case managers: %w", err))
	}

	refs, err := s.ListAssignees(ctx, caseID)
	if err != nil {
		s.metrics.AssignmentReplacements.WithLabelValues("error").Inc()
		return nil, err
	}

	partial := len(refs) != len(ids)
	s.publish(ctx, model.AssignmentEvent{
		CaseID:     caseID,
		ActorID:    actorID,
		ManagerIDs: refIDs(refs),
		Partial:    partial,
		At:         base,
	})

	if partial {
		details := model.PartialAssignment{
			Requested:   len(ids),
			Stored:      len(refs),
			RejectedIDs: rejected(ids, refs),
		}
		s.metrics.AssignmentReplacements.WithLabelValues("partial").Inc()
		s.metrics.AssignmentPartial.Inc()
		s.logger.Warn("case managers partially assigned",
			"case_id", caseID.String(),
			"actor_id", actorID.String(),
			"requested", details.Requested,
			"stored", details.Stored,
		)
		return refs, errors.PartialAssignment("some managers could not be assigned", details)
	}

	s.metrics.AssignmentReplacements.WithLabelValues("ok").Inc()
	s.logger.Info("case managers replaced",
		"case_id", caseID.String(),
		"actor_id", actorID.String(),
		"count", len(refs),
	)
	return refs, nil
}

// publish is best effort; a broker outage never fails a committed replace.
func (s *Service) publish(ctx context.Context, evt model.AssignmentEvent) {
	msg := messaging.Message{Type: model.AssignmentEventChannel, Payload: evt}
	if err := s.publisher.Publish(ctx, model.AssignmentEventChannel, msg); err != nil {
		s.metrics.AssignmentEventsFailed.Inc()
		s.logger.Error(err, "failed to publish assignment event", "case_id", evt.CaseID.String())
	}
}

// parseManagerIDs rejects blank or malformed entries and drops duplicates,
// keeping the first occurrence.
func parseManagerIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			return nil, errors.BadRequest(fmt.Sprintf("manager_ids[%d] is blank", i), nil)
		}
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("manager_ids[%d] is not a valid id", i), err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func refIDs(refs []*model.StaffRef) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func rejected(requested []uuid.UUID, stored []*model.StaffRef) []uuid.UUID {
	have := make(map[uuid.UUID]struct{}, len(stored))
	for _, r := range stored {
		have[r.ID] = struct{}{}
	}
	out := []uuid.UUID{}
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
