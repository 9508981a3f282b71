/*
Package audit records who changed what.

PURPOSE:
  Every mutating operation appends one audit_log row inside its own
  transaction. The Recorder never begins or ends a transaction: it writes
  through the Tx it is lent, so a failed audit insert rolls back the
  mutation with it and a rolled-back mutation leaves no audit row.

ACTOR POLICY:
  permissive - a missing actor is logged as a warning and the audit row is
               skipped; the mutation still commits
  strict     - a missing actor is a validation error, reported before any
               transaction opens (CheckActor)

SEE ALSO:
  - domain/types.go: Action and EntityType constants
*/
package audit

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/inventory-engine/domain"
)

type Policy string

const (
	PolicyPermissive Policy = "permissive"
	PolicyStrict     Policy = "strict"
)

// ParsePolicy accepts "permissive" or "strict"; empty means permissive.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyPermissive, nil
	case PolicyPermissive, PolicyStrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown audit actor policy %q", s)
}

// Recorder appends audit entries.
type Recorder struct {
	store  domain.Reader
	logger *zap.Logger
	policy Policy
}

func NewRecorder(store domain.Reader, logger *zap.Logger, policy Policy) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyPermissive
	}
	return &Recorder{store: store, logger: logger, policy: policy}
}

func (r *Recorder) Policy() Policy {
	return r.policy
}

// CheckActor rejects a missing actor under the strict policy. Services call
// it before opening a transaction.
func (r *Recorder) CheckActor(actor *int64) error {
	if actor == nil && r.policy == PolicyStrict {
		return domain.Invalid("user_id", "is required")
	}
	return nil
}

// LogAction inserts one audit entry through tx and returns its id.
//
// On failure it logs the attempted entry and returns a *domain.AuditError;
// the caller must return it so the transaction rolls back.
func (r *Recorder) LogAction(ctx context.Context, tx domain.Writer, userID int64, action string, entity domain.EntityType, entityID *int64) (int64, error) {
	id, err := tx.InsertAuditEntry(ctx, domain.AuditEntry{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	})
	if err != nil {
		r.logger.Error("failed to write audit entry",
			zap.String("action", action),
			zap.Int64("user_id", userID),
			zap.String("entity", string(entity)),
			zap.Int64p("entity_id", entityID),
			zap.Error(err),
		)
		return 0, &domain.AuditError{Action: action, UserID: userID, Entity: entity, EntityID: entityID, Err: err}
	}
	return id, nil
}

// Record applies the actor policy, then LogAction.
func (r *Recorder) Record(ctx context.Context, tx domain.Writer, actor *int64, action string, entity domain.EntityType, entityID *int64) error {
	if actor == nil {
		if err := r.CheckActor(actor); err != nil {
			return err
		}
		r.logger.Warn("no actor, audit entry skipped",
			zap.String("action", action),
			zap.String("entity", string(entity)),
			zap.Int64p("entity_id", entityID),
		)
		return nil
	}
	_, err := r.LogAction(ctx, tx, *actor, action, entity, entityID)
	return err
}

// List returns entries matching filter, newest first.
func (r *Recorder) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	return r.store.ListAuditEntries(ctx, filter)
}
