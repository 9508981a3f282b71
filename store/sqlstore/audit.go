package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// AUDIT LOG
// =============================================================================

func (qs queries) InsertAuditEntry(ctx context.Context, e domain.AuditEntry) (int64, error) {
	var id int64
	err := qs.queryRow(ctx, `
		INSERT INTO audit_log (user_id, action, entity, entity_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, e.UserID, e.Action, nullString(string(e.Entity)), nullInt64(e.EntityID), now()).Scan(&id)
	if err != nil {
		return 0, translate("insert audit entry", err)
	}
	return id, nil
}

// ListAuditEntries returns entries matching every non-zero filter field,
// newest first.
func (qs queries) ListAuditEntries(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Entity != domain.EntityNone {
		where = append(where, "entity = ?")
		args = append(args, string(f.Entity))
	}
	if f.EntityID != nil {
		where = append(where, "entity_id = ?")
		args = append(args, *f.EntityID)
	}

	query := `SELECT id, user_id, action, entity, entity_id, created_at FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := qs.query(ctx, query, args...)
	if err != nil {
		return nil, translate("list audit entries", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e        domain.AuditEntry
			entity   sql.NullString
			entityID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &entity, &entityID, timestamp{&e.CreatedAt}); err != nil {
			return nil, translate("list audit entries", err)
		}
		e.Entity = domain.EntityType(entity.String)
		e.EntityID = int64Ptr(entityID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list audit entries", err)
	}
	return entries, nil
}
