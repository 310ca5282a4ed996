package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ActionKind classifies an audit log entry.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
	ActionLogin  ActionKind = "login"
	ActionLogout ActionKind = "logout"
)

// Origin carries request metadata for the audit trail.
type Origin struct {
	IP        string
	UserAgent string
}

// AuditEntry is one append-only audit record. Never mutated after insert.
type AuditEntry struct {
	ID         int        `json:"id"`
	UserID     *int       `json:"user_id,omitempty"`
	Username   string     `json:"username"`
	Action     ActionKind `json:"action_type"`
	EntityType string     `json:"entity_type"`
	EntityID   *int       `json:"entity_id,omitempty"`
	EntityName string     `json:"entity_name"`
	Details    string     `json:"details"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuditService writes and reads the append-only action log.
type AuditService interface {
	// Record writes an entry in its own transaction. A logging failure is
	// reported to the zap logger but never fails the business operation.
	Record(ctx context.Context, e AuditEntry)

	// RecordTx writes an entry inside the caller's transaction, so the audit
	// row commits or rolls back together with the mutation it describes.
	RecordTx(ctx context.Context, tx pgx.Tx, e AuditEntry) error

	// List returns the most recent entries, newest first.
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}

type auditService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditService(pool *pgxpool.Pool, logger *zap.Logger) AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditService{pool: pool, logger: logger}
}

const insertAuditSQL = `
	INSERT INTO action_logs
	(user_id, username, action_type, entity_type, entity_id, entity_name, details, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (s *auditService) Record(ctx context.Context, e AuditEntry) {
	_, err := s.pool.Exec(ctx, insertAuditSQL,
		e.UserID, e.Username, e.Action, e.EntityType, e.EntityID, e.EntityName,
		e.Details, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		s.logger.Error("failed to write audit entry",
			zap.String("action", string(e.Action)),
			zap.String("entity_type", e.EntityType),
			zap.Error(err))
	}
}

func (s *auditService) RecordTx(ctx context.Context, tx pgx.Tx, e AuditEntry) error {
	_, err := tx.Exec(ctx, insertAuditSQL,
		e.UserID, e.Username, e.Action, e.EntityType, e.EntityID, e.EntityName,
		e.Details, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, username, action_type, entity_type, entity_id, entity_name,
		       COALESCE(details, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM action_logs
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action logs: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var entityName *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.EntityType, &e.EntityID,
			&entityName, &e.Details, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action log entry: %w", err)
		}
		if entityName != nil {
			e.EntityName = *entityName
		}
		entries = append(entries, e)
	}
	return entries, nil
}
