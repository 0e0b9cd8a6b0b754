package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"concierge/internal/identity"
)

// #region directory

// LookupStaffExact resolves a full name against the staff directory: exact
// match first, then the best pattern match preferring the highest seniority
// (lowest role_level). Nil without error means no such person.
func (s *Store) LookupStaffExact(ctx context.Context, fullName string) (*identity.StaffRecord, error) {
	if fullName == "" {
		return nil, nil
	}

	var rec identity.StaffRecord
	q := s.db.Rebind(`SELECT id, name, role, role_level, department
		FROM staff WHERE name = ? LIMIT 1`)
	err := s.db.GetContext(ctx, &rec, q, fullName)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staff lookup: %w", err)
	}

	q = s.db.Rebind(`SELECT id, name, role, role_level, department
		FROM staff WHERE name ` + s.likeOp() + ` ?
		ORDER BY role_level ASC, id ASC LIMIT 1`)
	err = s.db.GetContext(ctx, &rec, q, "%"+fullName+"%")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("staff lookup: %w", err)
	}
	return &rec, nil
}

func (s *Store) likeOp() string {
	if s.driver == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// #endregion directory
