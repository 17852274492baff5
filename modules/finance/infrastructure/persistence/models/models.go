package models

import (
	"database/sql"
	"time"
)

type Batch struct {
	ID          string
	TenantID    string
	OrgUnitID   string
	Reference   string
	Status      string
	VerifiedBy1 sql.NullString
	VerifiedBy2 sql.NullString
	LockedBy    sql.NullString
	VerifiedAt1 sql.NullTime
	VerifiedAt2 sql.NullTime
	LockedAt    sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
