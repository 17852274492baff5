package permission

import "github.com/google/uuid"

// Permission is an immutable catalog entry. Codes are globally unique
// "module.resource.action" strings created by seeding and never mutated
// by request flow.
type Permission struct {
	ID          uuid.UUID
	Code        string
	Description string
}
