package permissions

import (
	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
)

// Catalog entries for the finance module. IDs are fixed so seeding is
// idempotent across environments.
var (
	BatchesCreate = &permission.Permission{
		ID:          uuid.MustParse("1a4c7e92-5b08-4d36-9f21-8c0e3a6d5b10"),
		Code:        "finance.batches.create",
		Description: "Create posting batches",
	}
	BatchesRead = &permission.Permission{
		ID:          uuid.MustParse("6e2b9d04-8f53-4a17-bc68-0d4a7c1e9f20"),
		Code:        "finance.batches.read",
		Description: "Read posting batches",
	}
	BatchesUpdate = &permission.Permission{
		ID:          uuid.MustParse("7b3e0d86-4c29-4f15-a860-9d2f5e1c3b50"),
		Code:        "finance.batches.update",
		Description: "Update draft posting batches",
	}
	BatchesDelete = &permission.Permission{
		ID:          uuid.MustParse("e4a92f57-0b68-4d31-97c2-6a0d8e5f2b60"),
		Code:        "finance.batches.delete",
		Description: "Delete draft posting batches",
	}
	BatchesVerify = &permission.Permission{
		ID:          uuid.MustParse("c8f5a210-3d6e-4b94-8a57-2e9c0b4d6f30"),
		Code:        "finance.batches.verify",
		Description: "Verify posting batches",
	}
	BatchesLock = &permission.Permission{
		ID:          uuid.MustParse("39d0b6c5-7a1f-4e28-b943-5f8e2d0a7c40"),
		Code:        "finance.batches.lock",
		Description: "Lock verified posting batches",
	}
)

// All lists every finance catalog entry for seeding.
var All = []*permission.Permission{
	BatchesCreate,
	BatchesRead,
	BatchesUpdate,
	BatchesDelete,
	BatchesVerify,
	BatchesLock,
}
