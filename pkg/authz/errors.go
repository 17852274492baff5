package authz

import (
	"errors"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/pkg/serrors"
)

const (
	CodePermissionDenied  = "AUTHZ_PERMISSION_DENIED"
	CodeScopeDenied       = "AUTHZ_SCOPE_DENIED"
	CodeDuplicateVerifier = "AUTHZ_DUPLICATE_VERIFIER"
	CodeDataIntegrity     = "AUTHZ_DATA_INTEGRITY"
	CodeNotFound          = "AUTHZ_NOT_FOUND"
)

var (
	// ErrPermissionDenied: the actor lacks the permission code outright.
	ErrPermissionDenied = serrors.NewError(
		CodePermissionDenied,
		"permission denied",
		"Authorization.PermissionDenied",
	)
	// ErrScopeDenied: the actor has the permission but no assignment
	// covers the target org unit. Kept distinct for audit precision;
	// callers surface both as forbidden.
	ErrScopeDenied = serrors.NewError(
		CodeScopeDenied,
		"no assignment covers the target org unit",
		"Authorization.ScopeDenied",
	)
	// ErrDuplicateVerifier: two-party confirmation violated by a user
	// who already verified the same resource.
	ErrDuplicateVerifier = serrors.NewError(
		CodeDuplicateVerifier,
		"dual verification requires two different users",
		"Authorization.DuplicateVerifier",
	)
	// ErrDataIntegrity: the hierarchy walk exceeded its safety bound,
	// which means the org tree contains a cycle. Fatal to the operation.
	ErrDataIntegrity = serrors.NewError(
		CodeDataIntegrity,
		"org hierarchy walk exceeded safety bound, cycle suspected",
		"Authorization.DataIntegrity",
	)
	ErrNotFound = serrors.NewError(
		CodeNotFound,
		"referenced entity does not exist",
		"Authorization.NotFound",
	)
)

func permissionDeniedError(permission string) *serrors.BaseError {
	return ErrPermissionDenied.WithTemplateData(map[string]string{
		"permission": permission,
	})
}

func scopeDeniedError(orgUnitID uuid.UUID, permission string) *serrors.BaseError {
	return ErrScopeDenied.WithTemplateData(map[string]string{
		"org_unit":   orgUnitID.String(),
		"permission": permission,
	})
}

// DuplicateVerifierError reports a user attempting both halves of a
// dual-control step.
func DuplicateVerifierError(userID uuid.UUID) *serrors.BaseError {
	return ErrDuplicateVerifier.WithTemplateData(map[string]string{
		"user": userID.String(),
	})
}

// DataIntegrityError flags a suspected cycle rooted at the given unit.
func DataIntegrityError(orgUnitID uuid.UUID) *serrors.BaseError {
	return ErrDataIntegrity.WithTemplateData(map[string]string{
		"org_unit": orgUnitID.String(),
	})
}

// NotFoundError reports a missing entity distinctly from a denial so
// callers can distinguish "doesn't exist" from "not allowed".
func NotFoundError(entity string, id uuid.UUID) *serrors.BaseError {
	return ErrNotFound.WithTemplateData(map[string]string{
		"entity": entity,
		"id":     id.String(),
	})
}

func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsScopeDenied(err error) bool      { return errors.Is(err, ErrScopeDenied) }
func IsDenied(err error) bool           { return IsPermissionDenied(err) || IsScopeDenied(err) }
func IsDuplicateVerifier(err error) bool {
	return errors.Is(err, ErrDuplicateVerifier)
}
func IsDataIntegrity(err error) bool { return errors.Is(err, ErrDataIntegrity) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
