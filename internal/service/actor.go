package service

import (
	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
)

// Actor is the authenticated caller as seen by services: who they are and which clinic they act in.
type Actor struct {
	UserID    string
	ClinicID  string
	Role      models.UserRole
	SubjectID string
}

// ActorFromClaims builds an Actor for clinicID, the tenant resolved by middleware.
func ActorFromClaims(claims *models.JWTClaims, clinicID string) Actor {
	if claims == nil {
		return Actor{ClinicID: clinicID}
	}
	return Actor{UserID: claims.UserID, ClinicID: clinicID, Role: claims.Role, SubjectID: claims.SubjectID}
}

// IsPatient reports whether the caller is restricted to their own records.
func (a Actor) IsPatient() bool { return a.Role == models.RolePatient }

// IsDoctor reports whether the caller is a doctor.
func (a Actor) IsDoctor() bool { return a.Role == models.RoleDoctor }

func (a Actor) requireClinic() error {
	if a.ClinicID == "" {
		return appErrors.ErrTenantRequired
	}
	return nil
}

// ownSubject returns the subject id a portal user is pinned to, failing when the account is unlinked.
func (a Actor) ownSubject() (string, error) {
	if a.SubjectID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a patient record")
	}
	return a.SubjectID, nil
}
