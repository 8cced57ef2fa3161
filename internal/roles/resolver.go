package roles

import (
	"context"
	"errors"
	"strings"

	"melanox-backend/internal/doctors"
	"melanox-backend/internal/shared/telemetry"
)

// Capability is a named permission grant derived from the current actor.
type Capability string

const (
	CapabilityAnonymous     Capability = "anonymous"
	CapabilityAuthenticated Capability = "authenticated"
	CapabilityAdmin         Capability = "admin"
	CapabilityDoctor        Capability = "doctor"
)

// ErrNoDoctorProfile means no doctor profile is associated with the
// actor. It is a user-facing state, not a fault.
var ErrNoDoctorProfile = errors.New("no doctor profile for actor")

// Actor is the identity the resolver derives capabilities from.
type Actor struct {
	ID    string
	Email string
	Guest bool
}

// Set is a capability set for one actor.
type Set map[Capability]bool

// Has reports whether the set contains the capability.
func (s Set) Has(c Capability) bool { return s[c] }

// Resolver derives capability sets from an actor, a configured admin
// allow-list and the doctor profile directory. Membership rules live
// here only; handlers consume the resulting set.
type Resolver struct {
	admins  map[string]struct{}
	doctors doctors.Repo
}

// NewResolver constructs a Resolver. adminEmails comes from
// configuration, never from code.
func NewResolver(adminEmails []string, doctorRepo doctors.Repo) *Resolver {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Resolver{admins: admins, doctors: doctorRepo}
}

// Capabilities recomputes the actor's capability set. Anonymous and
// authenticated are mutually exclusive; admin and doctor both imply
// authenticated.
func (r *Resolver) Capabilities(ctx context.Context, actor Actor) Set {
	set := make(Set, 4)
	if actor.Guest || actor.ID == "" {
		set[CapabilityAnonymous] = true
		return set
	}

	set[CapabilityAuthenticated] = true
	if r.IsAdmin(actor.Email) {
		set[CapabilityAdmin] = true
	}
	if _, err := r.ResolveDoctorID(ctx, actor); err == nil {
		set[CapabilityDoctor] = true
	}
	return set
}

// IsAdmin reports allow-list membership for an email.
func (r *Resolver) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := r.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// ResolveDoctorID resolves the doctor profile owned by the actor.
// Profiles are provisioned by admins before the doctor ever signs in,
// so the account link may be missing or stale at first login: the
// lookup falls back to email and repairs the link in place. The repair
// is best effort: a failure is logged and resolution still succeeds.
func (r *Resolver) ResolveDoctorID(ctx context.Context, actor Actor) (string, error) {
	if actor.Guest || actor.ID == "" {
		return "", ErrNoDoctorProfile
	}

	doctor, err := r.doctors.GetByUserID(ctx, actor.ID)
	if err == nil {
		return doctor.ID, nil
	}
	if !errors.Is(err, doctors.ErrNotFound) {
		return "", err
	}

	doctor, err = r.doctors.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, doctors.ErrNotFound) {
			return "", ErrNoDoctorProfile
		}
		return "", err
	}

	if doctor.UserID != actor.ID {
		if err := r.doctors.Relink(ctx, doctor.ID, actor.ID); err != nil {
			telemetry.Warn("roles.doctor_relink_failed", map[string]any{
				"doctor_id": doctor.ID,
				"user_id":   actor.ID,
				"error":     err.Error(),
			})
		}
	}
	return doctor.ID, nil
}
