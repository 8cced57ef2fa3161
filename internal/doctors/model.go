package doctors

import "time"

// Doctor represents a medical professional profile, provisioned by an
// admin independently of the identity-provider account. UserID is the
// link to that account; it may be empty until the doctor first signs in.
type Doctor struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId,omitempty"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Specialization  string    `json:"specialization"`
	Workplace       string    `json:"workplace"`
	Position        string    `json:"position"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	Active          bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
