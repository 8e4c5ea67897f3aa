package domain

import "time"

// Credential is the sign-in record for an account. It lives apart from the
// profile so that profile writes can never touch authentication data.
type Credential struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the loyalty record of a customer. It deliberately carries no
// admin capability: that is a signed claim, see Identity.
type UserProfile struct {
	ID                  string    `json:"id" bson:"_id"`
	Name                string    `json:"name" bson:"name"`
	Email               string    `json:"email" bson:"email"`
	PhoneNumber         string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	Points              int       `json:"points" bson:"points"`
	VisitsCount         int       `json:"visits_count" bson:"visits_count"`
	ClaimedRewardsCount int       `json:"claimed_rewards_count" bson:"claimed_rewards_count"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	LastActivityAt      time.Time `json:"last_activity_at" bson:"last_activity_at"`
}

// ProfileField names a profile attribute that the owner may edit.
type ProfileField string

const (
	FieldName        ProfileField = "name"
	FieldPhoneNumber ProfileField = "phone_number"
)

var writableFields = map[ProfileField]struct{}{
	FieldName:        {},
	FieldPhoneNumber: {},
}

// Writable reports whether f may be changed through the user-facing profile
// update path. Points, counters, timestamps and anything admin-related are not.
func (f ProfileField) Writable() bool {
	_, ok := writableFields[f]
	return ok
}
