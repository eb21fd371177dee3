package authstate

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse phone numbers that carry
// no international prefix.
var DefaultPhoneRegion = "US"

// Profile is the application-specific user record, keyed by the owning
// identity. Favorites uniqueness is maintained by the toggle operation, not
// by storage.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        string     `bun:"user_id,notnull,unique" json:"user_id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	JobTitle      string     `bun:"job_title" json:"job_title,omitempty"`
	Interests     []string   `bun:"interests,type:jsonb" json:"interests,omitempty"`
	Favorites     []string   `bun:"favorites,type:jsonb" json:"favorites,omitempty"`
	IsPaid        bool       `bun:"is_paid" json:"is_paid,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureDefaults normalizes optional fields so consumers never see nil
// slices where the record simply had no values.
func (p *Profile) EnsureDefaults() *Profile {
	if p == nil {
		return nil
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	return p
}

// Clone returns a deep copy so cached state cannot be mutated through
// returned snapshots. Empty slices stay empty, never nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Interests != nil {
		clone.Interests = append(make([]string, 0, len(p.Interests)), p.Interests...)
	}
	if p.Favorites != nil {
		clone.Favorites = append(make([]string, 0, len(p.Favorites)), p.Favorites...)
	}
	return &clone
}

// HasFavorite reports whether the resource id is currently marked.
func (p *Profile) HasFavorite(resourceID string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.Favorites {
		if id == resourceID {
			return true
		}
	}
	return false
}

// SignupInput carries the profile payload supplied at signup. Favorites and
// the paid flag are system-assigned and deliberately absent.
type SignupInput struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	JobTitle  string   `json:"job_title"`
	Interests []string `json:"interests"`
}

// Validate enforces the minimal field rules before the payload crosses the
// remote boundary.
func (s SignupInput) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Username, validation.Required, validation.Length(1, 120)),
		validation.Field(&s.Email, validation.Required, is.Email),
		validation.Field(&s.JobTitle, validation.Length(0, 120)),
	)
}

// NewProfile materializes the profile row inserted during signup. The row id
// is derived from the owning user id so retries after a failed insert
// converge on the same row.
func (s SignupInput) NewProfile(userID string) *Profile {
	record := &Profile{
		UserID:    userID,
		Username:  s.Username,
		Email:     s.Email,
		Phone:     NormalizePhone(s.Phone),
		JobTitle:  s.JobTitle,
		Interests: append([]string(nil), s.Interests...),
		Favorites: []string{},
		IsPaid:    false,
	}

	if id, err := hashid.NewUUID(userID); err == nil {
		record.ID = id
	} else {
		record.ID = uuid.New()
	}

	return record.EnsureDefaults()
}

// NormalizePhone formats a parseable phone number as E.164 and keeps the
// input verbatim otherwise. The field is optional and opaque to this layer.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	num, err := phonenumbers.Parse(trimmed, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
