package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. PasswordHash is never serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:char(36)" json:"id"`
	Phone         string     `bun:"phone,notnull,unique" json:"phone"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	FullName      string     `bun:"full_name,notnull" json:"full_name"`
	Role          UserRole   `bun:"role,notnull" json:"role"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	Avatar        *string    `bun:"avatar" json:"avatar"`
	CreatedAt     *time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// UserProfile is the registration record attached one-to-one to a User.
type UserProfile struct {
	bun.BaseModel            `bun:"table:user_profiles,alias:upr"`
	UserID                   uuid.UUID  `bun:"user_id,pk,type:char(36)" json:"user_id"`
	User                     *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Address                  string     `bun:"address" json:"address"`
	PermanentAddress         string     `bun:"permanent_address" json:"permanent_address"`
	IdentityNumber           string     `bun:"identity_number" json:"identity_number"`
	BirthDate                *time.Time `bun:"birth_date,type:date" json:"birth_date"`
	Gender                   *string    `bun:"gender" json:"gender"`
	EmergencyContactName     string     `bun:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone    string     `bun:"emergency_contact_phone" json:"emergency_contact_phone"`
	EmergencyContactRelation string     `bun:"emergency_contact_relation" json:"emergency_contact_relation"`
	UAVType                  string     `bun:"uav_type" json:"uav_type"`
	UsagePurpose             string     `bun:"usage_purpose" json:"usage_purpose"`
	OperationArea            string     `bun:"operation_area" json:"operation_area"`
	UAVExperience            string     `bun:"uav_experience" json:"uav_experience"`
	TargetTier               string     `bun:"target_tier" json:"target_tier"`
	IdentityImageFront       *string    `bun:"identity_image_front" json:"identity_image_front"`
	IdentityImageBack        *string    `bun:"identity_image_back" json:"identity_image_back"`
	CreatedAt                *time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt                *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// UserProjection is the sanitized user shape returned by login and verify.
type UserProjection struct {
	ID          string   `json:"id"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Role        UserRole `json:"role"`
	Avatar      *string  `json:"avatar"`
	Permissions []string `json:"permissions,omitempty"`
}

// Project returns the public view of u. Permissions are only attached when
// withPermissions is set and the role has any.
func (u *User) Project(withPermissions bool) UserProjection {
	p := UserProjection{
		ID:       u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		Avatar:   u.Avatar,
	}
	if withPermissions {
		p.Permissions = u.Role.Permissions()
	}
	return p
}

func stamp(created, updated **time.Time, now time.Time) {
	if *created == nil {
		*created = &now
	}
	*updated = &now
}
