package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleCitizen: true, RoleStaff: true, RoleAdmin: true,
}

func (r Role) Valid() bool {
	return validRoles[r]
}

// IsStaff reports whether the role carries staff-level permissions.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Principal is the authenticated actor behind an operation, as established
// by the auth middleware. Services trust it and never look at credentials.
type Principal struct {
	ID   primitive.ObjectID
	Role Role
	Name string
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// Principal builds the identity value carried through request handling.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Name: u.Name}
}
