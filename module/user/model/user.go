package model

import (
	"strings"
	"time"
)

const UserTableName = "users"

// Status is the persisted presence flag.
type Status string

const (
	StatusOnline  Status = "Online"
	StatusOffline Status = "Offline"
)

// User is the account record. Registration and profile edits happen
// elsewhere; this service only touches Friends and Status.
type User struct {
	ID        string    `bson:"_id" json:"_id"`
	FirstName string    `bson:"first_name" json:"firstName"`
	LastName  string    `bson:"last_name" json:"lastName"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Avatar    string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	About     string    `bson:"about,omitempty" json:"about,omitempty"`
	Friends   []string  `bson:"friends" json:"friends"`
	Status    Status    `bson:"status,omitempty" json:"status,omitempty"`
	Verified  bool      `bson:"verified" json:"verified"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

func (u *User) GetTableName() string {
	return UserTableName
}

// DisplayName is "first last", trimmed when either half is empty.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// Brief is the participant projection sent to clients in place of a bare id.
type Brief struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
	Email     string `json:"email,omitempty"`
	Status    Status `json:"status,omitempty"`
}

func (u *User) Brief() Brief {
	return Brief{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Email:     u.Email,
		Status:    u.Status,
	}
}
