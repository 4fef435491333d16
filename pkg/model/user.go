package model

import "time"

// User is a person who asked for at least one quote. Phone is the identity.
type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Username  string    `json:"username,omitempty" bson:"username,omitempty" validate:"omitempty,max=80"`
	Phone     string    `json:"phone" bson:"phone" validate:"required,e164,max=50"`
	Country   string    `json:"country,omitempty" bson:"country,omitempty" validate:"omitempty,len=2"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
