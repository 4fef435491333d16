package model

import "time"

type Quote struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	UserID       string       `json:"user_id" bson:"user_id"`
	CarInfo      string       `json:"carro_info" bson:"car_info" validate:"required,max=2000"`
	Condition    string       `json:"condition,omitempty" bson:"condition,omitempty" validate:"omitempty,max=20"`
	Color        string       `json:"color,omitempty" bson:"color,omitempty" validate:"omitempty,max=50"`
	Displacement string       `json:"cilindrada,omitempty" bson:"displacement,omitempty" validate:"omitempty,max=50"`
	Year         string       `json:"ano,omitempty" bson:"year,omitempty" validate:"omitempty,numeric,max=4"`
	Fuel         string       `json:"combustivel,omitempty" bson:"fuel,omitempty" validate:"omitempty,max=50"`
	Notification Notification `json:"notification" bson:"notification"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

// QuoteRequest is the submitted form. The form field names are kept as the
// JSON names so both entry points accept the same keys.
type QuoteRequest struct {
	Username     string `json:"username" validate:"omitempty,max=80"`
	Phone        string `json:"phone" validate:"required,e164,max=50"`
	CarInfo      string `json:"carro_info" validate:"required,max=2000"`
	Condition    string `json:"condition" validate:"omitempty,max=20"`
	Color        string `json:"color" validate:"omitempty,max=50"`
	Displacement string `json:"cilindrada" validate:"omitempty,max=50"`
	Year         string `json:"ano" validate:"omitempty,numeric,max=4"`
	Fuel         string `json:"combustivel" validate:"omitempty,max=50"`
}

// Submission is what a successful submit returns: the stored records and
// the details block sent to the owner, before sanitizing.
type Submission struct {
	User    *User  `json:"user"`
	Quote   *Quote `json:"quote"`
	Details string `json:"details"`
}
