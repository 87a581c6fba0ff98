package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Gender is the self-reported gender of a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// MaxEmergencyContacts is the number of emergency contacts a user can save.
const MaxEmergencyContacts = 5

// User represents a Healthify account together with its health profile.
type User struct {
	ID                bson.ObjectID      `bson:"_id,omitempty"`
	FullName          string             `bson:"full_name"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password_hash,omitempty" json:"-"`
	Height            float64            `bson:"height"`
	Weight            float64            `bson:"weight"`
	Age               int                `bson:"age"`
	Gender            Gender             `bson:"gender,omitempty"`
	EmergencyContacts []EmergencyContact `bson:"emergency_contacts"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`

	// Password is the plaintext handed to the write path. It is hashed into PasswordHash
	// inside the write and never stored.
	Password *string `bson:"-" json:"-"`
}

// EmergencyContact is a person alerted when the user triggers an SOS.
type EmergencyContact struct {
	Name  string `bson:"name"`
	Phone string `bson:"phone"`
	Email string `bson:"email,omitempty"`
}
