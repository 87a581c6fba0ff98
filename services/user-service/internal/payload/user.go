package payload

import (
	"time"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type UserProfile struct {
	ID                string             `json:"id"`
	FullName          string             `json:"fullName"`
	Email             string             `json:"email"`
	Height            float64            `json:"height"`
	Weight            float64            `json:"weight"`
	Age               int                `json:"age"`
	Gender            string             `json:"gender,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type AuthResponse struct {
	Status    string      `json:"status"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

type ProfileResponse struct {
	Status string      `json:"status"`
	User   UserProfile `json:"user"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Environment string            `json:"environment"`
	Timestamp   time.Time         `json:"timestamp"`
	Uptime      float64           `json:"uptime"`
	Checks      map[string]string `json:"checks"`
}

func NewUserSummary(user *model.User) UserSummary {
	return UserSummary{
		ID:       user.ID.Hex(),
		FullName: user.FullName,
		Email:    user.Email,
	}
}

func NewUserProfile(user *model.User) UserProfile {
	contacts := make([]EmergencyContact, 0, len(user.EmergencyContacts))
	for _, c := range user.EmergencyContacts {
		contacts = append(contacts, EmergencyContact{Name: c.Name, Phone: c.Phone, Email: c.Email})
	}

	return UserProfile{
		ID:                user.ID.Hex(),
		FullName:          user.FullName,
		Email:             user.Email,
		Height:            user.Height,
		Weight:            user.Weight,
		Age:               user.Age,
		Gender:            string(user.Gender),
		EmergencyContacts: contacts,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}
