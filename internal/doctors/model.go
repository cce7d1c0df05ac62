package doctors

import (
	"strings"
	"time"
)

// Doctor is a bookable practitioner profile.
type Doctor struct {
	ID         string    `json:"id" dynamodbav:"id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Email      string    `json:"email" dynamodbav:"email"`
	Image      string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Speciality string    `json:"speciality" dynamodbav:"speciality"`
	Degree     string    `json:"degree" dynamodbav:"degree"`
	Experience string    `json:"experience" dynamodbav:"experience"`
	About      string    `json:"about" dynamodbav:"about"`
	Fees       int64     `json:"fees" dynamodbav:"fees"`
	Address    Address   `json:"address" dynamodbav:"address"`
	Available  bool      `json:"available" dynamodbav:"available"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"createdAt"`
}

// Address is the practice address shown to patients.
type Address struct {
	Line1 string `json:"line1" dynamodbav:"line1"`
	Line2 string `json:"line2,omitempty" dynamodbav:"line2,omitempty"`
}

// CreateDoctorRequest is the admin request to register a doctor.
type CreateDoctorRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Image      string  `json:"image"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       int64   `json:"fees"`
	Address    Address `json:"address"`
}

// Validate checks the create request.
func (r *CreateDoctorRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidDoctor
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidDoctor
	}
	if strings.TrimSpace(r.Speciality) == "" {
		return ErrInvalidDoctor
	}
	if r.Fees <= 0 {
		return ErrInvalidDoctor
	}
	return nil
}

// UpdateProfileRequest carries the fields a doctor may edit.
type UpdateProfileRequest struct {
	About     *string  `json:"about,omitempty"`
	Fees      *int64   `json:"fees,omitempty"`
	Address   *Address `json:"address,omitempty"`
	Available *bool    `json:"available,omitempty"`
}

// Validate checks the profile edit. The fee stays positive for the lifetime
// of a listed doctor; payment orders are denominated in it.
func (r *UpdateProfileRequest) Validate() error {
	if r.Fees != nil && *r.Fees <= 0 {
		return ErrInvalidDoctor
	}
	return nil
}
