package patients

import (
	"strings"
	"time"
)

// Patient is a registered platform user who books appointments.
type Patient struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Email     string    `json:"email" dynamodbav:"email"`
	Phone     string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Image     string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Gender    string    `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	BirthDate string    `json:"dob,omitempty" dynamodbav:"dob,omitempty"`
	Address   Address   `json:"address" dynamodbav:"address"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"createdAt"`
}

// Address is the patient's contact address.
type Address struct {
	Line1 string `json:"line1" dynamodbav:"line1"`
	Line2 string `json:"line2,omitempty" dynamodbav:"line2,omitempty"`
}

// CreatePatientRequest registers a patient profile. Credential handling
// lives in the auth service; only the profile is stored here.
type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks the create request.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidPatient
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidPatient
	}
	return nil
}

// UpdateProfileRequest carries the fields a patient may edit.
type UpdateProfileRequest struct {
	Name      *string  `json:"name,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	BirthDate *string  `json:"dob,omitempty"`
	Address   *Address `json:"address,omitempty"`
}
