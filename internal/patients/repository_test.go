package patients

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()

	patient, err := repo.Create(context.Background(), &CreatePatientRequest{
		Name:  "Ada Example",
		Email: "ada@example.com",
		Phone: "555-0100",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if patient.ID == "" {
		t.Fatal("created patient has no id")
	}

	got, err := repo.GetByID(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("email = %q", got.Email)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("missing patient err = %v, want ErrPatientNotFound", err)
	}
}

func TestInMemoryRepositoryValidation(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.Create(context.Background(), &CreatePatientRequest{Email: "ada@example.com"}); !errors.Is(err, ErrInvalidPatient) {
		t.Fatalf("missing name err = %v, want ErrInvalidPatient", err)
	}
	if _, err := repo.Create(context.Background(), &CreatePatientRequest{Name: "Ada", Email: "not-an-email"}); !errors.Is(err, ErrInvalidPatient) {
		t.Fatalf("bad email err = %v, want ErrInvalidPatient", err)
	}
}

func TestInMemoryRepositoryUpdateProfile(t *testing.T) {
	repo := NewInMemoryRepository()
	patient, err := repo.Create(context.Background(), &CreatePatientRequest{
		Name:  "Ada Example",
		Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	phone := "555-0199"
	gender := "female"
	updated, err := repo.UpdateProfile(context.Background(), patient.ID, &UpdateProfileRequest{
		Phone:  &phone,
		Gender: &gender,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.Phone != "555-0199" || updated.Gender != "female" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Name != "Ada Example" {
		t.Fatal("untouched fields changed")
	}
}
