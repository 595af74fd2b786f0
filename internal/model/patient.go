package model

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "Active"
	PatientStatusInactive PatientStatus = "Inactive"
)

// Valid reports whether s is one of the known patient statuses
func (s PatientStatus) Valid() bool {
	return s == PatientStatusActive || s == PatientStatusInactive
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type Patient struct {
	Base
	Name   string        `db:"name" json:"name"`
	Gender Gender        `db:"gender" json:"gender"`
	Age    int           `db:"age" json:"age"`
	Phone  string        `db:"phone" json:"phone"`
	Status PatientStatus `db:"status" json:"status"`
}

// PatientInput is the registration data checked by the workflow before a patient exists
type PatientInput struct {
	Name   string `json:"name" validate:"required"`
	Gender Gender `json:"gender" validate:"required,oneof=Male Female Other"`
	Age    int    `json:"age" validate:"gte=0,lte=150"`
	Phone  string `json:"phone" validate:"required"`
}

type RegisterPatientRequest struct {
	Name   string `json:"name" binding:"required"`
	Gender string `json:"gender" binding:"required"`
	Age    *int   `json:"age" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
}

func (r *RegisterPatientRequest) ToInput() PatientInput {
	in := PatientInput{
		Name:   r.Name,
		Gender: Gender(r.Gender),
		Phone:  r.Phone,
	}
	if r.Age != nil {
		in.Age = *r.Age
	}
	return in
}

type UpdatePatientStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type PatientFilters struct {
	Status *PatientStatus
}
