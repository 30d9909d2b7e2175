package model

import "time"

type PatientStatus string

const (
	PatientStatusAdmitted PatientStatus = "Admitted"
)

// Patient is an admitted patient and their room assignment. Records are
// created by admission and removed by discharge; the registry owns them.
type Patient struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	Gender        string        `json:"gender"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address,omitempty"`
	RoomType      string        `json:"room_type"`
	RoomNumber    string        `json:"room_number"`
	AdmissionDate time.Time     `json:"admission_date"`
	DoctorName    string        `json:"doctor_name,omitempty"`
	Status        PatientStatus `json:"status"`
}

// AdmissionDraft carries the form data for a new admission. The room
// selection travels separately because the registry re-validates it against
// the catalog at admit time rather than trusting caller-cached availability.
type AdmissionDraft struct {
	Name          string    `json:"name" validate:"required"`
	Age           int       `json:"age" validate:"required,gt=0,lte=150"`
	Gender        string    `json:"gender" validate:"required"`
	Phone         string    `json:"phone" validate:"omitempty,min=7,max=20"`
	Address       string    `json:"address"`
	AdmissionDate time.Time `json:"admission_date"`
	DoctorName    string    `json:"doctor_name"`
}

// Snapshot is the read-only export surface: the full patient list plus
// per-type occupancy stats at the time of export.
type Snapshot struct {
	Patients   []*Patient           `json:"patients"`
	RoomStats  map[string]RoomStats `json:"room_stats"`
	ExportedAt time.Time            `json:"exported_at"`
}
