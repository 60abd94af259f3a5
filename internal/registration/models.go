package registration

import (
	"time"

	"registration/internal/constants"
)

// RegistrationRequest is the validated inbound payload. Only ID is required;
// upstream edge validation guarantees the shape, the handler still guards the
// id so the saga never runs for an unkeyable customer.
type RegistrationRequest struct {
	ID                          string `json:"id"`
	Name                        string `json:"name,omitempty"`
	CompanyIdentificationNumber string `json:"companyIdentificationNumber,omitempty"`
	CompanyIdentificationType   string `json:"companyIdentificationType,omitempty"`
	CompanyPostalCode           string `json:"companyPostalCode,omitempty"`
}

// CustomerRecord is the persisted row. The fixed sort key keeps the door
// open for future multi-entity-per-customer layouts; (pk, sk) is unique and
// a second registration with the same id overwrites rather than duplicates.
type CustomerRecord struct {
	PK                          string    `bson:"pk" json:"pk"`
	SK                          string    `bson:"sk" json:"sk"`
	ID                          string    `bson:"id" json:"id"`
	Name                        string    `bson:"name,omitempty" json:"name,omitempty"`
	CompanyIdentificationNumber string    `bson:"company_identification_number,omitempty" json:"companyIdentificationNumber,omitempty"`
	CompanyIdentificationType   string    `bson:"company_identification_type,omitempty" json:"companyIdentificationType,omitempty"`
	CompanyPostalCode           string    `bson:"company_postal_code,omitempty" json:"companyPostalCode,omitempty"`
	CreatedAt                   time.Time `bson:"created_at" json:"createdAt"`
}

// NewCustomerRecord stamps createdAt at persistence time, not at request
// receipt.
func NewCustomerRecord(req RegistrationRequest, createdAt time.Time) CustomerRecord {
	return CustomerRecord{
		PK:                          req.ID,
		SK:                          constants.RecordSortKeyCustomer,
		ID:                          req.ID,
		Name:                        req.Name,
		CompanyIdentificationNumber: req.CompanyIdentificationNumber,
		CompanyIdentificationType:   req.CompanyIdentificationType,
		CompanyPostalCode:           req.CompanyPostalCode,
		CreatedAt:                   createdAt,
	}
}

type Step string

const (
	StepRegister      Step = "Register"
	StepSaveRecord    Step = "SaveRecord"
	StepArchiveObject Step = "ArchiveObject"
	StepPublishEvent  Step = "PublishEvent"
)

type Status string

const (
	StatusSucceeded          Status = "succeeded"
	StatusPartiallySucceeded Status = "partially_succeeded"
	StatusFailed             Status = "failed"
)

// Outcome is the terminal result of one workflow invocation. FailedStep and
// Err are set for partial and failed outcomes; side effects of earlier steps
// are never rolled back.
type Outcome struct {
	Status        Status
	FailedStep    Step
	Err           error
	ExecutionID   string
	CorrelationID string
	EnteredAt     time.Time
}
