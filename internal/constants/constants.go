package constants

import "time"

const (
	EventSourceCustomerCreated  = "CustomerCreated"
	EventDetailTypeRegistration = "Customer.RegistrationService"
)

const (
	CompanyBus        = "company-bus"
	LocalBus          = "registration-local-bus"
	ProvisioningQueue = "customer-provisioning"
)

const (
	RecordSortKeyCustomer = "Customer"
	RecordCollection      = "customers"
)

const (
	ArchiveKeyPrefix = "registration:archive:"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultStepTimeout      = 5 * time.Second
	DefaultMaxReceiveCount  = 3
	DefaultVisibilityWindow = 30 * time.Second
	DefaultMaxRouteHops     = 8
)

const (
	ArchivePolicyDegrade = "degrade"
	ArchivePolicyStrict  = "strict"
)

const (
	DefaultMongoDBName = "registration"
)

const (
	ShutdownTimeout = 5 * time.Second
)
