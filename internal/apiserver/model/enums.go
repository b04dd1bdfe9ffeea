package model

// Role is the kind of account a User holds
type Role string

const (
	RoleCouple  Role = "CASAL"
	RolePlanner Role = "CERIMONIALISTA"
	RoleVendor  Role = "FORNECEDOR"
	RoleAdmin   Role = "ADMIN"
)

// Roles lists every role in declaration order
var Roles = []Role{RoleCouple, RolePlanner, RoleVendor, RoleAdmin}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

// ServiceCategory is the kind of service a vendor offers
type ServiceCategory string

const (
	CategoryCatering    ServiceCategory = "BUFFET"
	CategoryDecoration  ServiceCategory = "DECORACAO"
	CategoryPhotography ServiceCategory = "FOTOGRAFIA"
	CategoryMusic       ServiceCategory = "MUSICA"
	CategoryVenue       ServiceCategory = "ESPACO"
	CategoryInvitations ServiceCategory = "CONVITES"
	CategoryOther       ServiceCategory = "OUTRO"
)

// ProposalStatus tracks a budget proposal decision
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDENTE"
	ProposalApproved ProposalStatus = "APROVADO"
	ProposalRejected ProposalStatus = "RECUSADO"
)

// PaymentStatus tracks an installment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDENTE"
	PaymentPaid    PaymentStatus = "PAGO"
	PaymentLate    PaymentStatus = "ATRASADO"
)

// PaymentMethod is how a proposal is paid
type PaymentMethod string

const (
	PaymentLumpSum      PaymentMethod = "A_VISTA"
	PaymentInstallments PaymentMethod = "PARCELADO"
)

// Priority orders tasks; stored and serialized as its integer code
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)
