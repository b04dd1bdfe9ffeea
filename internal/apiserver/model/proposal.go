package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetProposal is a vendor's quote for a couple
type BudgetProposal struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID    uint            `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	VendorID    uint            `json:"fornecedor" gorm:"not null;index" field:"required,ref=vendors"`
	Description string          `json:"descricao" gorm:"type:text;not null" field:"required" validate:"required"`
	Amount      decimal.Decimal `json:"valor" gorm:"type:decimal(10,2);not null" field:"required" validate:"money"`
	Status      ProposalStatus  `json:"status" gorm:"type:varchar(10);not null" validate:"oneof=PENDENTE APROVADO RECUSADO"`
	CreatedAt   time.Time       `json:"data_criacao" gorm:"autoCreateTime" field:"read_only"`
}

// NewBudgetProposal returns a proposal with its defaults applied
func NewBudgetProposal() *BudgetProposal {
	return &BudgetProposal{Status: ProposalPending}
}

func (p *BudgetProposal) String() string {
	return fmt.Sprintf("proposal #%d from vendor %d to couple %d", p.ID, p.VendorID, p.CoupleID)
}

// Payment is one installment, or the lump sum, of a proposal
type Payment struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	ProposalID  uint            `json:"orcamento" gorm:"not null;index" field:"required,ref=proposals"`
	Amount      decimal.Decimal `json:"valor_parcela" gorm:"type:decimal(10,2);not null" field:"required" validate:"money"`
	DueDate     Date            `json:"data_vencimento" gorm:"type:date;not null" field:"required"`
	Status      PaymentStatus   `json:"status" gorm:"type:varchar(10);not null" validate:"oneof=PENDENTE PAGO ATRASADO"`
	Method      PaymentMethod   `json:"forma_pagamento" gorm:"type:varchar(10);not null" field:"required" validate:"oneof=A_VISTA PARCELADO"`
	ReceiptFile *string         `json:"comprovante" gorm:"type:varchar(100)" field:"file" validate:"omitempty,max=100"`
}

// NewPayment returns a payment with its defaults applied
func NewPayment() *Payment {
	return &Payment{Status: PaymentPending}
}

// Contract is the signed agreement behind a proposal
type Contract struct {
	ID         uint   `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	ProposalID uint   `json:"orcamento" gorm:"not null;uniqueIndex" field:"required,unique,ref=proposals"`
	File       string `json:"arquivo_contrato" gorm:"type:varchar(100);not null" field:"required,file" validate:"required,max=100"`
	Signed     bool   `json:"assinado" gorm:"not null"`
	SignedOn   *Date  `json:"data_assinatura" gorm:"type:date"`
}

// NewContract returns an unsigned contract
func NewContract() *Contract {
	return &Contract{}
}
