package model

import (
	"time"
)

// Task is an item on a couple's checklist
type Task struct {
	ID          uint     `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID    uint     `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	Title       string   `json:"titulo" gorm:"type:varchar(255);not null" field:"required" validate:"required,max=255"`
	Description *string  `json:"descricao" gorm:"type:text"`
	DueDate     Date     `json:"data_limite" gorm:"type:date;not null" field:"required"`
	Done        bool     `json:"concluida" gorm:"not null"`
	Priority    Priority `json:"prioridade" gorm:"not null" validate:"oneof=1 2 3"`
}

// NewTask returns a task with its defaults applied
func NewTask() *Task {
	return &Task{Priority: PriorityMedium}
}

func (t *Task) String() string {
	return t.Title
}

// Document is an uploaded file kept for a couple
type Document struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID   uint      `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	Title      string    `json:"titulo" gorm:"type:varchar(255);not null" field:"required" validate:"required,max=255"`
	File       string    `json:"arquivo" gorm:"type:varchar(100);not null" field:"required,file" validate:"required,max=100"`
	UploadedAt time.Time `json:"data_upload" gorm:"autoCreateTime" field:"read_only"`
}

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{}
}

func (d *Document) String() string {
	return d.Title
}

// Visit is a scheduled meeting between a couple and a vendor
type Visit struct {
	ID       uint     `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID uint     `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	VendorID uint     `json:"fornecedor" gorm:"not null;index" field:"required,ref=vendors"`
	At       DateTime `json:"data_hora" gorm:"not null" field:"required"`
	Location string   `json:"local" gorm:"type:varchar(255);not null" field:"required" validate:"required,max=255"`
	Notes    *string  `json:"anotacoes" gorm:"type:text"`
}

// NewVisit returns an empty visit
func NewVisit() *Visit {
	return &Visit{}
}

// Review is a couple's rating of a vendor
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID  uint      `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	VendorID  uint      `json:"fornecedor" gorm:"not null;index" field:"required,ref=vendors"`
	Rating    int       `json:"nota" gorm:"not null" field:"required" validate:"min=1,max=5"`
	Comment   string    `json:"comentario" gorm:"type:text;not null" field:"required" validate:"required"`
	CreatedAt time.Time `json:"data_avaliacao" gorm:"autoCreateTime" field:"read_only"`
}

// NewReview returns an empty review
func NewReview() *Review {
	return &Review{}
}

// TimelineEvent is a dated milestone on a couple's timeline
type TimelineEvent struct {
	ID          uint     `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	CoupleID    uint     `json:"casal" gorm:"not null;index" field:"required,ref=couples"`
	Name        string   `json:"evento" gorm:"type:varchar(255);not null" field:"required" validate:"required,max=255"`
	At          DateTime `json:"data_evento" gorm:"not null" field:"required"`
	Description *string  `json:"descricao" gorm:"type:text"`
}

// NewTimelineEvent returns an empty timeline event
func NewTimelineEvent() *TimelineEvent {
	return &TimelineEvent{}
}

func (e *TimelineEvent) String() string {
	return e.Name
}
