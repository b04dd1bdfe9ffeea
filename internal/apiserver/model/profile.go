package model

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile is the role specific record attached one-to-one to a User
type Profile interface {
	// OwnerID is the identifier of the owning User, which is also the profile's key.
	OwnerID() uint
	// OwnerRole is the role the owning User must hold.
	OwnerRole() Role
}

// CoupleProfile stores what is specific to a couple
type CoupleProfile struct {
	UserID       uint            `json:"usuario" gorm:"primaryKey;autoIncrement:false" field:"write_only,required,unique,immutable,ref=users"`
	User         *User           `json:"-" gorm:"foreignKey:UserID"`
	Username     string          `json:"username" gorm:"-" field:"computed=User.Username"`
	Partner1Name string          `json:"nome_noivo" gorm:"type:varchar(100)" field:"required" validate:"required,max=100"`
	Partner2Name string          `json:"nome_noiva" gorm:"type:varchar(100)" field:"required" validate:"required,max=100"`
	WeddingDate  *Date           `json:"data_casamento" gorm:"type:date" field:"required"`
	TotalBudget  decimal.Decimal `json:"orcamento_total" gorm:"type:decimal(10,2);not null" validate:"money"`
}

// NewCoupleProfile returns a couple profile with only the owner set
func NewCoupleProfile(userID uint) *CoupleProfile {
	return &CoupleProfile{UserID: userID, TotalBudget: decimal.Zero}
}

func (p *CoupleProfile) OwnerID() uint   { return p.UserID }
func (p *CoupleProfile) OwnerRole() Role { return RoleCouple }

func (p *CoupleProfile) String() string {
	return fmt.Sprintf("%s & %s", p.Partner1Name, p.Partner2Name)
}

// PlannerProfile stores what is specific to a wedding planner
type PlannerProfile struct {
	UserID    uint   `json:"usuario" gorm:"primaryKey;autoIncrement:false" field:"required,unique,immutable,ref=users,nested=User"`
	User      *User  `json:"-" gorm:"foreignKey:UserID"`
	FullName  string `json:"nome_completo" gorm:"type:varchar(255)" field:"required" validate:"required,max=255"`
	Phone     string `json:"telefone" gorm:"type:varchar(20)" field:"required" validate:"required,max=20"`
	CoupleIDs []uint `json:"casais" gorm:"-" field:"ref=couples"`
}

// NewPlannerProfile returns a planner profile with only the owner set
func NewPlannerProfile(userID uint) *PlannerProfile {
	return &PlannerProfile{UserID: userID}
}

func (p *PlannerProfile) OwnerID() uint   { return p.UserID }
func (p *PlannerProfile) OwnerRole() Role { return RolePlanner }

func (p *PlannerProfile) String() string {
	return p.FullName
}

// AfterFind loads the managed couples
func (p *PlannerProfile) AfterFind(tx *gorm.DB) error {
	ids := make([]uint, 0)
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&PlannerCouple{}).
		Where("planner_id = ?", p.UserID).
		Order("couple_id asc").
		Pluck("couple_id", &ids).Error
	if err != nil {
		return err
	}
	p.CoupleIDs = ids
	return nil
}

// AfterSave replaces the managed couples when the list was set.
// A nil list leaves the stored links untouched.
func (p *PlannerProfile) AfterSave(tx *gorm.DB) error {
	if p.CoupleIDs == nil {
		return nil
	}
	db := tx.Session(&gorm.Session{NewDB: true})
	if err := db.Where("planner_id = ?", p.UserID).Delete(&PlannerCouple{}).Error; err != nil {
		return err
	}
	ids := slices.Clone(p.CoupleIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	p.CoupleIDs = ids
	if len(ids) == 0 {
		return nil
	}
	links := make([]*PlannerCouple, 0, len(ids))
	for _, id := range ids {
		links = append(links, &PlannerCouple{PlannerID: p.UserID, CoupleID: id})
	}
	return db.Create(&links).Error
}

// PlannerCouple links a planner to a couple it manages. It is removed with
// either side through the reference cascade.
type PlannerCouple struct {
	PlannerID uint `json:"cerimonialista" gorm:"primaryKey;autoIncrement:false" field:"ref=planners"`
	CoupleID  uint `json:"casal" gorm:"primaryKey;autoIncrement:false;index" field:"ref=couples"`
}

// VendorProfile stores what is specific to a vendor
type VendorProfile struct {
	UserID       uint            `json:"usuario" gorm:"primaryKey;autoIncrement:false" field:"required,unique,immutable,ref=users,nested=User"`
	User         *User           `json:"-" gorm:"foreignKey:UserID"`
	CompanyName  string          `json:"nome_empresa" gorm:"type:varchar(255)" field:"required" validate:"required,max=255"`
	Category     ServiceCategory `json:"categoria_servico" gorm:"type:varchar(50)" field:"required" validate:"oneof=BUFFET DECORACAO FOTOGRAFIA MUSICA ESPACO CONVITES OUTRO"`
	ContactEmail string          `json:"contato_email" gorm:"type:varchar(254)" field:"required" validate:"required,max=254,email"`
	Phone        string          `json:"telefone" gorm:"type:varchar(20)" field:"required" validate:"required,max=20"`
	Description  *string         `json:"descricao" gorm:"type:text"`
}

// NewVendorProfile returns a vendor profile with only the owner set
func NewVendorProfile(userID uint) *VendorProfile {
	return &VendorProfile{UserID: userID}
}

func (p *VendorProfile) OwnerID() uint   { return p.UserID }
func (p *VendorProfile) OwnerRole() Role { return RoleVendor }

func (p *VendorProfile) String() string {
	return p.CompanyName
}

// profileFactories maps every role to the profile it provisions. A nil
// factory means the role has no profile.
var profileFactories = map[Role]func(userID uint) Profile{
	RoleCouple:  func(id uint) Profile { return NewCoupleProfile(id) },
	RolePlanner: func(id uint) Profile { return NewPlannerProfile(id) },
	RoleVendor:  func(id uint) Profile { return NewVendorProfile(id) },
	RoleAdmin:   nil,
}

// NewProfile builds the default profile for a user of the given role.
// It returns nil for roles without a profile and an error for unknown roles.
func NewProfile(role Role, userID uint) (Profile, error) {
	factory, ok := profileFactories[role]
	if !ok {
		return nil, fmt.Errorf("no profile mapping for role %q", role)
	}
	if factory == nil {
		return nil, nil
	}
	return factory(userID), nil
}
