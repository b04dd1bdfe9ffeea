package service

import (
	"fmt"
	"strings"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/apiserver/schema"

	"gorm.io/gorm"
)

// Ownership ties the rows of a collection to the callers that may see them
// when owner scoping is on. Fields are wire names.
type Ownership struct {
	// Self holds the identifier of the user the row belongs to.
	Self string
	// Couple holds a couple identifier: the couple and its planners see the row.
	Couple string
	// Vendor holds a vendor identifier: that vendor sees the row.
	Vendor string
	// Parent is a reference whose target's ownership applies to the row.
	Parent string
	// Directory rows are readable by every caller; writes still need ownership.
	Directory bool
}

type ownerColumns struct {
	self, couple, vendor string
	parentColumn         string
	parent               string
	directory            bool
}

func (o *Ownership) resolve(s *schema.Schema) (*ownerColumns, error) {
	cols := &ownerColumns{directory: o.Directory}
	var err error
	if o.Self != "" {
		if cols.self, err = s.Column(o.Self); err != nil {
			return nil, err
		}
	}
	if o.Couple != "" {
		if cols.couple, err = s.Column(o.Couple); err != nil {
			return nil, err
		}
	}
	if o.Vendor != "" {
		if cols.vendor, err = s.Column(o.Vendor); err != nil {
			return nil, err
		}
	}
	if o.Parent != "" {
		f, ok := s.Field(o.Parent)
		if !ok || f.Ref == "" || !f.Stored() {
			return nil, fmt.Errorf("%s has no stored reference %q", s.Name, o.Parent)
		}
		cols.parentColumn = f.Column
		cols.parent = f.Ref
	}
	return cols, nil
}

// scope restricts q to the rows of collection p may read, or write when
// write is set. It leaves q untouched when owner scoping is off, for
// internal calls without a caller and for administrators.
func (r *Registry) scope(q *gorm.DB, collection string, p *Principal, write bool) *gorm.DB {
	if !r.ownerScoped || p == nil || p.IsAdmin() {
		return q
	}
	n, ok := r.nodes[collection]
	if !ok || n.owner == nil {
		return q
	}
	if n.owner.directory && !write {
		return q
	}

	var conds []string
	var args []any
	own := n.owner
	if own.self != "" {
		conds = append(conds, own.self+" = ?")
		args = append(args, p.UserID)
	}
	if own.couple != "" {
		switch p.Role {
		case model.RoleCouple:
			conds = append(conds, own.couple+" = ?")
			args = append(args, p.UserID)
		case model.RolePlanner:
			links := r.nodes[plannerCouples].schema
			managed := q.Session(&gorm.Session{NewDB: true}).
				Table(links.Table).
				Select(r.mustColumn(links, "casal")).
				Where(r.mustColumn(links, "cerimonialista")+" = ?", p.UserID)
			conds = append(conds, own.couple+" IN (?)")
			args = append(args, managed)
		}
	}
	if own.vendor != "" && p.Role == model.RoleVendor {
		conds = append(conds, own.vendor+" = ?")
		args = append(args, p.UserID)
	}
	if own.parent != "" {
		parent := r.nodes[own.parent].schema
		sub := q.Session(&gorm.Session{NewDB: true}).
			Table(parent.Table).
			Select(parent.PrimaryKey.Column)
		sub = r.scope(sub, own.parent, p, write)
		conds = append(conds, own.parentColumn+" IN (?)")
		args = append(args, sub)
	}

	if len(conds) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func (r *Registry) mustColumn(s *schema.Schema, name string) string {
	col, err := s.Column(name)
	if err != nil {
		panic(err)
	}
	return col
}
