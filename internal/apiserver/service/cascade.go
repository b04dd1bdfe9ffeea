package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/apiserver/schema"
	"github.com/amoylab/casamento/internal/common/errorx"

	"gorm.io/gorm"
)

// edge is a reference from child rows of one collection to a parent
type edge struct {
	child  string
	column string
}

// linkReferences records, for every stored reference, which collection
// the deletion of the target cascades to
func (r *Registry) linkReferences() {
	r.children = make(map[string][]edge)
	for _, name := range r.order {
		for _, f := range r.nodes[name].schema.References() {
			if !f.Stored() {
				continue
			}
			r.children[f.Ref] = append(r.children[f.Ref], edge{child: name, column: f.Column})
		}
	}
}

// cascadeDelete removes rec of collection and, depth first, every row that
// references it. It must run inside a transaction.
func (r *Registry) cascadeDelete(ctx context.Context, collection string, rec any) error {
	db := r.db.DB(ctx)
	n := r.nodes[collection]
	key := n.schema.PrimaryValue(rec)

	for _, e := range r.children[collection] {
		child := r.nodes[e.child]
		where := map[string]any{e.column: key}

		if len(r.children[e.child]) == 0 {
			if err := db.Where(where).Delete(child.schema.New()).Error; err != nil {
				return fmt.Errorf("failed to delete %s of %s %v: %w", e.child, collection, key, err)
			}
			continue
		}

		rows := child.schema.NewSlice()
		if err := db.Where(where).Find(rows).Error; err != nil {
			return fmt.Errorf("failed to load %s of %s %v: %w", e.child, collection, key, err)
		}
		list := reflect.ValueOf(rows).Elem()
		for i := 0; i < list.Len(); i++ {
			if err := r.cascadeDelete(ctx, e.child, list.Index(i).Interface()); err != nil {
				return err
			}
		}
	}

	if err := db.Delete(rec).Error; err != nil {
		return fmt.Errorf("failed to delete %s %v: %w", collection, key, err)
	}
	return nil
}

// checkReference fails with a ReferenceError when value, the content of
// reference field f of rec, names a missing record or a user of the wrong
// role for a profile
func (r *Registry) checkReference(ctx context.Context, rec any, f *schema.Field, value reflect.Value) error {
	target, ok := r.nodes[f.Ref]
	if !ok {
		return fmt.Errorf("reference %s points at unknown collection %q", f.Name, f.Ref)
	}

	var ids []any
	if f.Many {
		for i := 0; i < value.Len(); i++ {
			ids = append(ids, value.Index(i).Interface())
		}
	} else {
		ids = append(ids, value.Interface())
	}

	for _, id := range ids {
		found := target.schema.New()
		err := r.db.DB(ctx).Where(map[string]any{target.schema.PrimaryKey.Column: id}).Take(found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &errorx.ReferenceError{Field: f.Name, Collection: f.Ref, ID: id, Code: errorx.CodeRefNotFound}
		}
		if err != nil {
			return fmt.Errorf("failed to check %s reference: %w", f.Name, err)
		}

		profile, isProfile := rec.(model.Profile)
		user, isUser := found.(*model.User)
		if isProfile && isUser && user.Role != profile.OwnerRole() {
			return &errorx.ReferenceError{Field: f.Name, Collection: f.Ref, ID: id, Code: errorx.CodeRefRoleMismatch}
		}
	}
	return nil
}
