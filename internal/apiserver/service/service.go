package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/schema"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/common/errorx"
	"github.com/amoylab/casamento/pkg/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CRUD is the uniform contract every collection exposes
type CRUD interface {
	// Collection is the name the service is routed under.
	Collection() string
	Schema() *schema.Schema
	Policy() Policy
	List(ctx context.Context, opts ListOptions) ([]schema.Record, error)
	Create(ctx context.Context, body []byte) (schema.Record, error)
	Retrieve(ctx context.Context, id string) (schema.Record, error)
	Update(ctx context.Context, id string, body []byte, partial bool) (schema.Record, error)
	Delete(ctx context.Context, id string) error
}

// ListOptions tunes List
type ListOptions struct {
	// Ordering is a comma separated list of wire field names, each optionally
	// prefixed with "-" for descending order.
	Ordering string
}

// Hooks customize the writes of one collection. They run inside the
// operation's transaction; an error rolls the whole operation back.
type Hooks[T any] struct {
	// BeforeSave runs on create and update after validation, with the
	// fields the request wrote.
	BeforeSave func(ctx context.Context, rec *T, written []*schema.Field) error
	// AfterCreate runs once the record is inserted.
	AfterCreate func(ctx context.Context, rec *T) error
}

// Config declares one collection
type Config[T any] struct {
	Collection string
	New        func() *T
	Policy     Policy
	Ownership  *Ownership
	Hooks      Hooks[T]
}

// Service implements CRUD for the model type T
type Service[T any] struct {
	reg        *Registry
	collection string
	newFn      func() *T
	schema     *schema.Schema
	policy     Policy
	hooks      Hooks[T]
}

func (s *Service[T]) Collection() string {
	return s.collection
}

func (s *Service[T]) Schema() *schema.Schema {
	return s.schema
}

func (s *Service[T]) Policy() Policy {
	return s.policy
}

func (s *Service[T]) List(ctx context.Context, opts ListOptions) (_ []schema.Record, err error) {
	ctx, end := s.start(ctx, OpList, "")
	defer func() { end(err) }()

	if err := s.policy.Authorize(ctx, OpList); err != nil {
		return nil, err
	}
	order, err := s.ordering(opts.Ordering)
	if err != nil {
		return nil, err
	}

	list := make([]*T, 0)
	q := s.reg.scope(s.query(ctx), s.collection, PrincipalFrom(ctx), false)
	for _, o := range order {
		q = q.Order(o)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.collection, err)
	}
	return s.reg.codec.EncodeList(s.schema, &list), nil
}

func (s *Service[T]) Create(ctx context.Context, body []byte) (_ schema.Record, err error) {
	ctx, end := s.start(ctx, OpCreate, "")
	defer func() { end(err) }()

	if err := s.policy.Authorize(ctx, OpCreate); err != nil {
		return nil, err
	}

	rec := s.newFn()
	written, err := s.reg.codec.Decode(s.schema, body, rec, schema.ModeCreate)
	if err != nil {
		return nil, err
	}
	if err := s.reg.codec.Validate(s.schema, rec, written); err != nil {
		return nil, err
	}

	var out schema.Record
	err = s.reg.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.checkWrite(ctx, rec, written, nil); err != nil {
			return err
		}
		if s.hooks.BeforeSave != nil {
			if err := s.hooks.BeforeSave(ctx, rec, written); err != nil {
				return err
			}
		}
		if err := s.reg.db.DB(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
			return s.storageError("create", err)
		}
		if s.hooks.AfterCreate != nil {
			if err := s.hooks.AfterCreate(ctx, rec); err != nil {
				return err
			}
		}
		id := s.schema.PrimaryValue(rec)
		if err := s.checkVisible(ctx, id); err != nil {
			return err
		}
		out, err = s.encode(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.reg.logger.Debug("record created",
		zap.String("collection", s.collection),
		zap.Any("id", out[s.schema.PrimaryKey.Name]))
	return out, nil
}

func (s *Service[T]) Retrieve(ctx context.Context, id string) (_ schema.Record, err error) {
	ctx, end := s.start(ctx, OpRetrieve, id)
	defer func() { end(err) }()

	if err := s.policy.Authorize(ctx, OpRetrieve); err != nil {
		return nil, err
	}
	key, err := s.parseID(id)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.reg.codec.Encode(s.schema, rec), nil
}

func (s *Service[T]) Update(ctx context.Context, id string, body []byte, partial bool) (_ schema.Record, err error) {
	ctx, end := s.start(ctx, OpUpdate, id)
	defer func() { end(err) }()

	if err := s.policy.Authorize(ctx, OpUpdate); err != nil {
		return nil, err
	}
	key, err := s.parseID(id)
	if err != nil {
		return nil, err
	}
	mode := schema.ModeReplace
	if partial {
		mode = schema.ModePartial
	}

	var out schema.Record
	err = s.reg.db.Transaction(ctx, func(ctx context.Context) error {
		rec, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		if err := s.checkVisible(ctx, key); err != nil {
			return err
		}
		before := s.snapshot(rec)

		written, err := s.reg.codec.Decode(s.schema, body, rec, mode)
		if err != nil {
			return err
		}
		if err := s.reg.codec.Validate(s.schema, rec, written); err != nil {
			return err
		}
		if err := s.checkWrite(ctx, rec, written, before); err != nil {
			return err
		}
		if s.hooks.BeforeSave != nil {
			if err := s.hooks.BeforeSave(ctx, rec, written); err != nil {
				return err
			}
		}
		if err := s.reg.db.DB(ctx).Omit(clause.Associations).Save(rec).Error; err != nil {
			return s.storageError("update", err)
		}
		if err := s.checkVisible(ctx, key); err != nil {
			return err
		}
		out, err = s.encode(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service[T]) Delete(ctx context.Context, id string) (err error) {
	ctx, end := s.start(ctx, OpDelete, id)
	defer func() { end(err) }()

	if err := s.policy.Authorize(ctx, OpDelete); err != nil {
		return err
	}
	key, err := s.parseID(id)
	if err != nil {
		return err
	}

	err = s.reg.db.Transaction(ctx, func(ctx context.Context) error {
		rec, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		if err := s.checkVisible(ctx, key); err != nil {
			return err
		}
		return s.reg.cascadeDelete(ctx, s.collection, rec)
	})
	if err != nil {
		return err
	}

	s.reg.logger.Debug("record deleted",
		zap.String("collection", s.collection),
		zap.Uint64("id", key))
	return nil
}

// start opens the span of an operation. The returned func ends it.
func (s *Service[T]) start(ctx context.Context, op Operation, id string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{
		attribute.String("collection", s.collection),
		attribute.String("operation", string(op)),
	}
	if id != "" {
		attrs = append(attrs, attribute.String("record.id", id))
	}
	return trace.Start(ctx, cnst.TraceService, s.collection+"."+string(op), attrs...)
}

// query returns a handle on the collection with the associations needed
// for encoding preloaded
func (s *Service[T]) query(ctx context.Context) *gorm.DB {
	q := s.reg.db.DB(ctx).Model(s.newFn())
	for _, assoc := range s.schema.Preloads() {
		q = q.Preload(assoc)
	}
	return q
}

func (s *Service[T]) parseID(id string) (uint64, error) {
	key, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || key == 0 {
		return 0, &errorx.NotFoundError{Collection: s.collection, ID: id}
	}
	return key, nil
}

// load reads one record visible to the caller
func (s *Service[T]) load(ctx context.Context, key any) (*T, error) {
	rec := s.newFn()
	q := s.reg.scope(s.query(ctx), s.collection, PrincipalFrom(ctx), false)
	err := q.Where(map[string]any{s.schema.PrimaryKey.Column: key}).Take(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errorx.NotFoundError{Collection: s.collection, ID: fmt.Sprint(key)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %v: %w", s.collection, key, err)
	}
	return rec, nil
}

func (s *Service[T]) encode(ctx context.Context, key any) (schema.Record, error) {
	rec := s.newFn()
	err := s.query(ctx).Where(map[string]any{s.schema.PrimaryKey.Column: key}).Take(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload %s %v: %w", s.collection, key, err)
	}
	return s.reg.codec.Encode(s.schema, rec), nil
}

// checkVisible fails with Forbidden when the caller may not write the row
func (s *Service[T]) checkVisible(ctx context.Context, key any) error {
	p := PrincipalFrom(ctx)
	if p == nil {
		return nil
	}
	var count int64
	q := s.reg.scope(s.reg.db.DB(ctx).Model(s.newFn()), s.collection, p, true)
	if err := q.Where(map[string]any{s.schema.PrimaryKey.Column: key}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s ownership: %w", s.collection, err)
	}
	if count == 0 {
		return &errorx.AuthorizationError{Authenticated: true}
	}
	return nil
}

// snapshot copies the immutable fields of rec
func (s *Service[T]) snapshot(rec *T) map[string]any {
	v := reflect.ValueOf(rec).Elem()
	out := make(map[string]any)
	for _, f := range s.schema.Fields {
		if f.Immutable {
			out[f.Name] = v.FieldByIndex(f.Index).Interface()
		}
	}
	return out
}

// checkWrite enforces immutability, references and uniqueness of the
// written fields. before is nil on create.
func (s *Service[T]) checkWrite(ctx context.Context, rec *T, written []*schema.Field, before map[string]any) error {
	v := reflect.ValueOf(rec).Elem()
	verr := &errorx.ValidationError{}

	for _, f := range written {
		value := v.FieldByIndex(f.Index).Interface()
		if before != nil && f.Immutable && !reflect.DeepEqual(before[f.Name], value) {
			verr.Add(f.Name, errorx.CodeImmutable, nil)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	for _, f := range written {
		if f.Ref == "" {
			continue
		}
		if err := s.reg.checkReference(ctx, rec, f, v.FieldByIndex(f.Index)); err != nil {
			return err
		}
	}

	var self any
	if before != nil {
		self = s.schema.PrimaryValue(rec)
	}
	for _, f := range written {
		if !f.Unique || !f.Stored() {
			continue
		}
		var count int64
		q := s.reg.db.DB(ctx).Model(s.newFn()).Where(map[string]any{f.Column: v.FieldByIndex(f.Index).Interface()})
		if self != nil {
			q = q.Not(map[string]any{s.schema.PrimaryKey.Column: self})
		}
		if err := q.Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s uniqueness: %w", f.Name, err)
		}
		if count > 0 {
			verr.Add(f.Name, errorx.CodeUnique, nil)
		}
	}
	return verr.OrNil()
}

// ordering turns an ordering parameter into ORDER BY terms; the primary key
// breaks ties
func (s *Service[T]) ordering(param string) ([]string, error) {
	pk := s.schema.PrimaryKey.Column
	var out []string
	for _, term := range strings.Split(param, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		dir := " ASC"
		if name, ok := strings.CutPrefix(term, "-"); ok {
			term, dir = name, " DESC"
		}
		col, err := s.schema.Column(term)
		if err != nil {
			return nil, errorx.NewValidationError("ordering", errorx.CodeOrdering, map[string]any{"Field": term})
		}
		out = append(out, col+dir)
	}
	return append(out, pk+" ASC"), nil
}

// storageError maps store failures of a write
func (s *Service[T]) storageError(op string, err error) error {
	if database.IsDuplicateKey(err) {
		return errorx.NewValidationError(errorx.NonFieldErrors, errorx.CodeUnique, nil)
	}
	return fmt.Errorf("failed to %s %s: %w", op, s.collection, err)
}
