package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/apiserver/schema"
	"github.com/amoylab/casamento/internal/common/config"
	"github.com/amoylab/casamento/internal/common/errorx"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// plannerCouples is the internal collection of planner to couple links.
// It has no service but takes part in cascades and scoping.
const plannerCouples = "planner_couples"

// ErrInvalidCredentials is returned by Authenticate for an unknown user or
// a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUnknownPrincipal is returned by Principal when the user no longer exists
var ErrUnknownPrincipal = errors.New("user no longer exists")

// Recorder observes domain events
type Recorder interface {
	ProfileProvisioned(role string)
}

type nopRecorder struct{}

func (nopRecorder) ProfileProvisioned(string) {}

// Options configure a Registry
type Options struct {
	// Scope is config.ScopeNone or config.ScopeOwner.
	Scope    string
	Recorder Recorder
}

type node struct {
	schema *schema.Schema
	owner  *ownerColumns
}

// Registry instantiates one Service per collection and holds what they
// share: storage, codec, reference graph and row scoping
type Registry struct {
	db          database.Database
	codec       *schema.Codec
	logger      *zap.Logger
	recorder    Recorder
	ownerScoped bool

	nodes    map[string]*node
	order    []string
	children map[string][]edge

	services []CRUD
	byName   map[string]CRUD
	users    *Service[model.User]
}

// NewRegistry builds the services of every collection
func NewRegistry(db database.Database, codec *schema.Codec, logger *zap.Logger, opts Options) (*Registry, error) {
	r := &Registry{
		db:          db,
		codec:       codec,
		logger:      logger.Named("service"),
		recorder:    opts.Recorder,
		ownerScoped: opts.Scope == config.ScopeOwner,
		nodes:       make(map[string]*node),
		byName:      make(map[string]CRUD),
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}

	users, err := register(r, Config[model.User]{
		Collection: "users",
		New:        model.NewUser,
		Policy:     AnonymousCan(OpCreate),
		Ownership:  &Ownership{Self: "id"},
		Hooks: Hooks[model.User]{
			BeforeSave:  r.beforeSaveUser,
			AfterCreate: r.provisionProfile,
		},
	})
	if err != nil {
		return nil, err
	}
	r.users = users

	steps := []func() error{
		func() error {
			_, err := register(r, Config[model.CoupleProfile]{
				Collection: "couples",
				New:        func() *model.CoupleProfile { return model.NewCoupleProfile(0) },
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "usuario"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.PlannerProfile]{
				Collection: "planners",
				New:        func() *model.PlannerProfile { return model.NewPlannerProfile(0) },
				Policy:     Authenticated(),
				Ownership:  &Ownership{Self: "usuario"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.VendorProfile]{
				Collection: "vendors",
				New:        func() *model.VendorProfile { return model.NewVendorProfile(0) },
				Policy:     Authenticated(),
				Ownership:  &Ownership{Self: "usuario", Directory: true},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.BudgetProposal]{
				Collection: "proposals",
				New:        model.NewBudgetProposal,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal", Vendor: "fornecedor"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Payment]{
				Collection: "payments",
				New:        model.NewPayment,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Parent: "orcamento"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Task]{
				Collection: "tasks",
				New:        model.NewTask,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Document]{
				Collection: "documents",
				New:        model.NewDocument,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Contract]{
				Collection: "contracts",
				New:        model.NewContract,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Parent: "orcamento"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Visit]{
				Collection: "visits",
				New:        model.NewVisit,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal", Vendor: "fornecedor"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.Review]{
				Collection: "reviews",
				New:        model.NewReview,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal", Vendor: "fornecedor"},
			})
			return err
		},
		func() error {
			_, err := register(r, Config[model.TimelineEvent]{
				Collection: "timeline",
				New:        model.NewTimelineEvent,
				Policy:     Authenticated(),
				Ownership:  &Ownership{Couple: "casal"},
			})
			return err
		},
		func() error {
			return r.addNode(plannerCouples, &model.PlannerCouple{}, nil)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	for _, name := range r.order {
		for _, f := range r.nodes[name].schema.Fields {
			if _, ok := r.nodes[f.Ref]; f.Ref != "" && !ok {
				return nil, fmt.Errorf("%s.%s references unknown collection %q", name, f.Name, f.Ref)
			}
		}
	}
	r.linkReferences()
	return r, nil
}

// register declares a collection and instantiates its service
func register[T any](r *Registry, cfg Config[T]) (*Service[T], error) {
	s, err := r.codec.Schema(cfg.New())
	if err != nil {
		return nil, err
	}
	if err := r.addNode(cfg.Collection, cfg.New(), cfg.Ownership); err != nil {
		return nil, err
	}

	svc := &Service[T]{
		reg:        r,
		collection: cfg.Collection,
		newFn:      cfg.New,
		schema:     s,
		policy:     cfg.Policy,
		hooks:      cfg.Hooks,
	}
	r.services = append(r.services, svc)
	r.byName[cfg.Collection] = svc
	return svc, nil
}

func (r *Registry) addNode(collection string, m any, own *Ownership) error {
	if _, ok := r.nodes[collection]; ok {
		return fmt.Errorf("collection %q registered twice", collection)
	}
	s, err := r.codec.Schema(m)
	if err != nil {
		return err
	}
	n := &node{schema: s}
	if own != nil {
		if n.owner, err = own.resolve(s); err != nil {
			return err
		}
	}
	r.nodes[collection] = n
	r.order = append(r.order, collection)
	return nil
}

// Services returns every service in registration order
func (r *Registry) Services() []CRUD {
	return r.services
}

// Service returns the service routed under collection
func (r *Registry) Service(collection string) (CRUD, bool) {
	svc, ok := r.byName[collection]
	return svc, ok
}

// Codec returns the codec the services encode with
func (r *Registry) Codec() *schema.Codec {
	return r.codec
}

// Resources describes every routed collection
func (r *Registry) Resources() []schema.Resource {
	out := make([]schema.Resource, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, schema.Resource{Collection: svc.Collection(), Schema: svc.Schema()})
	}
	return out
}

// Authenticate checks a username and password pair
func (r *Registry) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	err := r.db.DB(ctx).Where("username = ?", username).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// Principal loads the current identity and role of a user. Tokens outlive
// role changes and deletions, so requests resolve the caller here.
func (r *Registry) Principal(ctx context.Context, userID uint) (*Principal, error) {
	var u model.User
	err := r.db.DB(ctx).Select("id", "username", "role").Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownPrincipal
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &Principal{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Me returns the wire record of the user with the given identifier,
// ignoring row scoping
func (r *Registry) Me(ctx context.Context, userID uint) (schema.Record, error) {
	rec, err := r.users.encode(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errorx.NotFoundError{Collection: "users", ID: fmt.Sprint(userID)}
	}
	return rec, err
}

func (r *Registry) beforeSaveUser(ctx context.Context, u *model.User, written []*schema.Field) error {
	for _, f := range written {
		switch f.Name {
		case "password":
			hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			u.Password = string(hashed)
		case "tipo_usuario":
			p := PrincipalFrom(ctx)
			if u.Role == model.RoleAdmin && !p.IsAdmin() {
				return &errorx.AuthorizationError{Authenticated: p != nil}
			}
		}
	}
	return nil
}

// provisionProfile creates the profile matching a new user's role in the
// transaction that created the user
func (r *Registry) provisionProfile(ctx context.Context, u *model.User) error {
	profile, err := model.NewProfile(u.Role, u.ID)
	if err != nil {
		return &errorx.TransactionError{Op: "create user", Err: err}
	}
	if profile == nil {
		return nil
	}
	if err := r.db.DB(ctx).Omit(clause.Associations).Create(profile).Error; err != nil {
		return &errorx.TransactionError{
			Op:  "create user",
			Err: fmt.Errorf("failed to provision %s profile: %w", u.Role, err),
		}
	}

	r.recorder.ProfileProvisioned(string(u.Role))
	r.logger.Info("profile provisioned",
		zap.Uint("user_id", u.ID),
		zap.String("role", string(u.Role)))
	return nil
}
