package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/apiserver/schema"
	"github.com/amoylab/casamento/internal/common/config"
	"github.com/amoylab/casamento/internal/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type countingRecorder struct {
	provisioned map[string]int
}

func (c *countingRecorder) ProfileProvisioned(role string) {
	c.provisioned[role]++
}

type fixture struct {
	t        *testing.T
	db       database.Database
	reg      *Registry
	recorder *countingRecorder
}

func newFixture(t *testing.T, scope string) *fixture {
	t.Helper()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := &countingRecorder{provisioned: map[string]int{}}
	reg, err := NewRegistry(db, schema.NewCodec("/media/"), zap.NewNop(), Options{Scope: scope, Recorder: rec})
	require.NoError(t, err)
	return &fixture{t: t, db: db, reg: reg, recorder: rec}
}

func as(id uint, role model.Role) context.Context {
	return WithPrincipal(context.Background(), &Principal{UserID: id, Username: fmt.Sprint("u", id), Role: role})
}

var admin = as(1000, model.RoleAdmin)

func (f *fixture) svc(collection string) CRUD {
	f.t.Helper()
	svc, ok := f.reg.Service(collection)
	require.True(f.t, ok, collection)
	return svc
}

func (f *fixture) create(ctx context.Context, collection, body string) schema.Record {
	f.t.Helper()
	rec, err := f.svc(collection).Create(ctx, []byte(body))
	require.NoError(f.t, err, body)
	return rec
}

func (f *fixture) user(username string, role model.Role) uint {
	f.t.Helper()
	ctx := context.Background()
	if role == model.RoleAdmin {
		ctx = admin
	}
	rec := f.create(ctx, "users",
		fmt.Sprintf(`{"username":%q,"password":"s3cret!","tipo_usuario":%q}`, username, role))
	return rec["id"].(uint)
}

func (f *fixture) count(m any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.DB(context.Background()).Model(m).Count(&n).Error)
	return n
}

func id(rec schema.Record) string {
	return fmt.Sprint(rec["id"])
}

func TestCreateUser_ProvisionsMatchingProfile(t *testing.T) {
	f := newFixture(t, config.ScopeNone)

	couple := f.user("ana", model.RoleCouple)
	planner := f.user("bia", model.RolePlanner)
	vendor := f.user("caio", model.RoleVendor)
	f.user("root", model.RoleAdmin)

	assert.Equal(t, int64(1), f.count(&model.CoupleProfile{}))
	assert.Equal(t, int64(1), f.count(&model.PlannerProfile{}))
	assert.Equal(t, int64(1), f.count(&model.VendorProfile{}))

	ctx := context.Background()
	var cp model.CoupleProfile
	require.NoError(t, f.db.DB(ctx).First(&cp, couple).Error)
	assert.Equal(t, "", cp.Partner1Name)
	assert.Nil(t, cp.WeddingDate)
	assert.True(t, cp.TotalBudget.IsZero())

	var pp model.PlannerProfile
	require.NoError(t, f.db.DB(ctx).First(&pp, planner).Error)
	assert.Empty(t, pp.CoupleIDs)

	var vp model.VendorProfile
	require.NoError(t, f.db.DB(ctx).First(&vp, vendor).Error)
	assert.Nil(t, vp.Description)

	assert.Equal(t, map[string]int{"CASAL": 1, "CERIMONIALISTA": 1, "FORNECEDOR": 1}, f.recorder.provisioned)
}

func TestCreateUser_DefaultRoleIsCouple(t *testing.T) {
	f := newFixture(t, config.ScopeNone)

	rec := f.create(context.Background(), "users", `{"username":"dora","password":"pw"}`)
	assert.Equal(t, model.RoleCouple, rec["tipo_usuario"])
	assert.Equal(t, int64(1), f.count(&model.CoupleProfile{}))
}

func TestCoupleScenario(t *testing.T) {
	f := newFixture(t, config.ScopeNone)

	user := f.create(context.Background(), "users", `{"username":"ana","password":"s3cret!","tipo_usuario":"CASAL"}`)
	assert.NotContains(t, user, "password")
	assert.Equal(t, model.RoleCouple, user["tipo_usuario"])

	couples := f.svc("couples")
	profile, err := couples.Retrieve(admin, id(user))
	require.NoError(t, err)
	assert.Equal(t, "0.00", profile["orcamento_total"])
	assert.Equal(t, "ana", profile["username"])
	assert.NotContains(t, profile, "usuario")

	updated, err := couples.Update(admin, id(user), []byte(`{"orcamento_total":"15000.00"}`), true)
	require.NoError(t, err)
	assert.Equal(t, "15000.00", updated["orcamento_total"])

	profile, err = couples.Retrieve(admin, id(user))
	require.NoError(t, err)
	assert.Equal(t, "15000.00", profile["orcamento_total"])
}

func TestCreateUser_DuplicateUsernameCreatesNothing(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	f.user("ana", model.RoleCouple)

	_, err := f.svc("users").Create(context.Background(), []byte(`{"username":"ana","password":"other","tipo_usuario":"FORNECEDOR"}`))
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("username", errorx.CodeUnique))

	assert.Equal(t, int64(1), f.count(&model.User{}))
	assert.Equal(t, int64(1), f.count(&model.CoupleProfile{}))
	assert.Zero(t, f.count(&model.VendorProfile{}))
}

func TestCreateUser_ProvisioningFailureRollsBack(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	require.NoError(t, f.db.DB(context.Background()).Migrator().DropTable(&model.VendorProfile{}))

	_, err := f.svc("users").Create(context.Background(), []byte(`{"username":"caio","password":"pw","tipo_usuario":"FORNECEDOR"}`))
	var terr *errorx.TransactionError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, f.count(&model.User{}))

	// Other roles are unaffected
	f.user("ana", model.RoleCouple)
	assert.Equal(t, int64(1), f.count(&model.User{}))
}

func TestCreateUser_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t, config.ScopeNone)

	long := strings.Repeat("a", 100)
	_, err := f.svc("users").Create(context.Background(), []byte(fmt.Sprintf(`{"username":"bia","password":%q}`, long)))
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("password", errorx.CodeMaxBytes))
	assert.Zero(t, f.count(&model.User{}))

	// 36 runes but 72 bytes is accepted, 37 two-byte runes is not
	_, err = f.svc("users").Create(context.Background(), []byte(fmt.Sprintf(`{"username":"bia","password":%q}`, strings.Repeat("ç", 37))))
	require.ErrorAs(t, err, &verr)
	f.create(context.Background(), "users", fmt.Sprintf(`{"username":"bia","password":%q}`, strings.Repeat("ç", 36)))

	uid := f.user("ana", model.RoleCouple)
	_, err = f.svc("users").Update(admin, fmt.Sprint(uid), []byte(fmt.Sprintf(`{"password":%q}`, long)), true)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("password", errorx.CodeMaxBytes))
}

func TestCreateUser_UnicodeUsername(t *testing.T) {
	f := newFixture(t, config.ScopeNone)

	rec := f.create(context.Background(), "users", `{"username":"joão","password":"pw"}`)
	assert.Equal(t, "joão", rec["username"])

	got, err := f.reg.Authenticate(context.Background(), "joão", "pw")
	require.NoError(t, err)
	assert.Equal(t, rec["id"], got.ID)
}

func TestCreateUser_AdminRequiresAdmin(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	ana := f.user("ana", model.RoleCouple)
	var aerr *errorx.AuthorizationError

	_, err := f.svc("users").Create(context.Background(), []byte(`{"username":"eve","password":"pw","tipo_usuario":"ADMIN"}`))
	require.ErrorAs(t, err, &aerr)
	assert.False(t, aerr.Authenticated)

	_, err = f.svc("users").Create(as(ana, model.RoleCouple), []byte(`{"username":"eve","password":"pw","tipo_usuario":"ADMIN"}`))
	require.ErrorAs(t, err, &aerr)
	assert.True(t, aerr.Authenticated)

	_, err = f.svc("users").Update(as(ana, model.RoleCouple), fmt.Sprint(ana), []byte(`{"tipo_usuario":"ADMIN"}`), true)
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, int64(1), f.count(&model.User{}))

	rec := f.create(admin, "users", `{"username":"root","password":"pw","tipo_usuario":"ADMIN"}`)
	assert.Equal(t, model.RoleAdmin, rec["tipo_usuario"])
}

func TestPrincipal_ReadsCurrentRole(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	uid := f.user("ana", model.RoleCouple)

	p, err := f.reg.Principal(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCouple, p.Role)
	assert.Equal(t, "ana", p.Username)

	_, err = f.svc("users").Update(admin, fmt.Sprint(uid), []byte(`{"tipo_usuario":"FORNECEDOR"}`), true)
	require.NoError(t, err)
	p, err = f.reg.Principal(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, model.RoleVendor, p.Role)

	require.NoError(t, f.svc("users").Delete(admin, fmt.Sprint(uid)))
	_, err = f.reg.Principal(context.Background(), uid)
	assert.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestDateTimeInput_Normalized(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)

	cases := map[string]string{
		"2026-06-13T10:00:00":       "2026-06-13T10:00:00Z",
		"2026-06-13T10:00":          "2026-06-13T10:00:00Z",
		"2026-06-13T10:00:00Z":      "2026-06-13T10:00:00Z",
		"2026-06-13T10:00:00-03:00": "2026-06-13T13:00:00Z",
		"2026-06-13 10:00:00":       "2026-06-13T10:00:00Z",
	}
	for in, want := range cases {
		rec := f.create(admin, "visits", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"data_hora":%q,"local":"Sitio"}`, couple, vendor, in))
		assert.Equal(t, want, rec["data_hora"], in)

		got, err := f.svc("visits").Retrieve(admin, id(rec))
		require.NoError(t, err)
		assert.Equal(t, rec, got, in)

		ev := f.create(admin, "timeline", fmt.Sprintf(`{"casal":%d,"evento":"Cerimonia","data_evento":%q}`, couple, in))
		assert.Equal(t, want, ev["data_evento"], in)
	}

	_, err := f.svc("visits").Create(admin, []byte(fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"data_hora":"13/06/2026","local":"x"}`, couple, vendor)))
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("data_hora", errorx.CodeInvalid))
}

func TestUpdateUser_DoesNotProvisionAgain(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	uid := f.user("ana", model.RoleCouple)

	_, err := f.svc("users").Update(admin, fmt.Sprint(uid), []byte(`{"tipo_usuario":"FORNECEDOR"}`), true)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.count(&model.CoupleProfile{}))
	assert.Zero(t, f.count(&model.VendorProfile{}))
	assert.Equal(t, 1, f.recorder.provisioned["CASAL"])
}

func TestUser_PasswordHashedAndNeverEmitted(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	uid := f.user("ana", model.RoleCouple)
	users := f.svc("users")

	list, err := users.List(admin, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "password")

	rec, err := users.Retrieve(admin, fmt.Sprint(uid))
	require.NoError(t, err)
	assert.NotContains(t, rec, "password")

	rec, err = users.Update(admin, fmt.Sprint(uid), []byte(`{"password":"n3w-pass"}`), true)
	require.NoError(t, err)
	assert.NotContains(t, rec, "password")

	var u model.User
	require.NoError(t, f.db.DB(context.Background()).First(&u, uid).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("n3w-pass")))

	got, err := f.reg.Authenticate(context.Background(), "ana", "n3w-pass")
	require.NoError(t, err)
	assert.Equal(t, uid, got.ID)

	_, err = f.reg.Authenticate(context.Background(), "ana", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.reg.Authenticate(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := f.reg.Me(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "ana", me["username"])
	_, err = f.reg.Me(context.Background(), 999)
	var nf *errorx.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPolicy_Gate(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	anon := context.Background()
	uid := f.user("ana", model.RoleCouple)

	var aerr *errorx.AuthorizationError
	_, err := f.svc("tasks").List(anon, ListOptions{})
	require.ErrorAs(t, err, &aerr)
	assert.False(t, aerr.Authenticated)

	_, err = f.svc("users").Retrieve(anon, fmt.Sprint(uid))
	assert.ErrorAs(t, err, &aerr)
	_, err = f.svc("users").List(anon, ListOptions{})
	assert.ErrorAs(t, err, &aerr)
	assert.ErrorAs(t, f.svc("users").Delete(anon, fmt.Sprint(uid)), &aerr)
	_, err = f.svc("tasks").Create(anon, []byte(`{}`))
	assert.ErrorAs(t, err, &aerr)

	for _, svc := range f.reg.Services() {
		assert.Equal(t, svc.Collection() == "users", svc.Policy().AllowsAnonymous(OpCreate), svc.Collection())
		for _, op := range []Operation{OpList, OpRetrieve, OpUpdate, OpDelete} {
			assert.False(t, svc.Policy().AllowsAnonymous(op))
		}
	}
}

func TestGlobalVisibility(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	ana := f.user("ana", model.RoleCouple)
	bob := f.user("bob", model.RoleCouple)

	f.create(as(ana, model.RoleCouple), "tasks", fmt.Sprintf(`{"casal":%d,"titulo":"Buffet","data_limite":"2025-01-10"}`, ana))
	f.create(as(bob, model.RoleCouple), "tasks", fmt.Sprintf(`{"casal":%d,"titulo":"Flores","data_limite":"2025-02-10"}`, bob))

	list, err := f.svc("tasks").List(as(ana, model.RoleCouple), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReview_RatingBounds(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)
	reviews := f.svc("reviews")

	for _, nota := range []int{0, 6} {
		_, err := reviews.Create(admin, []byte(fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"nota":%d,"comentario":"x"}`, couple, vendor, nota)))
		var verr *errorx.ValidationError
		require.ErrorAs(t, err, &verr, "nota %d", nota)
		assert.Equal(t, []string{"nota"}, verr.Fields())
	}
	for _, nota := range []int{1, 5} {
		rec := f.create(admin, "reviews", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"nota":%d,"comentario":"x"}`, couple, vendor, nota))
		assert.Equal(t, nota, rec["nota"])
	}
	assert.Equal(t, int64(2), f.count(&model.Review{}))
}

func TestRetrieveReturnsCreated(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)

	inputs := map[string]string{
		"tasks":     fmt.Sprintf(`{"casal":%d,"titulo":"Buffet","descricao":"degustar","data_limite":"2025-01-10","concluida":true,"prioridade":3}`, couple),
		"documents": fmt.Sprintf(`{"casal":%d,"titulo":"RSVP","arquivo":"docs/rsvp.pdf"}`, couple),
		"visits":    fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"data_hora":"2025-03-01T15:00:00Z","local":"Sitio","anotacoes":null}`, couple, vendor),
		"timeline":  fmt.Sprintf(`{"casal":%d,"evento":"Cerimonia","data_evento":"2025-06-14T16:00:00Z"}`, couple),
		"proposals": fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"descricao":"Buffet completo","valor":"12500.50"}`, couple, vendor),
	}
	for collection, body := range inputs {
		created := f.create(admin, collection, body)
		got, err := f.svc(collection).Retrieve(admin, id(created))
		require.NoError(t, err, collection)
		assert.Equal(t, created, got, collection)
	}

	task, err := f.svc("tasks").List(admin, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", task[0]["data_limite"])
	assert.Equal(t, model.PriorityHigh, task[0]["prioridade"])

	docs, err := f.svc("documents").List(admin, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/media/docs/rsvp.pdf", docs[0]["arquivo"])

	proposals, err := f.svc("proposals").List(admin, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "12500.50", proposals[0]["valor"])
	assert.Equal(t, model.ProposalPending, proposals[0]["status"])
}

func TestDefaults(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)

	task := f.create(admin, "tasks", fmt.Sprintf(`{"casal":%d,"titulo":"Buffet","data_limite":"2025-01-10"}`, couple))
	assert.Equal(t, model.PriorityMedium, task["prioridade"])
	assert.Equal(t, false, task["concluida"])
	assert.Nil(t, task["descricao"])
}

func TestReferences(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)
	root := f.user("root", model.RoleAdmin)

	var rerr *errorx.ReferenceError
	_, err := f.svc("proposals").Create(admin, []byte(fmt.Sprintf(`{"casal":999,"fornecedor":%d,"descricao":"x","valor":"1"}`, vendor)))
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "casal", rerr.Field)
	assert.Equal(t, errorx.CodeRefNotFound, rerr.Code)

	// a vendor is not a couple
	_, err = f.svc("tasks").Create(admin, []byte(fmt.Sprintf(`{"casal":%d,"titulo":"x","data_limite":"2025-01-10"}`, vendor)))
	require.ErrorAs(t, err, &rerr)

	// profile owner of the wrong role
	_, err = f.svc("couples").Create(admin, []byte(fmt.Sprintf(`{"usuario":%d,"nome_noivo":"a","nome_noiva":"b","data_casamento":"2025-06-14"}`, root)))
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, errorx.CodeRefRoleMismatch, rerr.Code)

	// the couple already has its profile
	_, err = f.svc("couples").Create(admin, []byte(fmt.Sprintf(`{"usuario":%d,"nome_noivo":"a","nome_noiva":"b","data_casamento":"2025-06-14"}`, couple)))
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("usuario", errorx.CodeUnique))

	_, err = f.svc("planners").Update(admin, fmt.Sprint(f.user("bia", model.RolePlanner)), []byte(`{"casais":[999]}`), true)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "casais", rerr.Field)
}

func TestValidationAtServiceBoundary(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	var verr *errorx.ValidationError

	_, err := f.svc("tasks").Create(admin, []byte(fmt.Sprintf(`{"casal":%d,"titulo":"x","data_limite":"2025-01-10","dono":"ana"}`, couple)))
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("dono", errorx.CodeUnknownField))

	_, err = f.svc("tasks").Create(admin, []byte(fmt.Sprintf(`{"casal":%d}`, couple)))
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("titulo", errorx.CodeRequired))
	assert.True(t, verr.Has("data_limite", errorx.CodeRequired))

	_, err = f.svc("vendors").Update(admin, fmt.Sprint(f.user("caio", model.RoleVendor)), []byte(`{"usuario":{"username":"x"}}`), true)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("usuario", errorx.CodeNestedWrite))

	// a full update of a provisioned profile needs every required field
	_, err = f.svc("couples").Update(admin, fmt.Sprint(couple), []byte(`{"orcamento_total":"10.00"}`), false)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("nome_noivo", errorx.CodeRequired))

	rec, err := f.svc("couples").Update(admin, fmt.Sprint(couple),
		[]byte(fmt.Sprintf(`{"usuario":%d,"nome_noivo":"Joao","nome_noiva":"Ana","data_casamento":"2025-06-14","orcamento_total":"10.00"}`, couple)), false)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-14", rec["data_casamento"])

	_, err = f.svc("couples").Update(admin, fmt.Sprint(couple), []byte(`{"usuario":12345}`), true)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("usuario", errorx.CodeImmutable))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	var nf *errorx.NotFoundError

	for _, key := range []string{"999", "abc", "0", "-1", ""} {
		_, err := f.svc("tasks").Retrieve(admin, key)
		assert.ErrorAs(t, err, &nf, key)
	}
	_, err := f.svc("tasks").Update(admin, "999", []byte(`{}`), true)
	assert.ErrorAs(t, err, &nf)
	assert.ErrorAs(t, f.svc("tasks").Delete(admin, "999"), &nf)
}

func TestUniqueContractPerProposal(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)
	proposal := f.create(admin, "proposals", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"descricao":"x","valor":"100"}`, couple, vendor))

	body := fmt.Sprintf(`{"orcamento":%s,"arquivo_contrato":"/media/contracts/c.pdf"}`, id(proposal))
	contract := f.create(admin, "contracts", body)
	assert.Equal(t, "/media/contracts/c.pdf", contract["arquivo_contrato"])
	assert.Equal(t, false, contract["assinado"])

	_, err := f.svc("contracts").Create(admin, []byte(body))
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("orcamento", errorx.CodeUnique))

	// updating the contract itself keeps its proposal
	_, err = f.svc("contracts").Update(admin, id(contract), []byte(`{"assinado":true,"data_assinatura":"2025-02-01"}`), true)
	assert.NoError(t, err)
}

func TestList_Ordering(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	for _, title := range []string{"b", "c", "a"} {
		f.create(admin, "tasks", fmt.Sprintf(`{"casal":%d,"titulo":%q,"data_limite":"2025-01-10"}`, couple, title))
	}
	tasks := f.svc("tasks")

	list, err := tasks.List(admin, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c", "a"}, titles(list))

	list, err = tasks.List(admin, ListOptions{Ordering: "titulo"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, titles(list))

	list, err = tasks.List(admin, ListOptions{Ordering: "-titulo"})
	require.NoError(t, err)
	assert.Equal(t, []any{"c", "b", "a"}, titles(list))

	_, err = tasks.List(admin, ListOptions{Ordering: "senha"})
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("ordering", errorx.CodeOrdering))
}

func titles(list []schema.Record) []any {
	out := make([]any, 0, len(list))
	for _, r := range list {
		out = append(out, r["titulo"])
	}
	return out
}

func TestPlanner_ManagesCouples(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	ana := f.user("ana", model.RoleCouple)
	bob := f.user("bob", model.RoleCouple)
	bia := f.user("bia", model.RolePlanner)
	planners := f.svc("planners")

	rec, err := planners.Update(admin, fmt.Sprint(bia), []byte(fmt.Sprintf(`{"casais":[%d,%d,%d]}`, bob, ana, bob)), true)
	require.NoError(t, err)
	assert.Equal(t, []uint{ana, bob}, rec["casais"])

	nested, ok := rec["usuario"].(schema.Record)
	require.True(t, ok)
	assert.Equal(t, "bia", nested["username"])
	assert.NotContains(t, nested, "password")

	// other fields leave the links alone
	rec, err = planners.Update(admin, fmt.Sprint(bia), []byte(`{"telefone":"555"}`), true)
	require.NoError(t, err)
	assert.Equal(t, []uint{ana, bob}, rec["casais"])
}

func TestDelete_CoupleCascades(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	ana := f.user("ana", model.RoleCouple)
	bob := f.user("bob", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)
	planner := f.user("bia", model.RolePlanner)

	for _, c := range []uint{ana, bob} {
		f.create(admin, "tasks", fmt.Sprintf(`{"casal":%d,"titulo":"t","data_limite":"2025-01-10"}`, c))
		f.create(admin, "documents", fmt.Sprintf(`{"casal":%d,"titulo":"d","arquivo":"d.pdf"}`, c))
		f.create(admin, "visits", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"data_hora":"2025-03-01T15:00:00Z","local":"x"}`, c, vendor))
		f.create(admin, "reviews", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"nota":4,"comentario":"bom"}`, c, vendor))
		f.create(admin, "timeline", fmt.Sprintf(`{"casal":%d,"evento":"e","data_evento":"2025-06-14T16:00:00Z"}`, c))
		p := f.create(admin, "proposals", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"descricao":"x","valor":"100"}`, c, vendor))
		f.create(admin, "payments", fmt.Sprintf(`{"orcamento":%s,"valor_parcela":"50","data_vencimento":"2025-02-01","forma_pagamento":"PARCELADO"}`, id(p)))
		f.create(admin, "contracts", fmt.Sprintf(`{"orcamento":%s,"arquivo_contrato":"c.pdf"}`, id(p)))
	}
	_, err := f.svc("planners").Update(admin, fmt.Sprint(planner), []byte(fmt.Sprintf(`{"casais":[%d,%d]}`, ana, bob)), true)
	require.NoError(t, err)

	require.NoError(t, f.svc("couples").Delete(admin, fmt.Sprint(ana)))

	for _, m := range []any{&model.Task{}, &model.Document{}, &model.Visit{}, &model.Review{}, &model.TimelineEvent{},
		&model.BudgetProposal{}, &model.Payment{}, &model.Contract{}, &model.PlannerCouple{}, &model.CoupleProfile{}} {
		assert.Equal(t, int64(1), f.count(m), "%T", m)
	}
	// the user outlives its profile
	assert.Equal(t, int64(4), f.count(&model.User{}))
	assert.Equal(t, int64(1), f.count(&model.VendorProfile{}))

	rec, err := f.svc("planners").Retrieve(admin, fmt.Sprint(planner))
	require.NoError(t, err)
	assert.Equal(t, []uint{bob}, rec["casais"])
}

func TestDelete_ProposalCascades(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)

	p := f.create(admin, "proposals", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"descricao":"x","valor":"100"}`, couple, vendor))
	for i := 0; i < 3; i++ {
		f.create(admin, "payments", fmt.Sprintf(`{"orcamento":%s,"valor_parcela":"10","data_vencimento":"2025-02-01","forma_pagamento":"PARCELADO"}`, id(p)))
	}
	f.create(admin, "contracts", fmt.Sprintf(`{"orcamento":%s,"arquivo_contrato":"c.pdf"}`, id(p)))

	require.NoError(t, f.svc("proposals").Delete(admin, id(p)))
	assert.Zero(t, f.count(&model.Payment{}))
	assert.Zero(t, f.count(&model.Contract{}))
	assert.Equal(t, int64(1), f.count(&model.CoupleProfile{}))
}

func TestDelete_UserCascades(t *testing.T) {
	f := newFixture(t, config.ScopeNone)
	couple := f.user("ana", model.RoleCouple)
	vendor := f.user("caio", model.RoleVendor)
	f.create(admin, "tasks", fmt.Sprintf(`{"casal":%d,"titulo":"t","data_limite":"2025-01-10"}`, couple))
	p := f.create(admin, "proposals", fmt.Sprintf(`{"casal":%d,"fornecedor":%d,"descricao":"x","valor":"100"}`, couple, vendor))
	f.create(admin, "payments", fmt.Sprintf(`{"orcamento":%s,"valor_parcela":"10","data_vencimento":"2025-02-01","forma_pagamento":"A_VISTA"}`, id(p)))

	require.NoError(t, f.svc("users").Delete(admin, fmt.Sprint(vendor)))
	assert.Zero(t, f.count(&model.VendorProfile{}))
	assert.Zero(t, f.count(&model.BudgetProposal{}))
	assert.Zero(t, f.count(&model.Payment{}))
	assert.Equal(t, int64(1), f.count(&model.Task{}))

	require.NoError(t, f.svc("users").Delete(admin, fmt.Sprint(couple)))
	assert.Zero(t, f.count(&model.CoupleProfile{}))
	assert.Zero(t, f.count(&model.Task{}))
	assert.Zero(t, f.count(&model.User{}))
}
