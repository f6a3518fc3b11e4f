package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/dominichul/phonefactor/internal/delivery/entity"
	"github.com/dominichul/phonefactor/internal/pkg/clock"
	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/jwt"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	libjwt "github.com/golang-jwt/jwt/v5"
)

type fakeRepoDB struct {
	receipts  []entity.Receipt
	createErr error
}

func (f *fakeRepoDB) CreateReceipt(_ context.Context, receipt entity.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.receipts = append(f.receipts, receipt)
	return nil
}

func (f *fakeRepoDB) GetReceiptPage(_ context.Context, afterID int64, size int32) ([]entity.Receipt, error) {
	var out []entity.Receipt
	for _, r := range f.receipts {
		if r.ID > afterID && int32(len(out)) < size {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCarrier struct {
	deliverErr error
	delivered  []string
}

func (f *fakeCarrier) Name() string { return "fake" }

func (f *fakeCarrier) Deliver(_ context.Context, _, number, _, _ string) error {
	if f.deliverErr != nil {
		return f.deliverErr
	}
	f.delivered = append(f.delivered, number)
	return nil
}

type seqNumberID struct{ n int64 }

func (s *seqNumberID) Generate() int64 { s.n++; return s.n }

func newTestUsecase(t *testing.T, repo *fakeRepoDB, car *fakeCarrier) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  delivery:\n    enabled: true\n"))
	if err != nil {
		t.Fatalf("config.NewViperFromBytes: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator.NewV10Validator: %v", err)
	}

	return New(Dependency{
		RepoDB:     repo,
		Carrier:    car,
		Config:     cfg,
		UID:        &seqNumberID{},
		Clock:      clock.FixedClocker{T: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		Validator:  v10,
		Instrument: instrument.NewNoop(),
		Enforcer:   newTestEnforcer(t),
	})
}

func newTestEnforcer(t *testing.T) casbin.IEnforcer {
	t.Helper()

	m, err := model.NewModelFromString(`
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`)
	if err != nil {
		t.Fatalf("model.NewModelFromString: %v", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("casbin.NewEnforcer: %v", err)
	}
	return e
}

func validInput() ConsumePhoneTokenInput {
	return ConsumePhoneTokenInput{
		DeviceID: 11,
		UserID:   7,
		Method:   "sms",
		Number:   "+15551234567",
		Token:    "123456",
	}
}

func TestConsumePhoneTokenRecordsSentReceipt(t *testing.T) {
	repo := &fakeRepoDB{}
	car := &fakeCarrier{}
	uc := newTestUsecase(t, repo, car)

	in := validInput()
	in.Method = "call"
	in.Extension = "123"
	if err := uc.ConsumePhoneToken(context.Background(), in); err != nil {
		t.Fatalf("ConsumePhoneToken: %v", err)
	}

	if len(car.delivered) != 1 || car.delivered[0] != "+15551234567" {
		t.Fatalf("delivered = %v, want one delivery to +15551234567", car.delivered)
	}
	if len(repo.receipts) != 1 {
		t.Fatalf("recorded %d receipts, want 1", len(repo.receipts))
	}

	r := repo.receipts[0]
	if r.Status != entity.ReceiptStatusSent {
		t.Errorf("receipt status = %v, want sent", r.Status)
	}
	if r.Driver != "fake" {
		t.Errorf("receipt driver = %q, want fake", r.Driver)
	}
	if got := r.Metadata.GetString("extension"); got != "123" {
		t.Errorf("receipt metadata extension = %q, want 123", got)
	}
	if r.Metadata.Has("error") {
		t.Errorf("sent receipt carries error metadata: %v", r.Metadata)
	}
}

func TestConsumePhoneTokenCarrierFailure(t *testing.T) {
	repo := &fakeRepoDB{}
	car := &fakeCarrier{deliverErr: errors.New("smtp: connection refused")}
	uc := newTestUsecase(t, repo, car)

	err := uc.ConsumePhoneToken(context.Background(), validInput())
	if err == nil {
		t.Fatal("carrier failure not propagated for redelivery")
	}

	if len(repo.receipts) != 1 {
		t.Fatalf("recorded %d receipts, want 1", len(repo.receipts))
	}
	if repo.receipts[0].Status != entity.ReceiptStatusFailed {
		t.Errorf("receipt status = %v, want failed", repo.receipts[0].Status)
	}
	if got := repo.receipts[0].Metadata.GetString("error"); got != "smtp: connection refused" {
		t.Errorf("failed receipt metadata error = %q, want the carrier error", got)
	}
}

func TestConsumePhoneTokenDropsMalformedEvent(t *testing.T) {
	repo := &fakeRepoDB{}
	car := &fakeCarrier{}
	uc := newTestUsecase(t, repo, car)

	in := validInput()
	in.Number = "not-a-number"

	// A malformed event must be dropped, not returned for redelivery.
	if err := uc.ConsumePhoneToken(context.Background(), in); err != nil {
		t.Fatalf("ConsumePhoneToken: %v", err)
	}

	if len(car.delivered) != 0 {
		t.Errorf("malformed event delivered anyway")
	}
	if len(repo.receipts) != 0 {
		t.Errorf("malformed event produced a receipt")
	}
}

func TestReceiptListAuthorization(t *testing.T) {
	repo := &fakeRepoDB{receipts: []entity.Receipt{
		{ID: 1, UserID: 7, Method: "sms", Status: entity.ReceiptStatusSent},
		{ID: 2, UserID: 7, Method: "call", Status: entity.ReceiptStatusFailed},
	}}
	uc := newTestUsecase(t, repo, &fakeCarrier{})

	_, err := uc.ReceiptList(context.Background(), ReceiptListInput{})
	assertCode(t, err, goerror.CodeUnauthorized)

	userCtx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libjwt.RegisteredClaims{Subject: "user-7"},
		UserID:           7,
	})
	_, err = uc.ReceiptList(userCtx, ReceiptListInput{})
	assertCode(t, err, goerror.CodeForbidden)

	if _, err := uc.enforcer.AddPolicy("admin", "delivery:receipts", "read"); err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}
	adminCtx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libjwt.RegisteredClaims{Subject: "admin"},
		UserID:           1,
	})

	out, err := uc.ReceiptList(adminCtx, ReceiptListInput{})
	if err != nil {
		t.Fatalf("ReceiptList: %v", err)
	}
	if len(out.Receipts) != 2 {
		t.Fatalf("listed %d receipts, want 2", len(out.Receipts))
	}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error %v is not a *goerror.Error", err)
	}
	if ge.Code() != want {
		t.Fatalf("error code = %s, want %s", ge.Code(), want)
	}
}
