package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/dominichul/phonefactor/internal/pkg/clock"
	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/hash"
	"github.com/dominichul/phonefactor/internal/pkg/idempotency"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/jwt"
	"github.com/dominichul/phonefactor/internal/pkg/mfa"
	"github.com/dominichul/phonefactor/internal/pkg/otp"
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/pkg/storage"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	outgateway "github.com/dominichul/phonefactor/internal/twofactor/outbound/gateway"
	libjwt "github.com/golang-jwt/jwt/v5"
)

const testConfigYAML = `
modules:
  twofactor:
    wizard_session_ttl_minutes: 10
    digits: 6
    extensions_enabled: false
    success_url: "twofactor:phones"
    challenge_lock_seconds: 30
    export_bucket: "twofactor-exports"
    export_url_ttl_minutes: 15
`

type fakeRepoDB struct {
	devices   map[int64]entity.PhoneDevice
	codes     []entity.BackupCode
	created   []entity.PhoneDevice
	createErr error
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{devices: map[int64]entity.PhoneDevice{}}
}

func (f *fakeRepoDB) GetPhoneDeviceByID(_ context.Context, id, userID int64) (*entity.PhoneDevice, error) {
	d, ok := f.devices[id]
	if !ok || d.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	return &d, nil
}

func (f *fakeRepoDB) GetBackupPhoneDevices(_ context.Context, userID int64) ([]entity.PhoneDevice, error) {
	var out []entity.PhoneDevice
	for _, d := range f.devices {
		if d.UserID == userID && d.Name != entity.DeviceNameDefault {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepoDB) GetPhoneDevicePage(_ context.Context, afterID int64, size int32) ([]entity.PhoneDevice, error) {
	var out []entity.PhoneDevice
	for _, d := range f.devices {
		if d.ID > afterID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if int32(len(out)) > size {
		out = out[:size]
	}
	return out, nil
}

func (f *fakeRepoDB) GetBackupCodesByUserID(_ context.Context, userID int64) ([]entity.BackupCode, error) {
	var out []entity.BackupCode
	for _, c := range f.codes {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepoDB) CreatePhoneDevice(_ context.Context, device entity.PhoneDevice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, device)
	f.devices[device.ID] = device
	return nil
}

func (f *fakeRepoDB) ReplaceBackupCodes(_ context.Context, userID int64, codes []entity.BackupCode) error {
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	f.codes = append(kept, codes...)
	return nil
}

func (f *fakeRepoDB) MarkBackupCodeUsed(_ context.Context, id, userID int64) (bool, error) {
	for i := range f.codes {
		if f.codes[i].ID == id && f.codes[i].UserID == userID {
			if f.codes[i].IsUsed() {
				return false, nil
			}
			f.codes[i].UsedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepoDB) DeleteBackupPhoneDevice(_ context.Context, id, userID int64) (bool, error) {
	d, ok := f.devices[id]
	if !ok || d.UserID != userID || d.Name == entity.DeviceNameDefault {
		return false, nil
	}
	delete(f.devices, id)
	return true, nil
}

type fakeRepoCache struct {
	sessions map[string]entity.WizardSession
}

func newFakeRepoCache() *fakeRepoCache {
	return &fakeRepoCache{sessions: map[string]entity.WizardSession{}}
}

func (f *fakeRepoCache) SaveWizardSession(_ context.Context, key string, sess entity.WizardSession, _ time.Duration) error {
	f.sessions[key] = sess
	return nil
}

func (f *fakeRepoCache) GetWizardSession(_ context.Context, key string) (*entity.WizardSession, error) {
	sess, ok := f.sessions[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sess, nil
}

func (f *fakeRepoCache) DeleteWizardSession(_ context.Context, key string) error {
	delete(f.sessions, key)
	return nil
}

type fakeStorage struct {
	objects map[string][]byte
	puts    []storage.ObjectInfo
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	info := storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ContentType: opts.ContentType}
	f.puts = append(f.puts, info)
	return info, nil
}

func (f *fakeStorage) GetObject(_ context.Context, bucket, key string, _ storage.GetOptions) (io.ReadCloser, storage.ObjectInfo, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ObjectInfo{}, goerror.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return storage.ObjectInfo{}, goerror.ErrNotFound
	}
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeStorage) ListObjects(context.Context, string, string, storage.ListOptions) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key + "?sig=get", nil
}

func (f *fakeStorage) PresignPut(_ context.Context, bucket, key string, _ storage.PutOptions, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key + "?sig=put", nil
}

type fakeIdempotency struct {
	execErr error
	calls   int
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return "", nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.calls++
	if f.execErr != nil {
		return f.execErr
	}
	return fn(ctx)
}

type seqNumberID struct{ n int64 }

func (s *seqNumberID) Generate() int64 { s.n++; return s.n }

type staticStringID struct{ v string }

func (s staticStringID) Generate() string { return s.v }

type testEnv struct {
	uc     *Usecase
	repo   *fakeRepoDB
	cache  *fakeRepoCache
	gw     *outgateway.Fake
	idemp  *fakeIdempotency
	urls   *router.URLResolver
	store  *fakeStorage
	cfg    config.Config
	totp   otp.OTP
	enc    mfa.Encryptor
	now    time.Time
	userID int64
}

func newTestEnv(t *testing.T, cfgYAML string) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	if err != nil {
		t.Fatalf("config.NewViperFromBytes: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator.NewV10Validator: %v", err)
	}

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	ins := instrument.NewNoop()
	env := &testEnv{
		repo:   newFakeRepoDB(),
		cache:  newFakeRepoCache(),
		gw:     outgateway.NewFake(ins),
		idemp:  &fakeIdempotency{},
		urls:   router.NewURLResolver(),
		store:  newFakeStorage(),
		cfg:    cfg,
		totp:   otp.NewTOTP(30, 1),
		enc:    mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key}),
		now:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		userID: 7,
	}

	env.uc = New(Dependency{
		RepoDB:        env.repo,
		RepoCache:     env.cache,
		Gateway:       env.gw,
		URLs:          env.urls,
		Idempotency:   env.idemp,
		Validator:     v10,
		Config:        cfg,
		Storage:       env.store,
		HMAC:          hash.NewHMACSHA256("test-hmac-secret"),
		Argon2ID:      hash.NewArgon2id("test-pepper"),
		MFAEncryptor:  env.enc,
		MFABackupCode: mfa.NewBackupCode(4),
		UID:           &seqNumberID{},
		OID:           staticStringID{v: "wizard-session-token"},
		Totp:          env.totp,
		Clock:         clock.FixedClocker{T: env.now},
		Instrument:    ins,
		Enforcer:      newTestEnforcer(t),
	})

	// Routes are registered by the HTTP layer after the usecase is built;
	// the success URL must still resolve.
	env.urls.Register("twofactor:phones", "/api/v1/twofactor/phones")

	return env
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

func (env *testEnv) authCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libjwt.RegisteredClaims{Subject: "user-7"},
		UserID:           env.userID,
	})
}

func assertCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error %v is not a *goerror.Error", err)
	}
	if ge.Code() != want {
		t.Fatalf("error code = %s, want %s", ge.Code(), want)
	}
	return ge
}

func TestSetupWizardFlow(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	start, err := env.uc.SetupStart(ctx)
	if err != nil {
		t.Fatalf("SetupStart: %v", err)
	}
	if start.Step != entity.WizardStepSetup {
		t.Fatalf("SetupStart step = %q, want %q", start.Step, entity.WizardStepSetup)
	}
	if start.SessionToken == "" {
		t.Fatal("SetupStart returned an empty session token")
	}

	method, err := env.uc.SetupMethod(ctx, SetupMethodInput{
		SessionToken: start.SessionToken,
		Method:       "sms",
	})
	if err != nil {
		t.Fatalf("SetupMethod: %v", err)
	}
	if method.Step != entity.WizardStepSMS {
		t.Fatalf("SetupMethod step = %q, want %q", method.Step, entity.WizardStepSMS)
	}

	number, err := env.uc.SetupNumber(ctx, SetupNumberInput{
		SessionToken: start.SessionToken,
		Number:       "+15551234567",
	})
	if err != nil {
		t.Fatalf("SetupNumber: %v", err)
	}
	if number.Step != entity.WizardStepValidation {
		t.Fatalf("SetupNumber step = %q, want %q", number.Step, entity.WizardStepValidation)
	}

	calls := env.gw.Calls()
	if len(calls) != 1 || calls[0].Method != "sms" || calls[0].Number != "+15551234567" {
		t.Fatalf("gateway calls = %+v, want one sms to +15551234567", calls)
	}

	out, err := env.uc.SetupValidate(ctx, SetupValidateInput{
		SessionToken: start.SessionToken,
		Token:        calls[0].Token,
	})
	if err != nil {
		t.Fatalf("SetupValidate: %v", err)
	}
	if out.SuccessURL != "/api/v1/twofactor/phones" {
		t.Fatalf("success url = %q, want /api/v1/twofactor/phones", out.SuccessURL)
	}

	if len(env.repo.created) != 1 {
		t.Fatalf("created %d devices, want 1", len(env.repo.created))
	}
	device := env.repo.created[0]
	if device.Name != entity.DeviceNameBackup {
		t.Errorf("device name = %q, want %q", device.Name, entity.DeviceNameBackup)
	}
	if device.Method != entity.MethodSMS {
		t.Errorf("device method = %v, want %v", device.Method, entity.MethodSMS)
	}
	if device.Digits != 6 {
		t.Errorf("device digits = %d, want 6", device.Digits)
	}

	// Stored key must be ciphertext that decrypts back to a working secret.
	plainKey, err := env.uc.decryptDeviceKey(env.userID, device.Key)
	if err != nil {
		t.Fatalf("decryptDeviceKey: %v", err)
	}
	if !env.totp.Validate(calls[0].Token, plainKey, device.Digits, env.now) {
		t.Error("delivered token does not validate against the stored key")
	}

	if len(env.cache.sessions) != 0 {
		t.Errorf("wizard session survived validation, %d sessions left", len(env.cache.sessions))
	}
}

func TestSetupMethodRejectsRepeatedStep(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	start, err := env.uc.SetupStart(ctx)
	if err != nil {
		t.Fatalf("SetupStart: %v", err)
	}

	in := SetupMethodInput{SessionToken: start.SessionToken, Method: "call"}
	if _, err := env.uc.SetupMethod(ctx, in); err != nil {
		t.Fatalf("first SetupMethod: %v", err)
	}

	_, err = env.uc.SetupMethod(ctx, in)
	assertCode(t, err, goerror.CodeConflict)
}

func TestSetupMethodRejectsUnknownMethod(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	start, err := env.uc.SetupStart(ctx)
	if err != nil {
		t.Fatalf("SetupStart: %v", err)
	}

	_, err = env.uc.SetupMethod(ctx, SetupMethodInput{
		SessionToken: start.SessionToken,
		Method:       "carrier-pigeon",
	})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestSetupNumberDropsDisabledExtension(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	start, _ := env.uc.SetupStart(ctx)
	if _, err := env.uc.SetupMethod(ctx, SetupMethodInput{SessionToken: start.SessionToken, Method: "call"}); err != nil {
		t.Fatalf("SetupMethod: %v", err)
	}

	if _, err := env.uc.SetupNumber(ctx, SetupNumberInput{
		SessionToken: start.SessionToken,
		Number:       "+442071234567",
		Extension:    "123",
	}); err != nil {
		t.Fatalf("SetupNumber: %v", err)
	}

	for _, sess := range env.cache.sessions {
		if sess.Extension != "" {
			t.Errorf("extension %q kept although extensions are disabled", sess.Extension)
		}
	}

	if got := env.gw.CallCount(); got != 1 {
		t.Errorf("voice deliveries = %d, want 1", got)
	}
}

func TestSetupValidateRejectsWrongToken(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	start, _ := env.uc.SetupStart(ctx)
	env.uc.SetupMethod(ctx, SetupMethodInput{SessionToken: start.SessionToken, Method: "sms"})
	env.uc.SetupNumber(ctx, SetupNumberInput{SessionToken: start.SessionToken, Number: "+15551234567"})

	_, err := env.uc.SetupValidate(ctx, SetupValidateInput{
		SessionToken: start.SessionToken,
		Token:        "000000",
	})
	ge := assertCode(t, err, goerror.CodeInvalidInput)
	if got := ge.Fields()["token"]; got != "Entered token is not valid." {
		t.Fatalf("token field message = %q, want %q", got, "Entered token is not valid.")
	}

	if len(env.repo.created) != 0 {
		t.Errorf("device created on wrong token")
	}
}

func TestWizardSessionNotSharedAcrossUsers(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)

	start, err := env.uc.SetupStart(env.authCtx())
	if err != nil {
		t.Fatalf("SetupStart: %v", err)
	}

	otherCtx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libjwt.RegisteredClaims{Subject: "user-8"},
		UserID:           8,
	})

	_, err = env.uc.SetupMethod(otherCtx, SetupMethodInput{
		SessionToken: start.SessionToken,
		Method:       "sms",
	})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestWizardRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)

	_, err := env.uc.SetupStart(context.Background())
	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestPhoneDeleteDefaultDeviceLooksMissing(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	env.repo.devices[1] = entity.PhoneDevice{ID: 1, UserID: env.userID, Name: entity.DeviceNameDefault}
	env.repo.devices[2] = entity.PhoneDevice{ID: 2, UserID: env.userID, Name: entity.DeviceNameBackup}

	// The default device must be indistinguishable from a missing one.
	err := env.uc.PhoneDelete(ctx, PhoneDeleteInput{ID: 1})
	assertCode(t, err, goerror.CodeNotFound)

	err = env.uc.PhoneDelete(ctx, PhoneDeleteInput{ID: 99})
	assertCode(t, err, goerror.CodeNotFound)

	if err := env.uc.PhoneDelete(ctx, PhoneDeleteInput{ID: 2}); err != nil {
		t.Fatalf("deleting a backup device: %v", err)
	}
}

func TestPhoneListHidesDeviceKeys(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	env.repo.devices[1] = entity.PhoneDevice{
		ID: 1, UserID: env.userID, Name: entity.DeviceNameBackup, Key: "ciphertext",
	}

	out, err := env.uc.PhoneList(ctx)
	if err != nil {
		t.Fatalf("PhoneList: %v", err)
	}
	if len(out.Devices) != 1 {
		t.Fatalf("listed %d devices, want 1", len(out.Devices))
	}
	if out.Devices[0].Key != "" {
		t.Errorf("device key leaked through PhoneList")
	}
}

func (env *testEnv) seedDevice(t *testing.T, id int64, method entity.Method, digits int) string {
	t.Helper()

	secret, err := env.totp.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	encrypted, err := env.uc.encryptDeviceKey(env.userID, secret)
	if err != nil {
		t.Fatalf("encryptDeviceKey: %v", err)
	}

	env.repo.devices[id] = entity.PhoneDevice{
		ID:     id,
		UserID: env.userID,
		Name:   entity.DeviceNameBackup,
		Method: method,
		Number: "+15551234567",
		Key:    encrypted,
		Digits: digits,
	}
	return secret
}

func TestChallengeSendDeliversCurrentToken(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()
	secret := env.seedDevice(t, 11, entity.MethodCall, 6)

	out, err := env.uc.ChallengeSend(ctx, ChallengeSendInput{DeviceID: 11})
	if err != nil {
		t.Fatalf("ChallengeSend: %v", err)
	}
	if out.Method != "call" {
		t.Errorf("method = %q, want call", out.Method)
	}

	calls := env.gw.Calls()
	if len(calls) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(calls))
	}
	if !env.totp.Validate(calls[0].Token, secret, 6, env.now) {
		t.Error("delivered token does not validate against the device secret")
	}
}

func TestChallengeSendSuppressedWhileLocked(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()
	env.seedDevice(t, 11, entity.MethodSMS, 6)

	env.idemp.execErr = idempotency.ErrAlreadyCompleted

	_, err := env.uc.ChallengeSend(ctx, ChallengeSendInput{DeviceID: 11})
	assertCode(t, err, goerror.CodeTooManyRequest)

	if got := env.gw.SMSCount(); got != 0 {
		t.Errorf("sms deliveries = %d, want 0", got)
	}
}

func TestChallengeSendUnknownDevice(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)

	_, err := env.uc.ChallengeSend(env.authCtx(), ChallengeSendInput{DeviceID: 404})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestChallengeVerify(t *testing.T) {
	for _, digits := range []int{6, 8} {
		env := newTestEnv(t, testConfigYAML)
		ctx := env.authCtx()
		secret := env.seedDevice(t, 21, entity.MethodSMS, digits)

		token, err := env.totp.GenerateCode(secret, digits, env.now)
		if err != nil {
			t.Fatalf("GenerateCode(digits=%d): %v", digits, err)
		}

		if _, err := env.uc.ChallengeVerify(ctx, ChallengeVerifyInput{DeviceID: 21, Token: token}); err != nil {
			t.Fatalf("ChallengeVerify(digits=%d): %v", digits, err)
		}

		_, err = env.uc.ChallengeVerify(ctx, ChallengeVerifyInput{DeviceID: 21, Token: "not-a-token"})
		ge := assertCode(t, err, goerror.CodeInvalidInput)
		if got := ge.Fields()["token"]; got != "Entered token is not valid." {
			t.Fatalf("token field message = %q", got)
		}
	}
}

func TestChallengeVerifyAcceptsAdjacentPeriod(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()
	secret := env.seedDevice(t, 31, entity.MethodSMS, 6)

	stale, err := env.totp.GenerateCode(secret, 6, env.now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	if _, err := env.uc.ChallengeVerify(ctx, ChallengeVerifyInput{DeviceID: 31, Token: stale}); err != nil {
		t.Fatalf("token from the previous period rejected: %v", err)
	}

	old, err := env.totp.GenerateCode(secret, 6, env.now.Add(-120*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	_, err = env.uc.ChallengeVerify(ctx, ChallengeVerifyInput{DeviceID: 31, Token: old})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestBackupCodeRotateAndVerify(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	out, err := env.uc.BackupCodeRotate(ctx)
	if err != nil {
		t.Fatalf("BackupCodeRotate: %v", err)
	}
	if len(out.Codes) != 4 {
		t.Fatalf("rotated %d codes, want 4", len(out.Codes))
	}

	for _, stored := range env.repo.codes {
		for _, plain := range out.Codes {
			if stored.Code == plain {
				t.Fatalf("backup code stored in plaintext")
			}
		}
	}

	if err := env.uc.BackupCodeVerify(ctx, BackupCodeVerifyInput{Code: out.Codes[0]}); err != nil {
		t.Fatalf("BackupCodeVerify: %v", err)
	}

	// Single use.
	err = env.uc.BackupCodeVerify(ctx, BackupCodeVerifyInput{Code: out.Codes[0]})
	ge := assertCode(t, err, goerror.CodeInvalidInput)
	if got := ge.Fields()["code"]; got != "Entered code is not valid." {
		t.Fatalf("code field message = %q", got)
	}

	if err := env.uc.BackupCodeVerify(ctx, BackupCodeVerifyInput{Code: out.Codes[1]}); err != nil {
		t.Fatalf("second code rejected: %v", err)
	}

	err = env.uc.BackupCodeVerify(ctx, BackupCodeVerifyInput{Code: "bogus"})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestBackupCodeRotateReplacesOldSet(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	first, err := env.uc.BackupCodeRotate(ctx)
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}
	if _, err := env.uc.BackupCodeRotate(ctx); err != nil {
		t.Fatalf("second rotate: %v", err)
	}

	err = env.uc.BackupCodeVerify(ctx, BackupCodeVerifyInput{Code: first.Codes[0]})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestDeviceExportRequiresPermission(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)

	_, err := env.uc.DeviceExport(env.authCtx())
	assertCode(t, err, goerror.CodeForbidden)

	if len(env.store.puts) != 0 {
		t.Errorf("forbidden export uploaded %d objects", len(env.store.puts))
	}
}

func TestDeviceExportWritesKeylessCSV(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	env.seedDevice(t, 11, entity.MethodSMS, 6)
	env.seedDevice(t, 12, entity.MethodCall, 8)

	if _, err := env.uc.enforcer.AddPolicy("user-7", "twofactor:devices", "export"); err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}

	out, err := env.uc.DeviceExport(ctx)
	if err != nil {
		t.Fatalf("DeviceExport: %v", err)
	}

	if len(env.store.puts) != 1 {
		t.Fatalf("uploaded %d objects, want 1", len(env.store.puts))
	}
	put := env.store.puts[0]
	if put.Bucket != "twofactor-exports" {
		t.Errorf("uploaded to bucket %q, want twofactor-exports", put.Bucket)
	}
	if put.ContentType != "text/csv" {
		t.Errorf("uploaded content type %q, want text/csv", put.ContentType)
	}

	if want := "https://storage.test/twofactor-exports/" + put.Key + "?sig=get"; out.URL != want {
		t.Fatalf("presigned url = %q, want %q", out.URL, want)
	}
	if got := out.ExpiresAt.Sub(env.now); got != 15*time.Minute {
		t.Errorf("export url expires in %v, want 15m0s", got)
	}

	body := string(env.store.objects[put.Bucket+"/"+put.Key])
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parsing export csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("export has %d rows, want header plus 2 devices", len(records))
	}
	for _, col := range records[0] {
		if col == "key" {
			t.Fatal("export header includes the key column")
		}
	}
	if records[1][0] != "11" || records[2][0] != "12" {
		t.Errorf("export rows out of order: %v, %v", records[1], records[2])
	}

	for id, d := range env.repo.devices {
		if d.Key == "" {
			t.Fatalf("seeded device %d has no stored key", id)
		}
		if strings.Contains(body, d.Key) {
			t.Fatal("export body leaks an encrypted device key")
		}
	}
}

func TestSetupSuccessURLResolvedPerRequest(t *testing.T) {
	env := newTestEnv(t, testConfigYAML)
	ctx := env.authCtx()

	runWizard := func() string {
		t.Helper()

		start, err := env.uc.SetupStart(ctx)
		if err != nil {
			t.Fatalf("SetupStart: %v", err)
		}
		if _, err := env.uc.SetupMethod(ctx, SetupMethodInput{SessionToken: start.SessionToken, Method: "sms"}); err != nil {
			t.Fatalf("SetupMethod: %v", err)
		}
		if _, err := env.uc.SetupNumber(ctx, SetupNumberInput{SessionToken: start.SessionToken, Number: "+15551234567"}); err != nil {
			t.Fatalf("SetupNumber: %v", err)
		}

		calls := env.gw.Calls()
		out, err := env.uc.SetupValidate(ctx, SetupValidateInput{
			SessionToken: start.SessionToken,
			Token:        calls[len(calls)-1].Token,
		})
		if err != nil {
			t.Fatalf("SetupValidate: %v", err)
		}
		return out.SuccessURL
	}

	if got := runWizard(); got != "/api/v1/twofactor/phones" {
		t.Fatalf("success url = %q, want /api/v1/twofactor/phones", got)
	}

	// Re-registering the named route must change where the next wizard
	// completion redirects.
	env.urls.Register("twofactor:phones", "/api/v2/twofactor/phones")
	if got := runWizard(); got != "/api/v2/twofactor/phones" {
		t.Fatalf("success url after re-register = %q, want /api/v2/twofactor/phones", got)
	}
}
