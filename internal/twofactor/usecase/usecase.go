package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
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
	"github.com/dominichul/phonefactor/internal/pkg/uid"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetPhoneDeviceByID(ctx context.Context, id, userID int64) (*entity.PhoneDevice, error)
	GetBackupPhoneDevices(ctx context.Context, userID int64) ([]entity.PhoneDevice, error)
	GetPhoneDevicePage(ctx context.Context, afterID int64, size int32) ([]entity.PhoneDevice, error)
	GetBackupCodesByUserID(ctx context.Context, userID int64) ([]entity.BackupCode, error)

	CreatePhoneDevice(ctx context.Context, device entity.PhoneDevice) error
	ReplaceBackupCodes(ctx context.Context, userID int64, codes []entity.BackupCode) error

	MarkBackupCodeUsed(ctx context.Context, id, userID int64) (bool, error)

	DeleteBackupPhoneDevice(ctx context.Context, id, userID int64) (bool, error)
}

type repoCache interface {
	SaveWizardSession(ctx context.Context, key string, sess entity.WizardSession, ttl time.Duration) error
	GetWizardSession(ctx context.Context, key string) (*entity.WizardSession, error)
	DeleteWizardSession(ctx context.Context, key string) error
}

type gateway interface {
	SendSMS(ctx context.Context, device *entity.PhoneDevice, token string) error
	MakeCall(ctx context.Context, device *entity.PhoneDevice, token string) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	gateway       gateway
	successURL    *router.LazyURL
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	argon2id      hash.Hash
	mfaEncryptor  mfa.Encryptor
	mfaBackupCode mfa.BackupCodeGenerator
	uid           uid.NumberID
	oid           uid.StringID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      casbin.IEnforcer
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	Gateway       gateway
	URLs          *router.URLResolver
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Argon2ID      hash.Hash
	MFAEncryptor  mfa.Encryptor
	MFABackupCode mfa.BackupCodeGenerator
	UID           uid.NumberID
	OID           uid.StringID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      casbin.IEnforcer
}

func New(dep Dependency) *Usecase {
	target := dep.Config.GetString("modules.twofactor.success_url")
	if target == "" {
		target = "twofactor:phones"
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		gateway:       dep.Gateway,
		successURL:    dep.URLs.Lazy(target),
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		argon2id:      dep.Argon2ID,
		mfaEncryptor:  dep.MFAEncryptor,
		mfaBackupCode: dep.MFABackupCode,
		uid:           dep.UID,
		oid:           dep.OID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.enforcer.Enforce(clm.Subject, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

// sessionCacheKey derives the cache key for an opaque wizard session token.
// The raw token never reaches the cache, so a cache dump cannot be replayed.
func (s *Usecase) sessionCacheKey(token string) (string, error) {
	sum, err := s.hmac.Hash(token)
	if err != nil {
		return "", err
	}
	return string(sum), nil
}

func (s *Usecase) loadWizardSession(ctx context.Context, userID int64, token string) (string, *entity.WizardSession, error) {
	key, err := s.sessionCacheKey(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash wizard session token", "error", err)
		return "", nil, goerror.NewServer(err)
	}

	sess, err := s.repoCache.GetWizardSession(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "wizard session not found or expired", "user_id", userID)
		return "", nil, goerror.NewBusiness("Setup session not found or expired", goerror.CodeNotFound)
	}

	if sess.UserID != userID {
		slog.WarnContext(ctx, "wizard session does not belong to caller", "user_id", userID)
		return "", nil, goerror.NewBusiness("Setup session not found or expired", goerror.CodeNotFound)
	}

	return key, sess, nil
}

func (s *Usecase) wizardTTL() time.Duration {
	return s.cfg.GetMinute("modules.twofactor.wizard_session_ttl_minutes")
}

func (s *Usecase) tokenDigits() int {
	if d := s.cfg.GetInt("modules.twofactor.digits"); d == 8 {
		return 8
	}
	return 6
}

func (s *Usecase) encryptDeviceKey(userID int64, key string) (string, error) {
	ciphertext, err := s.mfaEncryptor.Encrypt([]byte(key), mfa.Scope{
		UserID:  userID,
		Purpose: mfa.PurposePhoneSecret,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *Usecase) decryptDeviceKey(userID int64, stored string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}

	plaintext, err := s.mfaEncryptor.Decrypt(ciphertext, mfa.Scope{
		UserID:  userID,
		Purpose: mfa.PurposePhoneSecret,
	})
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *Usecase) deliverToken(ctx context.Context, device *entity.PhoneDevice, token string) error {
	if device.Method == entity.MethodCall {
		return s.gateway.MakeCall(ctx, device, token)
	}
	return s.gateway.SendSMS(ctx, device, token)
}
