package twofactor

import (
	"github.com/casbin/casbin/v3"
	"github.com/dominichul/phonefactor/internal/pkg/clock"
	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/hash"
	"github.com/dominichul/phonefactor/internal/pkg/idempotency"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/pkg/mfa"
	"github.com/dominichul/phonefactor/internal/pkg/otp"
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/pkg/storage"
	"github.com/dominichul/phonefactor/internal/pkg/uid"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	"github.com/dominichul/phonefactor/internal/twofactor/inbound"
	"github.com/dominichul/phonefactor/internal/twofactor/outbound/cache"
	"github.com/dominichul/phonefactor/internal/twofactor/outbound/db"
	"github.com/dominichul/phonefactor/internal/twofactor/outbound/gateway"
	"github.com/dominichul/phonefactor/internal/twofactor/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn        *pgxpool.Pool              `validate:"required"`
	CacheConn     *redis.Client              `validate:"required"`
	Enforcer      casbin.IEnforcer           `validate:"required"`
	Router        *router.Router             `validate:"required"`
	Idempotency   idempotency.Idempotency    `validate:"required"`
	Messaging     messaging.Messaging        `validate:"required"`
	Storage       storage.Storage            `validate:"required"`
	Config        config.Config              `validate:"required"`
	Instrument    instrument.Instrumentation `validate:"required"`
	UID           uid.NumberID               `validate:"required"`
	OID           uid.StringID               `validate:"required"`
	HMAC          hash.Hash                  `validate:"required"`
	Argon2ID      hash.Hash                  `validate:"required"`
	MFAEncryptor  mfa.Encryptor              `validate:"required"`
	MFABackupCode mfa.BackupCodeGenerator    `validate:"required"`
	Clock         clock.Clocker              `validate:"required"`
	Totp          otp.OTP                    `validate:"required"`
	Validator     validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbPhone := db.NewDB(dep.DBConn, dep.Instrument)
	cachePhone := cache.NewCache(dep.CacheConn, dep.Instrument)

	gw, err := gateway.NewFromDriver(
		dep.Config.GetString("modules.twofactor.gateway_driver"),
		dep.Messaging,
		dep.Instrument,
	)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbPhone,
		RepoCache:     cachePhone,
		Gateway:       gw,
		URLs:          dep.Router.Names(),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Argon2ID:      dep.Argon2ID,
		MFAEncryptor:  dep.MFAEncryptor,
		MFABackupCode: dep.MFABackupCode,
		UID:           dep.UID,
		OID:           dep.OID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
