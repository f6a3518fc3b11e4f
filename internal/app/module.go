package app

import (
	"log/slog"
	"os"

	"github.com/dominichul/phonefactor/internal/delivery"
	"github.com/dominichul/phonefactor/internal/twofactor"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofactor.enabled") {
		if err := twofactor.New(twofactor.Dependency{
			Config:        a.config,
			Instrument:    a.ins,
			UID:           a.uid,
			OID:           a.oid,
			HMAC:          a.hmac,
			Argon2ID:      a.argon2id,
			MFAEncryptor:  a.mfaEncryptor,
			MFABackupCode: a.mfaBackupCode,
			Clock:         a.clock,
			Validator:     a.validator,
			Router:        a.router,
			Totp:          a.totp,
			DBConn:        a.dbConn,
			CacheConn:     a.cacheConn,
			Idempotency:   a.idemp,
			Messaging:     a.messaging,
			Storage:       a.storage,
			Enforcer:      a.casbin,
		}); err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.delivery.enabled") {
		if err := delivery.New(delivery.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			Enforcer:   a.casbin,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Router:     a.router,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module delivery", "error", err)
			os.Exit(1)
		}
	}
}
