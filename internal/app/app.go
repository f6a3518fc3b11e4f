package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/dominichul/phonefactor/internal/pkg/clock"
	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/goroutine"
	"github.com/dominichul/phonefactor/internal/pkg/hash"
	"github.com/dominichul/phonefactor/internal/pkg/idempotency"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/jwt"
	"github.com/dominichul/phonefactor/internal/pkg/mail"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/pkg/mfa"
	"github.com/dominichul/phonefactor/internal/pkg/otp"
	"github.com/dominichul/phonefactor/internal/pkg/pgxcasbin"
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/pkg/storage"
	"github.com/dominichul/phonefactor/internal/pkg/uid"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine     *goroutine.Manager
	validator     validator.Validator
	clock         clock.Clocker
	hmac          hash.Hash
	argon2id      hash.Hash
	uid           uid.NumberID
	oid           uid.StringID
	uuid          uid.StringID
	totp          otp.OTP
	jwt           jwt.JWT
	mfaEncryptor  mfa.Encryptor
	mfaBackupCode mfa.BackupCodeGenerator

	// resources
	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	idemp         idempotency.Idempotency
	mail          mail.Mail
	messaging     messaging.Messaging
	storage       storage.Storage
	casbin        *casbin.Enforcer
	casbinWatcher *pgxcasbin.Watcher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
