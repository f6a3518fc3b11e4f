package delivery

import (
	"context"

	"github.com/casbin/casbin/v3"
	"github.com/dominichul/phonefactor/internal/delivery/inbound"
	"github.com/dominichul/phonefactor/internal/delivery/outbound/carrier"
	"github.com/dominichul/phonefactor/internal/delivery/outbound/db"
	"github.com/dominichul/phonefactor/internal/delivery/usecase"
	"github.com/dominichul/phonefactor/internal/pkg/clock"
	"github.com/dominichul/phonefactor/internal/pkg/config"
	"github.com/dominichul/phonefactor/internal/pkg/goroutine"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/pkg/mail"
	"github.com/dominichul/phonefactor/internal/pkg/messaging"
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/pkg/uid"
	"github.com/dominichul/phonefactor/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	Enforcer   casbin.IEnforcer
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
	Mail       mail.Mail
}

func New(dep Dependency) error {
	dbDelivery := db.NewDB(dep.DBConn, dep.Instrument)

	repoCarrier, err := carrier.NewFromDriver(
		dep.Config.GetString("modules.delivery.carrier_driver"),
		dep.Mail,
		dep.Config,
		dep.Instrument,
	)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbDelivery,
		Carrier:    repoCarrier,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
		Enforcer:   dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
