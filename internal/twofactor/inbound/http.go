package inbound

import (
	"context"

	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/twofactor/usecase"
)

type uc interface {
	SetupStart(ctx context.Context) (*usecase.SetupStartOutput, error)
	SetupMethod(ctx context.Context, in usecase.SetupMethodInput) (*usecase.SetupMethodOutput, error)
	SetupNumber(ctx context.Context, in usecase.SetupNumberInput) (*usecase.SetupNumberOutput, error)
	SetupValidate(ctx context.Context, in usecase.SetupValidateInput) (*usecase.SetupValidateOutput, error)

	PhoneList(ctx context.Context) (*usecase.PhoneListOutput, error)
	PhoneDelete(ctx context.Context, in usecase.PhoneDeleteInput) error

	ChallengeSend(ctx context.Context, in usecase.ChallengeSendInput) (*usecase.ChallengeSendOutput, error)
	ChallengeVerify(ctx context.Context, in usecase.ChallengeVerifyInput) (*usecase.ChallengeVerifyOutput, error)

	BackupCodeRotate(ctx context.Context) (*usecase.BackupCodeRotateOutput, error)
	BackupCodeVerify(ctx context.Context, in usecase.BackupCodeVerifyInput) error

	DeviceExport(ctx context.Context) (*usecase.DeviceExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Setup wizard
	r.POST("/api/v1/twofactor/setup", end.SetupStart)
	r.POST("/api/v1/twofactor/setup/method", end.SetupMethod)
	r.POST("/api/v1/twofactor/setup/number", end.SetupNumber)
	r.POST("/api/v1/twofactor/setup/validate", end.SetupValidate)

	// Backup phones
	r.GET("/api/v1/twofactor/phones", end.PhoneList)
	r.DELETE("/api/v1/twofactor/phones/:id", end.PhoneDelete)

	// Login challenges
	r.POST("/api/v1/twofactor/challenge", end.ChallengeSend)
	r.POST("/api/v1/twofactor/challenge/verify", end.ChallengeVerify)

	// Backup codes
	r.POST("/api/v1/twofactor/backup-codes", end.BackupCodeRotate)
	r.POST("/api/v1/twofactor/backup-codes/verify", end.BackupCodeVerify)

	// Admin (authorization enforced in the usecase)
	r.GET("/api/v1/twofactor/devices-export", end.DeviceExport)

	// Named routes, so redirect targets can be configured by name.
	r.Names().Register("twofactor:setup", "/api/v1/twofactor/setup")
	r.Names().Register("twofactor:phones", "/api/v1/twofactor/phones")
	r.Names().Register("twofactor:phone", "/api/v1/twofactor/phones/:id")
}
