package inbound

import (
	"github.com/dominichul/phonefactor/internal/pkg/router"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"github.com/dominichul/phonefactor/internal/twofactor/usecase"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes HTTP handlers for the phone two-factor workflows.
type HTTPEndpoint struct {
	uc uc
}

// SetupStart opens a new setup wizard session.
func (h *HTTPEndpoint) SetupStart(r *router.Request) (any, error) {
	resp, err := h.uc.SetupStart(r.Context())
	if err != nil {
		return nil, err
	}

	return SetupStartResponse{
		SessionToken: resp.SessionToken,
		Step:         string(resp.Step),
	}, nil
}

// SetupMethod submits the delivery method for the wizard's first step.
func (h *HTTPEndpoint) SetupMethod(r *router.Request) (any, error) {
	var req SetupMethodRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SetupMethod(r.Context(), usecase.SetupMethodInput{
		SessionToken: req.SessionToken,
		Method:       req.Method,
	})
	if err != nil {
		return nil, err
	}

	return SetupStepResponse{Step: string(resp.Step)}, nil
}

// SetupNumber submits the phone number and triggers token delivery.
func (h *HTTPEndpoint) SetupNumber(r *router.Request) (any, error) {
	var req SetupNumberRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SetupNumber(r.Context(), usecase.SetupNumberInput{
		SessionToken: req.SessionToken,
		Number:       req.Number,
		Extension:    req.Extension,
	})
	if err != nil {
		return nil, err
	}

	return SetupStepResponse{Step: string(resp.Step)}, nil
}

// SetupValidate checks the delivered token and persists the device.
func (h *HTTPEndpoint) SetupValidate(r *router.Request) (any, error) {
	var req SetupValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SetupValidate(r.Context(), usecase.SetupValidateInput{
		SessionToken: req.SessionToken,
		Token:        req.Token,
	})
	if err != nil {
		return nil, err
	}

	return SetupValidateResponse{
		DeviceID:   resp.DeviceID,
		SuccessURL: resp.SuccessURL,
	}, nil
}

// PhoneList returns the caller's backup phone devices.
func (h *HTTPEndpoint) PhoneList(r *router.Request) (any, error) {
	resp, err := h.uc.PhoneList(r.Context())
	if err != nil {
		return nil, err
	}

	return lo.Map(resp.Devices, func(d entity.PhoneDevice, _ int) PhoneDeviceResponse {
		return PhoneDeviceResponse{
			ID:        d.ID,
			Name:      d.Name,
			Method:    d.Method.String(),
			Number:    d.Number,
			Extension: d.Extension,
			Digits:    d.Digits,
			CreatedAt: d.CreatedAt,
		}
	}), nil
}

// PhoneDelete removes a backup phone device.
func (h *HTTPEndpoint) PhoneDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.PhoneDelete(r.Context(), usecase.PhoneDeleteInput{ID: id}); err != nil {
		return nil, err
	}

	return nil, nil
}

// ChallengeSend delivers a fresh token to a registered device.
func (h *HTTPEndpoint) ChallengeSend(r *router.Request) (any, error) {
	var req ChallengeSendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ChallengeSend(r.Context(), usecase.ChallengeSendInput{DeviceID: req.DeviceID})
	if err != nil {
		return nil, err
	}

	return ChallengeResponse{
		DeviceID: resp.DeviceID,
		Method:   resp.Method,
	}, nil
}

// ChallengeVerify checks a submitted token against a registered device.
func (h *HTTPEndpoint) ChallengeVerify(r *router.Request) (any, error) {
	var req ChallengeVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ChallengeVerify(r.Context(), usecase.ChallengeVerifyInput{
		DeviceID: req.DeviceID,
		Token:    req.Token,
	})
	if err != nil {
		return nil, err
	}

	return ChallengeResponse{
		DeviceID: resp.DeviceID,
		Method:   resp.Method,
	}, nil
}

// BackupCodeRotate replaces the caller's backup codes and returns the new
// batch once.
func (h *HTTPEndpoint) BackupCodeRotate(r *router.Request) (any, error) {
	resp, err := h.uc.BackupCodeRotate(r.Context())
	if err != nil {
		return nil, err
	}

	return BackupCodeRotateResponse{Codes: resp.Codes}, nil
}

// BackupCodeVerify consumes a single-use backup code.
func (h *HTTPEndpoint) BackupCodeVerify(r *router.Request) (any, error) {
	var req BackupCodeVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.BackupCodeVerify(r.Context(), usecase.BackupCodeVerifyInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return nil, nil
}

// DeviceExport produces a CSV export of all devices and returns a download URL.
func (h *HTTPEndpoint) DeviceExport(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceExport(r.Context())
	if err != nil {
		return nil, err
	}

	return DeviceExportResponse{
		URL:       resp.URL,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}
