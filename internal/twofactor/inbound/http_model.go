package inbound

import "time"

type SetupStartResponse struct {
	SessionToken string `json:"session_token"`
	Step         string `json:"step"`
}

type SetupMethodRequest struct {
	SessionToken string `json:"session_token"`
	Method       string `json:"method"`
}

type SetupStepResponse struct {
	Step string `json:"step"`
}

type SetupNumberRequest struct {
	SessionToken string `json:"session_token"`
	Number       string `json:"number"`
	Extension    string `json:"extension,omitempty"`
}

type SetupValidateRequest struct {
	SessionToken string `json:"session_token"`
	Token        string `json:"token"`
}

type SetupValidateResponse struct {
	DeviceID   int64  `json:"device_id,string"`
	SuccessURL string `json:"success_url"`
}

type PhoneDeviceResponse struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Method    string    `json:"method"`
	Number    string    `json:"number"`
	Extension string    `json:"extension,omitempty"`
	Digits    int       `json:"digits"`
	CreatedAt time.Time `json:"created_at"`
}

type ChallengeSendRequest struct {
	DeviceID int64 `json:"device_id,string"`
}

type ChallengeResponse struct {
	DeviceID int64  `json:"device_id,string"`
	Method   string `json:"method"`
}

type ChallengeVerifyRequest struct {
	DeviceID int64  `json:"device_id,string"`
	Token    string `json:"token"`
}

type BackupCodeRotateResponse struct {
	Codes []string `json:"codes"`
}

type BackupCodeVerifyRequest struct {
	Code string `json:"code"`
}

type DeviceExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
