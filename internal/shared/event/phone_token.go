package event

const PhoneTokenDestination string = "phone_token"
const PhoneTokenDestinationConsumerDelivery string = "phone_token_delivery"

type PhoneTokenMessage struct {
	DeviceID  int64  `json:"device_id"`
	UserID    int64  `json:"user_id"`
	Method    string `json:"method"`
	Number    string `json:"number"`
	Extension string `json:"extension,omitempty"`
	Token     string `json:"token"`
}
