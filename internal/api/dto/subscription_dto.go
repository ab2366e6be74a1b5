package dto

// SubscriptionKeys mirrors the browser PushSubscription key pair.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// EnableSubscriptionRequest matches PushSubscription.toJSON() from the
// browser, plus the reporting user agent.
type EnableSubscriptionRequest struct {
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	UserAgent string           `json:"user_agent"`
}

// DisableSubscriptionRequest removes one endpoint.
type DisableSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}

// EnableSubscriptionResponse reports the discriminated outcome.
type EnableSubscriptionResponse struct {
	Result string `json:"result"`
}

// PublicKeyResponse exposes the VAPID application server key.
type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}
