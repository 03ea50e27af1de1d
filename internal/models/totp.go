package models

// TOTPSetupResponse is returned when an account starts two-factor enrolment.
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`  // Base32 secret for manual entry
	QRCode      string `json:"qr_code"` // data: URL of a PNG QR code
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPEnableRequest confirms enrolment with a code from the authenticator.
type TOTPEnableRequest struct {
	Code string `json:"code"`
}

// TOTPDisableRequest requires both the password and a current code.
type TOTPDisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}
