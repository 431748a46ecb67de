package flow

// Step is the position in the login flow.
type Step int

const (
	StepIdentify      Step = 1
	StepBiometric     Step = 2
	StepAuthenticated Step = 3
)

func (s Step) String() string {
	switch s {
	case StepIdentify:
		return "identify"
	case StepBiometric:
		return "biometric"
	case StepAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgUserFound        = "User found! Please scan your fingerprint to continue."
	MsgUserNotFound     = "User not found. Please check your email/phone number or register first."
	MsgConnectionError  = "Connection error. Please try again."
	MsgDeviceNotReady   = "Fingerprint device not connected. Please check your device connection."
	MsgScanErrorPrefix  = "Fingerprint scanning error: "
	MsgVerifyFailed     = "Fingerprint verification failed. Please try again."
	MsgVerifiedRedirect = "Fingerprint verified successfully! Redirecting to dashboard..."

	StatusDeviceReady   = "Device connected and ready"
	StatusDeviceLimited = "Device service reachable, device details unavailable"
	StatusDeviceMissing = "Fingerprint device not detected. Please ensure device is connected."
	StatusPlaceFinger   = "Please place your finger on the scanner..."
	StatusVerifying     = "Verifying fingerprint..."
	StatusScanFailed    = "Scan failed"
	StatusVerifyFailed  = "Verification failed"
	StatusAuthenticated = "Authentication successful"
)

// State is a snapshot of the controller, safe to read after Snapshot
// returns.
type State struct {
	Step    Step
	Loading bool

	// Error is the user-facing message; Err carries the classified cause
	// (one of the common.Err* sentinels, possibly wrapped).
	Error   string
	Err     error
	Success string

	DeviceStatus    string
	DeviceConnected bool

	Credential string
	User       map[string]any

	// FocusCredential asks the view to put the cursor back on the
	// credential input.
	FocusCredential bool
}
