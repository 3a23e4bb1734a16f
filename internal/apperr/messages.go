package apperr

// Stable error codes.
const (
	CodeInvalidEmail          = "invalid_email"
	CodeInvalidPasswordFormat = "invalid_password_format"
	CodeWeakPassword          = "weak_password"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeEmailNotConfirmed     = "email_not_confirmed"
	CodeSignupDisabled        = "signup_disabled"
	CodeEmailExists           = "email_exists"
	CodeUnexpected            = "unexpected_error"

	CodeEmptyTitle         = "empty_title"
	CodeNotifyBeforeRange  = "notify_before_out_of_range"
	CodeUnknownChannel     = "unknown_channel"
	CodeEmptyChannelName   = "empty_channel_name"
	CodeLogoNotImage       = "logo_not_image"
	CodeSubmissionInFlight = "submission_in_flight"
	CodeFormClosed         = "form_closed"
	CodeForbidden          = "forbidden"
	CodeNotAdmin           = "not_admin"
	CodeInvalidDate        = "invalid_date"
	CodeInvalidRequest     = "invalid_request"

	CodeUnauthenticated    = "unauthenticated"
	CodeNetworkUnavailable = "network_unavailable"
	CodeNotFound           = "not_found"
)

var userMessages = map[string]string{
	CodeInvalidEmail:          "Please enter a valid email address.",
	CodeInvalidPasswordFormat: "Password must be at least 6 characters and contain an upper-case letter, a lower-case letter and a digit.",
	CodeWeakPassword:          "Password is too weak. Use at least 6 characters with upper-case, lower-case letters and a digit.",
	CodeInvalidCredentials:    "Invalid email or password.",
	CodeEmailNotConfirmed:     "Please confirm your email address before logging in.",
	CodeSignupDisabled:        "New registrations are currently disabled.",
	CodeEmailExists:           "An account with this email already exists.",
	CodeUnexpected:            "Something went wrong. Please try again.",

	CodeEmptyTitle:         "Title must not be empty.",
	CodeNotifyBeforeRange:  "Notify before must be between 1 and 14 days.",
	CodeUnknownChannel:     "The selected channel does not exist.",
	CodeEmptyChannelName:   "Channel name must not be empty.",
	CodeLogoNotImage:       "The logo must be an image file.",
	CodeSubmissionInFlight: "A submission is already in progress.",
	CodeFormClosed:         "The form is not open.",
	CodeForbidden:          "You are not allowed to do that.",
	CodeNotAdmin:           "Administrator access is required.",
	CodeInvalidDate:        "Please pick a valid date.",
	CodeInvalidRequest:     "The request could not be understood.",

	CodeUnauthenticated:    "Please log in again.",
	CodeNetworkUnavailable: "The service is unreachable. Showing the last known data.",
	CodeNotFound:           "The requested item was not found.",
}

// UserMessage maps err to the fixed user-facing message for its code.
// Errors without a known code get the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := userMessages[CodeOf(err)]; ok {
		return msg
	}
	return userMessages[CodeUnexpected]
}
