package dto

type DeleteAccountResponse struct {
	Deleted bool `json:"deleted"`
	// DataRetention maps each data category to what happens to it, so the
	// caller UI can explain what persists after deletion.
	DataRetention map[string]string `json:"dataRetention"`
}

// GrantSubscriptionRequest is the support-override path: it writes the same
// subscription row the IAP flows would, without a transaction id.
type GrantSubscriptionRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	Tier         string `json:"tier" validate:"required,oneof=buddypass bestfriends soulmates"`
	DurationDays int    `json:"duration_days" validate:"required,min=1,max=36500"`
}

func (r GrantSubscriptionRequest) Validate() error {
	return validate.Struct(r)
}
