package domain

// MailKind identifies the template of an outbound email.
type MailKind string

const (
	MailConfirmSignup MailKind = "confirm_signup"
	MailResetPassword MailKind = "reset_password"
	MailChangeEmail   MailKind = "change_email"
)

// OutboundMail is a transactional email queued by the identity provider.
type OutboundMail struct {
	Kind MailKind
	To   string
	Link string
}
