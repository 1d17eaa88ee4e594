package platforms

import (
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// AWS adapter (IAM credential-report-style shape). IAM users carry no
// license tier, so the cloud account contributes security signals only.
type AWS struct{ base }

func NewAWS(fetch RawFetcher) *AWS {
	return &AWS{base{platform: accounts.PlatformAWS, fetch: fetch}}
}

func (a *AWS) Normalize(rec accounts.RawRecord) (*accounts.Account, error) {
	id := strField(rec, "user_name", "arn")
	if id == "" {
		return nil, malformed(a.platform, "missing user_name")
	}

	return &accounts.Account{
		NativeID:    id,
		Email:       accounts.NormalizeEmail(strField(rec, "email")), // from the email tag, often absent
		DisplayName: strField(rec, "user_name"),
		IsAdmin:     boolField(rec, "admin", "has_admin_policy"),
		Suspended:   !boolField(rec, "password_enabled") && boolField(rec, "console_user"),
		StrongAuth:  boolPtrField(rec, "mfa_active"),
		LastActivity: timeField(rec,
			"password_last_used", "access_key_1_last_used_date"),
	}, nil
}
