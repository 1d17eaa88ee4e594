package platforms

import (
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// Slack adapter (users.list member shape)
type Slack struct{ base }

func NewSlack(fetch RawFetcher) *Slack {
	return &Slack{base{platform: accounts.PlatformSlack, fetch: fetch}}
}

func (s *Slack) Normalize(rec accounts.RawRecord) (*accounts.Account, error) {
	id := strField(rec, "id")
	if id == "" {
		return nil, malformed(s.platform, "missing id")
	}

	email := nestedStr(rec, "profile", "email")
	if email == "" {
		email = strField(rec, "email")
	}
	name := nestedStr(rec, "profile", "real_name")
	if name == "" {
		name = strField(rec, "real_name", "name")
	}

	return &accounts.Account{
		NativeID:    id,
		Email:       accounts.NormalizeEmail(email),
		DisplayName: name,
		IsAdmin:     boolField(rec, "is_admin", "is_owner", "is_primary_owner"),
		// a deleted Slack member is deactivated, not removed from the
		// workspace roster
		Suspended:    boolField(rec, "deleted"),
		StrongAuth:   boolPtrField(rec, "has_2fa"),
		LastActivity: timeField(rec, "last_active", "updated"),
		LicenseTier:  strField(rec, "plan"),
		FeatureUsage: floatPtrField(rec, "feature_usage"),
	}, nil
}
