package platforms

import (
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// GitHub adapter (org members shape). GitHub frequently hides the email;
// such accounts survive the sync but stay out of identity resolution.
type GitHub struct{ base }

func NewGitHub(fetch RawFetcher) *GitHub {
	return &GitHub{base{platform: accounts.PlatformGitHub, fetch: fetch}}
}

func (g *GitHub) Normalize(rec accounts.RawRecord) (*accounts.Account, error) {
	id := strField(rec, "login", "id")
	if id == "" {
		return nil, malformed(g.platform, "missing login")
	}

	suspended := boolField(rec, "suspended")
	if strField(rec, "suspended_at") != "" {
		suspended = true
	}

	admin := boolField(rec, "site_admin")
	if strField(rec, "role") == "admin" {
		admin = true
	}

	return &accounts.Account{
		NativeID:     id,
		Email:        accounts.NormalizeEmail(strField(rec, "email")),
		DisplayName:  strField(rec, "name", "login"),
		IsAdmin:      admin,
		Suspended:    suspended,
		StrongAuth:   boolPtrField(rec, "two_factor_enabled"),
		LastActivity: timeField(rec, "last_active_at", "updated_at"),
		LicenseTier:  strField(rec, "plan"),
		FeatureUsage: floatPtrField(rec, "feature_usage"),
	}, nil
}
