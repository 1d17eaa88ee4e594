package platforms

import (
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// GoogleWorkspace adapter (Admin SDK Directory users shape)
type GoogleWorkspace struct{ base }

func NewGoogleWorkspace(fetch RawFetcher) *GoogleWorkspace {
	return &GoogleWorkspace{base{platform: accounts.PlatformGoogleWorkspace, fetch: fetch}}
}

func (g *GoogleWorkspace) Normalize(rec accounts.RawRecord) (*accounts.Account, error) {
	id := strField(rec, "id")
	if id == "" {
		return nil, malformed(g.platform, "missing id")
	}
	email := strField(rec, "primaryEmail")
	if email == "" {
		return nil, malformed(g.platform, "missing primaryEmail")
	}

	name := nestedStr(rec, "name", "fullName")
	if name == "" {
		name = strField(rec, "fullName")
	}

	return &accounts.Account{
		NativeID:     id,
		Email:        accounts.NormalizeEmail(email),
		DisplayName:  name,
		IsAdmin:      boolField(rec, "isAdmin", "isDelegatedAdmin"),
		Suspended:    boolField(rec, "suspended", "archived"),
		StrongAuth:   boolPtrField(rec, "isEnrolledIn2Sv"),
		LastActivity: timeField(rec, "lastLoginTime"),
		LicenseTier:  strField(rec, "licenseSku"),
		FeatureUsage: floatPtrField(rec, "featureUsage"),
	}, nil
}
