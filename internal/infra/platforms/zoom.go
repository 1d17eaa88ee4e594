package platforms

import (
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// Zoom adapter (users list shape). Zoom reports the plan as a numeric type:
// 1 basic, 2 licensed, 3 on-prem.
type Zoom struct{ base }

func NewZoom(fetch RawFetcher) *Zoom {
	return &Zoom{base{platform: accounts.PlatformZoom, fetch: fetch}}
}

var zoomTiers = map[string]string{
	"1": "basic",
	"2": "licensed",
	"3": "on_prem",
}

func (z *Zoom) Normalize(rec accounts.RawRecord) (*accounts.Account, error) {
	id := strField(rec, "id")
	if id == "" {
		return nil, malformed(z.platform, "missing id")
	}
	email := strField(rec, "email")
	if email == "" {
		return nil, malformed(z.platform, "missing email")
	}

	tier := zoomTiers[strField(rec, "type")]
	if tier == "" {
		tier = strField(rec, "plan")
	}

	role := strField(rec, "role_name")
	status := strField(rec, "status")

	return &accounts.Account{
		NativeID:     id,
		Email:        accounts.NormalizeEmail(email),
		DisplayName:  strField(rec, "display_name", "first_name"),
		IsAdmin:      role == "Owner" || role == "Admin",
		Suspended:    status == "inactive" || status == "deactivated",
		LastActivity: timeField(rec, "last_login_time"),
		LicenseTier:  tier,
		FeatureUsage: floatPtrField(rec, "meeting_usage", "feature_usage"),
	}, nil
}
