package platforms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

func TestGoogleNormalize(t *testing.T) {
	g := NewGoogleWorkspace(nil)
	acct, err := g.Normalize(accounts.RawRecord{
		"id":              "1001",
		"primaryEmail":    "Maria@Corp.COM",
		"name":            map[string]any{"fullName": "Maria Garcia"},
		"isAdmin":         true,
		"isEnrolledIn2Sv": false,
		"lastLoginTime":   "2026-01-15T08:30:00Z",
		"licenseSku":      "business_plus",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if acct.NativeID != "1001" {
		t.Errorf("native id = %q", acct.NativeID)
	}
	if acct.Email != "maria@corp.com" {
		t.Errorf("email = %q, want lowercased", acct.Email)
	}
	if !acct.IsAdmin {
		t.Errorf("isAdmin not mapped")
	}
	if acct.StrongAuth == nil || *acct.StrongAuth {
		t.Errorf("strong auth = %v, want explicit false", acct.StrongAuth)
	}
	if acct.LastActivity == nil || !acct.LastActivity.Equal(time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("last activity = %v", acct.LastActivity)
	}
	if acct.LicenseTier != "business_plus" {
		t.Errorf("tier = %q", acct.LicenseTier)
	}
}

func TestGoogleNormalizeMissingEmail(t *testing.T) {
	g := NewGoogleWorkspace(nil)
	if _, err := g.Normalize(accounts.RawRecord{"id": "1001"}); !errors.Is(err, accounts.ErrMalformedRecord) {
		t.Fatalf("err = %v, want malformed record", err)
	}
}

func TestSlackNormalizeDeletedMember(t *testing.T) {
	s := NewSlack(nil)
	acct, err := s.Normalize(accounts.RawRecord{
		"id":      "U123",
		"profile": map[string]any{"email": "bot@corp.com", "real_name": "Deploy Bot"},
		"deleted": true,
		"has_2fa": true,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !acct.Suspended {
		t.Errorf("deleted member must map to suspended")
	}
	if acct.Email != "bot@corp.com" {
		t.Errorf("email = %q, want the profile email", acct.Email)
	}
	if acct.StrongAuth == nil || !*acct.StrongAuth {
		t.Errorf("has_2fa not mapped")
	}
}

func TestGitHubNormalizeNoEmail(t *testing.T) {
	g := NewGitHub(nil)
	acct, err := g.Normalize(accounts.RawRecord{
		"login":        "octocat",
		"site_admin":   false,
		"role":         "admin",
		"suspended_at": "2025-12-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	// hidden email is valid; the resolver excludes it from identity merging
	if acct.Email != "" {
		t.Errorf("email = %q, want empty", acct.Email)
	}
	if !acct.IsAdmin {
		t.Errorf("org role admin must count")
	}
	if !acct.Suspended {
		t.Errorf("suspended_at timestamp must map to suspended")
	}
	if acct.StrongAuth != nil {
		t.Errorf("absent two_factor_enabled must stay nil, got %v", acct.StrongAuth)
	}
}

func TestZoomNormalizeTiers(t *testing.T) {
	z := NewZoom(nil)
	acct, err := z.Normalize(accounts.RawRecord{
		"id":              "z-1",
		"email":           "Host@Corp.com",
		"type":            float64(2),
		"role_name":       "Admin",
		"status":          "inactive",
		"last_login_time": "2026-02-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if acct.LicenseTier != "licensed" {
		t.Errorf("tier = %q, want licensed for type 2", acct.LicenseTier)
	}
	if !acct.IsAdmin || !acct.Suspended {
		t.Errorf("role/status not mapped: %+v", acct)
	}
	if acct.StrongAuth != nil {
		t.Errorf("zoom exposes no 2fa flag, want nil")
	}
}

func TestAWSNormalizeEpochMeansNever(t *testing.T) {
	a := NewAWS(nil)
	acct, err := a.Normalize(accounts.RawRecord{
		"user_name":          "deploy-bot",
		"has_admin_policy":   true,
		"mfa_active":         false,
		"password_last_used": "1970-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if acct.LastActivity != nil {
		t.Errorf("epoch timestamp means never logged in, got %v", acct.LastActivity)
	}
	if acct.Email != "" {
		t.Errorf("IAM user without an email tag stays unmerged")
	}
	if acct.LicenseTier != "" {
		t.Errorf("aws carries no license tier")
	}
}

func TestHTTPFeed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"id":"U1","email":"a@x.com"}]`))
	}))
	defer srv.Close()

	fetch := HTTPFeed(srv.URL)
	recs, err := fetch(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(recs) != 1 || recs[0]["id"] != "U1" {
		t.Errorf("records = %v", recs)
	}
}

func TestHTTPFeedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter, _ := New(accounts.PlatformSlack, HTTPFeed(srv.URL))
	_, err := adapter.FetchAccounts(context.Background(), "tok")
	if !errors.Is(err, accounts.ErrPlatformUnreachable) {
		t.Fatalf("err = %v, want platform unreachable", err)
	}
}

func TestNewCoversAllPlatforms(t *testing.T) {
	for _, p := range accounts.AllPlatforms() {
		adapter, ok := New(p, nil)
		if !ok {
			t.Errorf("no adapter for %s", p)
			continue
		}
		if adapter.Platform() != p {
			t.Errorf("adapter for %s reports %s", p, adapter.Platform())
		}
	}
}
