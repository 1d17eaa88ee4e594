package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// RawFetcher is the external raw API client boundary: given a bearer
// credential it yields the platform's raw records, fully materialized.
type RawFetcher func(ctx context.Context, token string) ([]accounts.RawRecord, error)

type base struct {
	platform accounts.Platform
	fetch    RawFetcher
}

func (b base) Platform() accounts.Platform { return b.platform }

func (b base) FetchAccounts(ctx context.Context, token string) ([]accounts.RawRecord, error) {
	if b.fetch == nil {
		return nil, fmt.Errorf("%w: no fetcher wired for %s", accounts.ErrPlatformUnreachable, b.platform)
	}
	recs, err := b.fetch(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", accounts.ErrPlatformUnreachable, err)
	}
	return recs, nil
}

// HTTPFeed fetches raw records from a collector endpoint, passing the
// bearer credential through. The vendor-specific client (pagination, rate
// limits) lives behind that endpoint.
func HTTPFeed(url string) RawFetcher {
	client := &http.Client{Timeout: 30 * time.Second}
	return func(ctx context.Context, token string) ([]accounts.RawRecord, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
		}
		var recs []accounts.RawRecord
		if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
}

// FileFeed reads raw records from a JSON dump, for offline runs and tests
func FileFeed(path string) RawFetcher {
	return func(ctx context.Context, token string) ([]accounts.RawRecord, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var recs []accounts.RawRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
}

// New constructs the adapter for a platform, false when unsupported
func New(p accounts.Platform, fetch RawFetcher) (accounts.Adapter, bool) {
	switch p {
	case accounts.PlatformGoogleWorkspace:
		return NewGoogleWorkspace(fetch), true
	case accounts.PlatformSlack:
		return NewSlack(fetch), true
	case accounts.PlatformGitHub:
		return NewGitHub(fetch), true
	case accounts.PlatformZoom:
		return NewZoom(fetch), true
	case accounts.PlatformAWS:
		return NewAWS(fetch), true
	}
	return nil, false
}

//
// ==== field helpers ====
//

func strField(rec accounts.RawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
		}
	}
	return ""
}

func nestedStr(rec accounts.RawRecord, outer, inner string) string {
	if v, ok := rec[outer]; ok {
		if m, ok := v.(map[string]any); ok {
			if s, ok := m[inner].(string); ok {
				return s
			}
		}
	}
	return ""
}

func boolField(rec accounts.RawRecord, keys ...string) bool {
	for _, k := range keys {
		if v, ok := rec[k].(bool); ok && v {
			return true
		}
	}
	return false
}

// boolPtrField distinguishes "false" from "the platform never said"
func boolPtrField(rec accounts.RawRecord, keys ...string) *bool {
	for _, k := range keys {
		if v, ok := rec[k].(bool); ok {
			b := v
			return &b
		}
	}
	return nil
}

func floatPtrField(rec accounts.RawRecord, keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := rec[k].(float64); ok {
			f := v
			return &f
		}
	}
	return nil
}

// timeField parses RFC3339 strings or unix-second numbers. The epoch and
// anything before it mean "never": several vendors report 1970-01-01 for
// accounts that never logged in.
func timeField(rec accounts.RawRecord, keys ...string) *time.Time {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil || !t.After(time.Unix(0, 0)) {
				continue
			}
			t = t.UTC()
			return &t
		case float64:
			if v <= 0 {
				continue
			}
			t := time.Unix(int64(v), 0).UTC()
			return &t
		}
	}
	return nil
}

func malformed(platform accounts.Platform, msg string) error {
	return fmt.Errorf("%w: %s: %s", accounts.ErrMalformedRecord, platform, msg)
}
