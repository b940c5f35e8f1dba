package timeauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/textandchord/lockbox/internal/testutil"
)

func newTestDrand(doer HTTPDoer) *DrandAuthority {
	return NewDrandAuthorityWithDeps(doer, &testutil.FakeTimelockBox{})
}

func TestDrandNow(t *testing.T) {
	// Round r is emitted at genesis + (r-1)*period.
	testCases := []struct {
		name  string
		round uint64
		want  int64 // unix seconds
	}{
		{"first round", 1, testutil.DrandGenesis},
		{"later round", 1001, testutil.DrandGenesis + 1000*testutil.DrandPeriod},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			authority := newTestDrand(&testutil.FakeHTTPDoer{
				Responses: map[string]*http.Response{
					"/info":          testutil.MakeDrandInfoResponse(),
					"/public/latest": testutil.MakeDrandPublicResponse(tc.round),
				},
			})

			now, err := authority.Now(context.Background())
			if err != nil {
				t.Fatalf("Now failed: %v", err)
			}
			if now.Unix() != tc.want {
				t.Errorf("got %d, want %d", now.Unix(), tc.want)
			}
			if now.Location() != time.UTC {
				t.Errorf("expected UTC, got %v", now.Location())
			}
		})
	}
}

func TestDrandNow_Failures(t *testing.T) {
	mkResp := func(status int, body string) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
	}

	testCases := []struct {
		name string
		doer *testutil.FakeHTTPDoer
	}{
		{
			"network error on info",
			&testutil.FakeHTTPDoer{Errors: map[string]error{"/info": errors.New("connection refused")}},
		},
		{
			"network error on latest",
			&testutil.FakeHTTPDoer{
				Responses: map[string]*http.Response{"/info": testutil.MakeDrandInfoResponse()},
				Errors:    map[string]error{"/public/latest": errors.New("timeout")},
			},
		},
		{
			"http error status",
			&testutil.FakeHTTPDoer{Responses: map[string]*http.Response{"/info": mkResp(http.StatusBadGateway, "bad gateway")}},
		},
		{
			"malformed info json",
			&testutil.FakeHTTPDoer{Responses: map[string]*http.Response{"/info": mkResp(http.StatusOK, "{not json")}},
		},
		{
			"invalid period",
			&testutil.FakeHTTPDoer{Responses: map[string]*http.Response{"/info": mkResp(http.StatusOK, `{"period":0,"genesis_time":1}`)}},
		},
		{
			"chain hash mismatch",
			&testutil.FakeHTTPDoer{Responses: map[string]*http.Response{"/info": mkResp(http.StatusOK, `{"period":3,"genesis_time":1,"hash":"deadbeef"}`)}},
		},
		{
			"round zero",
			&testutil.FakeHTTPDoer{
				Responses: map[string]*http.Response{
					"/info":          testutil.MakeDrandInfoResponse(),
					"/public/latest": testutil.MakeDrandPublicResponse(0),
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newTestDrand(tc.doer).Now(context.Background()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDrandRoundAfter(t *testing.T) {
	authority := newTestDrand(&testutil.FakeHTTPDoer{
		Responses: map[string]*http.Response{"/info": testutil.MakeDrandInfoResponse()},
	})
	ctx := context.Background()

	testCases := []struct {
		name string
		t    time.Time
		want uint64
	}{
		{"genesis instant", time.Unix(testutil.DrandGenesis, 0), 1},
		{"mid period", time.Unix(testutil.DrandGenesis+1, 0), 2},
		{"exact period boundary", time.Unix(testutil.DrandGenesis+testutil.DrandPeriod, 0), 2},
		{"much later", time.Unix(testutil.DrandGenesis+100*testutil.DrandPeriod, 0), 101},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := authority.RoundAfter(ctx, tc.t)
			if err != nil {
				t.Fatalf("RoundAfter failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("got round %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("before genesis", func(t *testing.T) {
		if _, err := authority.RoundAfter(ctx, time.Unix(testutil.DrandGenesis-1, 0)); err == nil {
			t.Error("expected error for pre-genesis time, got nil")
		}
	})
}

func TestDrandInfoCached(t *testing.T) {
	authority := newTestDrand(&testutil.FakeHTTPDoer{
		Responses: map[string]*http.Response{"/info": testutil.MakeDrandInfoResponse()},
	})

	if _, err := authority.FetchInfo(context.Background()); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	// Swap in a client that always fails; the cached info must be served.
	authority.HTTPClient = &testutil.FakeHTTPDoer{
		Errors: map[string]error{"/info": errors.New("network gone")},
	}
	info, err := authority.FetchInfo(context.Background())
	if err != nil {
		t.Fatalf("cached fetch failed: %v", err)
	}
	if info.Period != testutil.DrandPeriod {
		t.Errorf("period: got %d, want %d", info.Period, testutil.DrandPeriod)
	}
}

func TestDrandDefaults(t *testing.T) {
	authority := NewDrandAuthority()
	if authority.Name() != "drand" {
		t.Errorf("name: got %q", authority.Name())
	}
	if authority.NetworkName != "quicknet" {
		t.Errorf("network: got %q", authority.NetworkName)
	}
	if authority.Timebox() == nil {
		t.Error("default authority has no timelock box")
	}
	if !strings.Contains(authority.BaseURL, drandQuicknetChainHash) {
		t.Errorf("base url %q does not pin the chain hash", authority.BaseURL)
	}
}
