// Package testutil provides shared fakes for exercising the time authority
// and hardened-sealing paths without touching the network.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// FakeHTTPDoer serves canned responses and injected failures keyed by URL
// path suffix, so the same entry covers an endpoint regardless of the chain
// hash segment in front of it. Injected failures win over canned responses,
// and unknown paths come back 404.
type FakeHTTPDoer struct {
	Responses map[string]*http.Response
	Errors    map[string]error
}

func (f *FakeHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	for suffix, err := range f.Errors {
		if strings.HasSuffix(endpoint, suffix) {
			return nil, err
		}
	}
	for suffix, canned := range f.Responses {
		if strings.HasSuffix(endpoint, suffix) {
			return replay(canned), nil
		}
	}
	return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody}, nil
}

// replay snapshots a canned response's body back into it and hands out an
// independent copy, so one entry can satisfy any number of requests.
func replay(canned *http.Response) *http.Response {
	body, _ := io.ReadAll(canned.Body)
	canned.Body.Close()
	canned.Body = io.NopCloser(bytes.NewReader(body))

	return &http.Response{
		StatusCode: canned.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// DrandGenesis is the genesis time used by the canned drand responses.
const DrandGenesis = int64(1677685200)

// DrandPeriod is the beacon period in seconds used by the canned responses.
const DrandPeriod = 3

// MakeDrandInfoResponse creates a fake drand /info response with fixed
// genesis and period for deterministic tests.
func MakeDrandInfoResponse() *http.Response {
	info := struct {
		Period      int    `json:"period"`
		GenesisTime int64  `json:"genesis_time"`
		Hash        string `json:"hash"`
		SchemeID    string `json:"schemeID"`
		BeaconID    string `json:"beaconID"`
	}{
		Period:      DrandPeriod,
		GenesisTime: DrandGenesis,
		Hash:        "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971",
		SchemeID:    "bls-unchained-on-g1",
		BeaconID:    "quicknet",
	}
	body, _ := json.Marshal(info)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// MakeDrandPublicResponse creates a fake drand /public/latest response
// reporting the given round.
func MakeDrandPublicResponse(round uint64) *http.Response {
	resp := struct {
		Round      uint64 `json:"round"`
		Randomness string `json:"randomness"`
	}{
		Round:      round,
		Randomness: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
	}
	body, _ := json.Marshal(resp)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// FakeTimelockBox is a reversible stand-in for tlock. It prefixes the key
// instead of encrypting it and can simulate failures or a round that has not
// been reached.
type FakeTimelockBox struct {
	EncryptError error
	DecryptError error

	// LastRound records the target round of the most recent Encrypt call.
	LastRound uint64
}

const fakeTlockPrefix = "FAKE_TLOCK:"

func (f *FakeTimelockBox) Encrypt(key []byte, targetRound uint64) ([]byte, error) {
	if f.EncryptError != nil {
		return nil, f.EncryptError
	}
	f.LastRound = targetRound
	return append([]byte(fakeTlockPrefix), key...), nil
}

func (f *FakeTimelockBox) Decrypt(blob []byte) ([]byte, error) {
	if f.DecryptError != nil {
		return nil, f.DecryptError
	}
	if !bytes.HasPrefix(blob, []byte(fakeTlockPrefix)) {
		return nil, io.ErrUnexpectedEOF
	}
	return bytes.Clone(bytes.TrimPrefix(blob, []byte(fakeTlockPrefix))), nil
}
