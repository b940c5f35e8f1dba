package timeauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drand/tlock"
	thttp "github.com/drand/tlock/networks/http"
)

// HTTPDoer is the subset of http.Client the drand authority needs.
// Tests inject a fake.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TimelockBox abstracts tlock encryption of the shroud key so tests can run
// without the drand network.
type TimelockBox interface {
	// Encrypt time-locks the key to the target round.
	Encrypt(key []byte, targetRound uint64) ([]byte, error)

	// Decrypt recovers a time-locked key. Fails with ErrRoundNotReached while
	// the target round's randomness has not been published yet.
	Decrypt(blob []byte) ([]byte, error)
}

// ErrRoundNotReached reports a tlock decryption attempted before the target
// round's beacon exists. Distinct from transport failures.
var ErrRoundNotReached = errors.New("drand round not reached")

// DrandAuthority reads the current time off the drand randomness beacon.
// Rounds are emitted on a fixed schedule, so the latest published round is a
// clock: now = genesis + (round-1) * period. The beacon also powers tlock
// encryption of hardened containers via the Timelock box.
type DrandAuthority struct {
	NetworkName string
	BaseURL     string
	ChainHash   string
	HTTPClient  HTTPDoer
	Timelock    TimelockBox
	info        *DrandInfo // fetched once per process
}

// DrandInfo is the subset of the beacon's /info document the authority uses.
type DrandInfo struct {
	Period      int    `json:"period"`
	GenesisTime int64  `json:"genesis_time"`
	Hash        string `json:"hash"`
	SchemeID    string `json:"schemeID"`
	BeaconID    string `json:"beaconID"`
}

type drandPublicResponse struct {
	Round      uint64 `json:"round"`
	Randomness string `json:"randomness"`
}

func (d *DrandAuthority) Name() string {
	return "drand"
}

// Timebox exposes the authority's tlock implementation.
func (d *DrandAuthority) Timebox() TimelockBox {
	return d.Timelock
}

// Now fetches the latest published round and converts it to a UTC instant.
// Resolution is the beacon period (3s on quicknet).
func (d *DrandAuthority) Now(ctx context.Context) (time.Time, error) {
	info, err := d.FetchInfo(ctx)
	if err != nil {
		return time.Time{}, err
	}

	round, err := d.fetchLatestRound(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if round == 0 {
		return time.Time{}, fmt.Errorf("drand returned round 0")
	}

	return time.Unix(info.GenesisTime+int64(round-1)*int64(info.Period), 0).UTC(), nil
}

// RoundAfter calculates the first round whose emission time is at or after t.
// Hardened containers tlock their shroud key to this round.
func (d *DrandAuthority) RoundAfter(ctx context.Context, t time.Time) (uint64, error) {
	info, err := d.FetchInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch drand info: %w", err)
	}

	elapsed := t.Unix() - info.GenesisTime
	if elapsed < 0 {
		return 0, fmt.Errorf("time %s is before drand genesis", t.UTC().Format(time.RFC3339))
	}

	round := uint64(elapsed) / uint64(info.Period)
	if uint64(elapsed)%uint64(info.Period) != 0 {
		round++
	}
	// Round r is emitted at genesis + (r-1)*period.
	return round + 1, nil
}

// FetchInfo returns the beacon parameters, querying the network on first use.
func (d *DrandAuthority) FetchInfo(ctx context.Context) (*DrandInfo, error) {
	if d.info != nil {
		return d.info, nil
	}

	var info DrandInfo
	if err := d.getJSON(ctx, d.BaseURL+"/info", &info); err != nil {
		return nil, err
	}
	if info.Period <= 0 {
		return nil, fmt.Errorf("drand info reports invalid period %d", info.Period)
	}
	if d.ChainHash != "" && info.Hash != d.ChainHash {
		return nil, fmt.Errorf("drand info reports chain %s, want %s", info.Hash, d.ChainHash)
	}

	d.info = &info
	return &info, nil
}

func (d *DrandAuthority) fetchLatestRound(ctx context.Context) (uint64, error) {
	var resp drandPublicResponse
	if err := d.getJSON(ctx, d.BaseURL+"/public/latest", &resp); err != nil {
		return 0, err
	}
	return resp.Round, nil
}

func (d *DrandAuthority) getJSON(ctx context.Context, url string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout(ctx))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("drand request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("drand request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("drand response malformed: %w", err)
	}
	return nil
}

// RealTimelockBox implements TimelockBox against the actual drand network.
type RealTimelockBox struct {
	BaseURL   string
	ChainHash string
}

func (r *RealTimelockBox) Encrypt(key []byte, targetRound uint64) ([]byte, error) {
	network, err := thttp.NewNetwork(r.BaseURL, r.ChainHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create tlock network: %w", err)
	}

	var out bytes.Buffer
	if err := tlock.New(network).Encrypt(&out, bytes.NewReader(key), targetRound); err != nil {
		return nil, fmt.Errorf("failed to tlock key: %w", err)
	}
	return out.Bytes(), nil
}

func (r *RealTimelockBox) Decrypt(blob []byte) ([]byte, error) {
	network, err := thttp.NewNetwork(r.BaseURL, r.ChainHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create tlock network: %w", err)
	}

	var out bytes.Buffer
	if err := tlock.New(network).Decrypt(&out, bytes.NewReader(blob)); err != nil {
		if errors.Is(err, tlock.ErrTooEarly) {
			return nil, ErrRoundNotReached
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// drandQuicknetChainHash is the chain hash for drand quicknet.
const drandQuicknetChainHash = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"

// NewDrandAuthority creates a drand authority for the quicknet network.
func NewDrandAuthority() *DrandAuthority {
	return NewDrandAuthorityWithDeps(http.DefaultClient, nil)
}

// NewDrandAuthorityWithDeps creates a drand authority with injectable
// dependencies for testing.
func NewDrandAuthorityWithDeps(httpClient HTTPDoer, timelock TimelockBox) *DrandAuthority {
	if timelock == nil {
		timelock = &RealTimelockBox{
			BaseURL:   "https://api.drand.sh",
			ChainHash: drandQuicknetChainHash,
		}
	}

	return &DrandAuthority{
		NetworkName: "quicknet",
		BaseURL:     "https://api.drand.sh/" + drandQuicknetChainHash,
		ChainHash:   drandQuicknetChainHash,
		HTTPClient:  httpClient,
		Timelock:    timelock,
	}
}
