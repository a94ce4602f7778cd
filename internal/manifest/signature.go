package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/crypto"

	"github.com/nightwatch-dev/nwupd/internal/httputil"
)

const (
	// maxKeySize is the maximum allowed size for a PGP public key (100KB).
	maxKeySize = 100 * 1024

	// keyFetchTimeout is the timeout for fetching a key from a URL.
	keyFetchTimeout = 30 * time.Second
)

// fingerprintRegex matches valid 40-character hex fingerprints.
var fingerprintRegex = regexp.MustCompile(`^[0-9A-Fa-f]{40}$`)

// Verifier checks the manifest's detached PGP signature against a pinned
// key fingerprint. The armored key is fetched once and cached next to the
// game directory so later runs verify offline.
type Verifier struct {
	fingerprint string
	keyURL      string
	cacheDir    string
}

// NewVerifier creates a Verifier for the given pinned fingerprint.
// Returns an error if the fingerprint is not 40 hex characters.
func NewVerifier(fingerprint, keyURL, cacheDir string) (*Verifier, error) {
	if !fingerprintRegex.MatchString(fingerprint) {
		return nil, fmt.Errorf("invalid fingerprint format: must be 40 hex characters, got %q", fingerprint)
	}
	return &Verifier{
		fingerprint: strings.ToUpper(fingerprint),
		keyURL:      keyURL,
		cacheDir:    cacheDir,
	}, nil
}

// Verify checks sig as a detached signature over data.
func (v *Verifier) Verify(ctx context.Context, data, sig []byte) error {
	key, err := v.key(ctx)
	if err != nil {
		return err
	}

	signature, err := crypto.NewPGPSignatureFromArmored(string(sig))
	if err != nil {
		// Try as binary signature
		signature = crypto.NewPGPSignature(sig)
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return fmt.Errorf("failed to create keyring: %w", err)
	}

	// Use 0 for verifyTime to accept signatures at any time
	if err := keyRing.VerifyDetached(crypto.NewPlainMessage(data), signature, 0); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// key returns the pinned public key, from cache or by fetching it.
func (v *Verifier) key(ctx context.Context) (*crypto.Key, error) {
	if key, err := v.loadFromCache(); err == nil {
		return key, nil
	}

	key, armored, err := v.fetchKey(ctx)
	if err != nil {
		return nil, err
	}

	// Cache failures are not fatal; the key is still usable this run.
	_ = v.saveToCache(armored)

	return key, nil
}

// loadFromCache attempts to load the key from the cache directory.
func (v *Verifier) loadFromCache() (*crypto.Key, error) {
	cachePath := filepath.Join(v.cacheDir, v.fingerprint+".asc")

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, err
	}

	key, err := crypto.NewKeyFromArmored(string(data))
	if err != nil {
		// Cached key is corrupted, remove it
		os.Remove(cachePath)
		return nil, fmt.Errorf("cached key is invalid: %w", err)
	}

	if strings.ToUpper(key.GetFingerprint()) != v.fingerprint {
		// Cache file has wrong key - remove it
		os.Remove(cachePath)
		return nil, fmt.Errorf("cached key fingerprint mismatch")
	}

	return key, nil
}

// fetchKey downloads the key and validates its fingerprint.
func (v *Verifier) fetchKey(ctx context.Context) (*crypto.Key, string, error) {
	if v.keyURL == "" {
		return nil, "", fmt.Errorf("manifest_key_url is not configured and key %s is not cached", v.fingerprint)
	}

	ctx, cancel := context.WithTimeout(ctx, keyFetchTimeout)
	defer cancel()

	client := httputil.NewClient(httputil.ClientOptions{Timeout: keyFetchTimeout})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keyURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create key request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch key from %s: %w", v.keyURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch key: HTTP %d", resp.StatusCode)
	}

	// Limit response size to prevent resource exhaustion
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read key: %w", err)
	}
	if len(data) > maxKeySize {
		return nil, "", fmt.Errorf("key exceeds maximum size of %d bytes", maxKeySize)
	}

	armored := string(data)
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse PGP key: %w", err)
	}

	if got := strings.ToUpper(key.GetFingerprint()); got != v.fingerprint {
		return nil, "", fmt.Errorf("key fingerprint mismatch: expected %s, got %s", v.fingerprint, got)
	}

	return key, armored, nil
}

// saveToCache stores the armored key in the cache directory.
func (v *Verifier) saveToCache(armored string) error {
	if err := os.MkdirAll(v.cacheDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(v.cacheDir, v.fingerprint+".asc"), []byte(armored), 0600)
}
