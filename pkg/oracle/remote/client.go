package remote

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/oracle"
)

const maxErrorBody = 4096

var _ oracle.Oracle = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// URL is the oracle base URL, e.g. http://oracle:9000
	URL     string
	Network oracle.Network
	Timeout time.Duration

	// Fee is the number of cycles attached to each sign request.
	Fee uint64

	// CacheSize and CacheTTL bound the public key cache. A zero size
	// disables caching.
	CacheSize int
	CacheTTL  time.Duration

	HTTPClient *http.Client
}

// Client is an oracle.Oracle backed by a remote oracle.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keyID      oracle.KeyID
	fee        uint64
	keys       *expirable.LRU[string, string]
}

// New returns a client for opts.URL.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("oracle URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(opts.URL, "/"),
		httpClient: httpClient,
		keyID:      opts.Network.KeyID(),
		fee:        opts.Fee,
	}
	if opts.CacheSize > 0 {
		c.keys = expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL)
	}
	return c, nil
}

func (c *Client) PublicKey(ctx context.Context, path derivation.Path) (string, error) {
	cacheKey := string(path.Encode())
	if c.keys != nil {
		if pub, ok := c.keys.Get(cacheKey); ok {
			return pub, nil
		}
	}

	var reply PublicKeyReply
	err := c.call(ctx, PublicKeyEndpoint, PublicKeyRequest{
		DerivationPath: path,
		KeyID:          c.keyID,
	}, &reply)
	if err != nil {
		return "", err
	}
	if len(reply.PublicKey) == 0 {
		return "", fmt.Errorf("%w: empty public key", oracle.ErrOracle)
	}

	pub := hex.EncodeToString(reply.PublicKey)
	if c.keys != nil {
		c.keys.Add(cacheKey, pub)
	}
	return pub, nil
}

func (c *Client) Sign(ctx context.Context, path derivation.Path, digest [32]byte) ([]byte, error) {
	var reply SignReply
	err := c.call(ctx, SignEndpoint, SignRequest{
		MessageHash:    digest[:],
		DerivationPath: path,
		KeyID:          c.keyID,
		Cycles:         c.fee,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if len(reply.Signature) != 64 {
		return nil, fmt.Errorf("%w: signature has %d bytes", oracle.ErrOracle, len(reply.Signature))
	}
	return reply.Signature, nil
}

func (c *Client) call(ctx context.Context, endpoint string, in, out interface{}) error {
	body, err := encMode.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", oracle.ErrOracle, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", oracle.ErrOracle, err)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", oracle.ErrOracle, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: %s", oracle.ErrOracle, endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read reply: %v", oracle.ErrOracle, err)
	}
	if err := decMode.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode reply: %v", oracle.ErrOracle, err)
	}
	return nil
}
