package gobayeux

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// HTTPTransport issues one Bayeux request per call as a single HTTP POST,
// decoding the server's JSON array response synchronously. It is used for
// the initial handshake even when the session will move to a WebSocket
// transport for everything after, since a handshake response is never
// pushed asynchronously.
type HTTPTransport struct {
	client        *http.Client
	serverAddress *url.URL
}

// NewHTTPTransport builds an HTTPTransport against serverAddress. If client
// is nil, a new one is created with a public-suffix-aware cookie jar so
// that session cookies set by the Bayeux server are retained across
// requests. If roundTripper is nil, http.DefaultTransport is used.
func NewHTTPTransport(client *http.Client, roundTripper http.RoundTripper, serverAddress string) (*HTTPTransport, error) {
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}

		client = &http.Client{
			Transport:     http.DefaultClient.Transport,
			CheckRedirect: http.DefaultClient.CheckRedirect,
			Jar:           jar,
			Timeout:       http.DefaultClient.Timeout,
		}
	}
	if roundTripper == nil {
		roundTripper = http.DefaultTransport
	}
	client.Transport = roundTripper

	parsedAddress, err := url.Parse(serverAddress)
	if err != nil {
		return nil, err
	}

	return &HTTPTransport{client: client, serverAddress: parsedAddress}, nil
}

// Request implements Transport.
func (t *HTTPTransport) Request(ctx context.Context, ms []Message) ([]Message, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(ms); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.serverAddress.String(), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	return t.parseResponse(resp)
}

func (t *HTTPTransport) parseResponse(resp *http.Response) ([]Message, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, BadResponseError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}

	messages := make([]Message, 0)
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ConnectionType implements Transport.
func (t *HTTPTransport) ConnectionType() string {
	return ConnectionTypeLongPolling
}

// Close implements Transport. HTTPTransport holds no connection to
// release; it is a no-op.
func (t *HTTPTransport) Close() error {
	return nil
}

var _ Transport = (*HTTPTransport)(nil)
