package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

type AuthToken struct{}

func (c *client) Post(ctx context.Context, urlstr string, recv, send any) error {
	var (
		request *http.Request
		err     error
		buffer  *bytes.Buffer
	)

	buffer = new(bytes.Buffer)
	if err = json.NewEncoder(buffer).Encode(send); err != nil {
		return err
	}
	if request, err = http.NewRequest("POST", urlstr, buffer); err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.DoWithBackoff(ctx, request, recv)
}

func (c *client) Get(ctx context.Context, urlstr string, recv interface{}) error {
	req, err := http.NewRequest("GET", urlstr, nil)
	if err != nil {
		return err
	}
	return c.DoWithBackoff(ctx, req, recv)
}

func (c *client) DoWithBackoff(ctx context.Context, req *http.Request, recv interface{}) error {
	var (
		initialInterval     = 500 * time.Millisecond
		randomizationFactor = 0.1
		multiplier          = 2.0
		maxInterval         = 5 * time.Second
		maxElapsedTime      = 2 * time.Minute
	)
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.RandomizationFactor = randomizationFactor
	exp.Multiplier = multiplier
	exp.MaxInterval = maxInterval
	exp.MaxElapsedTime = maxElapsedTime

	exp.Reset()
	f := func() error {
		err := c.Do(ctx, req, recv)
		// Client errors will never succeed on retry.
		if sc, ok := err.(*ErrStatusCode); ok && sc.Code >= 400 && sc.Code < 500 {
			return &backoff.PermanentError{Err: err}
		}
		return err
	}

	notify := func(err error, d time.Duration) {
		fmt.Fprintf(os.Stderr, "Retrying in %s after error: %v\n", d, err)
	}

	return backoff.RetryNotifyWithTimer(f, exp, notify, nil)
}

func (c *client) Do(ctx context.Context, req *http.Request, recv any) error {
	if token, ok := ctx.Value(AuthToken{}).(string); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var (
		response *http.Response
		err      error
		body     []byte
	)
	if response, err = c.Client.Do(req); err != nil {
		return err
	}

	defer response.Body.Close()
	if body, err = io.ReadAll(response.Body); err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &ErrStatusCode{response.StatusCode, body}
	}

	// Upserts with Prefer: return=minimal come back with an empty body.
	if recv == nil || len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, recv)
}
