// Package partnerapi is the outbound adapter for the delivery partner's HTTP
// API: token signing, the delivery endpoints, and error classification into
// the errs taxonomy.
package partnerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/pkg/errs"
)

const (
	createDeliveryPath = "/drive/v2/deliveries"

	// Status endpoint shapes in fixed priority order: primary dispatch id,
	// external id, legacy alias. GetStatus returns the first success.
	statusByIDPath       = "/drive/v2/deliveries/%s"
	statusByExternalPath = "/drive/v2/deliveries/external/%s"
	statusLegacyPath     = "/v1/deliveries/%s"

	cancelPath = "/drive/v2/deliveries/%s/cancel"
	readyPath  = "/drive/v2/deliveries/%s/ready"

	// connectivityCheckID is a delivery id that never exists. A 404 on it
	// proves the credentials are accepted; only a 401 means they are not.
	connectivityCheckID = "connectivity-check"
)

// Client performs partner network calls. All requests are bound by the
// configured timeout; exceeding it is classified as a transport error
// identical to a connection failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *CredentialSigner
	logger     *slog.Logger
}

// NewClient creates a partner API client. timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, signer *CredentialSigner, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signer: signer,
		logger: logger.With("component", "partner_client"),
	}
}

// CreateDelivery submits a courier dispatch request.
//
// A 409 duplicate-id response is not an error: the delivery already exists, so
// the stored info from the response body is surfaced with status "existing".
// A 401 yields errs.AuthError naming credential length and prefix, never the
// secret, and is not retried.
func (c *Client) CreateDelivery(ctx context.Context, payload partner.DispatchPayload) (*partner.DispatchResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, createDeliveryPath, payload)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return partner.ParseResult(body)

	case status == http.StatusConflict:
		result, parseErr := partner.ParseResult(body)
		if parseErr != nil {
			result = &partner.DispatchResult{Raw: body}
		}
		result.Status = partner.StatusExisting
		if result.ExternalID == "" {
			result.ExternalID = payload.ExternalDeliveryID
		}
		c.logger.InfoContext(ctx, "Delivery already exists at partner",
			"external_delivery_id", payload.ExternalDeliveryID, "dispatch_id", result.ID)
		return result, nil
	}

	return nil, c.classify(ctx, "create delivery", payload.ExternalDeliveryID, status, body)
}

// GetStatus fetches delivery state, trying the known endpoint shapes in fixed
// priority order and returning the first success. When every shape fails the
// last error propagates; a 404 surfaces as errs.ObjectNotFoundError, which
// status pollers treat as "not found yet" rather than a failure.
func (c *Client) GetStatus(ctx context.Context, id string) (*partner.DispatchResult, error) {
	paths := []string{
		fmt.Sprintf(statusByIDPath, id),
		fmt.Sprintf(statusByExternalPath, id),
		fmt.Sprintf(statusLegacyPath, id),
	}

	var lastErr error
	for _, path := range paths {
		status, body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			lastErr = err
			continue
		}

		if status == http.StatusOK {
			return partner.ParseResult(body)
		}

		lastErr = c.classify(ctx, "get delivery status", id, status, body)
	}

	return nil, lastErr
}

// Cancel asks the partner to cancel an in-flight delivery.
func (c *Client) Cancel(ctx context.Context, id, reason string) (*partner.DispatchResult, error) {
	body := map[string]string{"cancel_reason": reason}

	status, respBody, err := c.do(ctx, http.MethodPut, fmt.Sprintf(cancelPath, id), body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK {
		return partner.ParseResult(respBody)
	}

	return nil, c.classify(ctx, "cancel delivery", id, status, respBody)
}

// MarkReadyForPickup tells the partner the order is ready at the merchant.
func (c *Client) MarkReadyForPickup(ctx context.Context, id string) (*partner.DispatchResult, error) {
	status, body, err := c.do(ctx, http.MethodPut, fmt.Sprintf(readyPath, id), nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK {
		return partner.ParseResult(body)
	}

	return nil, c.classify(ctx, "mark ready for pickup", id, status, body)
}

// TestConnection performs one lightweight authenticated call. 200, 403 and
// 404 all imply the credentials are valid (403/404 just mean insufficient or
// absent resource); only a 401 is a hard auth failure.
func (c *Client) TestConnection(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(statusByIDPath, connectivityCheckID), nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK, http.StatusForbidden, http.StatusNotFound:
		return nil
	case http.StatusUnauthorized:
		return errs.NewAuthError(c.signer.Credentials().Diagnostic())
	}

	return c.classify(ctx, "test connection", connectivityCheckID, status, body)
}

// do signs and executes one request, returning the raw status and body.
// Network failures and timeouts come back as errs.TransportError.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	token, err := c.signer.GetToken()
	if err != nil {
		return 0, nil, err
	}

	var bodyReader io.Reader
	if payload != nil {
		jsonData, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return 0, nil, fmt.Errorf("error marshalling request: %w", marshalErr)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errs.NewTransportError(method+" "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errs.NewTransportError(method+" "+path, err)
	}

	return resp.StatusCode, body, nil
}

// classify maps a non-success partner status to the errs taxonomy.
func (c *Client) classify(ctx context.Context, op, id string, status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		err := errs.NewAuthError(c.signer.Credentials().Diagnostic())
		c.logger.ErrorContext(ctx, "Partner rejected credentials", "op", op, "diagnostic", err.Diagnostic)
		return err

	case status == http.StatusNotFound:
		return errs.NewObjectNotFoundError("delivery", id)

	case status >= http.StatusInternalServerError:
		return errs.NewTransportError(op, fmt.Errorf("partner returned status %d", status))
	}

	var parsed apiErrorResponse
	_ = json.Unmarshal(body, &parsed)

	code := parsed.Code
	if code == "" {
		code = parsed.Err
	}

	return &DispatchAPIError{
		StatusCode: status,
		Code:       code,
		Message:    parsed.Message,
		Body:       string(body),
	}
}
