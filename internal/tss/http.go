package tss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
	"smarena/pkg/metrics"
	"smarena/pkg/tracing"
)

const arenaPath = "/api/v1/samhandler/arena"

type tssResponse struct {
	TSSID string `json:"tssid"`
}

type HTTPResolver struct {
	client *resty.Client
	logger logger.Logger
}

func NewHTTPResolver(cfg config.TSSConfig, log logger.Logger) *HTTPResolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &HTTPResolver{client: client, logger: log}
}

func (r *HTTPResolver) Resolve(ctx context.Context, fnr, orgName, requestID string) (string, error) {
	ctx, span := tracing.GetTracer("tss").Start(ctx, "tss.resolve")
	defer span.End()

	start := time.Now()
	var body tssResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader(constants.HeaderRequestID, requestID).
		SetHeader(constants.HeaderSamhandlerFnr, fnr).
		SetHeader(constants.HeaderSamhandlerOrgName, orgName).
		SetResult(&body).
		Get(arenaPath)
	if err != nil {
		metrics.IncTSSRequest("error", time.Since(start))
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		metrics.IncTSSRequest("found", time.Since(start))
		return body.TSSID, nil
	case http.StatusNotFound:
		metrics.IncTSSRequest("not_found", time.Since(start))
		r.logger.InfowCtx(ctx, "No tssid registered for practitioner", "org_name", orgName)
		return "", nil
	default:
		metrics.IncTSSRequest("error", time.Since(start))
		err := fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode())
		span.RecordError(err)
		return "", err
	}
}
