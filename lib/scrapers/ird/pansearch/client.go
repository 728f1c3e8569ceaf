package pansearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"ird-scraper/lib/scrapers/ird/core"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNoPanDetails = errors.New("no details found for pan")
	ErrInvalidPan   = errors.New("pan must be 9 digits")
)

var panRegex = regexp.MustCompile(`^\d{9}$`)

func ValidatePan(pan string) error {
	if !panRegex.MatchString(pan) {
		return fmt.Errorf("%w: %q", ErrInvalidPan, pan)
	}
	return nil
}

type ClientOptions struct {
	Endpoints core.Endpoints
	Http      core.HttpOptions
}

// Client looks up public PAN registration details. it keeps no session, every
// lookup carries the cookies of its own challenge.
type Client struct {
	http      *resty.Client
	endpoints core.Endpoints
}

func NewClient(opts ClientOptions) (*Client, error) {
	httpOpts := opts.Http
	httpOpts.Jar = false
	if httpOpts.TracerName == "" {
		httpOpts.TracerName = "ird/pansearch/http"
	}
	client, err := core.NewHttpClient(httpOpts)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:      client,
		endpoints: opts.Endpoints.WithDefaults(),
	}, nil
}

// FetchChallenge loads the search page and solves its captcha.
func (c *Client) FetchChallenge(ctx context.Context) (*Challenge, error) {
	ctx, span := tracer.Start(ctx, "client:FetchChallenge")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.endpoints.PanSearchPage)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch pan search page", "url", c.endpoints.PanSearchPage, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch search page")
		return nil, fmt.Errorf("fetch %s: %w", c.endpoints.PanSearchPage, err)
	}
	slog.DebugContext(ctx, "fetched pan search page", "cookies", len(res.Cookies()))

	challenge, err := ParseChallenge(res.String())
	if err != nil {
		slog.ErrorContext(ctx, "captcha or token not found in the response", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse challenge")
		return nil, err
	}
	challenge.Cookies = res.Cookies()

	span.SetAttributes(attribute.String("question", challenge.Question))
	return &challenge, nil
}

// Lookup submits a challenge together with the PAN, a challenge can only be
// submitted once.
func (c *Client) Lookup(ctx context.Context, challenge *Challenge, pan string) (core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:Lookup")
	defer span.End()

	err := challenge.Consume()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetCookies(challenge.Cookies).
		SetBody(map[string]any{
			"_token":  challenge.Token,
			"pan":     pan,
			"captcha": challenge.Answer,
		}).
		Post(c.endpoints.PanDetails)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to post pan details request", "url", c.endpoints.PanDetails, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post pan details request")
		return nil, fmt.Errorf("post %s: %w", c.endpoints.PanDetails, err)
	}

	body := strings.TrimSpace(res.String())
	if body == "0" || body == "" {
		slog.WarnContext(ctx, "received an empty response from the server", "pan", pan)
		span.SetStatus(codes.Error, ErrNoPanDetails.Error())
		return nil, fmt.Errorf("%w: %s", ErrNoPanDetails, pan)
	}

	rec, err := core.DecodeRecord(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode pan details")
		return nil, err
	}
	return rec, nil
}

// GetPanDetails fetches a fresh challenge and looks up `pan` with it.
func (c *Client) GetPanDetails(ctx context.Context, pan string) (core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:GetPanDetails")
	defer span.End()
	span.SetAttributes(attribute.String("pan", pan))

	err := ValidatePan(pan)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	challenge, err := c.FetchChallenge(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch challenge")
		return nil, err
	}
	return c.Lookup(ctx, challenge, pan)
}
