package taxpayer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ird-scraper/lib/scrapers/ird/core"
	"ird-scraper/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrLoginFailed = errors.New("failed to login to the taxpayer portal")
	ErrNotLoggedIn = errors.New("not logged in")
)

// the portal's own spelling
const loginSuccessMarker = "User Login Succcessful"

const (
	DefaultReportedIP  = "127.0.0.1"
	DefaultTdsFromDate = "2060.01.01"
	DefaultTdsPageSize = 25
)

type Credentials struct {
	Pan      string
	Password string
}

// LogValue keeps the password out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("pan", c.Pan))
}

type ClientOptions struct {
	Credentials Credentials
	Endpoints   core.Endpoints
	Http        core.HttpOptions
	// sent as the "pIP" login field, the portal records it but does not check it
	ReportedIP string
	// used for the cache busting "_dc" parameter, defaults to timezone.Now
	Clock func() time.Time
	// lower bound (Bikram Sambat) of the withholding records query
	TdsFromDate string
	TdsPageSize int
}

// Client is a logged in session on the taxpayer portal, the credentials are
// held for the lifetime of the client and every Login starts a new session.
type Client struct {
	creds     Credentials
	endpoints core.Endpoints
	httpOpts  core.HttpOptions
	opts      ClientOptions

	http *resty.Client
}

func NewClient(opts ClientOptions) *Client {
	if opts.ReportedIP == "" {
		opts.ReportedIP = DefaultReportedIP
	}
	if opts.Clock == nil {
		opts.Clock = timezone.Now
	}
	if opts.TdsFromDate == "" {
		opts.TdsFromDate = DefaultTdsFromDate
	}
	if opts.TdsPageSize <= 0 {
		opts.TdsPageSize = DefaultTdsPageSize
	}

	httpOpts := opts.Http
	httpOpts.Jar = true
	if httpOpts.TracerName == "" {
		httpOpts.TracerName = "ird/taxpayer/http"
	}

	return &Client{
		creds:     opts.Credentials,
		endpoints: opts.Endpoints.WithDefaults(),
		httpOpts:  httpOpts,
		opts:      opts,
	}
}

func (c *Client) session() (*resty.Client, error) {
	if c.http == nil {
		return nil, ErrNotLoggedIn
	}
	return c.http, nil
}

// Login posts the credentials to the login handler, the session cookies it
// sets are kept for every following request.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()
	span.SetAttributes(attribute.String("pan", c.creds.Pan))

	httpClient, err := core.NewHttpClient(c.httpOpts)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create http client")
		return err
	}
	c.http = nil

	res, err := httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"pan":        c.creds.Pan,
			"TPName":     c.creds.Pan,
			"TPPassword": c.creds.Password,
			"formToken":  "a",
			"pIP":        c.opts.ReportedIP,
			"LoginType":  "NOR",
		}).
		Post(c.endpoints.Login)
	if err != nil {
		slog.ErrorContext(ctx, "failed to make login request", "credentials", c.creds, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	if !strings.Contains(res.String(), loginSuccessMarker) {
		slog.WarnContext(ctx, "login unsuccessful", "credentials", c.creds, "status", res.StatusCode())
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}

	c.http = httpClient
	slog.DebugContext(ctx, "logged in", "credentials", c.creds)
	return nil
}
