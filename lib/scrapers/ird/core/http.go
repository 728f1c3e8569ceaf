package core

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"ird-scraper/lib/restyutil"
	"ird-scraper/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var ErrUnexpectedStatus = errors.New("unexpected response status")

type HttpOptions struct {
	// zero means 30 seconds
	Timeout   time.Duration
	UserAgent string
	// wraps the transport so requests look like they come from a browser
	CloudflareBypass bool
	// when set, the client keeps cookies between requests
	Jar bool
	// receives full http transcripts when debug logging is on, may be nil
	Transcripts restyutil.InstrumentOutput
	// name of the tracer the request spans are recorded under
	TracerName string
}

// NewCookieJar returns a jar that follows public suffix rules, so cookies set
// for ird.gov.np are shared between its portal subdomains.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func NewHttpClient(opts HttpOptions) (*resty.Client, error) {
	client := resty.New()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	if opts.Jar {
		jar, err := NewCookieJar()
		if err != nil {
			return nil, err
		}
		client.SetCookieJar(jar)
	} else {
		client.SetCookieJar(nil)
	}

	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "ird/http"
	}
	telemetry.InstrumentResty(client, tracerName)
	restyutil.InstrumentClient(client, opts.Transcripts)

	return client, nil
}

// CheckStatus rejects anything but a 200, the portal handlers answer errors
// with a 200 and an error body, so other codes mean the page itself is gone.
func CheckStatus(res *resty.Response) error {
	if res.StatusCode() == http.StatusOK {
		return nil
	}
	return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, res.StatusCode(), res.Request.URL)
}
