package taxpayer

import (
	"context"
	"fmt"
	"log/slog"

	"ird-scraper/lib/scrapers/ird/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	vatListKey   = "SubmissionNo"
	vatDetailKey = "SubmissionNumber"
)

// VatReturnList returns the submissions of the logged in taxpayer.
func (c *Client) VatReturnList(ctx context.Context) ([]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:VatReturnList")
	defer span.End()

	client, err := c.session()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := client.R().
		SetContext(ctx).
		SetQueryParam("method", "GetVatReturnList").
		Get(c.endpoints.VatReturns)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch vat return list", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch vat return list")
		return nil, fmt.Errorf("vat return list: %w", err)
	}

	text, err := core.SliceArray(res.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("vat return list: %w", err)
	}
	list, err := core.DecodeRecords(text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("vat return list: %w", err)
	}

	span.SetAttributes(attribute.Int("submissions", len(list)))
	return list, nil
}

// VatReturn fetches the detail of one submission. a nil slice with a nil
// error means the portal did not answer with a 200.
func (c *Client) VatReturn(ctx context.Context, submissionNo string) ([]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:VatReturn")
	defer span.End()
	span.SetAttributes(attribute.String("submission_no", submissionNo))

	client, err := c.session()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method": "GetVatReturn",
			"SubNo":  submissionNo,
		}).
		Get(c.endpoints.VatReturns)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, ctx.Err()
		}
		slog.WarnContext(ctx, "failed to fetch vat return", "submission_no", submissionNo, "err", err)
		return nil, nil
	}

	text, err := core.SliceDetail(res.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("vat return %s: %w", submissionNo, err)
	}
	detail, err := core.DecodeRecords(text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("vat return %s: %w", submissionNo, err)
	}
	return detail, nil
}

// VatReturns logs in, lists every submission and merges each one with its
// detail, the result is keyed by submission number.
func (c *Client) VatReturns(ctx context.Context) (map[string]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:VatReturns")
	defer span.End()

	err := c.Login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to login")
		return nil, err
	}

	list, err := c.VatReturnList(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list vat returns")
		return nil, err
	}

	merged := core.Index(list, vatListKey)
	for _, item := range list {
		submissionNo, ok := core.KeyOf(item, vatListKey)
		if !ok {
			continue
		}
		detail, err := c.VatReturn(ctx, submissionNo)
		if err != nil {
			span.SetStatus(codes.Error, "failed to read vat return")
			return nil, err
		}
		core.Merge(merged, detail, vatDetailKey)
	}

	span.SetAttributes(attribute.Int("returns", len(merged)))
	return merged, nil
}
