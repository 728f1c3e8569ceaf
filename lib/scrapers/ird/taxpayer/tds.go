package taxpayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"ird-scraper/lib/scrapers/ird/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNepaliDateNotFound = errors.New("current nepali date not found")

var nepaliDateRegex = regexp.MustCompile(`"NepaliDate":"(\d{4}\.\d{2}\.\d{2})`)

const (
	tdsListKey  = "TranNo"
	tdsRowField = "RowNumber"
	// column holding each row's number within its transaction
	TdsRowLabel = "Level 1"
)

// CurrentNepaliDate asks the portal for today's date in Bikram Sambat
// (yyyy.mm.dd), the withholding queries are bounded by it.
func (c *Client) CurrentNepaliDate(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:CurrentNepaliDate")
	defer span.End()

	client, err := c.session()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	res, err := client.R().
		SetContext(ctx).
		SetQueryParam("method", "GetCurrentDate").
		Get(c.endpoints.CurrentDate)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch current date", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch current date")
		return "", fmt.Errorf("current date: %w", err)
	}

	groups := nepaliDateRegex.FindStringSubmatch(res.String())
	if len(groups) < 2 {
		slog.ErrorContext(ctx, "current date not found in the response")
		span.SetStatus(codes.Error, ErrNepaliDateNotFound.Error())
		return "", ErrNepaliDateNotFound
	}
	return groups[1], nil
}

type withholderQuery struct {
	WhPan    string `json:"WhPan"`
	FromDate string `json:"FromDate"`
	ToDate   string `json:"ToDate"`
}

// WithholdingRecords lists the TDS transactions filed against the taxpayer
// up to `toDate`.
func (c *Client) WithholdingRecords(ctx context.Context, toDate string) ([]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:WithholdingRecords")
	defer span.End()
	span.SetAttributes(attribute.String("to_date", toDate))

	client, err := c.session()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	objWith, err := json.Marshal(withholderQuery{
		WhPan:    c.creds.Pan,
		FromDate: c.opts.TdsFromDate,
		ToDate:   toDate,
	})
	if err != nil {
		return nil, err
	}

	res, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method":  "GetWithholderRecs",
			"_dc":     strconv.FormatInt(c.opts.Clock().UnixMilli(), 10),
			"objWith": string(objWith),
			"page":    "1",
			"start":   "0",
			"limit":   strconv.Itoa(c.opts.TdsPageSize),
		}).
		Get(c.endpoints.WithholderRecords)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		slog.ErrorContext(ctx, "list of transaction numbers not obtained", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch withholder records")
		return nil, fmt.Errorf("withholder records: %w", err)
	}

	text, err := core.SliceArray(res.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("withholder records: %w", err)
	}
	records, err := core.DecodeRecords(text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("withholder records: %w", err)
	}

	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

type transactionQuery struct {
	TransNo   any    `json:"TransNo"`
	RecStatus string `json:"RecStatus"`
	FromDate  string `json:"FromDate"`
	ToDate    string `json:"ToDate"`
}

// TransactionDetail fetches the rows of one TDS transaction. a nil slice with
// a nil error means the request did not go through and was logged.
func (c *Client) TransactionDetail(ctx context.Context, tranNo any) ([]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:TransactionDetail")
	defer span.End()
	span.SetAttributes(attribute.String("tran_no", fmt.Sprint(tranNo)))

	client, err := c.session()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	objIns, err := json.Marshal(transactionQuery{
		TransNo:   tranNo,
		RecStatus: "V",
		FromDate:  "1",
		ToDate:    "500",
	})
	if err != nil {
		return nil, err
	}

	res, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method":    "GetTrans",
			"objIns":    string(objIns),
			"formToken": "a",
		}).
		Post(c.endpoints.Transactions)
	if err == nil {
		err = core.CheckStatus(res)
	}
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, ctx.Err()
		}
		slog.WarnContext(ctx, "request for transaction failed", "tran_no", tranNo, "err", err)
		return nil, nil
	}

	text, err := core.SliceArray(res.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("transaction %v: %w", tranNo, err)
	}
	rows, err := core.DecodeRecords(text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("transaction %v: %w", tranNo, err)
	}
	return rows, nil
}

// WithholdingTransactions logs in and collects the rows of every TDS
// transaction up to today, flattened so every row has the same columns.
func (c *Client) WithholdingTransactions(ctx context.Context) ([]core.Record, error) {
	ctx, span := tracer.Start(ctx, "client:WithholdingTransactions")
	defer span.End()

	err := c.Login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to login")
		return nil, err
	}

	today, err := c.CurrentNepaliDate(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to get current date")
		return nil, err
	}

	records, err := c.WithholdingRecords(ctx, today)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list withholder records")
		return nil, err
	}

	var details [][]core.Record
	for _, rec := range records {
		if _, ok := core.KeyOf(rec, tdsListKey); !ok {
			continue
		}
		rows, err := c.TransactionDetail(ctx, rec[tdsListKey])
		if err != nil {
			span.SetStatus(codes.Error, "failed to read transaction")
			return nil, err
		}
		if rows != nil {
			details = append(details, rows)
		}
	}

	flattened := core.Flatten(details, TdsRowLabel, tdsRowField)
	span.SetAttributes(attribute.Int("rows", len(flattened)))
	return flattened, nil
}
