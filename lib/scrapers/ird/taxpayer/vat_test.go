package taxpayer

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"ird-scraper/lib/scrapers/ird/core"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestVatReturns(t *testing.T) {
	portal := &fakePortal{
		vatList: extStore(
			`{"SubmissionNo":"101","Period":"2080.01","Status":"Submitted"}`,
			`{"SubmissionNo":"102","Period":"2080.02","Status":"Submitted"}`,
			`{"SubmissionNo":"103","Period":"2080.03","Status":"Draft"}`,
		),
		vatDetails: map[string]string{
			"101": vatDetail(101, `"Period":"2080.01 (Baisakh)","TaxableSales":1000.50`),
			"103": vatDetail(103, `"TaxableSales":0,"TradeName":"BHAT & SONS"`),
		},
		vatDetailCodes: map[string]int{
			"102": http.StatusInternalServerError,
		},
	}
	client := newTestClient(t, portal, testPassword)

	returns, err := client.VatReturns(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"101", "102", "103"}, portal.vatDetailReqs)

	expected := map[string]core.Record{
		"101": {
			"SubmissionNo":     "101",
			"SubmissionNumber": json.Number("101"),
			"Period":           "2080.01 (Baisakh)",
			"Status":           "Submitted",
			"TaxableSales":     json.Number("1000.50"),
		},
		"102": {
			"SubmissionNo": "102",
			"Period":       "2080.02",
			"Status":       "Submitted",
		},
		"103": {
			"SubmissionNo":     "103",
			"SubmissionNumber": json.Number("103"),
			"Period":           "2080.03",
			"Status":           "Draft",
			"TaxableSales":     json.Number("0"),
			"TradeName":        "BHAT & SONS",
		},
	}
	if diff := cmp.Diff(expected, returns); diff != "" {
		t.Fatal("unexpected merged returns", diff)
	}
}

func TestVatReturnsEmptyList(t *testing.T) {
	portal := &fakePortal{vatList: extStore()}
	client := newTestClient(t, portal, testPassword)

	returns, err := client.VatReturns(context.Background())
	require.NoError(t, err)
	require.Empty(t, returns)
	require.Empty(t, portal.vatDetailReqs)
}

func TestVatReturnsMalformedDetail(t *testing.T) {
	portal := &fakePortal{
		vatList: extStore(`{"SubmissionNo":"101"}`),
		vatDetails: map[string]string{
			"101": `<html>maintenance</html>`,
		},
	}
	client := newTestClient(t, portal, testPassword)

	_, err := client.VatReturns(context.Background())
	require.ErrorIs(t, err, core.ErrMalformedPayload)
}

func TestVatReturnListFailures(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		portal := &fakePortal{vatList: `{"success":false}`}
		client := newTestClient(t, portal, testPassword)

		_, err := client.VatReturns(context.Background())
		require.ErrorIs(t, err, core.ErrMalformedPayload)
	})

	t.Run("status", func(t *testing.T) {
		portal := &fakePortal{}
		client := newTestClient(t, portal, testPassword)
		client.endpoints.VatReturns += "/missing"

		err := client.Login(context.Background())
		require.NoError(t, err)
		logs := captureLogs(t)
		_, err = client.VatReturnList(context.Background())
		require.ErrorIs(t, err, core.ErrUnexpectedStatus)
		require.Contains(t, logs.String(), "failed to fetch vat return list")
	})
}

func TestVatReturnsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portal := &fakePortal{
		vatList: extStore(`{"SubmissionNo":"101"}`, `{"SubmissionNo":"102"}`, `{"SubmissionNo":"103"}`),
		vatDetails: map[string]string{
			"101": vatDetail(101, `"TaxableSales":1`),
			"103": vatDetail(103, `"TaxableSales":3`),
		},
		interruptAt: "102",
		cancel:      cancel,
	}
	client := newTestClient(t, portal, testPassword)

	returns, err := client.VatReturns(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, returns)
	require.Equal(t, []string{"101", "102"}, portal.vatDetailReqs)
}

func TestVatReturnCancelledContext(t *testing.T) {
	portal := &fakePortal{vatDetails: map[string]string{"101": vatDetail(101, `"TaxableSales":1`)}}
	client := newTestClient(t, portal, testPassword)
	require.NoError(t, client.Login(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detail, err := client.VatReturn(ctx, "101")
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, detail)
}
