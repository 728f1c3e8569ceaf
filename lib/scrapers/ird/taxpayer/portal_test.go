package taxpayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"ird-scraper/lib/scrapers/ird/core"
	"ird-scraper/lib/testutil"
)

const (
	testPan      = "304460847"
	testPassword = "s3cret"
	sessionValue = "session-304460847"
)

// fakePortal mimics the ASP.NET handlers of the taxpayer portal, only the
// parts of each response the scrapers read are reproduced.
type fakePortal struct {
	lock sync.Mutex

	vatList        string
	vatDetails     map[string]string
	vatDetailCodes map[string]int
	dateBody       string
	withholder     string
	withholderCode int
	transactions   map[string]string
	transCodes     map[string]int

	// cancel is called when the detail for interruptAt is requested, the
	// response is held back until the client gives up on the request
	interruptAt string
	cancel      context.CancelFunc

	logins        int
	loginForms    []map[string]string
	vatDetailReqs []string
	withholderQ   []map[string]string
	transQueries  []map[string]string
	unauthorized  int
}

func (p *fakePortal) authorized(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie("ASP.NET_SessionId")
	if err != nil || c.Value != sessionValue {
		p.unauthorized++
		w.Write([]byte(`{"success":false,"msg":"Session expired"}`))
		return false
	}
	return true
}

func (p *fakePortal) interrupted(r *http.Request, key string) bool {
	if p.cancel == nil || key != p.interruptAt {
		return false
	}
	p.cancel()
	select {
	case <-r.Context().Done():
	case <-time.After(5 * time.Second):
	}
	return true
}

func firstValues(values map[string][]string) map[string]string {
	out := map[string]string{}
	for k, v := range values {
		out[k] = v[0]
	}
	return out
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()

		err := r.ParseForm()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.logins++
		p.loginForms = append(p.loginForms, firstValues(r.PostForm))

		if r.PostForm.Get("TPName") != testPan || r.PostForm.Get("TPPassword") != testPassword {
			w.Write([]byte(`{"success":false,"msg":"Invalid username or password"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: sessionValue, Path: "/"})
		w.Write([]byte(`{"success":true,"msg":"User Login Succcessful"}`))
	})
	mux.HandleFunc("/vat", func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()
		if !p.authorized(w, r) {
			return
		}

		q := r.URL.Query()
		switch q.Get("method") {
		case "GetVatReturnList":
			w.Write([]byte(p.vatList))
		case "GetVatReturn":
			subNo := q.Get("SubNo")
			p.vatDetailReqs = append(p.vatDetailReqs, subNo)
			if p.interrupted(r, subNo) {
				return
			}
			if code, ok := p.vatDetailCodes[subNo]; ok {
				w.WriteHeader(code)
				return
			}
			w.Write([]byte(p.vatDetails[subNo]))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/date", func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()
		if r.URL.Query().Get("method") != "GetCurrentDate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(p.dateBody))
	})
	mux.HandleFunc("/tds/get", func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()
		if !p.authorized(w, r) {
			return
		}
		p.withholderQ = append(p.withholderQ, firstValues(r.URL.Query()))
		if p.withholderCode != 0 {
			w.WriteHeader(p.withholderCode)
			return
		}
		w.Write([]byte(p.withholder))
	})
	mux.HandleFunc("/tds/insert", func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !p.authorized(w, r) {
			return
		}
		q := firstValues(r.URL.Query())
		p.transQueries = append(p.transQueries, q)

		var objIns struct {
			TransNo json.Number `json:"TransNo"`
		}
		err := json.Unmarshal([]byte(q["objIns"]), &objIns)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		tranNo := objIns.TransNo.String()
		if p.interrupted(r, tranNo) {
			return
		}
		if code, ok := p.transCodes[tranNo]; ok {
			w.WriteHeader(code)
			return
		}
		w.Write([]byte(p.transactions[tranNo]))
	})
	return mux
}

func newTestClient(t *testing.T, portal *fakePortal, password string) *Client {
	server := testutil.NewPortal(t, "scrapers/ird/taxpayer", portal.handler())

	return NewClient(ClientOptions{
		Credentials: Credentials{Pan: testPan, Password: password},
		Endpoints: core.Endpoints{
			Login:             server.URL + "/login",
			VatReturns:        server.URL + "/vat",
			CurrentDate:       server.URL + "/date",
			WithholderRecords: server.URL + "/tds/get",
			Transactions:      server.URL + "/tds/insert",
		},
		Clock: func() time.Time {
			return time.UnixMilli(1706364195083)
		},
	})
}

// captureLogs routes the default logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func vatDetail(subNo int, fields string) string {
	return fmt.Sprintf(`{"VatReturn":{"SubmissionNumber":%d,%s},"success":true}`, subNo, fields)
}

func extStore(rows ...string) string {
	return `{"success":true,"total":` + fmt.Sprint(len(rows)) + `,"data":[` + strings.Join(rows, ",") + `]}`
}
