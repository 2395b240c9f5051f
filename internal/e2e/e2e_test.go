package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/smallbiznis/invoicedesk/internal/auth"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	emailprovider "github.com/smallbiznis/invoicedesk/internal/providers/email"
	pdfprovider "github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/server"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-e2e-password"
)

type testEnv struct {
	app     *fx.App
	server  *server.Server
	db      *gorm.DB
	cfg     config.Config
	fs      afero.Fs
	outbox  *outbox
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_BootstrapAdminLogin(t *testing.T) {
	token := login(t, adminUsername, adminPassword)

	resp, body := doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/auth/profile", nil, bearer(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for profile, got %d: %s", resp.StatusCode, string(body))
	}
	var profile struct {
		User authdomain.Principal `json:"user"`
	}
	decode(t, body, &profile)
	if profile.User.Username != adminUsername {
		t.Fatalf("expected profile for %s, got %q", adminUsername, profile.User.Username)
	}

	resp, body = doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/auth/profile", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/auth/profile", nil, bearer("not-a-token"))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for invalid token, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_RegisterAndLogin(t *testing.T) {
	username := fmt.Sprintf("clerk-%d", time.Now().UnixNano())
	creds := map[string]any{"username": username, "password": "clerk-password"}

	resp, body := doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/auth/register", creds, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for register, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/auth/register", creds, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 for duplicate register, got %d: %s", resp.StatusCode, string(body))
	}

	if token := login(t, username, "clerk-password"); token == "" {
		t.Fatalf("expected token after register")
	}

	resp, body = doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/auth/login", map[string]any{
		"username": username,
		"password": "wrong-password",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for wrong password, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_ListAndUpdateInvoice(t *testing.T) {
	resetDatabase(t)
	seedInvoice(t, "e2e-1", "1001", true)
	seedInvoice(t, "e2e-2", "1002", true)
	headers := bearer(login(t, adminUsername, adminPassword))
	client := newHTTPClient()

	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/invoices", map[string]any{
		"startDate":     "2024-03-01",
		"endDate":       "2024-03-31",
		"numberOfItems": 10,
		"offset":        0,
	}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for list, got %d: %s", resp.StatusCode, string(body))
	}
	var listed struct {
		List   []invoicedomain.Summary `json:"list"`
		Result bool                    `json:"result"`
		Total  int                     `json:"total"`
	}
	decode(t, body, &listed)
	if !listed.Result || listed.Total != 2 || len(listed.List) != 2 {
		t.Fatalf("expected two invoices, got %+v", listed)
	}

	resp, body = doJSON(t, client, http.MethodPatch, env.baseURL+"/api/invoices/e2e-1", map[string]any{
		"notes":        "net 30 confirmed",
		"originalPath": "/tmp/elsewhere.pdf",
	}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for update, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/e2e-1", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for detail, got %d: %s", resp.StatusCode, string(body))
	}
	var detail invoicedomain.Detail
	decode(t, body, &detail)
	if detail.Notes == nil || *detail.Notes != "net 30 confirmed" {
		t.Fatalf("expected updated notes, got %v", detail.Notes)
	}

	var stored invoicedomain.Invoice
	if err := env.db.Table(env.cfg.InvoiceTable).Where(map[string]any{"Id": "e2e-1"}).Take(&stored).Error; err != nil {
		t.Fatalf("query invoice: %v", err)
	}
	if stored.OriginalPath == nil || *stored.OriginalPath != "/originals/e2e-1.pdf" {
		t.Fatalf("expected original path untouched, got %v", stored.OriginalPath)
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/missing", nil, headers)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown invoice, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_InvoicePDF(t *testing.T) {
	resetDatabase(t)
	seedInvoice(t, "e2e-1", "1001", true)
	headers := bearer(login(t, adminUsername, adminPassword))

	resp, body := doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/invoices/e2e-1/pdf", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for pdf, got %d: %s", resp.StatusCode, string(body))
	}
	var out struct {
		InvoiceID string `json:"invoiceId"`
		PDFBase64 string `json:"pdfBase64"`
	}
	decode(t, body, &out)
	doc, err := base64.StdEncoding.DecodeString(out.PDFBase64)
	if err != nil {
		t.Fatalf("decode pdf: %v", err)
	}
	pages, err := pdfprovider.PageCount(doc)
	if err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if pages != 2 {
		t.Fatalf("expected invoice sheet plus attachment, got %d pages", pages)
	}
}

func TestE2E_SendInvoicesEmail(t *testing.T) {
	resetDatabase(t)
	seedInvoice(t, "e2e-1", "1001", true)
	seedInvoice(t, "e2e-2", "1002", true)
	headers := bearer(login(t, adminUsername, adminPassword))

	resp, body := doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/invoices/send-email", map[string]any{
		"recipientEmails": "ap@acme.test; ops@acme.test",
		"subject":         "March invoices",
		"messageHtml":     "<p>Attached.</p>",
		"invoiceIds":      []any{"e2e-1", map[string]any{"id": "e2e-2", "number": "INV/1002"}},
	}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for send, got %d: %s", resp.StatusCode, string(body))
	}

	sent := env.outbox.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sent))
	}
	msg := sent[0]
	if strings.Join(msg.To, ",") != "ap@acme.test,ops@acme.test" {
		t.Fatalf("unexpected recipients %v", msg.To)
	}
	if len(msg.Attachments) != 2 {
		t.Fatalf("expected two attachments, got %d", len(msg.Attachments))
	}
	if msg.Attachments[0].Filename != "Invoice_1001.pdf" || msg.Attachments[1].Filename != "Invoice_INV-1002.pdf" {
		t.Fatalf("unexpected attachment names %q, %q", msg.Attachments[0].Filename, msg.Attachments[1].Filename)
	}
}

func TestE2E_SendInvoicesEmailMissingAttachment(t *testing.T) {
	resetDatabase(t)
	seedInvoice(t, "e2e-1", "1001", true)
	seedInvoice(t, "e2e-2", "1002", false)
	if ok, _ := afero.Exists(env.fs, "/attachments/e2e-2.pdf"); ok {
		t.Fatalf("expected no attachment for e2e-2")
	}
	headers := bearer(login(t, adminUsername, adminPassword))

	resp, body := doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/invoices/send-email", map[string]any{
		"recipientEmails": []string{"ap@acme.test"},
		"subject":         "March invoices",
		"messageHtml":     "<p>Attached.</p>",
		"invoiceIds":      []string{"e2e-1", "e2e-2"},
	}, headers)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500 for missing attachment, got %d: %s", resp.StatusCode, string(body))
	}
	var failure struct {
		Error struct {
			Type      string `json:"type"`
			Stage     string `json:"stage"`
			InvoiceID string `json:"invoice_id"`
		} `json:"error"`
	}
	decode(t, body, &failure)
	if failure.Error.Stage != string(invoicedomain.StageLocateAttachment) || failure.Error.InvoiceID != "e2e-2" {
		t.Fatalf("unexpected failure %+v", failure.Error)
	}
	if n := len(env.outbox.messages()); n != 0 {
		t.Fatalf("expected nothing sent, got %d messages", n)
	}
}

func startEnv() (*testEnv, error) {
	var (
		srv     *server.Server
		dbConn  *gorm.DB
		cfg     config.Config
		fs      afero.Fs
		httpSrv *httptest.Server
	)

	sheet, err := onePagePDF("invoice sheet")
	if err != nil {
		return nil, err
	}
	box := &outbox{}

	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(openDatabase),
		migration.Module,
		auth.Module,
		providers.Module,
		invoice.Module,
		fx.Decorate(func(afero.Fs) afero.Fs { return afero.NewMemMapFs() }),
		fx.Decorate(func(invoicedomain.Rasterizer) invoicedomain.Rasterizer {
			return staticRasterizer{doc: sheet}
		}),
		fx.Decorate(func(emailprovider.Provider) emailprovider.Provider { return box }),
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Populate(&srv, &dbConn, &cfg, &fs),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	template := []byte("<html><body><h1>{{InvoiceNumber}}</h1><p>{{Total}}</p></body></html>")
	if err := afero.WriteFile(fs, cfg.Render.TemplatePath, template, 0o644); err != nil {
		app.Stop(context.Background())
		return nil, err
	}

	httpSrv = httptest.NewServer(srv.Engine())

	return &testEnv{
		app:     app,
		server:  srv,
		db:      dbConn,
		cfg:     cfg,
		fs:      fs,
		outbox:  box,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

// openDatabase opens an in-memory store with both tables in place before the
// bootstrap admin is seeded.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	conn, err := db.NewTest()
	if err != nil {
		return nil, err
	}
	if err := conn.Table(cfg.UserTable).AutoMigrate(&authdomain.User{}); err != nil {
		return nil, err
	}
	if err := conn.Table(cfg.InvoiceTable).AutoMigrate(&invoicedomain.Invoice{}); err != nil {
		return nil, err
	}
	return conn, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("DATABASE_TYPE", "sqlite")
	setEnvIfEmpty("EMAIL_PROVIDER", "noop")
	setEnvIfEmpty("INVOICE_RENDER_CONCURRENCY", "2")
	setEnvIfEmpty("BOOTSTRAP_ADMIN_USERNAME", adminUsername)
	setEnvIfEmpty("BOOTSTRAP_ADMIN_PASSWORD", adminPassword)
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

func resetDatabase(t *testing.T) {
	t.Helper()
	if err := env.db.Exec(fmt.Sprintf("DELETE FROM %q", env.cfg.InvoiceTable)).Error; err != nil {
		t.Fatalf("clear invoices: %v", err)
	}
	for _, dir := range []string{"/attachments", "/originals"} {
		if err := env.fs.RemoveAll(dir); err != nil {
			t.Fatalf("clear %s: %v", dir, err)
		}
	}
	env.outbox.reset()
}

// seedInvoice stores one invoice line. The attachment file is written only
// when withAttachment is set.
func seedInvoice(t *testing.T, id, number string, withAttachment bool) {
	t.Helper()

	issued := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	total := 125.5
	attachmentPath := "/attachments/" + id + ".pdf"
	originalPath := "/originals/" + id + ".pdf"
	billTo := "Acme Corp"
	row := invoicedomain.Invoice{
		ID:              id,
		Number:          &number,
		IssueDate:       &issued,
		BillTo:          &billTo,
		Total:           &total,
		OriginalPath:    &originalPath,
		AttachmentsPath: &attachmentPath,
	}
	if err := env.db.Table(env.cfg.InvoiceTable).Create(&row).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	if !withAttachment {
		return
	}
	doc, err := onePagePDF("attachment " + id)
	if err != nil {
		t.Fatalf("build attachment: %v", err)
	}
	if err := afero.WriteFile(env.fs, attachmentPath, doc, 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}
}

func login(t *testing.T, username, password string) string {
	t.Helper()

	resp, body := doJSON(t, newHTTPClient(), http.MethodPost, env.baseURL+"/api/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for login, got %d: %s", resp.StatusCode, string(body))
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, body, &out)
	if out.Token == "" {
		t.Fatalf("expected token in login response")
	}
	return out.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, body []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode response: %v: %s", err, string(body))
	}
}

func doJSON(t *testing.T, client *http.Client, method, reqURL string, payload any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, respBody
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func onePagePDF(label string) ([]byte, error) {
	m := maroto.New()
	m.AddPages(page.New().Add(row.New(20).Add(text.NewCol(12, label))))
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// staticRasterizer prints the same document for any markup.
type staticRasterizer struct {
	doc []byte
}

func (r staticRasterizer) Acquire(context.Context) (invoicedomain.RenderContext, error) {
	return r, nil
}

func (r staticRasterizer) Print(context.Context, string) ([]byte, error) {
	return r.doc, nil
}

func (staticRasterizer) Release() {}

// outbox records messages instead of delivering them.
type outbox struct {
	mu   sync.Mutex
	sent []emailprovider.Message
}

func (o *outbox) Send(_ context.Context, msg emailprovider.Message) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return fmt.Sprintf("<e2e-%d@invoicedesk>", len(o.sent)), nil
}

func (o *outbox) messages() []emailprovider.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]emailprovider.Message(nil), o.sent...)
}

func (o *outbox) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = nil
}
