package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/middleware"
	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/pricing"
	"github.com/mmeshcher/orderdesk/internal/report"
	"github.com/mmeshcher/orderdesk/internal/repository"
	"github.com/mmeshcher/orderdesk/internal/service"
)

type stubService struct {
	authErr error

	groups      []string
	products    []model.Product
	productsErr error
	productErr  error
	gotProduct  model.Product

	parties    []model.Party
	partyErr   error
	gotKind    model.PartyKind
	gotPartyID int64

	draft       service.DraftView
	draftErr    error
	gotUpdate   service.DraftUpdate
	gotLine     pricing.LineUpdate
	gotIndex    int
	submitOrder *model.Order

	orders    []model.Order
	order     *model.Order
	orderErr  error
	report    *report.Report
	gotReport time.Time
}

func (s *stubService) AuthenticateUser(ctx context.Context, login, password string) error {
	return s.authErr
}

func (s *stubService) Groups() []string { return s.groups }

func (s *stubService) Products(ctx context.Context, group string) ([]model.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) AddProduct(ctx context.Context, p model.Product) (model.Product, error) {
	s.gotProduct = p
	return p, s.productErr
}

func (s *stubService) UpdateProduct(ctx context.Context, id string, p model.Product) (model.Product, error) {
	p.ID = id
	s.gotProduct = p
	return p, s.productErr
}

func (s *stubService) DeleteProduct(ctx context.Context, id string) error {
	return s.productErr
}

func (s *stubService) Parties(kind model.PartyKind) ([]model.Party, error) {
	s.gotKind = kind
	return s.parties, s.partyErr
}

func (s *stubService) AddParty(ctx context.Context, kind model.PartyKind, name string) (model.Party, error) {
	s.gotKind = kind
	return model.Party{ID: 7, Name: name}, s.partyErr
}

func (s *stubService) UpdateParty(ctx context.Context, kind model.PartyKind, id int64, name string) (model.Party, error) {
	s.gotKind = kind
	s.gotPartyID = id
	return model.Party{ID: id, Name: name}, s.partyErr
}

func (s *stubService) DeleteParty(ctx context.Context, kind model.PartyKind, id int64) error {
	s.gotKind = kind
	s.gotPartyID = id
	return s.partyErr
}

func (s *stubService) NewDraft() service.DraftView { return s.draft }

func (s *stubService) Draft(id string) (service.DraftView, error) {
	return s.draft, s.draftErr
}

func (s *stubService) UpdateDraft(id string, upd service.DraftUpdate) (service.DraftView, error) {
	s.gotUpdate = upd
	return s.draft, s.draftErr
}

func (s *stubService) DiscardDraft(id string) error { return s.draftErr }

func (s *stubService) AddDraftLine(id string) (service.DraftView, error) {
	return s.draft, s.draftErr
}

func (s *stubService) UpdateDraftLine(id string, index int, upd pricing.LineUpdate) (service.DraftView, error) {
	s.gotIndex = index
	s.gotLine = upd
	return s.draft, s.draftErr
}

func (s *stubService) RemoveDraftLine(id string, index int) (service.DraftView, error) {
	s.gotIndex = index
	return s.draft, s.draftErr
}

func (s *stubService) AddDraftClient(ctx context.Context, id, name string) (model.Party, service.DraftView, error) {
	return model.Party{ID: 9, Name: name}, s.draft, s.draftErr
}

func (s *stubService) SubmitDraft(ctx context.Context, id string) (*model.Order, service.DraftView, error) {
	return s.submitOrder, s.draft, s.draftErr
}

func (s *stubService) Orders(ctx context.Context) ([]model.Order, error) {
	return s.orders, s.orderErr
}

func (s *stubService) Order(ctx context.Context, id int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) Report(ctx context.Context, day time.Time) (*report.Report, error) {
	s.gotReport = day
	return s.report, s.orderErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth, nil)
}

// do выполняет запрос через роутер от имени вошедшего пользователя.
func do(t *testing.T, h *Handler, method, target string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	login := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(login, "admin")

	req := httptest.NewRequest(method, target, &buf)
	req.AddCookie(login.Result().Cookies()[0])

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(credentialsRequest{Login: "admin", Password: "admin123"})
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("session cookie not set")
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name    string
		authErr error
		body    string
		want    int
	}{
		{name: "bad json", body: "{", want: http.StatusBadRequest},
		{name: "missing password", body: `{"login":"admin"}`, want: http.StatusBadRequest},
		{name: "wrong credentials", authErr: service.ErrInvalidCredentials, body: `{"login":"admin","password":"x"}`, want: http.StatusUnauthorized},
		{name: "internal", authErr: errors.New("boom"), body: `{"login":"admin","password":"x"}`, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{authErr: tt.authErr})

			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRouter_RequiresSession(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.SetupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestGetProducts_JSONResponse(t *testing.T) {
	svc := &stubService{products: []model.Product{{ID: "PET001", Name: "ACUACIDE", Price: 300, Group: "PETS PHARMA"}}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodGet, "/api/catalog/products?group=PETS+PHARMA", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var got []model.Product
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "PET001" {
		t.Fatalf("products = %+v", got)
	}
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{name: "created", body: `{"id":"P1","name":"Uno","price":10}`, want: http.StatusCreated},
		{name: "negative price", body: `{"id":"P1","name":"Uno","price":-1}`, want: http.StatusBadRequest},
		{name: "missing name", body: `{"id":"P1","price":1}`, want: http.StatusBadRequest},
		{name: "duplicate", err: service.ErrProductExists, body: `{"id":"P1","name":"Uno","price":10}`, want: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{productErr: tt.err})

			res := do(t, h, http.MethodPost, "/api/products", tt.body)
			res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestUpdateProduct_UsesPathID(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPut, "/api/products/PET002", `{"name":"AD3E","price":90,"group":"PETS PHARMA"}`)
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if svc.gotProduct.ID != "PET002" || svc.gotProduct.Price != 90 {
		t.Fatalf("product = %+v", svc.gotProduct)
	}
}

func TestPartyRoutes(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPost, "/api/distributors", `{"name":"Pets Pharma"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if svc.gotKind != model.PartyDistributors {
		t.Fatalf("kind = %q, want distributors", svc.gotKind)
	}

	res = do(t, h, http.MethodPut, "/api/sellers/42", `{"name":"Lucía"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || svc.gotKind != model.PartySellers || svc.gotPartyID != 42 {
		t.Fatalf("status = %d, kind = %q, id = %d", res.StatusCode, svc.gotKind, svc.gotPartyID)
	}

	res = do(t, h, http.MethodDelete, "/api/clients/abc", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	svc.partyErr = service.ErrPartyNotFound
	res = do(t, h, http.MethodDelete, "/api/clients/5", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestUpdateDraft(t *testing.T) {
	svc := &stubService{draft: service.DraftView{ID: "d1"}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPatch, "/api/drafts/d1", `{"group":"PETS PHARMA","client":"Cliente Mostrador","overallDiscountPercent":10}`)
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if svc.gotUpdate.Group == nil || *svc.gotUpdate.Group != "PETS PHARMA" {
		t.Fatalf("group not passed: %+v", svc.gotUpdate)
	}
	if svc.gotUpdate.Client == nil || *svc.gotUpdate.Client != "Cliente Mostrador" {
		t.Fatalf("client not passed: %+v", svc.gotUpdate)
	}
	if svc.gotUpdate.Seller != nil {
		t.Fatalf("seller must stay unset")
	}

	svc.draftErr = service.ErrInvalidDiscount
	res = do(t, h, http.MethodPatch, "/api/drafts/d1", `{"overallDiscountPercent":12}`)
	res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestUpdateLine_CoercesFormValues(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantQty   int
		wantBonus int
	}{
		{name: "numbers", body: `{"quantity":3,"bonus":1}`, wantQty: 3, wantBonus: 1},
		{name: "strings", body: `{"quantity":"4","bonus":"2"}`, wantQty: 4, wantBonus: 2},
		{name: "garbage", body: `{"quantity":"abc","bonus":"-5"}`, wantQty: 1, wantBonus: 0},
		{name: "zero quantity", body: `{"quantity":0,"bonus":""}`, wantQty: 1, wantBonus: 0},
		{name: "escaped strings", body: `{"quantity":"\u0035","bonus":" 3 "}`, wantQty: 5, wantBonus: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			h := newTestHandler(t, svc)

			res := do(t, h, http.MethodPatch, "/api/drafts/d1/lines/2", tt.body)
			res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if svc.gotIndex != 2 {
				t.Fatalf("index = %d, want 2", svc.gotIndex)
			}
			if svc.gotLine.Quantity == nil || *svc.gotLine.Quantity != tt.wantQty {
				t.Fatalf("quantity = %v, want %d", svc.gotLine.Quantity, tt.wantQty)
			}
			if svc.gotLine.Bonus == nil || *svc.gotLine.Bonus != tt.wantBonus {
				t.Fatalf("bonus = %v, want %d", svc.gotLine.Bonus, tt.wantBonus)
			}
		})
	}
}

func TestUpdateLine_Errors(t *testing.T) {
	svc := &stubService{draftErr: order.ErrLineIndex}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPatch, "/api/drafts/d1/lines/9", `{"productId":"PET001"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

	res = do(t, h, http.MethodPatch, "/api/drafts/d1/lines/x", `{}`)
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestSubmitDraft_Created(t *testing.T) {
	svc := &stubService{
		submitOrder: &model.Order{ID: 1700000000000, Client: "Cliente Mostrador", GrandTotal: 234},
		draft:       service.DraftView{ID: "d1"},
	}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPost, "/api/drafts/d1/submit", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var got submitResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Order == nil || got.Order.GrandTotal != 234 {
		t.Fatalf("order = %+v", got.Order)
	}
	if got.Draft.ID != "d1" {
		t.Fatalf("draft id = %q, want d1", got.Draft.ID)
	}
}

func TestSubmitDraft_Rejected(t *testing.T) {
	svc := &stubService{draftErr: &order.ValidationError{
		Reason:  order.ReasonUnresolvedProduct,
		Message: "make sure every line has a valid product",
		Line:    1,
	}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPost, "/api/drafts/d1/submit", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}

	var got validationResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Reason != order.ReasonUnresolvedProduct || got.Line != 1 {
		t.Fatalf("response = %+v", got)
	}
}

func TestSubmitDraft_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{draftErr: service.ErrDraftNotFound})

	res := do(t, h, http.MethodPost, "/api/drafts/nope/submit", nil)
	res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetOrders_EmptyList(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := do(t, h, http.MethodGet, "/api/orders", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var got []model.Order
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("orders = %v, want empty list", got)
	}
}

func TestGetOrderSummary(t *testing.T) {
	svc := &stubService{order: &model.Order{
		ID:         1700000000000,
		Date:       time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC),
		Client:     "Cliente Mostrador",
		GrandTotal: 80,
		Lines:      []model.OrderLine{{ProductID: "PET002", ProductName: "AD3E 100 ML", Quantity: 1, UnitPrice: 80, Subtotal: 80}},
	}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodGet, "/api/orders/1700000000000/summary", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "Pedido-1700000000000.html") {
		t.Fatalf("content-disposition = %q", cd)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	if !strings.Contains(buf.String(), "AD3E 100 ML") {
		t.Fatalf("summary does not list the product")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{orderErr: repository.ErrOrderNotFound})

	res := do(t, h, http.MethodGet, "/api/orders/5/share", nil)
	res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetReport(t *testing.T) {
	svc := &stubService{report: &report.Report{Date: "2026-05-20"}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodGet, "/api/reports?date=2026-05-20", nil)
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if want := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC); !svc.gotReport.Equal(want) {
		t.Fatalf("report day = %v, want %v", svc.gotReport, want)
	}

	res = do(t, h, http.MethodGet, "/api/reports?date=20-05-2026", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestRouter_GzipLineUpdate(t *testing.T) {
	svc := &stubService{draft: service.DraftView{ID: "d1"}}
	h := newTestHandler(t, svc)

	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	if _, err := gz.Write([]byte(`{"productId":"PET002","quantity":"3"}`)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}

	login := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(login, "admin")

	req := httptest.NewRequest(http.MethodPatch, "/api/drafts/d1/lines/0", &body)
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	req.AddCookie(login.Result().Cookies()[0])

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.gotLine.ProductID == nil || *svc.gotLine.ProductID != "PET002" {
		t.Fatalf("product not passed: %+v", svc.gotLine)
	}
	if svc.gotLine.Quantity == nil || *svc.gotLine.Quantity != 3 {
		t.Fatalf("quantity = %v, want 3", svc.gotLine.Quantity)
	}
	if ce := rec.Header().Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("content-encoding = %q, want gzip", ce)
	}

	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("new gzip reader: %v", err)
	}
	raw, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var got service.DraftView
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "d1" {
		t.Fatalf("draft id = %q, want d1", got.ID)
	}
}

func TestRouter_DeleteDraftWithGzipHasNoBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	login := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(login, "admin")

	req := httptest.NewRequest(http.MethodDelete, "/api/drafts/d1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.AddCookie(login.Result().Cookies()[0])

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if ce := rec.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding = %q, want none", ce)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body has %d bytes, want none", rec.Body.Len())
	}
}
