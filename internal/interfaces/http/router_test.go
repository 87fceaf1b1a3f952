package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/xmlexport"
	apphttp "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// newTestAPI arma la API completa sobre el store en memoria.
func newTestAPI(t *testing.T, jwtSecret string) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:  usecase.NewProductUseCase(store, log),
		LocationUC: usecase.NewLocationUseCase(store, log),
		LedgerUC:   inventory.NewLedgerUseCase(store, nil, log),
		BalanceUC:  inventory.NewBalanceUseCase(store, inventory.BalanceOptions{Logger: log}),
		PDF:        pdf.NewBalanceReportPDF("kardex-test"),
		XML:        xmlexport.NewBalanceReportXML(2),
		JWTSecret:  jwtSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, authHeader string) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func mustStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d, esperado %d: %s", resp.StatusCode, status, body)
	}
}

// seedCatalog registra PROD1, LOC_A y LOC_B.
func seedCatalog(t *testing.T, app *fiber.App, auth string) {
	t.Helper()
	mustStatus(t, call(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{ID: "PROD1", Name: "Tornillo"}, auth), http.StatusCreated)
	mustStatus(t, call(t, app, http.MethodPost, "/api/locations", dto.CreateLocationRequest{ID: "LOC_A", Name: "Bodega A"}, auth), http.StatusCreated)
	mustStatus(t, call(t, app, http.MethodPost, "/api/locations", dto.CreateLocationRequest{ID: "LOC_B", Name: "Bodega B"}, auth), http.StatusCreated)
}

func TestAPI_LedgerFlow(t *testing.T) {
	app := newTestAPI(t, "")
	seedCatalog(t, app, "")

	movements := []string{
		`{"id":"M1","product_id":"PROD1","to_location":"LOC_A","qty":100,"timestamp":"2026-01-01T10:00:00Z"}`,
		`{"id":"M2","product_id":"PROD1","from_location":"LOC_A","to_location":"LOC_B","qty":30,"timestamp":"2026-01-01T11:00:00Z"}`,
		`{"id":"M3","product_id":"PROD1","from_location":"LOC_A","qty":10,"timestamp":"2026-01-01T12:00:00Z"}`,
	}
	for _, body := range movements {
		mustStatus(t, call(t, app, http.MethodPost, "/api/movements", body, ""), http.StatusCreated)
	}

	var report dto.BalanceReport
	resp := call(t, app, http.MethodGet, "/api/reports/balance", nil, "")
	mustStatus(t, resp, http.StatusOK)
	assert.Equal(t, "6", resp.Header.Get("X-Ledger-Version"))
	decode(t, resp, &report)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, dto.BalanceRow{ProductID: "PROD1", ProductName: "Tornillo", LocationID: "LOC_A", LocationName: "Bodega A", Quantity: 70}, report.Rows[0])
	assert.Equal(t, int64(20), report.Rows[1].Quantity)

	var list dto.MovementListResponse
	resp = call(t, app, http.MethodGet, "/api/movements?location_id=LOC_A", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &list)
	require.Equal(t, 3, list.Meta.Total)
	assert.Equal(t, "M3", list.Items[0].ID)
	assert.Equal(t, dto.MovementKindOutflow, list.Items[0].Kind)
	assert.Equal(t, dto.MovementKindTransfer, list.Items[1].Kind)
	assert.Equal(t, dto.MovementKindInflow, list.Items[2].Kind)

	var balances []dto.BalanceResponse
	resp = call(t, app, http.MethodGet, "/api/balances?product_id=PROD1&location_id=LOC_B", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &balances)
	require.Len(t, balances, 1)
	assert.Equal(t, int64(20), balances[0].Quantity)

	// enmienda: la salida pasa de 10 a 15
	mustStatus(t, call(t, app, http.MethodPut, "/api/movements/M3", `{"product_id":"PROD1","from_location":"LOC_A","qty":15}`, ""), http.StatusOK)

	var amended dto.MovementResponse
	resp = call(t, app, http.MethodGet, "/api/movements/M3", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &amended)
	assert.Equal(t, int64(15), amended.Qty)
	assert.Equal(t, "2026-01-01T12:00:00Z", amended.Timestamp.Format("2006-01-02T15:04:05Z07:00"))

	var revisions []dto.MovementRevisionResponse
	resp = call(t, app, http.MethodGet, "/api/movements/M3/revisions", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &revisions)
	require.Len(t, revisions, 1)
	assert.Equal(t, int64(10), revisions[0].Previous.Qty)
	assert.Equal(t, int64(15), revisions[0].Current.Qty)

	resp = call(t, app, http.MethodGet, "/api/balances?location_id=LOC_A", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &balances)
	require.Len(t, balances, 1)
	assert.Equal(t, int64(65), balances[0].Quantity)

	var verify dto.VerifyResponse
	resp = call(t, app, http.MethodGet, "/api/reports/balance/verify", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &verify)
	assert.True(t, verify.Consistent)
	assert.Equal(t, 3, verify.CheckedMovements)

	var detail dto.LocationDetailResponse
	resp = call(t, app, http.MethodGet, "/api/locations/LOC_A/detail", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &detail)
	assert.Len(t, detail.Incoming, 1)
	assert.Len(t, detail.Outgoing, 2)
}

// El id de una enmienda no debe compartir memoria con la petición: las siguientes
// peticiones reutilizan el buffer y no pueden alterar lo guardado.
func TestAPI_AmendKeepsMovementIDAfterLaterRequests(t *testing.T) {
	app := newTestAPI(t, "")
	seedCatalog(t, app, "")

	mustStatus(t, call(t, app, http.MethodPost, "/api/movements", `{"id":"MOV1","product_id":"PROD1","to_location":"LOC_A","qty":5}`, ""), http.StatusCreated)
	mustStatus(t, call(t, app, http.MethodPut, "/api/movements/MOV1", `{"product_id":"PROD1","to_location":"LOC_A","qty":7}`, ""), http.StatusOK)
	for _, path := range []string{"/api/products/ZZZZ", "/api/locations/WWWW", "/api/movements/ZZZW", "/api/products/PROD1/detail"} {
		_ = call(t, app, http.MethodGet, path, nil, "")
	}
	mustStatus(t, call(t, app, http.MethodPut, "/api/products/PROD1", `{"name":"Tornillo 3/8"}`, ""), http.StatusOK)
	_ = call(t, app, http.MethodGet, "/api/products/XXXXX", nil, "")

	var list dto.MovementListResponse
	resp := call(t, app, http.MethodGet, "/api/movements", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "MOV1", list.Items[0].ID)
	assert.Equal(t, int64(7), list.Items[0].Qty)

	var revisions []dto.MovementRevisionResponse
	resp = call(t, app, http.MethodGet, "/api/movements/MOV1/revisions", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &revisions)
	require.Len(t, revisions, 1)
	assert.Equal(t, "MOV1", revisions[0].Current.ID)

	var product dto.ProductResponse
	resp = call(t, app, http.MethodGet, "/api/products/PROD1", nil, "")
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &product)
	assert.Equal(t, "PROD1", product.ID)
	assert.Equal(t, "Tornillo 3/8", product.Name)
}

func TestAPI_ErrorMapping(t *testing.T) {
	app := newTestAPI(t, "")
	seedCatalog(t, app, "")
	mustStatus(t, call(t, app, http.MethodPost, "/api/movements", `{"id":"M1","product_id":"PROD1","to_location":"LOC_A","qty":5}`, ""), http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"movimiento duplicado", http.MethodPost, "/api/movements", `{"id":"M1","product_id":"GHOST","qty":0}`, http.StatusConflict, "DUPLICATE_ID"},
		{"producto desconocido", http.MethodPost, "/api/movements", `{"id":"M2","product_id":"GHOST","to_location":"LOC_A","qty":1}`, http.StatusUnprocessableEntity, "UNKNOWN_PRODUCT"},
		{"ubicación desconocida", http.MethodPost, "/api/movements", `{"id":"M2","product_id":"PROD1","to_location":"LOC_Z","qty":1}`, http.StatusUnprocessableEntity, "UNKNOWN_LOCATION"},
		{"cantidad cero", http.MethodPost, "/api/movements", `{"id":"M2","product_id":"PROD1","to_location":"LOC_A","qty":0}`, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{"cantidad fuera de rango", http.MethodPost, "/api/movements", `{"id":"M2","product_id":"PROD1","to_location":"LOC_A","qty":9223372036854775807}`, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{"sin ubicaciones", http.MethodPost, "/api/movements", `{"id":"M2","product_id":"PROD1","qty":3}`, http.StatusUnprocessableEntity, "NO_LOCATION_SPECIFIED"},
		{"sin id", http.MethodPost, "/api/movements", `{"product_id":"PROD1","to_location":"LOC_A","qty":3}`, http.StatusBadRequest, "VALIDATION"},
		{"json inválido", http.MethodPost, "/api/movements", `{"id":`, http.StatusBadRequest, "INVALID_BODY"},
		{"enmienda inexistente", http.MethodPut, "/api/movements/NOPE", `{"product_id":"PROD1","to_location":"LOC_A","qty":3}`, http.StatusNotFound, "NOT_FOUND"},
		{"producto duplicado", http.MethodPost, "/api/products", dto.CreateProductRequest{ID: "PROD1", Name: "Otro"}, http.StatusConflict, "DUPLICATE_ID"},
		{"nombre vacío", http.MethodPost, "/api/locations", `{"id":"LOC_C","name":""}`, http.StatusBadRequest, "VALIDATION"},
		{"producto inexistente", http.MethodGet, "/api/products/NOPE", nil, http.StatusNotFound, "NOT_FOUND"},
		{"saldo de ubicación inexistente", http.MethodGet, "/api/balances?product_id=PROD1&location_id=NOPE", nil, http.StatusNotFound, "NOT_FOUND"},
		{"ruta inexistente", http.MethodGet, "/api/nada", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, app, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			var body dto.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	// ningún rechazo dejó rastro en el ledger
	var list dto.MovementListResponse
	resp := call(t, app, http.MethodGet, "/api/movements", nil, "")
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Meta.Total)
}

func TestAPI_WritesRequireRoleWhenSecretSet(t *testing.T) {
	app := newTestAPI(t, testJWTSecret)

	resp := call(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{ID: "PROD1", Name: "Tornillo"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{ID: "PROD1", Name: "Tornillo"}, tokenForRole(t, "consulta"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	seedCatalog(t, app, tokenForRole(t, "bodeguero"))

	// lecturas públicas
	resp = call(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/reports/balance/rebuild", nil, tokenForRole(t, "bodeguero"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var rebuilt dto.RebuildResponse
	resp = call(t, app, http.MethodPost, "/api/reports/balance/rebuild", nil, tokenForRole(t, "admin"))
	mustStatus(t, resp, http.StatusOK)
	decode(t, resp, &rebuilt)
	assert.Equal(t, 0, rebuilt.Movements)
}

func TestAPI_ReportExports(t *testing.T) {
	app := newTestAPI(t, "")
	seedCatalog(t, app, "")
	mustStatus(t, call(t, app, http.MethodPost, "/api/movements", `{"id":"M1","product_id":"PROD1","to_location":"LOC_B","qty":7}`, ""), http.StatusCreated)

	resp := call(t, app, http.MethodGet, "/api/reports/balance.pdf", nil, "")
	mustStatus(t, resp, http.StatusOK)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "saldos-v4.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp = call(t, app, http.MethodGet, "/api/reports/balance.xml", nil, "")
	mustStatus(t, resp, http.StatusOK)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `productId="PROD1"`)
}
