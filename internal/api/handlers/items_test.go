package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemHandler_CreateAndList(t *testing.T) {
	router, tc := setupTestRouter(t, true)
	defer tc.Cleanup()

	t.Run("creates item", func(t *testing.T) {
		body := map[string]any{"name": "Widget", "barcode": "A-1", "quantity": 10}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)

		var item dto.ItemDTO
		testutil.ParseJSONResponse(t, rr, &item)
		assert.Equal(t, "Widget", item.Name)
		assert.Equal(t, 10, item.Quantity)
		assert.Equal(t, tc.Tenant.ID.String(), item.CompanyID)
	})

	t.Run("duplicate barcode is 400", func(t *testing.T) {
		body := map[string]any{"name": "Other", "barcode": "A-1", "quantity": 1}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		assert.Contains(t, rr.Body.String(), "Barcode already exists")
	})

	t.Run("duplicate barcode in another tenant is 400 in global mode", func(t *testing.T) {
		_, _, otherToken := tc.SecondTenant("Other")
		body := map[string]any{"name": "Widget", "barcode": "A-1"}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/items", body, otherToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("negative quantity is 400", func(t *testing.T) {
		body := map[string]any{"name": "Bad", "barcode": "B-1", "quantity": -1}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("lists only own tenant", func(t *testing.T) {
		other, _, otherToken := tc.SecondTenant("Third")
		testutil.CreateTestItem(t, tc.DB, other.ID, "Foreign", "F-1", 3)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/items", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		var items []dto.ItemDTO
		testutil.ParseJSONResponse(t, rr, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "Widget", items[0].Name)

		req = testutil.AuthenticatedRequest(t, "GET", "/api/items", nil, otherToken)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.ParseJSONResponse(t, rr, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "Foreign", items[0].Name)
	})

	t.Run("requires token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/items", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestItemHandler_TenantBarcodeScope(t *testing.T) {
	router, tc := setupTestRouter(t, false)
	defer tc.Cleanup()
	_, _, otherToken := tc.SecondTenant("Other")

	for _, token := range []string{tc.Token, otherToken} {
		body := map[string]any{"name": "Widget", "barcode": "A-1"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/items", body, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
	}
}

func TestItemHandler_Update(t *testing.T) {
	router, tc := setupTestRouter(t, true)
	defer tc.Cleanup()

	item := testutil.CreateTestItem(t, tc.DB, tc.Tenant.ID, "Widget", "W-1", 10)

	t.Run("sets absolute quantity", func(t *testing.T) {
		body := map[string]any{"id": item.ID.String(), "quantity": 4}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		var got dto.ItemDTO
		testutil.ParseJSONResponse(t, rr, &got)
		assert.Equal(t, 4, got.Quantity)

		var entry models.AuditEntry
		require.NoError(t, tc.DB.Where("item_id = ?", item.ID).Take(&entry).Error)
		assert.Equal(t, models.AuditRemoved, entry.Type)
		assert.Equal(t, 6, *entry.QuantityDelta)
		assert.Equal(t, 10, entry.PriorQuantity)
		assert.Equal(t, tc.Member.Name, entry.ActorName)
	})

	t.Run("missing quantity", func(t *testing.T) {
		body := map[string]any{"id": item.ID.String()}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("bad id", func(t *testing.T) {
		body := map[string]any{"id": "not-a-uuid", "quantity": 1}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("other tenant's item is 404", func(t *testing.T) {
		_, _, otherToken := tc.SecondTenant("Other")
		body := map[string]any{"id": item.ID.String(), "quantity": 0}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/items", body, otherToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)

		var stored models.Item
		require.NoError(t, tc.DB.First(&stored, "id = ?", item.ID).Error)
		assert.Equal(t, 4, stored.Quantity)
	})
}

func TestItemHandler_Adjust(t *testing.T) {
	router, tc := setupTestRouter(t, true)
	defer tc.Cleanup()

	item := testutil.CreateTestItem(t, tc.DB, tc.Tenant.ID, "Widget", "A-1", 10)

	body := map[string]any{"id": item.ID.String(), "delta": -15}
	req := testutil.AuthenticatedRequest(t, "POST", "/api/items/adjust", body, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	var got dto.ItemDTO
	testutil.ParseJSONResponse(t, rr, &got)
	assert.Equal(t, 0, got.Quantity)

	req = testutil.AuthenticatedRequest(t, "GET", "/api/items/"+item.ID.String()+"/history", nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	var history []dto.ActivityDTO
	testutil.ParseJSONResponse(t, rr, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "removed", history[0].Type)
	assert.Equal(t, 10, *history[0].QuantityDelta)
	assert.Equal(t, 10, history[0].PriorQuantity)

	body = map[string]any{"id": item.ID.String(), "delta": int64(9223372036854775807)}
	req = testutil.AuthenticatedRequest(t, "POST", "/api/items/adjust", body, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Contains(t, resp.Details, "delta")
}

func TestItemHandler_DeleteAndSearch(t *testing.T) {
	router, tc := setupTestRouter(t, true)
	defer tc.Cleanup()

	item := testutil.CreateTestItem(t, tc.DB, tc.Tenant.ID, "Widget", "W-1", 7)

	t.Run("search finds barcode", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/items/search?barcode=W-1", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		var got dto.ItemDTO
		testutil.ParseJSONResponse(t, rr, &got)
		assert.Equal(t, item.ID.String(), got.ID)
	})

	t.Run("search without barcode", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/items/search", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("delete unknown item", func(t *testing.T) {
		body := map[string]string{"id": uuid.NewString()}
		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("delete writes deleted entry", func(t *testing.T) {
		body := map[string]string{"id": item.ID.String()}
		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/items", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.AuthenticatedRequest(t, "GET", "/api/activities", nil, tc.Token)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		var activity []dto.ActivityDTO
		testutil.ParseJSONResponse(t, rr, &activity)
		require.Len(t, activity, 1)
		assert.Equal(t, "deleted", activity[0].Type)
		assert.Nil(t, activity[0].QuantityDelta)
		assert.Nil(t, activity[0].ItemID)
		assert.Equal(t, 7, activity[0].PriorQuantity)
		assert.Equal(t, "Widget", activity[0].ItemName)
	})

	t.Run("search after delete is 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/items/search?barcode=W-1", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
