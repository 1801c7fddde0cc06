package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapp/pkg/clock"
	"libraryapp/pkg/config"
	"libraryapp/pkg/database"
	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/notify"
	"libraryapp/pkg/store"
)

var testNow = time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.Database{Driver: database.DriverSQLite, SQLitePath: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	quiet := log.New(io.Discard, "", 0)
	st := store.New(db)
	svc := lifecycle.NewService(st, notify.NewLogNotifier(quiet), clock.NewFixed(testNow), lifecycle.WithLogger(quiet))
	return NewRouter(svc, st)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &response)
	}
	return w, response
}

func createBook(t *testing.T, r http.Handler, isbn string) string {
	t.Helper()
	w, resp := do(t, r, "POST", "/api/v1/books", gin.H{"title": "Book " + isbn, "author": "Author", "isbn": isbn})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["bookUid"].(string)
}

func createMember(t *testing.T, r http.Handler, name string) string {
	t.Helper()
	w, resp := do(t, r, "POST", "/api/v1/members", gin.H{
		"name":         name,
		"membershipId": "M-" + name,
		"email":        name + "@example.com",
		"username":     name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["memberUid"].(string)
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t)
	w, resp := do(t, r, "GET", "/manage/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", resp["status"])
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheckDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{pinger: downPinger{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/manage/health", nil)

	h.healthCheck(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "DOWN", response["status"])
}

func TestBooksEndpoints(t *testing.T) {
	r := setupRouter(t)

	w, resp := do(t, r, "POST", "/api/v1/books", gin.H{
		"title": "Dune", "author": "Frank Herbert", "isbn": "978-0441172719", "publishDate": "1965-08-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookUid := resp["bookUid"].(string)
	assert.Equal(t, "Available", resp["status"])
	assert.Equal(t, "1965-08-01", resp["publishDate"])
	assert.Equal(t, "/api/v1/books/"+bookUid, w.Header().Get("Location"))

	w, resp = do(t, r, "POST", "/api/v1/books", gin.H{"title": "Dune again", "isbn": "978-0441172719"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_isbn", resp["code"])

	w, resp = do(t, r, "POST", "/api/v1/books", gin.H{"title": "Bad", "isbn": "1", "publishDate": "08/01/1965"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", resp["code"])

	w, _ = do(t, r, "POST", "/api/v1/books", gin.H{"author": "Nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = do(t, r, "PUT", "/api/v1/books/"+bookUid, gin.H{"title": "Dune (Deluxe)"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune (Deluxe)", resp["title"])

	w, resp = do(t, r, "GET", "/api/v1/books?page=1&size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["totalElements"])
	assert.Len(t, resp["items"].([]interface{}), 1)

	w, resp = do(t, r, "GET", "/api/v1/books?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = do(t, r, "GET", "/api/v1/books/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", resp["code"])

	w, resp = do(t, r, "GET", "/api/v1/books/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "book_not_found", resp["code"])

	w, _ = do(t, r, "DELETE", "/api/v1/books/"+bookUid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMembersEndpoints(t *testing.T) {
	r := setupRouter(t)
	memberUid := createMember(t, r, "alice")

	w, resp := do(t, r, "POST", "/api/v1/members", gin.H{"name": "Alice 2", "membershipId": "M-alice", "email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_membership_id", resp["code"])

	w, resp = do(t, r, "PUT", "/api/v1/members/"+memberUid, gin.H{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "555-0100", resp["phone"])

	w, resp = do(t, r, "GET", "/api/v1/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["totalElements"])

	w, _ = do(t, r, "DELETE", "/api/v1/members/"+memberUid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(t)
	bookUid := createBook(t, r, "111")
	alice := createMember(t, r, "alice")
	bob := createMember(t, r, "bob")

	w, resp := do(t, r, "POST", "/api/v1/reservations", gin.H{"bookUid": bookUid, "memberUid": bob})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "direct_loan_possible", resp["code"])

	w, resp = do(t, r, "POST", "/api/v1/loans", gin.H{"bookUid": bookUid, "memberUid": alice})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loanUid := resp["loanUid"].(string)
	assert.Equal(t, "2025-04-15", resp["loanDate"])
	assert.Equal(t, "2025-04-29", resp["dueDate"])

	w, resp = do(t, r, "POST", "/api/v1/loans", gin.H{"bookUid": bookUid, "memberUid": bob})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "book_unavailable", resp["code"])

	w, resp = do(t, r, "POST", "/api/v1/reservations", gin.H{"bookUid": bookUid, "memberUid": bob})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reservationUid := resp["reservationUid"].(string)
	assert.Equal(t, "Pending", resp["status"])

	w, resp = do(t, r, "GET", "/api/v1/books/"+bookUid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reserved", resp["status"])

	w, resp = do(t, r, "POST", "/api/v1/loans/"+loanUid+"/return", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["loan"].(map[string]interface{})["returned"])
	assert.Equal(t, "Reserved", resp["book"].(map[string]interface{})["status"])
	fulfilled := resp["fulfilledReservation"].(map[string]interface{})
	assert.Equal(t, reservationUid, fulfilled["reservationUid"])
	assert.Equal(t, "Completed", fulfilled["status"])

	w, resp = do(t, r, "POST", "/api/v1/loans/"+loanUid+"/return", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_returned", resp["code"])

	w, resp = do(t, r, "POST", "/api/v1/reservations/"+reservationUid+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_cancellable", resp["code"])

	w, resp = do(t, r, "GET", "/api/v1/members/"+alice+"/loans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Book 111", items[0].(map[string]interface{})["book"].(map[string]interface{})["title"])
}

func TestCreateLoanValidation(t *testing.T) {
	r := setupRouter(t)
	bookUid := createBook(t, r, "112")
	alice := createMember(t, r, "alice")

	w, resp := do(t, r, "POST", "/api/v1/loans", gin.H{
		"bookUid": bookUid, "memberUid": alice, "loanDate": "2025-04-10", "dueDate": "2025-04-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", resp["code"])

	w, resp = do(t, r, "POST", "/api/v1/loans", gin.H{"bookUid": bookUid, "memberUid": uuid.New().String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "member_not_found", resp["code"])

	w, _ = do(t, r, "GET", "/api/v1/loans?returned=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFiltersRejectMalformedIDs(t *testing.T) {
	r := setupRouter(t)

	for _, path := range []string{
		"/api/v1/loans?bookUid=nope",
		"/api/v1/loans?memberUid=nope",
		"/api/v1/reservations?bookUid=nope",
		"/api/v1/reservations?memberUid=nope",
	} {
		w, resp := do(t, r, "GET", path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "invalid_id", resp["code"], path)
	}

	w, resp := do(t, r, "GET", "/api/v1/loans?bookUid="+uuid.New().String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["totalElements"])
}

func TestMyEndpointsUseUserHeader(t *testing.T) {
	r := setupRouter(t)
	bookUid := createBook(t, r, "113")
	alice := createMember(t, r, "alice")

	w, _ := do(t, r, "POST", "/api/v1/loans", gin.H{"bookUid": bookUid, "memberUid": alice})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := do(t, r, "GET", "/api/v1/me/loans", nil, UserHeader, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["totalElements"])

	w, resp = do(t, r, "GET", "/api/v1/me/reservations", nil, UserHeader, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["totalElements"])

	w, _ = do(t, r, "GET", "/api/v1/me/loans", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = do(t, r, "GET", "/api/v1/me/loans", nil, UserHeader, "mallory")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "member_not_found", resp["code"])
}

func TestOverdueJobsAndReports(t *testing.T) {
	r := setupRouter(t)
	bookUid := createBook(t, r, "114")
	alice := createMember(t, r, "alice")

	w, _ := do(t, r, "POST", "/api/v1/loans", gin.H{
		"bookUid": bookUid, "memberUid": alice, "loanDate": "2025-03-01", "dueDate": "2025-03-15",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := do(t, r, "GET", "/api/v1/reports/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["totalElements"])

	w, resp = do(t, r, "POST", "/api/v1/jobs/scan-overdue?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["marked"])
	assert.Equal(t, "2025-03-10", resp["date"])

	w, resp = do(t, r, "POST", "/api/v1/jobs/scan-overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["marked"])

	w, resp = do(t, r, "POST", "/api/v1/jobs/scan-overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["marked"])

	w, _ = do(t, r, "POST", "/api/v1/jobs/scan-overdue?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = do(t, r, "POST", "/api/v1/jobs/notify-overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["processed"])
	assert.Equal(t, float64(1), resp["sent"])

	w, resp = do(t, r, "GET", "/api/v1/reports/on-loan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0].(map[string]interface{})["overdue"])
}

func TestStatusForKinds(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(lifecycle.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(lifecycle.KindConflict))
	assert.Equal(t, http.StatusBadRequest, statusFor(lifecycle.KindValidation))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(lifecycle.KindDependency))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}
