package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database/dbtest"
	"github.com/Additional-Code/storefront/internal/event/eventtest"
	orderrepo "github.com/Additional-Code/storefront/internal/repository/order"
	userrepo "github.com/Additional-Code/storefront/internal/repository/user"
	httpserver "github.com/Additional-Code/storefront/internal/server/http"
	ordersvc "github.com/Additional-Code/storefront/internal/service/order"
	usersvc "github.com/Additional-Code/storefront/internal/service/user"
	ordertransport "github.com/Additional-Code/storefront/internal/transport/http/order"
	roottransport "github.com/Additional-Code/storefront/internal/transport/http/root"
	usertransport "github.com/Additional-Code/storefront/internal/transport/http/user"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]int  `json:"meta"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) api {
	t.Helper()
	conns := dbtest.Open(t)
	logger := zaptest.NewLogger(t)
	publisher, _ := eventtest.NewPublisher(t)
	cfg := config.Config{Pagination: config.Pagination{DefaultSize: 50, MaxSize: 100}}

	users, err := usersvc.NewService(usersvc.Params{
		Repository: userrepo.NewRepository(conns),
		Cache:      cache.Noop(),
		Config:     cfg,
		Logger:     logger,
		Events:     publisher,
	})
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	orders, err := ordersvc.NewService(ordersvc.Params{
		Repository: orderrepo.NewRepository(conns),
		Cache:      cache.Noop(),
		Config:     cfg,
		Logger:     logger,
		Events:     publisher,
	})
	if err != nil {
		t.Fatalf("order service: %v", err)
	}

	e := httpserver.NewEcho(cfg, nil, conns, logger)
	roottransport.Register(e)
	usertransport.Register(e, usertransport.NewHandler(users))
	ordertransport.Register(e, ordertransport.NewHandler(orders, cfg))
	return api{t: t, e: e}
}

func (a api) do(method, target, body string) (int, envelope) {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode body %q: %v", method, target, rec.Body.String(), err)
	}
	return rec.Code, env
}

func (a api) createUser(first, last, email string) int64 {
	a.t.Helper()
	body := `{"first_name":"` + first + `","last_name":"` + last + `","email":"` + email + `"}`
	status, env := a.do(http.MethodPost, "/users/", body)
	if status != http.StatusCreated {
		a.t.Fatalf("create user: status %d, body %+v", status, env)
	}
	var out struct {
		UserID int64 `json:"user_id"`
	}
	decode(a.t, env.Data, &out)
	return out.UserID
}

func decode(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

func TestCreatedUsersGetFreshIDs(t *testing.T) {
	a := newAPI(t)

	first := a.createUser("Ada", "Lovelace", "ada@example.com")
	second := a.createUser("Grace", "Hopper", "grace@example.com")
	if first == 0 || second == 0 || first == second {
		t.Fatalf("expected distinct ids, got %d and %d", first, second)
	}

	if status, _ := a.do(http.MethodDelete, "/users/"+itoa(second), ""); status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	third := a.createUser("Alan", "Turing", "alan@example.com")
	if third == first || third == second {
		t.Fatalf("id %d was reused", third)
	}
}

func TestFetchReturnsSubmittedFields(t *testing.T) {
	a := newAPI(t)
	id := a.createUser("Ada", "Lovelace", "ada@example.com")

	status, env := a.do(http.MethodGet, "/users/"+itoa(id), "")
	if status != http.StatusOK {
		t.Fatalf("get: status %d", status)
	}
	var got struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		CreatedAt string `json:"created_at"`
	}
	decode(t, env.Data, &got)
	if got.CreatedAt == "" {
		t.Fatal("expected created_at to be set")
	}
	got.CreatedAt = ""
	want := struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		CreatedAt string `json:"created_at"`
	}{ID: id, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUserFromQueryParameters(t *testing.T) {
	a := newAPI(t)
	q := url.Values{"first_name": {"Ada"}, "last_name": {"Lovelace"}, "email": {"ada@example.com"}}

	status, env := a.do(http.MethodPost, "/users?"+q.Encode(), "")
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, env.Error)
	}

	status, env = a.do(http.MethodPost, "/users", `{"first_name":"Ada"}`)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Kind != "bad_request" {
		t.Fatalf("expected bad request for missing fields, got %d %+v", status, env.Error)
	}
}

func TestDeletedUserIsNotFound(t *testing.T) {
	a := newAPI(t)
	id := a.createUser("Ada", "Lovelace", "ada@example.com")

	status, env := a.do(http.MethodDelete, "/users/"+itoa(id), "")
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	var out struct {
		UserID int64 `json:"user_id"`
	}
	decode(t, env.Data, &out)
	if out.UserID != id {
		t.Fatalf("expected deleted id %d, got %d", id, out.UserID)
	}

	if status, env := a.do(http.MethodGet, "/users/"+itoa(id), ""); status != http.StatusNotFound || env.Error.Kind != "not_found" {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if status, _ := a.do(http.MethodDelete, "/users/"+itoa(id), ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", status)
	}
}

func TestOrderForUnknownUserIsIntegrityViolation(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/orders/", `{"title":"orphan","user_id":4242}`)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Kind != "integrity_violation" {
		t.Fatalf("expected 400 integrity_violation, got %d %+v", status, env.Error)
	}

	if status, _ := a.do(http.MethodGet, "/users/4242/orders", ""); status != http.StatusNotFound {
		t.Fatalf("expected no persisted orders, got status %d", status)
	}
}

func TestCreatedOrderIsListed(t *testing.T) {
	a := newAPI(t)
	userID := a.createUser("Ada", "Lovelace", "ada@example.com")

	q := url.Values{"title": {"engine"}, "description": {"analytical"}, "user_id": {itoa(userID)}}
	status, env := a.do(http.MethodPost, "/orders?"+q.Encode(), "")
	if status != http.StatusCreated {
		t.Fatalf("create order: status %d %+v", status, env.Error)
	}
	var created struct {
		OrderID int64 `json:"order_id"`
	}
	decode(t, env.Data, &created)

	for _, path := range []string{"/users/" + itoa(userID) + "/orders", "/customers_orders/" + itoa(userID)} {
		status, env = a.do(http.MethodGet, path, "")
		if status != http.StatusOK {
			t.Fatalf("%s: status %d", path, status)
		}
		var orders []struct {
			ID          int64  `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			UserID      int64  `json:"user_id"`
		}
		decode(t, env.Data, &orders)
		if len(orders) != 1 || orders[0].ID != created.OrderID || orders[0].Title != "engine" || orders[0].UserID != userID {
			t.Fatalf("%s: unexpected orders %+v", path, orders)
		}
		if diff := cmp.Diff(map[string]int{"page": 1, "size": 50, "total": 1, "pages": 1}, env.Meta); diff != "" {
			t.Fatalf("%s: meta mismatch (-want +got):\n%s", path, diff)
		}
	}

	status, env = a.do(http.MethodGet, "/orders/"+itoa(created.OrderID), "")
	if status != http.StatusOK {
		t.Fatalf("get order: status %d", status)
	}
	var fields map[string]any
	decode(t, env.Data, &fields)
	if fields["description"] != "analytical" {
		t.Fatalf("expected stored description, got %v", fields["description"])
	}

	if status, env := a.do(http.MethodDelete, "/users/"+itoa(userID), ""); status != http.StatusConflict || env.Error.Kind != "conflict" {
		t.Fatalf("expected 409 deleting a user with orders, got %d", status)
	}
}

func TestOrderWithoutDescriptionRendersNull(t *testing.T) {
	a := newAPI(t)
	userID := a.createUser("Ada", "Lovelace", "ada@example.com")

	status, env := a.do(http.MethodPost, "/orders", `{"title":"bare","user_id":`+itoa(userID)+`}`)
	if status != http.StatusCreated {
		t.Fatalf("create order: status %d %+v", status, env.Error)
	}
	var created struct {
		OrderID int64 `json:"order_id"`
	}
	decode(t, env.Data, &created)

	for _, path := range []string{"/orders/" + itoa(created.OrderID), "/users/" + itoa(userID) + "/orders"} {
		status, env = a.do(http.MethodGet, path, "")
		if status != http.StatusOK {
			t.Fatalf("%s: status %d", path, status)
		}
		var order map[string]any
		if strings.HasPrefix(string(env.Data), "[") {
			var page []map[string]any
			decode(t, env.Data, &page)
			if len(page) != 1 {
				t.Fatalf("%s: expected one order, got %d", path, len(page))
			}
			order = page[0]
		} else {
			decode(t, env.Data, &order)
		}
		desc, ok := order["description"]
		if !ok || desc != nil {
			t.Fatalf("%s: expected description to be null, got %v (present=%v)", path, desc, ok)
		}
	}
}

func TestUnmatchedIDsAreNotFound(t *testing.T) {
	a := newAPI(t)
	a.createUser("Ada", "Lovelace", "ada@example.com")

	cases := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/users/0"},
		{http.MethodGet, "/users/-1"},
		{http.MethodGet, "/customers/0"},
		{http.MethodGet, "/orders/0"},
		{http.MethodGet, "/orders/-7"},
		{http.MethodGet, "/users/0/orders"},
		{http.MethodGet, "/customers_orders/0"},
		{http.MethodDelete, "/users/0"},
	}
	for _, tc := range cases {
		status, env := a.do(tc.method, tc.target, "")
		if status != http.StatusNotFound || env.Error == nil || env.Error.Kind != "not_found" {
			t.Errorf("%s %s: expected 404 not_found, got %d %+v", tc.method, tc.target, status, env.Error)
		}
	}
}

func TestCustomerPathsServeUsers(t *testing.T) {
	a := newAPI(t)
	q := url.Values{"first_name": {"Grace"}, "last_name": {"Hopper"}, "email": {"grace@example.com"}}

	status, env := a.do(http.MethodPost, "/customers/?"+q.Encode(), "")
	if status != http.StatusCreated {
		t.Fatalf("create customer: status %d %+v", status, env.Error)
	}
	var created struct {
		UserID int64 `json:"user_id"`
	}
	decode(t, env.Data, &created)

	for _, path := range []string{"/customers/", "/users/"} {
		status, env = a.do(http.MethodGet, path+itoa(created.UserID), "")
		if status != http.StatusOK {
			t.Fatalf("%s: status %d", path, status)
		}
		var got struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		}
		decode(t, env.Data, &got)
		if got.ID != created.UserID || got.Email != "grace@example.com" {
			t.Fatalf("%s: unexpected user %+v", path, got)
		}
	}

	if status, _ := a.do(http.MethodPost, "/customers", `{"first_name":"Alan"}`); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", status)
	}
	if status, _ := a.do(http.MethodDelete, "/customers/"+itoa(created.UserID), ""); status != http.StatusMethodNotAllowed {
		t.Fatalf("expected deletes to be served only under /users, got %d", status)
	}
}

func TestListForUserWithoutOrdersIsNotFound(t *testing.T) {
	a := newAPI(t)
	userID := a.createUser("Ada", "Lovelace", "ada@example.com")

	status, env := a.do(http.MethodGet, "/users/"+itoa(userID)+"/orders", "")
	if status != http.StatusNotFound || env.Error == nil || env.Error.Kind != "not_found" {
		t.Fatalf("expected 404, got %d %+v", status, env.Error)
	}
}

func TestPaginationAndCoercion(t *testing.T) {
	a := newAPI(t)
	userID := a.createUser("Ada", "Lovelace", "ada@example.com")
	for _, title := range []string{"a", "b", "c"} {
		if status, _ := a.do(http.MethodPost, "/orders", `{"title":"`+title+`","user_id":`+itoa(userID)+`}`); status != http.StatusCreated {
			t.Fatalf("create order %s: status %d", title, status)
		}
	}

	status, env := a.do(http.MethodGet, "/users/"+itoa(userID)+"/orders?page=2&size=2", "")
	if status != http.StatusOK {
		t.Fatalf("page 2: status %d", status)
	}
	var page []struct {
		Title string `json:"title"`
	}
	decode(t, env.Data, &page)
	if len(page) != 1 || page[0].Title != "c" {
		t.Fatalf("unexpected second page %+v", page)
	}

	cases := []string{
		"/users/abc",
		"/orders/1.5",
		"/users/" + itoa(userID) + "/orders?size=0",
		"/users/" + itoa(userID) + "/orders?size=101",
		"/users/" + itoa(userID) + "/orders?page=x",
		"/users/" + itoa(userID) + "/orders?page=9223372036854775807&size=50",
	}
	for _, target := range cases {
		if status, _ := a.do(http.MethodGet, target, ""); status != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, status)
		}
	}

	if status, _ := a.do(http.MethodPost, "/orders?user_id=abc&title=x", ""); status != http.StatusBadRequest {
		t.Errorf("non-integer user_id: expected 400, got %d", status)
	}
}

func TestRootHint(t *testing.T) {
	a := newAPI(t)
	status, env := a.do(http.MethodGet, "/", "")
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	var out map[string]string
	decode(t, env.Data, &out)
	if out["message"] != roottransport.Hint {
		t.Fatalf("unexpected hint %q", out["message"])
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
