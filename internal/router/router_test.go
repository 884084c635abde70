package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pet-adoption-marketplace/internal/platform/config"
	"pet-adoption-marketplace/internal/router"

	"github.com/gorilla/websocket"
)

const (
	petLuna  = "pet-luna"
	petMichi = "pet-michi"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := router.NewRouter(router.Options{
		Config: config.Config{
			DevAuth:     true,
			AdminEmails: []string{"admin@example.com"},
			JWTTTL:      time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_WizardSubmitAndReview(t *testing.T) {
	ts := newServer(t)
	user := debugUser("adopter-1")
	admin := debugAdmin("admin-1")

	// 1) Abre el wizard para Luna
	var wz struct {
		ID         string `json:"id"`
		Step       string `json:"step"`
		StepNumber int    `json:"stepNumber"`
	}
	doJSON(t, http.StatusCreated, &wz, ts.URL, "POST", "/pets/"+petLuna+"/applications/wizard", user, nil)
	if wz.Step != "personal" || wz.StepNumber != 1 {
		t.Fatalf("expected step personal/1, got %s/%d", wz.Step, wz.StepNumber)
	}

	// 2) Paso 1 inválido: 422 con errores por campo y el paso no cambia
	{
		bad := personalInfo()
		bad["email"] = "not-an-email"
		delete(bad, "firstName")

		var verr struct {
			Step   string            `json:"step"`
			Fields map[string]string `json:"fields"`
		}
		doJSON(t, http.StatusUnprocessableEntity, &verr, ts.URL, "POST", "/applications/wizard/"+wz.ID+"/advance", user, bad)
		if verr.Fields["email"] != "Please enter a valid email" || verr.Fields["firstName"] != "First name is required" {
			t.Fatalf("unexpected field errors: %#v", verr.Fields)
		}
	}

	// 3) Avanza los cuatro pasos; el último envía
	steps := []map[string]any{personalInfo(), homeInfo(), experience(), references()}
	var appID string
	for i, data := range steps {
		want := http.StatusOK
		if i == len(steps)-1 {
			want = http.StatusCreated
		}
		var res struct {
			Step          string `json:"step"`
			Submitted     bool   `json:"submitted"`
			ApplicationID string `json:"applicationId"`
		}
		doJSON(t, want, &res, ts.URL, "POST", "/applications/wizard/"+wz.ID+"/advance", user, data)
		if i == len(steps)-1 {
			if !res.Submitted || res.ApplicationID == "" || res.Step != "submitted" {
				t.Fatalf("expected submitted with id, got %#v", res)
			}
			appID = res.ApplicationID
		}
	}

	// 4) El wizard se descarta al enviar; un avance extra no crea otra solicitud
	{
		st, _ := doReq(t, ts.URL, "POST", "/applications/wizard/"+wz.ID+"/advance", user, references())
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after submit, got %d", st)
		}
	}

	// 5) El usuario la ve pendiente con la mascota embebida
	{
		var mine []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Pet    struct {
				Name string `json:"name"`
			} `json:"pet"`
		}
		doJSON(t, http.StatusOK, &mine, ts.URL, "GET", "/me/applications", user, nil)
		if len(mine) != 1 || mine[0].ID != appID || mine[0].Status != "pending" || mine[0].Pet.Name != "Luna" {
			t.Fatalf("unexpected applications: %#v", mine)
		}
	}

	// 6) Sólo un admin revisa
	{
		st, _ := doReq(t, ts.URL, "PATCH", "/admin/applications/"+appID, user, map[string]any{"status": "approved"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin review, got %d", st)
		}

		var reviewed struct {
			Status string `json:"status"`
		}
		doJSON(t, http.StatusOK, &reviewed, ts.URL, "PATCH", "/admin/applications/"+appID, admin, map[string]any{"status": "approved"})
		if reviewed.Status != "approved" {
			t.Fatalf("expected approved, got %s", reviewed.Status)
		}
	}

	// 7) Otro usuario no la encuentra
	{
		st, _ := doReq(t, ts.URL, "GET", "/me/applications/"+appID, debugUser("someone-else"), nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for foreign application, got %d", st)
		}
	}
}

func TestHTTP_OversizedApplicationBodyIsRejected(t *testing.T) {
	ts := newServer(t)
	user := debugUser("adopter-3")

	info := personalInfo()
	info["address"] = strings.Repeat("x", 80<<10)
	st, _ := doReq(t, ts.URL, "POST", "/pets/"+petLuna+"/applications", user, map[string]any{"personalInfo": info})
	if st != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized body, got %d", st)
	}

	var wz struct {
		ID string `json:"id"`
	}
	doJSON(t, http.StatusCreated, &wz, ts.URL, "POST", "/pets/"+petLuna+"/applications/wizard", user, nil)
	st, _ = doReq(t, ts.URL, "POST", "/applications/wizard/"+wz.ID+"/advance", user, info)
	if st != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized step, got %d", st)
	}
}

func TestHTTP_SubmitIgnoresClientStatusAndIsIdempotent(t *testing.T) {
	ts := newServer(t)
	user := debugUser("adopter-2")
	user["Idempotency-Key"] = "attempt-1"

	body := map[string]any{
		"personalInfo": personalInfo(),
		"homeInfo":     homeInfo(),
		"experience":   experience(),
		"references":   references(),
		"status":       "approved",
	}

	var first, second struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doJSON(t, http.StatusCreated, &first, ts.URL, "POST", "/pets/"+petMichi+"/applications", user, body)
	if first.Status != "pending" {
		t.Fatalf("expected forced pending, got %s", first.Status)
	}
	doJSON(t, http.StatusCreated, &second, ts.URL, "POST", "/pets/"+petMichi+"/applications", user, body)
	if second.ID != first.ID {
		t.Fatalf("expected same application for repeated key, got %s and %s", first.ID, second.ID)
	}
}

func TestHTTP_FavoriteToggle(t *testing.T) {
	ts := newServer(t)
	user := debugUser("fan-1")

	var state struct {
		Favorite bool `json:"favorite"`
	}
	doJSON(t, http.StatusOK, &state, ts.URL, "POST", "/pets/"+petLuna+"/favorite/toggle", user, nil)
	if !state.Favorite {
		t.Fatalf("expected favorite after first toggle")
	}

	var list []struct {
		PetID string `json:"petId"`
	}
	doJSON(t, http.StatusOK, &list, ts.URL, "GET", "/me/favorites", user, nil)
	if len(list) != 1 || list[0].PetID != petLuna {
		t.Fatalf("unexpected favorites: %#v", list)
	}

	doJSON(t, http.StatusOK, &state, ts.URL, "POST", "/pets/"+petLuna+"/favorite/toggle", user, nil)
	if state.Favorite {
		t.Fatalf("expected not favorite after second toggle")
	}

	if st, _ := doReq(t, ts.URL, "POST", "/pets/"+petLuna+"/favorite/toggle", nil, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", st)
	}
}

func TestHTTP_SignUpSignInSignOut(t *testing.T) {
	ts := newServer(t)

	var res struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			Email string `json:"email"`
			Admin bool   `json:"admin"`
		} `json:"user"`
	}
	doJSON(t, http.StatusCreated, &res, ts.URL, "POST", "/auth/signup", nil, map[string]any{
		"name": "Admin", "email": "Admin@Example.com", "password": "hunter22",
	})
	if res.AccessToken == "" || !res.User.Admin {
		t.Fatalf("expected admin token, got %#v", res)
	}

	if st, _ := doReq(t, ts.URL, "POST", "/auth/signin", nil, map[string]any{
		"email": "admin@example.com", "password": "wrong-pass",
	}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", st)
	}

	bearer := map[string]string{"Authorization": "Bearer " + res.AccessToken}
	if st, body := doReq(t, ts.URL, "GET", "/auth/me", bearer, nil); st != http.StatusOK {
		t.Fatalf("expected 200 /auth/me, got %d body=%s", st, body)
	}
	if st, body := doReq(t, ts.URL, "POST", "/auth/signout", bearer, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 signout, got %d body=%s", st, body)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/auth/me", bearer, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 after signout, got %d", st)
	}
}

func TestHTTP_CartCheckout(t *testing.T) {
	ts := newServer(t)
	user := debugUser("shopper-1")
	user["X-Debug-Email"] = "shopper@example.com"

	if st, body := doReq(t, ts.URL, "POST", "/me/cart/checkout", user, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty cart, got %d body=%s", st, body)
	}

	var c struct {
		ItemCount  int   `json:"itemCount"`
		TotalCents int64 `json:"totalCents"`
	}
	doJSON(t, http.StatusOK, &c, ts.URL, "POST", "/me/cart/items", user, map[string]any{"productId": "prod-kibble"})
	doJSON(t, http.StatusOK, &c, ts.URL, "POST", "/me/cart/items", user, map[string]any{"productId": "prod-kibble"})
	if c.ItemCount != 2 || c.TotalCents != 2*3499 {
		t.Fatalf("unexpected cart: %#v", c)
	}

	var order struct {
		ID         string `json:"id"`
		TotalCents int64  `json:"totalCents"`
	}
	doJSON(t, http.StatusCreated, &order, ts.URL, "POST", "/me/cart/checkout", user, nil)
	if order.ID == "" || order.TotalCents != 2*3499 {
		t.Fatalf("unexpected order: %#v", order)
	}

	doJSON(t, http.StatusOK, &c, ts.URL, "GET", "/me/cart", user, nil)
	if c.ItemCount != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", c.ItemCount)
	}
}

func TestHTTP_StatusStreamSeesNewApplication(t *testing.T) {
	ts := newServer(t)
	user := debugUser("watcher-1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/me/applications/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, toHeader(user))
	if err != nil {
		t.Fatalf("dial stream: %v (resp=%v)", err, resp)
	}
	defer conn.Close()

	type frame struct {
		Type         string `json:"type"`
		Applications []struct {
			ID string `json:"id"`
		} `json:"applications"`
	}

	var first frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if first.Type != "snapshot" || len(first.Applications) != 0 {
		t.Fatalf("unexpected initial frame: %#v", first)
	}

	var created struct {
		ID string `json:"id"`
	}
	doJSON(t, http.StatusCreated, &created, ts.URL, "POST", "/pets/"+petLuna+"/applications", user, map[string]any{
		"personalInfo": personalInfo(),
		"homeInfo":     homeInfo(),
		"experience":   experience(),
		"references":   references(),
	})

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for application %s: %v", created.ID, err)
		}
		if len(f.Applications) == 1 && f.Applications[0].ID == created.ID {
			return
		}
	}
}

func TestHTTP_AdminEditsAndRemovesCatalog(t *testing.T) {
	ts := newServer(t)
	admin := debugAdmin("admin-1")

	var pet struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	doJSON(t, http.StatusOK, &pet, ts.URL, "PATCH", "/admin/pets/pet-kiwi", admin, map[string]any{"age": 5})
	if pet.Age != 5 || pet.Name != "Kiwi" {
		t.Fatalf("unexpected pet after patch: %#v", pet)
	}
	if st, _ := doReq(t, ts.URL, "PATCH", "/admin/pets/pet-kiwi", debugUser("u1"), map[string]any{"age": 1}); st != http.StatusForbidden {
		t.Fatalf("expected 403 for non admin, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "PATCH", "/admin/pets/pet-kiwi", admin, map[string]any{"species": "dragon"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid species, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "PATCH", "/admin/pets/ghost", admin, map[string]any{"age": 1}); st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown pet, got %d", st)
	}

	var shelter struct {
		PhoneNumber string `json:"phoneNumber"`
		City        string `json:"city"`
	}
	doJSON(t, http.StatusOK, &shelter, ts.URL, "PATCH", "/admin/shelters/shelter-happy-paws", admin, map[string]any{"phoneNumber": "555-0199"})
	if shelter.PhoneNumber != "555-0199" || shelter.City == "" {
		t.Fatalf("unexpected shelter after patch: %#v", shelter)
	}

	// Kiwi todavía pertenece a este refugio
	if st, _ := doReq(t, ts.URL, "DELETE", "/admin/shelters/shelter-second-chance", admin, nil); st != http.StatusConflict {
		t.Fatalf("expected 409 deleting shelter with pets, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/admin/pets/pet-kiwi", admin, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 deleting pet, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/pets/pet-kiwi", nil, nil); st != http.StatusNotFound {
		t.Fatalf("expected deleted pet to be gone, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/admin/shelters/shelter-second-chance", admin, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 deleting empty shelter, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/admin/shelters/shelter-second-chance", admin, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", st)
	}
}

func TestHTTP_ProfileAppearsInAdminApplications(t *testing.T) {
	ts := newServer(t)
	user := debugUser("adopter-7")

	if st, _ := doReq(t, ts.URL, "GET", "/me/profile", nil, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "PATCH", "/me/profile", user, map[string]any{"phone": "not a phone"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad phone, got %d", st)
	}

	var profile struct {
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
	}
	doJSON(t, http.StatusOK, &profile, ts.URL, "PATCH", "/me/profile", user, map[string]any{
		"fullName": "Sam Lee",
		"phone":    "+1 555 0100",
	})
	doJSON(t, http.StatusOK, &profile, ts.URL, "GET", "/me/profile", user, nil)
	if profile.FullName != "Sam Lee" || profile.Phone != "+1 555 0100" {
		t.Fatalf("unexpected profile: %#v", profile)
	}

	doJSON(t, http.StatusCreated, &struct{}{}, ts.URL, "POST", "/pets/"+petLuna+"/applications", user, map[string]any{
		"personalInfo": personalInfo(),
		"homeInfo":     homeInfo(),
		"experience":   experience(),
		"references":   references(),
	})

	var list []struct {
		UserID    string `json:"userId"`
		Applicant *struct {
			FullName string `json:"fullName"`
			Phone    string `json:"phone"`
		} `json:"applicant"`
	}
	doJSON(t, http.StatusOK, &list, ts.URL, "GET", "/admin/applications", debugAdmin("admin-1"), nil)
	if len(list) != 1 || list[0].Applicant == nil {
		t.Fatalf("expected one application with applicant, got %#v", list)
	}
	if list[0].Applicant.FullName != "Sam Lee" || list[0].Applicant.Phone != "+1 555 0100" {
		t.Fatalf("unexpected applicant: %#v", *list[0].Applicant)
	}
}

func TestHTTP_AdminStats(t *testing.T) {
	ts := newServer(t)
	admin := debugAdmin("admin-1")

	if st, _ := doReq(t, ts.URL, "GET", "/admin/stats", debugUser("u1"), nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 for non admin, got %d", st)
	}

	doJSON(t, http.StatusCreated, &struct{}{}, ts.URL, "POST", "/pets/"+petLuna+"/applications", debugUser("adopter-8"), map[string]any{
		"personalInfo": personalInfo(),
		"homeInfo":     homeInfo(),
		"experience":   experience(),
		"references":   references(),
	})

	var stats struct {
		Applications struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"byStatus"`
			Recent   []struct {
				PetName string `json:"petName"`
				Status  string `json:"status"`
			} `json:"recent"`
		} `json:"applications"`
		Pets     int `json:"pets"`
		Shelters int `json:"shelters"`
		Products int `json:"products"`
	}
	doJSON(t, http.StatusOK, &stats, ts.URL, "GET", "/admin/stats", admin, nil)

	if stats.Pets != 3 || stats.Shelters != 2 || stats.Products != 4 {
		t.Fatalf("unexpected catalog counts: %+v", stats)
	}
	if stats.Applications.Total != 1 || stats.Applications.ByStatus["pending"] != 1 || stats.Applications.ByStatus["approved"] != 0 {
		t.Fatalf("unexpected application counts: %+v", stats.Applications)
	}
	if len(stats.Applications.Recent) != 1 || stats.Applications.Recent[0].PetName != "Luna" {
		t.Fatalf("unexpected recent applications: %+v", stats.Applications.Recent)
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newServer(t)

	if st, body := doReq(t, ts.URL, "GET", "/health", nil, nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health: %d %s", st, body)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/pets", nil, nil); st != http.StatusOK {
		t.Fatalf("expected public catalog, got %d", st)
	}
	if st, body := doReq(t, ts.URL, "GET", "/metrics", nil, nil); st != http.StatusOK || !bytes.Contains(body, []byte("pet_adoption_http_requests_total")) {
		t.Fatalf("unexpected metrics: %d", st)
	}
}

// -------------------------
// Helpers
// -------------------------

func debugUser(id string) map[string]string {
	return map[string]string{"X-Debug-User-ID": id}
}

func debugAdmin(id string) map[string]string {
	return map[string]string{"X-Debug-User-ID": id, "X-Debug-Admin": "true"}
}

func toHeader(h map[string]string) http.Header {
	out := http.Header{}
	for k, v := range h {
		out.Set(k, v)
	}
	return out
}

func doReq(t *testing.T, baseURL, method, path string, headers map[string]string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	out, _ := io.ReadAll(res.Body)
	return res.StatusCode, out
}

func doJSON(t *testing.T, want int, dst any, baseURL, method, path string, headers map[string]string, reqBody any) {
	t.Helper()
	status, body := doReq(t, baseURL, method, path, headers, reqBody)
	if status != want {
		t.Fatalf("expected %d, got %d body=%s", want, status, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode body: %v body=%s", err, string(body))
	}
}

func personalInfo() map[string]any {
	return map[string]any{
		"firstName": "Sam", "lastName": "Lee", "email": "sam@example.com", "phone": "555-0100",
		"address": "1 Main St", "city": "Akola", "state": "MH", "zipCode": "444001",
	}
}

func homeInfo() map[string]any {
	return map[string]any{"housing": "apartment", "ownRent": "rent", "hasYard": "false", "hasChildren": "false", "hasPets": "true", "landlordContact": "555-0300"}
}

func experience() map[string]any {
	return map[string]any{"hadPetsBefore": "true", "petExperience": "Fostered cats", "hoursAlone": "4", "exercisePlan": "Play twice a day"}
}

func references() map[string]any {
	return map[string]any{"refName": "Jo", "refPhone": "555-0200", "refRelationship": "Neighbor"}
}
