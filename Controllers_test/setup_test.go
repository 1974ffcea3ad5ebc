package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/router"
	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
}

// testEnv wires the full HTTP stack against an isolated in-memory
// database, a memory cache and a fresh event bus.
type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cache  *services.MemoryCache
	bus    *events.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.Customer{},
		&models.Store{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	assert.NoError(t, err)

	// Customers 1 and 2, stores 1 and 2, two items on store 1.
	assert.NoError(t, db.Create(&models.Customer{Name: "Asha", PhoneNo: "9876543210"}).Error)
	assert.NoError(t, db.Create(&models.Customer{Name: "Ravi", PhoneNo: "9876543211"}).Error)
	assert.NoError(t, db.Create(&models.Store{StoreName: "Juice Corner", PhoneNo: "9000000001", Status: models.StoreOpen}).Error)
	assert.NoError(t, db.Create(&models.Store{StoreName: "Night Canteen", PhoneNo: "9000000002", Status: models.StoreOpen}).Error)
	assert.NoError(t, db.Create(&models.MenuItem{StoreID: 1, Name: "Veg Roll", Price: 60, Status: models.MenuItemAvailable}).Error)
	assert.NoError(t, db.Create(&models.MenuItem{StoreID: 1, Name: "Cold Coffee", Price: 40, Status: models.MenuItemAvailable}).Error)

	cache := services.NewMemoryCache()
	bus := events.NewBus()
	return &testEnv{
		router: router.SetupRouter(db, cache, bus),
		db:     db,
		cache:  cache,
		bus:    bus,
	}
}

func customerToken(t *testing.T, customerID uint) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(utils.RoleCustomer, customerID, 0)
	assert.NoError(t, err)
	return token
}

func storeToken(t *testing.T, storeID uint) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(utils.RoleStore, 0, storeID)
	assert.NoError(t, err)
	return token
}

// doJSON performs one request against the router. token may be empty
// for anonymous calls; body may be nil.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeBody unwraps the {status, message, data} envelope.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]interface{})
	assert.True(t, ok, "response data should be an object: %s", w.Body.String())
	return data
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
