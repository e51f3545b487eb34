package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/internal/service"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type appenderStub struct {
	events []models.AuditEvent
	err    error
}

func (a *appenderStub) Append(ctx context.Context, event *models.AuditEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, *event)
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRBAC(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleLibrary}
	r := gin.New()
	r.Use(JWT(validatorStub{claims: claims}))
	r.GET("/staff", RequireStaff(), func(c *gin.Context) { c.String(http.StatusOK, Claims(c).UserID) })
	r.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PATCH("/requests/:id/departments/:department", RequireReviewer(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/staff", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/staff", "bad").Code)

	w := perform(r, http.MethodGet, "/staff", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", "good").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPatch, "/requests/r1/departments/library", "good").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPatch, "/requests/r1/departments/bursar", "good").Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPatch, "/requests/r1/departments/registry", "good").Code)
}

func TestStudentIsNotStaff(t *testing.T) {
	r := gin.New()
	r.Use(JWT(validatorStub{claims: &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}}))
	r.GET("/staff", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/staff", "good").Code)
}

func TestOptionalJWT(t *testing.T) {
	r := gin.New()
	r.Use(OptionalJWT(validatorStub{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin}}))
	r.GET("/", func(c *gin.Context) {
		if Claims(c) == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, Claims(c).UserID)
	})

	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/", "").Body.String())
	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/", "bad").Body.String())
	assert.Equal(t, "u-1", perform(r, http.MethodGet, "/", "good").Body.String())
}

func TestAuditJournalsSuccessfulMutations(t *testing.T) {
	journal := &appenderStub{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleBursar})
		c.Next()
	})
	r.PATCH("/requests/:id/departments/:department", Audit(journal, models.AuditActionDepartmentDecisionRecorded, nil), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodPatch, "/requests/r1/departments/bursar", "")
	perform(r, http.MethodPatch, "/requests/r1/departments/bursar?fail=1", "")

	require.Len(t, journal.events, 1)
	event := journal.events[0]
	assert.Equal(t, "r1", event.RequestID)
	assert.Equal(t, models.AuditActionDepartmentDecisionRecorded, event.Action)
	assert.Contains(t, string(event.Details), `"department":"bursar"`)
	assert.Contains(t, string(event.Details), `"actor":"u-1"`)

	journal.err = errors.New("db down")
	w := perform(r, http.MethodPatch, "/requests/r1/departments/bursar", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetMeta(c, "gate", "NOT_READY")
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := perform(r, http.MethodGet, "/", "")
	assert.JSONEq(t, `{"gate":"NOT_READY"}`, w.Body.String())
}

func TestMetricsLabelsRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/transcript-requests/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/transcript-requests/a", "/transcript-requests/b", "/metrics", "/wp-admin"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					counts[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"/transcript-requests/:id": 2, "unmatched": 1}, counts)
}
