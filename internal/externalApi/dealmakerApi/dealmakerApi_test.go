package dealmakerApi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dealmakerModel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, handler http.HandlerFunc) *DealmakerApi {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.Dealmaker.Url = srv.URL

	return New(cfg)
}

func TestGetDeals(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/deals", r.URL.Path)

		_, _ = w.Write([]byte(`{"items":[{
			"id": 7,
			"title": "Series A",
			"state": "open",
			"security_type": "unit",
			"price_per_security": 250.5,
			"minimum_investment": 300,
			"investors": {"total": 12, "accepted": 10, "invited": 2},
			"funding": {"amount_subscribed": 120000, "funds_received": 95000},
			"enterprise": {"name": "Acme Capital"}
		}]}`))
	})

	deals, err := api.GetDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 1)

	deal := deals[0]
	assert.Equal(t, int64(7), deal.ID)
	assert.Equal(t, "Series A", deal.Title)
	assert.Equal(t, "Acme Capital", deal.EnterpriseName)
	assert.True(t, deal.PricePerSecurity.Equal(decimal.NewFromFloat(250.5)))
	assert.True(t, deal.MinimumInvestment.Equal(decimal.NewFromInt(300)))
	assert.True(t, deal.MaximumInvestment.IsZero())
	assert.Equal(t, 12, deal.InvestorsTotal)
}

func TestGetDealsAccessBlocked(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := api.GetDeals(context.Background())
		assert.ErrorIs(t, err, externalApi.ErrAccessBlocked)
	}
}

func TestGetDealsServerError(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	})

	_, err := api.GetDeals(context.Background())

	var apiErr *externalApi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCreateInvestor(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deals/7/investors", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		req := dealmakerModel.CreateInvestorRequest{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, []string{"web-form"}, req.Tags)
		assert.Equal(t, int64(7), req.DealID)

		_, _ = w.Write([]byte(`{"id":42}`))
	})

	investorID, err := api.CreateInvestor(context.Background(), 7, dealmakerModel.CreateInvestorRequest{
		FirstName: "Jane",
		Tags:      []string{"web-form"},
		DealID:    7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), investorID)
}

func TestCreateInvestorErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "message field", status: 422, body: `{"message":"email already taken"}`, wantMsg: "email already taken"},
		{name: "error field", status: 422, body: `{"error":"invalid phone"}`, wantMsg: "invalid phone"},
		{name: "message wins over error", status: 422, body: `{"message":"m","error":"e"}`, wantMsg: "m"},
		{name: "no body", status: 500, body: ``, wantMsg: "HTTP error, status 500"},
		{name: "non-json body", status: 502, body: `Bad Gateway`, wantMsg: "HTTP error, status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.CreateInvestor(context.Background(), 7, dealmakerModel.CreateInvestorRequest{})

			var apiErr *externalApi.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestCreateInvestorMissingID(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := api.CreateInvestor(context.Background(), 7, dealmakerModel.CreateInvestorRequest{})

	var apiErr *externalApi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "response is missing investor id", apiErr.Message)
}

func TestUpdateInvestment(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/deals/7/investors/42", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		req := dealmakerModel.InvestmentRequest{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, float64(1000), req.InvestmentValue)
		assert.Equal(t, int64(4), req.NumberOfSecurities)

		_, _ = w.Write([]byte(`{"access_link":"https://checkout.example.com/abc"}`))
	})

	accessLink, err := api.UpdateInvestment(context.Background(), 7, 42, dealmakerModel.InvestmentRequest{
		InvestmentValue:    1000,
		NumberOfSecurities: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/abc", accessLink)
}

func TestCreateInvestorProfileRoutesByCategory(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/investor_profiles/individuals", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":77}`))
	})

	profileID, err := api.CreateInvestorProfile(context.Background(), "individuals", dealmakerModel.InvestorProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(77), profileID)
}

func TestLinkProfileToInvestorJSON(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/deals/7/investors/77", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))

		body, _ := io.ReadAll(r.Body)
		req := dealmakerModel.LinkProfileRequest{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, int64(77), req.InvestorProfileID)
		assert.Equal(t, "contact-information", req.CurrentStep)

		_, _ = w.Write([]byte(`{"id":77}`))
	})

	err := api.LinkProfileToInvestor(context.Background(), 7, 77, dealmakerModel.LinkProfileRequest{
		InvestorProfileID: 77,
		CurrentStep:       "contact-information",
	})
	require.NoError(t, err)
}

func TestLinkProfileToInvestorFormEncoded(t *testing.T) {
	var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "77", r.PostFormValue("investor_profile_id"))
		assert.Equal(t, "contact-information", r.PostFormValue("current_step"))

		_, _ = w.Write([]byte(`{"id":77}`))
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.Dealmaker.Url = srv.URL
	cfg.API.Dealmaker.LinkFormEncoded = true

	api := New(cfg)
	err := api.LinkProfileToInvestor(context.Background(), 7, 77, dealmakerModel.LinkProfileRequest{
		InvestorProfileID: 77,
		CurrentStep:       "contact-information",
	})
	require.NoError(t, err)
}
