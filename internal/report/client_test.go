package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/risk"
)

func TestClient_Generate(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil, 5*time.Second)
	pdf, err := client.Generate(context.Background(), Request{
		PropertyID: "p1",
		Role:       RoleLabel(contracts.RoleBuyer),
		Lang:       LangMalayalam,
		AIAnalysis: &Analysis{PropertyID: "p1", RiskScore: 15},
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(pdf))
	assert.Equal(t, "p1", got.PropertyID)
	assert.Equal(t, "Buyer", got.Role)
	assert.Equal(t, LangMalayalam, got.Lang)
	require.NotNil(t, got.AIAnalysis)
	assert.Equal(t, 15.0, got.AIAnalysis.RiskScore)
}

func TestClient_GenerateErrors(t *testing.T) {
	t.Run("error payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "template missing", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		_, err := NewClient(srv.URL, nil, time.Second).Generate(context.Background(), Request{PropertyID: "p1"})
		require.Error(t, err)
		var terr *contracts.TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
		assert.Equal(t, "template missing", terr.Body)
		assert.True(t, terr.Retryable())
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClient(url, nil, time.Second).Generate(context.Background(), Request{PropertyID: "p1"})
		assert.ErrorIs(t, err, contracts.ErrTransport)
	})
}

func TestParseLang(t *testing.T) {
	lang, err := ParseLang("")
	require.NoError(t, err)
	assert.Equal(t, LangEnglish, lang)

	lang, err = ParseLang("ML")
	require.NoError(t, err)
	assert.Equal(t, LangMalayalam, lang)

	_, err = ParseLang("fr")
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Inspector_Report_p2.pdf", Filename(contracts.RoleInspector, "p2"))
}

func TestBuildAnalysis(t *testing.T) {
	engine, err := risk.NewEngine(risk.DefaultConfig())
	require.NoError(t, err)
	p := contracts.Property{
		ID: "p1",
		Findings: []contracts.Finding{
			{ID: "f1", RoomID: "Basement", DefectType: "crack", Severity: contracts.SeverityCritical, Confidence: 0.9},
		},
		RootCauses: []contracts.RootCause{{RoomID: "Basement", DefectType: "crack", RootCause: "settlement", Confidence: 0.8, SupportingSignals: 3}},
	}
	applied, _, err := engine.Apply(p)
	require.NoError(t, err)
	result, err := engine.Aggregate(applied)
	require.NoError(t, err)

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	a := BuildAnalysis(applied, result, engine.Config(), now)
	assert.Equal(t, "HIGH", a.RiskBand)
	assert.Equal(t, applied.RiskScore, a.RiskScore)
	require.Len(t, a.Defects, 1)
	require.NotNil(t, a.Defects[0].RootCause)
	assert.Equal(t, "settlement", a.Defects[0].RootCause.RootCause)
	assert.Len(t, a.Alerts, 2)
	assert.Equal(t, now, a.GeneratedAt)
}

func TestBand(t *testing.T) {
	cfg := risk.DefaultConfig()
	assert.Equal(t, "NONE", Band(0, cfg))
	assert.Equal(t, "LOW", Band(15, cfg))
	assert.Equal(t, "ELEVATED", Band(60, cfg))
	assert.Equal(t, "HIGH", Band(80, cfg))
}
