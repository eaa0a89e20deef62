//go:build e2e

package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login() {
	// Wait for login form
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	// Fill in credentials
	err = suite.page.Locator("input[name=username]").Fill(adminUser)
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill(adminPassword)
	require.NoError(suite.T(), err, "failed to fill password")

	// Submit login
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	// Wait for the dashboard
	err = suite.expect.Locator(suite.page.Locator(".summary")).ToBeVisible()
	require.NoError(suite.T(), err, "dashboard not visible after login")
}

func (suite *E2ETestSuite) TestWrongPasswordShowsError() {
	err := suite.page.Locator("input[name=username]").Fill(adminUser)
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=password]").Fill("errada")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator("#login-error")).ToHaveText("Usuário ou senha inválidos")
	require.NoError(suite.T(), err, "login error not shown")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	// Login
	suite.login()

	// Create member
	name := fmt.Sprintf("Membro %d", time.Now().UnixNano())
	err := suite.page.Locator("#member-form input[name=nome]").Fill(name)
	require.NoError(suite.T(), err, "failed to fill member name")
	err = suite.page.Locator(".add-member").Click()
	require.NoError(suite.T(), err, "failed to submit member")

	err = suite.expect.Locator(suite.page.Locator(".member-item", playwright.PageLocatorOptions{HasText: name})).ToBeVisible()
	require.NoError(suite.T(), err, "member not listed")

	// Record a contribution for this month
	_, err = suite.page.Locator("#contribution-form select[name=membro_id]").SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{name},
	})
	require.NoError(suite.T(), err, "failed to select member")
	err = suite.page.Locator("#contribution-form input[name=valor]").Fill("12,50")
	require.NoError(suite.T(), err, "failed to fill amount")
	err = suite.page.Locator("#contribution-form input[name=data]").Fill(time.Now().Format("2006-01-02"))
	require.NoError(suite.T(), err, "failed to fill date")
	err = suite.page.Locator(".add-contribution").Click()
	require.NoError(suite.T(), err, "failed to submit contribution")

	err = suite.expect.Locator(suite.page.Locator(".contribution-item", playwright.PageLocatorOptions{HasText: name})).ToContainText("12,50")
	require.NoError(suite.T(), err, "contribution not listed")

	// Logout returns to the login form
	err = suite.page.Locator(".logout-btn").Click()
	require.NoError(suite.T(), err, "failed to click logout")
	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible after logout")
}

func (suite *E2ETestSuite) TestClientRouteServesApp() {
	_, err := suite.page.Goto(appURL + "/membros/qualquer")
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "fallback did not serve the app")
}

func (suite *E2ETestSuite) TestAPIRequiresSession() {
	api, err := suite.pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err)
	defer api.Dispose()

	resp, err := api.Get("/api/membros")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 401, resp.Status())

	var body map[string]string
	require.NoError(suite.T(), resp.JSON(&body))
	assert.Equal(suite.T(), "Não autenticado", body["error"])

	resp, err = api.Post("/api/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"username": adminUser, "password": adminPassword},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 200, resp.Status())

	resp, err = api.Get("/api/resumo")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 200, resp.Status())

	resp, err = api.Post("/api/contribuicoes", playwright.APIRequestContextPostOptions{
		Data: map[string]any{"membro_id": 1, "tipo": "oferta", "valor": 0, "data": "2026-10-01"},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 400, resp.Status())
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
