package app_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	contactHttp "github.com/nekogravitycat/crm-backend/internal/contact/http"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	dealHttp "github.com/nekogravitycat/crm-backend/internal/deal/http"
	orgHttp "github.com/nekogravitycat/crm-backend/internal/organization/http"
	"github.com/nekogravitycat/crm-backend/internal/task"
	taskHttp "github.com/nekogravitycat/crm-backend/internal/task/http"
)

func TestCRMRecordLifecycle(t *testing.T) {
	a := newTestApp(t, nil)

	// ==== Setup Users & Tokens ====
	manager := a.createTestUser(t, "manager@crm.test", "pass123", auth.RoleManager)
	seller := a.createTestUser(t, "seller@crm.test", "pass123", auth.RoleSales)
	managerToken := a.token(t, manager)
	sellerToken := a.token(t, seller)

	var orgID, contactID, dealID, taskID int64

	t.Run("Create Organization", func(t *testing.T) {
		w := a.executeRequest("POST", "/api/organizations", map[string]any{
			"name":     "Acme Corp",
			"industry": "Manufacturing",
			"website":  "https://acme.test",
			"tags":     []string{"b2b"},
		}, sellerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeBody[orgHttp.OrganizationEnvelope](t, w)
		assert.Equal(t, "Acme Corp", resp.Organization.Name)
		require.NotNil(t, resp.Organization.AssignedUser)
		assert.Equal(t, seller.ID, resp.Organization.AssignedUser.ID)
		orgID = resp.Organization.ID
	})

	t.Run("Create Contact", func(t *testing.T) {
		w := a.executeRequest("POST", "/api/contacts", map[string]any{
			"firstName":      "Jane",
			"lastName":       "Doe",
			"email":          "jane@acme.test",
			"organizationId": orgID,
		}, sellerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeBody[contactHttp.ContactEnvelope](t, w)
		require.NotNil(t, resp.Contact.Organization)
		assert.Equal(t, "Acme Corp", resp.Contact.Organization.Name)
		contactID = resp.Contact.ID
	})

	t.Run("Create Contact: Unknown Organization", func(t *testing.T) {
		w := a.executeRequest("POST", "/api/contacts", map[string]any{
			"firstName": "Ghost", "lastName": "Writer", "organizationId": orgID + 1000,
		}, sellerToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Create Deal", func(t *testing.T) {
		w := a.executeRequest("POST", "/api/deals", map[string]any{
			"title":          "Annual licence",
			"value":          12000.5,
			"contactId":      contactID,
			"organizationId": orgID,
			"customFields":   map[string]any{"seats": 40},
		}, sellerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeBody[dealHttp.DealEnvelope](t, w)
		assert.Equal(t, deal.StageLead, resp.Deal.Stage)
		assert.Equal(t, "USD", resp.Deal.Currency)
		assert.Equal(t, 12000.5, resp.Deal.Value)
		require.NotNil(t, resp.Deal.Contact)
		assert.Equal(t, "jane@acme.test", resp.Deal.Contact.Email)
		dealID = resp.Deal.ID
	})

	t.Run("Close Deal Stamps Date", func(t *testing.T) {
		w := a.executeRequest("PUT", fmt.Sprintf("/api/deals/%d", dealID), map[string]any{
			"stage": "closed_won",
		}, sellerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody[dealHttp.DealEnvelope](t, w)
		assert.Equal(t, deal.StageClosedWon, resp.Deal.Stage)
		assert.NotNil(t, resp.Deal.ActualCloseDate)
	})

	t.Run("Pipeline", func(t *testing.T) {
		w := a.executeRequest("GET", "/api/deals/pipeline", nil, sellerToken)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[dealHttp.PipelineResponse](t, w)
		require.Len(t, resp.Pipeline, 1)
		assert.Equal(t, deal.StageClosedWon, resp.Pipeline[0].Stage)
		assert.Equal(t, 1, resp.Pipeline[0].Count)
		assert.Equal(t, 12000.5, resp.Pipeline[0].TotalValue)
	})

	t.Run("Create Task", func(t *testing.T) {
		w := a.executeRequest("POST", "/api/tasks", map[string]any{
			"title":   "Send contract",
			"dealId":  dealID,
			"dueDate": "2000-01-01",
		}, sellerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeBody[taskHttp.TaskEnvelope](t, w)
		assert.Equal(t, task.StatusPending, resp.Task.Status)
		require.NotNil(t, resp.Task.CreatedBy)
		assert.Equal(t, seller.ID, resp.Task.CreatedBy.ID)
		taskID = resp.Task.ID
	})

	t.Run("Dashboard Counts Overdue", func(t *testing.T) {
		w := a.executeRequest("GET", "/api/tasks/dashboard", nil, sellerToken)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[taskHttp.DashboardResponse](t, w)
		assert.Equal(t, 1, resp.OverdueTasks)
		assert.Equal(t, 0, resp.TodayTasks)
	})

	t.Run("Complete Task", func(t *testing.T) {
		w := a.executeRequest("PUT", fmt.Sprintf("/api/tasks/%d", taskID), map[string]any{
			"status": "completed",
		}, sellerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotNil(t, decodeBody[taskHttp.TaskEnvelope](t, w).Task.CompletedDate)
	})

	t.Run("List Filters", func(t *testing.T) {
		w := a.executeRequest("GET", "/api/contacts?search=jane&page=1&limit=10", nil, sellerToken)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[contactHttp.ContactListResponse](t, w)
		assert.Len(t, resp.Contacts, 1)
		assert.Equal(t, 1, resp.Pagination.Total)
		assert.Equal(t, 1, resp.Pagination.Pages)

		w = a.executeRequest("GET", "/api/deals?stage=lead", nil, sellerToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeBody[dealHttp.DealListResponse](t, w).Deals)
	})

	t.Run("Delete: Sales Forbidden", func(t *testing.T) {
		w := a.executeRequest("DELETE", fmt.Sprintf("/api/tasks/%d", taskID), nil, sellerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Delete: Dependents Block", func(t *testing.T) {
		w := a.executeRequest("DELETE", fmt.Sprintf("/api/organizations/%d", orgID), nil, managerToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = a.executeRequest("DELETE", fmt.Sprintf("/api/deals/%d", dealID), nil, managerToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Delete: Children First", func(t *testing.T) {
		for _, path := range []string{
			fmt.Sprintf("/api/tasks/%d", taskID),
			fmt.Sprintf("/api/deals/%d", dealID),
			fmt.Sprintf("/api/contacts/%d", contactID),
			fmt.Sprintf("/api/organizations/%d", orgID),
		} {
			w := a.executeRequest("DELETE", path, nil, managerToken)
			assert.Equal(t, http.StatusOK, w.Code, path)
		}

		w := a.executeRequest("GET", fmt.Sprintf("/api/organizations/%d", orgID), nil, managerToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t, nil)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := a.executeRequest("GET", path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
