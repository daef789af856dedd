package provider

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rdevries/taskfolio/internal/model"
)

// microsoftPrimaryTitle is the local display name of the account's built-in
// default list, which the provider flags with a well-known list name.
const microsoftPrimaryTitle = "Tasks"

const microsoftListPrefix = "MS "

// msDateTimeLayout is the zone-less timestamp format used inside
// dueDateTime objects. The accompanying timeZone field is always requested
// as UTC, so the value parses as UTC.
const msDateTimeLayout = "2006-01-02T15:04:05.9999999"

// Microsoft adapts the Microsoft-shaped task API: notStarted/completed
// statuses, body.content descriptions, @odata.nextLink pagination and an
// OData $filter for incremental listings.
type Microsoft struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxPages   int
}

// NewMicrosoft creates the Microsoft task provider adapter. maxPages bounds
// nextLink-chasing per listing; the provider has been observed returning
// cyclic continuation links, and the cap turns that into a truncated result
// instead of a hang.
func NewMicrosoft(httpClient *http.Client, baseURL string, pageSize, maxPages int) *Microsoft {
	return &Microsoft{httpClient: httpClient, baseURL: baseURL, pageSize: pageSize, maxPages: maxPages}
}

// Name implements Provider.
func (m *Microsoft) Name() string { return model.SourceMicrosoft }

type msList struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	WellknownListName string `json:"wellknownListName"`
}

type msListPage struct {
	Value    []msList `json:"value"`
	NextLink string   `json:"@odata.nextLink"`
}

type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msTask struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Status               string      `json:"status,omitempty"`
	Body                 *msBody     `json:"body,omitempty"`
	DueDateTime          *msDateTime `json:"dueDateTime,omitempty"`
	LastModifiedDateTime string      `json:"lastModifiedDateTime,omitempty"`
}

type msBody struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

type msTaskPage struct {
	Value    []msTask `json:"value"`
	NextLink string   `json:"@odata.nextLink"`
}

// ListTaskLists implements Provider.
func (m *Microsoft) ListTaskLists(ctx context.Context, token model.UserToken) ([]RemoteList, error) {
	var lists []RemoteList
	endpoint := m.baseURL + "/lists?$top=" + strconv.Itoa(m.pageSize)
	for page := 0; endpoint != ""; page++ {
		if page >= m.maxPages {
			log.Printf("task list paging hit the %d page cap, result truncated", m.maxPages)
			break
		}

		var resp msListPage
		if err := doJSON(ctx, m.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Value {
			lists = append(lists, RemoteList{
				ID:        item.ID,
				Title:     item.DisplayName,
				IsDefault: item.WellknownListName == "defaultList",
			})
		}
		endpoint = resp.NextLink
	}
	return lists, nil
}

// ListTasks implements Provider. updatedSince becomes an OData filter on
// lastModifiedDateTime.
func (m *Microsoft) ListTasks(ctx context.Context, token model.UserToken, listID string, updatedSince *time.Time) ([]RemoteTask, error) {
	params := url.Values{}
	params.Set("$top", strconv.Itoa(m.pageSize))
	if updatedSince != nil {
		params.Set("$filter", "lastModifiedDateTime ge "+updatedSince.UTC().Format(time.RFC3339))
	}

	var tasks []RemoteTask
	endpoint := m.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks?" + params.Encode()
	for page := 0; endpoint != ""; page++ {
		if page >= m.maxPages {
			log.Printf("task paging for list %s hit the %d page cap, result truncated", listID, m.maxPages)
			break
		}

		var resp msTaskPage
		if err := doJSON(ctx, m.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Value {
			tasks = append(tasks, item.toRemote())
		}
		endpoint = resp.NextLink
	}
	return tasks, nil
}

// GetTask implements Provider.
func (m *Microsoft) GetTask(ctx context.Context, token model.UserToken, listID, taskID string) (RemoteTask, error) {
	var item msTask
	endpoint := m.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID)
	if err := doJSON(ctx, m.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &item); err != nil {
		return RemoteTask{}, err
	}
	return item.toRemote(), nil
}

// UpdateTask implements Provider.
func (m *Microsoft) UpdateTask(ctx context.Context, token model.UserToken, listID string, task RemoteTask) error {
	status := "notStarted"
	if task.Completed {
		status = "completed"
	}
	payload := msTask{
		Title:  task.Title,
		Status: status,
		Body:   &msBody{Content: task.Notes, ContentType: "text"},
	}
	if task.DueDate != nil {
		payload.DueDateTime = &msDateTime{
			DateTime: task.DueDate.UTC().Format(msDateTimeLayout),
			TimeZone: "UTC",
		}
	}

	endpoint := m.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(task.ID)
	return doJSON(ctx, m.httpClient, http.MethodPatch, endpoint, token.AccessToken, payload, nil)
}

// LocalList implements Provider.
func (m *Microsoft) LocalList(remote RemoteList) (string, string) {
	if remote.IsDefault {
		return microsoftListPrefix + microsoftPrimaryTitle, model.ListTypeMicrosoftPrimary
	}
	return microsoftListPrefix + remote.Title, model.ListTypeNormal
}

func (t msTask) toRemote() RemoteTask {
	remote := RemoteTask{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Status == "completed",
	}
	if t.Body != nil {
		remote.Notes = t.Body.Content
	}
	if t.DueDateTime != nil && t.DueDateTime.DateTime != "" {
		if due, err := time.Parse(msDateTimeLayout, t.DueDateTime.DateTime); err == nil {
			due = due.UTC()
			remote.DueDate = &due
		}
	}
	if t.LastModifiedDateTime != "" {
		if updated, err := time.Parse(time.RFC3339, t.LastModifiedDateTime); err == nil {
			remote.Updated = updated
		}
	}
	return remote
}
