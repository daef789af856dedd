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

// googlePrimaryTitle is the title the provider gives every account's
// built-in default list. The provider does not flag the default list in its
// list payload, so the title is the only signal.
const googlePrimaryTitle = "My Tasks"

// googleListPrefix namespaces mirrored list names so they cannot collide
// with lists mirrored from the other provider.
const googleListPrefix = "G "

// Google adapts the Google-shaped task API: needsAction/completed statuses,
// pageToken pagination and an updatedMin filter for incremental listings.
type Google struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxPages   int
}

// NewGoogle creates the Google task provider adapter. maxPages bounds
// pageToken-chasing per listing; a provider that keeps handing back a token
// gets a truncated result instead of an unbounded loop.
func NewGoogle(httpClient *http.Client, baseURL string, pageSize, maxPages int) *Google {
	return &Google{httpClient: httpClient, baseURL: baseURL, pageSize: pageSize, maxPages: maxPages}
}

// Name implements Provider.
func (g *Google) Name() string { return model.SourceGoogle }

type googleList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type googleListPage struct {
	Items         []googleList `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

type googleTask struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Notes   string `json:"notes,omitempty"`
	Status  string `json:"status"`
	Due     string `json:"due,omitempty"`
	Updated string `json:"updated,omitempty"`
}

type googleTaskPage struct {
	Items         []googleTask `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

// ListTaskLists implements Provider.
func (g *Google) ListTaskLists(ctx context.Context, token model.UserToken) ([]RemoteList, error) {
	var lists []RemoteList
	pageToken := ""
	for page := 0; ; page++ {
		if page >= g.maxPages {
			log.Printf("task list paging hit the %d page cap, result truncated", g.maxPages)
			return lists, nil
		}

		params := url.Values{}
		params.Set("maxResults", strconv.Itoa(g.pageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page googleListPage
		endpoint := g.baseURL + "/users/@me/lists?" + params.Encode()
		if err := doJSON(ctx, g.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			lists = append(lists, RemoteList{
				ID:        item.ID,
				Title:     item.Title,
				IsDefault: item.Title == googlePrimaryTitle,
			})
		}

		if page.NextPageToken == "" {
			return lists, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListTasks implements Provider. updatedSince is forwarded as the updatedMin
// filter; completed and hidden tasks are always requested so completion flips
// survive incremental syncs.
func (g *Google) ListTasks(ctx context.Context, token model.UserToken, listID string, updatedSince *time.Time) ([]RemoteTask, error) {
	var tasks []RemoteTask
	pageToken := ""
	for page := 0; ; page++ {
		if page >= g.maxPages {
			log.Printf("task paging for list %s hit the %d page cap, result truncated", listID, g.maxPages)
			return tasks, nil
		}

		params := url.Values{}
		params.Set("maxResults", strconv.Itoa(g.pageSize))
		params.Set("showCompleted", "true")
		params.Set("showHidden", "true")
		if updatedSince != nil {
			params.Set("updatedMin", updatedSince.UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page googleTaskPage
		endpoint := g.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks?" + params.Encode()
		if err := doJSON(ctx, g.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			tasks = append(tasks, item.toRemote())
		}

		if page.NextPageToken == "" {
			return tasks, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetTask implements Provider.
func (g *Google) GetTask(ctx context.Context, token model.UserToken, listID, taskID string) (RemoteTask, error) {
	var item googleTask
	endpoint := g.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID)
	if err := doJSON(ctx, g.httpClient, http.MethodGet, endpoint, token.AccessToken, nil, &item); err != nil {
		return RemoteTask{}, err
	}
	return item.toRemote(), nil
}

// UpdateTask implements Provider.
func (g *Google) UpdateTask(ctx context.Context, token model.UserToken, listID string, task RemoteTask) error {
	status := "needsAction"
	if task.Completed {
		status = "completed"
	}
	payload := googleTask{
		ID:     task.ID,
		Title:  task.Title,
		Notes:  task.Notes,
		Status: status,
	}
	if task.DueDate != nil {
		payload.Due = task.DueDate.UTC().Format(time.RFC3339)
	}

	endpoint := g.baseURL + "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(task.ID)
	return doJSON(ctx, g.httpClient, http.MethodPatch, endpoint, token.AccessToken, payload, nil)
}

// LocalList implements Provider. The default list maps to the fixed primary
// name; every other list keeps its remote title behind the provider prefix.
func (g *Google) LocalList(remote RemoteList) (string, string) {
	if remote.IsDefault {
		return googleListPrefix + googlePrimaryTitle, model.ListTypeGooglePrimary
	}
	return googleListPrefix + remote.Title, model.ListTypeNormal
}

func (t googleTask) toRemote() RemoteTask {
	remote := RemoteTask{
		ID:        t.ID,
		Title:     t.Title,
		Notes:     t.Notes,
		Completed: t.Status == "completed",
	}
	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			remote.DueDate = &due
		}
	}
	if t.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, t.Updated); err == nil {
			remote.Updated = updated
		}
	}
	return remote
}
