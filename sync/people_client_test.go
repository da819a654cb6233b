// ABOUTME: Tests for the People API directory against a fake HTTP server
// ABOUTME: Checks pagination, update masks and batch deletion requests
package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

type fakePeopleServer struct {
	updateMask string
	updated    *people.Person
	deleted    []string
}

func (f *fakePeopleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/people/me/connections":
		resp := &people.ListConnectionsResponse{}
		if r.URL.Query().Get("pageToken") == "" {
			resp.Connections = []*people.Person{{ResourceName: "people/c1"}}
			resp.NextPageToken = "page2"
		} else {
			resp.Connections = []*people.Person{{ResourceName: "people/c2"}}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case r.Method == http.MethodPatch && r.URL.Path == "/v1/people/c1:updateContact":
		f.updateMask = r.URL.Query().Get("updatePersonFields")
		var p people.Person
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.updated = &p
		_ = json.NewEncoder(w).Encode(&p)

	case r.Method == http.MethodPost && r.URL.Path == "/v1/people:batchDeleteContacts":
		var req people.BatchDeleteContactsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.deleted = append(f.deleted, req.ResourceNames...)
		_, _ = w.Write([]byte("{}"))

	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newFakeDirectory(t *testing.T) (*PeopleDirectory, *fakePeopleServer) {
	t.Helper()

	fake := &fakePeopleServer{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	service, err := people.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return NewPeopleDirectory(service), fake
}

func TestPeopleDirectoryListContactsPaginates(t *testing.T) {
	dir, _ := newFakeDirectory(t)

	persons, err := dir.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "people/c1", persons[0].ResourceName)
	assert.Equal(t, "people/c2", persons[1].ResourceName)
}

func TestPeopleDirectoryUpdateContact(t *testing.T) {
	dir, fake := newFakeDirectory(t)

	person := &people.Person{
		ResourceName: "people/c1",
		Etag:         "etag1",
		PhoneNumbers: []*people.PhoneNumber{{Value: "+33612345678", Type: "mobile"}},
	}

	_, err := dir.UpdateContact(context.Background(), person, []string{"phoneNumbers", "biographies"})
	require.NoError(t, err)

	assert.Equal(t, "phoneNumbers,biographies", fake.updateMask)
	require.NotNil(t, fake.updated)
	assert.Equal(t, "etag1", fake.updated.Etag)
	require.Len(t, fake.updated.PhoneNumbers, 1)
	assert.Equal(t, "+33612345678", fake.updated.PhoneNumbers[0].Value)
}

func TestPeopleDirectoryUpdateWithoutFieldsIsNoop(t *testing.T) {
	dir, fake := newFakeDirectory(t)

	_, err := dir.UpdateContact(context.Background(), &people.Person{ResourceName: "people/c1"}, nil)
	require.NoError(t, err)
	assert.Nil(t, fake.updated)
}

func TestPeopleDirectoryDeleteContactsBatches(t *testing.T) {
	dir, fake := newFakeDirectory(t)

	names := make([]string, maxBatchDelete+3)
	for i := range names {
		names[i] = "people/c" + string(rune('a'+i%26))
	}

	require.NoError(t, dir.DeleteContacts(context.Background(), names))
	assert.Len(t, fake.deleted, len(names))
}

func TestPeopleDirectoryErrorsAreWrapped(t *testing.T) {
	dir, _ := newFakeDirectory(t)

	_, err := dir.UpdateContact(context.Background(), &people.Person{ResourceName: "people/missing"}, []string{"names"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "people/missing")
}

func TestNewPeopleClientRequiresToken(t *testing.T) {
	_, err := NewPeopleClient(context.Background(), nil)
	assert.Error(t, err)

	service, err := NewPeopleClient(context.Background(), &oauth2.Token{AccessToken: "test"})
	require.NoError(t, err)
	assert.NotNil(t, service)
}
