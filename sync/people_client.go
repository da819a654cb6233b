// ABOUTME: Google People API client for the contacts directory
// ABOUTME: Lists, updates and batch-deletes contacts through an authenticated People service
package sync

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// PersonFields is the read mask for every field the merge engine looks at.
const PersonFields = "names,emailAddresses,phoneNumbers,addresses,organizations,biographies,urls,userDefined,photos,metadata"

// maxBatchDelete is the People API limit for one batchDeleteContacts call.
const maxBatchDelete = 500

// Directory is the contact store a dedupe run reads from and writes to.
type Directory interface {
	ListContacts(ctx context.Context) ([]*people.Person, error)
	UpdateContact(ctx context.Context, person *people.Person, fields []string) (*people.Person, error)
	DeleteContacts(ctx context.Context, resourceNames []string) error
}

// NewPeopleClient creates a new Google People API client. Extra options are
// applied after the authenticated HTTP client.
func NewPeopleClient(ctx context.Context, token *oauth2.Token, opts ...option.ClientOption) (*people.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return service, nil
}

// PeopleDirectory is the Directory backed by the People API.
type PeopleDirectory struct {
	service  *people.Service
	pageSize int64
}

func NewPeopleDirectory(service *people.Service) *PeopleDirectory {
	return &PeopleDirectory{service: service, pageSize: 1000}
}

// ListContacts fetches every connection of the authenticated user.
func (d *PeopleDirectory) ListContacts(ctx context.Context) ([]*people.Person, error) {
	var all []*people.Person
	pageToken := ""

	for {
		call := d.service.People.Connections.List("people/me").
			PageSize(d.pageSize).
			PersonFields(PersonFields).
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}

		if response == nil {
			break
		}
		all = append(all, response.Connections...)

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return all, nil
}

// UpdateContact writes the listed person fields. person must carry the
// etag it was read with.
func (d *PeopleDirectory) UpdateContact(ctx context.Context, person *people.Person, fields []string) (*people.Person, error) {
	if len(fields) == 0 {
		return person, nil
	}

	updated, err := d.service.People.UpdateContact(person.ResourceName, person).
		UpdatePersonFields(strings.Join(fields, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", person.ResourceName, err)
	}

	return updated, nil
}

// DeleteContacts removes contacts in batches the API accepts.
func (d *PeopleDirectory) DeleteContacts(ctx context.Context, resourceNames []string) error {
	for start := 0; start < len(resourceNames); start += maxBatchDelete {
		end := start + maxBatchDelete
		if end > len(resourceNames) {
			end = len(resourceNames)
		}

		req := &people.BatchDeleteContactsRequest{ResourceNames: resourceNames[start:end]}
		if _, err := d.service.People.BatchDeleteContacts(req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete contacts: %w", err)
		}
	}

	return nil
}
