package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// listCall records the arguments of one Source.List call.
type listCall struct {
	after      string
	limit      int
	objectType hubspot.ObjectType
}

// mockSource implements Source for testing.
type mockSource struct {
	countErr  error
	counts    map[hubspot.ObjectType]int
	listCalls []listCall
	listErr   map[hubspot.ObjectType]error
	pages     map[hubspot.ObjectType][]*hubspot.Page
}

// Count returns the configured count for a type.
func (m *mockSource) Count(_ context.Context, objectType hubspot.ObjectType) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.counts[objectType], nil
}

// List returns the page following the given cursor.
func (m *mockSource) List(
	ctx context.Context,
	objectType hubspot.ObjectType,
	limit int,
	after string,
) (*hubspot.Page, error) {
	m.listCalls = append(m.listCalls, listCall{after: after, limit: limit, objectType: objectType})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.listErr[objectType]; err != nil {
		return nil, err
	}

	pages := m.pages[objectType]
	if len(pages) == 0 {
		return &hubspot.Page{}, nil
	}
	if after == "" {
		return pages[0], nil
	}
	for i, p := range pages[:len(pages)-1] {
		if p.NextCursor() == after {
			return pages[i+1], nil
		}
	}
	return nil, fmt.Errorf("unexpected cursor %q", after)
}

// callsFor returns the list calls made for one type.
func (m *mockSource) callsFor(objectType hubspot.ObjectType) []listCall {
	var calls []listCall
	for _, c := range m.listCalls {
		if c.objectType == objectType {
			calls = append(calls, c)
		}
	}
	return calls
}

// mockDestination implements Destination for testing.
type mockDestination struct {
	items      []*graph.ExternalItem
	upsertFunc func(item *graph.ExternalItem) error
}

// UpsertItem records the item and delegates to upsertFunc when set.
func (m *mockDestination) UpsertItem(_ context.Context, _ string, item *graph.ExternalItem) error {
	if m.upsertFunc != nil {
		if err := m.upsertFunc(item); err != nil {
			return err
		}
	}
	m.items = append(m.items, item)
	return nil
}

// mockStateStore implements StateStore for testing.
type mockStateStore struct {
	last    *Stats
	saveErr error
	saved   []*Stats
}

// LastRun returns the last saved stats.
func (m *mockStateStore) LastRun(_ context.Context) (*Stats, error) {
	return m.last, nil
}

// SaveRun records the stats.
func (m *mockStateStore) SaveRun(_ context.Context, stats *Stats) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, stats)
	m.last = stats
	return nil
}

// pagesOf builds pages of records for a type, chained by cursors.
func pagesOf(objectType hubspot.ObjectType, sizes ...int) []*hubspot.Page {
	pages := make([]*hubspot.Page, len(sizes))
	id := 1
	for i, size := range sizes {
		page := &hubspot.Page{}
		for range size {
			modified := "2024-05-01T00:00:00Z"
			page.Results = append(page.Results, hubspot.Object{
				ID: fmt.Sprintf("%d", id),
				Properties: map[string]*string{
					"lastmodifieddate":    &modified,
					"hs_lastmodifieddate": &modified,
				},
			})
			id++
		}
		if i < len(sizes)-1 {
			page.Paging = &hubspot.Paging{Next: &hubspot.PagingNext{After: fmt.Sprintf("%s-%d", objectType, i+1)}}
		}
		pages[i] = page
	}
	return pages
}

// logRecords decodes JSON log lines written to buf.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

// warnings returns the log records at WARN level with the given message.
func warnings(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()

	var found []map[string]any
	for _, rec := range logRecords(t, buf) {
		if rec["level"] == "WARN" && rec["msg"] == msg {
			found = append(found, rec)
		}
	}
	return found
}

func newTestService(t *testing.T, source Source, dest Destination, buf *bytes.Buffer, mutate ...func(*Config)) *Service {
	t.Helper()

	cfg := Config{
		ConnectionID: "hubspot-connector",
		Destination:  dest,
		Logger:       slog.New(slog.NewJSONHandler(buf, nil)),
		Now:          func() time.Time { return testNow },
		Source:       source,
		TenantID:     "tenant-id",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	svc, err := New(cfg)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	t.Parallel()

	source := &mockSource{}
	dest := &mockDestination{}

	tests := map[string]struct {
		config  Config
		wantErr bool
		errMsg  string
	}{
		"valid config": {
			config: Config{ConnectionID: "conn", Destination: dest, Source: source, TenantID: "tenant"},
		},
		"dry run without destination": {
			config: Config{ConnectionID: "conn", DryRun: true, Source: source, TenantID: "tenant"},
		},
		"missing connection ID": {
			config:  Config{Destination: dest, Source: source, TenantID: "tenant"},
			wantErr: true,
			errMsg:  "connection ID is required",
		},
		"missing destination": {
			config:  Config{ConnectionID: "conn", Source: source, TenantID: "tenant"},
			wantErr: true,
			errMsg:  "destination is required",
		},
		"missing source": {
			config:  Config{ConnectionID: "conn", Destination: dest, TenantID: "tenant"},
			wantErr: true,
			errMsg:  "source is required",
		},
		"missing tenant ID": {
			config:  Config{ConnectionID: "conn", Destination: dest, Source: source},
			wantErr: true,
			errMsg:  "tenant ID is required",
		},
		"page size too large": {
			config:  Config{ConnectionID: "conn", Destination: dest, PageSize: 101, Source: source, TenantID: "tenant"},
			wantErr: true,
			errMsg:  "page size must be between 1 and 100",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, err := New(tc.config)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Nil(t, svc)
			} else {
				require.NoError(t, err)
				require.NotNil(t, svc)
				require.Equal(t, hubspot.MaxPageSize, svc.pageSize)
			}
		})
	}
}

func TestService_SyncType_Pagination(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		sizes     []int
		wantCalls int
		wantCount int
	}{
		"empty collection": {sizes: nil, wantCalls: 1, wantCount: 0},
		"single page":      {sizes: []int{3}, wantCalls: 1, wantCount: 3},
		"three pages":      {sizes: []int{100, 100, 7}, wantCalls: 3, wantCount: 207},
		"empty last page":  {sizes: []int{2, 0}, wantCalls: 2, wantCount: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
				hubspot.ObjectTypeCompanies: pagesOf(hubspot.ObjectTypeCompanies, tc.sizes...),
			}}
			dest := &mockDestination{}
			var buf bytes.Buffer
			svc := newTestService(t, source, dest, &buf)

			count, err := svc.SyncType(context.Background(), hubspot.ObjectTypeCompanies)

			require.NoError(t, err)
			require.Equal(t, tc.wantCount, count)
			require.Len(t, dest.items, tc.wantCount)

			calls := source.callsFor(hubspot.ObjectTypeCompanies)
			require.Len(t, calls, tc.wantCalls)
			require.Empty(t, calls[0].after)
			for i, call := range calls {
				require.Equal(t, 100, call.limit)
				if i > 0 {
					require.Equal(t, fmt.Sprintf("companies-%d", i), call.after)
				}
			}
		})
	}
}

func TestService_SyncType_RecordFailureIsolation(t *testing.T) {
	t.Parallel()

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
		hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 5),
	}}
	dest := &mockDestination{upsertFunc: func(item *graph.ExternalItem) error {
		if item.ID == "contact_3" {
			return errors.New("graph rejected item")
		}
		return nil
	}}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	count, err := svc.SyncType(context.Background(), hubspot.ObjectTypeContacts)

	require.NoError(t, err)
	require.Equal(t, 4, count)

	ids := make([]string, 0, len(dest.items))
	for _, item := range dest.items {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"contact_1", "contact_2", "contact_4", "contact_5"}, ids)

	warns := warnings(t, &buf, "failed to sync record")
	require.Len(t, warns, 1)
	require.Equal(t, "3", warns[0]["record_id"])
	require.Equal(t, "upsert", warns[0]["stage"])
	require.Contains(t, warns[0]["error"], "graph rejected item")
}

func TestService_SyncType_TransformFailure(t *testing.T) {
	t.Parallel()

	bad := "definitely not a date"
	pages := pagesOf(hubspot.ObjectTypeDeals, 2)
	pages[0].Results[0].Properties["hs_lastmodifieddate"] = &bad

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{hubspot.ObjectTypeDeals: pages}}
	dest := &mockDestination{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	count, err := svc.SyncType(context.Background(), hubspot.ObjectTypeDeals)

	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, dest.items, 1)
	require.Equal(t, "deal_2", dest.items[0].ID)

	warns := warnings(t, &buf, "failed to sync record")
	require.Len(t, warns, 1)
	require.Equal(t, "transform", warns[0]["stage"])
}

func TestService_SyncType_SetsACL(t *testing.T) {
	t.Parallel()

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
		hubspot.ObjectTypeTickets: pagesOf(hubspot.ObjectTypeTickets, 1),
	}}
	dest := &mockDestination{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	_, err := svc.SyncType(context.Background(), hubspot.ObjectTypeTickets)

	require.NoError(t, err)
	require.Len(t, dest.items, 1)
	require.Equal(t, []graph.ACL{{AccessType: "grant", Type: "everyone", Value: "tenant-id"}}, dest.items[0].ACL)
}

func TestService_Run_ContactsAcrossTwoPages(t *testing.T) {
	t.Parallel()

	source := &mockSource{
		counts: map[hubspot.ObjectType]int{hubspot.ObjectTypeContacts: 3},
		pages: map[hubspot.ObjectType][]*hubspot.Page{
			hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 2, 1),
		},
	}
	dest := &mockDestination{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	stats, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, source.callsFor(hubspot.ObjectTypeContacts), 2)
	require.Len(t, dest.items, 3)
	require.Equal(t, 3, stats.Contacts)
	require.Zero(t, stats.Errors)
	require.Zero(t, stats.RecordErrors)
	require.Equal(t, testNow, stats.StartedAt)
	require.Equal(t, testNow, stats.FinishedAt)
}

func TestService_Run_TypeFailureIsolation(t *testing.T) {
	t.Parallel()

	source := &mockSource{
		counts: map[hubspot.ObjectType]int{
			hubspot.ObjectTypeCompanies: 20,
			hubspot.ObjectTypeContacts:  10,
			hubspot.ObjectTypeDeals:     99,
			hubspot.ObjectTypeTickets:   1,
		},
		listErr: map[hubspot.ObjectType]error{hubspot.ObjectTypeDeals: errors.New("hubspot unavailable")},
		pages: map[hubspot.ObjectType][]*hubspot.Page{
			hubspot.ObjectTypeCompanies: pagesOf(hubspot.ObjectTypeCompanies, 2),
			hubspot.ObjectTypeContacts:  pagesOf(hubspot.ObjectTypeContacts, 1),
			hubspot.ObjectTypeTickets:   pagesOf(hubspot.ObjectTypeTickets, 1),
		},
	}
	dest := &mockDestination{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	stats, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, stats.Errors)
	require.Equal(t, 10, stats.Contacts)
	require.Equal(t, 20, stats.Companies)
	require.Zero(t, stats.Deals)
	require.Equal(t, 1, stats.Tickets)
	require.Len(t, source.callsFor(hubspot.ObjectTypeTickets), 1, "tickets must be synced after deals fail")

	order := make([]hubspot.ObjectType, 0, len(source.listCalls))
	for _, c := range source.listCalls {
		order = append(order, c.objectType)
	}
	require.Equal(t, []hubspot.ObjectType{
		hubspot.ObjectTypeContacts,
		hubspot.ObjectTypeCompanies,
		hubspot.ObjectTypeDeals,
		hubspot.ObjectTypeTickets,
	}, order)
}

func TestService_Run_CountFallback(t *testing.T) {
	t.Parallel()

	source := &mockSource{
		countErr: errors.New("search unavailable"),
		pages: map[hubspot.ObjectType][]*hubspot.Page{
			hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 4),
		},
	}
	var buf bytes.Buffer
	svc := newTestService(t, source, &mockDestination{}, &buf)

	stats, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 4, stats.Contacts)
	require.Zero(t, stats.Errors)
	require.Len(t, warnings(t, &buf, "failed to count records, using synced count"), 4)
}

func TestService_Run_RecordErrors(t *testing.T) {
	t.Parallel()

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
		hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 3),
	}}
	dest := &mockDestination{upsertFunc: func(*graph.ExternalItem) error { return errors.New("nope") }}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	stats, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, stats.RecordErrors)
	require.Zero(t, stats.Errors)
}

func TestService_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
		hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 1),
	}}
	dest := &mockDestination{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := svc.Run(ctx)

	require.NoError(t, err)
	require.Equal(t, 4, stats.Errors)
	require.Empty(t, dest.items)
}

func TestService_Run_DryRun(t *testing.T) {
	t.Parallel()

	source := &mockSource{pages: map[hubspot.ObjectType][]*hubspot.Page{
		hubspot.ObjectTypeContacts: pagesOf(hubspot.ObjectTypeContacts, 2),
	}}
	dest := &mockDestination{}
	store := &mockStateStore{}
	var buf bytes.Buffer
	svc := newTestService(t, source, dest, &buf, func(c *Config) {
		c.DryRun = true
		c.StateStore = store
	})

	stats, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.True(t, stats.DryRun)
	require.Empty(t, dest.items)
	require.Empty(t, store.saved, "dry runs are not recorded")
	require.Equal(t, uint64(2), svc.dryRun.upserts())
	require.Contains(t, buf.String(), "[DRY-RUN] would upsert item")
}

func TestService_Run_StateStore(t *testing.T) {
	t.Parallel()

	t.Run("saves completed run", func(t *testing.T) {
		t.Parallel()

		store := &mockStateStore{last: &Stats{FinishedAt: testNow.Add(-time.Hour)}}
		var buf bytes.Buffer
		svc := newTestService(t, &mockSource{}, &mockDestination{}, &buf, func(c *Config) {
			c.StateStore = store
		})

		stats, err := svc.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, store.saved, 1)
		require.Same(t, stats, store.saved[0])
		require.Contains(t, buf.String(), "previous sync")
	})

	t.Run("returns stats when save fails", func(t *testing.T) {
		t.Parallel()

		store := &mockStateStore{saveErr: errors.New("ssm throttled")}
		var buf bytes.Buffer
		svc := newTestService(t, &mockSource{}, &mockDestination{}, &buf, func(c *Config) {
			c.StateStore = store
		})

		stats, err := svc.Run(context.Background())

		require.Error(t, err)
		require.Contains(t, err.Error(), "saving run state")
		require.NotNil(t, stats)
	})
}

func TestStats_Count(t *testing.T) {
	t.Parallel()

	stats := &Stats{}
	for i, objectType := range hubspot.ObjectTypes() {
		stats.setCount(objectType, i+1)
	}

	require.Equal(t, 1, stats.Count(hubspot.ObjectTypeContacts))
	require.Equal(t, 2, stats.Count(hubspot.ObjectTypeCompanies))
	require.Equal(t, 3, stats.Count(hubspot.ObjectTypeDeals))
	require.Equal(t, 4, stats.Count(hubspot.ObjectTypeTickets))
	require.Zero(t, stats.Count("products"))
	require.Zero(t, stats.Duration())
}
