package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"sync"
	"testing"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/example/tarefas-api/modules/cache"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// memoryCache is an in-process CacheService used to observe cache traffic.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func (c *memoryCache) Stats() cache.StatsSnapshot   { return cache.StatsSnapshot{} }
func (c *memoryCache) Ping(_ context.Context) error { return nil }
func (c *memoryCache) Close() error                 { return nil }

// setupTestService creates a service backed by an in-memory SQLite database.
func setupTestService(t *testing.T, c cache.CacheService) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := domain.NewRepository(db)
	require.NoError(t, repo.Migrate())

	return NewService(repo, c, nil, &mockLogger{}, 100), db
}

func countTasks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Task{}).Count(&n).Error)
	return n
}

func TestService_Create(t *testing.T) {
	svc, db := setupTestService(t, nil)
	ctx := context.Background()

	desc := "leite e pão"
	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Mercado", Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, "Mercado", created.Title)
	require.NotNil(t, created.Description)
	assert.Equal(t, desc, *created.Description)
	assert.Len(t, created.ID, 36)
	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	other, err := svc.Create(ctx, CreateTaskRequest{Title: "Farmácia"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
	assert.Nil(t, other.Description)

	assert.Equal(t, int64(2), countTasks(t, db))
}

func TestService_Create_ShortTitle(t *testing.T) {
	svc, db := setupTestService(t, nil)

	_, err := svc.Create(context.Background(), CreateTaskRequest{Title: "x"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "titulo", verr.Fields[0].Field)
	assert.Equal(t, int64(0), countTasks(t, db))
}

func TestService_List_Pagination(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.Create(ctx, CreateTaskRequest{Title: fmt.Sprintf("Tarefa %02d", i)})
		require.NoError(t, err)
	}

	page2, err := svc.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Data, 5)
	assert.Equal(t, PageMeta{Total: 15, TotalPaginas: 2, Pagina: 2, PorPagina: 10}, page2.Meta)

	page1, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page1.Data, 10)

	seen := make(map[string]bool)
	for _, task := range append(page1.Data, page2.Data...) {
		assert.False(t, seen[task.ID], "task %s returned on both pages", task.ID)
		seen[task.ID] = true
	}
	assert.Len(t, seen, 15)

	beyond, err := svc.List(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.NotNil(t, beyond.Data)
}

func TestService_List_Empty(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	result, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Meta.Total)
	assert.Equal(t, int64(0), result.Meta.TotalPaginas)
	assert.Empty(t, result.Data)
}

func TestService_List_InvalidBounds(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	for _, tc := range [][2]int{{0, 10}, {1, 0}, {1, 101}, {-3, 10}} {
		_, err := svc.List(context.Background(), tc[0], tc[1])
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "page=%d size=%d", tc[0], tc[1])
	}
}

func TestService_List_HugePageIsEmpty(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	for _, title := range []string{"Um", "Dois", "Três"} {
		_, err := svc.Create(ctx, CreateTaskRequest{Title: title})
		require.NoError(t, err)
	}

	const hugePage = 1_000_000_000_000_000_000
	result, err := svc.List(ctx, hugePage, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.NotNil(t, result.Data)
	assert.Equal(t, PageMeta{Total: 3, TotalPaginas: 1, Pagina: hugePage, PorPagina: 10}, result.Meta)

	result, err = svc.List(ctx, math.MaxInt, 100)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
}

func TestService_MaxPageSizeAcceptsDefault(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	small := NewService(svc.repo, nil, nil, &mockLogger{}, 5)

	result, err := small.List(context.Background(), DefaultPage, DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, result.Meta.PorPagina)
}

// writeDuringFindPage runs write while a page query is in flight.
type writeDuringFindPage struct {
	domain.Repository
	write func()
}

func (r *writeDuringFindPage) FindPage(ctx context.Context, offset, limit int) ([]domain.Task, error) {
	tasks, err := r.Repository.FindPage(ctx, offset, limit)
	if r.write != nil {
		write := r.write
		r.write = nil
		write()
	}
	return tasks, err
}

func TestService_List_WriteDuringReadIsNotServedStale(t *testing.T) {
	mc := newMemoryCache()
	base, _ := setupTestService(t, mc)
	ctx := context.Background()

	_, err := base.Create(ctx, CreateTaskRequest{Title: "Primeira"})
	require.NoError(t, err)

	repo := &writeDuringFindPage{Repository: base.repo}
	svc := NewService(repo, mc, nil, &mockLogger{}, 100)
	repo.write = func() {
		_, err := svc.Create(ctx, CreateTaskRequest{Title: "Segunda"})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, first.Data, 1)

	// The listing read before the write must not be served afterwards.
	second, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, second.Data, 2)
	assert.Equal(t, int64(2), second.Meta.Total)
}

func TestService_Get_CancelledCallerStillLoads(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	created, err := svc.Create(context.Background(), CreateTaskRequest{Title: "Compartilhada"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestService_Get(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Correr"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Correr", got.Title)

	_, err = svc.Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "not-a-uuid")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_Update(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	desc := "antes"
	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Original", Description: &desc})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateTaskRequest{
		Title:  "Alterada",
		Status: domain.StatusDone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alterada", updated.Title)
	assert.Nil(t, updated.Description)
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Equal(t, created.ID, updated.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alterada", got.Title)
	assert.Nil(t, got.Description)
	assert.Equal(t, domain.StatusDone, got.Status)
}

func TestService_Update_NonexistentNeverCreates(t *testing.T) {
	svc, db := setupTestService(t, nil)

	_, err := svc.Update(context.Background(), uuid.New().String(), UpdateTaskRequest{
		Title:  "Fantasma",
		Status: domain.StatusPending,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(0), countTasks(t, db))
}

func TestService_Update_Invalid(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Valida"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, UpdateTaskRequest{Title: "a", Status: domain.StatusDone})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valida", got.Title)
}

func TestService_ToggleStatus(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Alternar"})
	require.NoError(t, err)

	once, err := svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, once.Status)

	twice, err := svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Status, twice.Status)

	_, err = svc.ToggleStatus(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Apagar"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestService_ListByStatus_Partitions(t *testing.T) {
	svc, _ := setupTestService(t, nil)
	ctx := context.Background()

	all := make(map[string]bool)
	for i := 0; i < 6; i++ {
		created, err := svc.Create(ctx, CreateTaskRequest{Title: fmt.Sprintf("Item %d", i)})
		require.NoError(t, err)
		all[created.ID] = true
		if i%3 == 0 {
			_, err := svc.ToggleStatus(ctx, created.ID)
			require.NoError(t, err)
		}
	}

	done, err := svc.ListByStatus(ctx, domain.StatusDone)
	require.NoError(t, err)
	pending, err := svc.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)

	assert.Len(t, done, 2)
	assert.Len(t, pending, 4)

	union := make(map[string]bool)
	for _, task := range done {
		assert.Equal(t, domain.StatusDone, task.Status)
		union[task.ID] = true
	}
	for _, task := range pending {
		assert.Equal(t, domain.StatusPending, task.Status)
		assert.False(t, union[task.ID], "task %s in both partitions", task.ID)
		union[task.ID] = true
	}
	assert.Equal(t, all, union)

	_, err = svc.ListByStatus(ctx, domain.Status("TODAS"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_CacheAside(t *testing.T) {
	mc := newMemoryCache()
	svc, _ := setupTestService(t, mc)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{Title: "Cacheada"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, mc.has(cacheKeyByID(created.ID)))

	listKey := cacheKeyList(svc.listGen.Load(), 1, 10)
	_, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, mc.has(listKey))

	statusKey := cacheKeyStatus(svc.listGen.Load(), domain.StatusPending)
	_, err = svc.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.True(t, mc.has(statusKey))

	// A write drops the task entry and every cached listing.
	_, err = svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, mc.has(cacheKeyByID(created.ID)))
	assert.False(t, mc.has(listKey))
	assert.False(t, mc.has(statusKey))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)

	listKey = cacheKeyList(svc.listGen.Load(), 1, 10)
	_, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateTaskRequest{Title: "Outra"})
	require.NoError(t, err)
	assert.False(t, mc.has(listKey))
	assert.True(t, mc.has(cacheKeyByID(created.ID)))

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.False(t, mc.has(cacheKeyByID(created.ID)))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceError_RoundTrip(t *testing.T) {
	verr := NewValidationError(FieldError{Field: "titulo", Message: "é obrigatório"})

	se := toServiceError(verr)
	assert.Equal(t, CodeValidation, se.Code)

	var back *ValidationError
	require.ErrorAs(t, se.Err(), &back)
	assert.Equal(t, verr.Message, back.Message)
	assert.Equal(t, verr.Fields, back.Fields)

	se = toServiceError(fmt.Errorf("wrapped: %w", domain.ErrNotFound))
	assert.Equal(t, CodeNotFound, se.Code)
	assert.ErrorIs(t, se.Err(), domain.ErrNotFound)

	se = toServiceError(errors.New("disk full"))
	assert.Equal(t, CodeInternal, se.Code)
	assert.NotContains(t, se.Message, "disk full")

	var nilErr *ServiceError
	assert.NoError(t, nilErr.Err())
}
