package numerical

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/database/redis"
	"github.com/turtacn/Musaid-NLQ/internal/testutil"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Count(ctx context.Context, table string, filters []Predicate) (int64, error) {
	args := m.Called(ctx, table, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Sum(ctx context.Context, table, column string, filters []Predicate) (float64, error) {
	args := m.Called(ctx, table, column, filters)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockStore) Query(ctx context.Context, table string, filters []Predicate, limit int) ([]Row, error) {
	args := m.Called(ctx, table, filters, limit)
	rows, _ := args.Get(0).([]Row)
	return rows, args.Error(1)
}

// 2024-05-15 is a Wednesday.
var fixedNow = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

func fixture() *MemoryStore {
	s := NewMemoryStore()
	s.Insert("customers",
		Row{"id": 1, "name": "أحمد", "phone": "5551", "blacklisted": true, "status": "active"},
		Row{"id": 2, "name": "سالم", "phone": "5552", "blacklisted": true, "status": "inactive"},
		Row{"id": 3, "name": "فهد", "phone": "5553", "blacklisted": true, "status": "active"},
		Row{"id": 4, "name": "ناصر", "phone": "5554", "blacklisted": false, "status": "active"},
	)
	s.Insert("invoices",
		Row{"id": 1, "invoice_number": "INV-1", "total_amount": 500.0, "status": "unpaid", "invoice_date": fixedNow.AddDate(0, 0, -2)},
		Row{"id": 2, "invoice_number": "INV-2", "total_amount": 250.5, "status": "unpaid", "invoice_date": fixedNow.AddDate(0, -1, 0)},
		Row{"id": 3, "invoice_number": "INV-3", "total_amount": 100, "status": "paid", "invoice_date": fixedNow.AddDate(0, 0, -1)},
	)
	return s
}

func newTestHandler(store DataStore, opts ...HandlerOption) *Handler {
	opts = append([]HandlerOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewHandler(store, testutil.NewMockLogger(), opts...)
}

func TestHandler_BlacklistedCustomers(t *testing.T) {
	h := newTestHandler(fixture())
	text := "كم عميل محظور"

	require.True(t, h.IsNumericalQuery(text))
	q := h.ParseNumericalQuery(text)
	require.NotNil(t, q)
	assert.Equal(t, EntityCustomers, q.EntityType)
	assert.Equal(t, OpCount, q.Operation)
	assert.Equal(t, map[string]interface{}{"blacklisted": true}, q.Filters)
	assert.Empty(t, q.Timeframe)

	res, err := h.Execute(context.Background(), *q)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Value)
	assert.Equal(t, "3 عميل محظور", res.Description)
}

func TestHandler_NegatedQualifiers(t *testing.T) {
	h := newTestHandler(fixture())
	ctx := context.Background()

	q := h.ParseNumericalQuery("كم عميل غير محظور")
	require.NotNil(t, q)
	assert.Empty(t, q.Filters)
	assert.Equal(t, map[string]interface{}{"blacklisted": true}, q.Exclusions)
	res, err := h.Execute(ctx, *q)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Value)
	assert.Equal(t, "1 عميل غير محظور", res.Description)

	q = h.ParseNumericalQuery("كم عميل غير نشط")
	require.NotNil(t, q)
	res, err = h.Execute(ctx, *q)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Value)
	assert.Equal(t, "1 عميل غير نشط", res.Description)

	q = h.ParseNumericalQuery("كم فاتورة غير متأخرة")
	require.NotNil(t, q)
	res, err = h.Execute(ctx, *q)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Value)

	q = h.ParseNumericalQuery("كم فاتورة غير مدفوعة")
	require.NotNil(t, q)
	assert.Equal(t, map[string]interface{}{"status": "unpaid"}, q.Filters)
	assert.Empty(t, q.Exclusions)
}

func TestHandler_ExclusionPredicates(t *testing.T) {
	store := new(mockStore)
	h := newTestHandler(store)
	store.On("Count", mock.Anything, "contracts", []Predicate{
		{Column: "status", Operator: FilterNe, Value: "expired"},
	}).Return(int64(4), nil)

	q := h.ParseNumericalQuery("كم عقد غير منتهي")
	require.NotNil(t, q)
	res, err := h.Execute(context.Background(), *q)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Value)
	assert.Equal(t, "4 عقد غير منتهي", res.Description)
	store.AssertExpectations(t)
}

func TestHandler_IsNumericalQuery(t *testing.T) {
	h := newTestHandler(nil)
	tests := []struct {
		text string
		want bool
	}{
		{"كم عميل", true},
		{"وعدد العقود", true},
		{"إجمالي المدفوعات", true},
		{"اعرض الفواتير", true},
		{"show invoices", true},
		{"ما هو العقد", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, h.IsNumericalQuery(tt.text))
		})
	}
}

func TestHandler_ParseNumericalQuery(t *testing.T) {
	h := newTestHandler(nil)
	tests := []struct {
		text    string
		pattern string
		entity  EntityType
		op      Operation
	}{
		{"كم عدد العملاء المحظورين", "blacklisted_customers_count", EntityCustomers, OpCount},
		{"كم عميل", "customers_count", EntityCustomers, OpCount},
		{"كم عقد نشط", "active_contracts_count", EntityContracts, OpCount},
		{"عدد العقود المنتهية", "expired_contracts_count", EntityContracts, OpCount},
		{"كم فاتورة غير مدفوعة", "unpaid_invoices_count", EntityInvoices, OpCount},
		{"كم فاتورة مدفوعة", "paid_invoices_count", EntityInvoices, OpCount},
		{"كم فاتورة متأخرة", "overdue_invoices_count", EntityInvoices, OpCount},
		{"إجمالي الفواتير غير المدفوعة", "unpaid_invoices_sum", EntityInvoices, OpSum},
		{"اجمالي المدفوعات", "payments_sum", EntityPayments, OpSum},
		{"مجموع الإيرادات", "revenue_sum", EntityPayments, OpSum},
		{"كم سيارة متاحة", "available_vehicles_count", EntityVehicles, OpCount},
		{"اعرض العملاء المحظورين", "list_blacklisted_customers", EntityCustomers, OpList},
		{"قائمة الفواتير المتأخرة", "list_overdue_invoices", EntityInvoices, OpList},
		{"كم عميل غير محظور", "non_blacklisted_customers_count", EntityCustomers, OpCount},
		{"كم عدد العملاء غير النشطين", "inactive_customers_count", EntityCustomers, OpCount},
		{"كم عقد غير نشط", "inactive_contracts_count", EntityContracts, OpCount},
		{"كم عقد غير منتهي", "unexpired_contracts_count", EntityContracts, OpCount},
		{"كم فاتورة غير متأخرة", "non_overdue_invoices_count", EntityInvoices, OpCount},
		{"كم سيارة غير متاحة", "unavailable_vehicles_count", EntityVehicles, OpCount},
		{"اعرض العملاء غير المحظورين", "list_non_blacklisted_customers", EntityCustomers, OpList},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			q := h.ParseNumericalQuery(tt.text)
			require.NotNil(t, q, tt.text)
			assert.Equal(t, tt.pattern, q.Pattern)
			assert.Equal(t, tt.entity, q.EntityType)
			assert.Equal(t, tt.op, q.Operation)
		})
	}

	assert.Nil(t, h.ParseNumericalQuery("كم"))
	assert.Nil(t, h.ParseNumericalQuery("مرحبا"))
	assert.Nil(t, h.ParseNumericalQuery(""))
}

func TestHandler_ListLimit(t *testing.T) {
	h := newTestHandler(fixture(), WithListLimit(2))
	q := h.ParseNumericalQuery("اعرض العملاء المحظورين")
	require.NotNil(t, q)
	assert.Equal(t, 2, q.Limit)

	res, err := h.Execute(context.Background(), *q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, Row{"id": 1, "name": "أحمد", "phone": "5551"}, res.Rows[0])
	assert.Equal(t, "2 عميل محظور", res.Description)
}

func TestHandler_SumWithPeriod(t *testing.T) {
	h := newTestHandler(fixture())
	q := h.ParseNumericalQuery("إجمالي الفواتير غير المدفوعة هذا الشهر")
	require.NotNil(t, q)
	assert.Equal(t, "this_month", q.Timeframe)

	res, err := h.Execute(context.Background(), *q)
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.Value)
	assert.Equal(t, "إجمالي الفواتير غير مدفوعة: 500.00 د.ك (هذا الشهر)", res.Description)

	q.Timeframe = ""
	res, err = h.Execute(context.Background(), *q)
	require.NoError(t, err)
	assert.Equal(t, 750.5, res.Value)
	assert.Equal(t, "إجمالي الفواتير غير مدفوعة: 750.50 د.ك", res.Description)
}

func TestHandler_Currency(t *testing.T) {
	h := newTestHandler(fixture(), WithCurrency("SAR"))
	res, err := h.Execute(context.Background(), Query{EntityType: EntityInvoices, Operation: OpSum})
	require.NoError(t, err)
	assert.Equal(t, "إجمالي الفواتير: 850.50 SAR", res.Description)

	h = newTestHandler(fixture(), WithCurrencyDecimals(0))
	res, err = h.Execute(context.Background(), Query{EntityType: EntityInvoices, Operation: OpSum, Filters: map[string]interface{}{"status": "paid"}})
	require.NoError(t, err)
	assert.Equal(t, "إجمالي الفواتير مدفوعة: 100 د.ك", res.Description)
}

func TestHandler_Errors(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(fixture(), WithoutStrategy(EntityVehicles))

	_, err := h.Execute(ctx, Query{EntityType: EntityVehicles, Operation: OpCount})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedEntity))
	assert.Contains(t, err.Error(), "unsupported entity type")

	_, err = h.Execute(ctx, Query{EntityType: EntityCustomers, Operation: OpSum})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedOperation))

	_, err = h.Execute(ctx, Query{EntityType: EntityCustomers, Operation: "median"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedOperation))

	_, err = h.Execute(ctx, Query{EntityType: EntityCustomers, Operation: OpCount, Timeframe: "next_decade"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFilter))

	_, err = NewHandler(nil, nil).Execute(ctx, Query{EntityType: EntityCustomers, Operation: OpCount})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataStore))
}

func TestHandler_StoreErrorPropagates(t *testing.T) {
	store := new(mockStore)
	store.On("Count", mock.Anything, "customers", mock.Anything).Return(int64(0), assert.AnError)
	h := newTestHandler(store)

	_, err := h.Execute(context.Background(), Query{EntityType: EntityCustomers, Operation: OpCount})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataStore))
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}

func TestHandler_PeriodPredicates(t *testing.T) {
	store := new(mockStore)
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store.On("Count", mock.Anything, "contracts", []Predicate{
		{Column: "status", Operator: FilterEq, Value: "active"},
		{Column: "start_date", Operator: FilterGte, Value: from},
		{Column: "start_date", Operator: FilterLt, Value: to},
	}).Return(int64(4), nil)

	h := newTestHandler(store)
	q := h.ParseNumericalQuery("كم عقد نشط الشهر الماضي")
	require.NotNil(t, q)
	res, err := h.Execute(context.Background(), *q)
	require.NoError(t, err)
	assert.Equal(t, "4 عقد نشط (الشهر الماضي)", res.Description)
	store.AssertExpectations(t)
}

func TestPeriodRange(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		timeframe string
		want      DateRange
	}{
		{"today", DateRange{day(5, 15), day(5, 16)}},
		{"yesterday", DateRange{day(5, 14), day(5, 15)}},
		{"this_week", DateRange{day(5, 11), day(5, 18)}},
		{"last_week", DateRange{day(5, 4), day(5, 11)}},
		{"this_month", DateRange{day(5, 1), day(6, 1)}},
		{"last_month", DateRange{day(4, 1), day(5, 1)}},
		{"this_year", DateRange{day(1, 1), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{"last_year", DateRange{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), day(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			got, ok := periodRange(tt.timeframe, fixedNow)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	_, ok := periodRange("now", fixedNow)
	assert.False(t, ok)
}

func TestCachedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(redis.Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()
	cache := redis.NewRedisCache(client, nil, redis.WithoutJitter())

	inner := new(mockStore)
	inner.On("Count", mock.Anything, "customers", mock.Anything).Return(int64(3), nil).Once()
	inner.On("Sum", mock.Anything, "payments", "amount", mock.Anything).Return(1200.0, nil).Once()
	inner.On("Query", mock.Anything, "customers", mock.Anything, 5).Return([]Row{{"id": 1}}, nil).Twice()

	store := NewCachedStore(inner, cache, time.Minute)
	ctx := context.Background()
	filters := []Predicate{{Column: "blacklisted", Operator: FilterEq, Value: true}}

	for i := 0; i < 2; i++ {
		n, err := store.Count(ctx, "customers", filters)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		v, err := store.Sum(ctx, "payments", "amount", nil)
		require.NoError(t, err)
		assert.Equal(t, 1200.0, v)

		rows, err := store.Query(ctx, "customers", filters, 5)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	}
	inner.AssertExpectations(t)
	assert.Len(t, mr.Keys(), 2)
}

func TestSchema_CoversStrategyColumns(t *testing.T) {
	schema := Schema(DefaultStrategies())

	assert.Equal(t, []string{"blacklisted", "created_at", "id", "name", "phone", "status"}, schema["customers"])
	assert.Contains(t, schema["invoices"], "total_amount")
	assert.Contains(t, schema["invoices"], "invoice_date")
	assert.Len(t, schema, 5)
}

//Personal.AI order the ending
