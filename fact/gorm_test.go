package fact

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(db); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	return db
}

func ptr[T any](v T) *T { return &v }

func TestGormLoader_Load(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create([]OrderRow{
		{ID: 1, UserID: ptr(int64(7)), EvalSet: ptr("prior"), OrderNumber: ptr(1), OrderDow: ptr(1), OrderHourOfDay: ptr(8)},
		{ID: 2, UserID: ptr(int64(7)), EvalSet: ptr("prior"), OrderNumber: ptr(2), OrderDow: ptr(2), OrderHourOfDay: ptr(9)},
		{ID: 3, UserID: ptr(int64(7)), EvalSet: ptr("train"), OrderNumber: ptr(3), OrderDow: ptr(3), OrderHourOfDay: ptr(9)},
		{ID: 4, UserID: ptr(int64(8)), EvalSet: ptr("prior"), OrderDow: ptr(3), OrderHourOfDay: ptr(9)},
	}).Error)
	require.NoError(t, db.Create([]OrderProductRow{
		{OrderID: ptr(int64(1)), ProductID: ptr(int64(10)), AddToCartOrder: ptr(1), Reordered: ptr(false)},
		{OrderID: ptr(int64(2)), ProductID: ptr(int64(10)), AddToCartOrder: ptr(1), Reordered: ptr(true)},
		{OrderID: ptr(int64(3)), ProductID: ptr(int64(10)), AddToCartOrder: ptr(1), Reordered: ptr(true)},
	}).Error)
	require.NoError(t, db.Create([]ProductRow{
		{ID: 10, Name: "Banana", Price: ptr(0.5), DepartmentID: ptr(int64(4)), AisleID: ptr(int64(24))},
	}).Error)

	snap, err := NewGormLoader(db).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Orders, 3)
	assert.Equal(t, 1, snap.Report.SkippedOrders)
	assert.Len(t, snap.OrderProducts, 2)
	assert.Len(t, snap.Products, 1)
	assert.False(t, snap.Orders[0].DaysSincePrior.Valid)
}
