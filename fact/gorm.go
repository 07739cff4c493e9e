package fact

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pkg/optional"
)

// OrderRow 对应 orders 表。必填列使用指针，NULL 视为畸形记录。
type OrderRow struct {
	ID                  int64           `gorm:"column:id;primaryKey"`
	UserID              *int64          `gorm:"column:user_id;index"`
	EvalSet             *string         `gorm:"column:eval_set"`
	OrderNumber         *int            `gorm:"column:order_number"`
	OrderDow            *int            `gorm:"column:order_dow"`
	OrderHourOfDay      *int            `gorm:"column:order_hour_of_day"`
	DaysSincePriorOrder sql.NullFloat64 `gorm:"column:days_since_prior_order"`
}

func (OrderRow) TableName() string { return "orders" }

// OrderProductRow 对应 order_products 表。
type OrderProductRow struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        *int64 `gorm:"column:order_id;index"`
	ProductID      *int64 `gorm:"column:product_id;index"`
	AddToCartOrder *int   `gorm:"column:add_to_cart_order"`
	Reordered      *bool  `gorm:"column:reordered"`
}

func (OrderProductRow) TableName() string { return "order_products" }

// ProductRow 对应 products 表。
type ProductRow struct {
	ID           int64    `gorm:"column:id;primaryKey"`
	Name         string   `gorm:"column:name"`
	Price        *float64 `gorm:"column:price"`
	DepartmentID *int64   `gorm:"column:department_id"`
	AisleID      *int64   `gorm:"column:aisle_id"`
}

func (ProductRow) TableName() string { return "products" }

// Open 按驱动名打开数据库连接，支持 postgres 与 sqlite。
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// Migrate 创建事实表（引导/测试用）。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&OrderRow{}, &OrderProductRow{}, &ProductRow{})
}

// GormLoader 通过 gorm 从关系库读取事实数据。三张表并发读取。
type GormLoader struct {
	DB *gorm.DB

	// PriorOnly 只读取 prior 订单的关联
	PriorOnly bool
}

func NewGormLoader(db *gorm.DB) *GormLoader {
	return &GormLoader{DB: db, PriorOnly: true}
}

func (l *GormLoader) Name() string { return "gorm" }

func (l *GormLoader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		orderRows   []OrderRow
		opRows      []OrderProductRow
		productRows []ProductRow
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return l.DB.WithContext(ctx).Order("id").Find(&orderRows).Error
	})
	eg.Go(func() error {
		q := l.DB.WithContext(ctx).Model(&OrderProductRow{})
		if l.PriorOnly {
			prior := l.DB.Model(&OrderRow{}).Select("id").Where("eval_set = ?", string(core.EvalSetPrior))
			q = q.Where("order_id IN (?)", prior)
		}
		return q.Order("id").Find(&opRows).Error
	})
	eg.Go(func() error {
		return l.DB.WithContext(ctx).Order("id").Find(&productRows).Error
	})
	if err := eg.Wait(); err != nil {
		return nil, core.ErrFactsUnavailable.WithCause(err)
	}

	var report Report
	orders := make([]core.Order, 0, len(orderRows))
	for _, r := range orderRows {
		o, err := r.toOrder()
		if err != nil {
			report.add(&report.SkippedOrders, err)
			continue
		}
		orders = append(orders, o)
	}
	ops := make([]core.OrderProduct, 0, len(opRows))
	for _, r := range opRows {
		op, err := r.toOrderProduct()
		if err != nil {
			report.add(&report.SkippedOrderProducts, err)
			continue
		}
		ops = append(ops, op)
	}
	products := make([]core.Product, 0, len(productRows))
	for _, r := range productRows {
		p, err := r.toProduct()
		if err != nil {
			report.add(&report.SkippedProducts, err)
			continue
		}
		products = append(products, p)
	}

	snap := NewSnapshot(orders, ops, products)
	snap.Report.Merge(report)
	return snap, nil
}

func (r OrderRow) toOrder() (core.Order, error) {
	if r.UserID == nil || r.EvalSet == nil || r.OrderNumber == nil || r.OrderDow == nil || r.OrderHourOfDay == nil {
		return core.Order{}, fmt.Errorf("order %d: missing required column", r.ID)
	}
	o := core.Order{
		ID:          r.ID,
		UserID:      *r.UserID,
		EvalSet:     core.EvalSet(*r.EvalSet),
		OrderNumber: *r.OrderNumber,
		DayOfWeek:   *r.OrderDow,
		HourOfDay:   *r.OrderHourOfDay,
	}
	if r.DaysSincePriorOrder.Valid {
		o.DaysSincePrior = optional.Of(r.DaysSincePriorOrder.Float64)
	}
	return o, nil
}

func (r OrderProductRow) toOrderProduct() (core.OrderProduct, error) {
	if r.OrderID == nil || r.ProductID == nil || r.AddToCartOrder == nil || r.Reordered == nil {
		return core.OrderProduct{}, fmt.Errorf("order_product %d: missing required column", r.ID)
	}
	return core.OrderProduct{
		OrderID:        *r.OrderID,
		ProductID:      *r.ProductID,
		AddToCartOrder: *r.AddToCartOrder,
		Reordered:      *r.Reordered,
	}, nil
}

func (r ProductRow) toProduct() (core.Product, error) {
	if r.Price == nil || r.DepartmentID == nil || r.AisleID == nil {
		return core.Product{}, fmt.Errorf("product %d: missing required column", r.ID)
	}
	return core.Product{
		ID:           r.ID,
		Name:         r.Name,
		Price:        *r.Price,
		DepartmentID: *r.DepartmentID,
		AisleID:      *r.AisleID,
	}, nil
}
