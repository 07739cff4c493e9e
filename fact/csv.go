package fact

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/basketrec/core"
	"github.com/rushteam/basketrec/pkg/optional"
)

// CSV 引导文件的默认文件名（Instacart 数据集格式）。
const (
	DefaultOrdersFile             = "orders.csv"
	DefaultPriorOrderProductsFile = "order_products__prior.csv"
	DefaultTrainOrderProductsFile = "order_products__train.csv"
	DefaultProductsFile           = "products.csv"
)

// CSVLoader 从一组 CSV 文件加载事实数据。
// 非数值或缺失的必填字段会让该行被剔除并计入 Report，不会中断加载。
type CSVLoader struct {
	Dir                string
	OrdersFile         string
	OrderProductsFiles []string
	ProductsFile       string

	// PriorOnly 只保留 prior 订单的关联（与线上推荐口径一致）
	PriorOnly bool
}

// NewCSVLoader 使用默认文件名创建 CSVLoader。
func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{
		Dir:                dir,
		OrdersFile:         DefaultOrdersFile,
		OrderProductsFiles: []string{DefaultPriorOrderProductsFile, DefaultTrainOrderProductsFile},
		ProductsFile:       DefaultProductsFile,
		PriorOnly:          true,
	}
}

func (l *CSVLoader) Name() string { return "csv" }

func (l *CSVLoader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		orders   []core.Order
		products []core.Product
		opParts  = make([][]core.OrderProduct, len(l.OrderProductsFiles))
		reports  = make([]Report, 2+len(l.OrderProductsFiles))
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		orders, err = readCSV(ctx, l.path(l.OrdersFile), parseOrderRow, &reports[0].SkippedOrders, &reports[0])
		return err
	})
	eg.Go(func() error {
		var err error
		products, err = readCSV(ctx, l.path(l.ProductsFile), parseProductRow, &reports[1].SkippedProducts, &reports[1])
		return err
	})
	for i, name := range l.OrderProductsFiles {
		eg.Go(func() error {
			rep := &reports[2+i]
			part, err := readCSV(ctx, l.path(name), parseOrderProductRow, &rep.SkippedOrderProducts, rep)
			if errors.Is(err, os.ErrNotExist) {
				// train 关联文件是可选的
				return nil
			}
			opParts[i] = part
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, core.ErrFactsUnavailable.WithCause(err)
	}

	var ops []core.OrderProduct
	for _, part := range opParts {
		ops = append(ops, part...)
	}
	snap := NewSnapshot(orders, ops, products)
	for _, r := range reports {
		snap.Report.Merge(r)
	}
	if l.PriorOnly {
		snap = snap.PriorOnly()
	}
	return snap, nil
}

func (l *CSVLoader) path(name string) string {
	if filepath.IsAbs(name) || l.Dir == "" {
		return name
	}
	return filepath.Join(l.Dir, name)
}

type rowParser[T any] func(row map[string]string) (T, error)

func readCSV[T any](ctx context.Context, path string, parse rowParser[T], skipped *int, report *Report) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return decodeCSV(ctx, f, parse, skipped, report)
}

func decodeCSV[T any](ctx context.Context, r io.Reader, parse rowParser[T], skipped *int, report *Report) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var out []T
	row := make(map[string]string, len(columns))
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.add(skipped, fmt.Errorf("line %d: %w", line, err))
				continue
			}
			return nil, err
		}
		clear(row)
		for i, col := range columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		v, err := parse(row)
		if err != nil {
			report.add(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func requiredInt(row map[string]string, col string) (int64, error) {
	s, ok := row[col]
	if !ok || s == "" {
		return 0, fmt.Errorf("missing %s", col)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 部分导出会把整数写成 "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%s: %q is not an integer", col, s)
		}
		v = int64(f)
	}
	return v, nil
}

func parseOrderRow(row map[string]string) (core.Order, error) {
	var (
		o   core.Order
		err error
		n   int64
	)
	if o.ID, err = requiredInt(row, "order_id"); err != nil {
		return o, err
	}
	if o.UserID, err = requiredInt(row, "user_id"); err != nil {
		return o, err
	}
	o.EvalSet = core.EvalSet(row["eval_set"])
	if n, err = requiredInt(row, "order_number"); err != nil {
		return o, err
	}
	o.OrderNumber = int(n)
	if n, err = requiredInt(row, "order_dow"); err != nil {
		return o, err
	}
	o.DayOfWeek = int(n)
	if n, err = requiredInt(row, "order_hour_of_day"); err != nil {
		return o, err
	}
	o.HourOfDay = int(n)
	if s := row["days_since_prior_order"]; s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return o, fmt.Errorf("days_since_prior_order: %q is not a number", s)
		}
		o.DaysSincePrior = optional.Of(v)
	}
	return o, nil
}

func parseOrderProductRow(row map[string]string) (core.OrderProduct, error) {
	var (
		op  core.OrderProduct
		err error
		n   int64
	)
	if op.OrderID, err = requiredInt(row, "order_id"); err != nil {
		return op, err
	}
	if op.ProductID, err = requiredInt(row, "product_id"); err != nil {
		return op, err
	}
	if n, err = requiredInt(row, "add_to_cart_order"); err != nil {
		return op, err
	}
	op.AddToCartOrder = int(n)
	if s := row["reordered"]; s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return op, fmt.Errorf("reordered: %q is not a boolean", s)
		}
		op.Reordered = b
	}
	return op, nil
}

func parseProductRow(row map[string]string) (core.Product, error) {
	var (
		p   core.Product
		err error
	)
	if p.ID, err = requiredInt(row, "product_id"); err != nil {
		return p, err
	}
	p.Name = row["product_name"]
	if p.AisleID, err = requiredInt(row, "aisle_id"); err != nil {
		return p, err
	}
	if p.DepartmentID, err = requiredInt(row, "department_id"); err != nil {
		return p, err
	}
	if s := row["product_price"]; s != "" {
		if p.Price, err = strconv.ParseFloat(s, 64); err != nil {
			return p, fmt.Errorf("product_price: %q is not a number", s)
		}
	}
	return p, nil
}
