package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"optovik-store/logger"
	"optovik-store/models"
)

const (
	ordersSheet = "Заказы"
	linesSheet  = "Позиции"
)

var orderExportHeader = []interface{}{
	"Номер", "Дата", "Статус", "Тип", "Клиент", "Телефон", "Email", "Доставка", "Адрес",
	"Оплата", "Сумма без скидки", "Скидка, %", "Экономия", "Итого",
}

var lineExportHeader = []interface{}{
	"Номер заказа", "Артикул/ID", "Товар", "Цвет", "Размер", "Кол-во", "Цена розн.", "Цена", "Сумма",
}

// ExportOrders writes orders created in [from, to) as an XLSX workbook to w
func (s *OrderService) ExportOrders(ctx context.Context, from, to time.Time, w io.Writer) (int, error) {
	from, to = s.normalizeRange(from, to)
	orders, err := s.orders.ListWithLines(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to load orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return 0, fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeRow(f, ordersSheet, 1, orderExportHeader); err != nil {
		return 0, err
	}
	if err := writeRow(f, linesSheet, 1, lineExportHeader); err != nil {
		return 0, err
	}

	lineRow := 2
	for i, o := range orders {
		row := []interface{}{
			o.Number, o.CreatedAt, statusTitle(o.Status), orderTypeTitle(o.OrderType), o.CustomerName,
			o.CustomerPhone, o.CustomerEmail, o.DeliveryMethod, o.DeliveryAddress, paymentTitle(o.PaymentMethod),
			o.RetailTotal.InexactFloat64(), o.DiscountPercent.InexactFloat64(), o.Economy.InexactFloat64(),
			o.Total.InexactFloat64(),
		}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return 0, err
		}
		for _, l := range o.Lines {
			row := []interface{}{
				o.Number, l.ProductID, l.ProductName, l.SelectedColor, l.SelectedSize, l.Quantity,
				l.UnitRetailPrice.InexactFloat64(), l.UnitPrice.InexactFloat64(), l.LineTotal.InexactFloat64(),
			}
			if err := writeRow(f, linesSheet, lineRow, row); err != nil {
				return 0, err
			}
			lineRow++
		}
	}

	_ = f.SetColWidth(ordersSheet, "A", "A", 30)
	_ = f.SetColWidth(ordersSheet, "B", "B", 22)
	_ = f.SetColWidth(ordersSheet, "E", "E", 24)
	_ = f.SetColWidth(linesSheet, "A", "C", 30)

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	logger.Log.Infof("📤 Exported %d orders (%s - %s)", len(orders), from.Format(time.RFC3339), to.Format(time.RFC3339))
	return len(orders), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func orderTypeTitle(t models.OrderType) string {
	if t == models.OrderTypeWholesale {
		return "опт"
	}
	return "розница"
}
