package tool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS customers (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    phone TEXT,
    email TEXT
);
CREATE TABLE IF NOT EXISTS menu_items (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT,
    price NUMERIC NOT NULL,
    description TEXT,
    is_available BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    customer_id BIGINT NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
    status TEXT NOT NULL,
    total_amount NUMERIC NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS order_items (
    id BIGSERIAL PRIMARY KEY,
    order_id BIGINT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
    menu_item_id BIGINT NOT NULL REFERENCES menu_items (id),
    quantity INT NOT NULL,
    unit_price NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS reservations (
    id BIGSERIAL PRIMARY KEY,
    customer_id BIGINT NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
    party_size INT NOT NULL,
    reservation_date TEXT NOT NULL,
    reservation_time TEXT NOT NULL,
    status TEXT NOT NULL,
    special_requests TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SQLGateway serves domain actions straight from the concierge database. It
// shares the bun handle with the Postgres preference store.
type SQLGateway struct {
	db *bun.DB
}

func NewSQLGateway(db *bun.DB) (*SQLGateway, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &SQLGateway{db: db}, nil
}

// EnsureSchema creates the business tables the gateway reads and writes.
func (g *SQLGateway) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(sqlSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure gateway schema: %w", err)
		}
	}
	return nil
}

func (g *SQLGateway) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	switch req.Action {
	case ActionMenuSearch:
		return g.menuSearch(ctx, req)
	case ActionCustomerLookup:
		return g.customerLookup(ctx, req)
	case ActionOrderLookup:
		return g.orderLookup(ctx, req)
	case ActionOrderCreate:
		return g.orderCreate(ctx, req)
	case ActionOrderUpdate:
		return g.orderUpdate(ctx, req)
	case ActionReservationLookup:
		return g.reservationLookup(ctx, req)
	case ActionReservationCreate:
		return g.reservationCreate(ctx, req)
	case ActionReservationUpdate:
		return g.reservationUpdate(ctx, req)
	default:
		return failure(req.Action, "unknown action %q", req.Action), nil
	}
}

func (g *SQLGateway) menuSearch(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	query := stringArg(req.Args, "query")
	pattern := "%" + strings.ToLower(query) + "%"

	var items []MenuItem
	q := g.db.NewSelect().
		Model(&items).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(name) LIKE ?", pattern).
				WhereOr("lower(description) LIKE ?", pattern).
				WhereOr("lower(category) LIKE ?", pattern)
		}).
		Order("category ASC", "name ASC").
		Limit(10)
	if boolArg(req.Args, "available_only") {
		q = q.Where("is_available")
	}
	if err := q.Scan(ctx); err != nil {
		return contractx.ToolResult{}, fmt.Errorf("%w: menu search: %v", contractx.ErrExternalTool, err)
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]any{
			"name":         item.Name,
			"category":     item.Category,
			"price":        item.Price,
			"description":  item.Description,
			"is_available": item.IsAvailable,
		})
	}
	return contractx.ToolResult{Action: req.Action, Rows: rows}, nil
}

func (g *SQLGateway) customerLookup(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	fragment := stringArg(req.Args, "name")
	if fragment == "" {
		fragment = stringArg(req.Args, "phone")
	}
	if fragment == "" {
		fragment = stringArg(req.Args, "email")
	}
	if fragment == "" {
		return failure(req.Action, "name, phone, or email is required"), nil
	}
	pattern := "%" + strings.ToLower(fragment) + "%"

	var customer Customer
	err := g.db.NewSelect().
		Model(&customer).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(name) LIKE ?", pattern).
				WhereOr("phone LIKE ?", pattern).
				WhereOr("lower(email) LIKE ?", pattern)
		}).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return failure(req.Action, "no customer matches %q", fragment), nil
	}
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("%w: customer lookup: %v", contractx.ErrExternalTool, err)
	}

	return contractx.ToolResult{
		Action: req.Action,
		Data: map[string]any{
			"customer_id": customer.ID,
			"name":        customer.Name,
		},
	}, nil
}

func (g *SQLGateway) orderLookup(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	orderID, ok := int64Arg(req.Args, "order_id")
	if !ok {
		return failure(req.Action, "order_id is required"), nil
	}

	var order Order
	err := g.db.NewSelect().Model(&order).Where("id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return failure(req.Action, "order #%d not found", orderID), nil
	}
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("%w: order lookup: %v", contractx.ErrExternalTool, err)
	}

	items, err := g.orderItemRows(ctx, orderID)
	if err != nil {
		return contractx.ToolResult{}, err
	}

	return contractx.ToolResult{
		Action: req.Action,
		Data: map[string]any{
			"order_id":     order.ID,
			"order_status": order.Status,
			"total_amount": order.TotalAmount,
		},
		Rows: items,
	}, nil
}

func (g *SQLGateway) orderCreate(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	customerID, ok := int64Arg(req.Args, "customer_id")
	if !ok {
		return failure(req.Action, "customer_id is required"), nil
	}
	names := splitList(stringArg(req.Args, "items"))
	if len(names) == 0 {
		return failure(req.Action, "items is required"), nil
	}
	quantity, ok := intArg(req.Args, "quantity")
	if !ok || quantity <= 0 {
		quantity = 1
	}

	order := &Order{
		CustomerID: customerID,
		Status:     "confirmed",
		CreatedAt:  time.Now().UTC(),
	}
	var lines []OrderItem

	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		total := 0.0
		lines = lines[:0]
		for _, name := range names {
			var item MenuItem
			err := tx.NewSelect().
				Model(&item).
				Where("lower(name) LIKE ?", "%"+strings.ToLower(name)+"%").
				Order("id ASC").
				Limit(1).
				Scan(ctx)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("menu item %q not found", name)
			}
			if err != nil {
				return err
			}
			lines = append(lines, OrderItem{
				MenuItemID: item.ID,
				Quantity:   quantity,
				UnitPrice:  item.Price,
			})
			total += item.Price * float64(quantity)
		}

		order.TotalAmount = total
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&lines).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return failure(req.Action, "create order: %v", err), nil
	}

	return contractx.ToolResult{
		Action: req.Action,
		Data: map[string]any{
			"order_id":     order.ID,
			"order_status": order.Status,
			"total_amount": order.TotalAmount,
			"items":        strings.Join(names, ", "),
		},
	}, nil
}

func (g *SQLGateway) orderUpdate(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	orderID, ok := int64Arg(req.Args, "order_id")
	if !ok {
		return failure(req.Action, "order_id is required"), nil
	}
	quantity, ok := intArg(req.Args, "quantity")
	if !ok || quantity <= 0 {
		return failure(req.Action, "quantity must be a positive number"), nil
	}

	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*OrderItem)(nil)).
			Set("quantity = ?", quantity).
			Where("order_id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err == nil && affected == 0 {
			return fmt.Errorf("order #%d not found", orderID)
		}

		_, err = tx.NewUpdate().
			Model((*Order)(nil)).
			Set("total_amount = (SELECT COALESCE(SUM(quantity * unit_price), 0) FROM order_items WHERE order_id = ?)", orderID).
			Set("status = ?", "updated").
			Where("id = ?", orderID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return failure(req.Action, "update order: %v", err), nil
	}

	return g.orderLookup(ctx, contractx.ToolRequest{
		Action: ActionOrderLookup,
		Args:   map[string]any{"order_id": orderID},
	})
}

func (g *SQLGateway) reservationLookup(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	var reservation Reservation
	q := g.db.NewSelect().Model(&reservation)

	if reservationID, ok := int64Arg(req.Args, "reservation_id"); ok {
		q = q.Where("id = ?", reservationID)
	} else if customerID, ok := int64Arg(req.Args, "customer_id"); ok {
		q = q.Where("customer_id = ?", customerID).Order("id DESC").Limit(1)
	} else {
		return failure(req.Action, "reservation_id or customer_id is required"), nil
	}

	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return failure(req.Action, "no matching reservation"), nil
	}
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("%w: reservation lookup: %v", contractx.ErrExternalTool, err)
	}

	return contractx.ToolResult{Action: req.Action, Data: reservationData(reservation)}, nil
}

func (g *SQLGateway) reservationCreate(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	customerID, ok := int64Arg(req.Args, "customer_id")
	if !ok {
		return failure(req.Action, "customer_id is required"), nil
	}
	partySize, ok := intArg(req.Args, "party_size")
	if !ok || partySize <= 0 {
		return failure(req.Action, "party_size must be a positive number"), nil
	}

	reservation := &Reservation{
		CustomerID:      customerID,
		PartySize:       partySize,
		ReservationDate: stringArg(req.Args, "reservation_date"),
		ReservationTime: stringArg(req.Args, "reservation_time"),
		Status:          "confirmed",
		SpecialRequests: stringArg(req.Args, "special_requests"),
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := g.db.NewInsert().Model(reservation).Exec(ctx); err != nil {
		return failure(req.Action, "create reservation: %v", err), nil
	}

	return contractx.ToolResult{Action: req.Action, Data: reservationData(*reservation)}, nil
}

func (g *SQLGateway) reservationUpdate(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	reservationID, ok := int64Arg(req.Args, "reservation_id")
	if !ok {
		return failure(req.Action, "reservation_id is required"), nil
	}

	q := g.db.NewUpdate().
		Model((*Reservation)(nil)).
		Where("id = ?", reservationID).
		Set("status = ?", "confirmed")
	touched := false
	if t := stringArg(req.Args, "reservation_time"); t != "" {
		q = q.Set("reservation_time = ?", t)
		touched = true
	}
	if d := stringArg(req.Args, "reservation_date"); d != "" {
		q = q.Set("reservation_date = ?", d)
		touched = true
	}
	if partySize, ok := intArg(req.Args, "party_size"); ok && partySize > 0 {
		q = q.Set("party_size = ?", partySize)
		touched = true
	}
	if !touched {
		return failure(req.Action, "nothing to update"), nil
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return failure(req.Action, "update reservation: %v", err), nil
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return failure(req.Action, "reservation #%d not found", reservationID), nil
	}

	return g.reservationLookup(ctx, contractx.ToolRequest{
		Action: ActionReservationLookup,
		Args:   map[string]any{"reservation_id": reservationID},
	})
}

func (g *SQLGateway) orderItemRows(ctx context.Context, orderID int64) ([]map[string]any, error) {
	var lines []struct {
		Name      string  `bun:"name"`
		Quantity  int     `bun:"quantity"`
		UnitPrice float64 `bun:"unit_price"`
	}
	err := g.db.NewSelect().
		Model((*OrderItem)(nil)).
		Column("menu_item.name", "order_item.quantity", "order_item.unit_price").
		Join("JOIN menu_items AS menu_item ON menu_item.id = order_item.menu_item_id").
		Where("order_item.order_id = ?", orderID).
		Scan(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("%w: order items: %v", contractx.ErrExternalTool, err)
	}

	rows := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, map[string]any{
			"name":       line.Name,
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
		})
	}
	return rows, nil
}

func reservationData(r Reservation) map[string]any {
	return map[string]any{
		"reservation_id":   r.ID,
		"party_size":       r.PartySize,
		"reservation_date": r.ReservationDate,
		"reservation_time": r.ReservationTime,
		"status":           r.Status,
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
