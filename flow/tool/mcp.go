package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// MCPConfig configures the stdio MCP tool server (an external process
// exposing read_query/write_query over the restaurant database).
type MCPConfig struct {
	Command string        `envconfig:"COMMAND" split_words:"true" required:"true"`
	Args    []string      `envconfig:"ARGS" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// mcpCaller is the slice of the MCP client the gateway needs; narrowed for
// test fakes.
type mcpCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MCPGateway serves domain actions by issuing SQL through an MCP server's
// read_query/write_query tools.
type MCPGateway struct {
	client  mcpCaller
	timeout time.Duration
	closer  func() error
}

func NewMCPGateway(ctx context.Context, cfg MCPConfig) (*MCPGateway, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, errors.New("mcp command is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c, err := mcpclient.NewStdioMCPClient(command, nil, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "restaurant-concierge",
		Version: "0.1.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	return &MCPGateway{
		client:  c,
		timeout: timeout,
		closer:  c.Close,
	}, nil
}

func (g *MCPGateway) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *MCPGateway) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	switch req.Action {
	case ActionMenuSearch:
		query := escapeSQL(strings.ToLower(stringArg(req.Args, "query")))
		sql := fmt.Sprintf(
			"SELECT name, category, price, description, is_available FROM menu_items"+
				" WHERE (lower(name) LIKE '%%%s%%' OR lower(description) LIKE '%%%s%%' OR lower(category) LIKE '%%%s%%')",
			query, query, query)
		if boolArg(req.Args, "available_only") {
			sql += " AND is_available = 1"
		}
		sql += " ORDER BY category, name LIMIT 10"
		rows, err := g.readQuery(ctx, sql)
		if err != nil {
			return failure(req.Action, "%v", err), nil
		}
		return contractx.ToolResult{Action: req.Action, Rows: rows}, nil

	case ActionCustomerLookup:
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
		escaped := escapeSQL(strings.ToLower(fragment))
		sql := fmt.Sprintf(
			"SELECT id AS customer_id, name FROM customers"+
				" WHERE lower(name) LIKE '%%%s%%' OR phone LIKE '%%%s%%' OR lower(email) LIKE '%%%s%%'"+
				" ORDER BY id LIMIT 1",
			escaped, escaped, escaped)
		rows, err := g.readQuery(ctx, sql)
		if err != nil {
			return failure(req.Action, "%v", err), nil
		}
		if len(rows) == 0 {
			return failure(req.Action, "no customer matches %q", fragment), nil
		}
		return contractx.ToolResult{Action: req.Action, Data: rows[0]}, nil

	case ActionOrderLookup:
		orderID, ok := int64Arg(req.Args, "order_id")
		if !ok {
			return failure(req.Action, "order_id is required"), nil
		}
		orders, err := g.readQuery(ctx, fmt.Sprintf(
			"SELECT id AS order_id, status AS order_status, total_amount FROM orders WHERE id = %d", orderID))
		if err != nil {
			return failure(req.Action, "%v", err), nil
		}
		if len(orders) == 0 {
			return failure(req.Action, "order #%d not found", orderID), nil
		}
		items, err := g.readQuery(ctx, fmt.Sprintf(
			"SELECT m.name AS name, oi.quantity AS quantity, oi.unit_price AS unit_price"+
				" FROM order_items oi JOIN menu_items m ON m.id = oi.menu_item_id WHERE oi.order_id = %d", orderID))
		if err != nil {
			return failure(req.Action, "%v", err), nil
		}
		return contractx.ToolResult{Action: req.Action, Data: orders[0], Rows: items}, nil

	case ActionOrderUpdate:
		orderID, ok := int64Arg(req.Args, "order_id")
		if !ok {
			return failure(req.Action, "order_id is required"), nil
		}
		quantity, ok := intArg(req.Args, "quantity")
		if !ok || quantity <= 0 {
			return failure(req.Action, "quantity must be a positive number"), nil
		}
		if err := g.writeQuery(ctx, fmt.Sprintf(
			"UPDATE order_items SET quantity = %d WHERE order_id = %d", quantity, orderID)); err != nil {
			return failure(req.Action, "%v", err), nil
		}
		if err := g.writeQuery(ctx, fmt.Sprintf(
			"UPDATE orders SET status = 'updated', total_amount ="+
				" (SELECT COALESCE(SUM(quantity * unit_price), 0) FROM order_items WHERE order_id = %d)"+
				" WHERE id = %d", orderID, orderID)); err != nil {
			return failure(req.Action, "%v", err), nil
		}
		return g.Execute(ctx, contractx.ToolRequest{
			Action: ActionOrderLookup,
			Args:   map[string]any{"order_id": orderID},
		})

	case ActionReservationLookup:
		var sql string
		if reservationID, ok := int64Arg(req.Args, "reservation_id"); ok {
			sql = fmt.Sprintf(
				"SELECT id AS reservation_id, party_size, reservation_date, reservation_time, status"+
					" FROM reservations WHERE id = %d", reservationID)
		} else if customerID, ok := int64Arg(req.Args, "customer_id"); ok {
			sql = fmt.Sprintf(
				"SELECT id AS reservation_id, party_size, reservation_date, reservation_time, status"+
					" FROM reservations WHERE customer_id = %d ORDER BY id DESC LIMIT 1", customerID)
		} else {
			return failure(req.Action, "reservation_id or customer_id is required"), nil
		}
		rows, err := g.readQuery(ctx, sql)
		if err != nil {
			return failure(req.Action, "%v", err), nil
		}
		if len(rows) == 0 {
			return failure(req.Action, "no matching reservation"), nil
		}
		return contractx.ToolResult{Action: req.Action, Data: rows[0]}, nil

	case ActionReservationCreate:
		customerID, ok := int64Arg(req.Args, "customer_id")
		if !ok {
			return failure(req.Action, "customer_id is required"), nil
		}
		partySize, ok := intArg(req.Args, "party_size")
		if !ok || partySize <= 0 {
			return failure(req.Action, "party_size must be a positive number"), nil
		}
		if err := g.writeQuery(ctx, fmt.Sprintf(
			"INSERT INTO reservations (customer_id, party_size, reservation_date, reservation_time, status, special_requests)"+
				" VALUES (%d, %d, '%s', '%s', 'confirmed', '%s')",
			customerID, partySize,
			escapeSQL(stringArg(req.Args, "reservation_date")),
			escapeSQL(stringArg(req.Args, "reservation_time")),
			escapeSQL(stringArg(req.Args, "special_requests")))); err != nil {
			return failure(req.Action, "%v", err), nil
		}
		rows, err := g.readQuery(ctx, "SELECT last_insert_rowid() AS reservation_id")
		if err != nil || len(rows) == 0 {
			return failure(req.Action, "reservation created but id unavailable"), nil
		}
		return g.Execute(ctx, contractx.ToolRequest{
			Action: ActionReservationLookup,
			Args:   map[string]any{"reservation_id": rows[0]["reservation_id"]},
		})

	case ActionReservationUpdate:
		reservationID, ok := int64Arg(req.Args, "reservation_id")
		if !ok {
			return failure(req.Action, "reservation_id is required"), nil
		}
		sets := []string{"status = 'confirmed'"}
		if t := stringArg(req.Args, "reservation_time"); t != "" {
			sets = append(sets, fmt.Sprintf("reservation_time = '%s'", escapeSQL(t)))
		}
		if d := stringArg(req.Args, "reservation_date"); d != "" {
			sets = append(sets, fmt.Sprintf("reservation_date = '%s'", escapeSQL(d)))
		}
		if partySize, ok := intArg(req.Args, "party_size"); ok && partySize > 0 {
			sets = append(sets, fmt.Sprintf("party_size = %d", partySize))
		}
		if err := g.writeQuery(ctx, fmt.Sprintf(
			"UPDATE reservations SET %s WHERE id = %d", strings.Join(sets, ", "), reservationID)); err != nil {
			return failure(req.Action, "%v", err), nil
		}
		return g.Execute(ctx, contractx.ToolRequest{
			Action: ActionReservationLookup,
			Args:   map[string]any{"reservation_id": reservationID},
		})

	case ActionOrderCreate:
		// Order creation needs a transaction across four statements; the
		// read/write query surface of the MCP server cannot provide one.
		return failure(req.Action, "order creation is not supported over the MCP transport"), nil

	default:
		return failure(req.Action, "unknown action %q", req.Action), nil
	}
}

func (g *MCPGateway) readQuery(ctx context.Context, sql string) ([]map[string]any, error) {
	text, err := g.call(ctx, "read_query", sql)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("parse tool rows: %w", err)
	}
	return rows, nil
}

func (g *MCPGateway) writeQuery(ctx context.Context, sql string) error {
	_, err := g.call(ctx, "write_query", sql)
	return err
}

func (g *MCPGateway) call(ctx context.Context, tool, sql string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = map[string]any{"query": sql}

	result, err := g.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrExternalTool, tool, err)
	}

	var parts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))

	if result.IsError {
		return "", fmt.Errorf("%w: %s: %s", contractx.ErrExternalTool, tool, text)
	}
	return text, nil
}

func escapeSQL(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
