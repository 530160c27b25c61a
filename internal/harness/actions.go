package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/storefront"
)

// action runs one storefront operation. The returned value is converted to
// JSON form for the trace; nil means the operation has no output.
type action func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error)

// actions maps scenario action names to storefront operations.
var actions = map[string]action{
	"Catalog.listCategories": func(ctx context.Context, sf *storefront.Storefront, _ map[string]interface{}) (interface{}, error) {
		cats, err := sf.Catalog.ListCategories(ctx)
		return list(cats, len(cats)), err
	},
	"Catalog.addCategory": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a struct {
			Name string `json:"name"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return sf.Catalog.AddCategory(ctx, a.Name)
	},
	"Catalog.renameCategory": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Catalog.RenameCategory(ctx, a.ID, a.Name)
	},
	"Catalog.deleteCategory": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Catalog.DeleteCategory(ctx, a.ID)
	},
	"Catalog.listProducts": func(ctx context.Context, sf *storefront.Storefront, _ map[string]interface{}) (interface{}, error) {
		ps, err := sf.Catalog.ListProducts(ctx)
		return list(ps, len(ps)), err
	},
	"Catalog.listProductsByCategory": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a struct {
			CategoryID int64 `json:"category_id"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		ps, err := sf.Catalog.ListProductsByCategory(ctx, a.CategoryID)
		return list(ps, len(ps)), err
	},
	"Catalog.addProduct": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a domain.ProductInput
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return sf.Catalog.AddProduct(ctx, a)
	},
	"Catalog.updateProduct": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a domain.Product
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Catalog.UpdateProduct(ctx, a)
	},
	"Catalog.deleteProduct": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Catalog.DeleteProduct(ctx, a.ID)
	},
	"Catalog.search": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a struct {
			Keyword string `json:"keyword"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		ps, err := sf.Catalog.SearchByNameOrCategory(ctx, a.Keyword)
		return list(ps, len(ps)), err
	},
	"Catalog.filter": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a domain.ProductFilter
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		ps, err := sf.Catalog.Filter(ctx, a)
		return list(ps, len(ps)), err
	},

	"Account.addUser": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a userArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return sf.Accounts.AddUser(ctx, a.Username, a.Password, a.Role)
	},
	"Account.login": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a userArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		u, err := sf.Accounts.GetUserByCredentials(ctx, a.Username, a.Password)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return map[string]interface{}{"found": false}, nil
		}
		return map[string]interface{}{"found": true, "user": u}, nil
	},
	"Account.listUsers": func(ctx context.Context, sf *storefront.Storefront, _ map[string]interface{}) (interface{}, error) {
		us, err := sf.Accounts.ListUsers(ctx)
		return list(us, len(us)), err
	},
	"Account.updateUserRole": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a userArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Accounts.UpdateUserRole(ctx, a.ID, a.Role)
	},
	"Account.updateUser": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a userArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Accounts.UpdateUser(ctx, domain.UserUpdate{
			ID:       a.ID,
			Username: a.Username,
			Password: a.Password,
			Role:     a.Role,
		})
	},
	"Account.deleteUser": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Accounts.DeleteUser(ctx, a.ID)
	},

	"Cart.addToCart": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return sf.Carts.AddToCart(ctx, a.UserID, a.ProductID, a.Quantity)
	},
	"Cart.updateQuantity": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Carts.UpdateCartItemQuantity(ctx, a.CartItemID, a.Quantity)
	},
	"Cart.removeItem": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Carts.RemoveCartItem(ctx, a.CartItemID)
	},
	"Cart.fetch": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		lines, err := sf.Carts.FetchCartItemsByUser(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.LineTotal())
		}
		return map[string]interface{}{"count": len(lines), "items": lines, "total": total}, nil
	},
	"Cart.clear": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, sf.Carts.ClearCart(ctx, a.UserID)
	},

	"Order.checkout": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a domain.CheckoutRequest
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		id, err := sf.Orders.CheckoutFromCart(ctx, a)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"order_id": id}, nil
	},
	"Order.updateStatus": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a struct {
			OrderID int64  `json:"order_id"`
			Status  string `json:"status"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		status, err := domain.ParseOrderStatus(a.Status)
		if err != nil {
			return nil, err
		}
		return nil, sf.Orders.UpdateOrderStatus(ctx, a.OrderID, status)
	},
	"Order.fetchByUser": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a cartArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		orders, err := sf.Orders.FetchOrdersByUser(ctx, a.UserID)
		return list(orders, len(orders)), err
	},
	"Order.fetchAll": func(ctx context.Context, sf *storefront.Storefront, _ map[string]interface{}) (interface{}, error) {
		orders, err := sf.Orders.FetchAllOrders(ctx)
		return list(orders, len(orders)), err
	},
	"Order.fetchItems": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a orderArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		items, err := sf.Orders.FetchOrderItems(ctx, a.OrderID)
		return list(items, len(items)), err
	},
	"Order.fetchDetails": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a orderArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return sf.Orders.FetchOrderDetails(ctx, a.OrderID)
	},
	"Order.filter": func(ctx context.Context, sf *storefront.Storefront, args map[string]interface{}) (interface{}, error) {
		var a domain.OrderFilter
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		orders, err := sf.Orders.FilterOrders(ctx, a)
		return list(orders, len(orders)), err
	},
}

type idArgs struct {
	ID int64 `json:"id"`
}

type userArgs struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type cartArgs struct {
	UserID     int64 `json:"user_id"`
	ProductID  int64 `json:"product_id"`
	CartItemID int64 `json:"cart_item_id"`
	Quantity   int   `json:"quantity"`
}

type orderArgs struct {
	OrderID int64 `json:"order_id"`
}

// list wraps a slice result so scenarios can match on its size.
func list(items interface{}, n int) map[string]interface{} {
	return map[string]interface{}{"count": n, "items": items}
}

// decodeArgs converts YAML args into a typed struct through JSON, rejecting
// unknown keys.
func decodeArgs(args map[string]interface{}, dst interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return domain.NewValidationError("encode args: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("decode args: %v", err)
	}
	return nil
}

// normalize converts a value to its JSON form (maps, slices, strings,
// float64, bool, nil) so expected and actual values compare by content.
func normalize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}
