package importer

import (
	"fmt"
	"sort"
	"sync"
)

var (
	modules   = make(map[string]ImportModule)
	modulesMu sync.RWMutex
)

// Register adds an import module to the registry.
// Panics if a module with the same key is already registered.
func Register(m ImportModule) {
	modulesMu.Lock()
	defer modulesMu.Unlock()

	if _, exists := modules[m.Key]; exists {
		panic(fmt.Sprintf("import module already registered: %s", m.Key))
	}
	modules[m.Key] = m
}

// GetModule returns a module definition by key.
// Returns false if not found.
func GetModule(key string) (ImportModule, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	m, ok := modules[key]
	return m, ok
}

// Modules returns all registered modules sorted by key.
func Modules() []ImportModule {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	result := make([]ImportModule, 0, len(modules))
	for _, m := range modules {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// ModuleKeys returns the keys of all registered modules sorted alphabetically.
func ModuleKeys() []string {
	all := Modules()
	keys := make([]string, len(all))
	for i, m := range all {
		keys[i] = m.Key
	}
	return keys
}

// The builtin modules mirror the warehouse's import targets. The alias
// lists cover the header spellings the marketplace exports are known to
// use (Shopee, Lazada, TikTok, and the Thai-language reports).
func init() {
	Register(ImportModule{
		Key:             "orders",
		Label:           "Orders",
		RequirePlatform: true,
		RequireShopName: true,
		RedirectPath:    "/allocation",
		Fields: []Field{
			{Key: "order_id", Label: "Order ID", Aliases: []string{
				"orderNumber", "Order Number", "order_id", "Order ID", "order_sn",
				"Order No", "No.", "OrderNo",
			}},
			{Key: "order_time", Label: "Order Time", Aliases: []string{
				"createdAt", "create_time", "created_time", "Order Time", "OrderDate",
				"Order Date", "Paid Time", "paid_time", "Created Time", "createTime",
			}},
			{Key: "sku", Label: "SKU", Aliases: []string{
				"sellerSku", "Seller SKU", "SKU", "Sku", "Item SKU", "SKU Reference No.",
			}},
			{Key: "item_name", Label: "Item Name", Aliases: []string{
				"itemName", "Item Name", "Product Name", "title", "name",
			}},
			{Key: "qty", Label: "Quantity", Aliases: []string{
				"quantity", "Quantity", "Qty", "Purchased Qty", "Order Item Qty",
			}},
			{Key: "shop_name", Label: "Shop Name", Aliases: []string{
				"Shop", "Shop Name", "Store", "Store Name", "shopName", "storeName",
			}},
			{Key: "logistic_type", Label: "Logistics", Aliases: []string{
				"logistic_type", "Logistics Service", "Shipping Provider",
				"Shipment Method", "Delivery Type",
			}},
		},
	})

	Register(ImportModule{
		Key:          "stock",
		Label:        "Stock",
		RedirectPath: "/stock",
		Fields: []Field{
			{Key: "sku", Label: "SKU", Aliases: []string{
				"SKU", "sku", "SKU Reference No.", "Item SKU",
			}},
			{Key: "qty", Label: "On Hand", Aliases: []string{
				"Stock", "stock", "Available", "Qty", "QTY", "STOCK", "quantity",
			}},
		},
	})

	Register(ImportModule{
		Key:          "products",
		Label:        "Products",
		RedirectPath: "/products",
		Fields: []Field{
			{Key: "sku", Label: "SKU", Aliases: []string{"SKU", "sku"}},
			{Key: "brand", Label: "Brand", Aliases: []string{"Brand", "brand"}},
			{Key: "model", Label: "Model", Aliases: []string{"Model", "Product", "productName"}},
		},
	})

	Register(ImportModule{
		Key:          "sales",
		Label:        "Sales",
		RedirectPath: "/sales",
		Fields: []Field{
			{Key: "order_id", Label: "Order ID", Aliases: []string{
				"Order ID", "order_id", "orderNumber", "Order Number",
			}},
			{Key: "po_no", Label: "PO Number", Aliases: []string{"PO", "Document No"}},
			{Key: "status", Label: "Status", Aliases: []string{"Status", "status"}},
		},
	})
}
