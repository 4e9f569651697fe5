package mappings

import "time"

// SystemKey is a symbolic, company-independent identifier for a recurring
// business purpose. Operational subsystems resolve keys instead of
// hardcoding account codes.
type SystemKey string

const (
	KeyTBSPurchase    SystemKey = "TBS_PURCHASE"
	KeySalesCPO       SystemKey = "SALES_CPO"
	KeySalesKernel    SystemKey = "SALES_KERNEL"
	KeyPPNKeluaran    SystemKey = "PPN_KELUARAN"
	KeyPPNMasukan     SystemKey = "PPN_MASUKAN"
	KeyInventoryTBS   SystemKey = "INVENTORY_TBS"
	KeyInventoryCPO   SystemKey = "INVENTORY_CPO"
	KeyAPSupplier     SystemKey = "AP_SUPPLIER"
	KeyARCustomer     SystemKey = "AR_CUSTOMER"
	KeyCashMain       SystemKey = "CASH_MAIN"
	KeyBankOperating  SystemKey = "BANK_OPERATING"
	KeyFreightExpense SystemKey = "FREIGHT_EXPENSE"
)

var knownKeys = map[SystemKey]struct{}{
	KeyTBSPurchase:    {},
	KeySalesCPO:       {},
	KeySalesKernel:    {},
	KeyPPNKeluaran:    {},
	KeyPPNMasukan:     {},
	KeyInventoryTBS:   {},
	KeyInventoryCPO:   {},
	KeyAPSupplier:     {},
	KeyARCustomer:     {},
	KeyCashMain:       {},
	KeyBankOperating:  {},
	KeyFreightExpense: {},
}

// Valid reports whether the key belongs to the supported set.
func (k SystemKey) Valid() bool {
	_, ok := knownKeys[k]
	return ok
}

// Mapping binds one system key to a concrete account for a company.
// At most one mapping exists per (company, key).
type Mapping struct {
	CompanyID int64
	Key       SystemKey
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
