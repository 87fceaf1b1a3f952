package entity

// Balance es el saldo neto de un producto en una ubicación (vista derivada de los movimientos).
// Puede ser negativo: el ledger no impide sacar más de lo que entró.
type Balance struct {
	ProductID  string
	LocationID string
	Quantity   int64
}

// BalanceKey identifica un par (producto, ubicación).
type BalanceKey struct {
	ProductID  string
	LocationID string
}
