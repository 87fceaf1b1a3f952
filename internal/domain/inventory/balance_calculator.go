package inventory

import (
	"sort"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Delta es el cambio de saldo que un movimiento aplica sobre un par (producto, ubicación).
type Delta struct {
	Key entity.BalanceKey
	Qty int64
}

// Contribution devuelve los cambios de saldo de un movimiento: +Qty en destino, -Qty en origen.
// En un traslado a sí mismo ambos se anulan y el resultado es vacío.
func Contribution(m *entity.Movement) []Delta {
	if m == nil {
		return nil
	}
	deltas := make([]Delta, 0, 2)
	if m.ToLocation != "" {
		deltas = append(deltas, Delta{Key: entity.BalanceKey{ProductID: m.ProductID, LocationID: m.ToLocation}, Qty: m.Qty})
	}
	if m.FromLocation != "" {
		deltas = append(deltas, Delta{Key: entity.BalanceKey{ProductID: m.ProductID, LocationID: m.FromLocation}, Qty: -m.Qty})
	}
	return merge(deltas)
}

// AmendmentDeltas resta la contribución anterior y suma la nueva.
// Se aplica de una sola vez para que ningún lector vea el estado intermedio.
func AmendmentDeltas(prev, curr *entity.Movement) []Delta {
	deltas := make([]Delta, 0, 4)
	for _, d := range Contribution(prev) {
		deltas = append(deltas, Delta{Key: d.Key, Qty: -d.Qty})
	}
	deltas = append(deltas, Contribution(curr)...)
	return merge(deltas)
}

// merge agrupa por clave conservando el orden de aparición y descarta los ceros.
func merge(deltas []Delta) []Delta {
	idx := make(map[entity.BalanceKey]int, len(deltas))
	out := make([]Delta, 0, len(deltas))
	for _, d := range deltas {
		if i, ok := idx[d.Key]; ok {
			out[i].Qty += d.Qty
			continue
		}
		idx[d.Key] = len(out)
		out = append(out, d)
	}
	result := out[:0]
	for _, d := range out {
		if d.Qty != 0 {
			result = append(result, d)
		}
	}
	return result
}

// Recompute recorre todo el historial y devuelve los saldos distintos de cero.
// Es la estrategia ingenua; el agregado incremental debe coincidir siempre con ella.
func Recompute(movements []*entity.Movement) map[entity.BalanceKey]int64 {
	balances := make(map[entity.BalanceKey]int64)
	for _, m := range movements {
		for _, d := range Contribution(m) {
			balances[d.Key] += d.Qty
		}
	}
	for k, v := range balances {
		if v == 0 {
			delete(balances, k)
		}
	}
	return balances
}

// BalanceOf = Σqty(to = location) − Σqty(from = location) para el producto dado.
func BalanceOf(movements []*entity.Movement, productID, locationID string) int64 {
	var total int64
	for _, m := range movements {
		if m.ProductID != productID {
			continue
		}
		if m.ToLocation == locationID {
			total += m.Qty
		}
		if m.FromLocation == locationID {
			total -= m.Qty
		}
	}
	return total
}

// NetExternalFlow = entradas externas − salidas externas del producto.
// Por conservación es igual a la suma de sus saldos en todas las ubicaciones.
func NetExternalFlow(movements []*entity.Movement, productID string) int64 {
	var total int64
	for _, m := range movements {
		if m.ProductID != productID {
			continue
		}
		if m.ToLocation != "" {
			total += m.Qty
		}
		if m.FromLocation != "" {
			total -= m.Qty
		}
	}
	return total
}

// BuildReport cruza productos (externo) y ubicaciones (interno) e incluye solo saldos distintos de cero.
func BuildReport(products []*entity.Product, locations []*entity.Location, lookup func(entity.BalanceKey) int64) []entity.Balance {
	rows := make([]entity.Balance, 0)
	for _, p := range products {
		for _, l := range locations {
			qty := lookup(entity.BalanceKey{ProductID: p.ID, LocationID: l.ID})
			if qty == 0 {
				continue
			}
			rows = append(rows, entity.Balance{ProductID: p.ID, LocationID: l.ID, Quantity: qty})
		}
	}
	return rows
}

// Mismatch describe un par cuyo saldo agregado no coincide con el recalculado.
type Mismatch struct {
	Key        entity.BalanceKey
	Aggregated int64
	Recomputed int64
}

// Diff compara el agregado incremental contra el recálculo completo. Resultado ordenado por clave.
func Diff(aggregated, recomputed map[entity.BalanceKey]int64) []Mismatch {
	var out []Mismatch
	for k, v := range aggregated {
		if r := recomputed[k]; r != v {
			out = append(out, Mismatch{Key: k, Aggregated: v, Recomputed: r})
		}
	}
	for k, r := range recomputed {
		if _, ok := aggregated[k]; !ok && r != 0 {
			out = append(out, Mismatch{Key: k, Recomputed: r})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ProductID != out[j].Key.ProductID {
			return out[i].Key.ProductID < out[j].Key.ProductID
		}
		return out[i].Key.LocationID < out[j].Key.LocationID
	})
	return out
}
