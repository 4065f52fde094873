package shipment

// Status is the lifecycle state of a shipment. A shipment advances one step
// at a time and never moves backwards.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusCollected Status = "recolectado"
	StatusWarehouse Status = "en_bodega"
	StatusInTransit Status = "en_transito"
	StatusDelivered Status = "entregado"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCollected, StatusWarehouse, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// Next returns the following state in the lifecycle. Delivered is terminal.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPending:
		return StatusCollected, true
	case StatusCollected:
		return StatusWarehouse, true
	case StatusWarehouse:
		return StatusInTransit, true
	case StatusInTransit:
		return StatusDelivered, true
	}
	return "", false
}
