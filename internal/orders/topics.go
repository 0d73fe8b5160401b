package orders

const (
	TopicOrderPlaced       = "plant.order.placed"
	TopicOrderCancelled    = "plant.order.cancelled"
	TopicInventoryAdjusted = "plant.inventory.adjusted"
	TopicOrderStatus       = "plant.order.status"
)

// Partition key = order_id (plant_id for inventory events), supaya semua event 1 order maintain urutan.
func PartitionKey(id string) []byte { return []byte(id) }
