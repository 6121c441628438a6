package handlers

import "log"

// staleCartDays is how long an untouched cart row survives before the
// background worker removes it.
const staleCartDays = 7

// PurgeStaleCartItems deletes cart rows that have not been touched in a
// week. Called from the hourly background worker in cmd/api.
func (h *Handlers) PurgeStaleCartItems() {
	result, err := h.DB.Exec(
		"DELETE FROM cart_items WHERE added_at < NOW() - INTERVAL ? DAY",
		staleCartDays)
	if err != nil {
		log.Printf("ERROR purging stale cart items: %v", err)
		return
	}
	if purged, _ := result.RowsAffected(); purged > 0 {
		log.Printf("Purged %d stale cart item(s)", purged)
	}
}
