package domain

// StatsOverview is the admin snapshot of the dispatch surface.
type StatsOverview struct {
	Owners              int64 `json:"owners"`
	Subscriptions       int64 `json:"subscriptions"`
	ActiveSubscriptions int64 `json:"activeSubscriptions"`
	DeliveryLogEntries  int64 `json:"deliveryLogEntries"`
}
