package gorm

// All lists every model owned or read by this service, in migration order.
func All() []interface{} {
	return []interface{}{
		&RoomType{},
		&Booking{},
		&BookingUnit{},
		&BlackoutDate{},
		&ChannelManager{},
		&SyncQueueEntry{},
		&SyncLog{},
	}
}
