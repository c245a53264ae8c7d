package constants

// Report queries run through sqlx. Placeholders are '?' and go through
// DB.Rebind so the same text serves Postgres and SQLite.
const (
	// LatestSuccessfulSyncs picks, for every (channel, room type) pair, the
	// most recently enqueued entry that reached success. Enqueue order is
	// snapshot order, so this is the freshest data the channel holds.
	LatestSuccessfulSyncs = `
	SELECT q.channel_manager_id, cm.name AS channel_name, q.room_type_id,
	       q.id AS queue_entry_id, q.date_from, q.date_to, q.created_at AS enqueued_at,
	       q.updated_at AS synced_at
	FROM sync_queue q
	JOIN channel_managers cm ON cm.id = q.channel_manager_id
	WHERE q.status = ?
	  AND NOT EXISTS (
	      SELECT 1 FROM sync_queue n
	      WHERE n.channel_manager_id = q.channel_manager_id
	        AND n.room_type_id = q.room_type_id
	        AND n.status = ?
	        AND n.created_at > q.created_at
	  )
	ORDER BY cm.name, q.room_type_id
	`

	// ChannelQueueSummary counts queue entries per channel and status.
	ChannelQueueSummary = `
	SELECT cm.id AS channel_manager_id, cm.name AS channel_name, q.status, COUNT(q.id) AS entries
	FROM channel_managers cm
	JOIN sync_queue q ON q.channel_manager_id = cm.id
	GROUP BY cm.id, cm.name, q.status
	ORDER BY cm.name, q.status
	`
)
