package redis

// Key prefixes for primary entity storage.
const (
	prefixSubscription = "renderrelay:sub:"
	prefixRecent       = "renderrelay:recent:" // + event type
)

// Key prefixes for unique indexes.
const (
	uniqueSubPair   = "renderrelay:u:sub:pair:"   // + eventType|targetURL
	uniqueSubRemote = "renderrelay:u:sub:remote:" // + remote ID
)

// Key prefixes for sorted set indexes.
const (
	zSubAll  = "renderrelay:z:sub:all"
	zSubType = "renderrelay:z:sub:type:" // + event type
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// pairKey returns the unique index key for an (eventType, targetURL) pair.
func pairKey(eventType, targetURL string) string {
	return uniqueSubPair + eventType + "|" + targetURL
}
