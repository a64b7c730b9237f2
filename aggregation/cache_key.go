package aggregation

// Factory type names, as they appear in FactorySpec configuration.
const (
	TypeTimeMax     = "timeMax"
	TypeTimeMin     = "timeMin"
	TypeLongSum     = "longSum"
	TypeCardinality = "cardinality"
)

// One cache tag byte per aggregation kind. Consumers know the expected tag
// statically; two kinds must never share a tag or semantically different
// aggregations could collide in the query-result cache.
const (
	cacheTypeIDTimeMax byte = iota + 1
	cacheTypeIDTimeMin
	cacheTypeIDLongSum
	cacheTypeIDCardinality
)

// buildCacheKey encodes an aggregation's identity for cache lookups:
// the kind's tag byte followed by the UTF-8 bytes of the source field,
// with no terminator and no length prefix.
func buildCacheKey(typeID byte, fieldName string) []byte {
	key := make([]byte, 0, 1+len(fieldName))
	key = append(key, typeID)
	key = append(key, fieldName...)
	return key
}
