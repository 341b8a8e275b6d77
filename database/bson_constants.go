package database

// Opérateurs MongoDB (évite les littéraux dupliqués)
const (
	BSONLookup  = "$lookup"
	BSONUnwind  = "$unwind"
	BSONMatch   = "$match"
	BSONSort    = "$sort"
	BSONSkip    = "$skip"
	BSONLimit   = "$limit"
	BSONGroup   = "$group"
	BSONSet     = "$set"
	BSONInc     = "$inc"
	BSONRegex   = "$regex"
	BSONOptions = "$options"
	BSONLiteral = "$literal"
)
