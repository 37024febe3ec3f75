package postings

import "github.com/xraph/postings/id"

// ID is the primary identifier type for all postings entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
